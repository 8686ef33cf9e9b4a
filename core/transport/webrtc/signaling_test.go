package webrtc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HuntCodes/yugen-voice/core/transport"
)

const fakeOffer = "v=0\r\no=- 0 0 IN IP4 127.0.0.1\r\ns=-\r\n"

func TestExchangeSDPAuthenticatesAndReturnsAnswer(t *testing.T) {
	const answer = "v=0\r\no=- 1 1 IN IP4 127.0.0.1\r\ns=answer\r\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer ek_test" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/sdp" {
			t.Errorf("expected sdp content type, got %q", got)
		}
		if got := r.URL.Query().Get("model"); got != "gpt-realtime" {
			t.Errorf("expected model query parameter, got %q", got)
		}
		_, _ = w.Write([]byte(answer))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	got, err := client.exchangeSDP(context.Background(), fakeOffer, transport.Credentials{
		Token: "ek_test",
		Model: "gpt-realtime",
	})
	if err != nil {
		t.Fatalf("expected exchange to succeed, got %v", err)
	}
	if got != answer {
		t.Fatalf("expected raw answer body, got %q", got)
	}
}

func TestExchangeSDPFailsOnNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.exchangeSDP(context.Background(), fakeOffer, transport.Credentials{Token: "ek"}); err == nil {
		t.Fatalf("expected non-2xx signaling response to fail")
	}
}

func TestExchangeSDPRejectsNonSDPBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"not sdp"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.exchangeSDP(context.Background(), fakeOffer, transport.Credentials{Token: "ek"}); err == nil {
		t.Fatalf("expected non-SDP body to be rejected")
	}
}

func TestSendFailsBeforeConnect(t *testing.T) {
	client := NewClient("http://localhost:0")
	if err := client.Send([]byte(`{"type":"response.create"}`)); err == nil {
		t.Fatalf("expected send before connect to fail")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	client := NewClient("http://localhost:0")
	for i := 0; i < 3; i++ {
		if err := client.Close(); err != nil {
			t.Fatalf("expected close %d to succeed, got %v", i, err)
		}
	}
}
