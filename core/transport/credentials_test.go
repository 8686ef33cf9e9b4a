package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchReturnsTokenAndExpiry(t *testing.T) {
	expiry := time.Now().Add(time.Minute).Unix()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
			Voice string `json:"voice"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode credential request: %v", err)
		}
		if req.Model != "gpt-realtime" || req.Voice != "verse" {
			t.Errorf("unexpected credential request: %+v", req)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"client_secret": map[string]any{"value": "ek_test", "expires_at": expiry},
		})
	}))
	defer server.Close()

	client := NewCredentialsClient(server.URL, "gpt-realtime", "verse")
	credentials, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("expected fetch to succeed, got %v", err)
	}

	if credentials.Token != "ek_test" {
		t.Fatalf("expected token, got %q", credentials.Token)
	}
	if credentials.Expired(time.Now()) {
		t.Fatalf("expected credentials to still be valid")
	}
	if !credentials.Expired(time.Unix(expiry, 0).Add(time.Second)) {
		t.Fatalf("expected credentials to expire after %d", expiry)
	}
}

func TestFetchAbortsAtTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewCredentialsClient(server.URL, "gpt-realtime", "verse",
		WithCredentialTimeout(30*time.Millisecond))

	start := time.Now()
	if _, err := client.Fetch(context.Background()); err == nil {
		t.Fatalf("expected timeout to abort the fetch")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected a hard abort near the timeout, took %v", elapsed)
	}
}

func TestFetchRejectsNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewCredentialsClient(server.URL, "gpt-realtime", "")
	if _, err := client.Fetch(context.Background()); err == nil {
		t.Fatalf("expected non-2xx response to fail acquisition")
	}
}

func TestFetchRejectsEmptySecret(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"client_secret":{}}`))
	}))
	defer server.Close()

	client := NewCredentialsClient(server.URL, "gpt-realtime", "")
	if _, err := client.Fetch(context.Background()); err == nil {
		t.Fatalf("expected missing secret to fail acquisition")
	}
}
