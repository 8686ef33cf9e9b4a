package realtime

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseServerEventCorrelatesByExplicitIDs(t *testing.T) {
	raw := `{
		"type": "conversation.item.input_audio_transcription.completed",
		"event_id": "evt_123",
		"item_id": "item_42",
		"transcript": "make tomorrow an easy run"
	}`

	event, err := ParseServerEvent([]byte(raw))
	if err != nil {
		t.Fatalf("expected transcript event to parse, got %v", err)
	}

	if event.Type != TypeInputTranscriptionCompleted {
		t.Fatalf("expected type %q, got %q", TypeInputTranscriptionCompleted, event.Type)
	}
	if event.ItemID != "item_42" {
		t.Fatalf("expected item id to carry correlation, got %q", event.ItemID)
	}
	if event.Transcript != "make tomorrow an easy run" {
		t.Fatalf("unexpected transcript: %q", event.Transcript)
	}
}

func TestParseServerEventToolCallDelta(t *testing.T) {
	raw := `{"type":"response.function_call_arguments.delta","call_id":"call_7","delta":"{\"dist"}`

	event, err := ParseServerEvent([]byte(raw))
	if err != nil {
		t.Fatalf("expected delta event to parse, got %v", err)
	}
	if event.CallID != "call_7" || event.Delta != `{"dist` {
		t.Fatalf("unexpected delta decoding: %+v", event)
	}
}

func TestParseServerEventRejectsMissingType(t *testing.T) {
	if _, err := ParseServerEvent([]byte(`{"transcript":"hello"}`)); err == nil {
		t.Fatalf("expected missing type discriminator to be rejected")
	}
}

func TestParseServerEventRejectsMalformedJSON(t *testing.T) {
	if _, err := ParseServerEvent([]byte(`{"type":`)); err == nil {
		t.Fatalf("expected malformed payload to be rejected")
	}
}

func TestNewFunctionCallOutputCarriesStatus(t *testing.T) {
	data, err := NewFunctionCallOutput("call_9", map[string]any{
		"status":  string(StatusSuccess),
		"message": "workout updated",
	})
	if err != nil {
		t.Fatalf("expected tool result to encode, got %v", err)
	}

	var envelope struct {
		Type string `json:"type"`
		Item struct {
			Type   string `json:"type"`
			CallID string `json:"call_id"`
			Output string `json:"output"`
		} `json:"item"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("failed to decode encoded result: %v", err)
	}

	if envelope.Type != TypeConversationItemCreate {
		t.Fatalf("expected conversation.item.create envelope, got %q", envelope.Type)
	}
	if envelope.Item.CallID != "call_9" {
		t.Fatalf("expected correlated call id, got %q", envelope.Item.CallID)
	}
	if !strings.Contains(envelope.Item.Output, `"status":"success"`) {
		t.Fatalf("expected status in output, got %q", envelope.Item.Output)
	}
}

func TestNewSessionUpdateIncludesToolSchemas(t *testing.T) {
	data, err := NewSessionUpdate(SessionConfig{
		Instructions: "You are a running coach.",
		Tools: []ToolDefinition{{
			Type:        "function",
			Name:        "adjust_workout",
			Description: "Apply a structured workout change",
			Parameters:  json.RawMessage(`{"type":"object"}`),
		}},
		TurnDetection: &TurnDetection{Type: "server_vad", SilenceDurationMs: 600},
	})
	if err != nil {
		t.Fatalf("expected session update to encode, got %v", err)
	}

	payload := string(data)
	for _, expected := range []string{
		`"type":"session.update"`,
		`"adjust_workout"`,
		`"server_vad"`,
		`"silence_duration_ms":600`,
	} {
		if !strings.Contains(payload, expected) {
			t.Fatalf("expected session update to contain %q, got %s", expected, payload)
		}
	}
}
