package realtime

import (
	"encoding/json"
	"fmt"
)

// Server event types carried on the data channel. Each inbound message is a
// JSON object with a "type" discriminator; everything else is family-specific.
const (
	TypeSessionCreated = "session.created"
	TypeSessionUpdated = "session.updated"

	TypeResponseCreated = "response.created"
	TypeResponseDone    = "response.done"

	TypeOutputAudioBufferStarted = "output_audio_buffer.started"
	TypeOutputAudioBufferStopped = "output_audio_buffer.stopped"

	TypeInputSpeechStarted = "input_audio_buffer.speech_started"

	TypeResponseAudioTranscriptDone = "response.audio_transcript.done"
	TypeInputTranscriptionCompleted = "conversation.item.input_audio_transcription.completed"

	TypeFunctionCallArgumentsDelta = "response.function_call_arguments.delta"
	TypeFunctionCallArgumentsDone  = "response.function_call_arguments.done"

	TypeError = "error"
)

// ServerEvent is the decoded envelope of an inbound protocol event. Fields
// are populated per family; correlation always goes through the explicit
// ResponseID/ItemID/CallID fields, never through arrival order.
type ServerEvent struct {
	Type    string `json:"type"`
	EventID string `json:"event_id,omitempty"`

	ResponseID string `json:"response_id,omitempty"`
	ItemID     string `json:"item_id,omitempty"`

	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Delta     string `json:"delta,omitempty"`
	Arguments string `json:"arguments,omitempty"`

	Transcript string `json:"transcript,omitempty"`

	Response *ResponseMeta `json:"response,omitempty"`
	Error    *ErrorDetail  `json:"error,omitempty"`
}

// ResponseMeta is the subset of the response object the orchestrator needs.
type ResponseMeta struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status,omitempty"`
}

// ErrorDetail describes a protocol-level error event.
type ErrorDetail struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	EventID string `json:"event_id,omitempty"`
}

func (e *ErrorDetail) String() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s): %s", e.Type, e.Code, e.Message)
}

// ParseServerEvent decodes a single data-channel message. Unknown event types
// decode successfully and are left to the caller to skip; a payload without a
// type discriminator is malformed.
func ParseServerEvent(data []byte) (ServerEvent, error) {
	var event ServerEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return ServerEvent{}, fmt.Errorf("failed to decode server event: %w", err)
	}
	if event.Type == "" {
		return ServerEvent{}, fmt.Errorf("server event missing type discriminator")
	}
	return event, nil
}
