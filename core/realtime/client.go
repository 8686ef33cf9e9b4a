package realtime

import (
	"encoding/json"
	"fmt"
)

// Client event types sent over the data channel.
const (
	TypeResponseCreate         = "response.create"
	TypeSessionUpdate          = "session.update"
	TypeConversationItemCreate = "conversation.item.create"
)

// ResultStatus is the minimum contract of a tool result payload.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
)

type responseCreateEvent struct {
	Type string `json:"type"`
}

// NewResponseCreate requests a new coach turn from the remote endpoint.
func NewResponseCreate() ([]byte, error) {
	return json.Marshal(responseCreateEvent{Type: TypeResponseCreate})
}

type sessionUpdateEvent struct {
	Type    string        `json:"type"`
	Session SessionConfig `json:"session"`
}

// NewSessionUpdate builds a session configuration update carrying
// instructions, tool schemas and turn-detection parameters.
func NewSessionUpdate(config SessionConfig) ([]byte, error) {
	data, err := json.Marshal(sessionUpdateEvent{Type: TypeSessionUpdate, Session: config})
	if err != nil {
		return nil, fmt.Errorf("failed to encode session update: %w", err)
	}
	return data, nil
}

type functionCallOutputItem struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

type conversationItemCreateEvent struct {
	Type string                 `json:"type"`
	Item functionCallOutputItem `json:"item"`
}

// NewFunctionCallOutput builds a correlated tool result event. The payload is
// serialized as the item output; it must at minimum carry a "status" field.
func NewFunctionCallOutput(callID string, payload map[string]any) ([]byte, error) {
	output, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result payload: %w", err)
	}

	return json.Marshal(conversationItemCreateEvent{
		Type: TypeConversationItemCreate,
		Item: functionCallOutputItem{
			Type:   "function_call_output",
			CallID: callID,
			Output: string(output),
		},
	})
}
