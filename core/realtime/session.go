package realtime

import "encoding/json"

// SessionConfig is the session.update payload: coaching instructions, the
// exposed tool schemas and server-side turn-detection tuning.
type SessionConfig struct {
	Instructions  string           `json:"instructions,omitempty"`
	Voice         string           `json:"voice,omitempty"`
	Tools         []ToolDefinition `json:"tools,omitempty"`
	TurnDetection *TurnDetection   `json:"turn_detection,omitempty"`

	InputAudioTranscription *TranscriptionConfig `json:"input_audio_transcription,omitempty"`
}

// ToolDefinition describes one callable tool to the remote party. Parameters
// is a pre-rendered JSON schema.
type ToolDefinition struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// TurnDetection configures server VAD turn taking.
type TurnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold,omitempty"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms,omitempty"`
	SilenceDurationMs int     `json:"silence_duration_ms,omitempty"`
}

// DefaultTurnDetection is the server VAD tuning used when the caller does
// not override turn taking.
func DefaultTurnDetection() *TurnDetection {
	return &TurnDetection{
		Type:              "server_vad",
		Threshold:         0.5,
		PrefixPaddingMs:   300,
		SilenceDurationMs: 600,
	}
}

// TranscriptionConfig selects the model transcribing user speech.
type TranscriptionConfig struct {
	Model string `json:"model"`
}
