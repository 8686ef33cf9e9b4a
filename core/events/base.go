package events

import "time"

// Kind discriminates session event types, namespaced by receiver-facing
// family: session.*, connection.*, speech.*, conversation.* and tool_call.*.
type Kind string

// Event is anything the voice session can report to its event sink.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the fields shared by every session event: the kind
// discriminator and the wall-clock construction time. Conversation events
// additionally carry the resolved speech-start time; Timestamp here is only
// when the event was observed.
type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
