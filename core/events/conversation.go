package events

import "time"

const (
	// KindMessageRecorded identifies a finalized transcript in the timeline.
	KindMessageRecorded Kind = "conversation.message_recorded"
	// KindUserInputDeferred identifies an utterance held back while the
	// session is busy.
	KindUserInputDeferred Kind = "conversation.user_input_deferred"
	// KindUserInputReplayed identifies a deferred utterance being dispatched.
	KindUserInputReplayed Kind = "conversation.user_input_replayed"
)

// MessageRecorded carries one finalized transcript. SpokenAt is the resolved
// speech-start time the timeline orders by, not the arrival time.
type MessageRecorded struct {
	Base
	Sender   string
	Text     string
	SpokenAt time.Time
}

// NewMessageRecorded creates a message recorded event.
func NewMessageRecorded(sender, text string, spokenAt time.Time) MessageRecorded {
	return MessageRecorded{Base: NewBase(KindMessageRecorded), Sender: sender, Text: text, SpokenAt: spokenAt}
}

// UserInputDeferred marks an utterance queued behind coach speech or a
// running tool call.
type UserInputDeferred struct {
	Base
	Text   string
	Queued int
}

// NewUserInputDeferred creates a user input deferred event.
func NewUserInputDeferred(text string, queued int) UserInputDeferred {
	return UserInputDeferred{Base: NewBase(KindUserInputDeferred), Text: text, Queued: queued}
}

// UserInputReplayed marks a deferred utterance being dispatched.
type UserInputReplayed struct {
	Base
	Text string
}

// NewUserInputReplayed creates a user input replayed event.
func NewUserInputReplayed(text string) UserInputReplayed {
	return UserInputReplayed{Base: NewBase(KindUserInputReplayed), Text: text}
}
