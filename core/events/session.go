package events

const (
	// KindSessionStateChanged identifies a session lifecycle transition.
	KindSessionStateChanged Kind = "session.state_changed"
	// KindSessionFallback identifies the terminal switch away from voice.
	KindSessionFallback Kind = "session.fallback"
	// KindSessionEnded identifies an intentional session end.
	KindSessionEnded Kind = "session.ended"
)

// SessionStateChanged marks a session lifecycle transition.
type SessionStateChanged struct {
	Base
	State string
}

// NewSessionStateChanged creates a session state changed event.
func NewSessionStateChanged(state string) SessionStateChanged {
	return SessionStateChanged{Base: NewBase(KindSessionStateChanged), State: state}
}

// SessionFallback marks the session giving up on voice for good.
type SessionFallback struct {
	Base
	Reason string
}

// NewSessionFallback creates a session fallback event.
func NewSessionFallback(reason string) SessionFallback {
	return SessionFallback{Base: NewBase(KindSessionFallback), Reason: reason}
}

// SessionEnded marks an intentional session end.
type SessionEnded struct {
	Base
	Messages int
}

// NewSessionEnded creates a session ended event.
func NewSessionEnded(messages int) SessionEnded {
	return SessionEnded{Base: NewBase(KindSessionEnded), Messages: messages}
}
