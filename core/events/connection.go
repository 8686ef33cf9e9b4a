package events

import "time"

const (
	// KindConnectionStateChanged identifies a transport state transition.
	KindConnectionStateChanged Kind = "connection.state_changed"
	// KindReconnectScheduled identifies a pending reconnect attempt.
	KindReconnectScheduled Kind = "connection.reconnect_scheduled"
)

// ConnectionStateChanged marks a transport state transition.
type ConnectionStateChanged struct {
	Base
	State string
}

// NewConnectionStateChanged creates a connection state changed event.
func NewConnectionStateChanged(state string) ConnectionStateChanged {
	return ConnectionStateChanged{Base: NewBase(KindConnectionStateChanged), State: state}
}

// ReconnectScheduled marks a reconnect attempt scheduled after a failure.
type ReconnectScheduled struct {
	Base
	Attempt int
	Delay   time.Duration
}

// NewReconnectScheduled creates a reconnect scheduled event.
func NewReconnectScheduled(attempt int, delay time.Duration) ReconnectScheduled {
	return ReconnectScheduled{Base: NewBase(KindReconnectScheduled), Attempt: attempt, Delay: delay}
}
