// Package transport abstracts the realtime connection carrying the voice
// media and the JSON protocol events. Two implementations exist: a WebRTC
// peer connection with a data channel, and a plain WebSocket relay.
package transport

import "context"

// State mirrors the underlying connection lifecycle. Transitions are strictly
// sequential for one connection.
type State string

const (
	StateNew          State = "new"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
	StateFailed       State = "failed"
	StateClosed       State = "closed"
)

// Terminal reports whether no further transitions can follow.
func (s State) Terminal() bool {
	return s == StateDisconnected || s == StateFailed || s == StateClosed
}

// Callbacks receive transport activity. OnEvent delivers raw data-channel
// messages in arrival order; OnOpen fires once the event channel is writable.
type Callbacks struct {
	OnOpen        func()
	OnEvent       func(data []byte)
	OnStateChange func(state State)
}

// Transport is one session's connection. Connect may be called once; Close is
// idempotent and releases every underlying resource.
type Transport interface {
	Connect(ctx context.Context, credentials Credentials, callbacks Callbacks) error
	Send(event []byte) error

	// SetCaptureMuted gates outbound microphone media without renegotiation.
	SetCaptureMuted(muted bool)

	Close() error
}
