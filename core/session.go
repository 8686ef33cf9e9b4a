// Package voicesession orchestrates realtime voice coaching sessions: one
// global session slot, a negotiated realtime transport, the event protocol
// riding on it, tool execution, and the conversation timeline the session
// leaves behind.
package voicesession

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HuntCodes/yugen-voice/core/audio"
	"github.com/HuntCodes/yugen-voice/core/coaching"
	"github.com/HuntCodes/yugen-voice/core/events"
	"github.com/HuntCodes/yugen-voice/core/tools"
	"github.com/HuntCodes/yugen-voice/core/transport"
	"github.com/HuntCodes/yugen-voice/core/transport/webrtc"
)

// SessionState is the coarse lifecycle of one voice session as surfaced to
// the caller. Connection-level detail travels separately through the
// transport state callback.
type SessionState string

const (
	StateIdle                 SessionState = "idle"
	StateAcquiringCredentials SessionState = "acquiring_credentials"
	StateNegotiating          SessionState = "negotiating"
	StateConnected            SessionState = "connected"
	StateReconnecting         SessionState = "reconnecting"
	StateEnding               SessionState = "ending"
	// StateFallback is terminal: voice is given up for good and the caller
	// should offer a text alternative.
	StateFallback SessionState = "fallback"
)

// CredentialsProvider fetches the ephemeral credentials that authorize one
// realtime connection.
type CredentialsProvider interface {
	Fetch(ctx context.Context) (transport.Credentials, error)
}

const (
	defaultRefreshInterval = 25 * time.Minute
	defaultOwnerID         = "voice-session"

	eventQueueCapacity = 64
)

// Session drives one voice conversation from slot acquisition through
// teardown. A Session is single-use: construct, Start once, End once.
type Session struct {
	manager     *Manager
	credentials CredentialsProvider

	newTransport func() transport.Transport
	audio        *audio.Coordinator
	registry     *tools.Registry
	chat         coaching.ChatStore

	ownerID string
	kind    Kind

	toolTimeout     time.Duration
	refreshInterval time.Duration
	settleDelay     time.Duration

	retry  *retryController
	timers *timerRegistry

	timeline *Timeline
	queue    *inputQueue
	executor *toolCallExecutor

	options     StartOptions
	baseContext context.Context

	events    chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once

	started  atomic.Bool
	ending   atomic.Bool
	cleaning atomic.Bool

	mu          sync.RWMutex
	state       SessionState
	sessionID   string
	transport   transport.Transport
	channelOpen bool

	coachSpeaking    bool
	activeResponseID string

	// Speech-start wall clocks keyed by response or item id, with single-slot
	// fallbacks for events that arrive without a usable correlation id.
	speechStarts          map[string]time.Time
	lastSpeechStart       time.Time
	latestUserSpeechStart time.Time

	now func() time.Time
}

func NewSession(manager *Manager, credentials CredentialsProvider, opts ...SessionOption) *Session {
	registry, _ := tools.NewRegistry()

	s := &Session{
		manager:     manager,
		credentials: credentials,

		newTransport: func() transport.Transport {
			return webrtc.NewClient(webrtc.DefaultSignalingURL)
		},
		registry: registry,

		ownerID: defaultOwnerID,
		kind:    KindVoiceCall,

		toolTimeout:     defaultToolCallTimeout,
		refreshInterval: defaultRefreshInterval,
		settleDelay:     defaultQueueSettleDelay,

		retry:  newRetryController(),
		timers: newTimerRegistry(),

		timeline: NewTimeline(),
		queue:    newInputQueue(),

		baseContext: context.Background(),

		events:  make(chan []byte, eventQueueCapacity),
		closeCh: make(chan struct{}),

		state:        StateIdle,
		speechStarts: make(map[string]time.Time),

		now: time.Now,
	}

	s.executor = newToolCallExecutor(registry, s.sendToolResult, s.onToolResolved)

	for _, opt := range opts {
		opt(s)
	}
	s.executor.timeout = s.toolTimeout

	return s
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ID returns the identifier assigned when the global slot was acquired, or
// an empty string before Start.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// IsCoachSpeaking reports whether remote audio is currently playing.
func (s *Session) IsCoachSpeaking() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coachSpeaking
}

// Transcript returns a snapshot of the conversation so far, ordered by
// speech-start time.
func (s *Session) Transcript() []Message {
	return s.timeline.Messages()
}

// QueuedInputs reports how many user utterances are deferred behind coach
// speech or tool execution.
func (s *Session) QueuedInputs() int {
	return s.queue.len()
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	if s.state == state || s.state == StateFallback {
		s.mu.Unlock()
		return
	}
	s.state = state
	callback := s.options.onSessionStateChanged
	s.mu.Unlock()

	logger.Info("session state changed", "state", string(state))
	if callback != nil {
		callback(state)
	}
	s.emit(events.NewSessionStateChanged(string(state)))
}

// emit forwards one typed event to the optional event sink.
func (s *Session) emit(event events.Event) {
	if s.options.onEvent != nil {
		s.options.onEvent(event)
	}
}

func (s *Session) setCoachSpeaking(speaking bool) {
	s.mu.Lock()
	if s.coachSpeaking == speaking {
		s.mu.Unlock()
		return
	}
	s.coachSpeaking = speaking
	callback := s.options.onSpeakingStateChanged
	s.mu.Unlock()

	if callback != nil {
		callback(speaking)
	}
	if speaking {
		s.emit(events.NewCoachSpeechStarted())
	} else {
		s.emit(events.NewCoachSpeechStopped())
	}
}

func (s *Session) isCoachBusy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coachSpeaking || s.activeResponseID != ""
}

func (s *Session) reportError(err error) {
	if err == nil {
		return
	}
	logger.Error("session error", "error", err)
	if s.options.onError != nil {
		s.options.onError(err)
	}
}

// sendEvent writes one client event to the live transport. Send failures on
// a dying connection are expected; the transport state callback owns the
// recovery, so failures here are only logged.
func (s *Session) sendEvent(event []byte, err error) {
	if err != nil {
		s.reportError(err)
		return
	}

	s.mu.RLock()
	conn := s.transport
	open := s.channelOpen
	s.mu.RUnlock()

	if conn == nil || !open {
		logger.Debug("dropping client event, channel not open")
		return
	}
	if err := conn.Send(event); err != nil {
		logger.Warn("failed to send client event", "error", err)
	}
}

// failure ties an error to its retry classification.
type failure struct {
	kind FailureKind
	err  error
}

func (f *failure) Error() string {
	return string(f.kind) + ": " + f.err.Error()
}

func (f *failure) Unwrap() error { return f.err }

func newFailure(kind FailureKind, err error) *failure {
	return &failure{kind: kind, err: err}
}

// fallbackReason renders the terminal failure for the fallback callback.
func fallbackReason(kind FailureKind, err error) string {
	var b strings.Builder
	b.WriteString("voice session unavailable (")
	b.WriteString(string(kind))
	b.WriteString(")")
	if err != nil {
		b.WriteString(": ")
		b.WriteString(err.Error())
	}
	return b.String()
}
