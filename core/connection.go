package voicesession

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/codes"

	"github.com/HuntCodes/yugen-voice/core/events"
	"github.com/HuntCodes/yugen-voice/core/realtime"
	"github.com/HuntCodes/yugen-voice/core/transport"
)

// Start acquires the global session slot and brings up the first connection.
// A retryable connection failure schedules a reconnect and returns nil; the
// caller observes progress through the state callbacks. Fatal failures put
// the session in fallback and return the error.
//
// Contract: call Start at most once per session instance.
func (s *Session) Start(ctx context.Context, opts ...StartOption) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("session already started")
	}

	options := StartOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	s.mu.Lock()
	s.options = options
	s.baseContext = ctx
	s.mu.Unlock()

	sessionID, err := s.manager.StartSession(s.ownerID, s.kind)
	if err != nil {
		if errors.Is(err, ErrSessionBusy) {
			return fmt.Errorf("cannot start voice session, %q is active: %w",
				s.manager.ActiveComponent(), err)
		}
		return err
	}
	s.mu.Lock()
	s.sessionID = sessionID
	s.mu.Unlock()

	go s.processEvents()

	if err := s.connect(ctx); err != nil {
		var f *failure
		if errors.As(err, &f) && f.kind.Retryable() {
			// handleFailure schedules the reconnect; the session keeps going.
			s.handleFailure(err)
			return nil
		}
		s.handleFailure(err)
		return err
	}
	return nil
}

// connect runs one full connection attempt: credentials, transport
// negotiation, audio activation, refresh timer.
func (s *Session) connect(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "connect voice session")
	defer span.End()

	s.cleaning.Store(false)
	s.timers.reset()
	s.executor.resume()

	s.setState(StateAcquiringCredentials)
	credentials, err := s.credentials.Fetch(ctx)
	if err != nil {
		recordedErr := fmt.Errorf("failed to acquire session credentials: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
		return newFailure(FailureAcquisition, recordedErr)
	}

	s.setState(StateNegotiating)
	conn := s.newTransport()
	s.mu.Lock()
	s.transport = conn
	s.channelOpen = false
	s.mu.Unlock()

	err = conn.Connect(ctx, credentials, transport.Callbacks{
		OnOpen:  s.onChannelOpen,
		OnEvent: s.enqueueEvent,
		OnStateChange: func(state transport.State) {
			s.onTransportState(conn, state)
		},
	})
	if err != nil {
		recordedErr := fmt.Errorf("failed to negotiate realtime transport: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
		s.dropTransport(conn)
		return newFailure(FailureSignaling, recordedErr)
	}

	if s.audio != nil {
		s.audio.BindCaptureMuter(conn)
		if err := s.audio.Activate(); err != nil {
			recordedErr := fmt.Errorf("failed to activate audio session: %w", err)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
			s.dropTransport(conn)
			return newFailure(FailurePermission, recordedErr)
		}
	}

	s.setState(StateConnected)
	s.retry.reset()
	s.timers.schedule(timerSessionRefresh, s.refreshInterval, s.refreshConnection)

	logger.Info("voice session connected")
	return nil
}

func (s *Session) dropTransport(conn transport.Transport) {
	s.mu.Lock()
	if s.transport == conn {
		s.transport = nil
		s.channelOpen = false
	}
	s.mu.Unlock()
	if err := conn.Close(); err != nil {
		logger.Warn("failed to close transport", "error", err)
	}
}

// onChannelOpen configures the remote session as soon as the event channel
// is writable, then plays the optional greeting clip while the first
// response is still in flight.
func (s *Session) onChannelOpen() {
	s.mu.Lock()
	s.channelOpen = true
	clip := s.options.greetingClip
	s.mu.Unlock()

	s.sendEvent(realtime.NewSessionUpdate(s.options.sessionConfig(s.registry)))

	if len(clip) > 0 && s.audio != nil {
		go func() {
			if err := s.audio.PlayClip(clip); err != nil {
				logger.Warn("failed to play greeting clip", "error", err)
			}
		}()
	}
}

func (s *Session) onTransportState(conn transport.Transport, state transport.State) {
	// Transports deliver state changes asynchronously, so a dead connection
	// can still report terminal states after its replacement is live. Only
	// the current transport gets to speak for the session.
	s.mu.RLock()
	current := s.transport == conn
	s.mu.RUnlock()
	if !current {
		logger.Debug("ignoring state change from replaced transport", "state", string(state))
		return
	}

	if callback := s.options.onConnectionStateChange; callback != nil {
		callback(state)
	}
	s.emit(events.NewConnectionStateChanged(string(state)))
	if !state.Terminal() {
		return
	}
	// Terminal states reached through End or an in-progress cleanup are
	// intentional; anything else is an unexpected disconnect.
	if s.ending.Load() || s.cleaning.Load() {
		return
	}
	go s.handleFailure(newFailure(FailureTransport,
		fmt.Errorf("transport entered state %q", state)))
}

// handleFailure tears the connection down and decides between a scheduled
// reconnect and terminal fallback.
func (s *Session) handleFailure(err error) {
	var f *failure
	if !errors.As(err, &f) {
		f = newFailure(FailureTransport, err)
	}

	s.reportError(f)
	s.cleanupConnection()

	if s.ending.Load() {
		return
	}

	delay, retry := s.retry.next(f.kind)
	if !retry {
		s.enterFallback(f.kind, f.err)
		return
	}

	s.setState(StateReconnecting)
	s.timers.reset()
	s.timers.schedule(timerReconnect, delay, s.reconnect)
	logger.Info("reconnect scheduled",
		"delay", delay.String(), "attempt", s.retry.attemptsUsed())
	s.emit(events.NewReconnectScheduled(s.retry.attemptsUsed(), delay))
}

func (s *Session) reconnect() {
	if s.ending.Load() {
		return
	}
	if err := s.connect(s.baseContext); err != nil {
		s.handleFailure(err)
	}
}

// refreshConnection cycles the connection before the remote endpoint's own
// session limit hits. A refresh does not consume reconnect attempts.
func (s *Session) refreshConnection() {
	if s.ending.Load() {
		return
	}
	logger.Info("refreshing realtime session")

	s.cleanupConnection()
	s.retry.reset()
	s.timers.reset()
	s.timers.schedule(timerReconnect, defaultCleanupCooldown, s.reconnect)
}

// enterFallback is the terminal failure path: the session releases the global
// slot and tells the caller to offer a non-voice alternative.
func (s *Session) enterFallback(kind FailureKind, cause error) {
	s.cleanupConnection()
	s.manager.EndSession()

	s.mu.Lock()
	if s.state == StateFallback {
		s.mu.Unlock()
		return
	}
	s.state = StateFallback
	onState := s.options.onSessionStateChanged
	onFallback := s.options.onFallback
	s.mu.Unlock()

	logger.Warn("voice session falling back", "kind", string(kind), "cause", cause)
	if onState != nil {
		onState(StateFallback)
	}
	if onFallback != nil {
		onFallback(fallbackReason(kind, cause))
	}
	s.emit(events.NewSessionFallback(fallbackReason(kind, cause)))
	s.closeOnce.Do(func() { close(s.closeCh) })
}

// End tears the session down intentionally and returns the finalized
// transcript. End is idempotent.
func (s *Session) End() []Message {
	s.ending.Store(true)
	s.setState(StateEnding)

	s.cleanupConnection()
	s.manager.EndSession()
	s.closeOnce.Do(func() { close(s.closeCh) })

	s.setState(StateIdle)
	transcript := s.timeline.Finalize()
	s.emit(events.NewSessionEnded(len(transcript)))
	return transcript
}
