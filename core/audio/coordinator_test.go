package audio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recordingSession struct {
	mu    sync.Mutex
	calls []string
	fail  bool
}

func (s *recordingSession) record(call string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	if s.fail {
		return fmt.Errorf("%s failed", call)
	}
	return nil
}

func (s *recordingSession) Activate() error   { return s.record("session.activate") }
func (s *recordingSession) Deactivate() error { return s.record("session.deactivate") }

type recordingRoute struct{ session *recordingSession }

func (r *recordingRoute) OverrideSpeaker() error { return r.session.record("route.override") }
func (r *recordingRoute) ClearOverride() error   { return r.session.record("route.clear") }

type fakeMic struct{ muted atomic.Bool }

func (m *fakeMic) SetCaptureMuted(muted bool) { m.muted.Store(muted) }

func newTestCoordinator(session *recordingSession, mic *fakeMic, opts ...CoordinatorOption) *Coordinator {
	return NewCoordinator(session, &recordingRoute{session: session}, mic, opts...)
}

func TestBeginCoachSpeechUnmutesAfterGuardWindow(t *testing.T) {
	mic := &fakeMic{}
	coordinator := newTestCoordinator(&recordingSession{}, mic, WithGuardWindow(30*time.Millisecond))

	coordinator.BeginCoachSpeech()
	if !mic.muted.Load() {
		t.Fatalf("expected mic muted at playback start")
	}

	deadline := time.Now().Add(time.Second)
	for mic.muted.Load() {
		if time.Now().After(deadline) {
			t.Fatalf("expected mic to unmute after guard window")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBeginCoachSpeechReschedulesGuardTimer(t *testing.T) {
	mic := &fakeMic{}
	coordinator := newTestCoordinator(&recordingSession{}, mic, WithGuardWindow(60*time.Millisecond))

	coordinator.BeginCoachSpeech()
	time.Sleep(35 * time.Millisecond)
	coordinator.BeginCoachSpeech()
	time.Sleep(35 * time.Millisecond)

	// First window has elapsed but the rescheduled one has not.
	if !mic.muted.Load() {
		t.Fatalf("expected rescheduled guard window to keep mic muted")
	}
}

func TestTeardownOrderAndErrorSwallowing(t *testing.T) {
	session := &recordingSession{fail: true}
	mic := &fakeMic{}
	coordinator := newTestCoordinator(session, mic)

	coordinator.BeginCoachSpeech()
	coordinator.Teardown()

	session.mu.Lock()
	calls := append([]string(nil), session.calls...)
	session.mu.Unlock()

	if len(calls) != 2 || calls[0] != "session.deactivate" || calls[1] != "route.clear" {
		t.Fatalf("expected deactivate then clear despite errors, got %v", calls)
	}
	if mic.muted.Load() {
		t.Fatalf("expected teardown to unmute the mic")
	}
}

func TestTeardownCancelsPendingGuardTimer(t *testing.T) {
	mic := &fakeMic{}
	coordinator := newTestCoordinator(&recordingSession{}, mic, WithGuardWindow(20*time.Millisecond))

	coordinator.BeginCoachSpeech()
	coordinator.Teardown()
	mic.SetCaptureMuted(true)

	time.Sleep(50 * time.Millisecond)
	if !mic.muted.Load() {
		t.Fatalf("expected cancelled guard timer not to fire after teardown")
	}
}

func TestTeardownIsIdempotent(t *testing.T) {
	session := &recordingSession{}
	coordinator := newTestCoordinator(session, &fakeMic{})

	wg := sync.WaitGroup{}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			coordinator.Teardown()
		}()
	}
	wg.Wait()

	session.mu.Lock()
	defer session.mu.Unlock()
	if len(session.calls) != 2 {
		t.Fatalf("expected exactly one teardown pass, got calls %v", session.calls)
	}
}
