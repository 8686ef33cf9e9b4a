package voicesession

import (
	"errors"
	"sync"
	"testing"
)

func TestStartSessionIsMutuallyExclusiveAcrossKinds(t *testing.T) {
	manager := NewManager()

	id, err := manager.StartSession("voice", KindVoiceCall)
	if err != nil {
		t.Fatalf("expected first start to succeed, got %v", err)
	}
	if id == "" {
		t.Fatalf("expected a session id")
	}

	if _, err := manager.StartSession("checkin", KindCheckIn); !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy while voice call active, got %v", err)
	}

	manager.EndSession()

	if _, err := manager.StartSession("checkin", KindCheckIn); err != nil {
		t.Fatalf("expected start after end to succeed, got %v", err)
	}
}

func TestConcurrentStartsGrantExactlyOneSlot(t *testing.T) {
	manager := NewManager()

	const starters = 16
	granted := make(chan string, starters)
	wg := sync.WaitGroup{}
	for i := 0; i < starters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if id, err := manager.StartSession("voice", KindVoiceCall); err == nil {
				granted <- id
			}
		}()
	}
	wg.Wait()
	close(granted)

	count := 0
	for range granted {
		count++
	}
	if count != 1 {
		t.Fatalf("expected exactly one grant, got %d", count)
	}
}

func TestForceEndSessionFreesSlot(t *testing.T) {
	manager := NewManager()
	if _, err := manager.StartSession("voice", KindVoiceCall); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}

	if got := manager.ActiveComponent(); got != "voice:voice_call" {
		t.Fatalf("unexpected active component: %q", got)
	}

	manager.ForceEndSession()

	if manager.IsSessionActive() {
		t.Fatalf("expected slot freed after force end")
	}
	if !manager.CanStartSession(KindGuidedRun) {
		t.Fatalf("expected new kind startable after force end")
	}
}
