package voicesession

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind tags the feature holding the session slot. At most one session of any
// kind is active at a time.
type Kind string

const (
	KindVoiceCall Kind = "voice_call"
	KindCheckIn   Kind = "check_in"
	KindGuidedRun Kind = "guided_run"
)

// ErrSessionBusy reports that a different kind already holds the slot. The
// caller must route to fallback, not retry; the slot will not free itself.
var ErrSessionBusy = errors.New("another session kind is already active")

type activeSlot struct {
	id        string
	ownerID   string
	kind      Kind
	startedAt time.Time
}

// Manager is the global mutual-exclusion arbiter for session-holding
// features. It is injected, never a package global.
type Manager struct {
	mu     sync.Mutex
	active *activeSlot
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) CanStartSession(kind Kind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active == nil
}

// StartSession claims the slot. Starting while any session is active fails
// with ErrSessionBusy; the previous session must end first. Exactly one
// session is active globally.
func (m *Manager) StartSession(ownerID string, kind Kind) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return "", ErrSessionBusy
	}

	m.active = &activeSlot{
		id:        uuid.NewString(),
		ownerID:   ownerID,
		kind:      kind,
		startedAt: time.Now(),
	}
	return m.active.id, nil
}

func (m *Manager) EndSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = nil
}

// ForceEndSession bypasses all checks. Recovery paths use it when the
// recorded owner can no longer be reached.
func (m *Manager) ForceEndSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = nil
}

func (m *Manager) IsSessionActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}

// ActiveComponent reports the owning component tag for diagnostics.
func (m *Manager) ActiveComponent() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return ""
	}
	return m.active.ownerID + ":" + string(m.active.kind)
}
