package voicesession

import (
	"time"

	"github.com/jinzhu/copier"
)

// Snapshot is a point-in-time copy of the session's observable state.
// Everything in it is detached from the live session and safe to hand to
// other goroutines or serialize for diagnostics.
type Snapshot struct {
	SessionID     string
	State         SessionState
	CoachSpeaking bool

	QueuedInputs      int
	ReconnectAttempts int

	Messages []Message

	TakenAt time.Time
}

// Snapshot captures the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	snapshot := Snapshot{
		SessionID:     s.sessionID,
		State:         s.state,
		CoachSpeaking: s.coachSpeaking,
		TakenAt:       s.now(),
	}
	s.mu.RUnlock()

	snapshot.QueuedInputs = s.queue.len()
	snapshot.ReconnectAttempts = s.retry.attemptsUsed()

	if err := copier.Copy(&snapshot.Messages, s.timeline.Messages()); err != nil {
		logger.Warn("failed to copy timeline into snapshot", "error", err)
	}
	return snapshot
}
