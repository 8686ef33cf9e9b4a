package voicesession

import (
	"sync"
	"time"
)

// FailureKind classifies why a connection attempt or live session failed.
// Only retryable kinds consume a reconnect attempt; fatal kinds go straight
// to fallback.
type FailureKind string

const (
	// FailureAcquisition covers credential timeouts and denied permissions.
	FailureAcquisition FailureKind = "acquisition"
	// FailureSignaling covers SDP exchange failures.
	FailureSignaling FailureKind = "signaling"
	// FailureTransport covers unexpected disconnects of a live connection.
	FailureTransport FailureKind = "transport"
	// FailureAuthorization covers persistent credential/model rejection.
	FailureAuthorization FailureKind = "authorization"
	// FailurePermission covers denied microphone or audio session access.
	FailurePermission FailureKind = "permission"
	// FailureResourceConflict covers another session holding the slot.
	FailureResourceConflict FailureKind = "resource_conflict"
)

func (k FailureKind) Retryable() bool {
	switch k {
	case FailureSignaling, FailureTransport:
		return true
	}
	return false
}

const (
	defaultMaxReconnectAttempts = 3
	defaultBackoffBase          = 2 * time.Second
	defaultBackoffCap           = 30 * time.Second
	defaultCleanupCooldown      = 1 * time.Second
)

// retryController computes bounded exponential backoff and enforces the
// post-cleanup cooldown that keeps reconnects from thrashing the audio
// session.
type retryController struct {
	mu sync.Mutex

	attempts    int
	maxAttempts int
	base        time.Duration
	cap         time.Duration
	cooldown    time.Duration

	lastCleanup time.Time

	now func() time.Time
}

func newRetryController() *retryController {
	return &retryController{
		maxAttempts: defaultMaxReconnectAttempts,
		base:        defaultBackoffBase,
		cap:         defaultBackoffCap,
		cooldown:    defaultCleanupCooldown,
		now:         time.Now,
	}
}

// next decides what happens after a failure of the given kind: a delay before
// the next attempt, or false meaning the session transitions to fallback.
func (r *retryController) next(kind FailureKind) (time.Duration, bool) {
	if !kind.Retryable() {
		return 0, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.attempts >= r.maxAttempts {
		return 0, false
	}

	delay := r.base << r.attempts
	if delay > r.cap {
		delay = r.cap
	}
	r.attempts++

	// A reconnect may not start before the cleanup cooldown has passed.
	if !r.lastCleanup.IsZero() {
		if remaining := r.cooldown - r.now().Sub(r.lastCleanup); remaining > delay {
			delay = remaining
		}
	}
	return delay, true
}

// noteCleanup records when teardown finished, for cooldown enforcement.
func (r *retryController) noteCleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastCleanup = r.now()
}

// reset forgets consumed attempts after a healthy connection.
func (r *retryController) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = 0
}

func (r *retryController) attemptsUsed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}
