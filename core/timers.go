package voicesession

import (
	"sync"
	"time"
)

// Named timer handles held in session state. Keeping them in one registry
// lets cleanup cancel everything deterministically instead of chasing ad-hoc
// timers.
const (
	timerSessionRefresh = "session_refresh"
	timerReconnect      = "reconnect"
	timerToolSettle     = "tool_settle"
)

type timerRegistry struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func newTimerRegistry() *timerRegistry {
	return &timerRegistry{timers: make(map[string]*time.Timer)}
}

// schedule arms a named timer, cancelling any previous timer under the same
// name. Callbacks fire on their own goroutine; they must re-check session
// guards since cancellation can race the firing.
func (r *timerRegistry) schedule(name string, delay time.Duration, callback func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return
	}
	if existing, ok := r.timers[name]; ok {
		existing.Stop()
	}
	r.timers[name] = time.AfterFunc(delay, func() {
		r.mu.Lock()
		delete(r.timers, name)
		stopped := r.stopped
		r.mu.Unlock()
		if stopped {
			return
		}
		callback()
	})
}

func (r *timerRegistry) cancel(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if timer, ok := r.timers[name]; ok {
		timer.Stop()
		delete(r.timers, name)
	}
}

// cancelAll stops every pending timer and refuses new schedules. Used by
// cleanup as a hard cancellation point.
func (r *timerRegistry) cancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopped = true
	for name, timer := range r.timers {
		timer.Stop()
		delete(r.timers, name)
	}
}

// reset re-arms the registry for a fresh connection attempt.
func (r *timerRegistry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = false
}
