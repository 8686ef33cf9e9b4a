package voicesession

import (
	"sync"
	"time"
)

const defaultQueueSettleDelay = 500 * time.Millisecond

// inputQueue defers user transcripts while the coach is speaking or a tool
// call is outstanding. No input is ever dropped; order is preserved.
type inputQueue struct {
	mu       sync.Mutex
	entries  []string
	draining bool
}

func newInputQueue() *inputQueue {
	return &inputQueue{}
}

func (q *inputQueue) push(text string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, text)
}

func (q *inputQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func (q *inputQueue) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return "", false
	}
	entry := q.entries[0]
	q.entries = q.entries[1:]
	return entry, true
}

// drain dispatches queued entries one at a time with a settle delay between
// them, so coach turns never overlap. Only one drainer runs at a time; the
// loop stops as soon as busy re-asserts or halted reports cleanup.
func (q *inputQueue) drain(busy func() bool, halted func() bool, dispatch func(text string), settle time.Duration) {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return
	}
	q.draining = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.draining = false
		q.mu.Unlock()
	}()

	for {
		if halted() || busy() {
			return
		}

		entry, ok := q.pop()
		if !ok {
			return
		}
		dispatch(entry)

		time.Sleep(settle)
	}
}
