package voicesession

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who produced a conversation message.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderCoach Sender = "coach"
)

// Message is one transcript entry. Timestamp is the speech-start time, not
// the time the transcript arrived, which makes cross-speaker ordering
// meaningful. Messages outlive the session and are handed to the chat store.
type Message struct {
	ID        string
	Sender    Sender
	Text      string
	Timestamp time.Time
}

// Timeline keeps the conversation in causal order. Timestamps are assigned
// retroactively, so a later-arriving message can predate one already present;
// every insert re-sorts the full list, which stays cheap at conversation
// scale.
type Timeline struct {
	mu       sync.Mutex
	messages []Message
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

// Insert appends the message and stably re-sorts ascending by timestamp.
// Ties keep insertion order.
func (t *Timeline) Insert(message Message) Message {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages = append(t.messages, message)
	sort.SliceStable(t.messages, func(a, b int) bool {
		return t.messages[a].Timestamp.Before(t.messages[b].Timestamp)
	})
	return message
}

// Messages returns a point-in-time copy in causal order.
func (t *Timeline) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := make([]Message, len(t.messages))
	copy(snapshot, t.messages)
	return snapshot
}

// Finalize performs the idempotent final sort and returns the persisted
// transcript.
func (t *Timeline) Finalize() []Message {
	t.mu.Lock()
	sort.SliceStable(t.messages, func(a, b int) bool {
		return t.messages[a].Timestamp.Before(t.messages[b].Timestamp)
	})
	t.mu.Unlock()
	return t.Messages()
}

func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}
