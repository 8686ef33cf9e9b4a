package voicesession

import (
	"math/rand"
	"testing"
	"time"
)

func TestInsertKeepsTimelineAscendingRegardlessOfArrivalOrder(t *testing.T) {
	base := time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC)
	timeline := NewTimeline()

	// A later-arriving message carries an earlier speech-start timestamp.
	timeline.Insert(Message{Sender: SenderCoach, Text: "How did the long run feel?", Timestamp: base.Add(3 * time.Second)})
	timeline.Insert(Message{Sender: SenderUser, Text: "Pretty good actually", Timestamp: base.Add(1 * time.Second)})
	timeline.Insert(Message{Sender: SenderCoach, Text: "Great, keep Wednesday easy", Timestamp: base.Add(8 * time.Second)})
	timeline.Insert(Message{Sender: SenderUser, Text: "Will do", Timestamp: base.Add(5 * time.Second)})

	messages := timeline.Messages()
	for i := 1; i < len(messages); i++ {
		if messages[i].Timestamp.Before(messages[i-1].Timestamp) {
			t.Fatalf("timeline out of order at %d: %v after %v", i, messages[i].Timestamp, messages[i-1].Timestamp)
		}
	}
	if messages[0].Text != "Pretty good actually" {
		t.Fatalf("expected earliest utterance first, got %q", messages[0].Text)
	}
}

func TestInsertRandomInterleavingsAlwaysSorted(t *testing.T) {
	base := time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 50; trial++ {
		offsets := rng.Perm(10)
		timeline := NewTimeline()
		for _, offset := range offsets {
			timeline.Insert(Message{Sender: SenderUser, Timestamp: base.Add(time.Duration(offset) * time.Second)})
		}

		finalized := timeline.Finalize()
		for i := 1; i < len(finalized); i++ {
			if finalized[i].Timestamp.Before(finalized[i-1].Timestamp) {
				t.Fatalf("trial %d: finalized timeline out of order at %d", trial, i)
			}
		}
	}
}

func TestEqualTimestampsKeepInsertionOrder(t *testing.T) {
	ts := time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC)
	timeline := NewTimeline()
	timeline.Insert(Message{Text: "first", Timestamp: ts})
	timeline.Insert(Message{Text: "second", Timestamp: ts})
	timeline.Insert(Message{Text: "third", Timestamp: ts})

	messages := timeline.Finalize()
	if messages[0].Text != "first" || messages[1].Text != "second" || messages[2].Text != "third" {
		t.Fatalf("expected stable order for equal timestamps, got %v", messages)
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	base := time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC)
	timeline := NewTimeline()
	timeline.Insert(Message{Text: "b", Timestamp: base.Add(time.Second)})
	timeline.Insert(Message{Text: "a", Timestamp: base})

	first := timeline.Finalize()
	second := timeline.Finalize()
	if len(first) != len(second) {
		t.Fatalf("finalize changed length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("finalize reordered messages at %d", i)
		}
	}
}

func TestInsertAssignsIDWhenMissing(t *testing.T) {
	timeline := NewTimeline()
	inserted := timeline.Insert(Message{Text: "hello", Timestamp: time.Now()})
	if inserted.ID == "" {
		t.Fatalf("expected an id to be assigned")
	}
}
