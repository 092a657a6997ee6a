package sim

import (
	"sync"
	"testing"
)

func TestDrainPreservesArrivalOrder(t *testing.T) {
	q := NewQueue()
	q.Push(Event{Type: EventPause})
	q.Push(Event{Type: EventRemove, ID: 7})
	q.Push(Event{Type: EventResume})

	batch := q.Drain()
	if len(batch) != 3 {
		t.Fatalf("expected 3 events, got %d", len(batch))
	}
	want := []EventType{EventPause, EventRemove, EventResume}
	for i, e := range batch {
		if e.Type != want[i] {
			t.Fatalf("event %d: got %v, want %v", i, e.Type, want[i])
		}
	}
	if q.Len() != 0 {
		t.Fatalf("drain must empty the queue, %d left", q.Len())
	}
}

func TestDrainCoalescesSetParameterPerKey(t *testing.T) {
	q := NewQueue()
	q.Push(Event{Type: EventSetParameter, Key: "speed", Value: 1})
	q.Push(Event{Type: EventPause})
	q.Push(Event{Type: EventSetParameter, Key: "speed", Value: 2})
	q.Push(Event{Type: EventSetParameter, Key: "radius", Value: 5})

	batch := q.Drain()
	if len(batch) != 3 {
		t.Fatalf("expected 3 events after coalescing, got %d: %v", len(batch), batch)
	}
	if batch[0].Type != EventPause {
		t.Fatalf("non-parameter events must keep relative order, got %v first", batch[0].Type)
	}
	if batch[1].Key != "speed" || batch[1].Value != 2 {
		t.Fatalf("latest speed must win, got %v=%v", batch[1].Key, batch[1].Value)
	}
	if batch[2].Key != "radius" || batch[2].Value != 5 {
		t.Fatalf("other keys unaffected, got %v=%v", batch[2].Key, batch[2].Value)
	}
}

func TestCoalescingScopedToOneBatch(t *testing.T) {
	q := NewQueue()
	q.Push(Event{Type: EventSetParameter, Key: "speed", Value: 1})
	first := q.Drain()
	q.Push(Event{Type: EventSetParameter, Key: "speed", Value: 2})
	second := q.Drain()

	if len(first) != 1 || first[0].Value != 1 {
		t.Fatalf("first batch: %v", first)
	}
	if len(second) != 1 || second[0].Value != 2 {
		t.Fatalf("second batch: %v", second)
	}
}

func TestPushConcurrent(t *testing.T) {
	q := NewQueue()
	var wg sync.WaitGroup
	const writers, each = 8, 100
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				q.Push(Event{Type: EventPause})
			}
		}()
	}
	wg.Wait()
	if got := len(q.Drain()); got != writers*each {
		t.Fatalf("lost events: got %d, want %d", got, writers*each)
	}
}
