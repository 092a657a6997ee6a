package sim

import (
	"sync"

	"github.com/verdantlab/meadow/internal/core/entity"
)

// EventType tags the closed set of external commands.
type EventType uint8

const (
	EventSpawn EventType = iota
	EventRemove
	EventSetParameter
	EventPause
	EventResume
	EventStep
)

func (t EventType) String() string {
	switch t {
	case EventSpawn:
		return "spawn"
	case EventRemove:
		return "remove"
	case EventSetParameter:
		return "set_parameter"
	case EventPause:
		return "pause"
	case EventResume:
		return "resume"
	case EventStep:
		return "step"
	default:
		return "unknown"
	}
}

// Event is one external command. Seq is assigned at arrival and fixes
// the application order.
type Event struct {
	Type EventType
	Seq  uint64

	// EventSpawn
	Spawn *entity.Components

	// EventRemove
	ID entity.ID

	// EventSetParameter
	Key   string
	Value float64

	// EventStep
	Count uint64
}

// Queue buffers external commands between ticks. Push may be called
// from any goroutine; Drain is called only by the simulation side at a
// tick boundary and empties the queue atomically.
type Queue struct {
	mu     sync.Mutex
	events []Event
	seq    uint64
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push enqueues an event, stamping its arrival order.
func (q *Queue) Push(e Event) {
	q.mu.Lock()
	q.seq++
	e.Seq = q.seq
	q.events = append(q.events, e)
	q.mu.Unlock()
}

// Len reports the number of buffered events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Drain removes and returns all buffered events in arrival order.
// The one deliberate exception to strict FIFO: when a batch carries
// several SetParameter events for the same key, only the latest
// survives; everything else keeps its relative order.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	batch := q.events
	q.events = nil
	q.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	return coalesceParameters(batch)
}

func coalesceParameters(batch []Event) []Event {
	lastByKey := make(map[string]uint64)
	for _, e := range batch {
		if e.Type == EventSetParameter {
			lastByKey[e.Key] = e.Seq
		}
	}
	if len(lastByKey) == 0 {
		return batch
	}
	out := batch[:0]
	for _, e := range batch {
		if e.Type == EventSetParameter && lastByKey[e.Key] != e.Seq {
			continue
		}
		out = append(out, e)
	}
	return out
}
