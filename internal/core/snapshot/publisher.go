package snapshot

import (
	"errors"
	"sync/atomic"

	"github.com/verdantlab/meadow/internal/core/sim"
)

// ErrNotPublished is the sentinel returned by Latest before the first
// tick has completed. Consumers get this instead of a zero-value world.
var ErrNotPublished = errors.New("snapshot: no tick completed yet")

// Publisher hands completed-tick snapshots from the simulation side to
// the presentation side. Publish replaces the whole snapshot pointer
// atomically, so Latest never observes a partially written state and
// never blocks on an in-progress tick.
type Publisher struct {
	latest  atomic.Pointer[Snapshot]
	version atomic.Uint64
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish captures the world and makes it the latest snapshot.
// Called by the simulation side once per completed tick.
func (p *Publisher) Publish(w *sim.World) *Snapshot {
	snap := Capture(w)
	p.latest.Store(snap)
	p.version.Add(1)
	return snap
}

// Latest returns the most recently published snapshot. Safe to call
// from the presentation side at any rate.
func (p *Publisher) Latest() (*Snapshot, error) {
	snap := p.latest.Load()
	if snap == nil {
		return nil, ErrNotPublished
	}
	return snap, nil
}

// Version counts publishes; presentation loops can poll it to skip
// re-rendering an unchanged snapshot.
func (p *Publisher) Version() uint64 {
	return p.version.Load()
}
