package snapshot

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/verdantlab/meadow/internal/core/entity"
	"github.com/verdantlab/meadow/internal/core/sim"
	"github.com/verdantlab/meadow/pkg/sequence"
)

// Entity is the read-only per-entity view handed to renderers.
type Entity struct {
	ID       entity.ID `json:"id"`
	Kind     string    `json:"kind"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Angle    float64   `json:"angle,omitempty"`
	Energy   float64   `json:"energy,omitempty"`
	Capacity float64   `json:"capacity,omitempty"`
	FoodAge  uint64    `json:"food_age,omitempty"`
}

// Snapshot is an immutable copy of world state at a completed tick.
// Checksum is an xxhash digest over the canonical encoding of the
// state, usable as a determinism oracle across runs.
type Snapshot struct {
	Tick     uint64             `json:"tick"`
	SimTime  float64            `json:"sim_time"`
	Paused   bool               `json:"paused"`
	Params   map[string]float64 `json:"params"`
	Entities []Entity           `json:"entities"`
	Checksum uint64             `json:"checksum"`
}

// Capture copies the world into a fresh snapshot. Entities are listed
// in ascending id order.
func Capture(w *sim.World) *Snapshot {
	snap := &Snapshot{
		Tick:     w.Tick,
		SimTime:  w.SimTime,
		Paused:   w.Paused,
		Params:   make(map[string]float64, len(w.Params)),
		Entities: make([]Entity, 0, w.Store.Len()),
	}
	for k, v := range w.Params {
		snap.Params[k] = v
	}
	for id, comps := range w.Store.All() {
		e := Entity{
			ID:   id,
			Kind: comps.Kind.String(),
			X:    comps.Position.X,
			Y:    comps.Position.Y,
		}
		if comps.Motion != nil {
			e.Angle = comps.Motion.Angle
		}
		if comps.Energy != nil {
			e.Energy = comps.Energy.Value
		}
		if comps.Source != nil {
			e.Capacity = comps.Source.Capacity
		}
		if comps.Food != nil {
			e.FoodAge = comps.Food.Age
		}
		snap.Entities = append(snap.Entities, e)
	}
	snap.Checksum = snap.checksum()
	return snap
}

func (s *Snapshot) checksum() uint64 {
	h := xxhash.New()
	var buf [8]byte

	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	writeF64 := func(v float64) {
		writeU64(math.Float64bits(v))
	}

	writeU64(s.Tick)
	writeF64(s.SimTime)

	keys := sequence.FromMapKeys(s.Params).
		Sort(func(a, b string) bool { return a < b }).
		Collect()
	for _, k := range keys {
		_, _ = h.WriteString(k)
		writeF64(s.Params[k])
	}

	for _, e := range s.Entities {
		writeU64(uint64(e.ID))
		_, _ = h.WriteString(e.Kind)
		writeF64(e.X)
		writeF64(e.Y)
		writeF64(e.Angle)
		writeF64(e.Energy)
		writeF64(e.Capacity)
		writeU64(e.FoodAge)
	}
	return h.Sum64()
}
