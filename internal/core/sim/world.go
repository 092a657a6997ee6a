package sim

import (
	"fmt"
	"math/rand"

	"github.com/verdantlab/meadow/internal/core/entity"
	"github.com/verdantlab/meadow/internal/core/spatial"
)

// Params holds the global numeric simulation parameters. Mutated only
// through SetParameter events at tick boundaries.
type Params map[string]float64

// Well-known parameter keys.
const (
	ParamSpeedScale = "speed_scale"
	ParamRegenScale = "regen_scale"
	ParamRadius     = "radius"
)

// WorldOptions carries everything needed to construct an empty world.
type WorldOptions struct {
	Width    float64
	Height   float64
	CellSize float64
	Seed     int64
	Capacity int
	Params   Params
}

// World is the single mutable aggregate of one simulation instance:
// the entity store, the derived spatial index, global parameters and
// the tick clock. Exactly one exists per instance and it is always
// passed explicitly, so independent worlds can run in one process.
type World struct {
	Width  float64
	Height float64

	Store *entity.Store
	Index *spatial.Grid

	Params  Params
	Tick    uint64
	SimTime float64

	Paused       bool
	PendingSteps uint64

	rng *rand.Rand
}

// NewWorld builds an empty world from options.
func NewWorld(opts WorldOptions) (*World, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("sim: world bounds must be positive, got %vx%v", opts.Width, opts.Height)
	}
	cellSize := opts.CellSize
	if cellSize <= 0 {
		cellSize = 1
	}
	index, err := spatial.NewGrid(cellSize)
	if err != nil {
		return nil, err
	}
	params := make(Params, len(opts.Params))
	for k, v := range opts.Params {
		params[k] = v
	}
	return &World{
		Width:  opts.Width,
		Height: opts.Height,
		Store:  entity.NewStore(opts.Capacity),
		Index:  index,
		Params: params,
		rng:    rand.New(rand.NewSource(opts.Seed)),
	}, nil
}

// Rand is the world's only randomness source. Rules must consume it in
// deterministic (ascending id) order so runs replay identically.
func (w *World) Rand() *rand.Rand {
	return w.rng
}

// Param looks up a global parameter with a default.
func (w *World) Param(key string, def float64) float64 {
	if v, ok := w.Params[key]; ok {
		return v
	}
	return def
}

// Reflect mirrors a position back into world bounds, flipping the
// heading the way a wall bounce would. Returns the corrected position
// and angle in degrees.
func (w *World) Reflect(x, y, angle float64) (float64, float64, float64) {
	if x > w.Width || x < 0 {
		x = mod(2*w.Width-x, w.Width)
		angle = 180 - angle
	}
	if y > w.Height || y < 0 {
		y = mod(2*w.Height-y, w.Height)
		angle = 360 - angle
	}
	return x, y, normalizeAngle(angle)
}

func mod(v, m float64) float64 {
	r := v - m*float64(int(v/m))
	if r < 0 {
		r += m
	}
	return r
}

func normalizeAngle(a float64) float64 {
	a = mod(a, 360)
	return a
}
