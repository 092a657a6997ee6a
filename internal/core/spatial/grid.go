package spatial

import (
	"errors"
	"fmt"
	"math"

	"github.com/verdantlab/meadow/internal/core/entity"
	"github.com/verdantlab/meadow/pkg/sequence"
)

// ErrStaleIndex reports a query against an index that has not been
// rebuilt since positions last changed. That is a scheduler defect, not
// a runtime condition, so callers treat it as fatal in development.
var ErrStaleIndex = errors.New("spatial: query against stale index")

// Cell addresses one grid bucket.
type Cell struct {
	X int
	Y int
}

// Grid is a uniform-cell spatial index over entity positions. It is
// derived state: rebuilt once per tick from the store, never a source
// of truth. A point exactly on a cell boundary belongs to the
// lower-coordinate cell, so bucketing is deterministic.
type Grid struct {
	cellSize  float64
	cells     map[Cell][]entity.ID
	fresh     bool
	builtTick uint64
}

// NewGrid creates an index with the given cell edge length in world units.
func NewGrid(cellSize float64) (*Grid, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("spatial: cell size must be positive, got %v", cellSize)
	}
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[Cell][]entity.ID),
	}, nil
}

// Rebuild repopulates every bucket from current store positions.
// Called once per tick before any query.
func (g *Grid) Rebuild(store *entity.Store, tick uint64) {
	for c := range g.cells {
		delete(g.cells, c)
	}
	for id, comps := range store.All() {
		cell := g.CellOf(comps.Position)
		g.cells[cell] = append(g.cells[cell], id)
	}
	g.fresh = true
	g.builtTick = tick
}

// Invalidate marks the index stale. The scheduler calls this after
// committing position writes.
func (g *Grid) Invalidate() {
	g.fresh = false
}

// BuiltTick reports which tick the index was last rebuilt for.
func (g *Grid) BuiltTick() uint64 {
	return g.builtTick
}

// CellOf buckets a position. Boundary coordinates go to the lower cell:
// x == k*cellSize lands in cell k-1.
func (g *Grid) CellOf(p entity.Position) Cell {
	return Cell{
		X: g.axisIndex(p.X),
		Y: g.axisIndex(p.Y),
	}
}

func (g *Grid) axisIndex(v float64) int {
	return int(math.Ceil(v/g.cellSize)) - 1
}

// QueryCell returns the ids bucketed in the given cell, ascending.
func (g *Grid) QueryCell(c Cell) ([]entity.ID, error) {
	if !g.fresh {
		return nil, ErrStaleIndex
	}
	ids := g.cells[c]
	if len(ids) == 0 {
		return nil, nil
	}
	return sortedCopy(ids), nil
}

// QueryRadius returns all ids within Euclidean distance r of p,
// ascending. The entity at p itself is included when bucketed.
func (g *Grid) QueryRadius(p entity.Position, r float64, store *entity.Store) ([]entity.ID, error) {
	if !g.fresh {
		return nil, ErrStaleIndex
	}
	if r < 0 {
		return nil, nil
	}
	minX := g.axisIndex(p.X - r)
	maxX := g.axisIndex(p.X+r) + 1
	minY := g.axisIndex(p.Y - r)
	maxY := g.axisIndex(p.Y+r) + 1

	var out []entity.ID
	r2 := r * r
	for cx := minX; cx <= maxX; cx++ {
		for cy := minY; cy <= maxY; cy++ {
			for _, id := range g.cells[Cell{X: cx, Y: cy}] {
				comps, err := store.Get(id)
				if err != nil {
					continue // destroyed since rebuild; truth lives in the store
				}
				dx := comps.Position.X - p.X
				dy := comps.Position.Y - p.Y
				if dx*dx+dy*dy <= r2 {
					out = append(out, id)
				}
			}
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return sequence.From(out).
		Sort(func(a, b entity.ID) bool { return a < b }).
		Collect(), nil
}

func sortedCopy(ids []entity.ID) []entity.ID {
	return sequence.From(ids).
		Sort(func(a, b entity.ID) bool { return a < b }).
		Collect()
}
