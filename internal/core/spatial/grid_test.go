package spatial

import (
	"errors"
	"testing"

	"github.com/verdantlab/meadow/internal/core/entity"
)

func populate(t *testing.T, positions ...entity.Position) *entity.Store {
	t.Helper()
	s := entity.NewStore(0)
	for _, p := range positions {
		if _, err := s.Create(&entity.Components{Kind: entity.KindAgent, Position: p}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	return s
}

func TestQueryBeforeRebuildIsInvariantViolation(t *testing.T) {
	g, err := NewGrid(16)
	if err != nil {
		t.Fatalf("new grid: %v", err)
	}
	if _, err := g.QueryCell(Cell{}); !errors.Is(err, ErrStaleIndex) {
		t.Fatalf("expected ErrStaleIndex, got %v", err)
	}
}

func TestQueryAfterInvalidateIsInvariantViolation(t *testing.T) {
	g, _ := NewGrid(16)
	store := populate(t, entity.Position{X: 8, Y: 8})
	g.Rebuild(store, 1)
	g.Invalidate()
	if _, err := g.QueryRadius(entity.Position{X: 8, Y: 8}, 10, store); !errors.Is(err, ErrStaleIndex) {
		t.Fatalf("expected ErrStaleIndex, got %v", err)
	}
}

func TestBoundaryBelongsToLowerCell(t *testing.T) {
	g, _ := NewGrid(16)
	tests := []struct {
		pos  entity.Position
		want Cell
	}{
		{entity.Position{X: 8, Y: 8}, Cell{0, 0}},
		{entity.Position{X: 16, Y: 8}, Cell{0, 0}},  // exact X boundary: lower cell
		{entity.Position{X: 16, Y: 16}, Cell{0, 0}}, // both boundaries
		{entity.Position{X: 16.1, Y: 8}, Cell{1, 0}},
		{entity.Position{X: 32, Y: 40}, Cell{1, 2}},
	}
	for _, tt := range tests {
		if got := g.CellOf(tt.pos); got != tt.want {
			t.Fatalf("CellOf(%v) = %v, want %v", tt.pos, got, tt.want)
		}
	}
}

func TestQueryCellSortedAscending(t *testing.T) {
	g, _ := NewGrid(16)
	store := populate(t,
		entity.Position{X: 4, Y: 4},
		entity.Position{X: 5, Y: 5},
		entity.Position{X: 6, Y: 6},
	)
	g.Rebuild(store, 1)
	ids, err := g.QueryCell(Cell{0, 0})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %v", ids)
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("ids not ascending: %v", ids)
		}
	}
}

func TestQueryRadius(t *testing.T) {
	g, _ := NewGrid(16)
	store := populate(t,
		entity.Position{X: 0, Y: 0},
		entity.Position{X: 1, Y: 0},
		entity.Position{X: 5, Y: 5},
	)
	g.Rebuild(store, 1)

	ids, err := g.QueryRadius(entity.Position{X: 0, Y: 0}, 3, store)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected the two close entities, got %v", ids)
	}

	// Radius boundary is inclusive.
	ids, err = g.QueryRadius(entity.Position{X: 0, Y: 0}, 1, store)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("distance exactly r must be included, got %v", ids)
	}
}

func TestQueryRadiusCrossesCells(t *testing.T) {
	g, _ := NewGrid(4)
	store := populate(t,
		entity.Position{X: 3.5, Y: 3.5},
		entity.Position{X: 4.5, Y: 4.5}, // neighboring cell
	)
	g.Rebuild(store, 1)
	ids, err := g.QueryRadius(entity.Position{X: 3.5, Y: 3.5}, 2, store)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("radius query must cross cell borders, got %v", ids)
	}
}
