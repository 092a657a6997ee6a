package entity

import (
	"errors"
	"testing"
)

func TestCreateAssignsAscendingIDs(t *testing.T) {
	s := NewStore(0)
	var prev ID
	for i := 0; i < 10; i++ {
		id, err := s.Create(&Components{Kind: KindAgent})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if id <= prev {
			t.Fatalf("id %d not greater than previous %d", id, prev)
		}
		prev = id
	}
	if s.Len() != 10 {
		t.Fatalf("expected 10 entities, got %d", s.Len())
	}
}

func TestCapacityExceeded(t *testing.T) {
	s := NewStore(2)
	if _, err := s.Create(nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create(nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create(nil); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("failed create must not change population, got %d", s.Len())
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	s := NewStore(0)
	if _, err := s.Get(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	s := NewStore(0)
	id, _ := s.Create(nil)
	s.Destroy(id)
	s.Destroy(id) // second call must be a no-op
	s.Destroy(999)
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
}

func TestIDsNeverReused(t *testing.T) {
	s := NewStore(0)
	first, _ := s.Create(nil)
	s.Destroy(first)
	second, _ := s.Create(nil)
	if second == first {
		t.Fatalf("id %d was reused after destroy", first)
	}
}

func TestStructuralChangesDeferredDuringIteration(t *testing.T) {
	s := NewStore(0)
	a, _ := s.Create(&Components{Kind: KindAgent})
	b, _ := s.Create(&Components{Kind: KindAgent})

	var seen []ID
	var created ID
	for id := range s.All() {
		seen = append(seen, id)
		if id == a {
			s.Destroy(b)
			cid, err := s.Create(&Components{Kind: KindFood})
			if err != nil {
				t.Fatalf("create during iteration: %v", err)
			}
			created = cid
		}
	}

	// The pass still visits b: the id set was fixed at the start.
	if len(seen) != 2 || seen[0] != a || seen[1] != b {
		t.Fatalf("iteration observed structural changes: %v", seen)
	}
	if _, err := s.Get(b); !errors.Is(err, ErrNotFound) {
		t.Fatalf("buffered destroy not applied after pass: %v", err)
	}
	if _, err := s.Get(created); err != nil {
		t.Fatalf("buffered create not applied after pass: %v", err)
	}
}

func TestIterationRestartable(t *testing.T) {
	s := NewStore(0)
	for i := 0; i < 3; i++ {
		if _, err := s.Create(nil); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	for pass := 0; pass < 2; pass++ {
		n := 0
		for range s.All() {
			n++
		}
		if n != 3 {
			t.Fatalf("pass %d visited %d entities, want 3", pass, n)
		}
	}
}

func TestEarlyBreakStillCommitsPending(t *testing.T) {
	s := NewStore(0)
	a, _ := s.Create(nil)
	s.Create(nil)

	for id := range s.All() {
		if id == a {
			s.Destroy(a)
			break
		}
	}
	if _, err := s.Get(a); !errors.Is(err, ErrNotFound) {
		t.Fatalf("pending destroy lost on early break: %v", err)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	orig := &Components{
		Kind:     KindAgent,
		Position: Position{X: 1, Y: 2},
		Motion:   &Motion{Angle: 90, Speed: 10, Agility: 20},
		Energy:   &Energy{Value: 5},
	}
	cp := orig.Clone()
	cp.Motion.Angle = 180
	cp.Energy.Value = 99
	if orig.Motion.Angle != 90 || orig.Energy.Value != 5 {
		t.Fatalf("clone aliases original: %+v", orig)
	}
}
