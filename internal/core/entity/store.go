package entity

import (
	"errors"
	"iter"
	"sort"
)

var (
	// ErrCapacityExceeded is returned by Create when the configured
	// entity ceiling is reached. The caller drops the spawn.
	ErrCapacityExceeded = errors.New("entity: capacity exceeded")
	// ErrNotFound is returned by Get for an absent id.
	ErrNotFound = errors.New("entity: not found")
)

// Store owns all entity data. It is the single source of truth for
// positions and attributes; everything else (spatial index, snapshots)
// is derived from it.
//
// Structural changes requested while an iteration pass is running are
// buffered and applied atomically once the outermost pass finishes, so
// a traversal never observes a mutating set of ids.
type Store struct {
	capacity int
	nextID   ID

	entities map[ID]*Components
	ids      []ID // ascending; append-only growth keeps it sorted

	iterDepth      int
	pendingCreate  []pendingCreate
	pendingDestroy []ID
}

type pendingCreate struct {
	id    ID
	comps *Components
}

// NewStore creates an empty store. capacity <= 0 means unbounded.
func NewStore(capacity int) *Store {
	return &Store{
		capacity: capacity,
		nextID:   1,
		entities: make(map[ID]*Components, 64),
	}
}

// Create allocates an id for the given components. The id is valid
// immediately, but during an iteration pass the entity only becomes
// visible after the pass completes.
func (s *Store) Create(comps *Components) (ID, error) {
	if comps == nil {
		comps = &Components{}
	}
	if s.capacity > 0 && s.liveCount() >= s.capacity {
		return 0, ErrCapacityExceeded
	}
	id := s.nextID
	s.nextID++
	if s.iterDepth > 0 {
		s.pendingCreate = append(s.pendingCreate, pendingCreate{id: id, comps: comps})
		return id, nil
	}
	s.insert(id, comps)
	return id, nil
}

// Destroy removes an entity. Destroying an absent or already-buffered
// id is a no-op, which makes duplicate removal events harmless.
func (s *Store) Destroy(id ID) {
	if s.iterDepth > 0 {
		s.pendingDestroy = append(s.pendingDestroy, id)
		return
	}
	s.remove(id)
}

// Get returns the live component view for id.
func (s *Store) Get(id ID) (*Components, error) {
	c, ok := s.entities[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// Len reports the number of live entities, not counting buffered
// creations or destructions.
func (s *Store) Len() int {
	return len(s.ids)
}

// IDs returns the live ids in ascending order. The slice is a copy.
func (s *Store) IDs() []ID {
	out := make([]ID, len(s.ids))
	copy(out, s.ids)
	return out
}

// All iterates entities in ascending id order. The id set is fixed at
// the start of the pass; Create and Destroy calls made while the pass
// runs are buffered and applied when the outermost pass ends, even if
// the caller breaks early.
func (s *Store) All() iter.Seq2[ID, *Components] {
	return func(yield func(ID, *Components) bool) {
		ids := s.ids
		s.iterDepth++
		defer s.endPass()
		for _, id := range ids {
			c, ok := s.entities[id]
			if !ok {
				continue // destroyed by an inner pass commit
			}
			if !yield(id, c) {
				return
			}
		}
	}
}

func (s *Store) endPass() {
	s.iterDepth--
	if s.iterDepth > 0 {
		return
	}
	creates := s.pendingCreate
	destroys := s.pendingDestroy
	s.pendingCreate = nil
	s.pendingDestroy = nil
	for _, pc := range creates {
		s.insert(pc.id, pc.comps)
	}
	for _, id := range destroys {
		s.remove(id)
	}
}

func (s *Store) liveCount() int {
	return len(s.ids) + len(s.pendingCreate)
}

func (s *Store) insert(id ID, comps *Components) {
	s.entities[id] = comps
	s.ids = append(s.ids, id)
	// ids are allocated monotonically, but a buffered create committed
	// after a destroy can land out of order relative to nothing; keep
	// the invariant explicit.
	if n := len(s.ids); n > 1 && s.ids[n-2] > id {
		sort.Slice(s.ids, func(i, j int) bool { return s.ids[i] < s.ids[j] })
	}
}

func (s *Store) remove(id ID) {
	if _, ok := s.entities[id]; !ok {
		return
	}
	delete(s.entities, id)
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
	if i < len(s.ids) && s.ids[i] == id {
		s.ids = append(s.ids[:i], s.ids[i+1:]...)
	}
}
