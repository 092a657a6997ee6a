package sim

import (
	"errors"
	"fmt"

	"github.com/verdantlab/meadow/internal/core/entity"
	"github.com/verdantlab/meadow/internal/core/observability/log"
	"github.com/verdantlab/meadow/internal/core/spatial"
	"github.com/verdantlab/meadow/pkg/generic"
	"github.com/verdantlab/meadow/pkg/sequence"
)

// Scheduler advances a world by fixed timesteps. One tick:
//
//  1. apply buffered events atomically
//  2. rebuild the spatial index
//  3. evaluate rules in ascending id order into a staging buffer
//  4. resolve write conflicts (last writer in evaluation order wins)
//  5. commit staged writes
//  6. apply deferred structural changes
//  7. advance the tick clock
//
// Rules only read pre-tick state, so tick results do not depend on
// evaluation order for read-only interactions.
type Scheduler struct {
	logger  log.Log
	rules   *RuleSet
	queue   *Queue
	effects *generic.Pool[*Effect]
}

func NewScheduler(rules *RuleSet, queue *Queue, logger log.Log) *Scheduler {
	return &Scheduler{
		logger:  logger.With(log.String("component", "scheduler")),
		rules:   rules,
		queue:   queue,
		effects: generic.NewHotPool(func() *Effect { return &Effect{} }, 1),
	}
}

// ApplyPending drains the queue and applies every event in arrival
// order. Called at the start of each tick, and between ticks while the
// world is paused so Resume and Step commands are still observed.
func (s *Scheduler) ApplyPending(w *World) {
	for _, e := range s.queue.Drain() {
		s.applyEvent(w, e)
	}
}

func (s *Scheduler) applyEvent(w *World, e Event) {
	switch e.Type {
	case EventSpawn:
		if e.Spawn == nil {
			s.logger.Warn("spawn event without components skipped", log.Uint64("seq", e.Seq))
			return
		}
		id, err := w.Store.Create(e.Spawn.Clone())
		if err != nil {
			s.logger.Warn("spawn dropped",
				log.Error(err),
				log.String("kind", e.Spawn.Kind.String()),
				log.Int("population", w.Store.Len()))
			return
		}
		s.logger.Debug("entity spawned", log.Uint64("id", uint64(id)))
	case EventRemove:
		w.Store.Destroy(e.ID) // idempotent; duplicate removes are harmless
	case EventSetParameter:
		if e.Key == "" {
			s.logger.Warn("set_parameter event without key skipped", log.Uint64("seq", e.Seq))
			return
		}
		w.Params[e.Key] = e.Value
	case EventPause:
		w.Paused = true
	case EventResume:
		w.Paused = false
		w.PendingSteps = 0
	case EventStep:
		if !w.Paused {
			s.logger.Debug("step event ignored while running", log.Uint64("seq", e.Seq))
			return
		}
		n := e.Count
		if n == 0 {
			n = 1
		}
		w.PendingSteps += n
	default:
		s.logger.Warn("unknown event type skipped", log.Uint64("seq", e.Seq))
	}
}

// Step advances exactly one fixed timestep. A per-entity rule failure
// is logged and skipped; only an invariant violation aborts the tick,
// because it indicates a scheduler defect.
func (s *Scheduler) Step(w *World, dt float64) error {
	s.ApplyPending(w)

	w.Index.Rebuild(w.Store, w.Tick+1)

	eff := s.effects.Get()
	eff.reset()
	defer s.effects.Put(eff)

	for id, comps := range w.Store.All() {
		rule := s.rules.ruleFor(comps)
		if rule == nil {
			continue
		}
		err := rule.Evaluate(&RuleContext{World: w, ID: id, Comps: comps, DT: dt, Out: eff})
		if err != nil {
			if errors.Is(err, spatial.ErrStaleIndex) {
				return fmt.Errorf("sim: invariant violation at tick %d: %w", w.Tick, err)
			}
			s.logger.Error("rule evaluation failed, entity skipped",
				log.Uint64("id", uint64(id)),
				log.String("rule", rule.Name()),
				log.Error(err))
		}
	}

	s.commit(w, eff)
	s.applyStructural(w, eff)

	w.Index.Invalidate()
	w.Tick++
	w.SimTime += dt
	return nil
}

type writeKey struct {
	target entity.ID
	kind   WriteKind
}

func (s *Scheduler) commit(w *World, eff *Effect) {
	resolved := make(map[writeKey]Write, len(eff.Writes))
	order := make([]writeKey, 0, len(eff.Writes))

	energy := make(map[entity.ID]float64)
	var energyOrder []entity.ID

	for _, wr := range eff.Writes {
		if wr.Kind == WriteEnergyAdd {
			if _, seen := energy[wr.Target]; !seen {
				energyOrder = append(energyOrder, wr.Target)
			}
			energy[wr.Target] += wr.Energy
			continue
		}
		key := writeKey{target: wr.Target, kind: wr.Kind}
		if prev, conflict := resolved[key]; conflict {
			s.logger.Debug("conflict resolved",
				log.Uint64("target", uint64(key.target)),
				log.String("write", key.kind.String()),
				log.Uint64("loser", uint64(prev.Writer)),
				log.Uint64("winner", uint64(wr.Writer)))
		} else {
			order = append(order, key)
		}
		resolved[key] = wr
	}

	for _, key := range order {
		s.apply(w, eff, resolved[key])
	}
	for _, id := range energyOrder {
		s.credit(w, id, energy[id])
	}
}

func (s *Scheduler) apply(w *World, eff *Effect, wr Write) {
	comps, err := w.Store.Get(wr.Target)
	if err != nil {
		s.logger.Debug("staged write against missing entity dropped",
			log.Uint64("target", uint64(wr.Target)),
			log.String("write", wr.Kind.String()))
		return
	}
	switch wr.Kind {
	case WritePosition:
		comps.Position = wr.Position
	case WriteMotion:
		m := wr.Motion
		comps.Motion = &m
	case WriteFood:
		f := wr.Food
		comps.Food = &f
	case WriteSource:
		src := wr.Source
		comps.Source = &src
	case WriteConsumeFood:
		eff.DestroyEntity(wr.Target)
		s.credit(w, wr.Writer, wr.Energy)
	}
}

func (s *Scheduler) credit(w *World, id entity.ID, delta float64) {
	comps, err := w.Store.Get(id)
	if err != nil {
		return
	}
	if comps.Energy == nil {
		comps.Energy = &entity.Energy{}
	}
	comps.Energy.Value += delta
}

func (s *Scheduler) applyStructural(w *World, eff *Effect) {
	destroys := sequence.From(eff.Destroys).
		Sort(func(a, b entity.ID) bool { return a < b }).
		Collect()
	var last entity.ID
	for i, id := range destroys {
		if i > 0 && id == last {
			continue
		}
		last = id
		w.Store.Destroy(id)
	}

	for _, c := range eff.Spawns {
		if _, err := w.Store.Create(c); err != nil {
			s.logger.Warn("rule spawn dropped",
				log.Error(err),
				log.String("kind", c.Kind.String()),
				log.Int("population", w.Store.Len()))
		}
	}
}
