package engine

import (
	"context"
	"time"

	"github.com/verdantlab/meadow/internal/core/config"
	"github.com/verdantlab/meadow/internal/core/observability/log"
	"github.com/verdantlab/meadow/internal/core/sim"
	"github.com/verdantlab/meadow/internal/core/snapshot"
)

// Catch-up runs extra steps in one wakeup instead of stretching dt.
// The cap lets a badly behind simulation fall behind wall clock rather
// than starve the process; leftover time stays in the accumulator, so
// no tick is ever skipped.
const maxStepsPerWakeup = 8

// Engine drives one simulation instance: it owns the fixed-timestep
// loop, feeds the scheduler, and publishes a snapshot after every
// completed tick. Rendering and input run on their own loops and touch
// the engine only through the queue and the publisher.
type Engine struct {
	logger log.Log
	world  *sim.World
	sched  *sim.Scheduler
	queue  *sim.Queue
	pub    *snapshot.Publisher
	dt     float64
}

func New(cfg *config.Config, world *sim.World, sched *sim.Scheduler, queue *sim.Queue, pub *snapshot.Publisher, logger log.Log) *Engine {
	return &Engine{
		logger: logger.With(log.String("component", "engine")),
		world:  world,
		sched:  sched,
		queue:  queue,
		pub:    pub,
		dt:     cfg.FixedDT(),
	}
}

// Queue is the input boundary for the presentation side.
func (e *Engine) Queue() *sim.Queue {
	return e.queue
}

// Publisher is the output boundary for the presentation side.
func (e *Engine) Publisher() *snapshot.Publisher {
	return e.pub
}

// World exposes the aggregate for tests and diagnostics. Not safe to
// touch while Run is active.
func (e *Engine) World() *sim.World {
	return e.world
}

// Run advances the simulation until ctx is cancelled. When paused, the
// scheduler is not stepped but buffered control events are still
// applied between ticks, so Resume and Step commands take effect.
func (e *Engine) Run(ctx context.Context) error {
	interval := time.Duration(e.dt * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("simulation started",
		log.Duration("dt", interval),
		log.Int("population", e.world.Store.Len()))

	last := time.Now()
	var acc float64
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("simulation stopped", log.Uint64("tick", e.world.Tick))
			return nil
		case now := <-ticker.C:
			acc += now.Sub(last).Seconds()
			last = now

			// Drain control events first so a Pause takes effect before
			// the next tick, not after it.
			e.sched.ApplyPending(e.world)
			if e.world.Paused {
				for e.world.Paused && e.world.PendingSteps > 0 {
					e.world.PendingSteps--
					if err := e.step(); err != nil {
						return err
					}
				}
				acc = 0 // no catch-up burst on resume
				continue
			}

			for steps := 0; acc >= e.dt && steps < maxStepsPerWakeup; steps++ {
				if err := e.step(); err != nil {
					return err
				}
				acc -= e.dt
				if e.world.Paused {
					acc = 0
					break
				}
			}
		}
	}
}

func (e *Engine) step() error {
	if err := e.sched.Step(e.world, e.dt); err != nil {
		return err
	}
	e.pub.Publish(e.world)
	return nil
}
