package sim

import (
	"github.com/verdantlab/meadow/internal/core/entity"
)

// WriteKind discriminates staged write operations. Writes of the same
// kind against the same target conflict; the last writer in evaluation
// order (ascending entity id) wins. EnergyAdd is commutative and
// accumulates instead of conflicting.
type WriteKind uint8

const (
	WritePosition WriteKind = iota
	WriteMotion
	WriteFood
	WriteSource
	WriteEnergyAdd
	WriteConsumeFood
)

func (k WriteKind) String() string {
	switch k {
	case WritePosition:
		return "position"
	case WriteMotion:
		return "motion"
	case WriteFood:
		return "food"
	case WriteSource:
		return "source"
	case WriteEnergyAdd:
		return "energy_add"
	case WriteConsumeFood:
		return "consume_food"
	default:
		return "unknown"
	}
}

// Write is one staged mutation. Writer records which entity's rule
// produced it, for conflict diagnostics.
type Write struct {
	Kind   WriteKind
	Target entity.ID
	Writer entity.ID

	Position entity.Position
	Motion   entity.Motion
	Food     entity.Food
	Source   entity.Source
	Energy   float64
}

// Effect is the staging buffer one tick evaluates into. Rules never
// mutate live state; they append here and the scheduler commits after
// every entity has been evaluated.
type Effect struct {
	Writes   []Write
	Spawns   []*entity.Components
	Destroys []entity.ID
}

func (e *Effect) reset() {
	e.Writes = e.Writes[:0]
	e.Spawns = e.Spawns[:0]
	e.Destroys = e.Destroys[:0]
}

func (e *Effect) SetPosition(writer, target entity.ID, p entity.Position) {
	e.Writes = append(e.Writes, Write{Kind: WritePosition, Target: target, Writer: writer, Position: p})
}

func (e *Effect) SetMotion(writer, target entity.ID, m entity.Motion) {
	e.Writes = append(e.Writes, Write{Kind: WriteMotion, Target: target, Writer: writer, Motion: m})
}

func (e *Effect) SetFood(writer, target entity.ID, f entity.Food) {
	e.Writes = append(e.Writes, Write{Kind: WriteFood, Target: target, Writer: writer, Food: f})
}

func (e *Effect) SetSource(writer, target entity.ID, s entity.Source) {
	e.Writes = append(e.Writes, Write{Kind: WriteSource, Target: target, Writer: writer, Source: s})
}

func (e *Effect) AddEnergy(writer, target entity.ID, delta float64) {
	e.Writes = append(e.Writes, Write{Kind: WriteEnergyAdd, Target: target, Writer: writer, Energy: delta})
}

// ConsumeFood claims a food entity for the writer. If several agents
// claim the same food this tick, conflict resolution picks one winner;
// the food is destroyed and only the winner gains its value.
func (e *Effect) ConsumeFood(writer, food entity.ID, value float64) {
	e.Writes = append(e.Writes, Write{Kind: WriteConsumeFood, Target: food, Writer: writer, Energy: value})
}

func (e *Effect) SpawnEntity(c *entity.Components) {
	e.Spawns = append(e.Spawns, c)
}

func (e *Effect) DestroyEntity(id entity.ID) {
	e.Destroys = append(e.Destroys, id)
}
