package entity

// ID identifies an entity for its whole lifetime. IDs are allocated
// monotonically and never reused, so a stale reference can only miss,
// never resolve to a different entity.
type ID uint64

// Kind is the closed set of entity kinds the simulation knows about.
type Kind uint8

const (
	KindAgent Kind = iota
	KindFood
	KindSource
)

func (k Kind) String() string {
	switch k {
	case KindAgent:
		return "agent"
	case KindFood:
		return "food"
	case KindSource:
		return "source"
	default:
		return "unknown"
	}
}

// ParseKind maps a config string to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "agent":
		return KindAgent, true
	case "food":
		return KindFood, true
	case "source":
		return KindSource, true
	default:
		return 0, false
	}
}

// Position is the entity location in world units. Always present.
type Position struct {
	X float64
	Y float64
}

// Motion holds heading and movement limits for mobile entities.
// Angle is in degrees, 0 points along +X, in screen coordinates
// (positive Y down).
type Motion struct {
	Angle   float64
	Speed   float64
	Agility float64
}

// Energy is the consumable resource an agent accumulates by grazing.
type Energy struct {
	Value float64
}

// Food is a consumable item dropped by a source. It expires after
// ExpiryTicks ticks of age.
type Food struct {
	Value       float64
	ExpiryTicks uint64
	Age         uint64
}

// Source produces food. Capacity regenerates by RegenPerTick up to
// MaxCapacity; every ProduceInterval ticks it spends DropCost to drop
// one food entity worth DropValue that lives DropExpiry ticks.
type Source struct {
	Capacity        float64
	MaxCapacity     float64
	RegenPerTick    float64
	ProduceInterval uint64
	Countdown       uint64
	DropCost        float64
	DropValue       float64
	DropExpiry      uint64
}

// Behavior selects the rule the scheduler runs for this entity.
// Rule names a built-in; Script points at a tengo script instead.
type Behavior struct {
	Rule   string
	Script string
}

// Components is the full component set of one entity. Kind and Position
// are always present; the rest are optional by pointer.
type Components struct {
	Kind     Kind
	Position Position
	Motion   *Motion
	Energy   *Energy
	Food     *Food
	Source   *Source
	Behavior *Behavior
}

// Clone deep-copies the component set so staged or snapshotted state
// never aliases live state.
func (c *Components) Clone() *Components {
	out := &Components{
		Kind:     c.Kind,
		Position: c.Position,
	}
	if c.Motion != nil {
		m := *c.Motion
		out.Motion = &m
	}
	if c.Energy != nil {
		e := *c.Energy
		out.Energy = &e
	}
	if c.Food != nil {
		f := *c.Food
		out.Food = &f
	}
	if c.Source != nil {
		s := *c.Source
		out.Source = &s
	}
	if c.Behavior != nil {
		b := *c.Behavior
		out.Behavior = &b
	}
	return out
}
