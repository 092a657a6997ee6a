package entity

// Demo-scene defaults: a grazing patch regenerates 0.1 capacity per
// tick and drops a 20-point food item every 100 ticks; food lives 500
// ticks; agents walk 10 units per tick with 20 degrees of jitter.

// NewAgent builds an agent with default motion and the given rule.
func NewAgent(x, y float64, rule string) *Components {
	if rule == "" {
		rule = "wander"
	}
	return &Components{
		Kind:     KindAgent,
		Position: Position{X: x, Y: y},
		Motion:   &Motion{Angle: 0, Speed: 10, Agility: 20},
		Behavior: &Behavior{Rule: rule},
	}
}

// NewFood builds a default food item.
func NewFood(x, y float64) *Components {
	return &Components{
		Kind:     KindFood,
		Position: Position{X: x, Y: y},
		Food:     &Food{Value: 20, ExpiryTicks: 500},
	}
}

// NewSource builds a default food source.
func NewSource(x, y float64) *Components {
	return &Components{
		Kind:     KindSource,
		Position: Position{X: x, Y: y},
		Source: &Source{
			Capacity:        100,
			MaxCapacity:     100,
			RegenPerTick:    0.1,
			ProduceInterval: 100,
			DropCost:        10,
			DropValue:       20,
			DropExpiry:      500,
		},
	}
}
