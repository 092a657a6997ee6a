package config

import (
	"github.com/verdantlab/meadow/internal/core/entity"
	"github.com/verdantlab/meadow/internal/core/observability/log"
	"github.com/verdantlab/meadow/internal/core/sim"
	"github.com/verdantlab/meadow/pkg/sequence"
)

// RuleSet builds the rule registry: built-ins plus every configured
// script, registered in sorted name order so failures are stable.
func (c *Config) RuleSet(logger log.Log) (*sim.RuleSet, error) {
	rs := sim.NewRuleSet(logger)
	names := sequence.FromMapKeys(c.Scripts).
		Sort(func(a, b string) bool { return a < b }).
		Collect()
	for _, name := range names {
		if err := rs.RegisterScript(name, c.Scripts[name].Source); err != nil {
			return nil, invalidf("script %q: %v", name, err)
		}
	}
	return rs, nil
}

// BuildWorld creates the world and seeds the initial entity list.
// Every entity is validated against the rule registry; an unknown rule
// or an over-capacity population is a configuration error.
func (c *Config) BuildWorld(rules *sim.RuleSet) (*sim.World, error) {
	w, err := sim.NewWorld(sim.WorldOptions{
		Width:    c.WorldWidth(),
		Height:   c.WorldHeight(),
		CellSize: c.Grid.CellSize,
		Seed:     c.Seed,
		Capacity: c.Capacity,
		Params:   c.Params,
	})
	if err != nil {
		return nil, invalidf("%v", err)
	}
	for i, ec := range c.Entities {
		comps, err := ec.components(rules)
		if err != nil {
			return nil, invalidf("entities[%d]: %v", i, err)
		}
		count := ec.Count
		if count <= 0 {
			count = 1
		}
		for n := 0; n < count; n++ {
			if _, err := w.Store.Create(comps.Clone()); err != nil {
				return nil, invalidf("entities[%d]: %v", i, err)
			}
		}
	}
	return w, nil
}

func (ec Entity) components(rules *sim.RuleSet) (*entity.Components, error) {
	kind, ok := entity.ParseKind(ec.Kind)
	if !ok {
		return nil, invalidf("unknown kind %q", ec.Kind)
	}
	var comps *entity.Components
	switch kind {
	case entity.KindAgent:
		rule := ""
		if ec.Behavior != nil {
			rule = ec.Behavior.Rule
		}
		comps = entity.NewAgent(ec.Position.X, ec.Position.Y, rule)
		if ec.Motion != nil {
			comps.Motion = &entity.Motion{Angle: ec.Motion.Angle, Speed: ec.Motion.Speed, Agility: ec.Motion.Agility}
		}
	case entity.KindFood:
		comps = entity.NewFood(ec.Position.X, ec.Position.Y)
		if ec.Food != nil {
			comps.Food = &entity.Food{Value: ec.Food.Value, ExpiryTicks: ec.Food.Expiry}
		}
	case entity.KindSource:
		comps = entity.NewSource(ec.Position.X, ec.Position.Y)
		if ec.Source != nil {
			comps.Source = &entity.Source{
				Capacity:        ec.Source.Capacity,
				MaxCapacity:     ec.Source.Capacity,
				RegenPerTick:    ec.Source.Regen,
				ProduceInterval: ec.Source.Interval,
				DropCost:        ec.Source.DropCost,
				DropValue:       ec.Source.DropValue,
				DropExpiry:      ec.Source.DropExpiry,
			}
		}
		if ec.Behavior != nil {
			comps.Behavior = &entity.Behavior{Rule: ec.Behavior.Rule}
		}
	default:
		return nil, invalidf("unhandled kind %q", ec.Kind)
	}

	if ec.Energy != nil {
		comps.Energy = &entity.Energy{Value: *ec.Energy}
	}
	if comps.Behavior != nil {
		if _, known := rules.Lookup(comps.Behavior.Rule); !known {
			return nil, invalidf("unknown rule %q", comps.Behavior.Rule)
		}
	}
	return comps, nil
}
