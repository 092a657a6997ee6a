package sim

import (
	"fmt"
	"math"

	"github.com/verdantlab/meadow/internal/core/entity"
	"github.com/verdantlab/meadow/internal/core/observability/log"
)

// Rule is one unit of per-entity behavior. Evaluate reads pre-tick
// state (its own components, neighbors through the spatial index) and
// stages all mutations on ctx.Out. It must never write live state.
type Rule interface {
	Name() string
	Evaluate(ctx *RuleContext) error
}

// RuleContext is handed to a rule for one entity evaluation.
type RuleContext struct {
	World *World
	ID    entity.ID
	Comps *entity.Components
	DT    float64
	Out   *Effect
}

// Neighbors returns ids within radius of this entity, ascending,
// excluding the entity itself.
func (ctx *RuleContext) Neighbors(radius float64) ([]entity.ID, error) {
	ids, err := ctx.World.Index.QueryRadius(ctx.Comps.Position, radius, ctx.World.Store)
	if err != nil {
		return nil, err
	}
	out := ids[:0]
	for _, id := range ids {
		if id != ctx.ID {
			out = append(out, id)
		}
	}
	return out, nil
}

// Nearest returns the closest neighbor accepted by the filter, with
// ties broken by lower id. ok is false when nothing is in radius.
func (ctx *RuleContext) Nearest(radius float64, accept func(*entity.Components) bool) (entity.ID, *entity.Components, float64, bool, error) {
	ids, err := ctx.Neighbors(radius)
	if err != nil {
		return 0, nil, 0, false, err
	}
	var (
		bestID    entity.ID
		bestComps *entity.Components
		bestDist  = math.MaxFloat64
		found     bool
	)
	for _, id := range ids {
		comps, err := ctx.World.Store.Get(id)
		if err != nil {
			continue
		}
		if accept != nil && !accept(comps) {
			continue
		}
		dx := comps.Position.X - ctx.Comps.Position.X
		dy := comps.Position.Y - ctx.Comps.Position.Y
		d := math.Sqrt(dx*dx + dy*dy)
		if d < bestDist { // ids ascend, so strict < keeps the lowest id on ties
			bestDist = d
			bestID = id
			bestComps = comps
			found = true
		}
	}
	return bestID, bestComps, bestDist, found, nil
}

// RuleSet maps behavior names to rules. Built-ins are registered at
// construction; scripted rules are added from configuration.
type RuleSet struct {
	logger log.Log
	rules  map[string]Rule
}

func NewRuleSet(logger log.Log) *RuleSet {
	rs := &RuleSet{
		logger: logger,
		rules:  make(map[string]Rule),
	}
	for _, r := range []Rule{wanderRule{}, seekRule{}, forageRule{}, grazeRule{}} {
		rs.rules[r.Name()] = r
	}
	return rs
}

// Register adds a rule under its name.
func (rs *RuleSet) Register(r Rule) error {
	if _, exists := rs.rules[r.Name()]; exists {
		return fmt.Errorf("sim: rule %q already registered", r.Name())
	}
	rs.rules[r.Name()] = r
	return nil
}

// RegisterScript compiles a tengo source and registers it under name.
func (rs *RuleSet) RegisterScript(name, src string) error {
	if _, exists := rs.rules[name]; exists {
		return fmt.Errorf("sim: rule %q already registered", name)
	}
	r, err := newScriptRule(name, src)
	if err != nil {
		return err
	}
	rs.rules[name] = r
	return nil
}

// Lookup finds a registered rule by name.
func (rs *RuleSet) Lookup(name string) (Rule, bool) {
	r, ok := rs.rules[name]
	return r, ok
}

// ruleFor picks the rule to run for an entity: an explicit Behavior
// wins, otherwise food and sources get their built-in lifecycle rules.
func (rs *RuleSet) ruleFor(c *entity.Components) Rule {
	if c.Behavior != nil && c.Behavior.Rule != "" {
		if r, ok := rs.rules[c.Behavior.Rule]; ok {
			return r
		}
		return nil // validated at load; a miss here means a raw spawn event
	}
	switch c.Kind {
	case entity.KindFood:
		return foodRule{}
	case entity.KindSource:
		return sourceRule{}
	default:
		return nil
	}
}
