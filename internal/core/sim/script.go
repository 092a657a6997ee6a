package sim

import (
	"fmt"
	"math"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/verdantlab/meadow/internal/core/entity"
)

// scriptRule runs a tengo script as an entity behavior. The script
// reads input globals describing the entity and its nearest neighbor
// and assigns out_dx/out_dy (movement delta in world units) and
// optionally out_angle. Scripts get the math module only; no wall
// clock, no randomness, so replays stay deterministic.
//
// Input globals: x, y, angle, speed, energy, dt, tick, width, height,
// has_neighbor, nearest_dx, nearest_dy, nearest_dist.
type scriptRule struct {
	name     string
	compiled *tengo.Compiled
}

var scriptGlobals = []string{
	"x", "y", "angle", "speed", "energy",
	"dt", "tick", "width", "height",
	"has_neighbor", "nearest_dx", "nearest_dy", "nearest_dist",
	"out_dx", "out_dy", "out_angle",
}

func newScriptRule(name, src string) (*scriptRule, error) {
	script := tengo.NewScript([]byte(src))
	for _, g := range scriptGlobals {
		if err := script.Add(g, 0.0); err != nil {
			return nil, fmt.Errorf("sim: script %q: %w", name, err)
		}
	}
	script.SetImports(stdlib.GetModuleMap("math"))
	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("sim: script %q failed to compile: %w", name, err)
	}
	return &scriptRule{name: name, compiled: compiled}, nil
}

func (r *scriptRule) Name() string { return r.name }

func (r *scriptRule) Evaluate(ctx *RuleContext) error {
	w := ctx.World
	radius := w.Param(ParamRadius, defaultRadius)
	_, nearest, dist, hasNeighbor, err := ctx.Nearest(radius, nil)
	if err != nil {
		return err
	}

	var angle, speed, energyVal float64
	if ctx.Comps.Motion != nil {
		angle = ctx.Comps.Motion.Angle
		speed = ctx.Comps.Motion.Speed
	}
	if ctx.Comps.Energy != nil {
		energyVal = ctx.Comps.Energy.Value
	}

	c := r.compiled.Clone()
	inputs := map[string]any{
		"x":            ctx.Comps.Position.X,
		"y":            ctx.Comps.Position.Y,
		"angle":        angle,
		"speed":        speed,
		"energy":       energyVal,
		"dt":           ctx.DT,
		"tick":         float64(w.Tick),
		"width":        w.Width,
		"height":       w.Height,
		"has_neighbor": boolToFloat(hasNeighbor),
		"nearest_dx":   0.0,
		"nearest_dy":   0.0,
		"nearest_dist": 0.0,
		"out_dx":       0.0,
		"out_dy":       0.0,
		"out_angle":    angle,
	}
	if hasNeighbor {
		inputs["nearest_dx"] = nearest.Position.X - ctx.Comps.Position.X
		inputs["nearest_dy"] = nearest.Position.Y - ctx.Comps.Position.Y
		inputs["nearest_dist"] = dist
	}
	for k, v := range inputs {
		if err := c.Set(k, v); err != nil {
			return fmt.Errorf("sim: script %q: %w", r.name, err)
		}
	}

	if err := c.Run(); err != nil {
		return fmt.Errorf("sim: script %q: %w", r.name, err)
	}

	dx := c.Get("out_dx").Float()
	dy := c.Get("out_dy").Float()
	outAngle := c.Get("out_angle").Float()
	if math.IsNaN(dx) || math.IsNaN(dy) || math.IsInf(dx, 0) || math.IsInf(dy, 0) {
		return fmt.Errorf("sim: script %q produced non-finite movement", r.name)
	}

	x, y, outAngle := w.Reflect(ctx.Comps.Position.X+dx, ctx.Comps.Position.Y+dy, outAngle)
	ctx.Out.SetPosition(ctx.ID, ctx.ID, entity.Position{X: x, Y: y})
	if m := ctx.Comps.Motion; m != nil {
		ctx.Out.SetMotion(ctx.ID, ctx.ID, entity.Motion{Angle: outAngle, Speed: m.Speed, Agility: m.Agility})
	}
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
