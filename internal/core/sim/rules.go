package sim

import (
	"math"

	"github.com/verdantlab/meadow/internal/core/entity"
)

// Angle convention follows screen coordinates: degrees, 0 along +X,
// positive Y pointing down, so dy = -sin(angle).

const defaultRadius = 5.0

// wanderRule is the classic random walk: jitter the heading by up to
// Agility degrees, advance Speed units, bounce off world bounds.
type wanderRule struct{}

func (wanderRule) Name() string { return "wander" }

func (wanderRule) Evaluate(ctx *RuleContext) error {
	m := ctx.Comps.Motion
	if m == nil {
		return nil
	}
	w := ctx.World
	u := w.Rand().Float64()
	angle := m.Angle + m.Agility*(u-0.5)
	speed := m.Speed * w.Param(ParamSpeedScale, 1)

	rad := angle * math.Pi / 180
	x := ctx.Comps.Position.X + math.Cos(rad)*speed
	y := ctx.Comps.Position.Y - math.Sin(rad)*speed
	x, y, angle = w.Reflect(x, y, angle)

	ctx.Out.SetPosition(ctx.ID, ctx.ID, entity.Position{X: x, Y: y})
	ctx.Out.SetMotion(ctx.ID, ctx.ID, entity.Motion{Angle: angle, Speed: m.Speed, Agility: m.Agility})
	return nil
}

// seekRule moves toward the nearest neighbor of any kind, up to Speed
// units per tick. No neighbor in radius means standing still.
type seekRule struct{}

func (seekRule) Name() string { return "seek" }

func (seekRule) Evaluate(ctx *RuleContext) error {
	m := ctx.Comps.Motion
	if m == nil {
		return nil
	}
	w := ctx.World
	radius := w.Param(ParamRadius, defaultRadius)
	_, target, dist, ok, err := ctx.Nearest(radius, nil)
	if err != nil {
		return err
	}
	if !ok || dist == 0 {
		return nil
	}
	speed := m.Speed * w.Param(ParamSpeedScale, 1)
	step := math.Min(speed, dist)
	dx := (target.Position.X - ctx.Comps.Position.X) / dist
	dy := (target.Position.Y - ctx.Comps.Position.Y) / dist

	x, y, angle := w.Reflect(
		ctx.Comps.Position.X+dx*step,
		ctx.Comps.Position.Y+dy*step,
		math.Atan2(-dy, dx)*180/math.Pi,
	)
	ctx.Out.SetPosition(ctx.ID, ctx.ID, entity.Position{X: x, Y: y})
	ctx.Out.SetMotion(ctx.ID, ctx.ID, entity.Motion{Angle: angle, Speed: m.Speed, Agility: m.Agility})
	return nil
}

// forageRule chases the nearest food in radius and claims it once in
// reach; with no food around it falls back to wandering.
type forageRule struct{}

func (forageRule) Name() string { return "forage" }

func (forageRule) Evaluate(ctx *RuleContext) error {
	m := ctx.Comps.Motion
	if m == nil {
		return nil
	}
	w := ctx.World
	radius := w.Param(ParamRadius, defaultRadius)
	foodID, food, dist, ok, err := ctx.Nearest(radius, func(c *entity.Components) bool {
		return c.Kind == entity.KindFood && c.Food != nil
	})
	if err != nil {
		return err
	}
	if !ok {
		return wanderRule{}.Evaluate(ctx)
	}

	speed := m.Speed * w.Param(ParamSpeedScale, 1)
	if dist <= speed {
		ctx.Out.SetPosition(ctx.ID, ctx.ID, food.Position)
		ctx.Out.ConsumeFood(ctx.ID, foodID, food.Food.Value)
		return nil
	}
	dx := (food.Position.X - ctx.Comps.Position.X) / dist
	dy := (food.Position.Y - ctx.Comps.Position.Y) / dist
	x, y, angle := w.Reflect(
		ctx.Comps.Position.X+dx*speed,
		ctx.Comps.Position.Y+dy*speed,
		math.Atan2(-dy, dx)*180/math.Pi,
	)
	ctx.Out.SetPosition(ctx.ID, ctx.ID, entity.Position{X: x, Y: y})
	ctx.Out.SetMotion(ctx.ID, ctx.ID, entity.Motion{Angle: angle, Speed: m.Speed, Agility: m.Agility})
	return nil
}

// grazeRule consumes food sharing the agent's grid cell without
// moving. Cheaper than forage for dense scenes where agents sit on
// grass patches.
type grazeRule struct{}

func (grazeRule) Name() string { return "graze" }

func (grazeRule) Evaluate(ctx *RuleContext) error {
	w := ctx.World
	here := w.Index.CellOf(ctx.Comps.Position)
	ids, err := ctx.Neighbors(w.Param(ParamRadius, defaultRadius))
	if err != nil {
		return err
	}
	for _, id := range ids {
		comps, err := w.Store.Get(id)
		if err != nil {
			continue
		}
		if comps.Kind != entity.KindFood || comps.Food == nil {
			continue
		}
		if w.Index.CellOf(comps.Position) != here {
			continue
		}
		ctx.Out.ConsumeFood(ctx.ID, id, comps.Food.Value)
		return nil
	}
	return nil
}

// foodRule ages a food item and destroys it past expiry.
type foodRule struct{}

func (foodRule) Name() string { return "food" }

func (foodRule) Evaluate(ctx *RuleContext) error {
	f := ctx.Comps.Food
	if f == nil {
		return nil
	}
	next := *f
	next.Age++
	if next.Age >= next.ExpiryTicks {
		ctx.Out.DestroyEntity(ctx.ID)
		return nil
	}
	ctx.Out.SetFood(ctx.ID, ctx.ID, next)
	return nil
}

// sourceRule regenerates capacity and periodically drops a food entity
// on its own cell, paying DropCost from capacity.
type sourceRule struct{}

func (sourceRule) Name() string { return "source" }

func (sourceRule) Evaluate(ctx *RuleContext) error {
	s := ctx.Comps.Source
	if s == nil {
		return nil
	}
	w := ctx.World
	next := *s
	if next.Capacity < next.MaxCapacity {
		regen := next.RegenPerTick * w.Param(ParamRegenScale, 1)
		next.Capacity = math.Min(next.MaxCapacity, next.Capacity+regen)
	}
	next.Countdown++
	if next.ProduceInterval > 0 && next.Countdown >= next.ProduceInterval && next.Capacity >= next.DropCost {
		next.Countdown = 0
		next.Capacity -= next.DropCost
		ctx.Out.SpawnEntity(&entity.Components{
			Kind:     entity.KindFood,
			Position: ctx.Comps.Position,
			Food: &entity.Food{
				Value:       next.DropValue,
				ExpiryTicks: next.DropExpiry,
			},
		})
	}
	ctx.Out.SetSource(ctx.ID, ctx.ID, next)
	return nil
}
