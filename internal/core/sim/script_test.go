package sim

import (
	"math"
	"testing"

	"github.com/verdantlab/meadow/internal/core/entity"
	"github.com/verdantlab/meadow/internal/core/observability/log"
)

func scriptedAgent(x, y float64, rule string) *entity.Components {
	return &entity.Components{
		Kind:     entity.KindAgent,
		Position: entity.Position{X: x, Y: y},
		Motion:   &entity.Motion{Speed: 3},
		Behavior: &entity.Behavior{Rule: rule},
	}
}

func TestScriptRuleMovesEntity(t *testing.T) {
	rs := NewRuleSet(log.Nop())
	if err := rs.RegisterScript("march", "out_dx = 2.0\nout_angle = 90.0"); err != nil {
		t.Fatalf("register: %v", err)
	}
	w := testWorld(t, 1, nil)
	id := mustCreate(t, w, scriptedAgent(10, 10, "march"))
	q := NewQueue()
	sched := NewScheduler(rs, q, log.Nop())

	if err := sched.Step(w, 1.0/60); err != nil {
		t.Fatalf("step: %v", err)
	}
	comps, _ := w.Store.Get(id)
	if comps.Position != (entity.Position{X: 12, Y: 10}) {
		t.Fatalf("agent at %v, want (12,10)", comps.Position)
	}
	if comps.Motion.Angle != 90 {
		t.Fatalf("angle = %v, want 90 from out_angle", comps.Motion.Angle)
	}
}

func TestScriptSeesNeighborInputs(t *testing.T) {
	rs := NewRuleSet(log.Nop())
	src := `
if has_neighbor > 0 && nearest_dist > 0 {
    out_dx = nearest_dx / nearest_dist
    out_dy = nearest_dy / nearest_dist
}
`
	if err := rs.RegisterScript("approach", src); err != nil {
		t.Fatalf("register: %v", err)
	}
	w := testWorld(t, 1, Params{ParamRadius: 50})
	id := mustCreate(t, w, scriptedAgent(10, 10, "approach"))
	mustCreate(t, w, scriptedAgent(20, 10, "approach"))
	sched := NewScheduler(rs, NewQueue(), log.Nop())

	if err := sched.Step(w, 1.0/60); err != nil {
		t.Fatalf("step: %v", err)
	}
	comps, _ := w.Store.Get(id)
	if math.Abs(comps.Position.X-11) > 1e-9 || math.Abs(comps.Position.Y-10) > 1e-9 {
		t.Fatalf("agent at %v, want one unit toward the neighbor", comps.Position)
	}
}

func TestScriptCompileErrorRejected(t *testing.T) {
	rs := NewRuleSet(log.Nop())
	if err := rs.RegisterScript("broken", "out_dx = "); err == nil {
		t.Fatal("expected a compile error")
	}
	if _, ok := rs.Lookup("broken"); ok {
		t.Fatal("failed script must not be registered")
	}
}

func TestScriptRuntimeErrorSkipsEntity(t *testing.T) {
	rs := NewRuleSet(log.Nop())
	if err := rs.RegisterScript("crash", "a := 1\nb := 0\nout_dx = a / b"); err != nil {
		t.Fatalf("register: %v", err)
	}
	w := testWorld(t, 1, nil)
	id := mustCreate(t, w, scriptedAgent(10, 10, "crash"))
	sched := NewScheduler(rs, NewQueue(), log.Nop())

	if err := sched.Step(w, 1.0/60); err != nil {
		t.Fatalf("a failing script must not abort the tick: %v", err)
	}
	comps, _ := w.Store.Get(id)
	if comps.Position != (entity.Position{X: 10, Y: 10}) {
		t.Fatalf("failed entity moved to %v", comps.Position)
	}
	if w.Tick != 1 {
		t.Fatalf("tick = %d, want 1", w.Tick)
	}
}

func TestScriptNonFiniteMovementSkipped(t *testing.T) {
	rs := NewRuleSet(log.Nop())
	if err := rs.RegisterScript("inf", "out_dx = 1.0 / 0.0"); err != nil {
		t.Fatalf("register: %v", err)
	}
	w := testWorld(t, 1, nil)
	id := mustCreate(t, w, scriptedAgent(10, 10, "inf"))
	sched := NewScheduler(rs, NewQueue(), log.Nop())

	if err := sched.Step(w, 1.0/60); err != nil {
		t.Fatalf("step: %v", err)
	}
	comps, _ := w.Store.Get(id)
	if comps.Position != (entity.Position{X: 10, Y: 10}) {
		t.Fatalf("non-finite movement applied: %v", comps.Position)
	}
}

func TestRegisterDuplicateNameRejected(t *testing.T) {
	rs := NewRuleSet(log.Nop())
	if err := rs.RegisterScript("wander", "out_dx = 1.0"); err == nil {
		t.Fatal("built-in names must not be shadowed")
	}
}
