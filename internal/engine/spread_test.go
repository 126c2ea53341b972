package engine

import (
	"math"
	"testing"

	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/entropy"
	"github.com/talgya/contagion/internal/world"
)

func TestExposureProbabilityProperties(t *testing.T) {
	if p := ExposureProbability(SpreadRadius, 1, 0.1, 1); p != 0 {
		t.Fatalf("p at radius = %v, want 0", p)
	}
	if p := ExposureProbability(SpreadRadius+3, 1, 0.1, 50); p != 0 {
		t.Fatalf("p beyond radius = %v, want 0", p)
	}
	if p := ExposureProbability(0.5, 0, 0.1, 1); p != 0 {
		t.Fatalf("p with zero infectiousness = %v", p)
	}
	if p := ExposureProbability(0, 1, 0.1, 1e6); p != 1 {
		t.Fatalf("huge multiplier not clamped: %v", p)
	}
	want := (SpreadRadius - 1) / SpreadRadius * 0.8 * 0.1 * SpreadBaseRate * 1.2
	if p := ExposureProbability(1, 0.8, 0.1, 1.2); math.Abs(p-want) > 1e-12 {
		t.Fatalf("p = %v, want %v", p, want)
	}

	prev := math.Inf(1)
	for d := 0.0; d < SpreadRadius; d += 0.05 {
		p := ExposureProbability(d, 0.9, 0.1, 1)
		if p < 0 || p > 1 {
			t.Fatalf("p(%v) = %v outside [0,1]", d, p)
		}
		if p > prev {
			t.Fatalf("p increased with distance at d=%v", d)
		}
		prev = p
	}
}

func TestRamp(t *testing.T) {
	if got := Ramp(0, 0.6); got != 0.6 {
		t.Fatalf("Ramp(0) = %v", got)
	}
	if got := Ramp(30, 0.6); math.Abs(got-0.8) > 1e-12 {
		t.Fatalf("Ramp(30) = %v, want 0.8", got)
	}
	if got := Ramp(600, 0.6); got != 1 {
		t.Fatalf("Ramp(600) = %v, want 1", got)
	}
}

// spreadFixture places an infected source at the origin with every other
// citizen far away, and makes every Bernoulli draw succeed.
func spreadFixture(t *testing.T) (*Simulation, *agents.Agent) {
	t.Helper()
	s := newTestSim(t, testDifficulty(t), 10)
	scatterFar(s)
	src := s.Ctx.Store.Agents()[0]
	src.Pos = world.V(0, 0)
	src.Infectiousness = 0.9
	infect(t, s, src)
	s.Ctx.Rand = entropy.NewScript(0)
	return s, src
}

func TestSpreadInfectsInsideRadiusOnly(t *testing.T) {
	s, _ := spreadFixture(t)
	near, edge := s.Ctx.Store.Agents()[1], s.Ctx.Store.Agents()[2]
	near.Pos = world.V(1, 0)
	edge.Pos = world.V(0, SpreadRadius)

	s.Spread.Step(0.1)
	if near.State != agents.StateInfected {
		t.Fatalf("near citizen state %s, want infected", near.State)
	}
	if edge.State != agents.StateHealthy {
		t.Fatalf("citizen at exactly the radius was infected")
	}
	if c := s.Ctx.Store.Counts(); c.Infected != 2 {
		t.Fatalf("infected = %d, want 2", c.Infected)
	}
}

func TestSpreadNewCasesDoNotTransmitSameStep(t *testing.T) {
	s, _ := spreadFixture(t)
	b, c := s.Ctx.Store.Agents()[1], s.Ctx.Store.Agents()[2]
	b.Pos = world.V(1, 0)
	c.Pos = world.V(2, 0) // Reachable from b, not from the source

	s.Spread.Step(0.1)
	if b.State != agents.StateInfected || c.State != agents.StateHealthy {
		t.Fatalf("after one step: b=%s c=%s", b.State, c.State)
	}
	s.Spread.Step(0.1)
	if c.State != agents.StateInfected {
		t.Fatalf("chain did not continue on the next step: c=%s", c.State)
	}
}

func TestSpreadBlockedByBarrierWall(t *testing.T) {
	s, src := spreadFixture(t)
	outside, cellmate := s.Ctx.Store.Agents()[1], s.Ctx.Store.Agents()[2]
	outside.Pos = world.V(1, 0)
	cellmate.Pos = world.V(-1, 0)
	src.Trap(1)
	cellmate.Trap(1)

	s.Spread.Step(0.1)
	if outside.State != agents.StateHealthy {
		t.Fatal("infection crossed the barrier wall")
	}
	if cellmate.State != agents.StateInfected {
		t.Fatal("citizens in the same barrier did not transmit")
	}
}

func TestSpreadUsesEventModifier(t *testing.T) {
	s, src := spreadFixture(t)
	base := s.Spread.GlobalMultiplier()
	s.Ctx.Modifiers.Spread = 1.5
	if got := s.Spread.GlobalMultiplier(); math.Abs(got-base*1.5) > 1e-12 {
		t.Fatalf("multiplier with boost = %v, want %v", got, base*1.5)
	}
	s.Ctx.Modifiers.Spread = 0
	target := s.Ctx.Store.Agents()[1]
	target.Pos = src.Pos.Add(world.V(0.5, 0))
	s.Spread.Step(0.1)
	if target.State != agents.StateHealthy {
		t.Fatal("zero spread modifier still transmitted")
	}
}

// The Bernoulli threshold is exactly the exposure formula: a draw just
// above it never infects, a draw just below it always does.
func TestSpreadDrawAgainstExactFormula(t *testing.T) {
	for _, tc := range []struct {
		name  string
		scale float64
		want  agents.State
	}{
		{"above", 1.01, agents.StateHealthy},
		{"below", 0.99, agents.StateInfected},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s, src := spreadFixture(t)
			src.SpreadMultiplier = 1.15 // Not part of the exposure formula
			target := s.Ctx.Store.Agents()[1]
			target.Pos = world.V(1, 0)

			p := ExposureProbability(1, src.Infectiousness, 0.1, s.Spread.GlobalMultiplier())
			if p <= 0 || p >= 1 {
				t.Fatalf("fixture probability %v not in (0,1)", p)
			}
			s.Ctx.Rand = entropy.NewScript(p * tc.scale)
			s.Spread.Step(0.1)
			if target.State != tc.want {
				t.Fatalf("draw %v against p=%v: state %s, want %s", p*tc.scale, p, target.State, tc.want)
			}
		})
	}
}
