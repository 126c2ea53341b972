package engine

import (
	"math"
	"testing"

	"github.com/talgya/contagion/internal/agents"
)

func TestDeathProbability(t *testing.T) {
	if got := DeathProbability(0.004, 0.1); math.Abs(got-0.024) > 1e-12 {
		t.Fatalf("DeathProbability = %v, want 0.024", got)
	}
	if got := DeathProbability(5, 1); got != 1 {
		t.Fatalf("not clamped: %v", got)
	}
	if got := DeathProbability(0, 1); got != 0 {
		t.Fatalf("zero rate = %v", got)
	}
}

func TestMortalityRespectsMinimumDwell(t *testing.T) {
	d := testDifficulty(t)
	d.DeathRate = 1 // Certain death once eligible
	s := newTestSim(t, d, 20)
	a := s.Ctx.Store.Agents()[0]
	infect(t, s, a)

	a.InfectedElapsed = d.DeathMinSec - 0.01
	s.Mortality.Step(0.1)
	if a.State != agents.StateInfected || s.Ctx.Casualties != 0 {
		t.Fatalf("died before minimum dwell: state %s casualties %d", a.State, s.Ctx.Casualties)
	}

	a.InfectedElapsed = d.DeathMinSec
	s.Mortality.Step(0.1)
	if a.State != agents.StateDeceased || s.Ctx.Casualties != 1 {
		t.Fatalf("eligible citizen survived certain death: state %s casualties %d", a.State, s.Ctx.Casualties)
	}
}

func TestMortalityDefeatFiresOnceAtCap(t *testing.T) {
	d := testDifficulty(t)
	d.DeathRate = 1
	d.CasualtyCap = 2
	s := newTestSim(t, d, 21)
	events := collect(s)
	for _, a := range s.Ctx.Store.Agents()[:5] {
		infect(t, s, a)
		a.InfectedElapsed = d.DeathMinSec
	}

	s.Mortality.Step(0.1)
	if s.Ctx.Outcome != OutcomeDefeat {
		t.Fatalf("outcome = %s, want defeat", s.Ctx.Outcome)
	}
	if s.Ctx.Casualties != 2 {
		t.Fatalf("casualties = %d, want exactly the cap", s.Ctx.Casualties)
	}
	if c := s.Ctx.Store.Counts(); c.Deceased != 2 || c.Infected != 3 {
		t.Fatalf("counts after defeat: %+v", c)
	}

	s.Mortality.Step(0.1)
	s.Game.OnCasualty()
	if n := countKind(*events, KindDefeat); n != 1 {
		t.Fatalf("defeat emitted %d times", n)
	}
	if countKind(*events, KindVictory) != 0 {
		t.Fatal("victory emitted alongside defeat")
	}
}
