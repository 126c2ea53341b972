package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/entropy"
)

// SeedInfectedCap is the infected fraction at or above which background
// seeding holds off.
const SeedInfectedCap = 0.3

// Seeder introduces sporadic background infections so a match never
// settles into a permanent lull.
type Seeder struct {
	ctx     *Context
	machine *StateMachine
	timer   float64
	next    float64
}

// NewSeeder creates the background seeder and draws the first gap.
func NewSeeder(ctx *Context, machine *StateMachine) *Seeder {
	s := &Seeder{ctx: ctx, machine: machine}
	s.next = s.gap()
	return s
}

func (s *Seeder) gap() float64 {
	d := s.ctx.Difficulty
	return entropy.Range(s.ctx.Rand, d.SeedGapMin, d.SeedGapMax)
}

// Step advances the seed timer and attempts a seed when it elapses.
func (s *Seeder) Step(dt float64) {
	s.timer += dt
	if s.timer < s.next {
		return
	}
	s.Attempt()
	s.timer = 0
	s.next = s.gap()
}

// Attempt infects one random healthy, untrapped citizen unless the
// infected fraction is already at the cap.
func (s *Seeder) Attempt() bool {
	c := s.ctx.Store.Counts()
	if c.Total == 0 || float64(c.Infected)/float64(c.Total) >= SeedInfectedCap {
		slog.Debug("seed skipped, infected cap reached", "infected", c.Infected, "total", c.Total)
		return false
	}
	var eligible []*agents.Agent
	for _, a := range s.ctx.Store.Agents() {
		if a.State == agents.StateHealthy && !a.Trapped {
			eligible = append(eligible, a)
		}
	}
	if len(eligible) == 0 {
		return false
	}
	a := eligible[s.ctx.Rand.Intn(len(eligible))]
	if !s.machine.SetState(a, agents.StateInfected, CauseBackground) {
		return false
	}
	s.ctx.Emit(KindSeed, SeverityInfect, fmt.Sprintf("Sporadic case: citizen #%d", a.ID),
		map[string]any{"agent": uint64(a.ID), "source": "background"})
	return true
}
