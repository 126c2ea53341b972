package engine

import (
	"math"

	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/entropy"
	"github.com/talgya/contagion/internal/world"
)

const (
	SpreadRadius   = 1.85 // Transmission range
	SpreadBaseRate = 0.75
	RampSeconds    = 60.0 // Time for spread pressure to reach full strength
)

// ExposureProbability is the chance that one infected source at distance
// d infects one healthy target during a tick of dt seconds. It falls
// linearly to zero at SpreadRadius and is always within [0, 1].
func ExposureProbability(d, infectiousness, dt, multiplier float64) float64 {
	if d >= SpreadRadius || dt <= 0 || multiplier <= 0 {
		return 0
	}
	falloff := world.Clamp01((SpreadRadius - d) / SpreadRadius)
	return world.Clamp01(falloff * infectiousness * dt * SpreadBaseRate * multiplier)
}

// Ramp is the spread pressure fraction at elapsed seconds: start at t=0,
// rising linearly to 1 at RampSeconds.
func Ramp(elapsed, start float64) float64 {
	return (1-start)*math.Min(1, math.Max(0, elapsed)/RampSeconds) + start
}

// SpreadModel runs pairwise transmission between infected and healthy
// citizens.
type SpreadModel struct {
	ctx     *Context
	machine *StateMachine
}

// NewSpreadModel creates the spread model.
func NewSpreadModel(ctx *Context, machine *StateMachine) *SpreadModel {
	return &SpreadModel{ctx: ctx, machine: machine}
}

// GlobalMultiplier combines difficulty, ramp-in, and the active event
// modifier.
func (s *SpreadModel) GlobalMultiplier() float64 {
	d := s.ctx.Difficulty
	return d.SpreadMultiplier * Ramp(s.ctx.Elapsed, d.SpreadRampStart) * s.ctx.Modifiers.Spread
}

// Step rolls every infected-healthy pair once. Sources are fixed at the
// start of the step, so a citizen infected during this step does not
// transmit until the next one.
func (s *SpreadModel) Step(dt float64) {
	sources := s.ctx.Store.InState(agents.StateInfected)
	if len(sources) == 0 {
		return
	}
	global := s.GlobalMultiplier()
	for _, src := range sources {
		for _, dst := range s.ctx.Store.Agents() {
			if dst.State != agents.StateHealthy || separated(src, dst) {
				continue
			}
			p := ExposureProbability(src.Pos.Dist(dst.Pos), src.Infectiousness, dt, global)
			if p <= 0 {
				continue
			}
			if entropy.Chance(s.ctx.Rand, p) {
				s.machine.SetState(dst, agents.StateInfected, CauseExposure)
			}
		}
	}
}
