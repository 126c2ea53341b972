package engine

import (
	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/entropy"
	"github.com/talgya/contagion/internal/world"
)

// CasualtyObserver is told about each death right after it is counted.
type CasualtyObserver interface {
	OnCasualty()
}

// DeathProbability is the per-tick death chance for an eligible infected
// citizen. rate is expressed per infected-minute.
func DeathProbability(rate, dt float64) float64 {
	return world.Clamp01(rate * dt * 60)
}

// MortalityModel kills long-infected citizens. It is the only writer of
// the casualty counter.
type MortalityModel struct {
	ctx      *Context
	machine  *StateMachine
	observer CasualtyObserver
}

// NewMortalityModel creates the mortality model. observer may be nil.
func NewMortalityModel(ctx *Context, machine *StateMachine, observer CasualtyObserver) *MortalityModel {
	return &MortalityModel{ctx: ctx, machine: machine, observer: observer}
}

// Step rolls death for every infected citizen past the minimum dwell. It
// stops as soon as the match is decided.
func (m *MortalityModel) Step(dt float64) {
	d := m.ctx.Difficulty
	p := DeathProbability(d.DeathRate, dt)
	if p <= 0 {
		return
	}
	for _, a := range m.ctx.Store.Agents() {
		if !m.ctx.Playing() {
			return
		}
		if a.State != agents.StateInfected || a.InfectedElapsed < d.DeathMinSec {
			continue
		}
		if !entropy.Chance(m.ctx.Rand, p) {
			continue
		}
		if !m.machine.SetState(a, agents.StateDeceased, CauseMortality) {
			continue
		}
		m.ctx.Casualties++
		if m.observer != nil {
			m.observer.OnCasualty()
		}
	}
}
