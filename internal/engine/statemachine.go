package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/entropy"
)

// Dwell ranges in seconds for the natural transitions.
const (
	infectedDwellMin   = 11.0
	infectedDwellMax   = 19.0
	recoveringDwellMin = 3.0
	recoveringDwellMax = 8.0
)

// Movement multipliers by state.
const (
	infectedSpeedFactor   = 0.8
	recoveringSpeedFactor = 0.9
)

// Cause records why a transition happened.
type Cause string

const (
	CauseInitial    Cause = "initial"
	CauseExposure   Cause = "exposure"
	CauseBackground Cause = "background"
	CauseHotspot    Cause = "hotspot"
	CauseNatural    Cause = "natural"
	CauseHeal       Cause = "heal"
	CauseMortality  Cause = "mortality"
)

// TransitionFunc observes a successful transition.
type TransitionFunc func(a *agents.Agent, from, to agents.State, cause Cause)

// StateMachine is the only writer of agent epidemic state.
type StateMachine struct {
	ctx       *Context
	observers []TransitionFunc
}

// NewStateMachine creates the state machine for ctx.
func NewStateMachine(ctx *Context) *StateMachine {
	return &StateMachine{ctx: ctx}
}

// Observe registers fn to be called after every successful transition.
func (m *StateMachine) Observe(fn TransitionFunc) {
	m.observers = append(m.observers, fn)
}

// SetState moves a to state to, drawing the dwell for the new state.
// Illegal transitions are rejected and leave a untouched.
func (m *StateMachine) SetState(a *agents.Agent, to agents.State, cause Cause) bool {
	return m.transition(a, to, m.drawDwell(to), cause)
}

// SetStateWithDwell is SetState with an explicit dwell for the new state.
func (m *StateMachine) SetStateWithDwell(a *agents.Agent, to agents.State, dwell float64, cause Cause) bool {
	return m.transition(a, to, dwell, cause)
}

func (m *StateMachine) transition(a *agents.Agent, to agents.State, dwell float64, cause Cause) bool {
	if a == nil {
		return false
	}
	from := a.State
	if !agents.CanTransition(from, to) {
		slog.Debug("transition rejected", "agent", a.ID, "from", from, "to", to, "cause", cause)
		return false
	}

	a.State = to
	a.StateTimer = 0
	a.NextTransitionAt = dwell
	if to != agents.StateInfected {
		a.InfectedElapsed = 0
		a.TagTimer = 0
	}
	switch to {
	case agents.StateInfected:
		a.SpeedMultiplier = infectedSpeedFactor
	case agents.StateRecovering:
		a.SpeedMultiplier = recoveringSpeedFactor
	case agents.StateDeceased:
		a.SpeedMultiplier = 0
	default:
		a.SpeedMultiplier = 1
	}

	if m.ctx.Presenter != nil {
		m.ctx.Presenter.ResyncVisual(AgentRef(a.ID))
	}
	m.emit(a, from, to, cause)
	for _, fn := range m.observers {
		fn(a, from, to, cause)
	}
	return true
}

func (m *StateMachine) drawDwell(to agents.State) float64 {
	switch to {
	case agents.StateInfected:
		return entropy.Range(m.ctx.Rand, infectedDwellMin, infectedDwellMax)
	case agents.StateRecovering:
		return entropy.Range(m.ctx.Rand, recoveringDwellMin, recoveringDwellMax)
	}
	return 0
}

func (m *StateMachine) emit(a *agents.Agent, from, to agents.State, cause Cause) {
	meta := map[string]any{"agent": uint64(a.ID), "from": from.String(), "to": to.String(), "cause": string(cause)}
	switch to {
	case agents.StateInfected:
		m.ctx.Emit(KindInfection, SeverityInfect, fmt.Sprintf("Citizen #%d infected (%s)", a.ID, cause), meta)
	case agents.StateRecovering:
		m.ctx.Emit(KindRecovery, SeverityGood, fmt.Sprintf("Citizen #%d recovering", a.ID), meta)
	case agents.StateImmune:
		m.ctx.Emit(KindImmunity, SeverityGood, fmt.Sprintf("Citizen #%d is now immune", a.ID), meta)
	case agents.StateDeceased:
		m.ctx.Emit(KindDeath, SeverityWarn, fmt.Sprintf("Citizen #%d died", a.ID), meta)
	}
}

// Advance accumulates state timers and fires natural transitions whose
// dwell has elapsed: infected -> recovering and recovering -> immune.
func (m *StateMachine) Advance(dt float64) {
	for _, a := range m.ctx.Store.Agents() {
		if !a.Alive() {
			continue
		}
		a.StateTimer += dt
		if a.State == agents.StateInfected {
			a.InfectedElapsed += dt
		}
		if a.NextTransitionAt <= 0 || a.StateTimer < a.NextTransitionAt {
			continue
		}
		switch a.State {
		case agents.StateInfected:
			m.SetState(a, agents.StateRecovering, CauseNatural)
		case agents.StateRecovering:
			m.SetState(a, agents.StateImmune, CauseNatural)
		}
	}
}
