package engine

import (
	"fmt"

	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/entropy"
	"github.com/talgya/contagion/internal/world"
)

const (
	healCooldown    = 0.75
	barrierCooldown = 2.2
	scanCooldown    = 4.5

	// Recovering dwell after a heal. Skipping the infected dwell is what
	// shortens the path to immunity.
	healDwellMin = 7.0
	healDwellMax = 13.0

	barrierAhead = 2.6 // Barriers land this far in front of the player
	sprintFactor = 1.85

	healPoints    = 160
	barrierPoints = 55
	scanPoints    = 18
)

// Input is one per-tick sample from the input layer.
type Input struct {
	Move    world.Vec2 `json:"move"` // Desired direction; any length, zero = stand still
	Aim     world.Vec2 `json:"aim"`  // Facing override; zero keeps the last facing
	Sprint  bool       `json:"sprint"`
	Heal    bool       `json:"heal"`
	Barrier bool       `json:"barrier"`
	Scan    bool       `json:"scan"`
}

// PlayerActions moves the player and executes the resource-gated
// heal, barrier, and scan commands.
type PlayerActions struct {
	ctx      *Context
	machine  *StateMachine
	barriers *Barriers
	pulses   *Pulses
}

// NewPlayerActions creates the action system.
func NewPlayerActions(ctx *Context, machine *StateMachine, barriers *Barriers, pulses *Pulses) *PlayerActions {
	return &PlayerActions{ctx: ctx, machine: machine, barriers: barriers, pulses: pulses}
}

// Apply advances cooldowns, moves the player, and runs the pressed
// commands in heal, barrier, scan order.
func (pa *PlayerActions) Apply(dt float64, in Input) {
	p := pa.ctx.Store.Player
	if p == nil {
		return
	}
	p.Cooldowns.Heal = cool(p.Cooldowns.Heal, dt)
	p.Cooldowns.Barrier = cool(p.Cooldowns.Barrier, dt)
	p.Cooldowns.Scan = cool(p.Cooldowns.Scan, dt)

	if move := in.Move.Norm(); move.LenSq() > 0 {
		speed := p.Speed
		if in.Sprint {
			speed *= sprintFactor
		}
		p.Pos = pa.ctx.Arena.ClampPoint(p.Pos.Add(move.Scale(speed * dt)))
		p.Facing = move
	}
	if aim := in.Aim.Norm(); aim.LenSq() > 0 {
		p.Facing = aim
	}

	if in.Heal {
		pa.Heal()
	}
	if in.Barrier {
		pa.DeployBarrier()
	}
	if in.Scan {
		pa.Scan()
	}
}

func cool(t, dt float64) float64 {
	if t <= dt {
		return 0
	}
	return t - dt
}

// Heal vaccinates the citizen under the player's aim. Only infected
// targets can be healed; they move to recovering with a short dwell.
func (pa *PlayerActions) Heal() bool {
	p := pa.ctx.Store.Player
	if p == nil || p.Cooldowns.Heal > 0 {
		return false
	}
	if p.Vaccines <= 0 {
		pa.ctx.Notice("no_vaccines", "No vaccines left")
		return false
	}
	var target *agents.Agent
	if pa.ctx.Aim != nil {
		target = pa.ctx.Aim.ResolveAimTarget(p.Pos, p.Facing)
	}
	if target == nil {
		pa.ctx.Notice("no_target", "No citizen in sight")
		return false
	}
	if target.State != agents.StateInfected {
		pa.ctx.Notice("not_infected", "Citizen #%d is %s, not infected", target.ID, target.State)
		return false
	}
	dwell := entropy.Range(pa.ctx.Rand, healDwellMin, healDwellMax)
	if !pa.machine.SetStateWithDwell(target, agents.StateRecovering, dwell, CauseHeal) {
		return false
	}
	p.Vaccines--
	p.Cooldowns.Heal = healCooldown
	p.AddScore(healPoints)
	pa.ctx.Emit(KindHeal, SeverityGood, fmt.Sprintf("Vaccinated citizen #%d", target.ID),
		map[string]any{"agent": uint64(target.ID), "vaccines": p.Vaccines})
	return true
}

// DeployBarrier drops a barrier in front of the player.
func (pa *PlayerActions) DeployBarrier() bool {
	p := pa.ctx.Store.Player
	if p == nil || p.Cooldowns.Barrier > 0 {
		return false
	}
	pos := pa.ctx.Arena.ClampPoint(p.Pos.Add(p.Facing.Norm().Scale(barrierAhead)))
	if _, ok := pa.barriers.Deploy(pos); !ok {
		return false
	}
	p.Cooldowns.Barrier = barrierCooldown
	p.AddScore(barrierPoints)
	return true
}

// Scan emits a pulse from the player. Events may stretch or shrink its
// cooldown.
func (pa *PlayerActions) Scan() bool {
	p := pa.ctx.Store.Player
	if p == nil || p.Cooldowns.Scan > 0 {
		return false
	}
	pa.pulses.Emit(p.Pos)
	p.Cooldowns.Scan = scanCooldown * pa.ctx.Modifiers.ScanCooldown
	p.AddScore(scanPoints)
	return true
}
