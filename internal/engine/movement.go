package engine

import (
	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/entropy"
	"github.com/talgya/contagion/internal/world"
)

const (
	retargetDistance = 0.6  // Pick a new destination once this close
	retargetSpan     = 12.0 // New destinations lie within ±span of the agent
	barrierMargin    = 0.3  // Trapped agents keep this far inside the rim
)

// Movement wanders living citizens toward random destinations, bent by
// a smooth noise field, within the arena.
type Movement struct {
	ctx   *Context
	field *world.WanderField
}

// NewMovement creates the movement system. A nil field moves agents in
// straight lines.
func NewMovement(ctx *Context, field *world.WanderField) *Movement {
	return &Movement{ctx: ctx, field: field}
}

// Step moves every living citizen by dt seconds.
func (m *Movement) Step(dt float64) {
	speedMod := m.ctx.Modifiers.Speed
	for _, a := range m.ctx.Store.Agents() {
		if !a.Alive() {
			continue
		}
		if a.Pos.Dist(a.Target) < retargetDistance {
			a.Target = m.ctx.Arena.ClampPoint(a.Pos.Add(world.V(
				entropy.Range(m.ctx.Rand, -retargetSpan, retargetSpan),
				entropy.Range(m.ctx.Rand, -retargetSpan, retargetSpan),
			)))
		}
		dir := m.field.Steer(a.Target.Sub(a.Pos).Norm(), a.Pos, m.ctx.Elapsed)
		step := a.BaseSpeed * a.SpeedMultiplier * speedMod * dt
		a.Pos = m.ctx.Arena.ClampPoint(a.Pos.Add(dir.Scale(step)))
		if pos := m.bound(a); pos != a.Pos {
			// Held at the barrier rim: retarget next step.
			a.Pos, a.Target = pos, pos
		}
	}
}

// bound keeps a trapped citizen inside the barrier holding it. Barriers
// do not repel anyone else.
func (m *Movement) bound(a *agents.Agent) world.Vec2 {
	if !a.Trapped || a.TrapBarrierID == nil {
		return a.Pos
	}
	b := m.ctx.Store.Barrier(*a.TrapBarrierID)
	if b == nil {
		return a.Pos
	}
	return world.ContainCircle(a.Pos, b.Pos, b.Radius-barrierMargin)
}
