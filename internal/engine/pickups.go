package engine

import (
	"fmt"

	"github.com/talgya/contagion/internal/agents"
)

const (
	pickupRadius = 1.4
	pickupPoints = 48
)

// Pickups hands resources to the player when they walk over them.
type Pickups struct {
	ctx *Context
}

// NewPickups creates the pickup system.
func NewPickups(ctx *Context) *Pickups {
	return &Pickups{ctx: ctx}
}

// Scatter spawns count pickups into the arena.
func (s *Pickups) Scatter(count int) {
	for _, p := range s.ctx.Spawner.SpawnPickups(count) {
		s.ctx.Store.AddPickup(p)
		if s.ctx.Presenter != nil {
			s.ctx.Presenter.SpawnVisual(EntityRef{Kind: EntityPickup, ID: p.ID})
		}
	}
}

// Step collects every pickup within reach of the player.
func (s *Pickups) Step() {
	pl := s.ctx.Store.Player
	if pl == nil {
		return
	}
	for _, p := range s.ctx.Store.Pickups() {
		if p.Collected || pl.Pos.Dist(p.Pos) > pickupRadius {
			continue
		}
		p.Collected = true
		switch p.Kind {
		case agents.PickupVaccine:
			pl.Vaccines++
		case agents.PickupBarrier:
			pl.Barriers++
		}
		pl.AddScore(pickupPoints)
		if s.ctx.Presenter != nil {
			s.ctx.Presenter.RemoveVisual(EntityRef{Kind: EntityPickup, ID: p.ID})
		}
		s.ctx.Emit(KindResourceCollected, SeverityGood, fmt.Sprintf("Picked up a %s", p.Kind),
			map[string]any{"kind": p.Kind.String(), "pickup": p.ID})
	}
}
