package engine

import (
	"fmt"

	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/world"
)

const (
	pulseSpeed      = 45.0 // Radius growth per second
	pulseLife       = 1.6
	tagDuration     = 2.0
	detectionPoints = 10
)

// Pulses runs scan rings. When a ring expires it tags every infected
// citizen within its final radius.
type Pulses struct {
	ctx *Context
}

// NewPulses creates the pulse system.
func NewPulses(ctx *Context) *Pulses {
	return &Pulses{ctx: ctx}
}

// Emit starts a ring at origin.
func (s *Pulses) Emit(origin world.Vec2) *agents.Pulse {
	p := &agents.Pulse{
		ID:     s.ctx.Spawner.NextEntityID(),
		Origin: origin,
		Speed:  pulseSpeed,
		Life:   pulseLife,
	}
	s.ctx.Store.AddPulse(p)
	if s.ctx.Presenter != nil {
		s.ctx.Presenter.SpawnVisual(EntityRef{Kind: EntityPulse, ID: p.ID})
	}
	return p
}

// Step decays existing tags, then grows rings and fires detection for
// those that expire.
func (s *Pulses) Step(dt float64) {
	for _, a := range s.ctx.Store.Agents() {
		if a.TagTimer <= 0 {
			continue
		}
		a.TagTimer -= dt
		if a.TagTimer <= 0 || a.State != agents.StateInfected {
			a.TagTimer = 0
			if s.ctx.Presenter != nil {
				s.ctx.Presenter.ResyncVisual(AgentRef(a.ID))
			}
		}
	}

	var done []uint64
	for _, p := range s.ctx.Store.Pulses() {
		p.Radius += p.Speed * dt
		p.Life -= dt
		if p.Life > 0 {
			continue
		}
		if !p.Detected {
			s.detect(p)
		}
		done = append(done, p.ID)
	}
	for _, id := range done {
		s.ctx.Store.RemovePulse(id)
		if s.ctx.Presenter != nil {
			s.ctx.Presenter.RemoveVisual(EntityRef{Kind: EntityPulse, ID: id})
		}
	}
}

func (s *Pulses) detect(p *agents.Pulse) {
	p.Detected = true
	found := 0
	for _, a := range s.ctx.Store.Agents() {
		if a.State != agents.StateInfected || a.Pos.Dist(p.Origin) > p.Radius {
			continue
		}
		a.TagTimer = tagDuration
		found++
		if s.ctx.Presenter != nil {
			s.ctx.Presenter.ResyncVisual(AgentRef(a.ID))
		}
	}
	if found == 0 {
		s.ctx.Emit(KindScan, SeverityInfo, "Scan complete: no infections detected", map[string]any{"detected": 0})
		return
	}
	if pl := s.ctx.Store.Player; pl != nil {
		pl.AddScore(int64(found * detectionPoints))
	}
	s.ctx.Emit(KindScan, SeverityWarn, fmt.Sprintf("Scan detected %d infected", found), map[string]any{"detected": found})
}
