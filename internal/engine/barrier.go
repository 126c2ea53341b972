package engine

import (
	"fmt"

	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/world"
)

const (
	BarrierRadius        = 4.2
	BarrierLife          = 25.0 // Seconds
	BarrierMinSeparation = 3.0
)

// Barriers deploys and retires containment barriers. Capture is one-shot:
// the citizens strictly within the radius at deployment are trapped, and
// nobody joins later.
type Barriers struct {
	ctx *Context
}

// NewBarriers creates the barrier system.
func NewBarriers(ctx *Context) *Barriers {
	return &Barriers{ctx: ctx}
}

// Deploy places a barrier at pos, consuming one barrier from the player's
// inventory. It refuses when the inventory is empty or another barrier is
// closer than BarrierMinSeparation.
func (s *Barriers) Deploy(pos world.Vec2) (*agents.Barrier, bool) {
	p := s.ctx.Store.Player
	if p == nil || p.Barriers <= 0 {
		s.ctx.Notice("no_barriers", "No barriers left")
		return nil, false
	}
	for _, b := range s.ctx.Store.Barriers() {
		if b.Pos.Dist(pos) < BarrierMinSeparation {
			s.ctx.Notice("barrier_too_close", "Too close to barrier #%d", b.ID)
			return nil, false
		}
	}

	id := s.ctx.Spawner.NextBarrierID()
	var captured []agents.AgentID
	for _, a := range s.ctx.Store.Agents() {
		if !a.Alive() || a.Trapped {
			continue
		}
		if a.Pos.Dist(pos) < BarrierRadius {
			captured = append(captured, a.ID)
		}
	}
	b := agents.NewBarrier(id, pos, BarrierRadius, BarrierLife, captured)
	for _, aid := range captured {
		s.ctx.Store.Agent(aid).Trap(id)
	}
	p.Barriers--
	s.ctx.Store.AddBarrier(b)

	if s.ctx.Presenter != nil {
		s.ctx.Presenter.SpawnVisual(BarrierRef(id))
	}
	s.ctx.Emit(KindBarrierPlaced, SeverityGood,
		fmt.Sprintf("Barrier #%d deployed, %d citizens contained", id, len(captured)),
		map[string]any{"barrier": uint64(id), "captured": len(captured)})
	return b, true
}

// Step ages barriers and retires the expired ones.
func (s *Barriers) Step(dt float64) {
	var expired []agents.BarrierID
	for _, b := range s.ctx.Store.Barriers() {
		b.Life -= dt
		if b.Life <= 0 {
			expired = append(expired, b.ID)
		}
	}
	for _, id := range expired {
		s.Remove(id, "expired")
	}
}

// Remove retires a barrier and releases every citizen it holds.
func (s *Barriers) Remove(id agents.BarrierID, reason string) bool {
	b := s.ctx.Store.RemoveBarrier(id)
	if b == nil {
		return false
	}
	released := 0
	for _, aid := range b.Inside() {
		if a := s.ctx.Store.Agent(aid); a != nil && a.TrappedBy(id) {
			a.Release()
			released++
		}
	}
	if s.ctx.Presenter != nil {
		s.ctx.Presenter.RemoveVisual(BarrierRef(id))
	}
	s.ctx.Emit(KindBarrierRemoved, SeverityInfo,
		fmt.Sprintf("Barrier #%d %s, %d citizens released", id, reason, released),
		map[string]any{"barrier": uint64(id), "released": released, "reason": reason})
	return true
}

// separated reports whether a barrier wall lies between a and b: one is
// held by a barrier that does not hold the other.
func separated(a, b *agents.Agent) bool {
	if a.Trapped != b.Trapped {
		return true
	}
	if !a.Trapped {
		return false
	}
	return a.TrapBarrierID == nil || b.TrapBarrierID == nil || *a.TrapBarrierID != *b.TrapBarrierID
}
