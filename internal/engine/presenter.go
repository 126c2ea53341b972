package engine

import (
	"math"

	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/world"
)

// EntityKind tags what an EntityRef points at.
type EntityKind uint8

const (
	EntityAgent EntityKind = iota
	EntityBarrier
	EntityPulse
	EntityPickup
)

// EntityRef identifies an entity for the presentation layer.
type EntityRef struct {
	Kind EntityKind
	ID   uint64
}

// AgentRef refers to a citizen.
func AgentRef(id agents.AgentID) EntityRef { return EntityRef{Kind: EntityAgent, ID: uint64(id)} }

// BarrierRef refers to a barrier.
func BarrierRef(id agents.BarrierID) EntityRef { return EntityRef{Kind: EntityBarrier, ID: uint64(id)} }

// Presenter is the presentation boundary. The engine calls it after
// visual-affecting changes; it never reads rendering state back.
type Presenter interface {
	ResyncVisual(ref EntityRef)
	SpawnVisual(ref EntityRef)
	RemoveVisual(ref EntityRef)
}

// AimResolver picks the citizen the player is aiming at, or nil.
type AimResolver interface {
	ResolveAimTarget(origin, dir world.Vec2) *agents.Agent
}

// NopPresenter ignores all visual callbacks. Headless runs use it.
type NopPresenter struct{}

func (NopPresenter) ResyncVisual(EntityRef) {}
func (NopPresenter) SpawnVisual(EntityRef)  {}
func (NopPresenter) RemoveVisual(EntityRef) {}

const (
	defaultAimRange  = 14.0
	defaultAimRadius = 0.75
)

// RayAim resolves aim geometrically: the nearest living citizen whose
// centre lies within Radius of the ray from origin along dir, no further
// than Range away.
type RayAim struct {
	Store  *Store
	Range  float64
	Radius float64
}

// NewRayAim returns a resolver with the default reach.
func NewRayAim(s *Store) *RayAim {
	return &RayAim{Store: s, Range: defaultAimRange, Radius: defaultAimRadius}
}

func (r *RayAim) ResolveAimTarget(origin, dir world.Vec2) *agents.Agent {
	dir = dir.Norm()
	if dir.LenSq() == 0 {
		return nil
	}
	var best *agents.Agent
	bestT := math.Inf(1)
	for _, a := range r.Store.Agents() {
		if !a.Alive() {
			continue
		}
		v := a.Pos.Sub(origin)
		t := v.Dot(dir)
		if t < 0 || t > r.Range {
			continue
		}
		if v.LenSq()-t*t > r.Radius*r.Radius {
			continue
		}
		if t < bestT {
			best, bestT = a, t
		}
	}
	return best
}
