// Package agents provides the outbreak data model: citizens carrying an
// epidemic state, the player, barriers, pulses, and pickups.
package agents

import (
	"github.com/talgya/contagion/internal/world"
)

// AgentID is a unique identifier for a citizen.
type AgentID uint64

// BarrierID is a unique identifier for a deployed barrier.
type BarrierID uint64

// Agent is a simulated population member.
type Agent struct {
	ID  AgentID    `json:"id"`
	Pos world.Vec2 `json:"pos"`

	// Epidemic state
	State            State   `json:"state"`
	StateTimer       float64 `json:"state_timer"`        // Seconds in current state
	NextTransitionAt float64 `json:"next_transition_at"` // Dwell deadline for the natural transition; 0 = none
	InfectedElapsed  float64 `json:"infected_elapsed"`   // Continuous infected dwell, for mortality eligibility
	Infectiousness   float64 `json:"infectiousness"`     // 0.0–1.0

	// Movement
	BaseSpeed       float64    `json:"base_speed"`
	SpeedMultiplier float64    `json:"speed_multiplier"` // Set by state: infected agents slow down
	Target          world.Vec2 `json:"target"`           // Current wander destination

	// Per-agent transmission factor. Always 1: exposure is computed from
	// infectiousness and the global multiplier alone.
	SpreadMultiplier float64 `json:"spread_multiplier"`

	// Containment
	Trapped       bool       `json:"trapped"`
	TrapBarrierID *BarrierID `json:"trap_barrier_id,omitempty"`

	// Remaining seconds of a pulse-scan tracking tag (halo). 0 = untagged.
	TagTimer float64 `json:"tag_timer,omitempty"`
}

// Alive reports whether the agent still participates in movement.
func (a *Agent) Alive() bool {
	return a.State != StateDeceased
}

// TrappedBy reports whether the agent is held by barrier id.
func (a *Agent) TrappedBy(id BarrierID) bool {
	return a.Trapped && a.TrapBarrierID != nil && *a.TrapBarrierID == id
}

// Trap marks the agent as held by barrier id.
func (a *Agent) Trap(id BarrierID) {
	bid := id
	a.Trapped = true
	a.TrapBarrierID = &bid
}

// Release clears the trapped flag and barrier reference.
func (a *Agent) Release() {
	a.Trapped = false
	a.TrapBarrierID = nil
}

// Cooldowns are the per-action cooldown timers in seconds. 0 = ready.
type Cooldowns struct {
	Heal    float64 `json:"heal"`
	Barrier float64 `json:"barrier"`
	Scan    float64 `json:"scan"`
}

// Player is the single controllable responder.
type Player struct {
	Pos       world.Vec2 `json:"pos"`
	Facing    world.Vec2 `json:"facing"` // Unit vector; aim and barrier placement direction
	Speed     float64    `json:"speed"`
	Vaccines  int        `json:"vaccines"`
	Barriers  int        `json:"barriers"`
	Cooldowns Cooldowns  `json:"cooldowns"`

	score int64
}

// NewPlayer creates a player at pos facing -Y.
func NewPlayer(pos world.Vec2, vaccines, barriers int) *Player {
	return &Player{
		Pos:      pos,
		Facing:   world.V(0, -1),
		Speed:    10,
		Vaccines: vaccines,
		Barriers: barriers,
	}
}

// Score returns the current score.
func (p *Player) Score() int64 {
	return p.score
}

// AddScore awards points. Negative awards are ignored so the score never
// decreases.
func (p *Player) AddScore(points int64) {
	if points > 0 {
		p.score += points
	}
}

// Barrier is a containment volume deployed by the player.
type Barrier struct {
	ID     BarrierID  `json:"id"`
	Pos    world.Vec2 `json:"pos"`
	Radius float64    `json:"radius"`
	Life   float64    `json:"life"` // Remaining seconds

	inside map[AgentID]struct{}
}

// NewBarrier creates a barrier whose inside set is fixed to ids.
func NewBarrier(id BarrierID, pos world.Vec2, radius, life float64, ids []AgentID) *Barrier {
	inside := make(map[AgentID]struct{}, len(ids))
	for _, a := range ids {
		inside[a] = struct{}{}
	}
	return &Barrier{ID: id, Pos: pos, Radius: radius, Life: life, inside: inside}
}

// Holds reports whether the agent was captured at creation.
func (b *Barrier) Holds(id AgentID) bool {
	_, ok := b.inside[id]
	return ok
}

// InsideCount returns the size of the capture set.
func (b *Barrier) InsideCount() int {
	return len(b.inside)
}

// Inside returns a copy of the capture set.
func (b *Barrier) Inside() []AgentID {
	ids := make([]AgentID, 0, len(b.inside))
	for id := range b.inside {
		ids = append(ids, id)
	}
	return ids
}

// Pulse is an expanding scan ring.
type Pulse struct {
	ID       uint64     `json:"id"`
	Origin   world.Vec2 `json:"origin"`
	Radius   float64    `json:"radius"`
	Speed    float64    `json:"speed"` // Radius growth per second
	Life     float64    `json:"life"`  // Remaining seconds
	Detected bool       `json:"detected"`
}

// PickupKind identifies what a pickup grants.
type PickupKind uint8

const (
	PickupVaccine PickupKind = iota
	PickupBarrier
)

func (k PickupKind) String() string {
	if k == PickupBarrier {
		return "barrier"
	}
	return "vaccine"
}

// Pickup is a collectible resource lying in the arena.
type Pickup struct {
	ID        uint64     `json:"id"`
	Kind      PickupKind `json:"kind"`
	Pos       world.Vec2 `json:"pos"`
	Collected bool       `json:"collected"`
}
