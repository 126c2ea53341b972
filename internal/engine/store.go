package engine

import (
	"github.com/talgya/contagion/internal/agents"
)

// Store is the entity store: the player, the citizen collection, and the
// live barriers, pulses, and pickups. It owns no behaviour; systems read
// and mutate the entities it holds.
type Store struct {
	Player *agents.Player

	agents   []*agents.Agent
	byID     map[agents.AgentID]*agents.Agent
	barriers []*agents.Barrier
	pulses   []*agents.Pulse
	pickups  []*agents.Pickup
}

// StateCounts is a census by epidemic state.
type StateCounts struct {
	Healthy    int `json:"healthy"`
	Infected   int `json:"infected"`
	Recovering int `json:"recovering"`
	Immune     int `json:"immune"`
	Deceased   int `json:"deceased"`
	Total      int `json:"total"`
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byID: make(map[agents.AgentID]*agents.Agent)}
}

// AddAgent registers a citizen. Duplicate IDs replace nothing and are ignored.
func (s *Store) AddAgent(a *agents.Agent) bool {
	if _, dup := s.byID[a.ID]; dup {
		return false
	}
	s.agents = append(s.agents, a)
	s.byID[a.ID] = a
	return true
}

// Agents returns the citizen collection in spawn order. Callers must not
// append to or reorder the slice.
func (s *Store) Agents() []*agents.Agent {
	return s.agents
}

// Agent looks up a citizen by ID.
func (s *Store) Agent(id agents.AgentID) *agents.Agent {
	return s.byID[id]
}

// InState returns the citizens currently in state st, in spawn order.
func (s *Store) InState(st agents.State) []*agents.Agent {
	var out []*agents.Agent
	for _, a := range s.agents {
		if a.State == st {
			out = append(out, a)
		}
	}
	return out
}

// Counts takes a census of the population.
func (s *Store) Counts() StateCounts {
	var c StateCounts
	for _, a := range s.agents {
		switch a.State {
		case agents.StateHealthy:
			c.Healthy++
		case agents.StateInfected:
			c.Infected++
		case agents.StateRecovering:
			c.Recovering++
		case agents.StateImmune:
			c.Immune++
		case agents.StateDeceased:
			c.Deceased++
		}
	}
	c.Total = len(s.agents)
	return c
}

// AddBarrier registers a deployed barrier.
func (s *Store) AddBarrier(b *agents.Barrier) {
	s.barriers = append(s.barriers, b)
}

// Barriers returns the live barriers.
func (s *Store) Barriers() []*agents.Barrier {
	return s.barriers
}

// Barrier looks up a live barrier.
func (s *Store) Barrier(id agents.BarrierID) *agents.Barrier {
	for _, b := range s.barriers {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// RemoveBarrier drops a barrier from the live set and returns it, or nil
// when it is not present.
func (s *Store) RemoveBarrier(id agents.BarrierID) *agents.Barrier {
	for i, b := range s.barriers {
		if b.ID == id {
			s.barriers = append(s.barriers[:i], s.barriers[i+1:]...)
			return b
		}
	}
	return nil
}

// AddPulse registers a scan pulse.
func (s *Store) AddPulse(p *agents.Pulse) {
	s.pulses = append(s.pulses, p)
}

// Pulses returns the live pulses.
func (s *Store) Pulses() []*agents.Pulse {
	return s.pulses
}

// RemovePulse drops a pulse from the live set.
func (s *Store) RemovePulse(id uint64) *agents.Pulse {
	for i, p := range s.pulses {
		if p.ID == id {
			s.pulses = append(s.pulses[:i], s.pulses[i+1:]...)
			return p
		}
	}
	return nil
}

// AddPickup registers a collectible.
func (s *Store) AddPickup(p *agents.Pickup) {
	s.pickups = append(s.pickups, p)
}

// Pickups returns every pickup, collected or not.
func (s *Store) Pickups() []*agents.Pickup {
	return s.pickups
}
