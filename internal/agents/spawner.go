// Agent spawning: the initial population, the player, and scattered pickups.
package agents

import (
	"github.com/talgya/contagion/internal/entropy"
	"github.com/talgya/contagion/internal/world"
)

// Spawner issues IDs and creates entities with randomized attributes.
type Spawner struct {
	rng          entropy.Source
	arena        world.Arena
	scale        float64 // Infectiousness scale from difficulty
	nextID       AgentID
	nextBarrier  BarrierID
	nextEntityID uint64
}

// NewSpawner creates a spawner drawing from rng.
func NewSpawner(rng entropy.Source, arena world.Arena, infectiousnessScale float64) *Spawner {
	if infectiousnessScale <= 0 {
		infectiousnessScale = 1
	}
	return &Spawner{
		rng:          rng,
		arena:        arena,
		scale:        infectiousnessScale,
		nextID:       1,
		nextBarrier:  1,
		nextEntityID: 1,
	}
}

// SpawnPopulation creates count healthy citizens scattered across the spawn area.
func (s *Spawner) SpawnPopulation(count int) []*Agent {
	agents := make([]*Agent, 0, count)
	for i := 0; i < count; i++ {
		agents = append(agents, s.spawnOne())
	}
	return agents
}

func (s *Spawner) spawnOne() *Agent {
	id := s.nextID
	s.nextID++

	pos := s.randomPoint(s.arena.SpawnRange)
	return &Agent{
		ID:    id,
		Pos:   pos,
		State: StateHealthy,
		// Infectiousness: 0.42–0.95 scaled by difficulty, never a certainty.
		Infectiousness:   world.Clamp(entropy.Range(s.rng, 0.42, 0.95)*s.scale, 0, 0.999),
		BaseSpeed:        entropy.Range(s.rng, 2.3, 3.1),
		SpeedMultiplier:  1,
		SpreadMultiplier: 1,
		Target:           pos,
	}
}

// SpawnPickups scatters count pickups, alternating vaccine and barrier.
func (s *Spawner) SpawnPickups(count int) []*Pickup {
	pickups := make([]*Pickup, 0, count)
	for i := 0; i < count; i++ {
		kind := PickupVaccine
		if i%2 == 1 {
			kind = PickupBarrier
		}
		pickups = append(pickups, &Pickup{
			ID:   s.NextEntityID(),
			Kind: kind,
			Pos:  s.randomPoint(s.arena.SpawnRange * 0.8),
		})
	}
	return pickups
}

// NextBarrierID issues a barrier ID.
func (s *Spawner) NextBarrierID() BarrierID {
	id := s.nextBarrier
	s.nextBarrier++
	return id
}

// NextEntityID issues an ID for transient entities (pulses, pickups).
func (s *Spawner) NextEntityID() uint64 {
	id := s.nextEntityID
	s.nextEntityID++
	return id
}

func (s *Spawner) randomPoint(r float64) world.Vec2 {
	return world.V(entropy.Range(s.rng, -r, r), entropy.Range(s.rng, -r, r))
}
