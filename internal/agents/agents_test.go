package agents

import (
	"encoding/json"
	"testing"

	"github.com/talgya/contagion/internal/entropy"
	"github.com/talgya/contagion/internal/world"
)

func TestCanTransitionTable(t *testing.T) {
	legal := map[[2]State]bool{
		{StateHealthy, StateInfected}:    true,
		{StateInfected, StateRecovering}: true,
		{StateInfected, StateDeceased}:   true,
		{StateRecovering, StateImmune}:   true,
	}
	for _, from := range AllStates {
		for _, to := range AllStates {
			want := legal[[2]State{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range AllStates {
		want := s == StateImmune || s == StateDeceased
		if s.Terminal() != want {
			t.Errorf("%s.Terminal() = %v", s, s.Terminal())
		}
		if s.Terminal() {
			for _, to := range AllStates {
				if CanTransition(s, to) {
					t.Errorf("terminal %s allows transition to %s", s, to)
				}
			}
		}
	}
}

func TestStateJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(map[string]State{"s": StateRecovering})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"s":"recovering"}` {
		t.Fatalf("encoded %s", b)
	}
	var back map[string]State
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back["s"] != StateRecovering {
		t.Fatalf("decoded %v", back["s"])
	}
	var s State
	if err := s.UnmarshalText([]byte("zombie")); err == nil {
		t.Fatal("expected error for unknown state")
	}
}

func TestPlayerScoreNeverDecreases(t *testing.T) {
	p := NewPlayer(world.V(0, 0), 1, 1)
	p.AddScore(100)
	p.AddScore(-500)
	p.AddScore(0)
	if p.Score() != 100 {
		t.Fatalf("score = %d, want 100", p.Score())
	}
}

func TestTrapAndRelease(t *testing.T) {
	a := &Agent{ID: 1}
	a.Trap(7)
	if !a.TrappedBy(7) || a.TrappedBy(8) {
		t.Fatalf("trap reference wrong: %+v", a)
	}
	a.Release()
	if a.Trapped || a.TrapBarrierID != nil || a.TrappedBy(7) {
		t.Fatalf("release left state behind: %+v", a)
	}
}

func TestBarrierInsideSetIsCopied(t *testing.T) {
	ids := []AgentID{1, 2, 3}
	b := NewBarrier(1, world.V(0, 0), 4.2, 25, ids)
	ids[0] = 99
	if !b.Holds(1) || b.Holds(99) {
		t.Fatal("barrier inside set aliased caller slice")
	}
	out := b.Inside()
	out[0] = 42
	if b.InsideCount() != 3 || b.Holds(42) {
		t.Fatal("Inside() exposed internal set")
	}
}

func TestSpawnerDeterministicPopulation(t *testing.T) {
	arena := world.DefaultArena()
	a := NewSpawner(entropy.NewSeeded(5), arena, 1).SpawnPopulation(30)
	b := NewSpawner(entropy.NewSeeded(5), arena, 1).SpawnPopulation(30)
	seen := make(map[AgentID]bool)
	for i := range a {
		if a[i].Pos != b[i].Pos || a[i].Infectiousness != b[i].Infectiousness {
			t.Fatalf("agent %d differs between identical seeds", i)
		}
		if seen[a[i].ID] {
			t.Fatalf("duplicate id %d", a[i].ID)
		}
		seen[a[i].ID] = true
		if a[i].State != StateHealthy {
			t.Fatalf("spawned in state %s", a[i].State)
		}
		if a[i].Infectiousness < 0 || a[i].Infectiousness >= 1 {
			t.Fatalf("infectiousness %v out of range", a[i].Infectiousness)
		}
		if a[i].Pos.X < -arena.SpawnRange || a[i].Pos.X > arena.SpawnRange {
			t.Fatalf("spawned outside spawn range: %v", a[i].Pos)
		}
	}
}

func TestSpawnPickupsAlternate(t *testing.T) {
	s := NewSpawner(entropy.NewSeeded(3), world.DefaultArena(), 1)
	ps := s.SpawnPickups(4)
	if len(ps) != 4 {
		t.Fatalf("got %d pickups", len(ps))
	}
	for i, p := range ps {
		want := PickupVaccine
		if i%2 == 1 {
			want = PickupBarrier
		}
		if p.Kind != want {
			t.Errorf("pickup %d kind %s, want %s", i, p.Kind, want)
		}
	}
	if ps[0].ID == ps[1].ID {
		t.Fatal("pickup ids not unique")
	}
}
