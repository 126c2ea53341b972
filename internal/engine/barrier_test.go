package engine

import (
	"testing"

	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/world"
)

func TestBarrierCapturesOnlyAtDeployment(t *testing.T) {
	s := newTestSim(t, testDifficulty(t), 30)
	scatterFar(s)
	all := s.Ctx.Store.Agents()
	inside, rim, late, dead := all[0], all[1], all[2], all[3]
	inside.Pos = world.V(10, 0)
	rim.Pos = world.V(10, BarrierRadius)
	late.Pos = world.V(10, -8)
	dead.Pos = world.V(9, 0)
	infect(t, s, dead)
	s.Machine.SetState(dead, agents.StateDeceased, CauseMortality)

	before := s.Ctx.Store.Player.Barriers
	b, ok := s.Barriers.Deploy(world.V(10, 0))
	if !ok {
		t.Fatal("deploy rejected")
	}
	if s.Ctx.Store.Player.Barriers != before-1 {
		t.Fatalf("barrier inventory %d, want %d", s.Ctx.Store.Player.Barriers, before-1)
	}
	if !inside.TrappedBy(b.ID) {
		t.Fatal("citizen inside radius not trapped")
	}
	if rim.Trapped {
		t.Fatal("citizen at exactly the radius was trapped")
	}
	if dead.Trapped {
		t.Fatal("deceased citizen was trapped")
	}
	if b.InsideCount() != 1 {
		t.Fatalf("inside set size %d, want 1", b.InsideCount())
	}

	// Walking in later never traps.
	late.Pos = world.V(10, -1)
	s.Barriers.Step(1)
	if late.Trapped || b.Holds(late.ID) || b.InsideCount() != 1 {
		t.Fatal("late arrival joined the barrier")
	}
}

func TestBarrierExpiryReleases(t *testing.T) {
	s := newTestSim(t, testDifficulty(t), 31)
	scatterFar(s)
	a := s.Ctx.Store.Agents()[0]
	a.Pos = world.V(0, 0)
	events := collect(s)

	b, ok := s.Barriers.Deploy(world.V(0, 0))
	if !ok || !a.Trapped {
		t.Fatal("setup: citizen not trapped")
	}
	s.Barriers.Step(BarrierLife - 1)
	if s.Ctx.Store.Barrier(b.ID) == nil || !a.Trapped {
		t.Fatal("barrier removed before its life ran out")
	}
	s.Barriers.Step(1)
	if s.Ctx.Store.Barrier(b.ID) != nil {
		t.Fatal("expired barrier still live")
	}
	if a.Trapped || a.TrapBarrierID != nil {
		t.Fatalf("citizen still trapped after expiry: %+v", a)
	}
	if countKind(*events, KindBarrierRemoved) != 1 {
		t.Fatal("expected one barrier_removed event")
	}
	if s.Barriers.Remove(b.ID, "removed") {
		t.Fatal("removing twice succeeded")
	}
}

func TestBarrierDeployRejections(t *testing.T) {
	s := newTestSim(t, testDifficulty(t), 32)
	scatterFar(s)
	p := s.Ctx.Store.Player
	p.Barriers = 3

	if _, ok := s.Barriers.Deploy(world.V(0, 0)); !ok {
		t.Fatal("first deploy rejected")
	}
	if _, ok := s.Barriers.Deploy(world.V(BarrierMinSeparation-0.1, 0)); ok {
		t.Fatal("deploy inside minimum separation accepted")
	}
	if p.Barriers != 2 {
		t.Fatalf("rejected deploy consumed inventory: %d", p.Barriers)
	}
	if _, ok := s.Barriers.Deploy(world.V(BarrierMinSeparation, 0)); !ok {
		t.Fatal("deploy at minimum separation rejected")
	}

	p.Barriers = 0
	if _, ok := s.Barriers.Deploy(world.V(-20, -20)); ok {
		t.Fatal("deploy with empty inventory accepted")
	}
	if len(s.Ctx.Store.Barriers()) != 2 {
		t.Fatalf("live barriers = %d, want 2", len(s.Ctx.Store.Barriers()))
	}
}

func TestTrappedCitizensStayInside(t *testing.T) {
	s := newTestSim(t, testDifficulty(t), 33)
	scatterFar(s)
	a := s.Ctx.Store.Agents()[0]
	a.Pos = world.V(0, 0)
	a.Target = world.V(30, 0)
	b, _ := s.Barriers.Deploy(world.V(0, 0))

	for i := 0; i < 50; i++ {
		s.Movement.Step(0.1)
		if d := a.Pos.Dist(b.Pos); d > b.Radius {
			t.Fatalf("trapped citizen escaped to distance %v", d)
		}
	}
}
