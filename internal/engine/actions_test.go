package engine

import (
	"math"
	"testing"

	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/world"
)

// actionFixture puts the player at the origin facing +X with every
// citizen parked far away.
func actionFixture(t *testing.T) (*Simulation, *agents.Player) {
	t.Helper()
	s := newTestSim(t, testDifficulty(t), 40)
	scatterFar(s)
	p := s.Ctx.Store.Player
	p.Pos = world.V(0, 0)
	p.Facing = world.V(1, 0)
	return s, p
}

func TestHealInfectedTarget(t *testing.T) {
	s, p := actionFixture(t)
	a := s.Ctx.Store.Agents()[0]
	a.Pos = world.V(3, 0)
	infect(t, s, a)
	a.InfectedElapsed = 6
	vaccines := p.Vaccines

	s.Actions.Apply(0.016, Input{Heal: true})
	if a.State != agents.StateRecovering {
		t.Fatalf("target state %s, want recovering", a.State)
	}
	if a.NextTransitionAt < 7 || a.NextTransitionAt >= 13 {
		t.Fatalf("heal dwell %v outside [7, 13)", a.NextTransitionAt)
	}
	if a.InfectedElapsed != 0 {
		t.Fatalf("infected dwell not reset: %v", a.InfectedElapsed)
	}
	if p.Vaccines != vaccines-1 || p.Score() != healPoints || p.Cooldowns.Heal != healCooldown {
		t.Fatalf("player after heal: vaccines %d score %d cooldown %v", p.Vaccines, p.Score(), p.Cooldowns.Heal)
	}

	// Cooldown gates the next heal without consuming anything.
	b := s.Ctx.Store.Agents()[1]
	b.Pos = world.V(3, 0.2)
	infect(t, s, b)
	if s.Actions.Heal() {
		t.Fatal("heal succeeded during cooldown")
	}
	if p.Vaccines != vaccines-1 || b.State != agents.StateInfected {
		t.Fatal("heal during cooldown had an effect")
	}
}

func TestHealNoOpCases(t *testing.T) {
	s, p := actionFixture(t)
	events := collect(s)
	healthy := s.Ctx.Store.Agents()[0]
	healthy.Pos = world.V(2, 0)
	sick := s.Ctx.Store.Agents()[1]
	sick.Pos = world.V(4, 0)
	infect(t, s, sick)

	if s.Actions.Heal() {
		t.Fatal("heal went through a healthy citizen to an infected one behind it")
	}
	p.Facing = world.V(-1, 0)
	if s.Actions.Heal() {
		t.Fatal("heal with nobody in sight succeeded")
	}
	p.Facing = world.V(1, 0)
	p.Vaccines = 0
	if s.Actions.Heal() {
		t.Fatal("heal with no vaccines succeeded")
	}
	if p.Vaccines != 0 || sick.State != agents.StateInfected || p.Score() != 0 {
		t.Fatal("failed heals changed state")
	}
	if countKind(*events, KindNotice) != 3 {
		t.Fatalf("notices = %d, want 3", countKind(*events, KindNotice))
	}
}

func TestBarrierLandsAheadOfPlayer(t *testing.T) {
	s, p := actionFixture(t)
	s.Actions.Apply(0.016, Input{Aim: world.V(0, 2), Barrier: true})
	bs := s.Ctx.Store.Barriers()
	if len(bs) != 1 {
		t.Fatalf("barriers = %d, want 1", len(bs))
	}
	if d := bs[0].Pos.Dist(world.V(0, barrierAhead)); d > 1e-9 {
		t.Fatalf("barrier at %v, want %v ahead", bs[0].Pos, barrierAhead)
	}
	if p.Cooldowns.Barrier != barrierCooldown || p.Score() != barrierPoints {
		t.Fatalf("cooldown %v score %d", p.Cooldowns.Barrier, p.Score())
	}
	if s.Actions.DeployBarrier() {
		t.Fatal("barrier deployed during cooldown")
	}
}

func TestScanCooldownScaledByEvents(t *testing.T) {
	s, p := actionFixture(t)
	s.Ctx.Modifiers.ScanCooldown = 1.6
	if !s.Actions.Scan() {
		t.Fatal("scan rejected")
	}
	if math.Abs(p.Cooldowns.Scan-scanCooldown*1.6) > 1e-12 {
		t.Fatalf("scan cooldown %v, want %v", p.Cooldowns.Scan, scanCooldown*1.6)
	}
	if s.Actions.Scan() {
		t.Fatal("scan during cooldown")
	}
	s.Actions.Apply(p.Cooldowns.Scan, Input{})
	if p.Cooldowns.Scan != 0 {
		t.Fatalf("cooldown did not run out: %v", p.Cooldowns.Scan)
	}
}

func TestPulseTagsInfectedOnce(t *testing.T) {
	s, p := actionFixture(t)
	sick := s.Ctx.Store.Agents()[0]
	sick.Pos = world.V(10, 0)
	infect(t, s, sick)
	events := collect(s)

	s.Actions.Scan()
	s.Pulses.Step(1)
	if sick.TagTimer != 0 {
		t.Fatal("tagged before the pulse expired")
	}
	s.Pulses.Step(1)
	if sick.TagTimer != tagDuration {
		t.Fatalf("tag timer %v, want %v", sick.TagTimer, tagDuration)
	}
	if len(s.Ctx.Store.Pulses()) != 0 {
		t.Fatal("expired pulse still live")
	}
	if p.Score() != scanPoints+detectionPoints {
		t.Fatalf("score %d, want %d", p.Score(), scanPoints+detectionPoints)
	}
	if countKind(*events, KindScan) != 1 {
		t.Fatal("expected one scan event")
	}

	s.Machine.SetState(sick, agents.StateRecovering, CauseNatural)
	if sick.TagTimer != 0 {
		t.Fatal("tag survived recovery")
	}
}

func TestPickupCollectedOnce(t *testing.T) {
	s, p := actionFixture(t)
	s.Pickups.Scatter(2)
	pk := s.Ctx.Store.Pickups()[0]
	pk.Pos = world.V(1, 0)
	s.Ctx.Store.Pickups()[1].Pos = world.V(40, 40)
	vaccines := p.Vaccines

	s.Pickups.Step()
	s.Pickups.Step()
	if !pk.Collected || p.Vaccines != vaccines+1 || p.Score() != pickupPoints {
		t.Fatalf("collected %v vaccines %d score %d", pk.Collected, p.Vaccines, p.Score())
	}
}

func TestPlayerMovementClampedToArena(t *testing.T) {
	s, p := actionFixture(t)
	for i := 0; i < 200; i++ {
		s.Actions.Apply(0.1, Input{Move: world.V(1, 0), Sprint: true})
	}
	if p.Pos.X != s.Ctx.Arena.HalfExtent {
		t.Fatalf("player x = %v, want clamped to %v", p.Pos.X, s.Ctx.Arena.HalfExtent)
	}
	if p.Facing != world.V(1, 0) {
		t.Fatalf("facing %v", p.Facing)
	}
}
