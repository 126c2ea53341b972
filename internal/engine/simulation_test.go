package engine

import (
	"testing"

	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/config"
)

func TestNewSpawnsMatch(t *testing.T) {
	d := testDifficulty(t)
	d.InitialInfected = 3
	d.Pickups = 4
	s := newTestSim(t, d, 80)

	c := s.Ctx.Store.Counts()
	if c.Total != d.Population || c.Infected != 3 || c.Healthy != d.Population-3 {
		t.Fatalf("counts %+v", c)
	}
	p := s.Ctx.Store.Player
	if p.Vaccines != d.StartVaccines || p.Barriers != d.StartBarriers || p.Score() != 0 {
		t.Fatalf("player %+v", p)
	}
	if len(s.Ctx.Store.Pickups()) != 4 {
		t.Fatalf("pickups %d", len(s.Ctx.Store.Pickups()))
	}
	if !s.Ctx.Playing() {
		t.Fatal("new match already decided")
	}
}

func TestSuspendedStepIsNoOp(t *testing.T) {
	d := testDifficulty(t)
	d.InitialInfected = 2
	s := newTestSim(t, d, 81)
	timers := make([]float64, 0, d.Population)
	for _, a := range s.Ctx.Store.Agents() {
		timers = append(timers, a.StateTimer)
	}

	for _, suspend := range []func(bool){s.SetPaused, s.SetFrozen} {
		suspend(true)
		for i := 0; i < 10; i++ {
			if s.Step(0.1, Input{Heal: true, Scan: true}) {
				t.Fatal("suspended step reported progress")
			}
		}
		suspend(false)
	}
	if s.Ctx.Elapsed != 0 || s.Ctx.Tick != 0 {
		t.Fatalf("time accrued while suspended: %v / %d", s.Ctx.Elapsed, s.Ctx.Tick)
	}
	for i, a := range s.Ctx.Store.Agents() {
		if a.StateTimer != timers[i] {
			t.Fatal("agent timer advanced while suspended")
		}
	}
	if s.Ctx.Store.Player.Cooldowns.Scan != 0 {
		t.Fatal("actions ran while suspended")
	}
}

func TestStepCapsDelta(t *testing.T) {
	s := newTestSim(t, testDifficulty(t), 82)
	if !s.Step(5, Input{}) {
		t.Fatal("step rejected")
	}
	if s.Ctx.Elapsed != MaxDt {
		t.Fatalf("elapsed %v, want capped %v", s.Ctx.Elapsed, MaxDt)
	}
	if s.Step(0, Input{}) || s.Step(-1, Input{}) {
		t.Fatal("non-positive dt advanced the match")
	}
}

func TestDeterministicForSeed(t *testing.T) {
	d, _ := config.Preset("normal")
	run := func() Snapshot {
		s := New(d, Options{Seed: 99})
		for i := 0; i < 600; i++ {
			s.Step(0.1, Input{})
		}
		return s.Snapshot()
	}
	a, b := run(), run()
	if a != b {
		t.Fatalf("same seed diverged:\n%+v\n%+v", a, b)
	}
}

func TestSinksReceiveEventsAndSnapshots(t *testing.T) {
	d := testDifficulty(t)
	d.InitialInfected = 1
	s := newTestSim(t, d, 83)
	events := collect(s)
	var snaps []Snapshot
	s.AddSnapshotSink(SnapshotSinkFunc(func(sn Snapshot) { snaps = append(snaps, sn) }))

	s.Events.ForceEvent("supply_drop")
	for i := 0; i < 20; i++ {
		s.Step(0.1, Input{})
	}
	if len(snaps) < 3 {
		t.Fatalf("snapshots %d, want several over 2s", len(snaps))
	}
	last := snaps[len(snaps)-1]
	if last.Counts.Total != d.Population || last.CasualtyCap != d.CasualtyCap {
		t.Fatalf("snapshot %+v", last)
	}
	if countKind(*events, KindEventStart) != 1 {
		t.Fatal("event sink missed the forced event")
	}
	lastEvent := (*events)[len(*events)-1]
	if got := s.RecentEvents(1); len(got) != 1 || got[0].Kind != lastEvent.Kind || got[0].Message != lastEvent.Message {
		t.Fatalf("RecentEvents(1) = %+v, want %+v", got, lastEvent)
	}
}

func TestRtProxy(t *testing.T) {
	if got := Rt(StateCounts{Infected: 4, Healthy: 6, Recovering: 2, Immune: 2}); got != 1 {
		t.Fatalf("Rt = %v, want 1", got)
	}
	if got := Rt(StateCounts{Infected: 2}); got != 5 {
		t.Fatalf("Rt with empty denominator = %v, want 5", got)
	}
}

// Unattended match: the population and casualty bounds hold every tick
// and the outcome is consistent with the final state.
func TestEndToEndUnattended(t *testing.T) {
	d, _ := config.Preset("normal")
	d.Population = 20
	d.InitialInfected = 2
	d.CasualtyCap = 12
	d.SpreadMultiplier = 1

	for seed := int64(1); seed <= 8; seed++ {
		s := New(d, Options{Seed: seed})
		events := collect(s)
		var score int64
		for i := 0; i < 3000; i++ {
			s.Step(0.1, Input{})
			c := s.Ctx.Store.Counts()
			if c.Infected > d.Population || c.Total != d.Population {
				t.Fatalf("seed %d: counts %+v", seed, c)
			}
			if s.Ctx.Casualties > d.CasualtyCap {
				t.Fatalf("seed %d: casualties %d past cap", seed, s.Ctx.Casualties)
			}
			if s.Ctx.Casualties != c.Deceased {
				t.Fatalf("seed %d: casualty counter %d, deceased %d", seed, s.Ctx.Casualties, c.Deceased)
			}
			if s.Ctx.Casualties >= d.CasualtyCap && s.Ctx.Outcome != OutcomeDefeat {
				t.Fatalf("seed %d: cap reached without defeat", seed)
			}
			if sc := s.Ctx.Store.Player.Score(); sc < score {
				t.Fatalf("seed %d: score decreased %d -> %d", seed, score, sc)
			} else {
				score = sc
			}
		}

		wins, losses := countKind(*events, KindVictory), countKind(*events, KindDefeat)
		switch s.Ctx.Outcome {
		case OutcomeVictory:
			if wins != 1 || losses != 0 || s.Game.Clock() < d.ContainTarget {
				t.Fatalf("seed %d: inconsistent victory (%d/%d, clock %v)", seed, wins, losses, s.Game.Clock())
			}
		case OutcomeDefeat:
			if wins != 0 || losses != 1 || s.Ctx.Casualties < d.CasualtyCap {
				t.Fatalf("seed %d: inconsistent defeat (%d/%d, casualties %d)", seed, wins, losses, s.Ctx.Casualties)
			}
		default:
			if wins+losses != 0 || s.Game.Clock() >= d.ContainTarget || s.Ctx.Casualties >= d.CasualtyCap {
				t.Fatalf("seed %d: undecided match met a terminal condition", seed)
			}
		}

		// A decided match no longer ticks.
		if !s.Ctx.Playing() && s.Step(0.1, Input{}) {
			t.Fatalf("seed %d: step after outcome", seed)
		}
	}
}

func TestInitialInfectedAreFirstSpawned(t *testing.T) {
	d := testDifficulty(t)
	d.InitialInfected = 2
	s := newTestSim(t, d, 84)
	for i, a := range s.Ctx.Store.Agents() {
		want := agents.StateHealthy
		if i < 2 {
			want = agents.StateInfected
		}
		if a.State != want {
			t.Fatalf("agent %d state %s, want %s", i, a.State, want)
		}
	}
}
