package engine

import (
	"testing"

	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/config"
	"github.com/talgya/contagion/internal/entropy"
	"github.com/talgya/contagion/internal/world"
)

// testDifficulty is the normal preset shrunk to a small, quiet match:
// ten healthy citizens, no pickups, full spread pressure from t=0.
func testDifficulty(t *testing.T) config.Difficulty {
	t.Helper()
	d, err := config.Preset("normal")
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	d.Population = 10
	d.InitialInfected = 0
	d.Pickups = 0
	d.SpreadRampStart = 1
	return d
}

func newTestSim(t *testing.T, d config.Difficulty, seed int64) *Simulation {
	t.Helper()
	return New(d, Options{Rand: entropy.NewSeeded(seed), NoWander: true})
}

// scatterFar parks every citizen on a widely spaced row away from the
// origin so tests can place the few they care about.
func scatterFar(s *Simulation) {
	for i, a := range s.Ctx.Store.Agents() {
		a.Pos = world.V(-50+float64(i)*5, 50)
		a.Target = a.Pos
	}
}

func infect(t *testing.T, s *Simulation, a *agents.Agent) {
	t.Helper()
	if !s.Machine.SetState(a, agents.StateInfected, CauseInitial) {
		t.Fatalf("could not infect citizen %d in state %s", a.ID, a.State)
	}
}

// collect subscribes to the event stream and returns the captured slice.
func collect(s *Simulation) *[]Event {
	var got []Event
	s.AddEventSink(EventSinkFunc(func(e Event) { got = append(got, e) }))
	return &got
}

func countKind(events []Event, k Kind) int {
	n := 0
	for _, e := range events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

type recordingPresenter struct {
	resync, spawned, removed map[EntityRef]int
}

func newRecordingPresenter() *recordingPresenter {
	return &recordingPresenter{
		resync:  make(map[EntityRef]int),
		spawned: make(map[EntityRef]int),
		removed: make(map[EntityRef]int),
	}
}

func (p *recordingPresenter) ResyncVisual(r EntityRef) { p.resync[r]++ }
func (p *recordingPresenter) SpawnVisual(r EntityRef)  { p.spawned[r]++ }
func (p *recordingPresenter) RemoveVisual(r EntityRef) { p.removed[r]++ }
