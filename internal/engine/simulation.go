// Simulation ties together all outbreak systems and runs them each tick.
package engine

import (
	"log/slog"

	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/config"
	"github.com/talgya/contagion/internal/entropy"
	"github.com/talgya/contagion/internal/world"
)

const (
	MaxDt            = 0.1 // Largest tick delta; longer frames are truncated
	snapshotInterval = 0.5 // Seconds between aggregate snapshots
	rtScale          = 2.5
)

// Options configures a new simulation. Zero values pick defaults.
type Options struct {
	Seed      int64          // Used when Rand is nil; 0 draws a fresh seed
	Rand      entropy.Source // Overrides Seed
	Arena     *world.Arena
	Presenter Presenter
	Aim       AimResolver
	Catalog   []EventSpec
	NoWander  bool // Straight-line movement
}

// Simulation holds the complete match state and wires systems together.
type Simulation struct {
	Ctx *Context
	// Seed is the seed of the default source, or 0 when Options.Rand was supplied.
	Seed int64

	Machine   *StateMachine
	Movement  *Movement
	Spread    *SpreadModel
	Mortality *MortalityModel
	Barriers  *Barriers
	Pulses    *Pulses
	Pickups   *Pickups
	Actions   *PlayerActions
	Events    *EventDirector
	Seeder    *Seeder
	Game      *GameDirector

	snapshotSinks []SnapshotSink
	sinceSnapshot float64
}

// Snapshot is the periodic aggregate view of a match.
type Snapshot struct {
	Time            float64     `json:"time"`
	Tick            uint64      `json:"tick"`
	Counts          StateCounts `json:"counts"`
	Rt              float64     `json:"rt"`
	Casualties      int         `json:"casualties"`
	CasualtyCap     int         `json:"casualty_cap"`
	Score           int64       `json:"score"`
	Vaccines        int         `json:"vaccines"`
	Barriers        int         `json:"barriers"`
	ActiveBarriers  int         `json:"active_barriers"`
	ContainClock    float64     `json:"contain_clock"`
	ContainProgress float64     `json:"contain_progress"`
	ActiveEvent     string      `json:"active_event,omitempty"`
	Modifiers       Modifiers   `json:"modifiers"`
	Outcome         Outcome     `json:"outcome"`
	Paused          bool        `json:"paused"`
	Frozen          bool        `json:"frozen"`
}

// New creates a match for difficulty d: spawns the population, infects
// the initial cases, places the player and scatters pickups.
func New(d config.Difficulty, opts Options) *Simulation {
	d = d.Sanitize()
	var seed int64
	rng := opts.Rand
	if rng == nil {
		src := entropy.NewSeeded(opts.Seed)
		seed = src.Seed()
		rng = src
	}
	arena := world.DefaultArena()
	if opts.Arena != nil {
		arena = *opts.Arena
	}
	presenter := opts.Presenter
	if presenter == nil {
		presenter = NopPresenter{}
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}

	ctx := newContext(d, arena, rng, presenter, opts.Aim)
	if ctx.Aim == nil {
		ctx.Aim = NewRayAim(ctx.Store)
	}

	var field *world.WanderField
	if !opts.NoWander {
		field = world.NewWanderField(seed)
	}

	s := &Simulation{Ctx: ctx, Seed: seed}
	s.Machine = NewStateMachine(ctx)
	s.Movement = NewMovement(ctx, field)
	s.Spread = NewSpreadModel(ctx, s.Machine)
	s.Game = NewGameDirector(ctx)
	s.Mortality = NewMortalityModel(ctx, s.Machine, s.Game)
	s.Barriers = NewBarriers(ctx)
	s.Pulses = NewPulses(ctx)
	s.Pickups = NewPickups(ctx)
	s.Actions = NewPlayerActions(ctx, s.Machine, s.Barriers, s.Pulses)
	s.Events = NewEventDirector(ctx, s.Machine, catalog)
	s.Seeder = NewSeeder(ctx, s.Machine)

	s.spawn()
	slog.Info("match created",
		"difficulty", d.Key,
		"population", d.Population,
		"initial_infected", d.InitialInfected,
		"seed", seed,
	)
	return s
}

func (s *Simulation) spawn() {
	ctx := s.Ctx
	d := ctx.Difficulty
	for _, a := range ctx.Spawner.SpawnPopulation(d.Population) {
		ctx.Store.AddAgent(a)
		ctx.Presenter.SpawnVisual(AgentRef(a.ID))
	}
	for _, a := range ctx.Store.Agents()[:d.InitialInfected] {
		s.Machine.SetState(a, agents.StateInfected, CauseInitial)
	}
	ctx.Store.Player = agents.NewPlayer(world.V(0, 8), d.StartVaccines, d.StartBarriers)
	s.Pickups.Scatter(d.Pickups)
}

// AddEventSink subscribes sink to the event stream.
func (s *Simulation) AddEventSink(sink EventSink) {
	s.Ctx.events.sinks = append(s.Ctx.events.sinks, sink)
}

// AddSnapshotSink subscribes sink to periodic snapshots.
func (s *Simulation) AddSnapshotSink(sink SnapshotSink) {
	s.snapshotSinks = append(s.snapshotSinks, sink)
}

// RecentEvents returns up to limit of the most recent events, oldest first.
// limit <= 0 returns all retained events.
func (s *Simulation) RecentEvents(limit int) []Event {
	recent := s.Ctx.events.recent
	if limit > 0 && len(recent) > limit {
		recent = recent[len(recent)-limit:]
	}
	out := make([]Event, len(recent))
	copy(out, recent)
	return out
}

// SetPaused suspends or resumes the simulation.
func (s *Simulation) SetPaused(p bool) { s.Ctx.Paused = p }

// SetFrozen suspends or resumes the simulation for modal overlays.
func (s *Simulation) SetFrozen(f bool) { s.Ctx.Frozen = f }

// Suspended reports whether Step is currently a no-op.
func (s *Simulation) Suspended() bool {
	return s.Ctx.Paused || s.Ctx.Frozen || !s.Ctx.Playing()
}

// Step advances the match by dt seconds (capped at MaxDt) with one input
// sample. It reports whether any time was simulated. Systems run in a
// fixed order and each sees the changes of those before it; the tick
// stops early once the match is decided.
func (s *Simulation) Step(dt float64, in Input) bool {
	if s.Suspended() || !(dt > 0) {
		return false
	}
	if dt > MaxDt {
		dt = MaxDt
	}
	ctx := s.Ctx
	ctx.Elapsed += dt
	ctx.Tick++

	stages := [...]func(){
		func() {
			s.Machine.Advance(dt)
			s.Movement.Step(dt)
		},
		func() { s.Spread.Step(dt) },
		func() { s.Mortality.Step(dt) },
		func() {
			s.Actions.Apply(dt, in)
			s.Pickups.Step()
			s.Pulses.Step(dt)
		},
		func() { s.Barriers.Step(dt) },
		func() { s.Events.Step(dt) },
		func() { s.Seeder.Step(dt) },
		func() { s.Game.Step(dt) },
	}
	for _, stage := range stages {
		stage()
		if !ctx.Playing() {
			break
		}
	}

	s.sinceSnapshot += dt
	if s.sinceSnapshot >= snapshotInterval || !ctx.Playing() {
		s.sinceSnapshot = 0
		s.publishSnapshot()
	}
	return true
}

func (s *Simulation) publishSnapshot() {
	if len(s.snapshotSinks) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, sink := range s.snapshotSinks {
		sink.OnSnapshot(snap)
	}
}

// Rt is the reproduction-number proxy: infected over the population that
// is alive and not infected, scaled.
func Rt(c StateCounts) float64 {
	denom := max(1, c.Healthy+c.Recovering+c.Immune)
	return float64(c.Infected) / float64(denom) * rtScale
}

// Snapshot takes the current aggregate view.
func (s *Simulation) Snapshot() Snapshot {
	ctx := s.Ctx
	counts := ctx.Store.Counts()
	snap := Snapshot{
		Time:            ctx.Elapsed,
		Tick:            ctx.Tick,
		Counts:          counts,
		Rt:              Rt(counts),
		Casualties:      ctx.Casualties,
		CasualtyCap:     ctx.Difficulty.CasualtyCap,
		ActiveBarriers:  len(ctx.Store.Barriers()),
		ContainClock:    s.Game.Clock(),
		ContainProgress: s.Game.Progress(),
		Modifiers:       ctx.Modifiers,
		Outcome:         ctx.Outcome,
		Paused:          ctx.Paused,
		Frozen:          ctx.Frozen,
	}
	if p := ctx.Store.Player; p != nil {
		snap.Score = p.Score()
		snap.Vaccines = p.Vaccines
		snap.Barriers = p.Barriers
	}
	if a, ok := s.Events.Active(); ok {
		snap.ActiveEvent = a.Spec.ID
	}
	return snap
}
