package engine

import (
	"fmt"

	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/config"
	"github.com/talgya/contagion/internal/entropy"
	"github.com/talgya/contagion/internal/world"
)

// Outcome is the match result.
type Outcome uint8

const (
	OutcomePlaying Outcome = iota
	OutcomeVictory
	OutcomeDefeat
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVictory:
		return "victory"
	case OutcomeDefeat:
		return "defeat"
	}
	return "playing"
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name.
func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "playing":
		*o = OutcomePlaying
	case "victory":
		*o = OutcomeVictory
	case "defeat":
		*o = OutcomeDefeat
	default:
		return fmt.Errorf("unknown outcome %q", b)
	}
	return nil
}

// Modifiers are the global multiplicative factors applied by timed
// events. 1.0 = no effect.
type Modifiers struct {
	Spread       float64 `json:"spread"`
	Speed        float64 `json:"speed"`
	ScanCooldown float64 `json:"scan_cooldown"`
}

// NeutralModifiers returns modifiers with no effect.
func NeutralModifiers() Modifiers {
	return Modifiers{Spread: 1, Speed: 1, ScanCooldown: 1}
}

// Context is the shared per-match state passed to every system.
//
// Each mutable field has exactly one writer:
//
//	Elapsed     Simulation.Step
//	Tick        Simulation.Step
//	Casualties  MortalityModel
//	Modifiers   EventDirector
//	Outcome     GameDirector
//	Paused      Simulation.SetPaused
//	Frozen      Simulation.SetFrozen
//
// Agent states are written only by the StateMachine. The score only grows,
// through Player.AddScore.
type Context struct {
	Difficulty config.Difficulty
	Arena      world.Arena
	Rand       entropy.Source
	Store      *Store
	Spawner    *agents.Spawner
	Presenter  Presenter
	Aim        AimResolver

	Elapsed    float64
	Tick       uint64
	Casualties int
	Modifiers  Modifiers
	Outcome    Outcome
	Paused     bool
	Frozen     bool

	events *stream
}

// newContext wires a context around an empty store.
func newContext(d config.Difficulty, arena world.Arena, rng entropy.Source, p Presenter, aim AimResolver) *Context {
	return &Context{
		Difficulty: d,
		Arena:      arena,
		Rand:       rng,
		Store:      NewStore(),
		Spawner:    agents.NewSpawner(rng, arena, d.InfectiousnessScale),
		Presenter:  p,
		Aim:        aim,
		Modifiers:  NeutralModifiers(),
		events:     newStream(),
	}
}

// Emit appends an event to the stream.
func (c *Context) Emit(kind Kind, sev Severity, msg string, meta map[string]any) {
	c.events.emit(Event{
		Time:     c.Elapsed,
		Tick:     c.Tick,
		Kind:     kind,
		Message:  msg,
		Severity: sev,
		Meta:     meta,
	})
}

// Notice reports an action that could not be performed. Repeats of the
// same key within a second are dropped so a held key does not flood the log.
func (c *Context) Notice(key, format string, args ...any) {
	if c.events.throttled(key, c.Elapsed) {
		return
	}
	c.Emit(KindNotice, SeverityInfo, fmt.Sprintf(format, args...), map[string]any{"reason": key})
}

// Playing reports whether the match is still undecided.
func (c *Context) Playing() bool {
	return c.Outcome == OutcomePlaying
}
