package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/entropy"
)

// Scheduler gap between event attempts, seconds.
const (
	eventGapMin = 30.0
	eventGapMax = 60.0

	supplyDropPoints = 50
)

// EffectKind is what an event does when it fires.
type EffectKind uint8

const (
	EffectSpread       EffectKind = iota // Scale transmission
	EffectSpeed                          // Scale citizen movement
	EffectScanCooldown                   // Scale the scan cooldown
	EffectSupplyDrop                     // Grant vaccines and barriers
	EffectHotspot                        // Infect a handful of healthy citizens
)

// EventSpec is one catalog entry.
type EventSpec struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Duration    float64    `json:"duration"` // Seconds; 0 = instant
	Cooldown    float64    `json:"cooldown"` // Minimum seconds between triggers
	Weight      float64    `json:"weight"`   // Relative selection weight
	Effect      EffectKind `json:"effect"`
	Factor      float64    `json:"factor,omitempty"` // Modifier factor for timed effects
}

// Timed reports whether the event holds the active slot.
func (e EventSpec) Timed() bool {
	return e.Duration > 0
}

// DefaultCatalog returns the standard event catalog.
func DefaultCatalog() []EventSpec {
	return []EventSpec{
		{ID: "mutation_spike", Name: "Mutation Spike", Description: "Virus mutation increases transmission",
			Duration: 15, Cooldown: 60, Weight: 0.30, Effect: EffectSpread, Factor: 1.5},
		{ID: "curfew", Name: "Emergency Curfew", Description: "Citizens move slower, easier to contain",
			Duration: 20, Cooldown: 90, Weight: 0.25, Effect: EffectSpeed, Factor: 0.3},
		{ID: "supply_drop", Name: "Medical Supply Drop", Description: "Emergency supplies delivered",
			Cooldown: 80, Weight: 0.40, Effect: EffectSupplyDrop},
		{ID: "hotspot", Name: "Infection Hotspot", Description: "A new cluster of infections appears",
			Cooldown: 70, Weight: 0.35, Effect: EffectHotspot},
		{ID: "comms_blackout", Name: "Comms Blackout", Description: "Scanner relays are down, scans recharge slowly",
			Duration: 15, Cooldown: 75, Weight: 0.20, Effect: EffectScanCooldown, Factor: 1.6},
		{ID: "drone_support", Name: "Drone Support", Description: "Drones relay scans, scans recharge faster",
			Duration: 20, Cooldown: 100, Weight: 0.15, Effect: EffectScanCooldown, Factor: 0.5},
	}
}

// ActiveEvent is the event currently holding the slot.
type ActiveEvent struct {
	Spec      EventSpec `json:"spec"`
	Remaining float64   `json:"remaining"`
	StartedAt float64   `json:"started_at"`

	baseline float64 // Modifier value before the event applied
	cleaned  bool
}

// EventDirector schedules random events. At most one timed event is
// active at a time.
type EventDirector struct {
	ctx     *Context
	machine *StateMachine
	catalog []EventSpec

	timer         float64
	next          float64
	lastTriggered map[string]float64
	active        *ActiveEvent
}

// NewEventDirector creates a director over catalog and schedules the
// first attempt.
func NewEventDirector(ctx *Context, machine *StateMachine, catalog []EventSpec) *EventDirector {
	d := &EventDirector{
		ctx:           ctx,
		machine:       machine,
		catalog:       catalog,
		lastTriggered: make(map[string]float64),
	}
	d.schedule()
	return d
}

func (d *EventDirector) schedule() {
	d.next = d.timer + entropy.Range(d.ctx.Rand, eventGapMin, eventGapMax)
}

// Catalog returns the event catalog.
func (d *EventDirector) Catalog() []EventSpec {
	return d.catalog
}

// Active returns a copy of the active event, if any.
func (d *EventDirector) Active() (ActiveEvent, bool) {
	if d.active == nil {
		return ActiveEvent{}, false
	}
	return *d.active, true
}

// NextAttemptIn returns the seconds until the next scheduled attempt.
func (d *EventDirector) NextAttemptIn() float64 {
	return math.Max(0, d.next-d.timer)
}

// Step advances the scheduler and the active event.
func (d *EventDirector) Step(dt float64) {
	d.timer += dt
	if d.active != nil {
		d.active.Remaining -= dt
		if d.active.Remaining <= 0 {
			d.end()
		}
	}
	if d.active == nil && d.timer >= d.next {
		d.TriggerRandom()
		d.schedule()
	}
}

// Available returns the catalog entries not on cooldown. An entry that
// has never fired is always available.
func (d *EventDirector) Available() []EventSpec {
	var out []EventSpec
	for _, e := range d.catalog {
		last, fired := d.lastTriggered[e.ID]
		if !fired || d.timer-last >= e.Cooldown {
			out = append(out, e)
		}
	}
	return out
}

// TriggerRandom fires a weighted random available event. It does nothing
// while a timed event is active.
func (d *EventDirector) TriggerRandom() bool {
	if d.active != nil {
		return false
	}
	candidates := d.Available()
	if len(candidates) == 0 {
		slog.Debug("no events off cooldown", "timer", d.timer)
		return false
	}
	d.fire(pickWeighted(candidates, d.ctx.Rand.Float64()))
	return true
}

// pickWeighted selects by cumulative scan of the unnormalized weights
// against u×sum, u in [0, 1). Falls back to the first candidate.
func pickWeighted(candidates []EventSpec, u float64) EventSpec {
	total := 0.0
	for _, e := range candidates {
		total += math.Max(0, e.Weight)
	}
	r := u * total
	cum := 0.0
	for _, e := range candidates {
		cum += math.Max(0, e.Weight)
		if r <= cum && e.Weight > 0 {
			return e
		}
	}
	return candidates[0]
}

// ForceEvent fires the named event immediately, ignoring its cooldown.
// It fails when the id is unknown or a timed event holds the slot.
func (d *EventDirector) ForceEvent(id string) bool {
	if d.active != nil {
		d.ctx.Notice("event_busy", "Event %q already active", d.active.Spec.ID)
		return false
	}
	for _, e := range d.catalog {
		if e.ID == id {
			d.fire(e)
			return true
		}
	}
	slog.Warn("unknown event", "id", id)
	return false
}

// EndActive force-closes the active event. Cleanup still runs once.
func (d *EventDirector) EndActive() bool {
	if d.active == nil {
		return false
	}
	d.end()
	return true
}

func (d *EventDirector) fire(e EventSpec) {
	d.lastTriggered[e.ID] = d.timer
	meta := map[string]any{"event": e.ID, "duration": e.Duration}
	d.ctx.Emit(KindEventStart, SeverityWarn, fmt.Sprintf("%s: %s", e.Name, e.Description), meta)

	switch e.Effect {
	case EffectSupplyDrop:
		d.supplyDrop()
		return
	case EffectHotspot:
		d.hotspot()
		return
	}

	m := d.modifier(e.Effect)
	if m == nil || !e.Timed() {
		return
	}
	d.active = &ActiveEvent{Spec: e, Remaining: e.Duration, StartedAt: d.ctx.Elapsed, baseline: *m}
	*m *= e.Factor
}

// end runs cleanup for the active event exactly once and frees the slot.
func (d *EventDirector) end() {
	a := d.active
	d.active = nil
	if a == nil || a.cleaned {
		return
	}
	a.cleaned = true
	if m := d.modifier(a.Spec.Effect); m != nil {
		*m = invert(*m, a.Spec.Factor, a.baseline)
	}
	d.ctx.Emit(KindEventEnd, SeverityGood, fmt.Sprintf("%s ended", a.Spec.Name), map[string]any{"event": a.Spec.ID})
}

// invert undoes a multiplicative factor, never overshooting the value it
// started from. Results within rounding of the baseline snap to it.
func invert(v, factor, baseline float64) float64 {
	if factor == 0 {
		return baseline
	}
	out := v / factor
	switch {
	case factor > 1:
		out = math.Max(out, baseline)
	case factor < 1:
		out = math.Min(out, baseline)
	}
	if math.Abs(out-baseline) <= 1e-9*math.Max(1, math.Abs(baseline)) {
		out = baseline
	}
	return out
}

func (d *EventDirector) modifier(k EffectKind) *float64 {
	switch k {
	case EffectSpread:
		return &d.ctx.Modifiers.Spread
	case EffectSpeed:
		return &d.ctx.Modifiers.Speed
	case EffectScanCooldown:
		return &d.ctx.Modifiers.ScanCooldown
	}
	return nil
}

func (d *EventDirector) supplyDrop() {
	p := d.ctx.Store.Player
	if p == nil {
		return
	}
	vac := entropy.IntRange(d.ctx.Rand, 2, 4)
	bar := entropy.IntRange(d.ctx.Rand, 1, 2)
	p.Vaccines += vac
	p.Barriers += bar
	p.AddScore(supplyDropPoints)
	d.ctx.Emit(KindResourceCollected, SeverityGood,
		fmt.Sprintf("Supply drop: +%d vaccines, +%d barriers", vac, bar),
		map[string]any{"vaccines": vac, "barriers": bar, "source": "supply_drop"})
}

func (d *EventDirector) hotspot() {
	var pool []*agents.Agent
	for _, a := range d.ctx.Store.Agents() {
		if a.State == agents.StateHealthy && !a.Trapped {
			pool = append(pool, a)
		}
	}
	if len(pool) == 0 {
		return
	}
	n := min(len(pool), entropy.IntRange(d.ctx.Rand, 2, 4))
	infected := 0
	for i := 0; i < n; i++ {
		j := d.ctx.Rand.Intn(len(pool))
		a := pool[j]
		pool = append(pool[:j], pool[j+1:]...)
		if d.machine.SetState(a, agents.StateInfected, CauseHotspot) {
			infected++
		}
	}
	d.ctx.Emit(KindSeed, SeverityInfect, fmt.Sprintf("Hotspot: %d new cases", infected),
		map[string]any{"infected": infected, "source": "hotspot"})
}
