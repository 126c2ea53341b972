package steward

import (
	"fmt"

	"github.com/talgya/contagion/internal/engine"
)

// Decision is the steward's choice for one cycle. EventID is empty for
// no intervention.
type Decision struct {
	EventID   string
	Rationale string
}

// warningStreak is how many consecutive WARNING cycles earn support.
const warningStreak = 3

// Decide picks at most one event. The steward keeps matches tense but
// winnable: relief when the responder is about to lose, drone support
// for a sustained struggle, a fresh cluster when containment comes too
// easily. It never stacks on an active event and never repeats the
// previous cycle's intervention.
func Decide(obs *Observation, h Health, mem *Memory) Decision {
	st := obs.Status
	switch {
	case st.Outcome != engine.OutcomePlaying:
		return Decision{Rationale: "match decided"}
	case st.Paused || st.Frozen:
		return Decision{Rationale: "match suspended"}
	case st.ActiveEvent != "":
		return Decision{Rationale: fmt.Sprintf("%s already active", st.ActiveEvent)}
	}

	var d Decision
	switch h.Level {
	case LevelCritical:
		d = Decision{EventID: "supply_drop", Rationale: fmt.Sprintf(
			"casualties at %.0f%% of cap, infected share %.0f%%", 100*h.CasualtyPressure, 100*h.InfectedShare)}
	case LevelWarning:
		if mem.Streak(LevelWarning) >= warningStreak-1 {
			d = Decision{EventID: "drone_support", Rationale: "sustained pressure"}
		} else {
			d = Decision{Rationale: "pressure building, watching"}
		}
	case LevelCruising:
		d = Decision{EventID: "hotspot", Rationale: fmt.Sprintf(
			"containment at %.0f%% with Rt %.2f", 100*h.ContainProgress, h.Rt)}
	default:
		d = Decision{Rationale: "steady"}
	}

	if d.EventID != "" && mem.LastAction() == d.EventID {
		return Decision{Rationale: d.EventID + " used last cycle, holding off"}
	}
	return d
}
