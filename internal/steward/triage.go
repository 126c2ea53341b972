package steward

import (
	"github.com/talgya/contagion/internal/engine"
)

// Level is the triaged pressure on the responder.
type Level string

const (
	LevelCritical Level = "CRITICAL" // Close to losing
	LevelWarning  Level = "WARNING"
	LevelSteady   Level = "STEADY"
	LevelCruising Level = "CRUISING" // Containment is coming easily
)

// Health holds signals derived from one observation.
type Health struct {
	CasualtyPressure float64 // Casualties / cap
	InfectedShare    float64 // Infected / population
	ContainProgress  float64
	Rt               float64
	Level            Level
}

// Triage computes Health from an observation. Deterministic and cheap.
func Triage(obs *Observation) Health {
	s := obs.Snapshot
	h := Health{ContainProgress: s.ContainProgress, Rt: s.Rt}
	if s.CasualtyCap > 0 {
		h.CasualtyPressure = float64(s.Casualties) / float64(s.CasualtyCap)
	}
	if s.Counts.Total > 0 {
		h.InfectedShare = float64(s.Counts.Infected) / float64(s.Counts.Total)
	}

	switch {
	case h.CasualtyPressure >= 0.75 || h.InfectedShare >= 0.4:
		h.Level = LevelCritical
	case h.CasualtyPressure >= 0.5 || h.InfectedShare >= 0.25:
		h.Level = LevelWarning
	case h.ContainProgress >= 0.5 && s.Counts.Infected <= engine.ContainThreshold:
		h.Level = LevelCruising
	default:
		h.Level = LevelSteady
	}
	return h
}
