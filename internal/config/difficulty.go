// Package config holds difficulty presets and runtime configuration.
package config

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
)

// Difficulty parameterizes one match. Values are sanitized once at
// configuration time; the simulation trusts them afterwards.
type Difficulty struct {
	Key   string `json:"key"`
	Label string `json:"label"`

	Population      int `json:"population"`
	InitialInfected int `json:"initial_infected"`

	SpreadMultiplier    float64 `json:"spread_multiplier"`
	SpreadRampStart     float64 `json:"spread_ramp_start"` // Fraction of full spread pressure at t=0
	InfectiousnessScale float64 `json:"infectiousness_scale"`

	DeathRate   float64 `json:"death_rate"`    // Expected deaths per infected-minute once eligible
	DeathMinSec float64 `json:"death_min_sec"` // Infected dwell before death is possible
	CasualtyCap int     `json:"casualty_cap"`

	SeedGapMin float64 `json:"seed_gap_min"` // Background seeding gap range, seconds
	SeedGapMax float64 `json:"seed_gap_max"`

	StartVaccines int `json:"start_vaccines"`
	StartBarriers int `json:"start_barriers"`
	Pickups       int `json:"pickups"`

	ContainTarget float64 `json:"contain_target"` // Containment clock seconds needed to win
}

const (
	minPopulation    = 1
	defaultDeathMin  = 10
	defaultCap       = 12
	defaultSeedGap   = 30
	defaultRampStart = 1.0
	defaultTarget    = 30
)

var presets = map[string]Difficulty{
	"tutorial": {
		Key: "tutorial", Label: "Tutorial",
		Population: 40, InitialInfected: 2,
		SpreadMultiplier: 0.6, SpreadRampStart: 0.4, InfectiousnessScale: 0.8,
		DeathRate: 0.002, DeathMinSec: 14, CasualtyCap: 15,
		SeedGapMin: 40, SeedGapMax: 70,
		StartVaccines: 8, StartBarriers: 3, Pickups: 6,
		ContainTarget: 30,
	},
	"easy": {
		Key: "easy", Label: "Easy",
		Population: 60, InitialInfected: 3,
		SpreadMultiplier: 0.8, SpreadRampStart: 0.5, InfectiousnessScale: 0.9,
		DeathRate: 0.003, DeathMinSec: 12, CasualtyCap: 14,
		SeedGapMin: 30, SeedGapMax: 55,
		StartVaccines: 6, StartBarriers: 3, Pickups: 5,
		ContainTarget: 30,
	},
	"normal": {
		Key: "normal", Label: "Normal",
		Population: 80, InitialInfected: 4,
		SpreadMultiplier: 1.0, SpreadRampStart: 0.6, InfectiousnessScale: 1.0,
		DeathRate: 0.004, DeathMinSec: 10, CasualtyCap: 12,
		SeedGapMin: 22, SeedGapMax: 40,
		StartVaccines: 5, StartBarriers: 2, Pickups: 4,
		ContainTarget: 30,
	},
	"hard": {
		Key: "hard", Label: "Hard",
		Population: 120, InitialInfected: 6,
		SpreadMultiplier: 1.25, SpreadRampStart: 0.75, InfectiousnessScale: 1.1,
		DeathRate: 0.006, DeathMinSec: 8, CasualtyCap: 10,
		SeedGapMin: 14, SeedGapMax: 28,
		StartVaccines: 4, StartBarriers: 2, Pickups: 3,
		ContainTarget: 30,
	},
}

// Preset returns the named difficulty (case-insensitive), sanitized.
func Preset(key string) (Difficulty, error) {
	d, ok := presets[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Difficulty{}, fmt.Errorf("unknown difficulty %q (want one of %s)", key, strings.Join(PresetKeys(), ", "))
	}
	return d.Sanitize(), nil
}

// PresetKeys lists the available presets in a stable order.
func PresetKeys() []string {
	keys := make([]string, 0, len(presets))
	for k := range presets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return presets[keys[i]].Population < presets[keys[j]].Population
	})
	return keys
}

// Sanitize clamps out-of-range values into a playable configuration.
// Malformed input never reaches the simulation.
func (d Difficulty) Sanitize() Difficulty {
	out := d
	fixed := 0
	fix := func(field string, from, to any) {
		fixed++
		slog.Warn("difficulty value clamped", "difficulty", d.Key, "field", field, "from", from, "to", to)
	}

	if out.Population < minPopulation {
		fix("population", out.Population, minPopulation)
		out.Population = minPopulation
	}
	if out.InitialInfected < 0 {
		fix("initial_infected", out.InitialInfected, 0)
		out.InitialInfected = 0
	}
	if out.InitialInfected > out.Population {
		fix("initial_infected", out.InitialInfected, out.Population)
		out.InitialInfected = out.Population
	}
	if bad(out.SpreadMultiplier) || out.SpreadMultiplier < 0 {
		fix("spread_multiplier", out.SpreadMultiplier, 0)
		out.SpreadMultiplier = 0
	}
	if bad(out.SpreadRampStart) || out.SpreadRampStart <= 0 || out.SpreadRampStart > 1 {
		fix("spread_ramp_start", out.SpreadRampStart, defaultRampStart)
		out.SpreadRampStart = defaultRampStart
	}
	if bad(out.InfectiousnessScale) || out.InfectiousnessScale <= 0 {
		fix("infectiousness_scale", out.InfectiousnessScale, 1.0)
		out.InfectiousnessScale = 1
	}
	if bad(out.DeathRate) || out.DeathRate < 0 {
		fix("death_rate", out.DeathRate, 0)
		out.DeathRate = 0
	}
	if bad(out.DeathMinSec) || out.DeathMinSec < 0 {
		fix("death_min_sec", out.DeathMinSec, defaultDeathMin)
		out.DeathMinSec = defaultDeathMin
	}
	if out.CasualtyCap <= 0 {
		fix("casualty_cap", out.CasualtyCap, defaultCap)
		out.CasualtyCap = defaultCap
	}
	if bad(out.SeedGapMin) || out.SeedGapMin <= 0 {
		fix("seed_gap_min", out.SeedGapMin, defaultSeedGap)
		out.SeedGapMin = defaultSeedGap
	}
	if bad(out.SeedGapMax) || out.SeedGapMax < out.SeedGapMin {
		fix("seed_gap_max", out.SeedGapMax, out.SeedGapMin)
		out.SeedGapMax = out.SeedGapMin
	}
	if out.StartVaccines < 0 {
		fix("start_vaccines", out.StartVaccines, 0)
		out.StartVaccines = 0
	}
	if out.StartBarriers < 0 {
		fix("start_barriers", out.StartBarriers, 0)
		out.StartBarriers = 0
	}
	if out.Pickups < 0 {
		fix("pickups", out.Pickups, 0)
		out.Pickups = 0
	}
	if bad(out.ContainTarget) || out.ContainTarget <= 0 {
		fix("contain_target", out.ContainTarget, defaultTarget)
		out.ContainTarget = defaultTarget
	}

	if fixed > 0 {
		slog.Info("difficulty sanitized", "difficulty", d.Key, "fields_clamped", fixed)
	}
	return out
}

func bad(x float64) bool {
	return math.IsNaN(x) || math.IsInf(x, 0)
}
