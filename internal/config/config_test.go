package config

import (
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"
)

func TestPresetsAreAlreadySane(t *testing.T) {
	for _, key := range PresetKeys() {
		d, err := Preset(key)
		if err != nil {
			t.Fatalf("preset %s: %v", key, err)
		}
		if d != presets[key] {
			t.Errorf("preset %s changed by Sanitize: %+v", key, d)
		}
	}
}

func TestPresetLookup(t *testing.T) {
	d, err := Preset("  NORMAL ")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if d.CasualtyCap != 12 {
		t.Fatalf("normal casualty cap = %d", d.CasualtyCap)
	}
	if _, err := Preset("nightmare"); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}

func TestPresetKeysOrdered(t *testing.T) {
	keys := PresetKeys()
	want := []string{"tutorial", "easy", "normal", "hard"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
}

func TestSanitizeClampsMalformed(t *testing.T) {
	d := Difficulty{
		Key:              "broken",
		Population:       -5,
		InitialInfected:  9,
		SpreadMultiplier: -2,
		SpreadRampStart:  0,
		DeathRate:        math.NaN(),
		DeathMinSec:      -1,
		CasualtyCap:      0,
		SeedGapMin:       50,
		SeedGapMax:       10,
		StartVaccines:    -3,
		ContainTarget:    math.Inf(1),
	}.Sanitize()

	if d.Population != 1 {
		t.Errorf("population = %d", d.Population)
	}
	if d.InitialInfected != 1 {
		t.Errorf("initial infected = %d", d.InitialInfected)
	}
	if d.SpreadMultiplier != 0 {
		t.Errorf("spread multiplier = %v", d.SpreadMultiplier)
	}
	if d.SpreadRampStart != 1 {
		t.Errorf("ramp start = %v", d.SpreadRampStart)
	}
	if d.DeathRate != 0 {
		t.Errorf("death rate = %v", d.DeathRate)
	}
	if d.DeathMinSec != defaultDeathMin {
		t.Errorf("death min = %v", d.DeathMinSec)
	}
	if d.CasualtyCap != defaultCap {
		t.Errorf("cap = %d", d.CasualtyCap)
	}
	if d.SeedGapMax != 50 || d.SeedGapMin != 50 {
		t.Errorf("seed gap = [%v, %v)", d.SeedGapMin, d.SeedGapMax)
	}
	if d.StartVaccines != 0 {
		t.Errorf("vaccines = %d", d.StartVaccines)
	}
	if d.InfectiousnessScale != 1 {
		t.Errorf("infectiousness scale = %v", d.InfectiousnessScale)
	}
	if d.ContainTarget != defaultTarget {
		t.Errorf("contain target = %v", d.ContainTarget)
	}
}

func TestLoadRuntimeDefaults(t *testing.T) {
	rt, err := LoadRuntime()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rt.Difficulty != "normal" || rt.Duration != 5*time.Minute {
		t.Fatalf("unexpected defaults: %+v", rt)
	}
	if rt.SlogLevel() != slog.LevelInfo {
		t.Fatalf("level = %v", rt.SlogLevel())
	}
}

func TestLoadRuntimeOverrides(t *testing.T) {
	t.Setenv("OUTBREAK_DIFFICULTY", "hard")
	t.Setenv("OUTBREAK_SEED", "1234")
	t.Setenv("OUTBREAK_DURATION", "90s")
	t.Setenv("OUTBREAK_LOG_LEVEL", "DEBUG")

	rt, err := LoadRuntime()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rt.Difficulty != "hard" || rt.Seed != 1234 || rt.Duration != 90*time.Second {
		t.Fatalf("overrides not applied: %+v", rt)
	}
	want, _ := Preset("hard")
	if got := rt.Settings(); got != want {
		t.Fatalf("settings %+v, want the hard preset %+v", got, want)
	}
	if rt.SlogLevel() != slog.LevelDebug {
		t.Fatalf("level = %v", rt.SlogLevel())
	}
}

func TestLoadRuntimeErrors(t *testing.T) {
	t.Run("bad seed", func(t *testing.T) {
		t.Setenv("OUTBREAK_SEED", "not-a-number")
		_, err := LoadRuntime()
		if err == nil || !strings.Contains(err.Error(), "parse env:") {
			t.Fatalf("expected parse env error, got %v", err)
		}
	})
	t.Run("unknown difficulty", func(t *testing.T) {
		t.Setenv("OUTBREAK_DIFFICULTY", "impossible")
		if _, err := LoadRuntime(); err == nil {
			t.Fatal("expected error")
		}
	})
	t.Run("port", func(t *testing.T) {
		t.Setenv("OUTBREAK_API_PORT", "70000")
		if _, err := LoadRuntime(); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestLoadSteward(t *testing.T) {
	if _, err := LoadSteward(); err == nil {
		t.Fatal("expected error without an admin key")
	}
	t.Setenv("OUTBREAK_ADMIN_KEY", "k")
	t.Setenv("OUTBREAK_API_URL", "http://sim:9000/")
	st, err := LoadSteward()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.APIURL != "http://sim:9000" || st.Interval != 15*time.Second || st.SlogLevel() != slog.LevelInfo {
		t.Fatalf("unexpected steward config: %+v", st)
	}
	t.Setenv("STEWARD_INTERVAL", "0s")
	if _, err := LoadSteward(); err == nil {
		t.Fatal("expected error for zero interval")
	}
}
