package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Runtime is the process-level configuration shared by the binaries.
type Runtime struct {
	Difficulty string        `env:"OUTBREAK_DIFFICULTY" envDefault:"normal"`
	Seed       int64         `env:"OUTBREAK_SEED" envDefault:"0"` // 0 = fresh seed
	DBPath     string        `env:"OUTBREAK_DB_PATH"`             // empty = no journal
	APIPort    int           `env:"OUTBREAK_API_PORT" envDefault:"0"`
	AdminKey   string        `env:"OUTBREAK_ADMIN_KEY"`
	Duration   time.Duration `env:"OUTBREAK_DURATION" envDefault:"5m"` // Simulated time cap for headless runs
	Speed      float64       `env:"OUTBREAK_SPEED" envDefault:"0"`     // Headless: 0 = as fast as possible
	LogLevel   string        `env:"OUTBREAK_LOG_LEVEL" envDefault:"info"`
	LogFile    string        `env:"OUTBREAK_LOG_FILE" envDefault:"outbreak.log"`

	settings Difficulty
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadRuntime parses Runtime from the environment and validates it.
func LoadRuntime() (Runtime, error) {
	var rt Runtime
	if err := ParseEnv(&rt); err != nil {
		return Runtime{}, err
	}
	d, err := Preset(rt.Difficulty)
	if err != nil {
		return Runtime{}, err
	}
	rt.settings = d
	if rt.APIPort < 0 || rt.APIPort > 65535 {
		return Runtime{}, fmt.Errorf("api port %d out of range", rt.APIPort)
	}
	if rt.Duration <= 0 {
		return Runtime{}, fmt.Errorf("duration must be positive, got %s", rt.Duration)
	}
	if rt.Speed < 0 {
		return Runtime{}, fmt.Errorf("speed must be >= 0, got %v", rt.Speed)
	}
	return rt, nil
}

// Settings returns the sanitized preset selected by Difficulty. Only
// valid on a Runtime returned by LoadRuntime.
func (rt Runtime) Settings() Difficulty {
	return rt.settings
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to Info.
func (rt Runtime) SlogLevel() slog.Level {
	return parseLevel(rt.LogLevel)
}

// Steward configures the out-of-process match steward.
type Steward struct {
	APIURL     string        `env:"OUTBREAK_API_URL" envDefault:"http://localhost:8080"`
	AdminKey   string        `env:"OUTBREAK_ADMIN_KEY,required"`
	Interval   time.Duration `env:"STEWARD_INTERVAL" envDefault:"15s"`
	ReadyWait  time.Duration `env:"STEWARD_READY_TIMEOUT" envDefault:"2m"`
	MemoryPath string        `env:"STEWARD_MEMORY_PATH"` // empty = in-memory only
	LogLevel   string        `env:"OUTBREAK_LOG_LEVEL" envDefault:"info"`
}

// LoadSteward parses Steward from the environment and validates it.
func LoadSteward() (Steward, error) {
	var st Steward
	if err := ParseEnv(&st); err != nil {
		return Steward{}, err
	}
	if st.Interval <= 0 {
		return Steward{}, fmt.Errorf("steward interval must be positive, got %s", st.Interval)
	}
	st.APIURL = strings.TrimRight(st.APIURL, "/")
	return st, nil
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to Info.
func (st Steward) SlogLevel() slog.Level {
	return parseLevel(st.LogLevel)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
