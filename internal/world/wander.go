package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// WanderField is a smooth, time-varying heading perturbation. Agents
// sample it at their position so that neighbours drift in similar
// directions instead of jittering independently.
type WanderField struct {
	noise     opensimplex.Noise
	Frequency float64 // Spatial frequency (cycles per world unit)
	TimeScale float64 // Temporal frequency (cycles per second)
	MaxTurn   float64 // Largest heading offset in radians
	Octaves   int
}

// NewWanderField creates a field seeded deterministically.
func NewWanderField(seed int64) *WanderField {
	return &WanderField{
		noise:     opensimplex.NewNormalized(seed + 700),
		Frequency: 0.08,
		TimeScale: 0.15,
		MaxTurn:   math.Pi / 4,
		Octaves:   2,
	}
}

// Turn returns the heading offset in [-MaxTurn, MaxTurn] at point p and
// time t (seconds).
func (f *WanderField) Turn(p Vec2, t float64) float64 {
	v := octaveNoise3(f.noise, p.X, p.Y, t*f.TimeScale, f.Octaves, f.Frequency, 0.5)
	return (v*2 - 1) * f.MaxTurn
}

// Steer bends dir by the field value at p, preserving its length.
func (f *WanderField) Steer(dir, p Vec2, t float64) Vec2 {
	if f == nil {
		return dir
	}
	return dir.Rotate(f.Turn(p, t))
}

// octaveNoise3 layers frequencies of normalized noise; the result stays in [0, 1).
func octaveNoise3(noise opensimplex.Noise, x, y, z float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval3(x*frequency, y*frequency, z) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	if maxVal == 0 {
		return 0.5
	}
	return total / maxVal
}
