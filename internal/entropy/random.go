// Package entropy provides the random source every simulation system
// draws from. A single seeded source per match keeps runs reproducible;
// cryptographic quality is never required.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	mrand "math/rand"
	"sync"
)

// Source produces uniform random numbers.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// Intn returns a value in [0, n). n must be > 0.
	Intn(n int) int
}

// Seeded is a deterministic PRNG wrapper. Not safe for concurrent use;
// the simulation is single-threaded.
type Seeded struct {
	seed int64
	rng  *mrand.Rand
}

// NewSeeded creates a source from seed. A zero seed draws a fresh one.
func NewSeeded(seed int64) *Seeded {
	if seed == 0 {
		seed = NewSeed()
		slog.Debug("drew fresh simulation seed", "seed", seed)
	}
	return &Seeded{seed: seed, rng: mrand.New(mrand.NewSource(seed))}
}

// Seed returns the seed the source was created with.
func (s *Seeded) Seed() int64 {
	return s.seed
}

func (s *Seeded) Float64() float64 {
	return s.rng.Float64()
}

func (s *Seeded) Intn(n int) int {
	return s.rng.Intn(n)
}

// NewSeed returns a non-zero seed from crypto/rand. Falls back to a fixed
// seed if the system source is unavailable.
func NewSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		slog.Warn("crypto/rand unavailable, using fixed seed", "error", err)
		return 1
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed
}

// Range returns a uniform value in [lo, hi).
func Range(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// IntRange returns a uniform integer in [lo, hi] inclusive.
func IntRange(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}

// Chance performs a Bernoulli trial. p is clamped to [0, 1] first, so
// p <= 0 never succeeds and p >= 1 always does.
func Chance(src Source, p float64) bool {
	if !(p > 0) {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Float64() < p
}

// Script replays a fixed sequence of draws, cycling when exhausted. It
// makes probabilistic systems testable draw by draw.
type Script struct {
	mu     sync.Mutex
	Floats []float64
	Ints   []int
	fi, ii int
}

// NewScript returns a Script that replays floats.
func NewScript(floats ...float64) *Script {
	return &Script{Floats: floats}
}

func (s *Script) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.fi%len(s.Floats)]
	s.fi++
	return v
}

func (s *Script) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[s.ii%len(s.Ints)]
	s.ii++
	if v < 0 {
		v = -v
	}
	return v % n
}

// Draws returns how many floats have been consumed.
func (s *Script) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fi
}
