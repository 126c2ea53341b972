package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Clock is the monotonic time source driving real-time frames.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// InputSource yields one input sample per frame.
type InputSource interface {
	Sample() Input
}

// InputFunc adapts a function to InputSource.
type InputFunc func() Input

func (f InputFunc) Sample() Input { return f() }

// Runner drives a Simulation forward one tick per frame. The simulation
// itself is single-threaded; Runner serializes access from other
// goroutines through Do.
type Runner struct {
	Interval time.Duration // Frame interval (default ~60 fps)
	Clock    Clock
	Input    InputSource
	OnFrame  func(*Simulation) // Called after each frame while the lock is held

	mu      sync.Mutex
	sim     *Simulation
	speed   float64 // 1.0 = real-time, 0 = paused
	stop    chan struct{}
	stopped sync.Once
}

// NewRunner creates a runner at real-time speed.
func NewRunner(sim *Simulation) *Runner {
	return &Runner{
		Interval: 16 * time.Millisecond,
		Clock:    wallClock{},
		sim:      sim,
		speed:    1.0,
		stop:     make(chan struct{}),
	}
}

// Do runs fn with exclusive access to the simulation.
func (r *Runner) Do(fn func(*Simulation)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.sim)
}

// Speed returns the time multiplier.
func (r *Runner) Speed() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.speed
}

// SetSpeed sets the time multiplier. 0 pauses the loop without touching
// the simulation's own pause flag.
func (r *Runner) SetSpeed(x float64) {
	if x < 0 {
		x = 0
	}
	r.mu.Lock()
	r.speed = x
	r.mu.Unlock()
	slog.Info("speed changed", "speed", x)
}

// Stop halts Run. It is safe to call more than once.
func (r *Runner) Stop() {
	r.stopped.Do(func() { close(r.stop) })
}

// Run steps the simulation in real time until the match is decided, ctx
// is cancelled, or Stop is called.
func (r *Runner) Run(ctx context.Context) {
	slog.Info("simulation runner started", "interval", r.Interval, "speed", r.Speed())
	last := r.Clock.Now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation runner stopped", "reason", ctx.Err())
			return
		case <-r.stop:
			slog.Info("simulation runner stopped", "reason", "stop")
			return
		default:
		}

		start := r.Clock.Now()
		dt := start.Sub(last).Seconds()
		last = start
		if r.frame(dt) {
			slog.Info("simulation runner finished", "tick", r.tick())
			return
		}

		if elapsed := r.Clock.Now().Sub(start); elapsed < r.Interval {
			time.Sleep(r.Interval - elapsed)
		}
	}
}

func (r *Runner) halted(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-r.stop:
		return true
	default:
		return false
	}
}

// frame advances the simulation by one wall-clock frame of dt seconds
// and reports whether the match is decided. The frame is truncated to
// MaxDt, then scaled by speed and run as sub-steps of at most MaxDt.
// One-shot commands apply to the first sub-step only.
func (r *Runner) frame(dt float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	var in Input
	if r.Input != nil {
		in = r.Input.Sample()
	}
	if r.speed > 0 && dt > 0 {
		remaining := min(dt, MaxDt) * r.speed
		for remaining > 1e-9 && r.sim.Ctx.Playing() {
			step := min(remaining, MaxDt)
			if !r.sim.Step(step, in) {
				break
			}
			remaining -= step
			in.Heal, in.Barrier, in.Scan = false, false, false
		}
	}
	if r.OnFrame != nil {
		r.OnFrame(r.sim)
	}
	return !r.sim.Ctx.Playing()
}

func (r *Runner) tick() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.Ctx.Tick
}

// RunFixed steps the simulation with a fixed dt as fast as possible until
// the match is decided, limit simulated seconds have passed, ctx is
// cancelled, or Stop is called. Paused or frozen time does not count toward limit, so the
// loop yields briefly while suspended.
func (r *Runner) RunFixed(ctx context.Context, dt, limit float64) Summary {
	for !r.halted(ctx) {
		var done, suspended bool
		r.Do(func(s *Simulation) {
			var in Input
			if r.Input != nil {
				in = r.Input.Sample()
			}
			suspended = !s.Step(dt, in) && s.Ctx.Playing()
			done = !s.Ctx.Playing() || s.Ctx.Elapsed >= limit
		})
		if done {
			break
		}
		if suspended {
			time.Sleep(50 * time.Millisecond)
		}
	}
	var sum Summary
	r.Do(func(s *Simulation) { sum = s.Game.Summary() })
	return sum
}
