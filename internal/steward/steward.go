package steward

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Steward runs observe → triage → decide → act cycles.
type Steward struct {
	Observer *Observer
	Actor    *Actor
	Memory   *Memory
}

// New creates a steward for the API at baseURL.
func New(baseURL, adminKey, memoryPath string) *Steward {
	return &Steward{
		Observer: NewObserver(baseURL),
		Actor:    NewActor(baseURL, adminKey),
		Memory:   LoadMemory(memoryPath),
	}
}

// Cycle executes one observe → decide → act cycle and records it.
func (s *Steward) Cycle(ctx context.Context) (CycleRecord, error) {
	obs, err := s.Observer.Observe(ctx)
	if err != nil {
		return CycleRecord{}, fmt.Errorf("observe: %w", err)
	}
	h := Triage(obs)
	d := Decide(obs, h, s.Memory)

	rec := CycleRecord{
		Tick:       obs.Status.Tick,
		Elapsed:    obs.Status.Elapsed,
		Level:      h.Level,
		Action:     "none",
		Casualties: obs.Snapshot.Casualties,
		Rationale:  d.Rationale,
	}
	if d.EventID != "" {
		rec.Action = d.EventID
		res, err := s.Actor.Act(ctx, d.EventID)
		if err != nil {
			s.Memory.Record(rec)
			return rec, fmt.Errorf("act: %w", err)
		}
		rec.Started = res.Started
		if !res.Started {
			rec.Rationale += "; refused: " + res.Details
		}
	}
	s.Memory.Record(rec)
	s.Memory.Save()
	slog.Info("steward cycle",
		"tick", rec.Tick,
		"level", rec.Level,
		"action", rec.Action,
		"started", rec.Started,
		"rationale", rec.Rationale,
	)
	return rec, nil
}

// Run cycles every interval until ctx is cancelled. Failed cycles are
// logged and retried on the next tick.
func (s *Steward) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.Cycle(ctx); err != nil && ctx.Err() == nil {
			slog.Error("steward cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// WaitReady polls the status endpoint with exponential backoff until it
// answers or timeout passes.
func (s *Steward) WaitReady(ctx context.Context, timeout time.Duration) error {
	backoff := 500 * time.Millisecond
	const maxBackoff = 10 * time.Second
	deadline := time.Now().Add(timeout)
	for {
		if s.Observer.Ready(ctx) {
			slog.Info("match API is ready")
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("match API not ready after %s", timeout)
		}
		slog.Info("match API not ready, retrying", "backoff", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(2*backoff, maxBackoff)
	}
}
