// Command outbreaksim runs an unattended outbreak match: headless and as
// fast as possible by default, or in real time behind the HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talgya/contagion/internal/api"
	"github.com/talgya/contagion/internal/config"
	"github.com/talgya/contagion/internal/engine"
	"github.com/talgya/contagion/internal/journal"
)

func main() {
	rt, err := config.LoadRuntime()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: rt.SlogLevel(),
	}))
	slog.SetDefault(logger)

	d := rt.Settings()
	sim := engine.New(d, engine.Options{Seed: rt.Seed})
	runner := engine.NewRunner(sim)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Journal ───────────────────────────────────────────────────────
	var rec *journal.Recorder
	var db *journal.DB
	flushCtx, stopFlush := context.WithCancel(context.Background())
	flushDone := make(chan struct{})
	if rt.DBPath != "" {
		db, err = journal.Open(rt.DBPath)
		if err != nil {
			slog.Error("failed to open journal", "path", rt.DBPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		rec, err = db.BeginMatch(ctx, d, sim.Seed)
		if err != nil {
			slog.Error("failed to start journal match", "error", err)
			os.Exit(1)
		}
		rec.Attach(sim)
		go func() {
			rec.Run(flushCtx, 2*time.Second)
			close(flushDone)
		}()
	} else {
		close(flushDone)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if rt.APIPort > 0 {
		if rt.AdminKey == "" {
			slog.Warn("OUTBREAK_ADMIN_KEY not set, admin POST endpoints will be disabled")
		}
		hub := api.NewHub()
		sim.AddEventSink(hub)
		sim.AddSnapshotSink(hub)
		go hub.Run(ctx)

		srv := &api.Server{Runner: runner, Hub: hub, DB: db, Port: rt.APIPort, AdminKey: rt.AdminKey}
		if rec != nil {
			srv.MatchID = rec.ID
		}
		go func() {
			if err := srv.Serve(ctx); err != nil {
				slog.Error("HTTP API stopped", "error", err)
			}
		}()
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", rt.APIPort)
	}

	// ── Run ───────────────────────────────────────────────────────────
	limit := rt.Duration.Seconds()
	fmt.Printf("Outbreak (%s): %d citizens, %d infected, seed %d\n",
		d.Label, d.Population, d.InitialInfected, sim.Seed)

	var sum engine.Summary
	if rt.Speed == 0 {
		sum = runner.RunFixed(ctx, engine.MaxDt, limit)
	} else {
		runner.SetSpeed(rt.Speed)
		runner.OnFrame = func(s *engine.Simulation) {
			if s.Ctx.Elapsed >= limit {
				runner.Stop()
			}
		}
		runner.Run(ctx)
		runner.Do(func(s *engine.Simulation) { sum = s.Game.Summary() })
	}

	stopFlush()
	<-flushDone
	if rec != nil {
		if err := rec.Finish(context.Background(), sum); err != nil {
			slog.Error("journal finish failed", "error", err)
		}
	}

	fmt.Printf("\n%s after %.1fs: score %d, casualties %d/%d, containment %.1fs\n",
		sum.Outcome, sum.Elapsed, sum.Score, sum.Casualties, sum.CasualtyCap, sum.ContainClock)
	fmt.Printf("Final counts: %d healthy, %d infected, %d recovering, %d immune, %d deceased\n",
		sum.Counts.Healthy, sum.Counts.Infected, sum.Counts.Recovering, sum.Counts.Immune, sum.Counts.Deceased)
}
