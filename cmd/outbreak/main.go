// Command outbreak is the interactive terminal game.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/talgya/contagion/internal/config"
	"github.com/talgya/contagion/internal/engine"
	"github.com/talgya/contagion/internal/journal"
	"github.com/talgya/contagion/internal/tui"
)

func main() {
	rt, err := config.LoadRuntime()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	// The terminal belongs to the game; logs go to a file.
	logFile, err := os.OpenFile(rt.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{
		Level: rt.SlogLevel(),
	})))

	d := rt.Settings()
	presenter := tui.NewPresenter()
	sim := engine.New(d, engine.Options{Seed: rt.Seed, Presenter: presenter})
	runner := engine.NewRunner(sim)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rec *journal.Recorder
	if rt.DBPath != "" {
		db, err := journal.Open(rt.DBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open journal: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		if rec, err = db.BeginMatch(ctx, d, sim.Seed); err != nil {
			fmt.Fprintf(os.Stderr, "start journal match: %v\n", err)
			os.Exit(1)
		}
		rec.Attach(sim)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "terminal: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "terminal: %v\n", err)
		os.Exit(1)
	}

	flushCtx, stopFlush := context.WithCancel(context.Background())
	flushDone := make(chan struct{})
	if rec != nil {
		go func() {
			rec.Run(flushCtx, 5*time.Second)
			close(flushDone)
		}()
	} else {
		close(flushDone)
	}

	app := tui.NewApp(screen, runner, presenter)
	sum := app.Run(ctx)
	screen.Fini()

	stopFlush()
	<-flushDone
	if rec != nil {
		if err := rec.Finish(context.Background(), sum); err != nil {
			slog.Error("journal finish failed", "error", err)
		}
	}

	fmt.Printf("%s · %s after %.1fs, score %d, casualties %d/%d\n",
		d.Label, sum.Outcome, sum.Elapsed, sum.Score, sum.Casualties, sum.CasualtyCap)
}
