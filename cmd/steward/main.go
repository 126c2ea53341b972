// Command steward watches a running outbreaksim over its HTTP API and
// forces director events to keep the match tense but winnable.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/talgya/contagion/internal/config"
	"github.com/talgya/contagion/internal/steward"
)

func main() {
	cfg, err := config.LoadSteward()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("steward starting", "api_url", cfg.APIURL, "interval", cfg.Interval)
	s := steward.New(cfg.APIURL, cfg.AdminKey, cfg.MemoryPath)
	if err := s.WaitReady(ctx, cfg.ReadyWait); err != nil {
		slog.Error("match API unavailable", "error", err)
		os.Exit(1)
	}
	s.Run(ctx, cfg.Interval)
	fmt.Println("Steward stopped.")
}
