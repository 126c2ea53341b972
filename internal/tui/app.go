package tui

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"

	"github.com/talgya/contagion/internal/engine"
)

// App runs one interactive match on a terminal. The match starts frozen
// behind an intro card until Enter is pressed.
type App struct {
	screen    tcell.Screen
	runner    *engine.Runner
	keyboard  *Keyboard
	presenter *Presenter
	view      *View

	intro atomic.Bool
	quit  atomic.Bool
}

// NewApp wires a runner to screen. presenter must be the one the
// simulation was created with.
func NewApp(screen tcell.Screen, runner *engine.Runner, presenter *Presenter) *App {
	a := &App{
		screen:    screen,
		runner:    runner,
		keyboard:  NewKeyboard(),
		presenter: presenter,
		view:      NewView(screen, presenter),
	}
	a.intro.Store(true)
	runner.Do(func(s *engine.Simulation) { s.SetFrozen(true) })
	runner.Input = a.keyboard
	runner.OnFrame = a.frame
	return a
}

// Run plays until the match is decided and the summary is dismissed, the
// player quits, or ctx is cancelled. It returns the final summary.
func (a *App) Run(ctx context.Context) engine.Summary {
	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return // Screen finalized
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		a.runner.Run(ctx)
		close(done)
	}()

	for running := true; running; {
		select {
		case <-done:
			running = false
		case ev := <-events:
			a.handle(ev)
		}
	}

	var sum engine.Summary
	a.runner.Do(func(s *engine.Simulation) { sum = s.Game.Summary() })
	if a.quit.Load() || ctx.Err() != nil {
		return sum
	}

	a.runner.Do(func(s *engine.Simulation) { a.view.Draw(s, summaryLines(sum)) })
	for {
		select {
		case <-ctx.Done():
			return sum
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				a.screen.Sync()
			case *tcell.EventKey:
				if cmd := a.keyboard.HandleKey(ev); cmd == CmdQuit || cmd == CmdConfirm {
					return sum
				}
			}
		}
	}
}

func (a *App) handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
	case *tcell.EventKey:
		switch a.keyboard.HandleKey(ev) {
		case CmdQuit:
			slog.Info("player quit")
			a.quit.Store(true)
			a.runner.Stop()
		case CmdConfirm:
			if a.intro.CompareAndSwap(true, false) {
				a.runner.Do(func(s *engine.Simulation) { s.SetFrozen(false) })
			}
		case CmdPause:
			if !a.intro.Load() {
				a.runner.Do(func(s *engine.Simulation) { s.SetPaused(!s.Ctx.Paused) })
			}
		}
	}
}

// frame is the runner's per-frame callback; the runner lock is held.
func (a *App) frame(s *engine.Simulation) {
	var overlay []string
	switch {
	case a.intro.Load():
		overlay = introLines(s)
	case s.Ctx.Paused:
		overlay = []string{"PAUSED", "", "P to resume"}
	}
	a.view.Draw(s, overlay)
}

func introLines(s *engine.Simulation) []string {
	d := s.Ctx.Difficulty
	return []string{
		"OUTBREAK RESPONSE · " + d.Label,
		"",
		fmt.Sprintf("Hold live infections at %d or fewer for %.0fs to win.", engine.ContainThreshold, d.ContainTarget),
		fmt.Sprintf("Lose if %d citizens die.", d.CasualtyCap),
		"",
		"WASD move (Shift sprints)   arrows aim",
		"F vaccinate   E barrier   Q scan   P pause",
		"",
		"Press Enter to begin",
	}
}

func summaryLines(sum engine.Summary) []string {
	title := "OUTBREAK CONTAINED"
	if sum.Outcome == engine.OutcomeDefeat {
		title = "CITY LOST"
	}
	return []string{
		title,
		"",
		fmt.Sprintf("Score       %d", sum.Score),
		fmt.Sprintf("Time        %.1fs", sum.Elapsed),
		fmt.Sprintf("Casualties  %d / %d", sum.Casualties, sum.CasualtyCap),
		fmt.Sprintf("Immune      %d", sum.Counts.Immune),
		"",
		"Enter or Esc to exit",
	}
}
