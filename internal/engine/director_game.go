package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/contagion/internal/agents"
)

const (
	ContainThreshold = 3 // Live infections at or below this count advance the clock
	containDecay     = 0.5
	containPoints    = 2 // Per whole second of containment
	victoryPoints    = 1000
)

// Summary is the end-of-match report.
type Summary struct {
	Outcome      Outcome     `json:"outcome"`
	Score        int64       `json:"score"`
	Casualties   int         `json:"casualties"`
	CasualtyCap  int         `json:"casualty_cap"`
	Elapsed      float64     `json:"elapsed"`
	ContainClock float64     `json:"contain_clock"`
	Counts       StateCounts `json:"counts"`
}

// GameDirector adjudicates the match: a containment clock racing the
// casualty cap. The outcome is decided at most once.
type GameDirector struct {
	ctx   *Context
	clock float64
	onEnd []func(Summary)
}

// NewGameDirector creates the adjudicator.
func NewGameDirector(ctx *Context) *GameDirector {
	return &GameDirector{ctx: ctx}
}

// OnEnd registers fn to receive the summary when the match is decided.
func (g *GameDirector) OnEnd(fn func(Summary)) {
	g.onEnd = append(g.onEnd, fn)
}

// Clock returns the containment clock in seconds.
func (g *GameDirector) Clock() float64 {
	return g.clock
}

// Progress returns the containment clock as a fraction of the target.
func (g *GameDirector) Progress() float64 {
	return math.Min(1, g.clock/g.ctx.Difficulty.ContainTarget)
}

// Step advances the containment clock and checks both terminal
// conditions, victory first.
func (g *GameDirector) Step(dt float64) {
	if !g.ctx.Playing() {
		return
	}
	infected := 0
	for _, a := range g.ctx.Store.Agents() {
		if a.State == agents.StateInfected {
			infected++
		}
	}
	if infected <= ContainThreshold {
		prev := g.clock
		g.clock += dt
		if math.Floor(g.clock) != math.Floor(prev) && g.ctx.Store.Player != nil {
			g.ctx.Store.Player.AddScore(containPoints)
		}
	} else {
		g.clock = math.Max(0, g.clock-dt*containDecay)
	}

	switch {
	case g.clock >= g.ctx.Difficulty.ContainTarget:
		g.decide(OutcomeVictory)
	case g.ctx.Casualties >= g.ctx.Difficulty.CasualtyCap:
		g.decide(OutcomeDefeat)
	}
}

// OnCasualty checks the cap the moment a death is counted.
func (g *GameDirector) OnCasualty() {
	if g.ctx.Playing() && g.ctx.Casualties >= g.ctx.Difficulty.CasualtyCap {
		g.decide(OutcomeDefeat)
	}
}

// Summary reports the match so far.
func (g *GameDirector) Summary() Summary {
	var score int64
	if g.ctx.Store.Player != nil {
		score = g.ctx.Store.Player.Score()
	}
	return Summary{
		Outcome:      g.ctx.Outcome,
		Score:        score,
		Casualties:   g.ctx.Casualties,
		CasualtyCap:  g.ctx.Difficulty.CasualtyCap,
		Elapsed:      g.ctx.Elapsed,
		ContainClock: g.clock,
		Counts:       g.ctx.Store.Counts(),
	}
}

func (g *GameDirector) decide(o Outcome) {
	if !g.ctx.Playing() {
		return
	}
	g.ctx.Outcome = o
	switch o {
	case OutcomeVictory:
		if g.ctx.Store.Player != nil {
			g.ctx.Store.Player.AddScore(victoryPoints)
		}
		g.ctx.Emit(KindVictory, SeverityGood,
			fmt.Sprintf("Containment achieved: infections held at %d or fewer for %.0fs", ContainThreshold, g.ctx.Difficulty.ContainTarget),
			map[string]any{"casualties": g.ctx.Casualties})
	case OutcomeDefeat:
		g.ctx.Emit(KindDefeat, SeverityWarn,
			fmt.Sprintf("Mission failed: casualties reached %d/%d", g.ctx.Casualties, g.ctx.Difficulty.CasualtyCap),
			map[string]any{"casualties": g.ctx.Casualties})
	}
	sum := g.Summary()
	slog.Info("match decided", "outcome", o, "score", sum.Score, "casualties", sum.Casualties, "elapsed", fmt.Sprintf("%.1f", sum.Elapsed))
	for _, fn := range g.onEnd {
		fn(sum)
	}
}
