package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/talgya/contagion/internal/agents"
	"github.com/talgya/contagion/internal/engine"
	"github.com/talgya/contagion/internal/world"
)

const (
	sidebarWidth = 34
	cellHeight   = 2.0 // World units per row; terminal cells are about twice as tall as wide
	feedLines    = 8
)

var (
	styleBase      = tcell.StyleDefault
	styleDim       = styleBase.Foreground(tcell.ColorGray)
	styleHealthy   = styleBase.Foreground(tcell.ColorGreen)
	styleInfected  = styleBase.Foreground(tcell.ColorRed).Bold(true)
	styleRecover   = styleBase.Foreground(tcell.ColorYellow)
	styleImmune    = styleBase.Foreground(tcell.ColorBlue)
	stylePlayer    = styleBase.Foreground(tcell.ColorWhite).Bold(true)
	styleBarrier   = styleBase.Foreground(tcell.ColorDarkCyan)
	stylePulse     = styleBase.Foreground(tcell.ColorAqua)
	stylePickup    = styleBase.Foreground(tcell.ColorFuchsia)
	styleHeading   = styleBase.Bold(true)
	styleOverlay   = styleBase.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	severityStyles = map[engine.Severity]tcell.Style{
		engine.SeverityInfo:   styleBase,
		engine.SeverityGood:   styleHealthy,
		engine.SeverityWarn:   styleRecover,
		engine.SeverityInfect: styleInfected,
	}
)

// View renders a match onto a tcell screen. The camera follows the player.
type View struct {
	screen    tcell.Screen
	presenter *Presenter
}

// NewView creates a view drawing to screen.
func NewView(screen tcell.Screen, presenter *Presenter) *View {
	return &View{screen: screen, presenter: presenter}
}

// camera maps world coordinates to map cells.
type camera struct {
	center world.Vec2
	w, h   int
}

func (c camera) cell(p world.Vec2) (x, y int, ok bool) {
	x = int(math.Round(p.X-c.center.X)) + c.w/2
	y = int(math.Round((p.Y-c.center.Y)/cellHeight)) + c.h/2
	return x, y, x >= 0 && x < c.w && y >= 0 && y < c.h
}

// Draw renders the full frame. overlay, when non-empty, is drawn as a
// centred box on top.
func (v *View) Draw(sim *engine.Simulation, overlay []string) {
	s := v.screen
	s.Clear()
	width, height := s.Size()
	mapW := max(0, width-sidebarWidth-1)

	store := sim.Ctx.Store
	cam := camera{w: mapW, h: height}
	if store.Player != nil {
		cam.center = store.Player.Pos
	}

	v.drawBounds(sim.Ctx.Arena, cam)
	for _, b := range store.Barriers() {
		v.drawRing(cam, b.Pos, b.Radius, '°', styleBarrier)
	}
	for _, p := range store.Pulses() {
		v.drawRing(cam, p.Origin, p.Radius, '*', stylePulse)
	}
	for _, pk := range store.Pickups() {
		if pk.Collected {
			continue
		}
		r := '+'
		if pk.Kind == agents.PickupBarrier {
			r = '#'
		}
		v.put(cam, pk.Pos, r, stylePickup)
	}
	for _, a := range store.Agents() {
		v.put(cam, a.Pos, agentGlyph(a), v.agentStyle(a))
	}
	if p := store.Player; p != nil {
		v.put(cam, p.Pos.Add(p.Facing.Scale(2*cellHeight)), '·', stylePlayer)
		v.put(cam, p.Pos, '@', stylePlayer)
	}

	v.drawSidebar(sim, mapW+1, height)
	if len(overlay) > 0 {
		v.drawOverlay(overlay, width, height)
	}
	s.Show()
}

func agentGlyph(a *agents.Agent) rune {
	switch a.State {
	case agents.StateInfected:
		return 'X'
	case agents.StateRecovering:
		return 'r'
	case agents.StateImmune:
		return 'i'
	case agents.StateDeceased:
		return '†'
	}
	return 'o'
}

func (v *View) agentStyle(a *agents.Agent) tcell.Style {
	var st tcell.Style
	switch a.State {
	case agents.StateInfected:
		st = styleInfected
	case agents.StateRecovering:
		st = styleRecover
	case agents.StateImmune:
		st = styleImmune
	case agents.StateDeceased:
		st = styleDim
	default:
		st = styleHealthy
	}
	if a.TagTimer > 0 || v.presenter.Flashing(engine.AgentRef(a.ID)) {
		st = st.Reverse(true)
	}
	if a.Trapped {
		st = st.Underline(true)
	}
	return st
}

func (v *View) put(cam camera, p world.Vec2, r rune, st tcell.Style) {
	if x, y, ok := cam.cell(p); ok {
		v.screen.SetContent(x, y, r, nil, st)
	}
}

func (v *View) drawRing(cam camera, center world.Vec2, radius float64, r rune, st tcell.Style) {
	steps := max(12, int(radius*6))
	for i := 0; i < steps; i++ {
		th := 2 * math.Pi * float64(i) / float64(steps)
		v.put(cam, center.Add(world.V(math.Cos(th)*radius, math.Sin(th)*radius)), r, st)
	}
}

func (v *View) drawBounds(arena world.Arena, cam camera) {
	h := arena.HalfExtent
	for x := -h; x <= h; x++ {
		v.put(cam, world.V(x, -h), '-', styleDim)
		v.put(cam, world.V(x, h), '-', styleDim)
	}
	for y := -h; y <= h; y += cellHeight {
		v.put(cam, world.V(-h, y), '|', styleDim)
		v.put(cam, world.V(h, y), '|', styleDim)
	}
}

func (v *View) text(x, y int, st tcell.Style, s string) {
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, st)
		x++
	}
}

func (v *View) drawSidebar(sim *engine.Simulation, x, height int) {
	for y := 0; y < height; y++ {
		v.screen.SetContent(x-1, y, '│', nil, styleDim)
	}
	snap := sim.Snapshot()
	ctx := sim.Ctx
	row := 0
	line := func(st tcell.Style, format string, args ...any) {
		if row < height {
			v.text(x, row, st, fmt.Sprintf(format, args...))
		}
		row++
	}

	line(styleHeading, "OUTBREAK · %s", ctx.Difficulty.Label)
	line(styleBase, "Time %5.1fs   Score %d", snap.Time, snap.Score)
	row++
	if p := ctx.Store.Player; p != nil {
		line(styleBase, "Vaccines %d  [F] %s", snap.Vaccines, ready(p.Cooldowns.Heal))
		line(styleBase, "Barriers %d  [E] %s", snap.Barriers, ready(p.Cooldowns.Barrier))
		line(styleBase, "Scan         [Q] %s", ready(p.Cooldowns.Scan))
	}
	row++
	c := snap.Counts
	line(styleHealthy, "Healthy    %3d", c.Healthy)
	line(styleInfected, "Infected   %3d", c.Infected)
	line(styleRecover, "Recovering %3d", c.Recovering)
	line(styleImmune, "Immune     %3d", c.Immune)
	line(styleDim, "Deceased   %3d / %d", snap.Casualties, snap.CasualtyCap)
	line(styleBase, "Rt ≈ %.2f", snap.Rt)
	line(styleBase, "Contain %s", bar(snap.ContainProgress, 16))
	if a, ok := sim.Events.Active(); ok {
		line(styleRecover, "! %s %.0fs", a.Spec.Name, a.Remaining)
	} else {
		row++
	}
	row++

	events := sim.RecentEvents(feedLines)
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		msg := []rune(e.Message)
		if len(msg) > sidebarWidth-1 {
			msg = append(msg[:sidebarWidth-2], '…')
		}
		line(severityStyles[e.Severity], "%s", string(msg))
	}

	if row < height-1 {
		v.text(x, height-1, styleDim, "WASD move  ←↑→↓ aim  P pause  Esc quit")
	}
}

func (v *View) drawOverlay(lines []string, width, height int) {
	w := 0
	for _, l := range lines {
		w = max(w, len([]rune(l)))
	}
	w += 4
	h := len(lines) + 2
	x0 := max(0, (width-w)/2)
	y0 := max(0, (height-h)/2)
	for y := y0; y < y0+h && y < height; y++ {
		for x := x0; x < x0+w && x < width; x++ {
			v.screen.SetContent(x, y, ' ', nil, styleOverlay)
		}
	}
	for i, l := range lines {
		v.text(x0+2, y0+1+i, styleOverlay, l)
	}
}

func ready(cooldown float64) string {
	if cooldown <= 0 {
		return "ready"
	}
	return fmt.Sprintf("%.1fs", cooldown)
}

func bar(frac float64, width int) string {
	n := int(math.Round(world.Clamp01(frac) * float64(width)))
	return "[" + strings.Repeat("█", n) + strings.Repeat("·", width-n) + "]"
}
