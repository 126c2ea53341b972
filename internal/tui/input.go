// Package tui is the terminal front end: keyboard input, a presenter
// that tracks visual changes, and a tcell renderer.
package tui

import (
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/talgya/contagion/internal/engine"
	"github.com/talgya/contagion/internal/world"
)

// Command is a key press handled by the app rather than the simulation.
type Command uint8

const (
	CmdNone Command = iota
	CmdQuit
	CmdPause
	CmdConfirm
)

// Terminals report presses, not releases. A movement or aim key counts
// as held for this long after its last (auto-repeated) press.
const holdFor = 250 * time.Millisecond

// Keyboard turns key presses into per-frame engine.Input samples.
// HandleKey runs on the event goroutine and Sample on the runner
// goroutine.
type Keyboard struct {
	mu  sync.Mutex
	now func() time.Time

	move      world.Vec2
	moveUntil time.Time
	sprint    bool
	aim       world.Vec2
	aimUntil  time.Time

	// One-shot actions, cleared by the next Sample.
	heal, barrier, scan bool
}

// NewKeyboard creates a keyboard reading the wall clock.
func NewKeyboard() *Keyboard {
	return &Keyboard{now: time.Now}
}

var moveKeys = map[rune]world.Vec2{
	'w': world.V(0, -1), 'a': world.V(-1, 0), 's': world.V(0, 1), 'd': world.V(1, 0),
}

var aimKeys = map[tcell.Key]world.Vec2{
	tcell.KeyUp: world.V(0, -1), tcell.KeyLeft: world.V(-1, 0),
	tcell.KeyDown: world.V(0, 1), tcell.KeyRight: world.V(1, 0),
}

// HandleKey records a key press. Movement keys in upper case sprint.
func (k *Keyboard) HandleKey(ev *tcell.EventKey) Command {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return CmdQuit
	case tcell.KeyEnter:
		return CmdConfirm
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	now := k.now()

	if dir, ok := aimKeys[ev.Key()]; ok {
		k.aim, k.aimUntil = dir, now.Add(holdFor)
		return CmdNone
	}
	if ev.Key() != tcell.KeyRune {
		return CmdNone
	}
	r := ev.Rune()
	lower := r
	if r >= 'A' && r <= 'Z' {
		lower = r + ('a' - 'A')
	}
	if dir, ok := moveKeys[lower]; ok {
		k.move, k.moveUntil = dir, now.Add(holdFor)
		k.sprint = r != lower
		return CmdNone
	}
	switch lower {
	case 'f':
		k.heal = true
	case 'e':
		k.barrier = true
	case 'q':
		k.scan = true
	case 'p':
		return CmdPause
	}
	return CmdNone
}

// Sample returns the input for one frame and clears one-shot actions.
func (k *Keyboard) Sample() engine.Input {
	k.mu.Lock()
	defer k.mu.Unlock()
	now := k.now()
	in := engine.Input{Heal: k.heal, Barrier: k.barrier, Scan: k.scan}
	k.heal, k.barrier, k.scan = false, false, false
	if now.Before(k.moveUntil) {
		in.Move = k.move
		in.Sprint = k.sprint
	}
	if now.Before(k.aimUntil) {
		in.Aim = k.aim
	}
	return in
}
