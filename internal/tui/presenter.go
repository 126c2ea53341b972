package tui

import (
	"time"

	"github.com/talgya/contagion/internal/engine"
)

const flashFor = 400 * time.Millisecond

// Presenter tracks which entities have a visual and which changed
// recently. The engine calls it from inside a tick and the view reads
// it from the runner's frame callback, so both sides hold the runner lock.
type Presenter struct {
	now     func() time.Time
	visuals map[engine.EntityRef]struct{}
	flashes map[engine.EntityRef]time.Time
}

// NewPresenter creates an empty presenter.
func NewPresenter() *Presenter {
	return &Presenter{
		now:     time.Now,
		visuals: make(map[engine.EntityRef]struct{}),
		flashes: make(map[engine.EntityRef]time.Time),
	}
}

// SpawnVisual registers a new entity.
func (p *Presenter) SpawnVisual(ref engine.EntityRef) {
	p.visuals[ref] = struct{}{}
}

// ResyncVisual marks ref as changed so the view highlights it briefly.
func (p *Presenter) ResyncVisual(ref engine.EntityRef) {
	p.flashes[ref] = p.now().Add(flashFor)
}

// RemoveVisual forgets ref.
func (p *Presenter) RemoveVisual(ref engine.EntityRef) {
	delete(p.visuals, ref)
	delete(p.flashes, ref)
}

// Visible reports whether ref has a live visual.
func (p *Presenter) Visible(ref engine.EntityRef) bool {
	_, ok := p.visuals[ref]
	return ok
}

// Flashing reports whether ref changed within the flash window.
func (p *Presenter) Flashing(ref engine.EntityRef) bool {
	until, ok := p.flashes[ref]
	if !ok {
		return false
	}
	if !p.now().Before(until) {
		delete(p.flashes, ref)
		return false
	}
	return true
}

// Count returns the number of live visuals of kind.
func (p *Presenter) Count(kind engine.EntityKind) int {
	n := 0
	for ref := range p.visuals {
		if ref.Kind == kind {
			n++
		}
	}
	return n
}
