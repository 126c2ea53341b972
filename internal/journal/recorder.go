package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/contagion/internal/config"
	"github.com/talgya/contagion/internal/engine"
)

// snapshotEvery is the journaled snapshot resolution in simulated seconds.
const snapshotEvery = 5.0

// Recorder buffers one match's events and snapshots and writes them to
// the journal in batches. It is registered as an event and snapshot sink,
// so the sink methods only append under a mutex and never touch the DB.
type Recorder struct {
	ID string

	db  *DB
	now func() time.Time

	mu           sync.Mutex
	events       []engine.Event
	snaps        []engine.Snapshot
	lastSnapshot float64
	finished     bool
}

// BeginMatch inserts a match row and returns its recorder.
func (db *DB) BeginMatch(ctx context.Context, d config.Difficulty, seed int64) (*Recorder, error) {
	r := &Recorder{
		ID:           uuid.NewString(),
		db:           db,
		now:          time.Now,
		lastSnapshot: -snapshotEvery,
	}
	m := Match{
		ID:         r.ID,
		Difficulty: d.Key,
		Seed:       seed,
		Population: d.Population,
		StartedAt:  r.now().UnixMilli(),
		Outcome:    engine.OutcomePlaying.String(),
	}
	if err := db.insertMatch(ctx, m); err != nil {
		return nil, err
	}
	slog.Info("journal match started", "match", r.ID, "difficulty", d.Key, "seed", seed)
	return r, nil
}

// Attach subscribes r to sim's event and snapshot streams.
func (r *Recorder) Attach(sim *engine.Simulation) {
	sim.AddEventSink(r)
	sim.AddSnapshotSink(r)
}

// OnEvent buffers e.
func (r *Recorder) OnEvent(e engine.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// OnSnapshot buffers s when at least snapshotEvery seconds have passed
// since the last kept snapshot, or when the match is decided.
func (r *Recorder) OnSnapshot(s engine.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.Time-r.lastSnapshot < snapshotEvery && s.Outcome == engine.OutcomePlaying {
		return
	}
	r.lastSnapshot = s.Time
	r.snaps = append(r.snaps, s)
}

// Pending returns the number of buffered events and snapshots.
func (r *Recorder) Pending() (events, snapshots int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events), len(r.snaps)
}

// Flush writes buffered rows. On failure the batch is put back in front
// of anything buffered since, so a later flush retries it.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	events, snaps := r.events, r.snaps
	r.events, r.snaps = nil, nil
	r.mu.Unlock()

	if err := r.db.SaveEvents(ctx, r.ID, events); err != nil {
		r.requeue(events, snaps)
		return fmt.Errorf("flush events: %w", err)
	}
	if err := r.db.SaveSnapshots(ctx, r.ID, snaps); err != nil {
		r.requeue(nil, snaps)
		return fmt.Errorf("flush snapshots: %w", err)
	}
	return nil
}

func (r *Recorder) requeue(events []engine.Event, snaps []engine.Snapshot) {
	r.mu.Lock()
	r.events = append(events, r.events...)
	r.snaps = append(snaps, r.snaps...)
	r.mu.Unlock()
}

// Run flushes every interval until ctx is cancelled, then flushes once more.
func (r *Recorder) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := r.Flush(context.Background()); err != nil {
				slog.Error("journal final flush failed", "match", r.ID, "error", err)
			}
			return
		case <-ticker.C:
			if err := r.Flush(ctx); err != nil {
				slog.Error("journal flush failed", "match", r.ID, "error", err)
			}
		}
	}
}

// Finish flushes what is left and stamps the match row with its summary.
// Calls after the first are no-ops.
func (r *Recorder) Finish(ctx context.Context, sum engine.Summary) error {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return nil
	}
	r.finished = true
	r.mu.Unlock()

	if err := r.Flush(ctx); err != nil {
		return err
	}
	if err := r.db.finishMatch(ctx, r.ID, sum, r.now()); err != nil {
		return err
	}
	slog.Info("journal match finished", "match", r.ID, "outcome", sum.Outcome, "score", sum.Score)
	return nil
}
