// Package journal records match history to SQLite: one row per match,
// its event stream, and periodic snapshots. Matches are never loaded
// back into a running simulation.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/contagion/internal/engine"
)

// DB wraps a SQLite connection holding the match journal.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates the journal at path, creating its parent
// directory if needed.
func Open(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000"
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps writes serialized.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		difficulty TEXT NOT NULL,
		seed INTEGER NOT NULL,
		population INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER,
		outcome TEXT NOT NULL DEFAULT 'playing',
		score INTEGER NOT NULL DEFAULT 0,
		casualties INTEGER NOT NULL DEFAULT 0,
		elapsed REAL NOT NULL DEFAULT 0,
		contain_clock REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS match_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		match_id TEXT NOT NULL REFERENCES matches(id),
		time REAL NOT NULL,
		tick INTEGER NOT NULL,
		kind TEXT NOT NULL,
		severity TEXT NOT NULL,
		message TEXT NOT NULL,
		meta_json TEXT
	);

	CREATE TABLE IF NOT EXISTS match_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		match_id TEXT NOT NULL REFERENCES matches(id),
		time REAL NOT NULL,
		healthy INTEGER NOT NULL,
		infected INTEGER NOT NULL,
		recovering INTEGER NOT NULL,
		immune INTEGER NOT NULL,
		deceased INTEGER NOT NULL,
		rt REAL NOT NULL,
		casualties INTEGER NOT NULL,
		score INTEGER NOT NULL,
		contain_progress REAL NOT NULL,
		active_event TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_match_events_match ON match_events(match_id, id);
	CREATE INDEX IF NOT EXISTS idx_match_snapshots_match ON match_snapshots(match_id, time);
	CREATE INDEX IF NOT EXISTS idx_matches_started ON matches(started_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Match is one row of match history.
type Match struct {
	ID           string  `db:"id" json:"id"`
	Difficulty   string  `db:"difficulty" json:"difficulty"`
	Seed         int64   `db:"seed" json:"seed"`
	Population   int     `db:"population" json:"population"`
	StartedAt    int64   `db:"started_at" json:"started_at"` // Unix milliseconds
	EndedAt      *int64  `db:"ended_at" json:"ended_at,omitempty"`
	Outcome      string  `db:"outcome" json:"outcome"`
	Score        int64   `db:"score" json:"score"`
	Casualties   int     `db:"casualties" json:"casualties"`
	Elapsed      float64 `db:"elapsed" json:"elapsed"`
	ContainClock float64 `db:"contain_clock" json:"contain_clock"`
}

// EventRow is a journaled event.
type EventRow struct {
	Time     float64 `db:"time" json:"time"`
	Tick     uint64  `db:"tick" json:"tick"`
	Kind     string  `db:"kind" json:"kind"`
	Severity string  `db:"severity" json:"severity"`
	Message  string  `db:"message" json:"message"`
	MetaJSON *string `db:"meta_json" json:"meta,omitempty"`
}

// SnapshotRow is a journaled aggregate snapshot.
type SnapshotRow struct {
	Time            float64 `db:"time" json:"time"`
	Healthy         int     `db:"healthy" json:"healthy"`
	Infected        int     `db:"infected" json:"infected"`
	Recovering      int     `db:"recovering" json:"recovering"`
	Immune          int     `db:"immune" json:"immune"`
	Deceased        int     `db:"deceased" json:"deceased"`
	Rt              float64 `db:"rt" json:"rt"`
	Casualties      int     `db:"casualties" json:"casualties"`
	Score           int64   `db:"score" json:"score"`
	ContainProgress float64 `db:"contain_progress" json:"contain_progress"`
	ActiveEvent     *string `db:"active_event" json:"active_event,omitempty"`
}

func (db *DB) insertMatch(ctx context.Context, m Match) error {
	_, err := db.conn.NamedExecContext(ctx, `INSERT INTO matches
		(id, difficulty, seed, population, started_at, outcome)
		VALUES (:id, :difficulty, :seed, :population, :started_at, :outcome)`, m)
	if err != nil {
		return fmt.Errorf("insert match %s: %w", m.ID, err)
	}
	return nil
}

func (db *DB) finishMatch(ctx context.Context, id string, sum engine.Summary, endedAt time.Time) error {
	_, err := db.conn.ExecContext(ctx, `UPDATE matches
		SET ended_at = ?, outcome = ?, score = ?, casualties = ?, elapsed = ?, contain_clock = ?
		WHERE id = ?`,
		endedAt.UnixMilli(), sum.Outcome.String(), sum.Score, sum.Casualties, sum.Elapsed, sum.ContainClock, id)
	if err != nil {
		return fmt.Errorf("finish match %s: %w", id, err)
	}
	return nil
}

// SaveEvents appends events for a match.
func (db *DB) SaveEvents(ctx context.Context, matchID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO match_events
		(match_id, time, tick, kind, severity, message, meta_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		var meta *string
		if len(e.Meta) > 0 {
			b, err := json.Marshal(e.Meta)
			if err != nil {
				return fmt.Errorf("encode meta for %s event: %w", e.Kind, err)
			}
			s := string(b)
			meta = &s
		}
		if _, err := stmt.ExecContext(ctx, matchID, e.Time, e.Tick, string(e.Kind), string(e.Severity), e.Message, meta); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return tx.Commit()
}

// SaveSnapshots appends snapshots for a match.
func (db *DB) SaveSnapshots(ctx context.Context, matchID string, snaps []engine.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, s := range snaps {
		var active *string
		if s.ActiveEvent != "" {
			active = &s.ActiveEvent
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO match_snapshots
			(match_id, time, healthy, infected, recovering, immune, deceased, rt, casualties, score, contain_progress, active_event)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			matchID, s.Time, s.Counts.Healthy, s.Counts.Infected, s.Counts.Recovering, s.Counts.Immune, s.Counts.Deceased,
			s.Rt, s.Casualties, s.Score, s.ContainProgress, active,
		)
		if err != nil {
			return fmt.Errorf("insert snapshot at %.1fs: %w", s.Time, err)
		}
	}
	return tx.Commit()
}

// Matches returns the most recent matches, newest first.
func (db *DB) Matches(ctx context.Context, limit int) ([]Match, error) {
	var out []Match
	err := db.conn.SelectContext(ctx, &out,
		"SELECT * FROM matches ORDER BY started_at DESC, id LIMIT ?", limit)
	return out, err
}

// Match looks up one match by ID.
func (db *DB) Match(ctx context.Context, id string) (Match, error) {
	var m Match
	err := db.conn.GetContext(ctx, &m, "SELECT * FROM matches WHERE id = ?", id)
	return m, err
}

// Events returns the last limit events of a match, oldest first.
func (db *DB) Events(ctx context.Context, matchID string, limit int) ([]EventRow, error) {
	var out []EventRow
	err := db.conn.SelectContext(ctx, &out, `SELECT time, tick, kind, severity, message, meta_json FROM (
		SELECT id, time, tick, kind, severity, message, meta_json FROM match_events
		WHERE match_id = ? ORDER BY id DESC LIMIT ?
	) ORDER BY id`, matchID, limit)
	return out, err
}

// Snapshots returns every journaled snapshot of a match in time order.
func (db *DB) Snapshots(ctx context.Context, matchID string) ([]SnapshotRow, error) {
	var out []SnapshotRow
	err := db.conn.SelectContext(ctx, &out, `SELECT time, healthy, infected, recovering, immune, deceased,
		rt, casualties, score, contain_progress, active_event
		FROM match_snapshots WHERE match_id = ? ORDER BY time`, matchID)
	return out, err
}
