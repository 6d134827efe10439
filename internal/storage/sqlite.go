package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ashita-ai/shirabe/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS events (
  id       INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id   TEXT NOT NULL,
  seq      INTEGER NOT NULL,
  step     TEXT NOT NULL,
  ts       TEXT NOT NULL,
  payload  TEXT NOT NULL,
  UNIQUE (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id);
`

// SQLiteLog is the file-backed event log. It is the default backend: a single
// database file shared by concurrent runs, including runs in other processes.
// WAL journaling allows concurrent readers while a writer commits; appends
// take an immediate transaction so sequence assignment and the insert are one
// atomic unit.
type SQLiteLog struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the event log at path.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteLog, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create log dir: %w", err)
		}
	}

	dsn := path + "?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}

	// One writer connection; concurrent in-process runs serialize here,
	// cross-process writers serialize on the database lock.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: init sqlite schema: %w", err)
	}

	return &SQLiteLog{db: db, path: path, logger: logger}, nil
}

// Append writes one event, assigning the next run-local sequence position.
func (s *SQLiteLog) Append(ctx context.Context, runID string, step model.StepKind, occurredAt time.Time, payload json.RawMessage) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("storage: begin append tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq)+1, 0) FROM events WHERE run_id = ?`, runID,
	).Scan(&seq); err != nil {
		return 0, fmt.Errorf("storage: next sequence for run %s: %w", runID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO events (run_id, seq, step, ts, payload) VALUES (?, ?, ?, ?, ?)`,
		runID, seq, string(step), occurredAt.UTC().Format(time.RFC3339Nano), string(payload),
	); err != nil {
		return 0, fmt.Errorf("storage: insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage: commit event: %w", err)
	}
	return seq, nil
}

// Events returns the full ordered history for a run.
func (s *SQLiteLog) Events(ctx context.Context, runID string) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, seq, step, ts, payload FROM events WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage: query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var (
			e       model.Event
			step    string
			ts      string
			payload string
		)
		if err := rows.Scan(&e.RunID, &e.Seq, &step, &ts, &payload); err != nil {
			return nil, fmt.Errorf("storage: scan event: %w", err)
		}
		e.Step = model.StepKind(step)
		e.Payload = json.RawMessage(payload)
		if e.OccurredAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("storage: parse event timestamp %q: %w", ts, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate events: %w", err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("storage: run %s: %w", runID, ErrNotFound)
	}
	return events, nil
}

// Runs lists all run IDs in first-append order.
func (s *SQLiteLog) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id FROM events GROUP BY run_id ORDER BY MIN(id) ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage: query runs: %w", err)
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("storage: scan run id: %w", err)
		}
		runs = append(runs, id)
	}
	return runs, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteLog) Close(ctx context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("storage: close sqlite: %w", err)
	}
	return nil
}
