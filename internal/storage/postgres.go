package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashita-ai/shirabe/internal/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS events (
  id       BIGSERIAL PRIMARY KEY,
  run_id   TEXT NOT NULL,
  seq      BIGINT NOT NULL,
  step     TEXT NOT NULL,
  ts       TIMESTAMPTZ NOT NULL,
  payload  JSONB NOT NULL,
  UNIQUE (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id);
`

// PostgresLog is the pgx-backed event log, for deployments where many grid
// workers on different hosts share one log.
type PostgresLog struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres connects to the database, bootstraps the schema, and returns
// a ready event log.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresLog, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping pool: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: init postgres schema: %w", err)
	}
	return &PostgresLog{pool: pool, logger: logger}, nil
}

// Append writes one event, assigning the next run-local sequence position.
// A per-run advisory lock serializes assignment across connections and
// processes, so concurrent runs never interleave a run's sequence.
func (p *PostgresLog) Append(ctx context.Context, runID string, step model.StepKind, occurredAt time.Time, payload json.RawMessage) (int64, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("storage: begin append tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, runID); err != nil {
		return 0, fmt.Errorf("storage: lock run %s: %w", runID, err)
	}

	var seq int64
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq)+1, 0) FROM events WHERE run_id = $1`, runID,
	).Scan(&seq); err != nil {
		return 0, fmt.Errorf("storage: next sequence for run %s: %w", runID, err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO events (run_id, seq, step, ts, payload) VALUES ($1, $2, $3, $4, $5)`,
		runID, seq, string(step), occurredAt.UTC(), payload,
	); err != nil {
		return 0, fmt.Errorf("storage: insert event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("storage: commit event: %w", err)
	}
	return seq, nil
}

// Events returns the full ordered history for a run.
func (p *PostgresLog) Events(ctx context.Context, runID string) ([]model.Event, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT run_id, seq, step, ts, payload FROM events WHERE run_id = $1 ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage: query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var (
			e    model.Event
			step string
		)
		if err := rows.Scan(&e.RunID, &e.Seq, &step, &e.OccurredAt, &e.Payload); err != nil {
			return nil, fmt.Errorf("storage: scan event: %w", err)
		}
		e.Step = model.StepKind(step)
		e.OccurredAt = e.OccurredAt.UTC()
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
func (p *PostgresLog) Runs(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx,
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

// Close shuts down the connection pool.
func (p *PostgresLog) Close(ctx context.Context) error {
	p.pool.Close()
	return nil
}
