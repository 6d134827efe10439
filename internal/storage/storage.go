// Package storage provides the append-only event log for investigation runs.
//
// The log is the sole source of truth for everything that happened in a run:
// once Append returns, the event is durable and visible to subsequent reads.
// Sequence positions are assigned by the log, per run, strictly increasing and
// gap-free starting at 0. Concurrent runs write under distinct run IDs without
// corrupting each other's ordering.
package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/ashita-ai/shirabe/internal/model"
)

// EventLog is the append-only store of run events. Append is the only
// mutation; events are immutable once written.
type EventLog interface {
	// Append durably writes one event and returns its assigned sequence
	// position. Any error is fatal to the calling run: the run must not
	// proceed past a failed write.
	Append(ctx context.Context, runID string, step model.StepKind, occurredAt time.Time, payload json.RawMessage) (int64, error)

	// Events returns the full ordered history for a run.
	// Returns ErrNotFound if the run has no events.
	Events(ctx context.Context, runID string) ([]model.Event, error)

	// Runs lists all run IDs present in the log, oldest first.
	Runs(ctx context.Context) ([]string, error)

	Close(ctx context.Context) error
}

// Open selects a backend by DSN. Postgres URLs get the pgx-backed log;
// anything else is treated as a SQLite database path.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (EventLog, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return OpenPostgres(ctx, dsn, logger)
	}
	return OpenSQLite(ctx, dsn, logger)
}
