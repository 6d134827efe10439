package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ashita-ai/shirabe/internal/model"
)

// MemoryLog is an in-memory EventLog for tests and embedded use. It provides
// the same ordering guarantees as the durable backends but no persistence.
type MemoryLog struct {
	mu    sync.RWMutex
	runs  map[string][]model.Event
	order []string
}

// NewMemoryLog returns an empty in-memory event log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{runs: make(map[string][]model.Event)}
}

// Append records one event, assigning the next run-local sequence position.
func (m *MemoryLog) Append(ctx context.Context, runID string, step model.StepKind, occurredAt time.Time, payload json.RawMessage) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	events, known := m.runs[runID]
	if !known {
		m.order = append(m.order, runID)
	}
	seq := int64(len(events))

	// Copy the payload: callers may reuse their buffer after Append returns.
	stored := make(json.RawMessage, len(payload))
	copy(stored, payload)

	m.runs[runID] = append(events, model.Event{
		RunID:      runID,
		Seq:        seq,
		Step:       step,
		OccurredAt: occurredAt.UTC(),
		Payload:    stored,
	})
	return seq, nil
}

// Events returns the full ordered history for a run.
func (m *MemoryLog) Events(ctx context.Context, runID string) ([]model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events, ok := m.runs[runID]
	if !ok {
		return nil, fmt.Errorf("storage: run %s: %w", runID, ErrNotFound)
	}
	out := make([]model.Event, len(events))
	copy(out, events)
	return out, nil
}

// Runs lists all run IDs in first-append order.
func (m *MemoryLog) Runs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.order))
	copy(out, m.order)
	return out, nil
}

// Close is a no-op for the in-memory log.
func (m *MemoryLog) Close(ctx context.Context) error { return nil }
