package shirabe

import (
	"context"
	"encoding/json"
	"time"
)

// RunSpec configures one investigation run. Zero values fall back to the
// environment-configured defaults.
type RunSpec struct {
	Seed         int64
	MaxToolCalls int
	FailProb     float64
	CorruptProb  float64
	BeliefDecay  float64
}

// GridSpec configures a reliability grid experiment. Empty axes use the
// standard grid.
type GridSpec struct {
	Calls        int
	BaseSeed     int64
	Concurrency  int
	FailProbs    []float64
	CorruptProbs []float64
	Decays       []float64
}

// Event is the public view of one persisted run event.
// No internal package imports, so it is safe to use from outside the module.
type Event struct {
	RunID      string          `json:"run_id"`
	Seq        int64           `json:"sequence_position"`
	Step       string          `json:"step_kind"`
	OccurredAt time.Time       `json:"timestamp"`
	Payload    json.RawMessage `json:"payload"`
}

// Budget is the public view of a run's tool-call budget.
type Budget struct {
	MaxToolCalls  int `json:"max_tool_calls"`
	ToolCallsUsed int `json:"tool_calls_used"`
}

// Summary is the public view of a run's trajectory statistics.
type Summary struct {
	RunID          string         `json:"run_id"`
	TotalSteps     int            `json:"total_steps"`
	StepCounts     map[string]int `json:"step_counts"`
	BestScore      *float64       `json:"best_score,omitempty"`
	FirstValidStep *int           `json:"first_valid_step,omitempty"`
	MaxStagnation  int            `json:"max_stagnation"`
	Termination    string         `json:"termination"`
	Complete       bool           `json:"complete"`
	Budget         *Budget        `json:"budget,omitempty"`
}

// Measurement is one candidate's outcome from a measurement source.
type Measurement struct {
	OK    bool
	Value float64
	Error string
}

// MeasurementSource is the extension point for replacing the synthetic
// measurement backend with a real one. Query answers one property for a whole
// candidate batch in a single synchronous call; per-candidate failures are
// reported inside the map, and a non-nil error fails the whole batch.
type MeasurementSource interface {
	Query(ctx context.Context, candidates []string, property string) (map[string]Measurement, error)
}

// EventLog is the extension point for replacing the built-in SQLite/Postgres
// backends with a custom durable store. Append must assign gap-free sequence
// numbers per run starting at zero, and must be safe for concurrent use.
type EventLog interface {
	Append(ctx context.Context, runID, step string, occurredAt time.Time, payload json.RawMessage) (int64, error)
	Events(ctx context.Context, runID string) ([]Event, error)
	Runs(ctx context.Context) ([]string, error)
	Close(ctx context.Context) error
}
