// Package model defines the core domain types for Shirabe.
//
// An investigation run is an ordered, append-only sequence of events. Each
// event carries a payload whose schema is fixed by the step kind, so the
// single heterogeneous event stream decodes into strongly typed records.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StepKind identifies the loop step an event was emitted from.
type StepKind string

const (
	StepHypothesis StepKind = "HYPOTHESIS"
	StepDesign     StepKind = "DESIGN"
	StepExecute    StepKind = "EXECUTE"
	StepInterpret  StepKind = "INTERPRET"
	StepUpdate     StepKind = "UPDATE"
)

// Valid reports whether k is a known step kind.
func (k StepKind) Valid() bool {
	switch k {
	case StepHypothesis, StepDesign, StepExecute, StepInterpret, StepUpdate:
		return true
	}
	return false
}

// Terminal reasons recorded in UPDATE payloads.
const (
	ReasonConstraintsMet  = "constraints_met"
	ReasonBudgetExhausted = "budget_exhausted"
)

// Measured property names the synthetic source understands.
const (
	PropStability = "stability"
	PropBandgap   = "bandgap"
)

// Event is an append-only record in the event log. Source of truth for
// everything that happened in a run. Never mutated or deleted.
//
// Seq is assigned by the log: run-local, strictly increasing, gap-free,
// starting at 0. OccurredAt is informational only and never used for ordering.
type Event struct {
	RunID      string          `json:"run_id"`
	Seq        int64           `json:"sequence_position"`
	Step       StepKind        `json:"step_kind"`
	OccurredAt time.Time       `json:"timestamp"`
	Payload    json.RawMessage `json:"payload"`
}

// ErrMalformedPayload marks a data-integrity failure during replay: an event
// whose step kind is unknown or whose payload does not match the schema for
// its kind. Distinct from an incomplete run, which is not an error.
var ErrMalformedPayload = errors.New("model: malformed event payload")

// DecodePayload decodes an event payload into the typed record for its step
// kind. Errors wrap ErrMalformedPayload so replay consumers can classify them
// as data-integrity failures.
func DecodePayload(step StepKind, raw json.RawMessage) (any, error) {
	switch step {
	case StepHypothesis:
		var p HypothesisPayload
		if err := decodeInto(step, raw, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, fmt.Errorf("%w: %s missing id", ErrMalformedPayload, step)
		}
		return p, nil
	case StepDesign:
		var p DesignPayload
		if err := decodeInto(step, raw, &p); err != nil {
			return nil, err
		}
		if p.ID == "" || p.HypothesisID == "" {
			return nil, fmt.Errorf("%w: %s missing id", ErrMalformedPayload, step)
		}
		return p, nil
	case StepExecute:
		var p ExecutePayload
		if err := decodeInto(step, raw, &p); err != nil {
			return nil, err
		}
		if p.Results == nil {
			return nil, fmt.Errorf("%w: %s missing results", ErrMalformedPayload, step)
		}
		return p, nil
	case StepInterpret:
		var p InterpretPayload
		if err := decodeInto(step, raw, &p); err != nil {
			return nil, err
		}
		if p.UpdatedBeliefs == nil {
			return nil, fmt.Errorf("%w: %s missing updated_beliefs", ErrMalformedPayload, step)
		}
		return p, nil
	case StepUpdate:
		var p UpdatePayload
		if err := decodeInto(step, raw, &p); err != nil {
			return nil, err
		}
		if p.Reason == "" {
			return nil, fmt.Errorf("%w: %s missing reason", ErrMalformedPayload, step)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: unknown step kind %q", ErrMalformedPayload, step)
	}
}

func decodeInto(step StepKind, raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: decode %s payload: %v", ErrMalformedPayload, step, err)
	}
	return nil
}
