package model

import (
	"encoding/json"
	"fmt"
)

// HypothesisPayload captures the payload for HYPOTHESIS events. Created once
// per loop iteration and never mutated; the subsequent design and
// interpretation reference it by ID.
type HypothesisPayload struct {
	ID          string   `json:"id"`
	Statement   string   `json:"statement"`
	Candidates  []string `json:"candidates"`
	Assumptions []string `json:"assumptions"`
}

// DesignPayload captures the payload for DESIGN events. Selects exactly one
// property to measure this round.
type DesignPayload struct {
	ID             string   `json:"id"`
	HypothesisID   string   `json:"hypothesis_id"`
	TargetProperty string   `json:"target_property"`
	Candidates     []string `json:"candidates"`
	Rationale      string   `json:"rationale"`
}

// ExecutePayload captures the payload for EXECUTE events: the raw per-candidate
// results of one batched measurement call, recorded verbatim.
type ExecutePayload struct {
	Tool     string                       `json:"tool"`
	Property string                       `json:"property"`
	Results  map[string]MeasurementResult `json:"results"`
}

// InterpretPayload captures the payload for INTERPRET events. UpdatedBeliefs
// holds the top-scored candidates only; the stop condition is evaluated over
// the full belief record, not this truncated view.
type InterpretPayload struct {
	ID             string             `json:"id"`
	HypothesisID   string             `json:"hypothesis_id"`
	UpdatedBeliefs map[string]float64 `json:"updated_beliefs"`
}

// UpdatePayload captures the payload for the single terminal UPDATE event.
type UpdatePayload struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
	Budget Budget `json:"budget"`
}

// MeasurementResult is the per-candidate outcome of one measurement call.
// On the wire it is {"ok":true,"value":…} or {"ok":false,"error":…}.
type MeasurementResult struct {
	OK    bool
	Value float64
	Error string
}

// Ok returns a successful measurement result.
func Ok(value float64) MeasurementResult {
	return MeasurementResult{OK: true, Value: value}
}

// Failed returns a failed measurement result with the given reason.
func Failed(reason string) MeasurementResult {
	return MeasurementResult{OK: false, Error: reason}
}

func (r MeasurementResult) MarshalJSON() ([]byte, error) {
	if r.OK {
		return json.Marshal(struct {
			OK    bool    `json:"ok"`
			Value float64 `json:"value"`
		}{true, r.Value})
	}
	return json.Marshal(struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}{false, r.Error})
}

func (r *MeasurementResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		OK    bool     `json:"ok"`
		Value *float64 `json:"value"`
		Error string   `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.OK && raw.Value == nil {
		return fmt.Errorf("measurement result: ok without value")
	}
	r.OK = raw.OK
	r.Error = raw.Error
	if raw.Value != nil {
		r.Value = *raw.Value
	}
	return nil
}
