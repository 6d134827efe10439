package model

import "fmt"

// Budget caps the number of measurement-source calls a run may issue.
// ToolCallsUsed is monotonically non-decreasing and incremented before each
// call, so a call that errors still counts against the budget.
type Budget struct {
	MaxToolCalls  int `json:"max_tool_calls"`
	ToolCallsUsed int `json:"tool_calls_used"`
}

// Exhausted reports whether no further measurement calls may be initiated.
func (b Budget) Exhausted() bool {
	return b.ToolCallsUsed >= b.MaxToolCalls
}

// Constraints is the read-only per-run configuration: batch size, success
// bounds, and the belief decay factor. Supplied at run start, never mutated.
type Constraints struct {
	BatchSize     int     `json:"batch_size"`
	StabilityMin  float64 `json:"stability_min"`
	BandgapMin    float64 `json:"bandgap_min"`
	BandgapMax    float64 `json:"bandgap_max"`
	TargetBandgap float64 `json:"target_bandgap"`
	BeliefDecay   float64 `json:"belief_decay"`
}

// DefaultConstraints returns the experiment defaults.
func DefaultConstraints() Constraints {
	return Constraints{
		BatchSize:     12,
		StabilityMin:  -1.2,
		BandgapMin:    1.0,
		BandgapMax:    2.0,
		TargetBandgap: 1.5,
		BeliefDecay:   0.98,
	}
}

// Validate checks that the constraints are usable for a run.
func (c Constraints) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("model: batch size must be positive, got %d", c.BatchSize)
	}
	if c.BeliefDecay <= 0 || c.BeliefDecay > 1 {
		return fmt.Errorf("model: belief decay must be in (0,1], got %g", c.BeliefDecay)
	}
	if c.BandgapMin > c.BandgapMax {
		return fmt.Errorf("model: bandgap_min %g exceeds bandgap_max %g", c.BandgapMin, c.BandgapMax)
	}
	return nil
}
