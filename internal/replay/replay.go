// Package replay computes run statistics purely from persisted events.
//
// Anything reported here is reproducible by any reader given only the event
// log; the loop's internal state is never consulted. The package
// distinguishes two failure classes deliberately: a run without a terminal
// UPDATE event is merely incomplete (killed mid-run, still being written),
// while a gap in the sequence, an unknown step kind, or a payload that does
// not decode is a data-integrity error and is reported as such.
package replay

import (
	"fmt"

	"github.com/ashita-ai/shirabe/internal/model"
)

// TerminationIncomplete is reported for runs lacking a terminal UPDATE event.
const TerminationIncomplete = "incomplete"

// Summary holds trajectory-level metrics for one run.
type Summary struct {
	RunID      string                 `json:"run_id"`
	TotalSteps int                    `json:"total_steps"`
	StepCounts map[model.StepKind]int `json:"step_counts"`

	// BestScore is the highest reported belief score ever seen; nil when no
	// interpretation reported a scored candidate.
	BestScore *float64 `json:"best_score,omitempty"`

	// FirstValidStep is the event position of the first interpretation with
	// at least one scored candidate; nil if none.
	FirstValidStep *int `json:"first_valid_step,omitempty"`

	// MaxStagnation is the longest streak of interpretations that failed to
	// improve on the best score.
	MaxStagnation int `json:"max_stagnation"`

	Termination string        `json:"termination"`
	Complete    bool          `json:"complete"`
	Budget      *model.Budget `json:"budget,omitempty"`
}

// Summarize scans a run's events in order and derives its summary.
func Summarize(events []model.Event) (Summary, error) {
	if len(events) == 0 {
		return Summary{}, fmt.Errorf("replay: no events to summarize")
	}

	s := Summary{
		RunID:       events[0].RunID,
		TotalSteps:  len(events),
		StepCounts:  make(map[model.StepKind]int),
		Termination: TerminationIncomplete,
	}

	stagnation := 0
	for i, e := range events {
		if e.RunID != s.RunID {
			return Summary{}, fmt.Errorf("replay: event %d belongs to run %s, want %s", i, e.RunID, s.RunID)
		}
		if e.Seq != int64(i) {
			return Summary{}, fmt.Errorf("%w: sequence gap at position %d (got %d)",
				model.ErrMalformedPayload, i, e.Seq)
		}

		decoded, err := model.DecodePayload(e.Step, e.Payload)
		if err != nil {
			return Summary{}, fmt.Errorf("replay: event %d: %w", i, err)
		}
		s.StepCounts[e.Step]++

		switch p := decoded.(type) {
		case model.InterpretPayload:
			if len(p.UpdatedBeliefs) == 0 {
				continue
			}
			best := maxScore(p.UpdatedBeliefs)
			if s.BestScore == nil || best > *s.BestScore {
				s.BestScore = &best
				if s.FirstValidStep == nil {
					pos := i
					s.FirstValidStep = &pos
				}
				stagnation = 0
			} else {
				stagnation++
				if stagnation > s.MaxStagnation {
					s.MaxStagnation = stagnation
				}
			}
		case model.UpdatePayload:
			if i != len(events)-1 {
				return Summary{}, fmt.Errorf("%w: terminal UPDATE at position %d is not last",
					model.ErrMalformedPayload, i)
			}
			budget := p.Budget
			s.Termination = p.Reason
			s.Complete = true
			s.Budget = &budget
		}
	}

	return s, nil
}

func maxScore(beliefs map[string]float64) float64 {
	first := true
	var best float64
	for _, v := range beliefs {
		if first || v > best {
			best = v
			first = false
		}
	}
	return best
}
