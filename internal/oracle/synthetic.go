package oracle

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/ashita-ai/shirabe/internal/model"
)

// noiseStdDev is the standard deviation of the zero-mean Gaussian noise added
// to corrupted measurements.
const noiseStdDev = 0.75

// Synthetic simulates an unreliable measurement source. Each candidate gets an
// independent deterministic random stream derived from (seed, candidate), so
// the same candidate under the same seed yields the same draws regardless of
// call order or batch composition. That property is what makes reliability
// experiments comparable across repeated grid runs.
type Synthetic struct {
	seed        int64
	failProb    float64
	corruptProb float64
}

// NewSynthetic returns a synthetic source. failProb is the per-candidate
// probability of a measurement failing outright; corruptProb the probability
// of Gaussian noise being added to a successful value.
func NewSynthetic(seed int64, failProb, corruptProb float64) *Synthetic {
	return &Synthetic{seed: seed, failProb: failProb, corruptProb: corruptProb}
}

// Query measures one property for the whole candidate batch.
func (s *Synthetic) Query(ctx context.Context, candidates []string, property string) (map[string]model.MeasurementResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("oracle: query: %w", err)
	}

	results := make(map[string]model.MeasurementResult, len(candidates))
	for _, candidate := range candidates {
		results[candidate] = s.measure(candidate, property)
	}
	return results, nil
}

func (s *Synthetic) measure(candidate, property string) model.MeasurementResult {
	rng := s.candidateRNG(candidate)

	// Fixed draw order keeps a candidate's stream stable across calls:
	// fail check, base value, corrupt check, then noise if corrupted.
	if rng.Float64() < s.failProb {
		return model.Failed("synthetic_failure")
	}

	base := rng.Float64()*2 - 1

	var value float64
	switch property {
	case model.PropStability:
		value = base
	case model.PropBandgap:
		value = 2.5 * math.Abs(base)
	default:
		return model.Failed("unknown_property:" + property)
	}

	if rng.Float64() < s.corruptProb {
		value += rng.NormFloat64() * noiseStdDev
	}
	return model.Ok(value)
}

// candidateRNG derives the candidate's deterministic stream. The seed is a
// 64-bit FNV-1a hash of "<seed>:<candidate>": an explicit, stable hash rather
// than the process-randomized built-in, so draws reproduce across processes.
func (s *Synthetic) candidateRNG(candidate string) *rand.Rand {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:%s", s.seed, candidate)
	return rand.New(rand.NewSource(int64(h.Sum64()))) //nolint:gosec // deterministic simulation, not crypto
}
