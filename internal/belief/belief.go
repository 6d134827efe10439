// Package belief holds the in-memory belief state for one investigation run.
//
// The record maps candidate → property → last measured value. Each iteration
// new successful measurements overwrite stored values, then every stored value
// is decayed once, modeling staleness of old evidence. All operations are pure
// functions of the record; there is no hidden state.
package belief

import (
	"math"
	"sort"

	"github.com/ashita-ai/shirabe/internal/model"
)

// Record maps candidate → property name → measured value. A candidate with no
// successful measurements has no entry.
type Record map[string]map[string]float64

// Merge overwrites the stored value of property for every candidate whose
// measurement succeeded. Failed measurements are skipped: they never abort
// the run and leave prior beliefs untouched.
func (r Record) Merge(results map[string]model.MeasurementResult, property string) {
	for candidate, res := range results {
		if !res.OK {
			continue
		}
		rec, ok := r[candidate]
		if !ok {
			rec = make(map[string]float64)
			r[candidate] = rec
		}
		rec[property] = res.Value
	}
}

// Decay multiplies every stored value by factor, exactly once, uniformly
// across properties. A factor of 1.0 is the identity (no forgetting).
func (r Record) Decay(factor float64) {
	for _, rec := range r {
		for k := range rec {
			rec[k] *= factor
		}
	}
}

// Scores computes the scalar score stability − |bandgap − target| for every
// candidate with both properties present. Candidates missing either property
// cannot be scored and are omitted.
func (r Record) Scores(targetBandgap float64) map[string]float64 {
	scored := make(map[string]float64)
	for candidate, rec := range r {
		stability, hasStability := rec[model.PropStability]
		bandgap, hasBandgap := rec[model.PropBandgap]
		if !hasStability || !hasBandgap {
			continue
		}
		scored[candidate] = stability - math.Abs(bandgap-targetBandgap)
	}
	return scored
}

// MeetsConstraints reports whether any candidate in the full record satisfies
// the success bounds. It deliberately scans every stored belief, not the
// truncated top-K view emitted in interpretations.
func (r Record) MeetsConstraints(c model.Constraints) bool {
	for _, rec := range r {
		stability, hasStability := rec[model.PropStability]
		bandgap, hasBandgap := rec[model.PropBandgap]
		if !hasStability || !hasBandgap {
			continue
		}
		if stability >= c.StabilityMin && bandgap >= c.BandgapMin && bandgap <= c.BandgapMax {
			return true
		}
	}
	return false
}

// TopK keeps the k highest-scoring candidates. Ordering is score descending
// with ties broken by candidate ID ascending, so the selection is
// deterministic and reproducible.
func TopK(scores map[string]float64, k int) map[string]float64 {
	if k <= 0 || len(scores) == 0 {
		return map[string]float64{}
	}

	candidates := make([]string, 0, len(scores))
	for c := range scores {
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if scores[candidates[i]] != scores[candidates[j]] {
			return scores[candidates[i]] > scores[candidates[j]]
		}
		return candidates[i] < candidates[j]
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	top := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		top[c] = scores[c]
	}
	return top
}
