// Package oracle defines the measurement-source capability used by the
// investigator loop, plus the synthetic implementation used for reliability
// experiments.
package oracle

import (
	"context"

	"github.com/ashita-ai/shirabe/internal/model"
)

// Source answers property queries for a batch of candidates in one call.
// Queries are synchronous and have no side effects beyond the return value.
// Per-candidate failures are reported inside the result map, not as an error;
// a non-nil error means the whole batch could not be measured.
type Source interface {
	Query(ctx context.Context, candidates []string, property string) (map[string]model.MeasurementResult, error)
}
