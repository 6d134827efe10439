package grid

import (
	"context"
	"encoding/csv"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/shirabe/internal/model"
	"github.com/ashita-ai/shirabe/internal/storage"
)

func smallConfig() Config {
	return Config{
		Calls:        4,
		BaseSeed:     100,
		FailProbs:    []float64{0.0, 1.0},
		CorruptProbs: []float64{0.0},
		Decays:       []float64{1.0},
		Concurrency:  3,
		Constraints:  model.DefaultConstraints(),
	}
}

func TestRepeatsPolicy(t *testing.T) {
	assert.Equal(t, 10, Repeats(0.0, 0.0))
	assert.Equal(t, 10, Repeats(0.02, 0.0))
	assert.Equal(t, 20, Repeats(0.05, 0.02))
	assert.Equal(t, 30, Repeats(0.1, 0.0))
	assert.Equal(t, 30, Repeats(0.05, 0.05))
}

func TestJobsDeterministicSeeds(t *testing.T) {
	cfg := smallConfig()
	a := cfg.jobs()
	b := cfg.jobs()
	require.Equal(t, a, b)

	// Two conditions at 10 repeats each, consecutive seeds from BaseSeed.
	require.Len(t, a, 20)
	for i, j := range a {
		assert.Equal(t, cfg.BaseSeed+int64(i), j.seed)
	}
}

func TestRunSmallGrid(t *testing.T) {
	cfg := smallConfig()
	log := storage.NewMemoryLog()

	results, err := Run(context.Background(), log, cfg, slog.Default())
	require.NoError(t, err)
	require.Len(t, results, 20)

	// Results are ordered by grid position (seed).
	for i := 1; i < len(results); i++ {
		assert.Less(t, results[i-1].Seed, results[i].Seed)
	}

	for _, r := range results {
		assert.True(t, r.Complete, "grid runs always reach a terminal event")
		assert.Contains(t, []string{model.ReasonConstraintsMet, model.ReasonBudgetExhausted}, r.Termination)
		if r.FailProb == 1.0 {
			assert.Equal(t, model.ReasonBudgetExhausted, r.Termination)
			assert.Nil(t, r.BestScore, "all-failing runs never score a candidate")
		}
	}

	// Every run left a complete event trail in the shared log.
	runs, err := log.Runs(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 20)
}

func TestRunValidatesConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Calls = 0
	_, err := Run(context.Background(), storage.NewMemoryLog(), cfg, slog.Default())
	require.Error(t, err)

	cfg = smallConfig()
	cfg.Decays = nil
	_, err = Run(context.Background(), storage.NewMemoryLog(), cfg, slog.Default())
	require.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	cfg := smallConfig()
	results, err := Run(context.Background(), storage.NewMemoryLog(), cfg, slog.Default())
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, WriteCSV(&buf, results))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(results)+1)
	assert.Equal(t, csvHeader, records[0])

	for i, row := range records[1:] {
		assert.Equal(t, results[i].RunID, row[0])
		assert.Equal(t, results[i].Termination, row[10])
	}
}
