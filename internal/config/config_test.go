package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "runs/events.db", cfg.DSN)
	assert.Equal(t, 20, cfg.MaxToolCalls)
	assert.Equal(t, 12, cfg.BatchSize)
	assert.Equal(t, 0.98, cfg.BeliefDecay)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SHIRABE_DB", "/tmp/other.db")
	t.Setenv("SHIRABE_MAX_CALLS", "7")
	t.Setenv("SHIRABE_FAIL_PROB", "0.25")
	t.Setenv("SHIRABE_SEED", "99")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.DSN)
	assert.Equal(t, 7, cfg.MaxToolCalls)
	assert.Equal(t, 0.25, cfg.FailProb)
	assert.Equal(t, int64(99), cfg.Seed)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("SHIRABE_FAIL_PROB", "1.5")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadIgnoresUnparseableValues(t *testing.T) {
	t.Setenv("SHIRABE_MAX_CALLS", "not-a-number")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.MaxToolCalls)
}

func TestConstraintsMapping(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	c := cfg.Constraints()
	require.NoError(t, c.Validate())
	assert.Equal(t, cfg.BatchSize, c.BatchSize)
	assert.Equal(t, cfg.BeliefDecay, c.BeliefDecay)
}
