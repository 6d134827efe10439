// Package config loads and validates application configuration from
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ashita-ai/shirabe/internal/model"
)

// Config holds all application configuration.
type Config struct {
	// Event log location: a SQLite file path, or a postgres:// URL.
	DSN string

	// Run defaults.
	MaxToolCalls int
	Seed         int64
	FailProb     float64
	CorruptProb  float64
	BatchSize    int

	// Success bounds and forgetting.
	StabilityMin  float64
	BandgapMin    float64
	BandgapMax    float64
	TargetBandgap float64
	BeliefDecay   float64

	// Grid settings.
	GridCalls       int
	GridConcurrency int

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		DSN:             envStr("SHIRABE_DB", "runs/events.db"),
		MaxToolCalls:    envInt("SHIRABE_MAX_CALLS", 20),
		Seed:            envInt64("SHIRABE_SEED", 0),
		FailProb:        envFloat("SHIRABE_FAIL_PROB", 0),
		CorruptProb:     envFloat("SHIRABE_CORRUPT_PROB", 0),
		BatchSize:       envInt("SHIRABE_BATCH_SIZE", 12),
		StabilityMin:    envFloat("SHIRABE_STABILITY_MIN", -1.2),
		BandgapMin:      envFloat("SHIRABE_BANDGAP_MIN", 1.0),
		BandgapMax:      envFloat("SHIRABE_BANDGAP_MAX", 2.0),
		TargetBandgap:   envFloat("SHIRABE_TARGET_BANDGAP", 1.5),
		BeliefDecay:     envFloat("SHIRABE_BELIEF_DECAY", 0.98),
		GridCalls:       envInt("SHIRABE_GRID_CALLS", 300),
		GridConcurrency: envInt("SHIRABE_GRID_CONCURRENCY", 4),
		OTELEndpoint:    envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:    envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:     envStr("OTEL_SERVICE_NAME", "shirabe"),
		LogLevel:        envStr("SHIRABE_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("config: SHIRABE_DB is required")
	}
	if c.MaxToolCalls <= 0 {
		return fmt.Errorf("config: SHIRABE_MAX_CALLS must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("config: SHIRABE_BATCH_SIZE must be positive")
	}
	if c.FailProb < 0 || c.FailProb > 1 {
		return fmt.Errorf("config: SHIRABE_FAIL_PROB must be in [0,1]")
	}
	if c.CorruptProb < 0 || c.CorruptProb > 1 {
		return fmt.Errorf("config: SHIRABE_CORRUPT_PROB must be in [0,1]")
	}
	if c.BeliefDecay <= 0 || c.BeliefDecay > 1 {
		return fmt.Errorf("config: SHIRABE_BELIEF_DECAY must be in (0,1]")
	}
	if c.GridConcurrency <= 0 {
		return fmt.Errorf("config: SHIRABE_GRID_CONCURRENCY must be positive")
	}
	return nil
}

// Constraints assembles the per-run constraints from the configured bounds.
func (c Config) Constraints() model.Constraints {
	return model.Constraints{
		BatchSize:     c.BatchSize,
		StabilityMin:  c.StabilityMin,
		BandgapMin:    c.BandgapMin,
		BandgapMax:    c.BandgapMax,
		TargetBandgap: c.TargetBandgap,
		BeliefDecay:   c.BeliefDecay,
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
