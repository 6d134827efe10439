// Package grid drives reliability experiments: many investigator runs across
// a parameter grid of failure probability, corruption probability, and belief
// decay, with per-run outcomes summarized from the event log.
package grid

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ashita-ai/shirabe/internal/investigator"
	"github.com/ashita-ai/shirabe/internal/model"
	"github.com/ashita-ai/shirabe/internal/oracle"
	"github.com/ashita-ai/shirabe/internal/replay"
	"github.com/ashita-ai/shirabe/internal/storage"
)

// Config describes one grid experiment.
type Config struct {
	Calls        int
	BaseSeed     int64
	FailProbs    []float64
	CorruptProbs []float64
	Decays       []float64
	Concurrency  int
	Constraints  model.Constraints
}

// DefaultConfig returns the standard reliability grid.
func DefaultConfig() Config {
	return Config{
		Calls:        300,
		BaseSeed:     1,
		FailProbs:    []float64{0.0, 0.02, 0.05, 0.1},
		CorruptProbs: []float64{0.0, 0.02, 0.05},
		Decays:       []float64{1.0, 0.98},
		Concurrency:  4,
		Constraints:  model.DefaultConstraints(),
	}
}

// Validate checks the grid configuration.
func (c Config) Validate() error {
	if c.Calls <= 0 {
		return fmt.Errorf("grid: calls must be positive, got %d", c.Calls)
	}
	if len(c.FailProbs) == 0 || len(c.CorruptProbs) == 0 || len(c.Decays) == 0 {
		return fmt.Errorf("grid: every parameter axis needs at least one value")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("grid: concurrency must be positive, got %d", c.Concurrency)
	}
	return nil
}

// Condition is one cell of the parameter grid.
type Condition struct {
	FailProb    float64
	CorruptProb float64
	BeliefDecay float64
}

// Result is the outcome of a single run under one condition.
type Result struct {
	replay.Summary
	Condition
	Calls int
	Rep   int
	Seed  int64
}

// Repeats returns the adaptive repetition count for a condition: more repeats
// where stochasticity is highest.
func Repeats(failProb, corruptProb float64) int {
	severity := failProb + corruptProb
	switch {
	case severity < 0.03:
		return 10
	case severity < 0.08:
		return 20
	default:
		return 30
	}
}

// job is one scheduled run, with a deterministic seed derived from its
// position in the grid so repeated experiments reproduce exactly.
type job struct {
	index int
	cond  Condition
	rep   int
	seed  int64
}

func (c Config) jobs() []job {
	var jobs []job
	seed := c.BaseSeed
	for _, fail := range c.FailProbs {
		for _, corrupt := range c.CorruptProbs {
			for _, decay := range c.Decays {
				cond := Condition{FailProb: fail, CorruptProb: corrupt, BeliefDecay: decay}
				for rep := 0; rep < Repeats(fail, corrupt); rep++ {
					jobs = append(jobs, job{index: len(jobs), cond: cond, rep: rep, seed: seed})
					seed++
				}
			}
		}
	}
	return jobs
}

// Run executes the whole grid against one shared event log, at most
// cfg.Concurrency runs in flight. Results come back ordered by grid position.
// A failed run carries its full invocation parameters in the error so a batch
// of experiments can be diagnosed without re-running it.
func Run(ctx context.Context, log storage.EventLog, cfg Config, logger *slog.Logger) ([]Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	jobs := cfg.jobs()
	logger.Info("grid starting",
		"conditions", len(cfg.FailProbs)*len(cfg.CorruptProbs)*len(cfg.Decays),
		"runs", len(jobs),
		"calls_per_run", cfg.Calls,
		"concurrency", cfg.Concurrency)

	var (
		mu      sync.Mutex
		results []Result
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for _, j := range jobs {
		g.Go(func() error {
			res, err := runOne(ctx, log, cfg, j, logger)
			if err != nil {
				return fmt.Errorf("grid: run failed (calls=%d fail=%g corrupt=%g decay=%g rep=%d seed=%d): %w",
					cfg.Calls, j.cond.FailProb, j.cond.CorruptProb, j.cond.BeliefDecay, j.rep, j.seed, err)
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Seed < results[j].Seed })
	logger.Info("grid finished", "runs", len(results))
	return results, nil
}

func runOne(ctx context.Context, log storage.EventLog, cfg Config, j job, logger *slog.Logger) (Result, error) {
	constraints := cfg.Constraints
	constraints.BeliefDecay = j.cond.BeliefDecay

	inv := investigator.New(log, oracle.NewSynthetic(j.seed, j.cond.FailProb, j.cond.CorruptProb), logger)
	runID, err := inv.Run(ctx, investigator.Params{
		Seed:        j.seed,
		Budget:      model.Budget{MaxToolCalls: cfg.Calls},
		Constraints: constraints,
	})
	if err != nil {
		return Result{}, err
	}

	events, err := log.Events(ctx, runID)
	if err != nil {
		return Result{}, err
	}
	summary, err := replay.Summarize(events)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Summary:   summary,
		Condition: j.cond,
		Calls:     cfg.Calls,
		Rep:       j.rep,
		Seed:      j.seed,
	}, nil
}
