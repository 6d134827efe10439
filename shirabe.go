// Package shirabe is the public API for embedding the investigator harness.
//
// Consumers construct an App, launch runs against a shared durable event log,
// and read back per-run histories and summaries:
//
//	app, err := shirabe.New(
//	    shirabe.WithDSN("runs/events.db"),
//	    shirabe.WithLogger(logger),
//	)
//	if err != nil { ... }
//	defer app.Close(ctx)
//
//	runID, err := app.Run(ctx, shirabe.RunSpec{Seed: 42, MaxToolCalls: 300})
//
// The import graph enforces a strict no-cycle rule: shirabe (root) imports
// internal/*, but internal/* never imports shirabe (root). Public types
// (Event, Summary, Measurement) are standalone structs with no internal
// imports; conversion helpers live here because this is the only file that
// sees both sides of the boundary.
package shirabe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/joho/godotenv"

	"github.com/ashita-ai/shirabe/internal/config"
	"github.com/ashita-ai/shirabe/internal/grid"
	"github.com/ashita-ai/shirabe/internal/investigator"
	"github.com/ashita-ai/shirabe/internal/model"
	"github.com/ashita-ai/shirabe/internal/oracle"
	"github.com/ashita-ai/shirabe/internal/replay"
	"github.com/ashita-ai/shirabe/internal/storage"
	"github.com/ashita-ai/shirabe/internal/telemetry"
)

// App owns the event log handle and run configuration. Construct with New(),
// release with Close(). App has no public fields; use New() options.
type App struct {
	cfg          config.Config
	log          storage.EventLog
	source       oracle.Source // nil = synthetic per run
	logger       *slog.Logger
	otelShutdown telemetry.Shutdown
	version      string
}

// New initialises the harness: loads configuration, opens the event log, and
// wires telemetry. It does not start any runs.
func New(opts ...Option) (*App, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.dsn != "" {
		cfg.DSN = o.dsn
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	ctx := context.Background()
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	var log storage.EventLog
	if o.eventLog != nil {
		log = &logAdapter{inner: o.eventLog}
	} else {
		log, err = storage.Open(ctx, cfg.DSN, logger)
		if err != nil {
			_ = otelShutdown(ctx)
			return nil, fmt.Errorf("open event log: %w", err)
		}
	}

	app := &App{
		cfg:          cfg,
		log:          log,
		logger:       logger,
		otelShutdown: otelShutdown,
		version:      version,
	}
	if o.source != nil {
		app.source = &sourceAdapter{inner: o.source}
	}
	return app, nil
}

// DefaultRunSpec returns a RunSpec populated from the environment-configured
// defaults. Callers can override individual fields before passing it to Run.
func (a *App) DefaultRunSpec() RunSpec {
	return RunSpec{
		Seed:         a.cfg.Seed,
		MaxToolCalls: a.cfg.MaxToolCalls,
		FailProb:     a.cfg.FailProb,
		CorruptProb:  a.cfg.CorruptProb,
		BeliefDecay:  a.cfg.BeliefDecay,
	}
}

// Run executes one investigation and returns its run ID. Zero-valued spec
// fields fall back to the configured defaults.
func (a *App) Run(ctx context.Context, spec RunSpec) (string, error) {
	maxCalls := spec.MaxToolCalls
	if maxCalls <= 0 {
		maxCalls = a.cfg.MaxToolCalls
	}
	constraints := a.cfg.Constraints()
	if spec.BeliefDecay != 0 {
		constraints.BeliefDecay = spec.BeliefDecay
	}

	source := a.source
	if source == nil {
		source = oracle.NewSynthetic(spec.Seed, spec.FailProb, spec.CorruptProb)
	}

	inv := investigator.New(a.log, source, a.logger)
	return inv.Run(ctx, investigator.Params{
		Seed:        spec.Seed,
		Budget:      model.Budget{MaxToolCalls: maxCalls},
		Constraints: constraints,
	})
}

// Events returns the full ordered event history for a run.
func (a *App) Events(ctx context.Context, runID string) ([]Event, error) {
	events, err := a.log.Events(ctx, runID)
	if err != nil {
		return nil, err
	}
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = toPublicEvent(e)
	}
	return out, nil
}

// Summary replays a run's events into trajectory-level statistics.
func (a *App) Summary(ctx context.Context, runID string) (Summary, error) {
	events, err := a.log.Events(ctx, runID)
	if err != nil {
		return Summary{}, err
	}
	s, err := replay.Summarize(events)
	if err != nil {
		return Summary{}, err
	}
	return toPublicSummary(s), nil
}

// Runs lists all run IDs in the event log, oldest first.
func (a *App) Runs(ctx context.Context) ([]string, error) {
	return a.log.Runs(ctx)
}

// GridCSV runs a reliability grid against the app's event log and writes the
// per-run results as CSV. Zero-valued spec fields use the standard grid.
func (a *App) GridCSV(ctx context.Context, w io.Writer, spec GridSpec) error {
	cfg := grid.DefaultConfig()
	cfg.Constraints = a.cfg.Constraints()
	if spec.Calls > 0 {
		cfg.Calls = spec.Calls
	}
	if spec.BaseSeed != 0 {
		cfg.BaseSeed = spec.BaseSeed
	}
	if spec.Concurrency > 0 {
		cfg.Concurrency = spec.Concurrency
	}
	if len(spec.FailProbs) > 0 {
		cfg.FailProbs = spec.FailProbs
	}
	if len(spec.CorruptProbs) > 0 {
		cfg.CorruptProbs = spec.CorruptProbs
	}
	if len(spec.Decays) > 0 {
		cfg.Decays = spec.Decays
	}

	results, err := grid.Run(ctx, a.log, cfg, a.logger)
	if err != nil {
		return err
	}
	return grid.WriteCSV(w, results)
}

// Close releases the event log handle and flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	if err := a.log.Close(ctx); err != nil {
		firstErr = err
	}
	if err := a.otelShutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// logAdapter bridges a caller-supplied EventLog to the internal contract.
type logAdapter struct {
	inner EventLog
}

func (l *logAdapter) Append(ctx context.Context, runID string, step model.StepKind, occurredAt time.Time, payload json.RawMessage) (int64, error) {
	return l.inner.Append(ctx, runID, string(step), occurredAt, payload)
}

func (l *logAdapter) Events(ctx context.Context, runID string) ([]model.Event, error) {
	events, err := l.inner.Events(ctx, runID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Event, len(events))
	for i, e := range events {
		out[i] = model.Event{
			RunID:      e.RunID,
			Seq:        e.Seq,
			Step:       model.StepKind(e.Step),
			OccurredAt: e.OccurredAt,
			Payload:    e.Payload,
		}
	}
	return out, nil
}

func (l *logAdapter) Runs(ctx context.Context) ([]string, error) {
	return l.inner.Runs(ctx)
}

func (l *logAdapter) Close(ctx context.Context) error {
	return l.inner.Close(ctx)
}

// sourceAdapter bridges the public MeasurementSource to the internal contract.
type sourceAdapter struct {
	inner MeasurementSource
}

func (s *sourceAdapter) Query(ctx context.Context, candidates []string, property string) (map[string]model.MeasurementResult, error) {
	measured, err := s.inner.Query(ctx, candidates, property)
	if err != nil {
		return nil, err
	}
	results := make(map[string]model.MeasurementResult, len(measured))
	for c, m := range measured {
		if m.OK {
			results[c] = model.Ok(m.Value)
		} else {
			results[c] = model.Failed(m.Error)
		}
	}
	return results, nil
}

func toPublicEvent(e model.Event) Event {
	return Event{
		RunID:      e.RunID,
		Seq:        e.Seq,
		Step:       string(e.Step),
		OccurredAt: e.OccurredAt,
		Payload:    e.Payload,
	}
}

func toPublicSummary(s replay.Summary) Summary {
	out := Summary{
		RunID:          s.RunID,
		TotalSteps:     s.TotalSteps,
		StepCounts:     make(map[string]int, len(s.StepCounts)),
		BestScore:      s.BestScore,
		FirstValidStep: s.FirstValidStep,
		MaxStagnation:  s.MaxStagnation,
		Termination:    s.Termination,
		Complete:       s.Complete,
	}
	for k, v := range s.StepCounts {
		out.StepCounts[string(k)] = v
	}
	if s.Budget != nil {
		out.Budget = &Budget{
			MaxToolCalls:  s.Budget.MaxToolCalls,
			ToolCallsUsed: s.Budget.ToolCallsUsed,
		}
	}
	return out
}
