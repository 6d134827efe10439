// Package investigator runs the closed hypothesis → design → execute →
// interpret loop against a measurement source, recording one event per step
// in the append-only log.
//
// The loop is fully sequential: each step's log write completes before the
// next step begins, and the only blocking operations are the log append and
// the measurement call. A run is reproducible from its seed alone: candidate
// batches, record IDs, and synthetic measurements all derive from it.
package investigator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ashita-ai/shirabe/internal/belief"
	"github.com/ashita-ai/shirabe/internal/model"
	"github.com/ashita-ai/shirabe/internal/oracle"
	"github.com/ashita-ai/shirabe/internal/storage"
)

// topKReport caps how many scored candidates an interpretation reports.
// The stop condition never looks at this truncated view.
const topKReport = 10

const toolName = "oracle.query_property"

// Params configures one run.
type Params struct {
	Seed        int64
	Budget      model.Budget
	Constraints model.Constraints
}

// Validate checks that the parameters are usable.
func (p Params) Validate() error {
	if p.Budget.MaxToolCalls <= 0 {
		return fmt.Errorf("investigator: max tool calls must be positive, got %d", p.Budget.MaxToolCalls)
	}
	if p.Budget.ToolCallsUsed != 0 {
		return fmt.Errorf("investigator: budget must start unused, got %d", p.Budget.ToolCallsUsed)
	}
	return p.Constraints.Validate()
}

// Investigator drives runs. It owns no mutable state between runs; the event
// log handle is injected and explicitly closed by the caller.
type Investigator struct {
	log    storage.EventLog
	source oracle.Source
	logger *slog.Logger

	tracer    trace.Tracer
	toolCalls metric.Int64Counter
	runsDone  metric.Int64Counter
}

// New wires an investigator against a log and a measurement source.
func New(log storage.EventLog, source oracle.Source, logger *slog.Logger) *Investigator {
	inv := &Investigator{
		log:    log,
		source: source,
		logger: logger,
		tracer: otel.Tracer("shirabe/investigator"),
	}

	meter := otel.Meter("shirabe/investigator")
	var err error
	if inv.toolCalls, err = meter.Int64Counter("shirabe.tool_calls",
		metric.WithDescription("Measurement-source calls issued.")); err != nil {
		logger.Warn("investigator: create tool call counter", "error", err)
	}
	if inv.runsDone, err = meter.Int64Counter("shirabe.runs_completed",
		metric.WithDescription("Runs that reached a terminal UPDATE event.")); err != nil {
		logger.Warn("investigator: create run counter", "error", err)
	}
	return inv
}

// Run executes one investigation to its terminal UPDATE event and returns the
// run ID. Any log append failure aborts the run immediately: without a durable
// record the loop must not proceed.
func (inv *Investigator) Run(ctx context.Context, p Params) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	runID := uuid.NewString()
	ctx, span := inv.tracer.Start(ctx, "investigator.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int64("run.seed", p.Seed),
			attribute.Int("run.max_tool_calls", p.Budget.MaxToolCalls),
		))
	defer span.End()

	reason, err := inv.loop(ctx, runID, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run aborted")
		return "", err
	}

	span.SetAttributes(attribute.String("run.termination", reason))
	if inv.runsDone != nil {
		inv.runsDone.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
	return runID, nil
}

func (inv *Investigator) loop(ctx context.Context, runID string, p Params) (string, error) {
	rng := rand.New(rand.NewSource(p.Seed)) //nolint:gosec // seeded for reproducibility, not crypto
	beliefs := belief.Record{}
	budget := p.Budget
	c := p.Constraints

	inv.logger.Info("run starting",
		"run_id", runID,
		"seed", p.Seed,
		"max_tool_calls", budget.MaxToolCalls,
		"belief_decay", c.BeliefDecay)

	for iteration := 0; !budget.Exhausted(); iteration++ {
		candidates := proposeCandidates(rng, c.BatchSize)

		hypothesis := model.HypothesisPayload{
			ID:         newID(rng),
			Statement:  "Some candidates satisfy stability and bandgap constraints.",
			Candidates: candidates,
			Assumptions: []string{
				"The measurement source provides noisy but informative values.",
			},
		}
		if err := inv.emit(ctx, runID, model.StepHypothesis, hypothesis); err != nil {
			return "", err
		}

		// Fixed alternation, not adaptive: stability on even iterations,
		// bandgap on odd.
		property := model.PropStability
		if iteration%2 == 1 {
			property = model.PropBandgap
		}
		design := model.DesignPayload{
			ID:             newID(rng),
			HypothesisID:   hypothesis.ID,
			TargetProperty: property,
			Candidates:     candidates,
			Rationale:      fmt.Sprintf("Measure %s to reduce uncertainty.", property),
		}
		if err := inv.emit(ctx, runID, model.StepDesign, design); err != nil {
			return "", err
		}

		// The call is charged before it is issued, so a call that errors
		// still counts against the budget.
		budget.ToolCallsUsed++
		if inv.toolCalls != nil {
			inv.toolCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("property", property)))
		}
		results, err := inv.source.Query(ctx, candidates, property)
		if err != nil {
			// A batch-level measurement failure is non-fatal: the budget is
			// already spent and the iteration simply learns nothing.
			inv.logger.Warn("measurement call failed",
				"run_id", runID, "property", property, "error", err)
			results = map[string]model.MeasurementResult{}
		}
		if err := inv.emit(ctx, runID, model.StepExecute, model.ExecutePayload{
			Tool:     toolName,
			Property: property,
			Results:  results,
		}); err != nil {
			return "", err
		}

		// Observed-then-forget: merge the new measurements first, then decay
		// everything uniformly, including the values just written.
		beliefs.Merge(results, property)
		beliefs.Decay(c.BeliefDecay)

		scores := beliefs.Scores(c.TargetBandgap)
		if err := inv.emit(ctx, runID, model.StepInterpret, model.InterpretPayload{
			ID:             newID(rng),
			HypothesisID:   hypothesis.ID,
			UpdatedBeliefs: belief.TopK(scores, topKReport),
		}); err != nil {
			return "", err
		}

		// The stop check sees the full decayed record, not the truncated
		// top-K view that was just emitted.
		if beliefs.MeetsConstraints(c) {
			if err := inv.terminate(ctx, runID, model.ReasonConstraintsMet, budget); err != nil {
				return "", err
			}
			inv.logger.Info("run finished",
				"run_id", runID, "reason", model.ReasonConstraintsMet,
				"tool_calls_used", budget.ToolCallsUsed)
			return model.ReasonConstraintsMet, nil
		}
	}

	if err := inv.terminate(ctx, runID, model.ReasonBudgetExhausted, budget); err != nil {
		return "", err
	}
	inv.logger.Info("run finished",
		"run_id", runID, "reason", model.ReasonBudgetExhausted,
		"tool_calls_used", budget.ToolCallsUsed)
	return model.ReasonBudgetExhausted, nil
}

func (inv *Investigator) terminate(ctx context.Context, runID, reason string, budget model.Budget) error {
	return inv.emit(ctx, runID, model.StepUpdate, model.UpdatePayload{
		Status: "done",
		Reason: reason,
		Budget: budget,
	})
}

func (inv *Investigator) emit(ctx context.Context, runID string, step model.StepKind, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("investigator: encode %s payload: %w", step, err)
	}
	if _, err := inv.log.Append(ctx, runID, step, time.Now().UTC(), raw); err != nil {
		return fmt.Errorf("investigator: append %s event: %w", step, err)
	}
	return nil
}
