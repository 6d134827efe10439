package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	shirabe "github.com/ashita-ai/shirabe"
	"github.com/ashita-ai/shirabe/internal/model"
)

func newShowCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a run's event history step by step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, logger)
			if err != nil {
				return err
			}
			defer app.Close(cmd.Context())

			events, err := app.Events(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			terminal := false
			for _, e := range events {
				line, err := formatEvent(e)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, line)
				if e.Step == string(model.StepUpdate) {
					terminal = true
				}
			}
			if !terminal {
				fmt.Fprintln(out, "(incomplete: no terminal UPDATE event)")
			}
			return nil
		},
	}
}

func formatEvent(e shirabe.Event) (string, error) {
	decoded, err := model.DecodePayload(model.StepKind(e.Step), e.Payload)
	if err != nil {
		return "", fmt.Errorf("event %d: %w", e.Seq, err)
	}

	prefix := fmt.Sprintf("[%3d] %-10s", e.Seq, e.Step)
	switch p := decoded.(type) {
	case model.HypothesisPayload:
		return fmt.Sprintf("%s %d candidates: %v", prefix, len(p.Candidates), p.Candidates), nil
	case model.DesignPayload:
		return fmt.Sprintf("%s target=%s (%s)", prefix, p.TargetProperty, p.Rationale), nil
	case model.ExecutePayload:
		ok, failed := 0, 0
		for _, r := range p.Results {
			if r.OK {
				ok++
			} else {
				failed++
			}
		}
		return fmt.Sprintf("%s %s via %s: %d ok, %d failed", prefix, p.Property, p.Tool, ok, failed), nil
	case model.InterpretPayload:
		best, bestID := 0.0, ""
		for id, score := range p.UpdatedBeliefs {
			if bestID == "" || score > best || (score == best && id < bestID) {
				best, bestID = score, id
			}
		}
		if bestID == "" {
			return fmt.Sprintf("%s no scored candidates", prefix), nil
		}
		return fmt.Sprintf("%s %d scored, best %s=%.4f", prefix, len(p.UpdatedBeliefs), bestID, best), nil
	case model.UpdatePayload:
		return fmt.Sprintf("%s status=%s reason=%s calls=%d/%d",
			prefix, p.Status, p.Reason, p.Budget.ToolCallsUsed, p.Budget.MaxToolCalls), nil
	default:
		return "", fmt.Errorf("event %d: unhandled step %q", e.Seq, e.Step)
	}
}
