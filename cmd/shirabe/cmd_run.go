package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newRunCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one investigation run and print its run ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, logger)
			if err != nil {
				return err
			}
			defer app.Close(cmd.Context())

			spec := app.DefaultRunSpec()
			if cmd.Flags().Changed("calls") {
				spec.MaxToolCalls, _ = cmd.Flags().GetInt("calls")
			}
			if cmd.Flags().Changed("seed") {
				spec.Seed, _ = cmd.Flags().GetInt64("seed")
			}
			if cmd.Flags().Changed("fail-prob") {
				spec.FailProb, _ = cmd.Flags().GetFloat64("fail-prob")
			}
			if cmd.Flags().Changed("corrupt-prob") {
				spec.CorruptProb, _ = cmd.Flags().GetFloat64("corrupt-prob")
			}
			if cmd.Flags().Changed("belief-decay") {
				spec.BeliefDecay, _ = cmd.Flags().GetFloat64("belief-decay")
			}

			runID, err := app.Run(cmd.Context(), spec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run_id: %s\n", runID)
			return nil
		},
	}

	cmd.Flags().Int("calls", 20, "tool-call budget for the run")
	cmd.Flags().Int64("seed", 0, "deterministic seed for candidates and measurements")
	cmd.Flags().Float64("fail-prob", 0, "per-candidate measurement failure probability")
	cmd.Flags().Float64("corrupt-prob", 0, "per-candidate noise corruption probability")
	cmd.Flags().Float64("belief-decay", 0.98, "multiplicative belief decay per interpretation")
	return cmd
}
