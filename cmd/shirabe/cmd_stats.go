package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	shirabe "github.com/ashita-ai/shirabe"
)

func newStatsCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <run-id>",
		Short: "Replay a run into trajectory statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, logger)
			if err != nil {
				return err
			}
			defer app.Close(cmd.Context())

			summary, err := app.Summary(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			printSummary(cmd, summary)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "emit the summary as JSON")
	return cmd
}

func printSummary(cmd *cobra.Command, s shirabe.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run:          %s\n", s.RunID)
	fmt.Fprintf(out, "total steps:  %d\n", s.TotalSteps)

	steps := make([]string, 0, len(s.StepCounts))
	for k := range s.StepCounts {
		steps = append(steps, k)
	}
	sort.Strings(steps)
	for _, k := range steps {
		fmt.Fprintf(out, "  %-11s %d\n", k, s.StepCounts[k])
	}

	if s.BestScore != nil {
		fmt.Fprintf(out, "best score:   %.4f\n", *s.BestScore)
	} else {
		fmt.Fprintln(out, "best score:   n/a")
	}
	if s.FirstValidStep != nil {
		fmt.Fprintf(out, "first valid:  step %d\n", *s.FirstValidStep)
	}
	fmt.Fprintf(out, "stagnation:   %d\n", s.MaxStagnation)
	fmt.Fprintf(out, "termination:  %s\n", s.Termination)
	if s.Budget != nil {
		fmt.Fprintf(out, "budget:       %d/%d tool calls\n", s.Budget.ToolCallsUsed, s.Budget.MaxToolCalls)
	}
}
