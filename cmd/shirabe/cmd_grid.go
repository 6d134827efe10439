package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	shirabe "github.com/ashita-ai/shirabe"
)

func newGridCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Run the reliability grid and write per-run results as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, logger)
			if err != nil {
				return err
			}
			defer app.Close(cmd.Context())

			spec := shirabe.GridSpec{}
			spec.Calls, _ = cmd.Flags().GetInt("calls")
			spec.BaseSeed, _ = cmd.Flags().GetInt64("base-seed")
			spec.Concurrency, _ = cmd.Flags().GetInt("concurrency")
			spec.FailProbs, _ = cmd.Flags().GetFloat64Slice("fail-probs")
			spec.CorruptProbs, _ = cmd.Flags().GetFloat64Slice("corrupt-probs")
			spec.Decays, _ = cmd.Flags().GetFloat64Slice("decays")

			outPath, _ := cmd.Flags().GetString("out")
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return fmt.Errorf("grid: create output dir: %w", err)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("grid: create output file: %w", err)
			}
			defer f.Close()

			if err := app.GridCSV(cmd.Context(), f, spec); err != nil {
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("grid: flush output file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().String("out", filepath.Join("experiments", "reliability_results.csv"), "CSV output path")
	cmd.Flags().Int("calls", 0, "tool-call budget per grid run (0 = default)")
	cmd.Flags().Int64("base-seed", 0, "first seed of the sequential seed block (0 = default)")
	cmd.Flags().Int("concurrency", 0, "max concurrent grid runs (0 = default)")
	cmd.Flags().Float64Slice("fail-probs", nil, "failure probability axis (empty = standard grid)")
	cmd.Flags().Float64Slice("corrupt-probs", nil, "corruption probability axis (empty = standard grid)")
	cmd.Flags().Float64Slice("decays", nil, "belief decay axis (empty = standard grid)")
	return cmd
}
