package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newListCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded run IDs, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd, logger)
			if err != nil {
				return err
			}
			defer app.Close(cmd.Context())

			runs, err := app.Runs(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range runs {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}
