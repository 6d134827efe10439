package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	shirabe "github.com/ashita-ai/shirabe"
)

// Set via -ldflags at release time.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Best effort: absence of a .env file is fine.
	_ = godotenv.Load()

	logger := newLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd(logger)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "shirabe:", err)
		return 1
	}
	return 0
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shirabe",
		Short: "Replayable hypothesis-driven investigation runs",
		Long: `shirabe runs a closed investigation loop (hypothesize, design, measure,
interpret) against a synthetic measurement backend, records every step in a
durable append-only event log, and replays recorded runs into trajectory
statistics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("db", "", "event log location: SQLite file path or postgres:// URL (default $SHIRABE_DB)")

	cmd.AddCommand(
		newRunCmd(logger),
		newListCmd(logger),
		newShowCmd(logger),
		newStatsCmd(logger),
		newGridCmd(logger),
		newVersionCmd(),
	)
	return cmd
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("SHIRABE_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openApp builds the embeddable app from the command's flags. Callers own the
// returned app and must Close it.
func openApp(cmd *cobra.Command, logger *slog.Logger) (*shirabe.App, error) {
	dsn, _ := cmd.Flags().GetString("db")
	return shirabe.New(
		shirabe.WithDSN(dsn),
		shirabe.WithLogger(logger),
		shirabe.WithVersion(version),
	)
}
