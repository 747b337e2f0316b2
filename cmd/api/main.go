// Package main is the entry point for the trip planner API.
// Its sole responsibility is wiring dependencies together and dispatching
// the CLI commands. No business logic belongs here.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "Trip planner API server",
	Long: `Serves the trip planner REST and live WebSocket API, applies database
migrations, and issues development access tokens.

Running without a subcommand starts the server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already printed the error; this line is for log aggregators.
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// newLogger builds the JSON logger every command uses.
// Unknown levels fall back to info.
func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
}
