package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/pkordes/trip-planner/backend/internal/config"
	"github.com/pkordes/trip-planner/backend/migrations"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply, roll back, or list the embedded database migrations",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)
	ctx := cmd.Context()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("create database pool: %w", err)
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := migrations.NewProvider(db)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	switch args[0] {
	case "up":
		results, err := provider.Up(ctx)
		logResults(ctx, logger, results)
		if err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	case "down":
		result, err := provider.Down(ctx)
		if result != nil {
			logResults(ctx, logger, []*goose.MigrationResult{result})
		}
		if err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("migrate status: %w", err)
		}
		for _, s := range statuses {
			logger.InfoContext(ctx, "migration",
				"version", s.Source.Version, "path", s.Source.Path, "state", string(s.State))
		}
	}
	return nil
}

func logResults(ctx context.Context, log *slog.Logger, results []*goose.MigrationResult) {
	for _, r := range results {
		if r.Error != nil {
			log.ErrorContext(ctx, "migration failed", "version", r.Source.Version, "path", r.Source.Path, "error", r.Error)
			continue
		}
		log.InfoContext(ctx, "migration applied",
			"version", r.Source.Version, "path", r.Source.Path,
			"direction", r.Direction, "duration_ms", r.Duration.Milliseconds())
	}
}
