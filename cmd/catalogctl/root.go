package main

import (
	"fmt"
	"os"

	"github.com/pulcova-api/internal/config"
	"github.com/pulcova-api/internal/database"
	"github.com/pulcova-api/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagMigrations string
	flagLogLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Operate the Pulcova content catalog",
	Long: `catalogctl manages the catalog database behind the Pulcova API.

It applies schema migrations, loads YAML content fixtures and prints
catalog statistics. Connection settings come from the same environment
variables (and .env file) as the API server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagMigrations, "migrations", "", "path to the migrations directory (default: MIGRATIONS_PATH)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level: debug, info, warn, error")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(statsCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// connect loads configuration and opens the database
func connect() (*config.Config, *database.DB, zerolog.Logger, error) {
	log := logger.NewWithWriter(os.Stderr, flagLogLevel, "pretty")

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, log, fmt.Errorf("loading config: %w", err)
	}
	if flagMigrations != "" {
		cfg.Server.MigrationsPath = flagMigrations
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, nil, log, fmt.Errorf("connecting to database: %w", err)
	}
	return cfg, db, log, nil
}
