package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, _, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.RunMigrations(cfg.Server.MigrationsPath); err != nil {
			return err
		}
		return printVersion(cmd, cfg.Server.MigrationsPath, db.MigrationVersion)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the last migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, _, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.MigrateDown(cfg.Server.MigrationsPath); err != nil {
			return err
		}
		return printVersion(cmd, cfg.Server.MigrationsPath, db.MigrationVersion)
	},
}

var migrateToCmd = &cobra.Command{
	Use:   "to VERSION",
	Short: "Migrate up or down to a specific version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}

		cfg, db, _, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.MigrateToVersion(cfg.Server.MigrationsPath, uint(version)); err != nil {
			return err
		}
		return printVersion(cmd, cfg.Server.MigrationsPath, db.MigrationVersion)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, _, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		return printVersion(cmd, cfg.Server.MigrationsPath, db.MigrationVersion)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateToCmd, migrateVersionCmd)
}

func printVersion(cmd *cobra.Command, path string, version func(string) (uint, bool, error)) error {
	v, dirty, err := version(path)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if v == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No migrations applied.")
		return nil
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema version %d (%s)\n", v, state)
	return nil
}
