package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pulcova-api/internal/models"
	"github.com/pulcova-api/internal/repository"
	"github.com/pulcova-api/internal/service"
	"github.com/spf13/cobra"
)

var (
	flagSeedFile string
	flagSeedJSON bool
	flagSeedMigr bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a YAML content fixture",
	Long: `Validate and upsert the categories, tags, technologies and content of a
YAML fixture. Records are matched by slug, so re-running a fixture updates
entries in place. Invalid records are reported and skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, log, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		if flagSeedMigr {
			if err := db.RunMigrations(cfg.Server.MigrationsPath); err != nil {
				return err
			}
		}

		repos := repository.New(db)
		seeder := service.NewSeedService(repos.Taxonomy, repos.Content, log)

		report, err := seeder.LoadFile(context.Background(), flagSeedFile)
		if err != nil {
			return fmt.Errorf("seeding %s: %w", flagSeedFile, err)
		}

		if flagSeedJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printReport(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&flagSeedFile, "file", "f", "", "fixture file to load")
	seedCmd.Flags().BoolVar(&flagSeedJSON, "json", false, "print the report as JSON")
	seedCmd.Flags().BoolVar(&flagSeedMigr, "migrate", false, "apply pending migrations first")
	_ = seedCmd.MarkFlagRequired("file")
}

func printReport(w io.Writer, report *models.SeedReport) {
	fmt.Fprintf(w, "Loaded %d categories, %d tags, %d technologies, %d content items, %d code snippets in %dms.\n",
		report.Categories, report.Tags, report.Technologies, report.Content, report.Snippets, report.DurationMs)
	if report.Skipped > 0 {
		fmt.Fprintf(w, "Skipped %d invalid record(s).\n", report.Skipped)
	}
	for _, e := range report.Errors {
		if e.Value != "" {
			fmt.Fprintf(w, "  %s[%d].%s: %s (%s)\n", e.Section, e.Index, e.Field, e.Message, e.Value)
		} else {
			fmt.Fprintf(w, "  %s[%d].%s: %s\n", e.Section, e.Index, e.Field, e.Message)
		}
	}
}
