package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/pulcova-api/internal/models"
	"github.com/pulcova-api/internal/repository"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show visible content and engagement counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, _, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		repos := repository.New(db)
		counts, err := repos.Catalog.CountVisibleByKind(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("counting content: %w", err)
		}
		leads, err := repos.Lead.Count(ctx)
		if err != nil {
			return fmt.Errorf("counting leads: %w", err)
		}
		subscribers, err := repos.Newsletter.CountActive(ctx)
		if err != nil {
			return fmt.Errorf("counting subscribers: %w", err)
		}
		messages, err := repos.Contact.Count(ctx)
		if err != nil {
			return fmt.Errorf("counting contact messages: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Visible content")
		for _, kind := range models.Kinds {
			fmt.Fprintf(w, "  %s\t%d\n", kind, counts[kind])
		}
		fmt.Fprintln(w, "Engagement")
		fmt.Fprintf(w, "  leads\t%d\n", leads)
		fmt.Fprintf(w, "  subscribers\t%d\n", subscribers)
		fmt.Fprintf(w, "  contact messages\t%d\n", messages)
		return w.Flush()
	},
}
