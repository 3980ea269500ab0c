package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/phrazzld/taskpulse/internal/consumer"
	"github.com/phrazzld/taskpulse/internal/domain"
	"github.com/phrazzld/taskpulse/internal/platform/postgres"
)

func deadLettersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deadletters",
		Short: "Inspect events the workers gave up on",
	}
	cmd.AddCommand(deadLetterListCmd())
	cmd.AddCommand(deadLetterPruneCmd())
	return cmd
}

func deadLetterListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent dead letters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(cmd.Context(), func(ctx context.Context, app *application) error {
				db, err := app.database(ctx)
				if err != nil {
					return err
				}

				letters, err := postgres.NewPostgresDeadLetterStore(db, app.logger).List(ctx, limit)
				if err != nil {
					return fmt.Errorf("failed to list dead letters: %w", err)
				}

				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				renderDeadLetters(tw, letters)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of dead letters to show")
	return cmd
}

func deadLetterPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete dead letters older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(cmd.Context(), func(ctx context.Context, app *application) error {
				db, err := app.database(ctx)
				if err != nil {
					return err
				}

				pruner, err := consumer.NewPruner(
					postgres.NewPostgresDeadLetterStore(db, app.logger),
					app.config.DeadLetter.Retention,
					app.config.DeadLetter.PruneSchedule,
					app.logger,
				)
				if err != nil {
					return err
				}

				n, err := pruner.PruneOnce(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pruned %d dead letters\n", n)
				return nil
			})
		},
	}
}

// maxReasonWidth truncates long failure reasons so rows stay on one line.
const maxReasonWidth = 60

func renderDeadLetters(tw table.Writer, letters []domain.DeadLetter) {
	tw.AppendHeader(table.Row{"ID", "Consumer", "Topic", "Event", "Type", "Attempts", "Reason", "Created"})
	for _, dl := range letters {
		tw.AppendRow(table.Row{
			dl.ID,
			dl.Consumer,
			dl.Topic,
			dl.EventID,
			dl.EventType,
			dl.Attempts,
			truncate(dl.Reason, maxReasonWidth),
			dl.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	tw.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
