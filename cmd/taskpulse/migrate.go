package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/phrazzld/taskpulse/internal/platform/postgres"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version]",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(cmd.Context(), func(ctx context.Context, app *application) error {
				db, err := app.database(ctx)
				if err != nil {
					return err
				}
				return postgres.Migrate(ctx, db, args[0], app.logger)
			})
		},
	}
}
