package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/phrazzld/taskpulse/internal/api"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the reminder callback endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(cmd.Context(), func(ctx context.Context, app *application) error {
				health := api.NewHealthHandler(app.config.Server.ServiceName, nil, app.logger)
				callback := api.NewCallbackHandler(app.publisher(), app.logger)

				return app.run(ctx, api.NewRouter(health, callback, app.logger))
			})
		},
	}
}
