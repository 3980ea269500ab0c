package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phrazzld/taskpulse/internal/api"
	"github.com/phrazzld/taskpulse/internal/consumer"
	"github.com/phrazzld/taskpulse/internal/events"
	"github.com/phrazzld/taskpulse/internal/notify"
	"github.com/phrazzld/taskpulse/internal/platform/gateway"
	"github.com/phrazzld/taskpulse/internal/platform/postgres"
	"github.com/phrazzld/taskpulse/internal/recurring"
)

const (
	recurringWorkerName = "recurring"
	notifierWorkerName  = "notifier"
)

func recurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recurring",
		Short: "Generate the next occurrence of completed recurring tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(cmd.Context(), func(ctx context.Context, app *application) error {
				db, err := app.database(ctx)
				if err != nil {
					return err
				}

				worker := recurring.NewWorker(
					postgres.NewPostgresTaskStore(db, app.logger),
					app.reminderClient(),
					app.publisher(),
					app.logger,
				)

				return app.runWorker(ctx, recurringWorkerName, events.TopicTaskEvents, worker)
			})
		},
	}
}

func notifierCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notifier",
		Short: "Deliver triggered reminders to task owners",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(cmd.Context(), func(ctx context.Context, app *application) error {
				db, err := app.database(ctx)
				if err != nil {
					return err
				}

				gw, err := gateway.New(ctx, app.config.Gateway, app.logger)
				if err != nil {
					return fmt.Errorf("failed to create gateway: %w", err)
				}

				recipients := notify.NewStoreResolver(
					postgres.NewPostgresUserStore(db, app.logger),
					app.config.Gateway.FallbackDomain,
				)

				worker := notify.NewWorker(
					recipients,
					gw,
					postgres.NewPostgresTaskStore(db, app.logger),
					app.logger,
				)

				return app.runWorker(ctx, notifierWorkerName, events.TopicReminders, worker)
			})
		},
	}
}

// runWorker consumes topic with handler, prunes old dead letters on the
// configured schedule and serves the health endpoints until ctx is done.
func (app *application) runWorker(ctx context.Context, name, topic string, handler events.EventHandler) error {
	deadLetters := postgres.NewPostgresDeadLetterStore(app.db, app.logger)

	c, err := consumer.New(
		name,
		app.source(topic, name),
		handler,
		deadLetters,
		app.consumerConfig(),
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	pruner, err := consumer.NewPruner(
		deadLetters,
		app.config.DeadLetter.Retention,
		app.config.DeadLetter.PruneSchedule,
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create dead letter pruner: %w", err)
	}
	pruner.Start()
	defer pruner.Stop()

	health := api.NewHealthHandler(
		app.config.Server.ServiceName+"-"+name,
		map[string]api.Pinger{"database": app.db},
		app.logger,
	)

	return app.run(ctx, api.NewRouter(health, nil, app.logger), c)
}
