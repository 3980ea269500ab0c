package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskpulse/internal/config"
	"github.com/phrazzld/taskpulse/internal/consumer"
	"github.com/phrazzld/taskpulse/internal/events"
	"github.com/phrazzld/taskpulse/internal/platform/kafka"
	"github.com/phrazzld/taskpulse/internal/platform/logger"
	"github.com/phrazzld/taskpulse/internal/platform/postgres"
	"github.com/phrazzld/taskpulse/internal/platform/pubsub"
)

// application holds the dependencies shared by the subcommands and releases
// them on cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// httpBus is shared between publishing and subscribing when the http
	// driver is selected.
	httpBus *pubsub.HTTPBus

	closers []func() error
}

// newApplication loads configuration and sets up logging. Connections are
// opened on demand since not every subcommand needs them.
func newApplication() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	return &application{config: cfg, logger: log}, nil
}

// withApplication runs fn with a fresh application and always cleans up.
func withApplication(ctx context.Context, fn func(ctx context.Context, app *application) error) error {
	app, err := newApplication()
	if err != nil {
		return err
	}
	defer app.cleanup()

	return fn(logger.WithLogger(ctx, app.logger), app)
}

// database opens the connection pool on first use.
func (app *application) database(ctx context.Context) (*sql.DB, error) {
	if app.db != nil {
		return app.db, nil
	}

	db, err := postgres.Open(ctx, app.config.Database, app.logger)
	if err != nil {
		return nil, err
	}
	app.db = db
	app.closers = append(app.closers, db.Close)
	return db, nil
}

// transport returns the bus driver used to publish events.
func (app *application) transport() events.Transport {
	bus := app.config.Bus
	if bus.Driver == config.BusDriverKafka {
		producer := kafka.NewProducer(bus.Brokers, bus.Timeout, app.logger)
		app.closers = append(app.closers, producer.Close)
		return producer
	}
	return app.bus()
}

// source returns a subscription to topic for the named worker. Each worker
// reads with its own consumer group so that every worker sees every event.
func (app *application) source(topic, worker string) consumer.Source {
	bus := app.config.Bus
	group := consumerGroup(bus.ConsumerGroup, worker)

	if bus.Driver == config.BusDriverKafka {
		sub := kafka.NewSubscription(kafka.SubscriptionConfig{
			Brokers:   bus.Brokers,
			Topic:     topic,
			GroupID:   group,
			BatchSize: app.config.Consumer.BatchSize,
			Wait:      app.config.Consumer.PollInterval,
		}, app.logger)
		app.closers = append(app.closers, sub.Close)
		return sub
	}
	return app.bus().Subscribe(topic, group)
}

func (app *application) bus() *pubsub.HTTPBus {
	if app.httpBus == nil {
		bus := app.config.Bus
		app.httpBus = pubsub.NewHTTPBus(bus.BaseURL, bus.PubSubName, bus.Timeout, app.logger)
	}
	return app.httpBus
}

// publisher wraps the configured transport.
func (app *application) publisher() *events.Publisher {
	return events.NewPublisher(app.transport(), app.config.Server.ServiceName, app.logger)
}

func (app *application) consumerConfig() consumer.Config {
	c := app.config.Consumer
	return consumer.Config{
		PollInterval:     c.PollInterval,
		ErrorBackoff:     c.ErrorBackoff,
		HandlerTimeout:   c.HandlerTimeout,
		MaxAttempts:      c.MaxAttempts,
		AttemptCacheSize: c.AttemptCacheSize,
	}
}

// cleanup closes everything opened by the application, newest first.
func (app *application) cleanup() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Error("failed to release resource", "error", err)
		}
	}
	app.closers = nil
}

func consumerGroup(prefix, worker string) string {
	if prefix == "" {
		return worker
	}
	return prefix + "-" + worker
}
