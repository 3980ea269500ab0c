package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/taskpulse/internal/consumer"
)

// run serves router and drives the consumers until ctx is cancelled or the
// server fails. In-flight batches finish before run returns.
func (app *application) run(ctx context.Context, router http.Handler, consumers ...*consumer.Consumer) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", server.Addr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info("starting server", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutting down server")
		app.sdNotify(daemon.SdNotifyStopping)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	for _, c := range consumers {
		c := c
		g.Go(func() error {
			c.Run(gctx)
			return nil
		})
	}

	app.sdNotify(daemon.SdNotifyReady)

	err = g.Wait()
	app.logger.Info("shutdown completed")
	return err
}

// sdNotify reports state to systemd. It is a no-op outside a notify unit.
func (app *application) sdNotify(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		app.logger.Warn("failed to notify systemd", "state", state, "error", err)
		return
	}
	if sent {
		app.logger.Debug("systemd notified", "state", state)
	}
}
