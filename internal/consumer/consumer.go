package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/taskpulse/internal/domain"
	"github.com/phrazzld/taskpulse/internal/events"
	"github.com/phrazzld/taskpulse/internal/platform/logger"
)

// Config holds configuration for a Consumer.
type Config struct {
	// PollInterval is the pause between batches.
	PollInterval time.Duration

	// ErrorBackoff is the pause after a failed fetch.
	ErrorBackoff time.Duration

	// HandlerTimeout bounds the handling of a single event.
	HandlerTimeout time.Duration

	// MaxAttempts is the number of failed deliveries after which an event
	// is dead-lettered.
	MaxAttempts int

	// AttemptCacheSize bounds the number of events whose failures are tracked.
	AttemptCacheSize int
}

// DefaultConfig returns a Config with the pipeline's standard timings.
func DefaultConfig() Config {
	return Config{
		PollInterval:     time.Second,
		ErrorBackoff:     5 * time.Second,
		HandlerTimeout:   30 * time.Second,
		MaxAttempts:      5,
		AttemptCacheSize: 4096,
	}
}

// DeadLetterRecorder stores events the consumer gives up on.
type DeadLetterRecorder interface {
	Record(ctx context.Context, dl *domain.DeadLetter) error
}

// Consumer polls a Source and dispatches each message to an EventHandler.
// Messages within a batch are processed sequentially.
type Consumer struct {
	name        string
	source      Source
	handler     events.EventHandler
	deadLetters DeadLetterRecorder
	attempts    *attemptTracker
	config      Config
	logger      *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Consumer. name identifies the worker in logs and dead letters.
// deadLetters may be nil, in which case given-up events are only logged.
func New(
	name string,
	source Source,
	handler events.EventHandler,
	deadLetters DeadLetterRecorder,
	config Config,
	logger *slog.Logger,
) (*Consumer, error) {
	defaults := DefaultConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.ErrorBackoff <= 0 {
		config.ErrorBackoff = defaults.ErrorBackoff
	}
	if config.HandlerTimeout <= 0 {
		config.HandlerTimeout = defaults.HandlerTimeout
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.AttemptCacheSize <= 0 {
		config.AttemptCacheSize = defaults.AttemptCacheSize
	}

	attempts, err := newAttemptTracker(config.AttemptCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create attempt tracker: %w", err)
	}

	return &Consumer{
		name:        name,
		source:      source,
		handler:     handler,
		deadLetters: deadLetters,
		attempts:    attempts,
		config:      config,
		logger:      logger.With("component", "consumer", "consumer", name),
	}, nil
}

// Start runs the polling loop in a background goroutine until ctx is
// cancelled or Stop is called.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return errors.New("consumer already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.Run(runCtx)
	}()

	return nil
}

// Stop cancels the polling loop and waits for the in-flight batch to finish.
func (c *Consumer) Stop() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	c.wg.Wait()
}

// Run polls until ctx is cancelled. Cancellation is observed between batches
// and during sleeps; a batch that has been fetched is always processed in full.
func (c *Consumer) Run(ctx context.Context) {
	c.logger.Info("consumer started",
		"poll_interval", c.config.PollInterval,
		"max_attempts", c.config.MaxAttempts)
	defer c.logger.Info("consumer stopped")

	for {
		if ctx.Err() != nil {
			return
		}

		batch, err := c.source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("failed to fetch messages",
				"error", err,
				"backoff", c.config.ErrorBackoff)
			if !sleep(ctx, c.config.ErrorBackoff) {
				return
			}
			continue
		}

		for _, msg := range batch {
			c.process(ctx, msg)
		}

		if !sleep(ctx, c.config.PollInterval) {
			return
		}
	}
}

// process handles one message on a context detached from ctx's cancellation,
// so shutdown never interrupts an event midway.
func (c *Consumer) process(ctx context.Context, msg Message) {
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.HandlerTimeout)
	defer cancel()

	env, err := events.ParseEnvelope(msg.Body)
	if err != nil {
		c.logger.Warn("discarding undecodable message", "error", err, "topic", msg.Topic)
		c.giveUp(hctx, msg, nil, err.Error(), 1)
		return
	}

	log := c.logger.With(
		"event_id", env.EventID,
		"event_type", env.EventType,
		"topic", msg.Topic,
		"correlation_id", env.Correlation(),
	)
	hctx = logger.WithLogger(hctx, log)
	id := env.EventID.String()

	err = c.handler.HandleEvent(hctx, env)
	if err == nil {
		c.attempts.forget(id)
		c.commit(hctx, msg, log)
		return
	}

	if IsPermanent(err) {
		log.Error("event cannot be processed", "error", err)
		c.giveUp(hctx, msg, env, err.Error(), c.attempts.count(id)+1)
		return
	}

	n := c.attempts.record(id)
	if n >= c.config.MaxAttempts {
		log.Error("event exceeded delivery attempts", "error", err, "attempts", n)
		c.giveUp(hctx, msg, env, fmt.Sprintf("max attempts exceeded: %v", err), n)
		return
	}

	log.Warn("event handling failed, awaiting redelivery",
		"error", err,
		"attempt", n,
		"max_attempts", c.config.MaxAttempts)
}

// giveUp records msg as a dead letter and commits it. If the dead letter
// cannot be stored the message is left uncommitted.
func (c *Consumer) giveUp(ctx context.Context, msg Message, env *events.Envelope, reason string, attempts int) {
	dl := &domain.DeadLetter{
		Topic:    msg.Topic,
		Consumer: c.name,
		Payload:  msg.Body,
		Reason:   reason,
		Attempts: attempts,
	}
	if env != nil {
		dl.EventID = env.EventID.String()
		dl.EventType = env.EventType
		c.attempts.forget(dl.EventID)
	}

	log := logger.FromContextOrDefault(ctx, c.logger)

	if c.deadLetters != nil {
		if err := c.deadLetters.Record(ctx, dl); err != nil {
			log.Error("failed to record dead letter", "error", err, "reason", reason)
			return
		}
	} else {
		log.Warn("dropping event", "reason", reason, "attempts", attempts)
	}

	c.commit(ctx, msg, log)
}

func (c *Consumer) commit(ctx context.Context, msg Message, log *slog.Logger) {
	if msg.Commit == nil {
		return
	}
	if err := msg.Commit(ctx); err != nil {
		log.Error("failed to commit message", "error", err)
	}
}

// sleep waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
