package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DeadLetterPruner deletes dead letters older than a cutoff.
type DeadLetterPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Pruner periodically removes dead letters older than the retention period.
type Pruner struct {
	store     DeadLetterPruner
	retention time.Duration
	cron      *cron.Cron
	logger    *slog.Logger
	now       func() time.Time
}

// NewPruner creates a Pruner that runs on schedule, a standard five-field
// cron expression or descriptor such as "@daily".
func NewPruner(store DeadLetterPruner, retention time.Duration, schedule string, logger *slog.Logger) (*Pruner, error) {
	p := &Pruner{
		store:     store,
		retention: retention,
		cron:      cron.New(cron.WithLocation(time.UTC)),
		logger:    logger.With("component", "dead_letter_pruner"),
		now:       time.Now,
	}

	if _, err := p.cron.AddFunc(schedule, func() {
		_, _ = p.PruneOnce(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}

	return p, nil
}

// Start begins running the schedule in the background.
func (p *Pruner) Start() {
	p.cron.Start()
	p.logger.Info("dead letter pruner started", "retention", p.retention)
}

// Stop halts the schedule and waits for a running prune to finish.
func (p *Pruner) Stop() {
	<-p.cron.Stop().Done()
}

// PruneOnce deletes dead letters older than the retention period.
func (p *Pruner) PruneOnce(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.retention)
	n, err := p.store.PruneBefore(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to prune dead letters", "error", err)
		return 0, err
	}
	p.logger.Debug("dead letters pruned", "count", n, "cutoff", cutoff)
	return n, nil
}
