package store

import (
	"context"
	"time"

	"github.com/phrazzld/taskpulse/internal/domain"
)

// DeadLetterStore records events that could not be processed.
type DeadLetterStore interface {
	// Record saves a dead letter and fills in its ID and CreatedAt.
	Record(ctx context.Context, dl *domain.DeadLetter) error

	// List returns the most recent dead letters, newest first.
	List(ctx context.Context, limit int) ([]domain.DeadLetter, error)

	// PruneBefore deletes dead letters created before cutoff and returns how many were removed.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
