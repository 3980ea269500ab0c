package store

import (
	"context"

	"github.com/phrazzld/taskpulse/internal/domain"
)

// TaskStore persists generated task occurrences and reminder state.
type TaskStore interface {
	// CreateOccurrence inserts a task generated from a completed recurring task.
	// At most one occurrence exists per (SourceTaskID, DueAt): when one already
	// exists it is returned with created=false and nothing is written.
	// Returns store.ErrInvalidEntity if the task fails validation.
	CreateOccurrence(ctx context.Context, task *domain.Task) (occurrence *domain.Task, created bool, err error)

	// GetByID retrieves a task by its ID.
	// Returns store.ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Task, error)

	// MarkReminderSent sets reminder_sent to true. Marking an already-marked
	// task succeeds. Returns store.ErrTaskNotFound if the task does not exist.
	MarkReminderSent(ctx context.Context, id int64) error
}

// UserStore looks up contact details for task owners.
type UserStore interface {
	// GetEmail returns the notification address of userID.
	// Returns store.ErrUserNotFound if the user has no record.
	GetEmail(ctx context.Context, userID string) (string, error)
}
