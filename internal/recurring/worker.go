package recurring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskpulse/internal/consumer"
	"github.com/phrazzld/taskpulse/internal/domain"
	"github.com/phrazzld/taskpulse/internal/events"
	"github.com/phrazzld/taskpulse/internal/outcome"
	"github.com/phrazzld/taskpulse/internal/platform/logger"
	"github.com/phrazzld/taskpulse/internal/reminder"
	"github.com/phrazzld/taskpulse/internal/store"
)

// OccurrenceStore persists generated occurrences.
type OccurrenceStore interface {
	CreateOccurrence(ctx context.Context, task *domain.Task) (*domain.Task, bool, error)
}

// ReminderArmer arms the reminder job of a task.
type ReminderArmer interface {
	Schedule(ctx context.Context, req reminder.ScheduleRequest) outcome.Result
}

// EventPublisher emits the events derived from a completion.
type EventPublisher interface {
	PublishTaskCreated(ctx context.Context, userID string, data events.TaskData, opts ...events.PublishOption) outcome.Result
	PublishReminderScheduled(ctx context.Context, userID string, data events.ReminderData, opts ...events.PublishOption) outcome.Result
}

// Worker handles task.completed events.
type Worker struct {
	store     OccurrenceStore
	reminders ReminderArmer
	publisher EventPublisher
	logger    *slog.Logger
}

// NewWorker creates a recurring-task worker.
func NewWorker(
	store OccurrenceStore,
	reminders ReminderArmer,
	publisher EventPublisher,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		store:     store,
		reminders: reminders,
		publisher: publisher,
		logger:    logger.With("component", "recurring_worker"),
	}
}

// HandleEvent implements events.EventHandler.
//
// Non-recurring tasks and chains past their end date are acknowledged
// without side effects. A recurring task without a due date cannot be
// regenerated and is rejected permanently. Failures to store the occurrence
// or to publish task.created are returned so that the event is redelivered;
// the unique (source_task_id, due_at) constraint makes the retry reuse the
// occurrence stored by the earlier attempt.
func (w *Worker) HandleEvent(ctx context.Context, env *events.Envelope) error {
	log := logger.FromContextOrDefault(ctx, w.logger)

	if env.EventType != events.TypeTaskCompleted {
		return nil
	}

	var data events.TaskData
	if err := env.UnmarshalData(&data); err != nil {
		return consumer.Permanent(err)
	}

	completed := data.Task(env.UserID)
	log = log.With("task_id", completed.ID, "recurrence", completed.Recurrence)

	next, err := completed.NextOccurrence()
	switch {
	case errors.Is(err, domain.ErrNotRecurring):
		log.Debug("completed task does not recur")
		return nil
	case errors.Is(err, domain.ErrMissingDueDate):
		log.Error("recurring task has no due date")
		return consumer.Permanent(fmt.Errorf("task %d: %w", completed.ID, err))
	case errors.Is(err, domain.ErrRecurrenceEnded):
		log.Info("recurrence end date reached, chain stops",
			"recurrence_end_at", completed.RecurrenceEndAt)
		return nil
	case err != nil:
		return fmt.Errorf("failed to compute next occurrence: %w", err)
	}

	occurrence, created, err := w.store.CreateOccurrence(ctx, next)
	if err != nil {
		if errors.Is(err, store.ErrInvalidEntity) {
			log.Error("next occurrence is invalid", "error", err)
			return consumer.Permanent(err)
		}
		log.Error("failed to store next occurrence", "error", err)
		return fmt.Errorf("failed to store next occurrence of task %d: %w", completed.ID, err)
	}

	log = log.With("occurrence_id", occurrence.ID, "due_at", occurrence.DueAt)
	if created {
		log.Info("created next occurrence")
	} else {
		log.Info("next occurrence already exists, resuming side effects")
	}
	ctx = logger.WithLogger(ctx, log)

	opts := []events.PublishOption{events.WithCorrelationID(env.Correlation())}

	w.armReminder(ctx, occurrence, opts)

	if res := w.publisher.PublishTaskCreated(ctx, occurrence.UserID, events.TaskDataFrom(occurrence), opts...); !res.Succeeded() {
		return fmt.Errorf("failed to publish task.created for task %d: %w", occurrence.ID, res.AsError())
	}

	return nil
}

// armReminder schedules the occurrence's reminder. Failures are logged and
// never fail the event.
func (w *Worker) armReminder(ctx context.Context, task *domain.Task, opts []events.PublishOption) {
	log := logger.FromContextOrDefault(ctx, w.logger)

	req, ok := reminder.RequestFor(task)
	if !ok {
		return
	}

	res := w.reminders.Schedule(ctx, req)
	switch {
	case res.IsSkipped():
		log.Info("reminder not armed", "reason", res.Reason)
		return
	case !res.Succeeded():
		log.Warn("failed to arm reminder", "result", res)
		return
	}

	fireAt := req.FireAt
	data := events.ReminderData{
		TaskID:       task.ID,
		Title:        task.Title,
		DueAt:        task.DueAt,
		ReminderTime: &fireAt,
	}
	if res := w.publisher.PublishReminderScheduled(ctx, task.UserID, data, opts...); !res.Succeeded() {
		log.Warn("failed to publish reminder.scheduled", "result", res)
	}
}

var _ events.EventHandler = (*Worker)(nil)
