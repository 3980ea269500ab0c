package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskpulse/internal/consumer"
	"github.com/phrazzld/taskpulse/internal/events"
	"github.com/phrazzld/taskpulse/internal/platform/logger"
	"github.com/phrazzld/taskpulse/internal/redact"
)

// ReminderMarker records that a task's reminder was delivered.
type ReminderMarker interface {
	MarkReminderSent(ctx context.Context, taskID int64) error
}

// Worker handles reminder.triggered events.
type Worker struct {
	recipients RecipientResolver
	gateway    Gateway
	tasks      ReminderMarker
	logger     *slog.Logger
}

// NewWorker creates a notification worker.
func NewWorker(recipients RecipientResolver, gateway Gateway, tasks ReminderMarker, logger *slog.Logger) *Worker {
	return &Worker{
		recipients: recipients,
		gateway:    gateway,
		tasks:      tasks,
		logger:     logger.With("component", "notification_worker"),
	}
}

// HandleEvent implements events.EventHandler.
//
// A gateway failure is returned so that the event is redelivered. Marking
// the reminder as sent happens after delivery and its failure is only
// logged, since the message has already gone out.
func (w *Worker) HandleEvent(ctx context.Context, env *events.Envelope) error {
	if env.EventType != events.TypeReminderTriggered {
		return nil
	}

	var data events.ReminderData
	if err := env.UnmarshalData(&data); err != nil {
		return consumer.Permanent(err)
	}

	log := logger.FromContextOrDefault(ctx, w.logger).With("task_id", data.TaskID)

	to, err := w.recipients.Resolve(ctx, env.UserID)
	if err != nil {
		if errors.Is(err, ErrNoRecipient) {
			log.Error("no recipient for reminder", "error", err)
			return consumer.Permanent(err)
		}
		log.Error("failed to resolve recipient", "error", err)
		return err
	}
	log = log.With("recipient", redact.Email(to))

	subject, body := FormatReminder(data.Title, data.DueAt)

	res := w.gateway.Send(ctx, Message{To: to, Subject: subject, Body: body})
	if !res.Succeeded() {
		log.Error("failed to deliver reminder", "result", res)
		if err := res.AsError(); err != nil {
			return fmt.Errorf("failed to deliver reminder for task %d: %w", data.TaskID, err)
		}
		return fmt.Errorf("reminder for task %d not delivered: %s", data.TaskID, res)
	}

	log.Info("reminder delivered")

	if data.TaskID == 0 {
		return nil
	}
	if err := w.tasks.MarkReminderSent(ctx, data.TaskID); err != nil {
		log.Warn("failed to mark reminder as sent", "error", err)
	}
	return nil
}

var _ events.EventHandler = (*Worker)(nil)
