package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/taskpulse/internal/api/shared"
	"github.com/phrazzld/taskpulse/internal/events"
	"github.com/phrazzld/taskpulse/internal/outcome"
	"github.com/phrazzld/taskpulse/internal/platform/logger"
)

// ReminderPublisher emits reminder.triggered events.
type ReminderPublisher interface {
	PublishReminderTriggered(
		ctx context.Context,
		userID string,
		data events.ReminderData,
		opts ...events.PublishOption,
	) outcome.Result
}

// ReminderCallbackRequest is the job data the scheduler delivers when a
// reminder fires.
type ReminderCallbackRequest struct {
	TaskID    int64  `json:"task_id"    validate:"required,gt=0"`
	UserID    string `json:"user_id"    validate:"required"`
	TaskTitle string `json:"task_title"`
	DueAt     string `json:"due_at"`
}

// callbackBody accepts the job data either at the top level or wrapped in
// a "data" object, depending on how the scheduler forwards it.
type callbackBody struct {
	ReminderCallbackRequest
	Data *ReminderCallbackRequest `json:"data"`
}

// CallbackHandler translates scheduler callbacks into reminder.triggered events.
type CallbackHandler struct {
	publisher ReminderPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewCallbackHandler creates a CallbackHandler.
func NewCallbackHandler(publisher ReminderPublisher, logger *slog.Logger) *CallbackHandler {
	return &CallbackHandler{
		publisher: publisher,
		logger:    logger.With("component", "reminder_callback"),
		now:       time.Now,
	}
}

// ReminderCallback handles POST /api/jobs/reminder-callback and POST /job/{name}.
//
// A malformed body answers 400 and publishes nothing. A failed publish
// answers 502 so that the scheduler retries the callback.
func (h *CallbackHandler) ReminderCallback(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	if name := chi.URLParam(r, "name"); name != "" {
		log = log.With("job_name", name)
	}

	var body callbackBody
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format",
			fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	req := body.ReminderCallbackRequest
	if req.TaskID == 0 && body.Data != nil {
		req = *body.Data
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, shared.ValidationMessage(err),
			fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	data := events.ReminderData{
		TaskID: req.TaskID,
		Title:  req.TaskTitle,
	}

	if s := strings.TrimSpace(req.DueAt); s != "" {
		due, err := events.ParseTimestamp(s)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid due_at",
				fmt.Errorf("%w: %v", ErrInvalidRequest, err))
			return
		}
		data.DueAt = &due
	}

	triggeredAt := h.now().UTC()
	data.TriggeredAt = &triggeredAt

	res := h.publisher.PublishReminderTriggered(r.Context(), req.UserID, data,
		events.WithTriggerType(events.TriggerScheduledJob))
	if !res.Succeeded() {
		err := fmt.Errorf("%w: %v", ErrPublishFailed, res.AsError())
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Info("reminder triggered", "task_id", req.TaskID)
	shared.RespondWithStatus(w, r, http.StatusOK, true,
		fmt.Sprintf("Reminder triggered for task %d", req.TaskID))
}
