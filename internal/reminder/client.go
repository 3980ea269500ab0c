package reminder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/taskpulse/internal/domain"
	"github.com/phrazzld/taskpulse/internal/outcome"
	"github.com/phrazzld/taskpulse/internal/platform/logger"
)

const jobsPath = "/v1.0-alpha1/jobs/"

// ReasonFireTimeInPast is the skip reason for reminders whose fire time has passed.
const ReasonFireTimeInPast = "fire time in the past"

// Config configures a Client.
type Config struct {
	// BaseURL is the scheduler sidecar address.
	BaseURL string

	// CallbackURL is passed to the job so that it knows where to deliver the trigger.
	CallbackURL string

	Timeout time.Duration
}

// ScheduleRequest describes the reminder to arm for one task.
type ScheduleRequest struct {
	TaskID int64
	UserID string
	Title  string
	FireAt time.Time
	DueAt  *time.Time
}

// JobInfo is the scheduler's view of a reminder job.
type JobInfo struct {
	Name     string          `json:"name"`
	Schedule string          `json:"schedule"`
	DueTime  string          `json:"dueTime,omitempty"`
	Repeats  int             `json:"repeats"`
	Data     json.RawMessage `json:"data,omitempty"`
}

type jobData struct {
	TaskID      int64   `json:"task_id"`
	UserID      string  `json:"user_id"`
	TaskTitle   string  `json:"task_title"`
	DueAt       *string `json:"due_at,omitempty"`
	CallbackURL string  `json:"callback_url"`
}

type jobRequest struct {
	Schedule  string  `json:"schedule"`
	Repeats   int     `json:"repeats"`
	DueTime   string  `json:"dueTime"`
	Overwrite bool    `json:"overwrite"`
	Data      jobData `json:"data"`
}

// JobName returns the scheduler job name for a task's reminder.
func JobName(taskID int64) string {
	return fmt.Sprintf("reminder-task-%d", taskID)
}

// FireAt returns when the reminder for task should fire. The boolean is
// false when the task has no due date.
func FireAt(task *domain.Task) (time.Time, bool) {
	return task.ReminderFireAt()
}

// RequestFor builds the schedule request for task. The boolean is false when
// the task has no due date and therefore no reminder.
func RequestFor(task *domain.Task) (ScheduleRequest, bool) {
	fireAt, ok := FireAt(task)
	if !ok {
		return ScheduleRequest{}, false
	}
	return ScheduleRequest{
		TaskID: task.ID,
		UserID: task.UserID,
		Title:  task.Title,
		FireAt: fireAt,
		DueAt:  task.DueAt,
	}, true
}

// Client talks to the job scheduler.
type Client struct {
	baseURL     string
	callbackURL string
	client      *http.Client
	logger      *slog.Logger
	now         func() time.Time
}

// NewClient creates a scheduler client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		callbackURL: cfg.CallbackURL,
		client:      &http.Client{Timeout: timeout},
		logger:      logger.With("component", "reminder_scheduler"),
		now:         time.Now,
	}
}

// Schedule arms a one-shot job for req. Scheduling the same task again
// replaces its job. A fire time that is not in the future is skipped without
// contacting the scheduler.
func (c *Client) Schedule(ctx context.Context, req ScheduleRequest) outcome.Result {
	log := logger.FromContextOrDefault(ctx, c.logger).With(
		"task_id", req.TaskID,
		"job_name", JobName(req.TaskID))

	if !req.FireAt.After(c.now()) {
		log.Info("not scheduling reminder with past fire time", "fire_at", req.FireAt)
		return outcome.Skipped(ReasonFireTimeInPast)
	}

	fireAt := req.FireAt.UTC().Format(time.RFC3339)
	body := jobRequest{
		Schedule:  "@once " + fireAt,
		Repeats:   1,
		DueTime:   fireAt,
		Overwrite: true,
		Data: jobData{
			TaskID:      req.TaskID,
			UserID:      req.UserID,
			TaskTitle:   req.Title,
			CallbackURL: c.callbackURL,
		},
	}
	if req.DueAt != nil {
		due := req.DueAt.UTC().Format(time.RFC3339)
		body.Data.DueAt = &due
	}

	payload, err := json.Marshal(body)
	if err != nil {
		log.Error("failed to marshal job request", "error", err)
		return outcome.Failed("marshal job request", err)
	}

	res, err := c.do(ctx, http.MethodPost, req.TaskID, payload)
	if err != nil {
		log.Error("failed to schedule reminder", "error", err)
		return outcome.Failed("schedule reminder", err)
	}
	defer res.Body.Close()

	if err := checkStatus(res); err != nil {
		log.Error("scheduler rejected reminder", "error", err)
		return outcome.Failed("schedule reminder", err)
	}

	log.Info("reminder scheduled", "fire_at", fireAt)
	return outcome.OK()
}

// Cancel deletes the reminder job of taskID. A job that does not exist is
// reported as skipped.
func (c *Client) Cancel(ctx context.Context, taskID int64) outcome.Result {
	log := logger.FromContextOrDefault(ctx, c.logger).With(
		"task_id", taskID,
		"job_name", JobName(taskID))

	res, err := c.do(ctx, http.MethodDelete, taskID, nil)
	if err != nil {
		log.Error("failed to cancel reminder", "error", err)
		return outcome.Failed("cancel reminder", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		log.Debug("no reminder job to cancel")
		return outcome.Skipped("no reminder job")
	}
	if err := checkStatus(res); err != nil {
		log.Error("scheduler rejected cancellation", "error", err)
		return outcome.Failed("cancel reminder", err)
	}

	log.Info("reminder cancelled")
	return outcome.OK()
}

// Status returns the scheduler's record of taskID's reminder job. The
// boolean is false when the job does not exist or cannot be read.
func (c *Client) Status(ctx context.Context, taskID int64) (*JobInfo, bool) {
	log := logger.FromContextOrDefault(ctx, c.logger).With(
		"task_id", taskID,
		"job_name", JobName(taskID))

	res, err := c.do(ctx, http.MethodGet, taskID, nil)
	if err != nil {
		log.Error("failed to get reminder status", "error", err)
		return nil, false
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, false
	}
	if err := checkStatus(res); err != nil {
		log.Error("scheduler rejected status request", "error", err)
		return nil, false
	}

	var info JobInfo
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		log.Error("failed to decode job status", "error", err)
		return nil, false
	}
	if info.Name == "" {
		info.Name = JobName(taskID)
	}
	return &info, true
}

func (c *Client) do(ctx context.Context, method string, taskID int64, body []byte) (*http.Response, error) {
	endpoint := c.baseURL + jobsPath + url.PathEscape(JobName(taskID))

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, r)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.client.Do(req)
}

func checkStatus(res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(b)))
}
