package domain

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the relative importance of a task.
type Priority string

// Possible priority values
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultReminderLeadMinutes is the lead time used when a task does not specify one.
const DefaultReminderLeadMinutes = 60

// ParsePriority normalizes a wire value. Empty maps to PriorityMedium.
func ParsePriority(s string) Priority {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PriorityMedium
	}
	return Priority(s)
}

// IsValid reports whether p is one of low, medium or high.
func (p Priority) IsValid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Task is one concrete row of the task tracker. The pipeline never owns a
// task by reference; it reads tasks from event payloads and writes new
// occurrences through the store.
type Task struct {
	ID          int64    `json:"id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Priority    Priority `json:"priority"`
	Tags        []string `json:"tags"`

	DueAt               *time.Time `json:"due_at,omitempty"`
	Recurrence          Recurrence `json:"recurrence"`
	RecurrenceEndAt     *time.Time `json:"recurrence_end_at,omitempty"`
	ReminderLeadMinutes int        `json:"reminder_lead_minutes"`
	ReminderSent        bool       `json:"reminder_sent"`

	Completed bool `json:"completed"`

	// SourceTaskID is the completed occurrence this row was generated from.
	// Nil for tasks created directly by a user.
	SourceTaskID *int64 `json:"source_task_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTaskTitle
	}

	if t.UserID == "" {
		return ErrEmptyTaskUserID
	}

	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}

	if !t.Recurrence.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRecurrence, t.Recurrence)
	}

	if t.ReminderLeadMinutes < 0 {
		return ErrNegativeReminderLead
	}

	return nil
}

// NextOccurrence builds the task row that follows t in its recurrence chain.
//
// It returns ErrNotRecurring when t does not recur, ErrMissingDueDate when a
// recurring task has no due date, and ErrRecurrenceEnded when the next due
// time falls after RecurrenceEndAt. The returned task has no ID; it is
// uncompleted, has not had its reminder sent, and points back at t through
// SourceTaskID.
func (t *Task) NextOccurrence() (*Task, error) {
	if !t.Recurrence.Recurs() {
		return nil, ErrNotRecurring
	}

	if t.DueAt == nil {
		return nil, ErrMissingDueDate
	}

	nextDue, ok := NextDue(*t.DueAt, t.Recurrence)
	if !ok {
		return nil, ErrNotRecurring
	}

	if t.RecurrenceEndAt != nil && nextDue.After(*t.RecurrenceEndAt) {
		return nil, ErrRecurrenceEnded
	}

	sourceID := t.ID
	next := &Task{
		UserID:              t.UserID,
		Title:               t.Title,
		Description:         t.Description,
		Priority:            t.Priority,
		Tags:                append([]string(nil), t.Tags...),
		DueAt:               &nextDue,
		Recurrence:          t.Recurrence,
		RecurrenceEndAt:     t.RecurrenceEndAt,
		ReminderLeadMinutes: t.ReminderLeadMinutes,
		ReminderSent:        false,
		Completed:           false,
		SourceTaskID:        &sourceID,
	}

	return next, nil
}

// ReminderFireAt returns when the reminder for this task should fire:
// the due time minus the reminder lead. The boolean is false when the task
// has no due date.
func (t *Task) ReminderFireAt() (time.Time, bool) {
	if t.DueAt == nil {
		return time.Time{}, false
	}
	return t.DueAt.Add(-time.Duration(t.ReminderLeadMinutes) * time.Minute), true
}
