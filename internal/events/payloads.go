package events

import (
	"encoding/json"
	"time"

	"github.com/phrazzld/taskpulse/internal/domain"
)

// TaskData is the payload of task.* events. It mirrors the task as the
// primary API publishes it.
type TaskData struct {
	TaskID          int64
	Title           string
	Description     *string
	Priority        domain.Priority
	Tags            []string
	DueAt           *time.Time
	Recurrence      domain.Recurrence
	RecurrenceEndAt *time.Time

	// ReminderLeadMinutes is nil when the publisher omitted it.
	ReminderLeadMinutes *int

	Completed    bool
	ReminderSent bool
}

type taskDataOut struct {
	ID                    int64             `json:"id"`
	TaskID                int64             `json:"task_id"`
	Title                 string            `json:"title"`
	Description           *string           `json:"description"`
	Priority              domain.Priority   `json:"priority"`
	Tags                  []string          `json:"tags"`
	DueAt                 *string           `json:"due_at"`
	Recurrence            domain.Recurrence `json:"recurrence"`
	RecurrenceEndDate     *string           `json:"recurrence_end_date"`
	ReminderMinutesBefore int               `json:"reminder_minutes_before"`
	Completed             bool              `json:"completed"`
	ReminderSent          bool              `json:"reminder_sent"`
}

type taskDataIn struct {
	ID                    wireID   `json:"id"`
	TaskID                wireID   `json:"task_id"`
	Title                 string   `json:"title"`
	Description           *string  `json:"description"`
	Priority              string   `json:"priority"`
	Tags                  []string `json:"tags"`
	DueAt                 wireTime `json:"due_at"`
	DueDate               wireTime `json:"due_date"`
	Recurrence            string   `json:"recurrence"`
	RecurrenceEndDate     wireTime `json:"recurrence_end_date"`
	RecurrenceEndAt       wireTime `json:"recurrence_end_at"`
	ReminderMinutesBefore *int     `json:"reminder_minutes_before"`
	ReminderLeadMinutes   *int     `json:"reminder_lead_minutes"`
	Completed             bool     `json:"completed"`
	ReminderSent          bool     `json:"reminder_sent"`
}

// MarshalJSON writes the primary API's wire names.
func (d TaskData) MarshalJSON() ([]byte, error) {
	lead := domain.DefaultReminderLeadMinutes
	if d.ReminderLeadMinutes != nil {
		lead = *d.ReminderLeadMinutes
	}
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(taskDataOut{
		ID:                    d.TaskID,
		TaskID:                d.TaskID,
		Title:                 d.Title,
		Description:           d.Description,
		Priority:              d.Priority,
		Tags:                  tags,
		DueAt:                 formatTime(d.DueAt),
		Recurrence:            d.Recurrence,
		RecurrenceEndDate:     formatTime(d.RecurrenceEndAt),
		ReminderMinutesBefore: lead,
		Completed:             d.Completed,
		ReminderSent:          d.ReminderSent,
	})
}

// UnmarshalJSON accepts the primary API's wire names and their aliases.
func (d *TaskData) UnmarshalJSON(b []byte) error {
	var in taskDataIn
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}

	*d = TaskData{
		Title:           in.Title,
		Description:     in.Description,
		Priority:        domain.ParsePriority(in.Priority),
		Tags:            in.Tags,
		DueAt:           firstTime(in.DueAt, in.DueDate),
		Recurrence:      domain.ParseRecurrence(in.Recurrence),
		RecurrenceEndAt: firstTime(in.RecurrenceEndDate, in.RecurrenceEndAt),
		Completed:       in.Completed,
		ReminderSent:    in.ReminderSent,
	}

	switch {
	case in.TaskID.set:
		d.TaskID = in.TaskID.v
	case in.ID.set:
		d.TaskID = in.ID.v
	}

	switch {
	case in.ReminderMinutesBefore != nil:
		d.ReminderLeadMinutes = in.ReminderMinutesBefore
	case in.ReminderLeadMinutes != nil:
		d.ReminderLeadMinutes = in.ReminderLeadMinutes
	}

	return nil
}

// Task converts the payload into a domain task owned by userID.
func (d TaskData) Task(userID string) *domain.Task {
	lead := domain.DefaultReminderLeadMinutes
	if d.ReminderLeadMinutes != nil {
		lead = *d.ReminderLeadMinutes
	}
	priority := d.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	recurrence := d.Recurrence
	if recurrence == "" {
		recurrence = domain.RecurrenceNone
	}
	return &domain.Task{
		ID:                  d.TaskID,
		UserID:              userID,
		Title:               d.Title,
		Description:         d.Description,
		Priority:            priority,
		Tags:                d.Tags,
		DueAt:               d.DueAt,
		Recurrence:          recurrence,
		RecurrenceEndAt:     d.RecurrenceEndAt,
		ReminderLeadMinutes: lead,
		ReminderSent:        d.ReminderSent,
		Completed:           d.Completed,
	}
}

// TaskDataFrom builds the event payload for t.
func TaskDataFrom(t *domain.Task) TaskData {
	lead := t.ReminderLeadMinutes
	return TaskData{
		TaskID:              t.ID,
		Title:               t.Title,
		Description:         t.Description,
		Priority:            t.Priority,
		Tags:                t.Tags,
		DueAt:               t.DueAt,
		Recurrence:          t.Recurrence,
		RecurrenceEndAt:     t.RecurrenceEndAt,
		ReminderLeadMinutes: &lead,
		Completed:           t.Completed,
		ReminderSent:        t.ReminderSent,
	}
}

// ReminderData is the payload of reminder.* events.
type ReminderData struct {
	TaskID int64
	Title  string
	DueAt  *time.Time

	// ReminderTime is when the reminder is armed to fire (reminder.scheduled).
	ReminderTime *time.Time

	// TriggeredAt is when the scheduler fired the reminder (reminder.triggered).
	TriggeredAt *time.Time
}

type reminderDataOut struct {
	TaskID       int64   `json:"task_id"`
	Title        string  `json:"title"`
	DueAt        *string `json:"due_at,omitempty"`
	ReminderTime *string `json:"reminder_time,omitempty"`
	TriggeredAt  *string `json:"triggered_at,omitempty"`
}

type reminderDataIn struct {
	TaskID       wireID   `json:"task_id"`
	Title        string   `json:"title"`
	TaskTitle    string   `json:"task_title"`
	DueAt        wireTime `json:"due_at"`
	DueDate      wireTime `json:"due_date"`
	ReminderTime wireTime `json:"reminder_time"`
	TriggeredAt  wireTime `json:"triggered_at"`
}

// MarshalJSON implements json.Marshaler.
func (d ReminderData) MarshalJSON() ([]byte, error) {
	return json.Marshal(reminderDataOut{
		TaskID:       d.TaskID,
		Title:        d.Title,
		DueAt:        formatTime(d.DueAt),
		ReminderTime: formatTime(d.ReminderTime),
		TriggeredAt:  formatTime(d.TriggeredAt),
	})
}

// UnmarshalJSON accepts title or task_title, and due_at or due_date.
func (d *ReminderData) UnmarshalJSON(b []byte) error {
	var in reminderDataIn
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}

	title := in.Title
	if title == "" {
		title = in.TaskTitle
	}

	*d = ReminderData{
		TaskID:       in.TaskID.v,
		Title:        title,
		DueAt:        firstTime(in.DueAt, in.DueDate),
		ReminderTime: in.ReminderTime.ptr(),
		TriggeredAt:  in.TriggeredAt.ptr(),
	}
	return nil
}
