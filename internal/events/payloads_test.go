package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskpulse/internal/domain"
)

func TestTaskData_Unmarshal(t *testing.T) {
	t.Parallel()

	t.Run("primary wire names", func(t *testing.T) {
		var d TaskData
		require.NoError(t, json.Unmarshal([]byte(`{
			"task_id": 12,
			"title": "Water plants",
			"description": "balcony",
			"priority": "HIGH",
			"tags": ["home"],
			"due_at": "2026-01-05T09:00:00Z",
			"recurrence": "weekly",
			"recurrence_end_date": "2026-01-20T00:00:00Z",
			"reminder_minutes_before": 15,
			"completed": true
		}`), &d))

		assert.Equal(t, int64(12), d.TaskID)
		assert.Equal(t, "Water plants", d.Title)
		require.NotNil(t, d.Description)
		assert.Equal(t, "balcony", *d.Description)
		assert.Equal(t, domain.PriorityHigh, d.Priority)
		assert.Equal(t, []string{"home"}, d.Tags)
		require.NotNil(t, d.DueAt)
		assert.Equal(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), d.DueAt.UTC())
		assert.Equal(t, domain.RecurrenceWeekly, d.Recurrence)
		require.NotNil(t, d.RecurrenceEndAt)
		require.NotNil(t, d.ReminderLeadMinutes)
		assert.Equal(t, 15, *d.ReminderLeadMinutes)
		assert.True(t, d.Completed)
	})

	t.Run("aliases", func(t *testing.T) {
		var d TaskData
		require.NoError(t, json.Unmarshal([]byte(`{
			"id": "31",
			"title": "Rent",
			"due_date": "2026-02-01 08:00:00",
			"recurrence_end_at": "2026-12-31",
			"reminder_lead_minutes": 0
		}`), &d))

		assert.Equal(t, int64(31), d.TaskID)
		require.NotNil(t, d.DueAt)
		assert.Equal(t, time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC), *d.DueAt)
		require.NotNil(t, d.RecurrenceEndAt)
		require.NotNil(t, d.ReminderLeadMinutes)
		assert.Equal(t, 0, *d.ReminderLeadMinutes)
		assert.Equal(t, domain.RecurrenceNone, d.Recurrence)
		assert.Equal(t, domain.PriorityMedium, d.Priority)
	})

	t.Run("task_id wins over id", func(t *testing.T) {
		var d TaskData
		require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "task_id": 2}`), &d))
		assert.Equal(t, int64(2), d.TaskID)
	})

	t.Run("null due date", func(t *testing.T) {
		var d TaskData
		require.NoError(t, json.Unmarshal([]byte(`{"task_id": 2, "due_at": null, "recurrence": "daily"}`), &d))
		assert.Nil(t, d.DueAt)
	})
}

func TestTaskData_MarshalUsesPrimaryWireNames(t *testing.T) {
	t.Parallel()

	due := time.Date(2026, 1, 12, 9, 0, 0, 0, time.FixedZone("CET", 3600))
	d := TaskData{TaskID: 5, Title: "Standup", DueAt: &due, Recurrence: domain.RecurrenceDaily}

	b, err := json.Marshal(d)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &raw))

	assert.Equal(t, float64(5), raw["task_id"])
	assert.Equal(t, float64(5), raw["id"])
	assert.Equal(t, "2026-01-12T08:00:00Z", raw["due_at"])
	assert.Equal(t, float64(domain.DefaultReminderLeadMinutes), raw["reminder_minutes_before"])
	assert.Equal(t, []interface{}{}, raw["tags"])
	assert.Nil(t, raw["recurrence_end_date"])
	assert.Equal(t, false, raw["reminder_sent"])
}

func TestTaskData_Task(t *testing.T) {
	t.Parallel()

	due := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	task := TaskData{TaskID: 3, Title: "Gym", DueAt: &due}.Task("user-7")

	assert.Equal(t, int64(3), task.ID)
	assert.Equal(t, "user-7", task.UserID)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.Equal(t, domain.RecurrenceNone, task.Recurrence)
	assert.Equal(t, domain.DefaultReminderLeadMinutes, task.ReminderLeadMinutes)
	require.NoError(t, task.Validate())

	back := TaskDataFrom(task)
	assert.Equal(t, int64(3), back.TaskID)
	require.NotNil(t, back.ReminderLeadMinutes)
	assert.Equal(t, domain.DefaultReminderLeadMinutes, *back.ReminderLeadMinutes)
}

func TestReminderData(t *testing.T) {
	t.Parallel()

	t.Run("decodes title aliases", func(t *testing.T) {
		var d ReminderData
		require.NoError(t, json.Unmarshal([]byte(`{"task_id":"7","task_title":"Pay rent","due_date":"2026-03-01T10:00:00Z"}`), &d))
		assert.Equal(t, int64(7), d.TaskID)
		assert.Equal(t, "Pay rent", d.Title)
		require.NotNil(t, d.DueAt)
		assert.Nil(t, d.TriggeredAt)
	})

	t.Run("omits unset times", func(t *testing.T) {
		fired := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		b, err := json.Marshal(ReminderData{TaskID: 7, Title: "Pay rent", TriggeredAt: &fired})
		require.NoError(t, err)
		assert.JSONEq(t, `{"task_id":7,"title":"Pay rent","triggered_at":"2026-03-01T09:00:00Z"}`, string(b))
	})
}
