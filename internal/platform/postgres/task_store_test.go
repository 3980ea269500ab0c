package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/taskpulse/internal/domain"
	"github.com/phrazzld/taskpulse/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errConnReset = errors.New("connection reset by peer")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var taskRowColumns = []string{
	"id", "user_id", "title", "description", "priority", "tags",
	"due_date", "recurrence", "recurrence_end_date", "reminder_minutes_before",
	"reminder_sent", "completed", "source_task_id", "created_at", "updated_at",
}

func newOccurrence() *domain.Task {
	due := time.Date(2026, time.January, 12, 9, 0, 0, 0, time.UTC)
	source := int64(41)
	return &domain.Task{
		UserID:              "user-1",
		Title:               "Weekly review",
		Priority:            domain.PriorityHigh,
		Tags:                []string{"work", "planning"},
		DueAt:               &due,
		Recurrence:          domain.RecurrenceWeekly,
		ReminderLeadMinutes: 30,
		SourceTaskID:        &source,
	}
}

func TestCreateOccurrence_Inserted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	s := NewPostgresTaskStore(db, testLogger())
	task := newOccurrence()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO tasks").
		WithArgs(
			"user-1", "Weekly review", nil, "high", `["work","planning"]`,
			*task.DueAt, "weekly", nil, 30, int64(41),
		).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(42, now, now))
	mock.ExpectCommit()

	got, created, err := s.CreateOccurrence(context.Background(), task)

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(42), got.ID)
	assert.False(t, got.ReminderSent)
	assert.False(t, got.Completed)
	assert.Equal(t, task.Tags, got.Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOccurrence_ConflictLoadsExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	s := NewPostgresTaskStore(db, testLogger())
	task := newOccurrence()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO tasks").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}))
	mock.ExpectQuery("WHERE source_task_id = \\$1 AND due_date = \\$2").
		WithArgs(int64(41), *task.DueAt).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).AddRow(
			42, "user-1", "Weekly review", nil, "high", `["work","planning"]`,
			*task.DueAt, "weekly", nil, 30,
			true, false, 41, now, now,
		))
	mock.ExpectCommit()

	got, created, err := s.CreateOccurrence(context.Background(), task)

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(42), got.ID)
	assert.True(t, got.ReminderSent, "existing row is returned as stored")
	require.NotNil(t, got.SourceTaskID)
	assert.Equal(t, int64(41), *got.SourceTaskID)
	assert.Equal(t, []string{"work", "planning"}, got.Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOccurrence_InvalidTask(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	s := NewPostgresTaskStore(db, testLogger())

	task := newOccurrence()
	task.Title = ""
	_, _, err = s.CreateOccurrence(context.Background(), task)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.ErrorIs(t, err, domain.ErrEmptyTaskTitle)

	task = newOccurrence()
	task.SourceTaskID = nil
	_, _, err = s.CreateOccurrence(context.Background(), task)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOccurrence_DatabaseErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	s := NewPostgresTaskStore(db, testLogger())

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO tasks").WillReturnError(errConnReset)
	mock.ExpectRollback()

	_, _, err = s.CreateOccurrence(context.Background(), newOccurrence())
	assert.ErrorIs(t, err, errConnReset)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	s := NewPostgresTaskStore(db, testLogger())
	now := time.Now().UTC()
	due := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM tasks").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).AddRow(
			7, "user-1", "Pay rent", "landlord", "medium", nil,
			due, "monthly", nil, 60,
			false, false, nil, now, now,
		))

	task, err := s.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Pay rent", task.Title)
	require.NotNil(t, task.Description)
	assert.Equal(t, "landlord", *task.Description)
	assert.Equal(t, domain.RecurrenceMonthly, task.Recurrence)
	assert.Empty(t, task.Tags)
	assert.Nil(t, task.SourceTaskID)
	assert.True(t, due.Equal(*task.DueAt))

	mock.ExpectQuery("FROM tasks").
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows(taskRowColumns))

	_, err = s.GetByID(context.Background(), 8)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReminderSent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	s := NewPostgresTaskStore(db, testLogger())

	mock.ExpectExec("UPDATE tasks").
		WithArgs(sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, s.MarkReminderSent(context.Background(), 7))

	mock.ExpectExec("UPDATE tasks").
		WithArgs(sqlmock.AnyArg(), int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.MarkReminderSent(context.Background(), 99), store.ErrTaskNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
