package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskpulse/internal/domain"
	"github.com/phrazzld/taskpulse/internal/platform/logger"
	"github.com/phrazzld/taskpulse/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db *sql.DB, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// taskColumns is the select list understood by scanTask. Tags are read as a
// JSON array so they scan into a plain []byte.
const taskColumns = `
	id, user_id, title, description, priority,
	COALESCE(array_to_json(tags), '[]'::json)::text,
	due_date, recurrence, recurrence_end_date, reminder_minutes_before,
	reminder_sent, completed, source_task_id, created_at, updated_at`

const insertOccurrenceQuery = `
	INSERT INTO tasks (
		user_id, title, description, priority, tags, due_date, recurrence,
		recurrence_end_date, reminder_minutes_before, reminder_sent, completed, source_task_id
	)
	VALUES ($1, $2, $3, $4, ARRAY(SELECT jsonb_array_elements_text($5::jsonb)), $6, $7, $8, $9, FALSE, FALSE, $10)
	ON CONFLICT (source_task_id, due_date) DO NOTHING
	RETURNING id, created_at, updated_at`

const selectOccurrenceQuery = `
	SELECT` + taskColumns + `
	FROM tasks
	WHERE source_task_id = $1 AND due_date = $2`

const selectTaskByIDQuery = `
	SELECT` + taskColumns + `
	FROM tasks
	WHERE id = $1`

// CreateOccurrence implements store.TaskStore.CreateOccurrence.
// The insert and the fallback lookup of an existing occurrence run in one transaction.
func (s *PostgresTaskStore) CreateOccurrence(
	ctx context.Context,
	task *domain.Task,
) (*domain.Task, bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during occurrence create",
			slog.String("error", err.Error()),
			slog.String("user_id", task.UserID))
		return nil, false, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	if task.SourceTaskID == nil || task.DueAt == nil {
		return nil, false, fmt.Errorf("%w: occurrence requires source task and due date", store.ErrInvalidEntity)
	}

	tags := task.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode tags: %w", err)
	}

	var (
		result  *domain.Task
		created bool
	)

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		inserted := *task
		err := tx.QueryRowContext(ctx, insertOccurrenceQuery,
			task.UserID,
			task.Title,
			task.Description,
			task.Priority,
			string(tagsJSON),
			task.DueAt.UTC(),
			task.Recurrence,
			nullableTime(task.RecurrenceEndAt),
			task.ReminderLeadMinutes,
			*task.SourceTaskID,
		).Scan(&inserted.ID, &inserted.CreatedAt, &inserted.UpdatedAt)

		switch {
		case err == nil:
			inserted.Completed = false
			inserted.ReminderSent = false
			result, created = &inserted, true
			return nil
		case errors.Is(err, sql.ErrNoRows):
			// Conflict: this occurrence was already generated
			existing, err := scanTask(tx.QueryRowContext(ctx, selectOccurrenceQuery,
				*task.SourceTaskID, task.DueAt.UTC()))
			if err != nil {
				return MapError(err)
			}
			result, created = existing, false
			return nil
		default:
			return MapError(err)
		}
	})
	if err != nil {
		log.Error("failed to create task occurrence",
			slog.String("error", err.Error()),
			slog.Int64("source_task_id", *task.SourceTaskID))
		return nil, false, err
	}

	log.Info("task occurrence stored",
		slog.Int64("task_id", result.ID),
		slog.Int64("source_task_id", *task.SourceTaskID),
		slog.Bool("created", created))
	return result, created, nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := scanTask(s.db.QueryRowContext(ctx, selectTaskByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.Int64("task_id", id))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.Int64("task_id", id))
		return nil, MapError(err)
	}

	return task, nil
}

// MarkReminderSent implements store.TaskStore.MarkReminderSent.
func (s *PostgresTaskStore) MarkReminderSent(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET reminder_sent = TRUE, updated_at = $1
		WHERE id = $2`,
		time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to mark reminder sent",
			slog.String("error", err.Error()),
			slog.Int64("task_id", id))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Debug("reminder marked sent", slog.Int64("task_id", id))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		description sql.NullString
		priority    string
		tagsJSON    []byte
		dueDate     sql.NullTime
		recurrence  string
		endDate     sql.NullTime
		sourceID    sql.NullInt64
	)

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&description,
		&priority,
		&tagsJSON,
		&dueDate,
		&recurrence,
		&endDate,
		&task.ReminderLeadMinutes,
		&task.ReminderSent,
		&task.Completed,
		&sourceID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Priority = domain.Priority(priority)
	task.Recurrence = domain.Recurrence(recurrence)

	if description.Valid {
		task.Description = &description.String
	}
	if dueDate.Valid {
		t := dueDate.Time
		task.DueAt = &t
	}
	if endDate.Valid {
		t := endDate.Time
		task.RecurrenceEndAt = &t
	}
	if sourceID.Valid {
		id := sourceID.Int64
		task.SourceTaskID = &id
	}

	task.Tags = []string{}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &task.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}

	return &task, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
