package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskpulse/internal/domain"
	"github.com/phrazzld/taskpulse/internal/platform/logger"
	"github.com/phrazzld/taskpulse/internal/store"
)

// PostgresDeadLetterStore implements the store.DeadLetterStore interface.
type PostgresDeadLetterStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDeadLetterStore creates a new PostgreSQL implementation of the DeadLetterStore interface.
func NewPostgresDeadLetterStore(db store.DBTX, logger *slog.Logger) *PostgresDeadLetterStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresDeadLetterStore{
		db:     db,
		logger: logger.With(slog.String("component", "dead_letter_store")),
	}
}

// Ensure PostgresDeadLetterStore implements store.DeadLetterStore interface
var _ store.DeadLetterStore = (*PostgresDeadLetterStore)(nil)

// Record implements store.DeadLetterStore.Record.
func (s *PostgresDeadLetterStore) Record(ctx context.Context, dl *domain.DeadLetter) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	payload := dl.Payload
	if payload == nil {
		payload = []byte{}
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO dead_letters (event_id, event_type, topic, consumer, payload, reason, attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		dl.EventID, dl.EventType, dl.Topic, dl.Consumer, payload, dl.Reason, dl.Attempts,
	).Scan(&dl.ID, &dl.CreatedAt)
	if err != nil {
		log.Error("failed to record dead letter",
			slog.String("error", err.Error()),
			slog.String("event_id", dl.EventID))
		return MapError(err)
	}

	log.Warn("event dead-lettered",
		slog.Int64("dead_letter_id", dl.ID),
		slog.String("event_id", dl.EventID),
		slog.String("event_type", dl.EventType),
		slog.String("reason", dl.Reason),
		slog.Int("attempts", dl.Attempts))
	return nil
}

// List implements store.DeadLetterStore.List.
func (s *PostgresDeadLetterStore) List(ctx context.Context, limit int) ([]domain.DeadLetter, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, event_type, topic, consumer, payload, reason, attempts, created_at
		FROM dead_letters
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var letters []domain.DeadLetter
	for rows.Next() {
		var dl domain.DeadLetter
		if err := rows.Scan(
			&dl.ID, &dl.EventID, &dl.EventType, &dl.Topic, &dl.Consumer,
			&dl.Payload, &dl.Reason, &dl.Attempts, &dl.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan dead letter: %w", err)
		}
		letters = append(letters, dl)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return letters, nil
}

// PruneBefore implements store.DeadLetterStore.PruneBefore.
func (s *PostgresDeadLetterStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM dead_letters WHERE created_at < $1`, cutoff.UTC())
	if err != nil {
		log.Error("failed to prune dead letters", slog.String("error", err.Error()))
		return 0, store.NewStoreError("dead_letter", "prune", "delete failed", MapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	log.Info("pruned dead letters", slog.Int64("count", n), slog.Time("cutoff", cutoff))
	return n, nil
}
