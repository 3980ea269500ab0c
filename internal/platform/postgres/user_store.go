package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/phrazzld/taskpulse/internal/platform/logger"
	"github.com/phrazzld/taskpulse/internal/redact"
	"github.com/phrazzld/taskpulse/internal/store"
)

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// GetEmail implements store.UserStore.GetEmail.
func (s *PostgresUserStore) GetEmail(ctx context.Context, userID string) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var email string
	err := s.db.QueryRowContext(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found", slog.String("user_id", userID))
			return "", store.ErrUserNotFound
		}
		log.Error("failed to get user email",
			slog.String("error", err.Error()),
			slog.String("user_id", userID))
		return "", MapError(err)
	}

	log.Debug("user email resolved",
		slog.String("user_id", userID),
		slog.String("email", redact.Email(email)))
	return email, nil
}
