package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/teamgrid/community-system/models"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionTokenConflict = errors.New("session token conflict")
	ErrSessionUserInvalid   = errors.New("session user conflict or invalid")
)

type SessionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, session *models.Session) error
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	// Close устанавливает ended_at только для ещё открытой сессии.
	// Повторное закрытие — no-op: ноль затронутых строк не считается ошибкой,
	// исходное время завершения сохраняется.
	Close(ctx context.Context, exec SQLExecutor, id int, endedAt time.Time) error
	DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error
}

type postgresSessionRepository struct {
	db *sql.DB
}

func NewPostgresSessionRepository(db *sql.DB) SessionRepository {
	return &postgresSessionRepository{db: db}
}

func (r *postgresSessionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSessionRepository) Create(ctx context.Context, exec SQLExecutor, session *models.Session) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO sessions (user_id, token)
		VALUES ($1, $2)
		RETURNING id, started_at`

	err := executor.QueryRowContext(ctx, query,
		session.UserID,
		session.Token,
	).Scan(&session.ID, &session.StartedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "sessions_token_key" {
					return ErrSessionTokenConflict
				}
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "sessions_user_id_fkey" {
					return ErrSessionUserInvalid
				}
			}
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *postgresSessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT id, user_id, token, started_at, ended_at
		FROM sessions
		WHERE token = $1`

	s := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&s.ID, &s.UserID, &s.Token, &s.StartedAt, &s.EndedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	return s, nil
}

func (r *postgresSessionRepository) Close(ctx context.Context, exec SQLExecutor, id int, endedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `UPDATE sessions SET ended_at = $1 WHERE id = $2 AND ended_at IS NULL`
	if _, err := executor.ExecContext(ctx, query, endedAt, id); err != nil {
		return fmt.Errorf("failed to close session %d: %w", id, err)
	}
	return nil
}

func (r *postgresSessionRepository) DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete sessions for user %d: %w", userID, err)
	}
	return nil
}
