package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/teamgrid/community-system/models"
)

var (
	ErrNotificationNotFound    = errors.New("notification not found")
	ErrNotificationUserInvalid = errors.New("notification user conflict or invalid")
)

type NotificationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, notification *models.Notification) error
	GetByID(ctx context.Context, id int) (*models.Notification, error)
	ListByUser(ctx context.Context, userID int, unreadOnly bool) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID int) (int, error)
	MarkRead(ctx context.Context, exec SQLExecutor, id int) error
	DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error
}

type postgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresNotificationRepository) Create(ctx context.Context, exec SQLExecutor, notification *models.Notification) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO notifications (user_id, message, read)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		notification.UserID,
		notification.Message,
		notification.Read,
	).Scan(&notification.ID, &notification.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "notifications_user_id_fkey" {
				return ErrNotificationUserInvalid
			}
		}
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *postgresNotificationRepository) GetByID(ctx context.Context, id int) (*models.Notification, error) {
	query := `SELECT id, user_id, message, read, created_at FROM notifications WHERE id = $1`

	n := &models.Notification{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&n.ID, &n.UserID, &n.Message, &n.Read, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}
	return n, nil
}

func (r *postgresNotificationRepository) ListByUser(ctx context.Context, userID int, unreadOnly bool) ([]*models.Notification, error) {
	query := `SELECT id, user_id, message, read, created_at FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if scanErr := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Read, &n.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

func (r *postgresNotificationRepository) CountUnread(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *postgresNotificationRepository) MarkRead(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification %d read: %w", id, err)
	}
	return checkAffectedRows(result, ErrNotificationNotFound)
}

func (r *postgresNotificationRepository) DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notifications for user %d: %w", userID, err)
	}
	return nil
}
