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
	ErrInvitationNotFound         = errors.New("invitation not found")
	ErrInvitationNotPending       = errors.New("invitation is not pending")
	ErrInvitationSenderInvalid    = errors.New("invitation sender conflict or invalid")
	ErrInvitationRecipientInvalid = errors.New("invitation recipient conflict or invalid")
)

type InvitationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, invitation *models.Invitation) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Invitation, error)
	// Resolve переводит приглашение из pending в терминальное состояние.
	// Условие state = 'pending' в запросе даёт защиту от двойного
	// разрешения и на уровне БД: ноль затронутых строк — ErrInvitationNotPending.
	Resolve(ctx context.Context, exec SQLExecutor, id int, state models.InvitationState, respondedAt time.Time) error
	ListByRecipient(ctx context.Context, recipientID int, pendingOnly bool) ([]*models.Invitation, error)
	DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error
}

type postgresInvitationRepository struct {
	db *sql.DB
}

func NewPostgresInvitationRepository(db *sql.DB) InvitationRepository {
	return &postgresInvitationRepository{db: db}
}

func (r *postgresInvitationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresInvitationRepository) Create(ctx context.Context, exec SQLExecutor, invitation *models.Invitation) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO invitations (type, sender_id, recipient_id, target_id, state)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, sent_at`

	err := executor.QueryRowContext(ctx, query,
		invitation.Type,
		invitation.SenderID,
		invitation.RecipientID,
		invitation.TargetID,
		invitation.State,
	).Scan(&invitation.ID, &invitation.SentAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			switch pqErr.Constraint {
			case "invitations_sender_id_fkey":
				return ErrInvitationSenderInvalid
			case "invitations_recipient_id_fkey":
				return ErrInvitationRecipientInvalid
			}
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

func (r *postgresInvitationRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Invitation, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, type, sender_id, recipient_id, target_id, state, sent_at, responded_at
		FROM invitations
		WHERE id = $1`

	inv := &models.Invitation{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&inv.ID,
		&inv.Type,
		&inv.SenderID,
		&inv.RecipientID,
		&inv.TargetID,
		&inv.State,
		&inv.SentAt,
		&inv.RespondedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to scan invitation: %w", err)
	}
	return inv, nil
}

func (r *postgresInvitationRepository) Resolve(ctx context.Context, exec SQLExecutor, id int, state models.InvitationState, respondedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE invitations
		SET state = $1, responded_at = $2
		WHERE id = $3 AND state = $4`

	result, err := executor.ExecContext(ctx, query, state, respondedAt, id, models.InvitationPending)
	if err != nil {
		return fmt.Errorf("failed to resolve invitation %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrInvitationNotPending)
}

func (r *postgresInvitationRepository) ListByRecipient(ctx context.Context, recipientID int, pendingOnly bool) ([]*models.Invitation, error) {
	query := `
		SELECT id, type, sender_id, recipient_id, target_id, state, sent_at, responded_at
		FROM invitations
		WHERE recipient_id = $1`
	args := []interface{}{recipientID}

	if pendingOnly {
		query += ` AND state = $2`
		args = append(args, models.InvitationPending)
	}
	query += ` ORDER BY sent_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invitations := make([]*models.Invitation, 0)
	for rows.Next() {
		var inv models.Invitation
		if scanErr := rows.Scan(
			&inv.ID, &inv.Type, &inv.SenderID, &inv.RecipientID,
			&inv.TargetID, &inv.State, &inv.SentAt, &inv.RespondedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		invitations = append(invitations, &inv)
	}
	return invitations, rows.Err()
}

func (r *postgresInvitationRepository) DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM invitations WHERE sender_id = $1 OR recipient_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete invitations for user %d: %w", userID, err)
	}
	return nil
}
