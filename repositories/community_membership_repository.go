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
	ErrCommunityMembershipNotFound         = errors.New("community membership not found")
	ErrCommunityMembershipConflict         = errors.New("user is already a member of this community")
	ErrCommunityMembershipUserInvalid      = errors.New("community membership user conflict or invalid")
	ErrCommunityMembershipCommunityInvalid = errors.New("community membership community conflict or invalid")
)

type CommunityMembershipRepository interface {
	Create(ctx context.Context, exec SQLExecutor, membership *models.CommunityMembership) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.CommunityMembership, error)
	FindByUserAndCommunity(ctx context.Context, userID, communityID int) (*models.CommunityMembership, error)
	ListByCommunity(ctx context.Context, communityID int, statusFilter *models.MembershipStatus) ([]*models.CommunityMembership, error)
	ListByUser(ctx context.Context, userID int) ([]*models.CommunityMembership, error)
	CountByRole(ctx context.Context, exec SQLExecutor, communityID int, role models.CommunityRole, status models.MembershipStatus) (int, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MembershipStatus, leftAt *time.Time) error
	UpdateRole(ctx context.Context, exec SQLExecutor, id int, role models.CommunityRole) error
	DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error
}

type postgresCommunityMembershipRepository struct {
	db *sql.DB
}

func NewPostgresCommunityMembershipRepository(db *sql.DB) CommunityMembershipRepository {
	return &postgresCommunityMembershipRepository{db: db}
}

func (r *postgresCommunityMembershipRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresCommunityMembershipRepository) Create(ctx context.Context, exec SQLExecutor, membership *models.CommunityMembership) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO community_memberships (user_id, community_id, role, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, joined_at`

	err := executor.QueryRowContext(ctx, query,
		membership.UserID,
		membership.CommunityID,
		membership.Role,
		membership.Status,
	).Scan(&membership.ID, &membership.JoinedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "community_memberships_user_id_community_id_key" {
					return ErrCommunityMembershipConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "community_memberships_user_id_fkey":
					return ErrCommunityMembershipUserInvalid
				case "community_memberships_community_id_fkey":
					return ErrCommunityMembershipCommunityInvalid
				}
			}
		}
		return fmt.Errorf("failed to create community membership: %w", err)
	}
	return nil
}

func (r *postgresCommunityMembershipRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.CommunityMembership, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, user_id, community_id, role, status, joined_at, left_at
		FROM community_memberships
		WHERE id = $1`

	m := &models.CommunityMembership{}
	err := r.scanMembership(executor.QueryRowContext(ctx, query, id), m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommunityMembershipNotFound
		}
		return nil, fmt.Errorf("failed to find community membership: %w", err)
	}
	return m, nil
}

func (r *postgresCommunityMembershipRepository) FindByUserAndCommunity(ctx context.Context, userID, communityID int) (*models.CommunityMembership, error) {
	query := `
		SELECT id, user_id, community_id, role, status, joined_at, left_at
		FROM community_memberships
		WHERE user_id = $1 AND community_id = $2`

	m := &models.CommunityMembership{}
	err := r.scanMembership(r.db.QueryRowContext(ctx, query, userID, communityID), m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommunityMembershipNotFound
		}
		return nil, fmt.Errorf("failed to find community membership: %w", err)
	}
	return m, nil
}

func (r *postgresCommunityMembershipRepository) ListByCommunity(ctx context.Context, communityID int, statusFilter *models.MembershipStatus) ([]*models.CommunityMembership, error) {
	query := `
		SELECT id, user_id, community_id, role, status, joined_at, left_at
		FROM community_memberships
		WHERE community_id = $1`
	args := []interface{}{communityID}

	if statusFilter != nil {
		query += ` AND status = $2`
		args = append(args, *statusFilter)
	}
	query += ` ORDER BY joined_at ASC`

	return r.list(ctx, query, args...)
}

func (r *postgresCommunityMembershipRepository) ListByUser(ctx context.Context, userID int) ([]*models.CommunityMembership, error) {
	query := `
		SELECT id, user_id, community_id, role, status, joined_at, left_at
		FROM community_memberships
		WHERE user_id = $1
		ORDER BY joined_at DESC`
	return r.list(ctx, query, userID)
}

func (r *postgresCommunityMembershipRepository) CountByRole(ctx context.Context, exec SQLExecutor, communityID int, role models.CommunityRole, status models.MembershipStatus) (int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT COUNT(*)
		FROM community_memberships
		WHERE community_id = $1 AND role = $2 AND status = $3`

	var count int
	if err := executor.QueryRowContext(ctx, query, communityID, role, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count community memberships: %w", err)
	}
	return count, nil
}

func (r *postgresCommunityMembershipRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MembershipStatus, leftAt *time.Time) error {
	executor := r.getExecutor(exec)
	query := `UPDATE community_memberships SET status = $1, left_at = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, status, leftAt, id)
	if err != nil {
		return fmt.Errorf("failed to update community membership status: %w", err)
	}
	return checkAffectedRows(result, ErrCommunityMembershipNotFound)
}

func (r *postgresCommunityMembershipRepository) UpdateRole(ctx context.Context, exec SQLExecutor, id int, role models.CommunityRole) error {
	executor := r.getExecutor(exec)
	query := `UPDATE community_memberships SET role = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, role, id)
	if err != nil {
		return fmt.Errorf("failed to update community membership role: %w", err)
	}
	return checkAffectedRows(result, ErrCommunityMembershipNotFound)
}

func (r *postgresCommunityMembershipRepository) DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM community_memberships WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete community memberships for user %d: %w", userID, err)
	}
	return nil
}

func (r *postgresCommunityMembershipRepository) scanMembership(row *sql.Row, m *models.CommunityMembership) error {
	return row.Scan(
		&m.ID,
		&m.UserID,
		&m.CommunityID,
		&m.Role,
		&m.Status,
		&m.JoinedAt,
		&m.LeftAt,
	)
}

func (r *postgresCommunityMembershipRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.CommunityMembership, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := make([]*models.CommunityMembership, 0)
	for rows.Next() {
		var m models.CommunityMembership
		if scanErr := rows.Scan(&m.ID, &m.UserID, &m.CommunityID, &m.Role, &m.Status, &m.JoinedAt, &m.LeftAt); scanErr != nil {
			return nil, scanErr
		}
		memberships = append(memberships, &m)
	}
	return memberships, rows.Err()
}
