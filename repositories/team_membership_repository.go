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
	ErrTeamMembershipNotFound    = errors.New("team membership not found")
	ErrTeamMembershipConflict    = errors.New("user is already a member of this team")
	ErrTeamMembershipUserInvalid = errors.New("team membership user conflict or invalid")
	ErrTeamMembershipTeamInvalid = errors.New("team membership team conflict or invalid")
)

type TeamMembershipRepository interface {
	Create(ctx context.Context, exec SQLExecutor, membership *models.TeamMembership) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TeamMembership, error)
	FindByUserAndTeam(ctx context.Context, userID, teamID int) (*models.TeamMembership, error)
	ListByTeam(ctx context.Context, teamID int, statusFilter *models.MembershipStatus) ([]*models.TeamMembership, error)
	ListByUser(ctx context.Context, userID int) ([]*models.TeamMembership, error)
	// CountActiveAdmins считается под executor вызывающего, чтобы guard
	// «последний админ» видел записи, сделанные в той же транзакции.
	CountActiveAdmins(ctx context.Context, exec SQLExecutor, teamID int) (int, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MembershipStatus, leftAt *time.Time) error
	UpdateRole(ctx context.Context, exec SQLExecutor, id int, role models.TeamRole) error
	DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error
}

type postgresTeamMembershipRepository struct {
	db *sql.DB
}

func NewPostgresTeamMembershipRepository(db *sql.DB) TeamMembershipRepository {
	return &postgresTeamMembershipRepository{db: db}
}

func (r *postgresTeamMembershipRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamMembershipRepository) Create(ctx context.Context, exec SQLExecutor, membership *models.TeamMembership) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO team_memberships (user_id, team_id, role, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, joined_at`

	err := executor.QueryRowContext(ctx, query,
		membership.UserID,
		membership.TeamID,
		membership.Role,
		membership.Status,
	).Scan(&membership.ID, &membership.JoinedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "team_memberships_user_id_team_id_key" {
					return ErrTeamMembershipConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "team_memberships_user_id_fkey":
					return ErrTeamMembershipUserInvalid
				case "team_memberships_team_id_fkey":
					return ErrTeamMembershipTeamInvalid
				}
			}
		}
		return fmt.Errorf("failed to create team membership: %w", err)
	}
	return nil
}

func (r *postgresTeamMembershipRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TeamMembership, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, user_id, team_id, role, status, joined_at, left_at
		FROM team_memberships
		WHERE id = $1`

	m := &models.TeamMembership{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.UserID, &m.TeamID, &m.Role, &m.Status, &m.JoinedAt, &m.LeftAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamMembershipNotFound
		}
		return nil, fmt.Errorf("failed to find team membership: %w", err)
	}
	return m, nil
}

func (r *postgresTeamMembershipRepository) FindByUserAndTeam(ctx context.Context, userID, teamID int) (*models.TeamMembership, error) {
	query := `
		SELECT id, user_id, team_id, role, status, joined_at, left_at
		FROM team_memberships
		WHERE user_id = $1 AND team_id = $2`

	m := &models.TeamMembership{}
	err := r.db.QueryRowContext(ctx, query, userID, teamID).Scan(
		&m.ID, &m.UserID, &m.TeamID, &m.Role, &m.Status, &m.JoinedAt, &m.LeftAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamMembershipNotFound
		}
		return nil, fmt.Errorf("failed to find team membership: %w", err)
	}
	return m, nil
}

func (r *postgresTeamMembershipRepository) ListByTeam(ctx context.Context, teamID int, statusFilter *models.MembershipStatus) ([]*models.TeamMembership, error) {
	query := `
		SELECT id, user_id, team_id, role, status, joined_at, left_at
		FROM team_memberships
		WHERE team_id = $1`
	args := []interface{}{teamID}

	if statusFilter != nil {
		query += ` AND status = $2`
		args = append(args, *statusFilter)
	}
	query += ` ORDER BY joined_at ASC`

	return r.list(ctx, query, args...)
}

func (r *postgresTeamMembershipRepository) ListByUser(ctx context.Context, userID int) ([]*models.TeamMembership, error) {
	query := `
		SELECT id, user_id, team_id, role, status, joined_at, left_at
		FROM team_memberships
		WHERE user_id = $1
		ORDER BY joined_at DESC`
	return r.list(ctx, query, userID)
}

func (r *postgresTeamMembershipRepository) CountActiveAdmins(ctx context.Context, exec SQLExecutor, teamID int) (int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT COUNT(*)
		FROM team_memberships
		WHERE team_id = $1 AND role = $2 AND status = $3`

	var count int
	err := executor.QueryRowContext(ctx, query, teamID, models.TeamRoleAdmin, models.MembershipActive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count team admins: %w", err)
	}
	return count, nil
}

func (r *postgresTeamMembershipRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MembershipStatus, leftAt *time.Time) error {
	executor := r.getExecutor(exec)
	query := `UPDATE team_memberships SET status = $1, left_at = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, status, leftAt, id)
	if err != nil {
		return fmt.Errorf("failed to update team membership status: %w", err)
	}
	return checkAffectedRows(result, ErrTeamMembershipNotFound)
}

func (r *postgresTeamMembershipRepository) UpdateRole(ctx context.Context, exec SQLExecutor, id int, role models.TeamRole) error {
	executor := r.getExecutor(exec)
	query := `UPDATE team_memberships SET role = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, role, id)
	if err != nil {
		return fmt.Errorf("failed to update team membership role: %w", err)
	}
	return checkAffectedRows(result, ErrTeamMembershipNotFound)
}

func (r *postgresTeamMembershipRepository) DeleteByUser(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM team_memberships WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete team memberships for user %d: %w", userID, err)
	}
	return nil
}

func (r *postgresTeamMembershipRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.TeamMembership, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := make([]*models.TeamMembership, 0)
	for rows.Next() {
		var m models.TeamMembership
		if scanErr := rows.Scan(&m.ID, &m.UserID, &m.TeamID, &m.Role, &m.Status, &m.JoinedAt, &m.LeftAt); scanErr != nil {
			return nil, scanErr
		}
		memberships = append(memberships, &m)
	}
	return memberships, rows.Err()
}
