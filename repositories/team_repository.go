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
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameConflict = errors.New("team name conflict")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	Update(ctx context.Context, exec SQLExecutor, team *models.Team) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO teams (name)
		VALUES ($1)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query, team.Name).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "teams_name_key" {
				return ErrTeamNameConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT id, name, created_at FROM teams WHERE id = $1`

	team := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&team.ID, &team.Name, &team.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team: %w", err)
	}
	return team, nil
}

func (r *postgresTeamRepository) Update(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE teams SET name = $1 WHERE id = $2`, team.Name, team.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "teams_name_key" {
				return ErrTeamNameConflict
			}
		}
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
