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
	ErrCommunityNotFound     = errors.New("community not found")
	ErrCommunityNameConflict = errors.New("community name conflict")
)

type CommunityRepository interface {
	Create(ctx context.Context, exec SQLExecutor, community *models.Community) error
	GetByID(ctx context.Context, id int) (*models.Community, error)
	List(ctx context.Context, limit, offset int) ([]*models.Community, error)
	Update(ctx context.Context, exec SQLExecutor, community *models.Community) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresCommunityRepository struct {
	db *sql.DB
}

func NewPostgresCommunityRepository(db *sql.DB) CommunityRepository {
	return &postgresCommunityRepository{db: db}
}

func (r *postgresCommunityRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresCommunityRepository) Create(ctx context.Context, exec SQLExecutor, community *models.Community) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO communities (name, description, logo_key)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		community.Name,
		community.Description,
		community.LogoKey,
	).Scan(&community.ID, &community.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "communities_name_key" {
				return ErrCommunityNameConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresCommunityRepository) GetByID(ctx context.Context, id int) (*models.Community, error) {
	query := `
		SELECT id, name, description, logo_key, created_at
		FROM communities
		WHERE id = $1`

	community := &models.Community{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&community.ID,
		&community.Name,
		&community.Description,
		&community.LogoKey,
		&community.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommunityNotFound
		}
		return nil, fmt.Errorf("failed to scan community: %w", err)
	}
	return community, nil
}

func (r *postgresCommunityRepository) List(ctx context.Context, limit, offset int) ([]*models.Community, error) {
	query := `
		SELECT id, name, description, logo_key, created_at
		FROM communities
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	communities := make([]*models.Community, 0)
	for rows.Next() {
		var c models.Community
		if scanErr := rows.Scan(&c.ID, &c.Name, &c.Description, &c.LogoKey, &c.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		communities = append(communities, &c)
	}
	return communities, rows.Err()
}

func (r *postgresCommunityRepository) Update(ctx context.Context, exec SQLExecutor, community *models.Community) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE communities SET
			name = $1,
			description = $2,
			logo_key = $3
		WHERE id = $4`

	result, err := executor.ExecContext(ctx, query,
		community.Name,
		community.Description,
		community.LogoKey,
		community.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "communities_name_key" {
				return ErrCommunityNameConflict
			}
		}
		return err
	}
	return checkAffectedRows(result, ErrCommunityNotFound)
}

func (r *postgresCommunityRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM communities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCommunityNotFound)
}
