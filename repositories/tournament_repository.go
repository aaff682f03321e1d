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
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name conflict")
)

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, statusFilter *models.TournamentStatus) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournaments (name, status, starts_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		tournament.Name,
		tournament.Status,
		tournament.StartsAt,
	).Scan(&tournament.ID, &tournament.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "tournaments_name_key" {
				return ErrTournamentNameConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT id, name, status, starts_at, created_at FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.Status, &t.StartsAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament: %w", err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, statusFilter *models.TournamentStatus) ([]*models.Tournament, error) {
	query := `SELECT id, name, status, starts_at, created_at FROM tournaments`
	args := []interface{}{}

	if statusFilter != nil {
		query += ` WHERE status = $1`
		args = append(args, *statusFilter)
	}
	query += ` ORDER BY starts_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := rows.Scan(&t.ID, &t.Name, &t.Status, &t.StartsAt, &t.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, &t)
	}
	return tournaments, rows.Err()
}
