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
	ErrParticipationNotFound          = errors.New("tournament participation not found")
	ErrParticipationConflict          = errors.New("team already participates in this tournament")
	ErrParticipationTeamInvalid       = errors.New("participation team conflict or invalid")
	ErrParticipationTournamentInvalid = errors.New("participation tournament conflict or invalid")
)

type ParticipationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, participation *models.TournamentParticipation) error
	FindByTeamAndTournament(ctx context.Context, teamID, tournamentID int) (*models.TournamentParticipation, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentParticipation, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ParticipationStatus) error
}

type postgresParticipationRepository struct {
	db *sql.DB
}

func NewPostgresParticipationRepository(db *sql.DB) ParticipationRepository {
	return &postgresParticipationRepository{db: db}
}

func (r *postgresParticipationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipationRepository) Create(ctx context.Context, exec SQLExecutor, participation *models.TournamentParticipation) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_participations (team_id, tournament_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, joined_at`

	err := executor.QueryRowContext(ctx, query,
		participation.TeamID,
		participation.TournamentID,
		participation.Status,
	).Scan(&participation.ID, &participation.JoinedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "tournament_participations_team_id_tournament_id_key" {
					return ErrParticipationConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "tournament_participations_team_id_fkey":
					return ErrParticipationTeamInvalid
				case "tournament_participations_tournament_id_fkey":
					return ErrParticipationTournamentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create tournament participation: %w", err)
	}
	return nil
}

func (r *postgresParticipationRepository) FindByTeamAndTournament(ctx context.Context, teamID, tournamentID int) (*models.TournamentParticipation, error) {
	query := `
		SELECT id, team_id, tournament_id, status, joined_at
		FROM tournament_participations
		WHERE team_id = $1 AND tournament_id = $2`

	p := &models.TournamentParticipation{}
	err := r.db.QueryRowContext(ctx, query, teamID, tournamentID).Scan(
		&p.ID, &p.TeamID, &p.TournamentID, &p.Status, &p.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipationNotFound
		}
		return nil, fmt.Errorf("failed to find tournament participation: %w", err)
	}
	return p, nil
}

func (r *postgresParticipationRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentParticipation, error) {
	query := `
		SELECT id, team_id, tournament_id, status, joined_at
		FROM tournament_participations
		WHERE tournament_id = $1
		ORDER BY joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participations := make([]*models.TournamentParticipation, 0)
	for rows.Next() {
		var p models.TournamentParticipation
		if scanErr := rows.Scan(&p.ID, &p.TeamID, &p.TournamentID, &p.Status, &p.JoinedAt); scanErr != nil {
			return nil, scanErr
		}
		participations = append(participations, &p)
	}
	return participations, rows.Err()
}

func (r *postgresParticipationRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ParticipationStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE tournament_participations SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update participation status: %w", err)
	}
	return checkAffectedRows(result, ErrParticipationNotFound)
}
