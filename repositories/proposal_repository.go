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
	ErrProposalNotFound          = errors.New("tournament proposal not found")
	ErrProposalConflict          = errors.New("team already has a proposal for this tournament")
	ErrProposalNotPending        = errors.New("tournament proposal is not pending")
	ErrProposalTeamInvalid       = errors.New("proposal team conflict or invalid")
	ErrProposalTournamentInvalid = errors.New("proposal tournament conflict or invalid")
	ErrVoteConflict              = errors.New("voter has already voted on this proposal")
	ErrVoteVoterInvalid          = errors.New("vote voter conflict or invalid")
)

type ProposalRepository interface {
	Create(ctx context.Context, exec SQLExecutor, proposal *models.TournamentProposal) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentProposal, error)
	FindByTeamAndTournament(ctx context.Context, teamID, tournamentID int) (*models.TournamentProposal, error)
	// UpdateState с условием state = 'pending': ноль затронутых строк
	// означает, что предложение уже разрешено.
	UpdateState(ctx context.Context, exec SQLExecutor, id int, state models.ProposalState) error
	AddVote(ctx context.Context, exec SQLExecutor, vote *models.Vote) error
	ListVotes(ctx context.Context, exec SQLExecutor, proposalID int) ([]models.Vote, error)
	DeleteVotesByUser(ctx context.Context, exec SQLExecutor, userID int) error
}

type postgresProposalRepository struct {
	db *sql.DB
}

func NewPostgresProposalRepository(db *sql.DB) ProposalRepository {
	return &postgresProposalRepository{db: db}
}

func (r *postgresProposalRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresProposalRepository) Create(ctx context.Context, exec SQLExecutor, proposal *models.TournamentProposal) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_proposals (team_id, tournament_id, state)
		VALUES ($1, $2, $3)
		RETURNING id, proposed_at`

	err := executor.QueryRowContext(ctx, query,
		proposal.TeamID,
		proposal.TournamentID,
		proposal.State,
	).Scan(&proposal.ID, &proposal.ProposedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "tournament_proposals_team_id_tournament_id_key" {
					return ErrProposalConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "tournament_proposals_team_id_fkey":
					return ErrProposalTeamInvalid
				case "tournament_proposals_tournament_id_fkey":
					return ErrProposalTournamentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create tournament proposal: %w", err)
	}
	return nil
}

func (r *postgresProposalRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentProposal, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, team_id, tournament_id, state, proposed_at
		FROM tournament_proposals
		WHERE id = $1`

	p := &models.TournamentProposal{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.TeamID, &p.TournamentID, &p.State, &p.ProposedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament proposal: %w", err)
	}
	return p, nil
}

func (r *postgresProposalRepository) FindByTeamAndTournament(ctx context.Context, teamID, tournamentID int) (*models.TournamentProposal, error) {
	query := `
		SELECT id, team_id, tournament_id, state, proposed_at
		FROM tournament_proposals
		WHERE team_id = $1 AND tournament_id = $2`

	p := &models.TournamentProposal{}
	err := r.db.QueryRowContext(ctx, query, teamID, tournamentID).Scan(
		&p.ID, &p.TeamID, &p.TournamentID, &p.State, &p.ProposedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to find tournament proposal: %w", err)
	}
	return p, nil
}

func (r *postgresProposalRepository) UpdateState(ctx context.Context, exec SQLExecutor, id int, state models.ProposalState) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournament_proposals
		SET state = $1
		WHERE id = $2 AND state = $3`

	result, err := executor.ExecContext(ctx, query, state, id, models.ProposalPending)
	if err != nil {
		return fmt.Errorf("failed to update proposal %d state: %w", id, err)
	}
	return checkAffectedRows(result, ErrProposalNotPending)
}

func (r *postgresProposalRepository) AddVote(ctx context.Context, exec SQLExecutor, vote *models.Vote) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO proposal_votes (proposal_id, voter_id, value)
		VALUES ($1, $2, $3)
		RETURNING id, cast_at`

	err := executor.QueryRowContext(ctx, query,
		vote.ProposalID,
		vote.VoterID,
		vote.Value,
	).Scan(&vote.ID, &vote.CastAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "proposal_votes_proposal_id_voter_id_key" {
					return ErrVoteConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "proposal_votes_proposal_id_fkey":
					return ErrProposalNotFound
				case "proposal_votes_voter_id_fkey":
					return ErrVoteVoterInvalid
				}
			}
		}
		return fmt.Errorf("failed to add vote: %w", err)
	}
	return nil
}

func (r *postgresProposalRepository) ListVotes(ctx context.Context, exec SQLExecutor, proposalID int) ([]models.Vote, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, proposal_id, voter_id, value, cast_at
		FROM proposal_votes
		WHERE proposal_id = $1
		ORDER BY cast_at ASC`

	rows, err := executor.QueryContext(ctx, query, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes for proposal %d: %w", proposalID, err)
	}
	defer rows.Close()

	votes := make([]models.Vote, 0)
	for rows.Next() {
		var v models.Vote
		if scanErr := rows.Scan(&v.ID, &v.ProposalID, &v.VoterID, &v.Value, &v.CastAt); scanErr != nil {
			return nil, scanErr
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

func (r *postgresProposalRepository) DeleteVotesByUser(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM proposal_votes WHERE voter_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete votes for user %d: %w", userID, err)
	}
	return nil
}
