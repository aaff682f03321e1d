package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamgrid/community-system/models"
	"github.com/teamgrid/community-system/repositories"
)

func pendingProposal() *models.TournamentProposal {
	return &models.TournamentProposal{
		ID:           3,
		TeamID:       42,
		TournamentID: 7,
		State:        models.ProposalPending,
		ProposedAt:   time.Now().Add(-time.Hour),
	}
}

func TestApproveProposalUnanimousCommits(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	var resolvedState models.ProposalState
	proposalRepo := &fakeProposalRepo{
		getByIDFn: func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TournamentProposal, error) {
			require.NotNil(t, exec)
			return pendingProposal(), nil
		},
		listVotesFn: func(ctx context.Context, exec repositories.SQLExecutor, proposalID int) ([]models.Vote, error) {
			return []models.Vote{
				{ID: 1, VoterID: 5, Value: true},
				{ID: 2, VoterID: 6, Value: true},
			}, nil
		},
		updateStateFn: func(ctx context.Context, exec repositories.SQLExecutor, id int, state models.ProposalState) error {
			require.NotNil(t, exec)
			resolvedState = state
			return nil
		},
	}

	var participation *models.TournamentParticipation
	participationRepo := &fakeParticipationRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, p *models.TournamentParticipation) error {
			require.NotNil(t, exec)
			p.ID = 88
			participation = p
			return nil
		},
	}
	tournamentRepo := &fakeTournamentRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.Tournament, error) {
			return &models.Tournament{ID: id, Name: "Spring Cup"}, nil
		},
	}
	teamMemberRepo := &fakeTeamMembershipRepo{
		listByTeamFn: func(ctx context.Context, teamID int, statusFilter *models.MembershipStatus) ([]*models.TeamMembership, error) {
			return []*models.TeamMembership{{ID: 1, UserID: 5, TeamID: teamID}}, nil
		},
	}
	notificationRepo := &fakeNotificationRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, notification *models.Notification) error {
			return nil
		},
	}

	svc := NewProposalService(conn, proposalRepo, participationRepo, tournamentRepo, teamMemberRepo, notificationRepo, nil, testLogger())

	approved, err := svc.ApproveTournamentProposal(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, approved)

	assert.Equal(t, models.ProposalAccepted, resolvedState)
	require.NotNil(t, participation)
	assert.Equal(t, 42, participation.TeamID)
	assert.Equal(t, 7, participation.TournamentID)
	assert.Equal(t, models.ParticipationAccepted, participation.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveProposalNonUnanimousLeavesPending(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	// Не единогласно: никаких записей, транзакция откатывается,
	// approved=false без ошибки.
	mock.ExpectBegin()
	mock.ExpectRollback()

	proposalRepo := &fakeProposalRepo{
		getByIDFn: func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TournamentProposal, error) {
			return pendingProposal(), nil
		},
		listVotesFn: func(ctx context.Context, exec repositories.SQLExecutor, proposalID int) ([]models.Vote, error) {
			return []models.Vote{
				{ID: 1, VoterID: 5, Value: true},
				{ID: 2, VoterID: 6, Value: false},
			}, nil
		},
	}

	svc := NewProposalService(conn, proposalRepo, nil, nil, nil, nil, nil, testLogger())

	approved, err := svc.ApproveTournamentProposal(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, approved)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveProposalNoVotesLeavesPending(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	proposalRepo := &fakeProposalRepo{
		getByIDFn: func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TournamentProposal, error) {
			return pendingProposal(), nil
		},
		listVotesFn: func(ctx context.Context, exec repositories.SQLExecutor, proposalID int) ([]models.Vote, error) {
			return nil, nil
		},
	}

	svc := NewProposalService(conn, proposalRepo, nil, nil, nil, nil, nil, testLogger())

	approved, err := svc.ApproveTournamentProposal(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, approved)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveProposalAlreadyResolved(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	proposalRepo := &fakeProposalRepo{
		getByIDFn: func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TournamentProposal, error) {
			p := pendingProposal()
			p.State = models.ProposalAccepted
			return p, nil
		},
		listVotesFn: func(ctx context.Context, exec repositories.SQLExecutor, proposalID int) ([]models.Vote, error) {
			return []models.Vote{{ID: 1, VoterID: 5, Value: true}}, nil
		},
	}

	svc := NewProposalService(conn, proposalRepo, nil, nil, nil, nil, nil, testLogger())

	_, err = svc.ApproveTournamentProposal(context.Background(), 3)
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCastVoteDuplicateVoter(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	proposalRepo := &fakeProposalRepo{
		getByIDFn: func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TournamentProposal, error) {
			return pendingProposal(), nil
		},
		listVotesFn: func(ctx context.Context, exec repositories.SQLExecutor, proposalID int) ([]models.Vote, error) {
			return []models.Vote{{ID: 1, VoterID: 5, Value: true}}, nil
		},
	}
	teamMemberRepo := &fakeTeamMembershipRepo{
		findByUserAndTeamFn: func(ctx context.Context, userID, teamID int) (*models.TeamMembership, error) {
			return &models.TeamMembership{ID: 1, UserID: userID, TeamID: teamID, Status: models.MembershipActive}, nil
		},
	}

	svc := NewProposalService(conn, proposalRepo, nil, nil, teamMemberRepo, nil, nil, testLogger())

	err = svc.CastVote(context.Background(), 3, 5, false)
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCastVoteRecordsVote(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	var vote *models.Vote
	proposalRepo := &fakeProposalRepo{
		getByIDFn: func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TournamentProposal, error) {
			return pendingProposal(), nil
		},
		listVotesFn: func(ctx context.Context, exec repositories.SQLExecutor, proposalID int) ([]models.Vote, error) {
			return nil, nil
		},
		addVoteFn: func(ctx context.Context, exec repositories.SQLExecutor, v *models.Vote) error {
			require.NotNil(t, exec)
			v.ID = 1
			vote = v
			return nil
		},
	}
	teamMemberRepo := &fakeTeamMembershipRepo{
		findByUserAndTeamFn: func(ctx context.Context, userID, teamID int) (*models.TeamMembership, error) {
			return &models.TeamMembership{ID: 1, UserID: userID, TeamID: teamID, Status: models.MembershipActive}, nil
		},
	}

	svc := NewProposalService(conn, proposalRepo, nil, nil, teamMemberRepo, nil, nil, testLogger())

	require.NoError(t, svc.CastVote(context.Background(), 3, 5, true))
	require.NotNil(t, vote)
	assert.Equal(t, 3, vote.ProposalID)
	assert.Equal(t, 5, vote.VoterID)
	assert.True(t, vote.Value)

	assert.NoError(t, mock.ExpectationsWereMet())
}
