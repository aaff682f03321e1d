package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teamgrid/community-system/db"
	"github.com/teamgrid/community-system/lifecycle"
	"github.com/teamgrid/community-system/models"
	"github.com/teamgrid/community-system/repositories"
)

type ProposalService interface {
	SubmitProposal(ctx context.Context, actorID, teamID, tournamentID int) (*models.TournamentProposal, error)
	CastVote(ctx context.Context, proposalID, voterID int, value bool) error
	ApproveTournamentProposal(ctx context.Context, proposalID int) (bool, error)
	GetProposal(ctx context.Context, proposalID int) (*models.TournamentProposal, error)
}

type proposalService struct {
	db                *sql.DB
	proposalRepo      repositories.ProposalRepository
	participationRepo repositories.ParticipationRepository
	tournamentRepo    repositories.TournamentRepository
	teamMemberRepo    repositories.TeamMembershipRepository
	notificationRepo  repositories.NotificationRepository
	notifier          Notifier
	logger            *slog.Logger
}

func NewProposalService(
	database *sql.DB,
	proposalRepo repositories.ProposalRepository,
	participationRepo repositories.ParticipationRepository,
	tournamentRepo repositories.TournamentRepository,
	teamMemberRepo repositories.TeamMembershipRepository,
	notificationRepo repositories.NotificationRepository,
	notifier Notifier,
	logger *slog.Logger,
) ProposalService {
	return &proposalService{
		db:                database,
		proposalRepo:      proposalRepo,
		participationRepo: participationRepo,
		tournamentRepo:    tournamentRepo,
		teamMemberRepo:    teamMemberRepo,
		notificationRepo:  notificationRepo,
		notifier:          notifier,
		logger:            logger,
	}
}

// SubmitProposal создаёт pending-заявку команды на турнир. Подать заявку
// может только активный админ команды; на пару (team, tournament) — одна
// заявка, дубликат отклоняется уникальным индексом.
func (s *proposalService) SubmitProposal(ctx context.Context, actorID, teamID, tournamentID int) (*models.TournamentProposal, error) {
	actor, err := s.teamMemberRepo.FindByUserAndTeam(ctx, actorID, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamMembershipNotFound) {
			return nil, ErrForbiddenOperation
		}
		return nil, storeFailure(err)
	}
	if actor.Status != models.MembershipActive || actor.Role != models.TeamRoleAdmin {
		return nil, ErrForbiddenOperation
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, storeFailure(err)
	}
	if tournament.Status != models.TournamentRegistration {
		return nil, fmt.Errorf("%w: tournament %d is not open for registration", ErrInvalidState, tournamentID)
	}

	proposal := &models.TournamentProposal{
		TeamID:       teamID,
		TournamentID: tournamentID,
		State:        models.ProposalPending,
		ProposedAt:   time.Now(),
	}

	if err := s.proposalRepo.Create(ctx, nil, proposal); err != nil {
		switch {
		case errors.Is(err, repositories.ErrProposalConflict):
			return nil, ErrProposalDuplicate
		case errors.Is(err, repositories.ErrProposalTeamInvalid):
			return nil, ErrTeamNotFound
		default:
			return nil, storeFailure(err)
		}
	}
	return proposal, nil
}

// CastVote добавляет голос участника команды по pending-заявке. Один голос
// на пару (proposal, voter); голоса не перезаписываются.
func (s *proposalService) CastVote(ctx context.Context, proposalID, voterID int, value bool) error {
	uow, err := db.Begin(ctx, s.db)
	if err != nil {
		return storeFailure(err)
	}
	defer uow.Close()

	proposal, err := s.proposalRepo.GetByID(ctx, uow.Tx(), proposalID)
	if err != nil {
		if errors.Is(err, repositories.ErrProposalNotFound) {
			return ErrProposalNotFound
		}
		return storeFailure(err)
	}

	voter, err := s.teamMemberRepo.FindByUserAndTeam(ctx, voterID, proposal.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamMembershipNotFound) {
			return ErrForbiddenOperation
		}
		return storeFailure(err)
	}
	if voter.Status != models.MembershipActive {
		return ErrForbiddenOperation
	}

	votes, err := s.proposalRepo.ListVotes(ctx, uow.Tx(), proposalID)
	if err != nil {
		return storeFailure(err)
	}

	if rej := lifecycle.GuardCastVote(proposal.State, votes, voterID); rej != nil {
		return rejectionToError(rej)
	}

	vote := &models.Vote{
		ProposalID: proposalID,
		VoterID:    voterID,
		Value:      value,
		CastAt:     time.Now(),
	}

	// Уникальный индекс (proposal_id, voter_id) страхует проверку выше
	// от гонки двух одновременных голосов одного участника.
	if err := s.proposalRepo.AddVote(ctx, uow.Tx(), vote); err != nil {
		if errors.Is(err, repositories.ErrVoteConflict) {
			return ErrAlreadyVoted
		}
		return storeFailure(err)
	}

	if err := uow.Commit(); err != nil {
		return storeFailure(err)
	}
	return nil
}

// ApproveTournamentProposal оценивает голосование по заявке. Единогласное
// «за» (все голоса true и хотя бы один голос) переводит заявку в accepted
// и создаёт участие в том же коммите. Не-единогласный результат оставляет
// заявку pending: транзакция не фиксируется, записей нет, возвращается
// false без ошибки.
func (s *proposalService) ApproveTournamentProposal(ctx context.Context, proposalID int) (bool, error) {
	uow, err := db.Begin(ctx, s.db)
	if err != nil {
		return false, storeFailure(err)
	}
	defer uow.Close()

	proposal, err := s.proposalRepo.GetByID(ctx, uow.Tx(), proposalID)
	if err != nil {
		if errors.Is(err, repositories.ErrProposalNotFound) {
			return false, ErrProposalNotFound
		}
		return false, storeFailure(err)
	}

	votes, err := s.proposalRepo.ListVotes(ctx, uow.Tx(), proposalID)
	if err != nil {
		return false, storeFailure(err)
	}

	evaluation, rej := lifecycle.EvaluateUnanimous(proposal.State, votes)
	if rej != nil {
		return false, rejectionToError(rej)
	}
	if !evaluation.Approved {
		// Заявка остаётся pending: будущие голоса ещё могут сделать
		// результат единогласным. Откат выполнит deferred Close.
		return false, nil
	}

	if err := s.proposalRepo.UpdateState(ctx, uow.Tx(), proposalID, evaluation.Next); err != nil {
		if errors.Is(err, repositories.ErrProposalNotPending) {
			return false, fmt.Errorf("%w: proposal %d", ErrAlreadyResolved, proposalID)
		}
		return false, storeFailure(err)
	}

	participation := &models.TournamentParticipation{
		TeamID:       proposal.TeamID,
		TournamentID: proposal.TournamentID,
		Status:       models.ParticipationAccepted,
		JoinedAt:     time.Now(),
	}
	if err := s.participationRepo.Create(ctx, uow.Tx(), participation); err != nil {
		if errors.Is(err, repositories.ErrParticipationConflict) {
			return false, ErrAlreadyParticipating
		}
		return false, storeFailure(err)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, proposal.TournamentID)
	if err != nil {
		return false, storeFailure(err)
	}

	active := models.MembershipActive
	members, err := s.teamMemberRepo.ListByTeam(ctx, proposal.TeamID, &active)
	if err != nil {
		return false, storeFailure(err)
	}

	message := fmt.Sprintf("Your team's proposal for the tournament %q has been approved", tournament.Name)
	var pushed []*models.Notification
	for _, m := range members {
		notification := &models.Notification{
			UserID:    m.UserID,
			Message:   message,
			CreatedAt: participation.JoinedAt,
		}
		if err := s.notificationRepo.Create(ctx, uow.Tx(), notification); err != nil {
			return false, storeFailure(err)
		}
		pushed = append(pushed, notification)
	}

	if err := uow.Commit(); err != nil {
		return false, storeFailure(err)
	}

	s.logger.Info("tournament proposal approved",
		slog.Int("proposal_id", proposalID),
		slog.Int("team_id", proposal.TeamID),
		slog.Int("tournament_id", proposal.TournamentID),
	)

	if s.notifier != nil {
		for _, n := range pushed {
			s.notifier.Push(n.UserID, n)
		}
	}
	return true, nil
}

func (s *proposalService) GetProposal(ctx context.Context, proposalID int) (*models.TournamentProposal, error) {
	proposal, err := s.proposalRepo.GetByID(ctx, nil, proposalID)
	if err != nil {
		if errors.Is(err, repositories.ErrProposalNotFound) {
			return nil, ErrProposalNotFound
		}
		return nil, storeFailure(err)
	}

	votes, err := s.proposalRepo.ListVotes(ctx, nil, proposalID)
	if err != nil {
		return nil, storeFailure(err)
	}
	proposal.Votes = votes
	return proposal, nil
}
