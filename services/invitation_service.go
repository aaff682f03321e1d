package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/teamgrid/community-system/db"
	"github.com/teamgrid/community-system/lifecycle"
	"github.com/teamgrid/community-system/models"
	"github.com/teamgrid/community-system/repositories"
)

type InvitationService interface {
	SendTeamInvitation(ctx context.Context, senderID, recipientID, teamID int) (*models.Invitation, error)
	SendCommunityInvitation(ctx context.Context, senderID, recipientID, communityID int) (*models.Invitation, error)
	AcceptInvitation(ctx context.Context, invitationID, userID int) (membershipID int, err error)
	RejectInvitation(ctx context.Context, invitationID, userID int) error
	ListInvitations(ctx context.Context, recipientID int, pendingOnly bool) ([]*models.Invitation, error)
}

type invitationService struct {
	db                  *sql.DB
	invitationRepo      repositories.InvitationRepository
	teamRepo            repositories.TeamRepository
	teamMemberRepo      repositories.TeamMembershipRepository
	communityRepo       repositories.CommunityRepository
	communityMemberRepo repositories.CommunityMembershipRepository
	userRepo            repositories.UserRepository
	notificationRepo    repositories.NotificationRepository
	notifier            Notifier
}

func NewInvitationService(
	database *sql.DB,
	invitationRepo repositories.InvitationRepository,
	teamRepo repositories.TeamRepository,
	teamMemberRepo repositories.TeamMembershipRepository,
	communityRepo repositories.CommunityRepository,
	communityMemberRepo repositories.CommunityMembershipRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	notifier Notifier,
) InvitationService {
	return &invitationService{
		db:                  database,
		invitationRepo:      invitationRepo,
		teamRepo:            teamRepo,
		teamMemberRepo:      teamMemberRepo,
		communityRepo:       communityRepo,
		communityMemberRepo: communityMemberRepo,
		userRepo:            userRepo,
		notificationRepo:    notificationRepo,
		notifier:            notifier,
	}
}

// SendTeamInvitation создаёт pending-приглашение в команду и уведомление
// получателю в одной единице работы. Отправитель должен быть активным
// админом команды.
func (s *invitationService) SendTeamInvitation(ctx context.Context, senderID, recipientID, teamID int) (*models.Invitation, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, storeFailure(err)
	}

	sender, err := s.teamMemberRepo.FindByUserAndTeam(ctx, senderID, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamMembershipNotFound) {
			return nil, ErrForbiddenOperation
		}
		return nil, storeFailure(err)
	}
	if sender.Status != models.MembershipActive || sender.Role != models.TeamRoleAdmin {
		return nil, ErrForbiddenOperation
	}

	existing, err := s.teamMemberRepo.FindByUserAndTeam(ctx, recipientID, teamID)
	if err != nil && !errors.Is(err, repositories.ErrTeamMembershipNotFound) {
		return nil, storeFailure(err)
	}
	if existing != nil && existing.Status == models.MembershipActive {
		return nil, ErrAlreadyMember
	}

	message := fmt.Sprintf("You have been invited to join the team %q", team.Name)
	return s.send(ctx, models.InvitationTeam, senderID, recipientID, teamID, message)
}

// SendCommunityInvitation — то же для сообществ; отправитель должен быть
// активным лидером или модератором.
func (s *invitationService) SendCommunityInvitation(ctx context.Context, senderID, recipientID, communityID int) (*models.Invitation, error) {
	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		if errors.Is(err, repositories.ErrCommunityNotFound) {
			return nil, ErrCommunityNotFound
		}
		return nil, storeFailure(err)
	}

	sender, err := s.communityMemberRepo.FindByUserAndCommunity(ctx, senderID, communityID)
	if err != nil {
		if errors.Is(err, repositories.ErrCommunityMembershipNotFound) {
			return nil, ErrForbiddenOperation
		}
		return nil, storeFailure(err)
	}
	if sender.Status != models.MembershipActive || !canModerate(sender.Role) {
		return nil, ErrForbiddenOperation
	}

	existing, err := s.communityMemberRepo.FindByUserAndCommunity(ctx, recipientID, communityID)
	if err != nil && !errors.Is(err, repositories.ErrCommunityMembershipNotFound) {
		return nil, storeFailure(err)
	}
	if existing != nil && existing.Status == models.MembershipActive {
		return nil, ErrAlreadyMember
	}

	message := fmt.Sprintf("You have been invited to join the community %q", community.Name)
	return s.send(ctx, models.InvitationCommunity, senderID, recipientID, communityID, message)
}

func (s *invitationService) send(ctx context.Context, invType models.InvitationType, senderID, recipientID, targetID int, message string) (*models.Invitation, error) {
	if _, err := s.userRepo.GetByID(ctx, recipientID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeFailure(err)
	}

	uow, err := db.Begin(ctx, s.db)
	if err != nil {
		return nil, storeFailure(err)
	}
	defer uow.Close()

	invitation := &models.Invitation{
		Type:        invType,
		SenderID:    senderID,
		RecipientID: recipientID,
		TargetID:    targetID,
		State:       models.InvitationPending,
		SentAt:      time.Now(),
	}

	if err := s.invitationRepo.Create(ctx, uow.Tx(), invitation); err != nil {
		return nil, storeFailure(err)
	}

	notification := &models.Notification{
		UserID:    recipientID,
		Message:   message,
		CreatedAt: invitation.SentAt,
	}
	if err := s.notificationRepo.Create(ctx, uow.Tx(), notification); err != nil {
		return nil, storeFailure(err)
	}

	if err := uow.Commit(); err != nil {
		return nil, storeFailure(err)
	}

	if s.notifier != nil {
		s.notifier.Push(recipientID, notification)
	}
	return invitation, nil
}

// AcceptInvitation разрешает приглашение pending → accepted и создаёт
// членство получателя в одной единице работы. Разрешение и членство либо
// фиксируются вместе, либо не фиксируются вовсе. Возвращает id созданного
// членства.
func (s *invitationService) AcceptInvitation(ctx context.Context, invitationID, userID int) (int, error) {
	uow, err := db.Begin(ctx, s.db)
	if err != nil {
		return 0, storeFailure(err)
	}
	defer uow.Close()

	invitation, err := s.invitationRepo.GetByID(ctx, uow.Tx(), invitationID)
	if err != nil {
		if errors.Is(err, repositories.ErrInvitationNotFound) {
			return 0, ErrInvitationNotFound
		}
		return 0, storeFailure(err)
	}
	if invitation.RecipientID != userID {
		return 0, ErrForbiddenOperation
	}

	next, rej := lifecycle.ResolveInvitation(invitation.State, true)
	if rej != nil {
		return 0, rejectionToError(rej)
	}

	respondedAt := time.Now()
	// Условие state = pending в UPDATE защищает от гонки двух одновременных
	// разрешений: проигравший получает ErrInvitationNotPending.
	if err := s.invitationRepo.Resolve(ctx, uow.Tx(), invitationID, next, respondedAt); err != nil {
		if errors.Is(err, repositories.ErrInvitationNotPending) {
			return 0, fmt.Errorf("%w: invitation %d", ErrAlreadyResolved, invitationID)
		}
		return 0, storeFailure(err)
	}

	var membershipID int
	switch invitation.Type {
	case models.InvitationTeam:
		membership := &models.TeamMembership{
			UserID:   userID,
			TeamID:   invitation.TargetID,
			Role:     models.TeamRoleMember,
			Status:   models.MembershipActive,
			JoinedAt: respondedAt,
		}
		if err := s.teamMemberRepo.Create(ctx, uow.Tx(), membership); err != nil {
			if errors.Is(err, repositories.ErrTeamMembershipConflict) {
				return 0, ErrAlreadyMember
			}
			return 0, storeFailure(err)
		}
		membershipID = membership.ID
	case models.InvitationCommunity:
		membership := &models.CommunityMembership{
			UserID:      userID,
			CommunityID: invitation.TargetID,
			Role:        models.CommunityRoleMember,
			Status:      models.MembershipActive,
			JoinedAt:    respondedAt,
		}
		if err := s.communityMemberRepo.Create(ctx, uow.Tx(), membership); err != nil {
			if errors.Is(err, repositories.ErrCommunityMembershipConflict) {
				return 0, ErrAlreadyMember
			}
			return 0, storeFailure(err)
		}
		membershipID = membership.ID
	default:
		return 0, fmt.Errorf("%w: unknown invitation type %q", ErrInvalidInput, invitation.Type)
	}

	notification := &models.Notification{
		UserID:    invitation.SenderID,
		Message:   "Your invitation has been accepted",
		CreatedAt: respondedAt,
	}
	if err := s.notificationRepo.Create(ctx, uow.Tx(), notification); err != nil {
		return 0, storeFailure(err)
	}

	if err := uow.Commit(); err != nil {
		return 0, storeFailure(err)
	}

	if s.notifier != nil {
		s.notifier.Push(invitation.SenderID, notification)
	}
	return membershipID, nil
}

// RejectInvitation разрешает приглашение pending → rejected. Повторное
// разрешение в любую сторону даёт ErrAlreadyResolved.
func (s *invitationService) RejectInvitation(ctx context.Context, invitationID, userID int) error {
	uow, err := db.Begin(ctx, s.db)
	if err != nil {
		return storeFailure(err)
	}
	defer uow.Close()

	invitation, err := s.invitationRepo.GetByID(ctx, uow.Tx(), invitationID)
	if err != nil {
		if errors.Is(err, repositories.ErrInvitationNotFound) {
			return ErrInvitationNotFound
		}
		return storeFailure(err)
	}
	if invitation.RecipientID != userID {
		return ErrForbiddenOperation
	}

	next, rej := lifecycle.ResolveInvitation(invitation.State, false)
	if rej != nil {
		return rejectionToError(rej)
	}

	respondedAt := time.Now()
	if err := s.invitationRepo.Resolve(ctx, uow.Tx(), invitationID, next, respondedAt); err != nil {
		if errors.Is(err, repositories.ErrInvitationNotPending) {
			return fmt.Errorf("%w: invitation %d", ErrAlreadyResolved, invitationID)
		}
		return storeFailure(err)
	}

	notification := &models.Notification{
		UserID:    invitation.SenderID,
		Message:   "Your invitation has been declined",
		CreatedAt: respondedAt,
	}
	if err := s.notificationRepo.Create(ctx, uow.Tx(), notification); err != nil {
		return storeFailure(err)
	}

	if err := uow.Commit(); err != nil {
		return storeFailure(err)
	}

	if s.notifier != nil {
		s.notifier.Push(invitation.SenderID, notification)
	}
	return nil
}

func (s *invitationService) ListInvitations(ctx context.Context, recipientID int, pendingOnly bool) ([]*models.Invitation, error) {
	invitations, err := s.invitationRepo.ListByRecipient(ctx, recipientID, pendingOnly)
	if err != nil {
		return nil, storeFailure(err)
	}
	return invitations, nil
}
