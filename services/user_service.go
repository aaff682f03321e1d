package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/teamgrid/community-system/db"
	"github.com/teamgrid/community-system/models"
	"github.com/teamgrid/community-system/repositories"
	"github.com/teamgrid/community-system/storage"
)

// Dashboard — агрегированный срез данных пользователя для главного экрана.
type Dashboard struct {
	User                *models.User                  `json:"user"`
	Communities         []*models.CommunityMembership `json:"communities"`
	Teams               []*models.TeamMembership      `json:"teams"`
	PendingInvitations  []*models.Invitation          `json:"pending_invitations"`
	UnreadNotifications int                           `json:"unread_notifications"`
}

type UserService interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserDashboard(ctx context.Context, userID int) (*Dashboard, error)
	DeleteAccount(ctx context.Context, userID int) error
}

type userService struct {
	db                  *sql.DB
	userRepo            repositories.UserRepository
	profileRepo         repositories.ProfileRepository
	sessionRepo         repositories.SessionRepository
	notificationRepo    repositories.NotificationRepository
	invitationRepo      repositories.InvitationRepository
	teamMemberRepo      repositories.TeamMembershipRepository
	communityMemberRepo repositories.CommunityMembershipRepository
	proposalRepo        repositories.ProposalRepository
	uploader            storage.FileUploader
	logger              *slog.Logger
}

func NewUserService(
	database *sql.DB,
	userRepo repositories.UserRepository,
	profileRepo repositories.ProfileRepository,
	sessionRepo repositories.SessionRepository,
	notificationRepo repositories.NotificationRepository,
	invitationRepo repositories.InvitationRepository,
	teamMemberRepo repositories.TeamMembershipRepository,
	communityMemberRepo repositories.CommunityMembershipRepository,
	proposalRepo repositories.ProposalRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) UserService {
	return &userService{
		db:                  database,
		userRepo:            userRepo,
		profileRepo:         profileRepo,
		sessionRepo:         sessionRepo,
		notificationRepo:    notificationRepo,
		invitationRepo:      invitationRepo,
		teamMemberRepo:      teamMemberRepo,
		communityMemberRepo: communityMemberRepo,
		proposalRepo:        proposalRepo,
		uploader:            uploader,
		logger:              logger,
	}
}

func (s *userService) GetUser(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeFailure(err)
	}

	profile, err := s.profileRepo.GetByUserID(ctx, id)
	if err != nil && !errors.Is(err, repositories.ErrProfileNotFound) {
		return nil, storeFailure(err)
	}
	if profile != nil {
		populateProfilePhotoURL(profile, s.uploader)
		user.Profile = profile
	}
	return user, nil
}

// GetUserDashboard собирает срез данных пользователя. Четыре независимых
// чтения выполняются параллельно через errgroup; первая ошибка отменяет
// остальные.
func (s *userService) GetUserDashboard(ctx context.Context, userID int) (*Dashboard, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{User: user}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		memberships, err := s.communityMemberRepo.ListByUser(gctx, userID)
		if err != nil {
			return storeFailure(err)
		}
		dashboard.Communities = memberships
		return nil
	})

	g.Go(func() error {
		memberships, err := s.teamMemberRepo.ListByUser(gctx, userID)
		if err != nil {
			return storeFailure(err)
		}
		dashboard.Teams = memberships
		return nil
	})

	g.Go(func() error {
		invitations, err := s.invitationRepo.ListByRecipient(gctx, userID, true)
		if err != nil {
			return storeFailure(err)
		}
		dashboard.PendingInvitations = invitations
		return nil
	})

	g.Go(func() error {
		count, err := s.notificationRepo.CountUnread(gctx, userID)
		if err != nil {
			return storeFailure(err)
		}
		dashboard.UnreadNotifications = count
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dashboard, nil
}

// DeleteAccount удаляет пользователя и все зависимые записи в одной
// единице работы. Порядок удалений явный, от листьев к корню: никакого
// каскада на уровне хранилища не предполагается.
func (s *userService) DeleteAccount(ctx context.Context, userID int) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return storeFailure(err)
	}

	uow, err := db.Begin(ctx, s.db)
	if err != nil {
		return storeFailure(err)
	}
	defer uow.Close()

	if err := s.proposalRepo.DeleteVotesByUser(ctx, uow.Tx(), userID); err != nil {
		return storeFailure(err)
	}
	if err := s.sessionRepo.DeleteByUser(ctx, uow.Tx(), userID); err != nil {
		return storeFailure(err)
	}
	if err := s.notificationRepo.DeleteByUser(ctx, uow.Tx(), userID); err != nil {
		return storeFailure(err)
	}
	if err := s.invitationRepo.DeleteByUser(ctx, uow.Tx(), userID); err != nil {
		return storeFailure(err)
	}
	if err := s.teamMemberRepo.DeleteByUser(ctx, uow.Tx(), userID); err != nil {
		return storeFailure(err)
	}
	if err := s.communityMemberRepo.DeleteByUser(ctx, uow.Tx(), userID); err != nil {
		return storeFailure(err)
	}
	if err := s.profileRepo.DeleteByUser(ctx, uow.Tx(), userID); err != nil {
		return storeFailure(err)
	}
	if err := s.userRepo.Delete(ctx, uow.Tx(), userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return storeFailure(err)
	}

	if err := uow.Commit(); err != nil {
		return storeFailure(err)
	}

	s.logger.Info("account deleted", slog.Int("user_id", userID))
	return nil
}
