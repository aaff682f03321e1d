package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/teamgrid/community-system/db"
	"github.com/teamgrid/community-system/lifecycle"
	"github.com/teamgrid/community-system/models"
	"github.com/teamgrid/community-system/repositories"
	"github.com/teamgrid/community-system/storage"
)

type CreateCommunityInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type CommunityService interface {
	CreateCommunityWithLeader(ctx context.Context, founderID int, input CreateCommunityInput) (*models.Community, error)
	GetCommunity(ctx context.Context, id int) (*models.Community, error)
	ListCommunities(ctx context.Context, limit, offset int) ([]*models.Community, error)
	LeaveCommunity(ctx context.Context, userID, communityID int) error
	ExpelMember(ctx context.Context, actorID, communityID, targetUserID int) error
	ReadmitMember(ctx context.Context, actorID, communityID, targetUserID int) error
	ChangeMemberRole(ctx context.Context, actorID, communityID, targetUserID int, newRole models.CommunityRole) error
	UploadLogo(ctx context.Context, actorID, communityID int, contentType string, reader io.Reader) (*models.Community, error)
}

type communityService struct {
	db               *sql.DB
	communityRepo    repositories.CommunityRepository
	membershipRepo   repositories.CommunityMembershipRepository
	notificationRepo repositories.NotificationRepository
	uploader         storage.FileUploader
	notifier         Notifier
	logger           *slog.Logger
}

func NewCommunityService(
	database *sql.DB,
	communityRepo repositories.CommunityRepository,
	membershipRepo repositories.CommunityMembershipRepository,
	notificationRepo repositories.NotificationRepository,
	uploader storage.FileUploader,
	notifier Notifier,
	logger *slog.Logger,
) CommunityService {
	return &communityService{
		db:               database,
		communityRepo:    communityRepo,
		membershipRepo:   membershipRepo,
		notificationRepo: notificationRepo,
		uploader:         uploader,
		notifier:         notifier,
		logger:           logger,
	}
}

// CreateCommunityWithLeader создаёт сообщество и учредительное членство
// основателя в одной единице работы: сообщество никогда не наблюдаемо
// без активного лидера.
func (s *communityService) CreateCommunityWithLeader(ctx context.Context, founderID int, input CreateCommunityInput) (*models.Community, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrCommunityNameEmpty
	}

	if rej := lifecycle.GuardCommunityFounding(models.CommunityRoleLeader); rej != nil {
		return nil, rejectionToError(rej)
	}

	uow, err := db.Begin(ctx, s.db)
	if err != nil {
		return nil, storeFailure(err)
	}
	defer uow.Close()

	community := &models.Community{
		Name:        name,
		Description: input.Description,
		CreatedAt:   time.Now(),
	}

	if err := s.communityRepo.Create(ctx, uow.Tx(), community); err != nil {
		if errors.Is(err, repositories.ErrCommunityNameConflict) {
			return nil, ErrCommunityNameTaken
		}
		return nil, storeFailure(err)
	}

	founding := &models.CommunityMembership{
		UserID:      founderID,
		CommunityID: community.ID,
		Role:        models.CommunityRoleLeader,
		Status:      models.MembershipActive,
		JoinedAt:    community.CreatedAt,
	}

	if err := s.membershipRepo.Create(ctx, uow.Tx(), founding); err != nil {
		if errors.Is(err, repositories.ErrCommunityMembershipUserInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, storeFailure(err)
	}

	if err := uow.Commit(); err != nil {
		return nil, storeFailure(err)
	}

	s.logger.Info("community created",
		slog.Int("community_id", community.ID),
		slog.Int("founder_id", founderID),
	)

	community.Members = []models.CommunityMembership{*founding}
	return community, nil
}

func (s *communityService) GetCommunity(ctx context.Context, id int) (*models.Community, error) {
	community, err := s.communityRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCommunityNotFound) {
			return nil, ErrCommunityNotFound
		}
		return nil, storeFailure(err)
	}

	active := models.MembershipActive
	memberships, err := s.membershipRepo.ListByCommunity(ctx, id, &active)
	if err != nil {
		return nil, storeFailure(err)
	}
	for _, m := range memberships {
		community.Members = append(community.Members, *m)
	}

	populateCommunityLogoURL(community, s.uploader)
	return community, nil
}

func (s *communityService) ListCommunities(ctx context.Context, limit, offset int) ([]*models.Community, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	communities, err := s.communityRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, storeFailure(err)
	}
	for _, c := range communities {
		populateCommunityLogoURL(c, s.uploader)
	}
	return communities, nil
}

// LeaveCommunity переводит членство active → abandoned. Лидер покинуть
// сообщество не может: сначала роль должна перейти другому участнику.
func (s *communityService) LeaveCommunity(ctx context.Context, userID, communityID int) error {
	membership, err := s.findMembership(ctx, userID, communityID)
	if err != nil {
		return err
	}

	if membership.Role == models.CommunityRoleLeader {
		return fmt.Errorf("%w: community leader cannot leave", ErrInvalidState)
	}

	next, rej := lifecycle.TransitionMembership(membership.Status, lifecycle.MembershipLeave)
	if rej != nil {
		return rejectionToError(rej)
	}

	leftAt := time.Now()
	if err := s.membershipRepo.UpdateStatus(ctx, nil, membership.ID, next, &leftAt); err != nil {
		if errors.Is(err, repositories.ErrCommunityMembershipNotFound) {
			return ErrMembershipNotFound
		}
		return storeFailure(err)
	}
	return nil
}

// ExpelMember исключает участника (active → expelled) и уведомляет его
// в той же единице работы.
func (s *communityService) ExpelMember(ctx context.Context, actorID, communityID, targetUserID int) error {
	if err := s.requireModerator(ctx, actorID, communityID); err != nil {
		return err
	}

	target, err := s.findMembership(ctx, targetUserID, communityID)
	if err != nil {
		return err
	}

	if target.Role == models.CommunityRoleLeader {
		return fmt.Errorf("%w: community leader cannot be expelled", ErrInvalidState)
	}

	next, rej := lifecycle.TransitionMembership(target.Status, lifecycle.MembershipExpel)
	if rej != nil {
		return rejectionToError(rej)
	}

	uow, err := db.Begin(ctx, s.db)
	if err != nil {
		return storeFailure(err)
	}
	defer uow.Close()

	leftAt := time.Now()
	if err := s.membershipRepo.UpdateStatus(ctx, uow.Tx(), target.ID, next, &leftAt); err != nil {
		if errors.Is(err, repositories.ErrCommunityMembershipNotFound) {
			return ErrMembershipNotFound
		}
		return storeFailure(err)
	}

	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return storeFailure(err)
	}

	notification := &models.Notification{
		UserID:    targetUserID,
		Message:   fmt.Sprintf("You have been expelled from the community %q", community.Name),
		CreatedAt: leftAt,
	}
	if err := s.notificationRepo.Create(ctx, uow.Tx(), notification); err != nil {
		return storeFailure(err)
	}

	if err := uow.Commit(); err != nil {
		return storeFailure(err)
	}

	s.logger.Info("community member expelled",
		slog.Int("community_id", communityID),
		slog.Int("actor_id", actorID),
		slog.Int("target_user_id", targetUserID),
	)

	if s.notifier != nil {
		s.notifier.Push(targetUserID, notification)
	}
	return nil
}

// ReadmitMember восстанавливает исключённого участника (expelled → abandoned):
// после восстановления он может заново вступить в сообщество.
func (s *communityService) ReadmitMember(ctx context.Context, actorID, communityID, targetUserID int) error {
	if err := s.requireModerator(ctx, actorID, communityID); err != nil {
		return err
	}

	target, err := s.findMembership(ctx, targetUserID, communityID)
	if err != nil {
		return err
	}

	next, rej := lifecycle.TransitionMembership(target.Status, lifecycle.MembershipReadmit)
	if rej != nil {
		return rejectionToError(rej)
	}

	leftAt := time.Now()
	if err := s.membershipRepo.UpdateStatus(ctx, nil, target.ID, next, &leftAt); err != nil {
		if errors.Is(err, repositories.ErrCommunityMembershipNotFound) {
			return ErrMembershipNotFound
		}
		return storeFailure(err)
	}
	return nil
}

// ChangeMemberRole меняет роль участника. Доступно только лидеру;
// собственную роль лидер передать так не может.
func (s *communityService) ChangeMemberRole(ctx context.Context, actorID, communityID, targetUserID int, newRole models.CommunityRole) error {
	actor, err := s.findMembership(ctx, actorID, communityID)
	if err != nil {
		return err
	}
	if actor.Role != models.CommunityRoleLeader || actor.Status != models.MembershipActive {
		return ErrForbiddenOperation
	}
	if actorID == targetUserID {
		return fmt.Errorf("%w: leader cannot change own role", ErrInvalidState)
	}

	target, err := s.findMembership(ctx, targetUserID, communityID)
	if err != nil {
		return err
	}
	if target.Status != models.MembershipActive {
		return fmt.Errorf("%w: only active members can change role", ErrInvalidState)
	}
	if target.Role == newRole {
		return nil
	}

	uow, err := db.Begin(ctx, s.db)
	if err != nil {
		return storeFailure(err)
	}
	defer uow.Close()

	// У сообщества ровно один активный лидер; проверка выполняется
	// внутри транзакции по состоянию БД, а не по членству актора.
	if newRole == models.CommunityRoleLeader {
		leaders, err := s.membershipRepo.CountByRole(ctx, uow.Tx(), communityID, models.CommunityRoleLeader, models.MembershipActive)
		if err != nil {
			return storeFailure(err)
		}
		if leaders > 0 {
			return fmt.Errorf("%w: community already has an active leader", ErrInvalidState)
		}
	}

	if err := s.membershipRepo.UpdateRole(ctx, uow.Tx(), target.ID, newRole); err != nil {
		if errors.Is(err, repositories.ErrCommunityMembershipNotFound) {
			return ErrMembershipNotFound
		}
		return storeFailure(err)
	}

	if err := uow.Commit(); err != nil {
		return storeFailure(err)
	}
	return nil
}

func (s *communityService) UploadLogo(ctx context.Context, actorID, communityID int, contentType string, reader io.Reader) (*models.Community, error) {
	if err := s.requireModerator(ctx, actorID, communityID); err != nil {
		return nil, err
	}

	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		if errors.Is(err, repositories.ErrCommunityNotFound) {
			return nil, ErrCommunityNotFound
		}
		return nil, storeFailure(err)
	}

	key := fmt.Sprintf("communities/%d/logo", communityID)
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload community logo: %w", err)
	}

	community.LogoKey = &result.Key
	if err := s.communityRepo.Update(ctx, nil, community); err != nil {
		return nil, storeFailure(err)
	}

	populateCommunityLogoURL(community, s.uploader)
	return community, nil
}

func (s *communityService) findMembership(ctx context.Context, userID, communityID int) (*models.CommunityMembership, error) {
	membership, err := s.membershipRepo.FindByUserAndCommunity(ctx, userID, communityID)
	if err != nil {
		if errors.Is(err, repositories.ErrCommunityMembershipNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, storeFailure(err)
	}
	return membership, nil
}

func (s *communityService) requireModerator(ctx context.Context, actorID, communityID int) error {
	actor, err := s.findMembership(ctx, actorID, communityID)
	if err != nil {
		return err
	}
	if actor.Status != models.MembershipActive || !canModerate(actor.Role) {
		return ErrForbiddenOperation
	}
	return nil
}
