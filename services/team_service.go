package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teamgrid/community-system/db"
	"github.com/teamgrid/community-system/lifecycle"
	"github.com/teamgrid/community-system/models"
	"github.com/teamgrid/community-system/repositories"
)

type TeamService interface {
	CreateTeam(ctx context.Context, founderID int, name string) (*models.Team, error)
	GetTeam(ctx context.Context, id int) (*models.Team, error)
	JoinTeam(ctx context.Context, userID, teamID int, role models.TeamRole) (*models.TeamMembership, error)
	LeaveTeam(ctx context.Context, userID, teamID int) error
	ChangeTeamRole(ctx context.Context, actorID, teamID, targetUserID int, newRole models.TeamRole) error
	RemoveTeamMember(ctx context.Context, actorID, teamID, targetUserID int) error
}

type teamService struct {
	db               *sql.DB
	teamRepo         repositories.TeamRepository
	membershipRepo   repositories.TeamMembershipRepository
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	notifier         Notifier
}

func NewTeamService(
	database *sql.DB,
	teamRepo repositories.TeamRepository,
	membershipRepo repositories.TeamMembershipRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	notifier Notifier,
) TeamService {
	return &teamService{
		db:               database,
		teamRepo:         teamRepo,
		membershipRepo:   membershipRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		notifier:         notifier,
	}
}

// CreateTeam создаёт команду и членство основателя с ролью admin в одной
// единице работы: команда никогда не наблюдаема без активного админа.
func (s *teamService) CreateTeam(ctx context.Context, founderID int, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTeamNameEmpty
	}

	uow, err := db.Begin(ctx, s.db)
	if err != nil {
		return nil, storeFailure(err)
	}
	defer uow.Close()

	team := &models.Team{
		Name:      name,
		CreatedAt: time.Now(),
	}

	if err := s.teamRepo.Create(ctx, uow.Tx(), team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameTaken
		}
		return nil, storeFailure(err)
	}

	founding := &models.TeamMembership{
		UserID:   founderID,
		TeamID:   team.ID,
		Role:     models.TeamRoleAdmin,
		Status:   models.MembershipActive,
		JoinedAt: team.CreatedAt,
	}

	if err := s.membershipRepo.Create(ctx, uow.Tx(), founding); err != nil {
		if errors.Is(err, repositories.ErrTeamMembershipUserInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, storeFailure(err)
	}

	if err := uow.Commit(); err != nil {
		return nil, storeFailure(err)
	}

	team.Members = []models.TeamMembership{*founding}
	return team, nil
}

func (s *teamService) GetTeam(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, storeFailure(err)
	}

	active := models.MembershipActive
	memberships, err := s.membershipRepo.ListByTeam(ctx, id, &active)
	if err != nil {
		return nil, storeFailure(err)
	}
	for _, m := range memberships {
		team.Members = append(team.Members, *m)
	}
	return team, nil
}

// JoinTeam создаёт активное членство с указанной ролью и системное
// уведомление самому вступившему в той же единице работы.
func (s *teamService) JoinTeam(ctx context.Context, userID, teamID int, role models.TeamRole) (*models.TeamMembership, error) {
	switch role {
	case models.TeamRoleAdmin, models.TeamRoleMember:
	default:
		return nil, fmt.Errorf("%w: unknown team role %q", ErrInvalidInput, role)
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, storeFailure(err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
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

	membership := &models.TeamMembership{
		UserID:   userID,
		TeamID:   teamID,
		Role:     role,
		Status:   models.MembershipActive,
		JoinedAt: time.Now(),
	}

	if err := s.membershipRepo.Create(ctx, uow.Tx(), membership); err != nil {
		if errors.Is(err, repositories.ErrTeamMembershipConflict) {
			return nil, ErrAlreadyMember
		}
		return nil, storeFailure(err)
	}

	notification := &models.Notification{
		UserID:    user.ID,
		Message:   fmt.Sprintf("You joined the team %q", team.Name),
		CreatedAt: membership.JoinedAt,
	}
	if err := s.notificationRepo.Create(ctx, uow.Tx(), notification); err != nil {
		return nil, storeFailure(err)
	}

	if err := uow.Commit(); err != nil {
		return nil, storeFailure(err)
	}

	if s.notifier != nil {
		s.notifier.Push(user.ID, notification)
	}
	return membership, nil
}

// LeaveTeam переводит членство active → abandoned. Единственный активный
// админ не может покинуть команду.
func (s *teamService) LeaveTeam(ctx context.Context, userID, teamID int) error {
	membership, err := s.findMembership(ctx, userID, teamID)
	if err != nil {
		return err
	}

	next, rej := lifecycle.TransitionMembership(membership.Status, lifecycle.MembershipLeave)
	if rej != nil {
		return rejectionToError(rej)
	}

	uow, err := db.Begin(ctx, s.db)
	if err != nil {
		return storeFailure(err)
	}
	defer uow.Close()

	// Проверка админского минимума выполняется внутри транзакции: между
	// чтением и записью число админов не должно измениться.
	activeAdmins, err := s.membershipRepo.CountActiveAdmins(ctx, uow.Tx(), teamID)
	if err != nil {
		return storeFailure(err)
	}
	if rej := lifecycle.GuardTeamRemoval(membership.Role, activeAdmins); rej != nil {
		return rejectionToError(rej)
	}

	leftAt := time.Now()
	if err := s.membershipRepo.UpdateStatus(ctx, uow.Tx(), membership.ID, next, &leftAt); err != nil {
		if errors.Is(err, repositories.ErrTeamMembershipNotFound) {
			return ErrMembershipNotFound
		}
		return storeFailure(err)
	}

	if err := uow.Commit(); err != nil {
		return storeFailure(err)
	}
	return nil
}

// ChangeTeamRole меняет роль участника команды. Понижение последнего
// активного админа отклоняется.
func (s *teamService) ChangeTeamRole(ctx context.Context, actorID, teamID, targetUserID int, newRole models.TeamRole) error {
	if err := s.requireAdmin(ctx, actorID, teamID); err != nil {
		return err
	}

	target, err := s.findMembership(ctx, targetUserID, teamID)
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

	activeAdmins, err := s.membershipRepo.CountActiveAdmins(ctx, uow.Tx(), teamID)
	if err != nil {
		return storeFailure(err)
	}
	if rej := lifecycle.GuardTeamRoleChange(target.Role, newRole, activeAdmins); rej != nil {
		return rejectionToError(rej)
	}

	if err := s.membershipRepo.UpdateRole(ctx, uow.Tx(), target.ID, newRole); err != nil {
		if errors.Is(err, repositories.ErrTeamMembershipNotFound) {
			return ErrMembershipNotFound
		}
		return storeFailure(err)
	}

	if err := uow.Commit(); err != nil {
		return storeFailure(err)
	}
	return nil
}

// RemoveTeamMember исключает участника (active → expelled) и уведомляет
// его в той же единице работы. Последний активный админ не может быть удалён.
func (s *teamService) RemoveTeamMember(ctx context.Context, actorID, teamID, targetUserID int) error {
	if err := s.requireAdmin(ctx, actorID, teamID); err != nil {
		return err
	}

	target, err := s.findMembership(ctx, targetUserID, teamID)
	if err != nil {
		return err
	}

	next, rej := lifecycle.TransitionMembership(target.Status, lifecycle.MembershipExpel)
	if rej != nil {
		return rejectionToError(rej)
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return storeFailure(err)
	}

	uow, err := db.Begin(ctx, s.db)
	if err != nil {
		return storeFailure(err)
	}
	defer uow.Close()

	activeAdmins, err := s.membershipRepo.CountActiveAdmins(ctx, uow.Tx(), teamID)
	if err != nil {
		return storeFailure(err)
	}
	if rej := lifecycle.GuardTeamRemoval(target.Role, activeAdmins); rej != nil {
		return rejectionToError(rej)
	}

	leftAt := time.Now()
	if err := s.membershipRepo.UpdateStatus(ctx, uow.Tx(), target.ID, next, &leftAt); err != nil {
		if errors.Is(err, repositories.ErrTeamMembershipNotFound) {
			return ErrMembershipNotFound
		}
		return storeFailure(err)
	}

	notification := &models.Notification{
		UserID:    targetUserID,
		Message:   fmt.Sprintf("You have been removed from the team %q", team.Name),
		CreatedAt: leftAt,
	}
	if err := s.notificationRepo.Create(ctx, uow.Tx(), notification); err != nil {
		return storeFailure(err)
	}

	if err := uow.Commit(); err != nil {
		return storeFailure(err)
	}

	if s.notifier != nil {
		s.notifier.Push(targetUserID, notification)
	}
	return nil
}

func (s *teamService) findMembership(ctx context.Context, userID, teamID int) (*models.TeamMembership, error) {
	membership, err := s.membershipRepo.FindByUserAndTeam(ctx, userID, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamMembershipNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, storeFailure(err)
	}
	return membership, nil
}

func (s *teamService) requireAdmin(ctx context.Context, actorID, teamID int) error {
	actor, err := s.findMembership(ctx, actorID, teamID)
	if err != nil {
		return err
	}
	if actor.Status != models.MembershipActive || actor.Role != models.TeamRoleAdmin {
		return ErrForbiddenOperation
	}
	return nil
}
