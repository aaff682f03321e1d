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

func activeTeamMembership(userID int, role models.TeamRole) *models.TeamMembership {
	return &models.TeamMembership{
		ID:       userID * 10,
		UserID:   userID,
		TeamID:   42,
		Role:     role,
		Status:   models.MembershipActive,
		JoinedAt: time.Now().Add(-24 * time.Hour),
	}
}

func TestCreateTeamCommitsTeamAndFounder(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	teamRepo := &fakeTeamRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
			require.NotNil(t, exec)
			team.ID = 42
			return nil
		},
	}
	var founding *models.TeamMembership
	membershipRepo := &fakeTeamMembershipRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, membership *models.TeamMembership) error {
			require.NotNil(t, exec)
			membership.ID = 1
			founding = membership
			return nil
		},
	}

	svc := NewTeamService(conn, teamRepo, membershipRepo, nil, nil, nil)

	team, err := svc.CreateTeam(context.Background(), 7, "Night Owls")
	require.NoError(t, err)
	assert.Equal(t, 42, team.ID)

	require.NotNil(t, founding)
	assert.Equal(t, 7, founding.UserID)
	assert.Equal(t, 42, founding.TeamID)
	assert.Equal(t, models.TeamRoleAdmin, founding.Role)
	assert.Equal(t, models.MembershipActive, founding.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinTeamNotifiesJoiner(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	teamRepo := &fakeTeamRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.Team, error) {
			return &models.Team{ID: id, Name: "Night Owls"}, nil
		},
	}
	userRepo := &fakeUserRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.User, error) {
			return &models.User{ID: id, Nickname: "newbie"}, nil
		},
	}
	membershipRepo := &fakeTeamMembershipRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, membership *models.TeamMembership) error {
			require.NotNil(t, exec)
			membership.ID = 5
			return nil
		},
	}
	var notification *models.Notification
	notificationRepo := &fakeNotificationRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, n *models.Notification) error {
			require.NotNil(t, exec)
			notification = n
			return nil
		},
	}

	svc := NewTeamService(conn, teamRepo, membershipRepo, userRepo, notificationRepo, nil)

	membership, err := svc.JoinTeam(context.Background(), 9, 42, models.TeamRoleMember)
	require.NoError(t, err)
	assert.Equal(t, models.TeamRoleMember, membership.Role)

	// Уведомление получает сам вступивший.
	require.NotNil(t, notification)
	assert.Equal(t, 9, notification.UserID)
	assert.Contains(t, notification.Message, "Night Owls")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinTeamWithRequestedRole(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	teamRepo := &fakeTeamRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.Team, error) {
			return &models.Team{ID: id, Name: "Night Owls"}, nil
		},
	}
	userRepo := &fakeUserRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.User, error) {
			return &models.User{ID: id, Nickname: "newbie"}, nil
		},
	}
	membershipRepo := &fakeTeamMembershipRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, membership *models.TeamMembership) error {
			membership.ID = 5
			return nil
		},
	}
	notificationRepo := &fakeNotificationRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, n *models.Notification) error {
			return nil
		},
	}

	svc := NewTeamService(conn, teamRepo, membershipRepo, userRepo, notificationRepo, nil)

	membership, err := svc.JoinTeam(context.Background(), 9, 42, models.TeamRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.TeamRoleAdmin, membership.Role)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinTeamUnknownRole(t *testing.T) {
	svc := NewTeamService(nil, nil, nil, nil, nil, nil)

	_, err := svc.JoinTeam(context.Background(), 9, 42, models.TeamRole("overlord"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestJoinTeamAlreadyMember(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	teamRepo := &fakeTeamRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.Team, error) {
			return &models.Team{ID: id, Name: "Night Owls"}, nil
		},
	}
	userRepo := &fakeUserRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.User, error) {
			return &models.User{ID: id, Nickname: "newbie"}, nil
		},
	}
	membershipRepo := &fakeTeamMembershipRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, membership *models.TeamMembership) error {
			return repositories.ErrTeamMembershipConflict
		},
	}

	svc := NewTeamService(conn, teamRepo, membershipRepo, userRepo, nil, nil)

	_, err = svc.JoinTeam(context.Background(), 9, 42, models.TeamRoleMember)
	assert.ErrorIs(t, err, ErrAlreadyMember)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveTeamSoleAdminRejected(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	membershipRepo := &fakeTeamMembershipRepo{
		findByUserAndTeamFn: func(ctx context.Context, userID, teamID int) (*models.TeamMembership, error) {
			return activeTeamMembership(userID, models.TeamRoleAdmin), nil
		},
		countActiveAdminsFn: func(ctx context.Context, exec repositories.SQLExecutor, teamID int) (int, error) {
			require.NotNil(t, exec)
			return 1, nil
		},
	}

	svc := NewTeamService(conn, nil, membershipRepo, nil, nil, nil)

	err = svc.LeaveTeam(context.Background(), 7, 42)
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveTeamMemberAbandons(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	var gotStatus models.MembershipStatus
	var gotLeftAt *time.Time
	membershipRepo := &fakeTeamMembershipRepo{
		findByUserAndTeamFn: func(ctx context.Context, userID, teamID int) (*models.TeamMembership, error) {
			return activeTeamMembership(userID, models.TeamRoleMember), nil
		},
		countActiveAdminsFn: func(ctx context.Context, exec repositories.SQLExecutor, teamID int) (int, error) {
			return 2, nil
		},
		updateStatusFn: func(ctx context.Context, exec repositories.SQLExecutor, id int, status models.MembershipStatus, leftAt *time.Time) error {
			require.NotNil(t, exec)
			gotStatus = status
			gotLeftAt = leftAt
			return nil
		},
	}

	svc := NewTeamService(conn, nil, membershipRepo, nil, nil, nil)

	require.NoError(t, svc.LeaveTeam(context.Background(), 9, 42))
	assert.Equal(t, models.MembershipAbandoned, gotStatus)
	require.NotNil(t, gotLeftAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeTeamRoleDemoteSoleAdminRejected(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	membershipRepo := &fakeTeamMembershipRepo{
		findByUserAndTeamFn: func(ctx context.Context, userID, teamID int) (*models.TeamMembership, error) {
			return activeTeamMembership(userID, models.TeamRoleAdmin), nil
		},
		countActiveAdminsFn: func(ctx context.Context, exec repositories.SQLExecutor, teamID int) (int, error) {
			return 1, nil
		},
	}

	svc := NewTeamService(conn, nil, membershipRepo, nil, nil, nil)

	err = svc.ChangeTeamRole(context.Background(), 7, 42, 7, models.TeamRoleMember)
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeTeamRoleSameRoleIsNoop(t *testing.T) {
	membershipRepo := &fakeTeamMembershipRepo{
		findByUserAndTeamFn: func(ctx context.Context, userID, teamID int) (*models.TeamMembership, error) {
			return activeTeamMembership(userID, models.TeamRoleAdmin), nil
		},
	}

	// Транзакция не открывается вовсе: nil вместо *sql.DB это докажет.
	svc := NewTeamService(nil, nil, membershipRepo, nil, nil, nil)

	assert.NoError(t, svc.ChangeTeamRole(context.Background(), 7, 42, 8, models.TeamRoleAdmin))
}

func TestChangeTeamRoleRequiresAdmin(t *testing.T) {
	membershipRepo := &fakeTeamMembershipRepo{
		findByUserAndTeamFn: func(ctx context.Context, userID, teamID int) (*models.TeamMembership, error) {
			return activeTeamMembership(userID, models.TeamRoleMember), nil
		},
	}

	svc := NewTeamService(nil, nil, membershipRepo, nil, nil, nil)

	err := svc.ChangeTeamRole(context.Background(), 7, 42, 8, models.TeamRoleAdmin)
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestRemoveTeamMemberSoleAdminRejected(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	teamRepo := &fakeTeamRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.Team, error) {
			return &models.Team{ID: id, Name: "Night Owls"}, nil
		},
	}
	membershipRepo := &fakeTeamMembershipRepo{
		findByUserAndTeamFn: func(ctx context.Context, userID, teamID int) (*models.TeamMembership, error) {
			return activeTeamMembership(userID, models.TeamRoleAdmin), nil
		},
		countActiveAdminsFn: func(ctx context.Context, exec repositories.SQLExecutor, teamID int) (int, error) {
			return 1, nil
		},
	}

	svc := NewTeamService(conn, teamRepo, membershipRepo, nil, nil, nil)

	// Единственный админ пытается удалить сам себя.
	err = svc.RemoveTeamMember(context.Background(), 7, 42, 7)
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveTeamMemberExpelsAndNotifies(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	teamRepo := &fakeTeamRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.Team, error) {
			return &models.Team{ID: id, Name: "Night Owls"}, nil
		},
	}
	var gotStatus models.MembershipStatus
	membershipRepo := &fakeTeamMembershipRepo{
		findByUserAndTeamFn: func(ctx context.Context, userID, teamID int) (*models.TeamMembership, error) {
			if userID == 7 {
				return activeTeamMembership(userID, models.TeamRoleAdmin), nil
			}
			return activeTeamMembership(userID, models.TeamRoleMember), nil
		},
		countActiveAdminsFn: func(ctx context.Context, exec repositories.SQLExecutor, teamID int) (int, error) {
			return 2, nil
		},
		updateStatusFn: func(ctx context.Context, exec repositories.SQLExecutor, id int, status models.MembershipStatus, leftAt *time.Time) error {
			gotStatus = status
			return nil
		},
	}
	var notified []int
	notificationRepo := &fakeNotificationRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, notification *models.Notification) error {
			require.NotNil(t, exec)
			notified = append(notified, notification.UserID)
			return nil
		},
	}

	svc := NewTeamService(conn, teamRepo, membershipRepo, nil, notificationRepo, nil)

	require.NoError(t, svc.RemoveTeamMember(context.Background(), 7, 42, 8))
	assert.Equal(t, models.MembershipExpelled, gotStatus)
	assert.Equal(t, []int{8}, notified)

	assert.NoError(t, mock.ExpectationsWereMet())
}
