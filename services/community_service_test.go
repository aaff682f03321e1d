package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamgrid/community-system/models"
	"github.com/teamgrid/community-system/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateCommunityWithLeaderCommitsBoth(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	communityRepo := &fakeCommunityRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, community *models.Community) error {
			// Запись идёт через транзакцию единицы работы, не через пул.
			require.NotNil(t, exec)
			community.ID = 42
			return nil
		},
	}

	var founding *models.CommunityMembership
	membershipRepo := &fakeCommunityMembershipRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, membership *models.CommunityMembership) error {
			require.NotNil(t, exec)
			membership.ID = 7
			founding = membership
			return nil
		},
	}

	svc := NewCommunityService(conn, communityRepo, membershipRepo, nil, nil, nil, testLogger())

	community, err := svc.CreateCommunityWithLeader(context.Background(), 5, CreateCommunityInput{Name: "Night Owls"})
	require.NoError(t, err)

	assert.Equal(t, 42, community.ID)
	require.NotNil(t, founding)
	assert.Equal(t, 5, founding.UserID)
	assert.Equal(t, 42, founding.CommunityID)
	assert.Equal(t, models.CommunityRoleLeader, founding.Role)
	assert.Equal(t, models.MembershipActive, founding.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCommunityWithLeaderRollsBackOnMembershipFailure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	// Commit не ожидается: провал второй записи откатывает и первую.
	mock.ExpectBegin()
	mock.ExpectRollback()

	communityRepo := &fakeCommunityRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, community *models.Community) error {
			community.ID = 42
			return nil
		},
	}
	membershipRepo := &fakeCommunityMembershipRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, membership *models.CommunityMembership) error {
			return errors.New("connection reset")
		},
	}

	svc := NewCommunityService(conn, communityRepo, membershipRepo, nil, nil, nil, testLogger())

	_, err = svc.CreateCommunityWithLeader(context.Background(), 5, CreateCommunityInput{Name: "Night Owls"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreFailure)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCommunityWithLeaderValidation(t *testing.T) {
	svc := NewCommunityService(nil, nil, nil, nil, nil, nil, testLogger())

	_, err := svc.CreateCommunityWithLeader(context.Background(), 5, CreateCommunityInput{Name: "   "})
	assert.ErrorIs(t, err, ErrCommunityNameEmpty)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateCommunityWithLeaderNameConflict(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	communityRepo := &fakeCommunityRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, community *models.Community) error {
			return repositories.ErrCommunityNameConflict
		},
	}

	svc := NewCommunityService(conn, communityRepo, nil, nil, nil, nil, testLogger())

	_, err = svc.CreateCommunityWithLeader(context.Background(), 5, CreateCommunityInput{Name: "Night Owls"})
	assert.ErrorIs(t, err, ErrCommunityNameTaken)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveCommunityLeaderCannotLeave(t *testing.T) {
	membershipRepo := &fakeCommunityMembershipRepo{
		findByUserAndCommunityFn: func(ctx context.Context, userID, communityID int) (*models.CommunityMembership, error) {
			return &models.CommunityMembership{
				ID:          1,
				UserID:      userID,
				CommunityID: communityID,
				Role:        models.CommunityRoleLeader,
				Status:      models.MembershipActive,
			}, nil
		},
	}

	svc := NewCommunityService(nil, nil, membershipRepo, nil, nil, nil, testLogger())

	err := svc.LeaveCommunity(context.Background(), 5, 42)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestLeaveCommunityTransitions(t *testing.T) {
	var gotStatus models.MembershipStatus
	var gotLeftAt *time.Time

	membershipRepo := &fakeCommunityMembershipRepo{
		findByUserAndCommunityFn: func(ctx context.Context, userID, communityID int) (*models.CommunityMembership, error) {
			return &models.CommunityMembership{
				ID:          9,
				UserID:      userID,
				CommunityID: communityID,
				Role:        models.CommunityRoleMember,
				Status:      models.MembershipActive,
			}, nil
		},
		updateStatusFn: func(ctx context.Context, exec repositories.SQLExecutor, id int, status models.MembershipStatus, leftAt *time.Time) error {
			gotStatus = status
			gotLeftAt = leftAt
			return nil
		},
	}

	svc := NewCommunityService(nil, nil, membershipRepo, nil, nil, nil, testLogger())

	require.NoError(t, svc.LeaveCommunity(context.Background(), 5, 42))
	assert.Equal(t, models.MembershipAbandoned, gotStatus)
	require.NotNil(t, gotLeftAt)
}

func TestLeaveCommunityAlreadyLeft(t *testing.T) {
	membershipRepo := &fakeCommunityMembershipRepo{
		findByUserAndCommunityFn: func(ctx context.Context, userID, communityID int) (*models.CommunityMembership, error) {
			return &models.CommunityMembership{
				ID:     9,
				Role:   models.CommunityRoleMember,
				Status: models.MembershipAbandoned,
			}, nil
		},
	}

	svc := NewCommunityService(nil, nil, membershipRepo, nil, nil, nil, testLogger())

	err := svc.LeaveCommunity(context.Background(), 5, 42)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestExpelMemberRequiresModerator(t *testing.T) {
	membershipRepo := &fakeCommunityMembershipRepo{
		findByUserAndCommunityFn: func(ctx context.Context, userID, communityID int) (*models.CommunityMembership, error) {
			return &models.CommunityMembership{
				ID:     1,
				UserID: userID,
				Role:   models.CommunityRoleMember,
				Status: models.MembershipActive,
			}, nil
		},
	}

	svc := NewCommunityService(nil, nil, membershipRepo, nil, nil, nil, testLogger())

	err := svc.ExpelMember(context.Background(), 5, 42, 6)
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestChangeMemberRolePromotesToModerator(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	var gotRole models.CommunityRole
	membershipRepo := &fakeCommunityMembershipRepo{
		findByUserAndCommunityFn: func(ctx context.Context, userID, communityID int) (*models.CommunityMembership, error) {
			role := models.CommunityRoleMember
			if userID == 1 {
				role = models.CommunityRoleLeader
			}
			return &models.CommunityMembership{
				ID:          userID * 10,
				UserID:      userID,
				CommunityID: communityID,
				Role:        role,
				Status:      models.MembershipActive,
			}, nil
		},
		updateRoleFn: func(ctx context.Context, exec repositories.SQLExecutor, id int, role models.CommunityRole) error {
			require.NotNil(t, exec)
			gotRole = role
			return nil
		},
	}

	svc := NewCommunityService(conn, nil, membershipRepo, nil, nil, nil, testLogger())

	require.NoError(t, svc.ChangeMemberRole(context.Background(), 1, 42, 5, models.CommunityRoleModerator))
	assert.Equal(t, models.CommunityRoleModerator, gotRole)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeMemberRoleSecondLeaderRejected(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	// updateRoleFn не настроен: запись после отказа уронила бы тест паникой.
	membershipRepo := &fakeCommunityMembershipRepo{
		findByUserAndCommunityFn: func(ctx context.Context, userID, communityID int) (*models.CommunityMembership, error) {
			role := models.CommunityRoleMember
			if userID == 1 {
				role = models.CommunityRoleLeader
			}
			return &models.CommunityMembership{
				ID:          userID * 10,
				UserID:      userID,
				CommunityID: communityID,
				Role:        role,
				Status:      models.MembershipActive,
			}, nil
		},
		countByRoleFn: func(ctx context.Context, exec repositories.SQLExecutor, communityID int, role models.CommunityRole, status models.MembershipStatus) (int, error) {
			require.NotNil(t, exec)
			require.Equal(t, models.CommunityRoleLeader, role)
			require.Equal(t, models.MembershipActive, status)
			return 1, nil
		},
	}

	svc := NewCommunityService(conn, nil, membershipRepo, nil, nil, nil, testLogger())

	err = svc.ChangeMemberRole(context.Background(), 1, 42, 5, models.CommunityRoleLeader)
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeMemberRoleSameRoleIsNoop(t *testing.T) {
	membershipRepo := &fakeCommunityMembershipRepo{
		findByUserAndCommunityFn: func(ctx context.Context, userID, communityID int) (*models.CommunityMembership, error) {
			role := models.CommunityRoleModerator
			if userID == 1 {
				role = models.CommunityRoleLeader
			}
			return &models.CommunityMembership{
				ID:          userID * 10,
				UserID:      userID,
				CommunityID: communityID,
				Role:        role,
				Status:      models.MembershipActive,
			}, nil
		},
	}

	// Транзакция не открывается вовсе: nil вместо *sql.DB это докажет.
	svc := NewCommunityService(nil, nil, membershipRepo, nil, nil, nil, testLogger())

	assert.NoError(t, svc.ChangeMemberRole(context.Background(), 1, 42, 5, models.CommunityRoleModerator))
}
