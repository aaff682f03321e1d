package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamgrid/community-system/auth"
	"github.com/teamgrid/community-system/models"
	"github.com/teamgrid/community-system/repositories"
)

func TestRegisterCreatesUserAndProfileAtomically(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	userRepo := &fakeUserRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, user *models.User) error {
			require.NotNil(t, exec)
			user.ID = 7
			return nil
		},
	}
	var profile *models.Profile
	profileRepo := &fakeProfileRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, p *models.Profile) error {
			require.NotNil(t, exec)
			profile = p
			return nil
		},
	}

	svc := NewAuthService(conn, userRepo, profileRepo, nil)

	user, err := svc.Register(context.Background(), RegisterInput{
		Nickname: "owl",
		Email:    "  Owl@Example.COM ",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, 7, user.ID)
	assert.Equal(t, "owl@example.com", user.Email)
	assert.True(t, auth.CheckPasswordHash("correct horse", user.PasswordHash))

	require.NotNil(t, profile)
	assert.Equal(t, 7, profile.UserID)
	assert.Equal(t, "owl", profile.Nickname)
	assert.Equal(t, models.ProfilePublic, profile.Visibility)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterRollsBackWhenProfileFails(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	// Профиль не создался — пользователь тоже не должен сохраниться.
	mock.ExpectBegin()
	mock.ExpectRollback()

	userRepo := &fakeUserRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, user *models.User) error {
			user.ID = 7
			return nil
		},
	}
	profileRepo := &fakeProfileRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, p *models.Profile) error {
			return errors.New("profiles table is on vacation")
		},
	}

	svc := NewAuthService(conn, userRepo, profileRepo, nil)

	_, err = svc.Register(context.Background(), RegisterInput{
		Nickname: "owl",
		Email:    "owl@example.com",
		Password: "correct horse",
	})
	assert.ErrorIs(t, err, ErrStoreFailure)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(nil, nil, nil, nil)

	cases := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{"empty nickname", RegisterInput{Email: "a@b.c", Password: "longenough"}, ErrNicknameRequired},
		{"empty email", RegisterInput{Nickname: "owl", Password: "longenough"}, ErrEmailRequired},
		{"empty password", RegisterInput{Nickname: "owl", Email: "a@b.c"}, ErrPasswordRequired},
		{"short password", RegisterInput{Nickname: "owl", Email: "a@b.c", Password: "short"}, ErrPasswordTooShort},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.input)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegisterEmailConflict(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	userRepo := &fakeUserRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, user *models.User) error {
			return repositories.ErrUserEmailConflict
		},
	}

	svc := NewAuthService(conn, userRepo, nil, nil)

	_, err = svc.Register(context.Background(), RegisterInput{
		Nickname: "owl",
		Email:    "owl@example.com",
		Password: "correct horse",
	})
	assert.ErrorIs(t, err, ErrUserEmailConflict)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginOpensSession(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)

	userRepo := &fakeUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			require.Equal(t, "owl@example.com", email)
			return &models.User{ID: 7, Email: email, PasswordHash: hash, Status: models.UserStatusActive}, nil
		},
	}
	var created *models.Session
	sessionRepo := &fakeSessionRepo{
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, session *models.Session) error {
			session.ID = 1
			created = session
			return nil
		},
	}

	svc := NewAuthService(nil, userRepo, nil, sessionRepo)

	user, session, err := svc.Login(context.Background(), models.Credentials{
		Email:    "Owl@Example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, 7, user.ID)
	require.NotNil(t, created)
	assert.Equal(t, 7, created.UserID)
	// 32 байта в hex.
	assert.Len(t, session.Token, 64)
	assert.Nil(t, session.EndedAt)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)

	userRepo := &fakeUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: 7, Email: email, PasswordHash: hash, Status: models.UserStatusActive}, nil
		},
	}

	svc := NewAuthService(nil, userRepo, nil, nil)

	_, _, err = svc.Login(context.Background(), models.Credentials{
		Email:    "owl@example.com",
		Password: "battery staple",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmailIndistinguishable(t *testing.T) {
	userRepo := &fakeUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return nil, repositories.ErrUserNotFound
		},
	}

	svc := NewAuthService(nil, userRepo, nil, nil)

	_, _, err := svc.Login(context.Background(), models.Credentials{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutClosesSessionOnce(t *testing.T) {
	ended := time.Now().Add(-time.Hour)

	t.Run("open session is closed", func(t *testing.T) {
		var closedID int
		sessionRepo := &fakeSessionRepo{
			getByTokenFn: func(ctx context.Context, token string) (*models.Session, error) {
				return &models.Session{ID: 3, UserID: 7, Token: token}, nil
			},
			closeFn: func(ctx context.Context, exec repositories.SQLExecutor, id int, endedAt time.Time) error {
				closedID = id
				return nil
			},
		}
		svc := NewAuthService(nil, nil, nil, sessionRepo)

		require.NoError(t, svc.Logout(context.Background(), "tok"))
		assert.Equal(t, 3, closedID)
	})

	t.Run("already closed session is a no-op", func(t *testing.T) {
		// closeFn не настроен: вызов уронил бы тест паникой.
		sessionRepo := &fakeSessionRepo{
			getByTokenFn: func(ctx context.Context, token string) (*models.Session, error) {
				return &models.Session{ID: 3, UserID: 7, Token: token, EndedAt: &ended}, nil
			},
		}
		svc := NewAuthService(nil, nil, nil, sessionRepo)

		assert.NoError(t, svc.Logout(context.Background(), "tok"))
	})

	t.Run("unknown token is a no-op", func(t *testing.T) {
		sessionRepo := &fakeSessionRepo{
			getByTokenFn: func(ctx context.Context, token string) (*models.Session, error) {
				return nil, repositories.ErrSessionNotFound
			},
		}
		svc := NewAuthService(nil, nil, nil, sessionRepo)

		assert.NoError(t, svc.Logout(context.Background(), "tok"))
	})
}
