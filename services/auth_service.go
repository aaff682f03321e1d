package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teamgrid/community-system/auth"
	"github.com/teamgrid/community-system/db"
	"github.com/teamgrid/community-system/lifecycle"
	"github.com/teamgrid/community-system/models"
	"github.com/teamgrid/community-system/repositories"
)

const (
	sessionTokenLength = 32 // Длина токена в байтах (64 символа в hex)
	minPasswordLength  = 8
)

type RegisterInput struct {
	Nickname string  `json:"nickname"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Phone    *string `json:"phone,omitempty"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, credentials models.Credentials) (*models.User, *models.Session, error)
	Logout(ctx context.Context, token string) error
	GetSessionByToken(ctx context.Context, token string) (*models.Session, error)
}

type authService struct {
	db          *sql.DB
	userRepo    repositories.UserRepository
	profileRepo repositories.ProfileRepository
	sessionRepo repositories.SessionRepository
}

func NewAuthService(
	database *sql.DB,
	userRepo repositories.UserRepository,
	profileRepo repositories.ProfileRepository,
	sessionRepo repositories.SessionRepository,
) AuthService {
	return &authService{
		db:          database,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		sessionRepo: sessionRepo,
	}
}

// Register создаёт пользователя и его профиль в одной единице работы:
// никакой наблюдаемый пользователь не существует без профиля.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	nickname := strings.TrimSpace(input.Nickname)
	email := strings.TrimSpace(strings.ToLower(input.Email))

	if nickname == "" {
		return nil, ErrNicknameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if input.Password == "" {
		return nil, ErrPasswordRequired
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	passwordHash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	uow, err := db.Begin(ctx, s.db)
	if err != nil {
		return nil, storeFailure(err)
	}
	defer uow.Close()

	user := &models.User{
		Nickname:     nickname,
		Email:        email,
		PasswordHash: passwordHash,
		Status:       models.UserStatusActive,
		RegisteredAt: time.Now(),
	}

	if err := s.userRepo.Create(ctx, uow.Tx(), user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserEmailConflict):
			return nil, ErrUserEmailConflict
		case errors.Is(err, repositories.ErrUserNicknameConflict):
			return nil, ErrUserNicknameConflict
		default:
			return nil, storeFailure(err)
		}
	}

	profile := &models.Profile{
		UserID:     user.ID,
		Nickname:   nickname,
		Phone:      input.Phone,
		Visibility: models.ProfilePublic,
		CreatedAt:  user.RegisteredAt,
	}

	if err := s.profileRepo.Create(ctx, uow.Tx(), profile); err != nil {
		return nil, storeFailure(err)
	}

	if err := uow.Commit(); err != nil {
		return nil, storeFailure(err)
	}

	user.Profile = profile
	return user, nil
}

// Login сверяет пароль и открывает новую сессию. Несуществующий email и
// неверный пароль неразличимы для вызывающего.
func (s *authService) Login(ctx context.Context, credentials models.Credentials) (*models.User, *models.Session, error) {
	email := strings.TrimSpace(strings.ToLower(credentials.Email))
	if email == "" || credentials.Password == "" {
		return nil, nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, storeFailure(err)
	}

	if user.Status != models.UserStatusActive {
		return nil, nil, ErrInvalidCredentials
	}

	if !auth.CheckPasswordHash(credentials.Password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	token, err := generateSecureToken(sessionTokenLength)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &models.Session{
		UserID:    user.ID,
		Token:     token,
		StartedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, nil, session); err != nil {
		return nil, nil, storeFailure(err)
	}

	return user, session, nil
}

// Logout закрывает сессию по токену. Повторный логаут того же токена
// и логаут уже закрытой сессии — no-op.
func (s *authService) Logout(ctx context.Context, token string) error {
	session, err := s.sessionRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil
		}
		return storeFailure(err)
	}

	closedAt, changed := lifecycle.CloseSession(session.EndedAt, time.Now())
	if !changed {
		return nil
	}

	if err := s.sessionRepo.Close(ctx, nil, session.ID, closedAt); err != nil {
		return storeFailure(err)
	}
	return nil
}

func (s *authService) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	session, err := s.sessionRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, storeFailure(err)
	}
	return session, nil
}
