package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/teamgrid/community-system/db"
	"github.com/teamgrid/community-system/models"
	"github.com/teamgrid/community-system/repositories"
	"github.com/teamgrid/community-system/storage"
)

type UpdateProfileInput struct {
	Nickname   *string                   `json:"nickname,omitempty"`
	Bio        *string                   `json:"bio,omitempty"`
	Phone      *string                   `json:"phone,omitempty"`
	Visibility *models.ProfileVisibility `json:"visibility,omitempty"`
}

type ProfileService interface {
	GetProfile(ctx context.Context, requesterID, userID int) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.Profile, error)
	UploadPhoto(ctx context.Context, userID int, contentType string, reader io.Reader) (*models.Profile, error)
}

type profileService struct {
	db          *sql.DB
	profileRepo repositories.ProfileRepository
	userRepo    repositories.UserRepository
	uploader    storage.FileUploader
}

func NewProfileService(
	database *sql.DB,
	profileRepo repositories.ProfileRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
) ProfileService {
	return &profileService{
		db:          database,
		profileRepo: profileRepo,
		userRepo:    userRepo,
		uploader:    uploader,
	}
}

// GetProfile возвращает профиль пользователя. Приватный профиль виден
// только владельцу.
func (s *profileService) GetProfile(ctx context.Context, requesterID, userID int) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, storeFailure(err)
	}

	if profile.Visibility == models.ProfilePrivate && requesterID != userID {
		return nil, ErrForbiddenOperation
	}

	populateProfilePhotoURL(profile, s.uploader)
	return profile, nil
}

// UpdateProfile обновляет профиль. Никнейм живёт в двух агрегатах
// (профиль и пользователь); его смена обновляет обе записи в одной
// единице работы, чтобы они не могли разойтись.
func (s *profileService) UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, storeFailure(err)
	}

	nicknameChanged := false
	if input.Nickname != nil {
		nickname := strings.TrimSpace(*input.Nickname)
		if nickname == "" {
			return nil, ErrNicknameRequired
		}
		if nickname != profile.Nickname {
			profile.Nickname = nickname
			nicknameChanged = true
		}
	}
	if input.Bio != nil {
		profile.Bio = input.Bio
	}
	if input.Phone != nil {
		profile.Phone = input.Phone
	}
	if input.Visibility != nil {
		switch *input.Visibility {
		case models.ProfilePublic, models.ProfilePrivate:
			profile.Visibility = *input.Visibility
		default:
			return nil, fmt.Errorf("%w: unknown visibility %q", ErrInvalidInput, *input.Visibility)
		}
	}

	uow, err := db.Begin(ctx, s.db)
	if err != nil {
		return nil, storeFailure(err)
	}
	defer uow.Close()

	if err := s.profileRepo.Update(ctx, uow.Tx(), profile); err != nil {
		return nil, storeFailure(err)
	}

	if nicknameChanged {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, storeFailure(err)
		}
		user.Nickname = profile.Nickname
		if err := s.userRepo.Update(ctx, uow.Tx(), user); err != nil {
			if errors.Is(err, repositories.ErrUserNicknameConflict) {
				return nil, ErrUserNicknameConflict
			}
			return nil, storeFailure(err)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, storeFailure(err)
	}

	populateProfilePhotoURL(profile, s.uploader)
	return profile, nil
}

func (s *profileService) UploadPhoto(ctx context.Context, userID int, contentType string, reader io.Reader) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, storeFailure(err)
	}

	key := fmt.Sprintf("profiles/%d/photo", userID)
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload profile photo: %w", err)
	}

	profile.PhotoKey = &result.Key
	if err := s.profileRepo.Update(ctx, nil, profile); err != nil {
		return nil, storeFailure(err)
	}

	populateProfilePhotoURL(profile, s.uploader)
	return profile, nil
}
