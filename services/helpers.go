package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/teamgrid/community-system/lifecycle"
	"github.com/teamgrid/community-system/models"
	"github.com/teamgrid/community-system/storage"
)

// --- Общие хелперы ---

// rejectionToError переводит отказ машины состояний в типизированную ошибку
// сервисного слоя. Только здесь отказы становятся ошибками: сами машины
// не бросают исключений ради управления потоком.
func rejectionToError(rej *lifecycle.Rejection) error {
	if rej == nil {
		return nil
	}
	if rej.Kind == lifecycle.KindAlreadyResolved {
		return fmt.Errorf("%w: %s", ErrAlreadyResolved, rej.Reason)
	}
	return fmt.Errorf("%w: %s", ErrInvalidState, rej.Reason)
}

// storeFailure помечает ошибку нижележащего хранилища; она всегда
// пробрасывается вызывающему, никогда не глотается.
func storeFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreFailure, err)
}

func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// canModerate: исключать и восстанавливать участников могут лидер и модераторы.
func canModerate(role models.CommunityRole) bool {
	return role == models.CommunityRoleLeader || role == models.CommunityRoleModerator
}

// populateProfilePhotoURL выставляет публичный URL фото, если ключ задан.
func populateProfilePhotoURL(profile *models.Profile, uploader storage.FileUploader) {
	if profile == nil || profile.PhotoKey == nil || uploader == nil {
		return
	}
	url := uploader.GetPublicURL(*profile.PhotoKey)
	profile.PhotoURL = &url
}

// populateCommunityLogoURL выставляет публичный URL логотипа сообщества.
func populateCommunityLogoURL(community *models.Community, uploader storage.FileUploader) {
	if community == nil || community.LogoKey == nil || uploader == nil {
		return
	}
	url := uploader.GetPublicURL(*community.LogoKey)
	community.LogoURL = &url
}
