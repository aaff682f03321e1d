package services

import (
	"context"
	"errors"

	"github.com/teamgrid/community-system/lifecycle"
	"github.com/teamgrid/community-system/models"
	"github.com/teamgrid/community-system/repositories"
)

type NotificationService interface {
	ListNotifications(ctx context.Context, userID int, unreadOnly bool) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID int) (int, error)
	MarkRead(ctx context.Context, userID, notificationID int) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
}

func NewNotificationService(notificationRepo repositories.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) ListNotifications(ctx context.Context, userID int, unreadOnly bool) ([]*models.Notification, error) {
	notifications, err := s.notificationRepo.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, storeFailure(err)
	}
	return notifications, nil
}

func (s *notificationService) CountUnread(ctx context.Context, userID int) (int, error) {
	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, storeFailure(err)
	}
	return count, nil
}

// MarkRead помечает уведомление прочитанным. Переход односторонний и
// идемпотентный: повторная пометка уже прочитанного — no-op.
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID int) error {
	notification, err := s.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return ErrNotificationNotFound
		}
		return storeFailure(err)
	}
	if notification.UserID != userID {
		return ErrForbiddenOperation
	}

	if _, changed := lifecycle.MarkNotificationRead(notification.Read); !changed {
		return nil
	}

	if err := s.notificationRepo.MarkRead(ctx, nil, notificationID); err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return ErrNotificationNotFound
		}
		return storeFailure(err)
	}
	return nil
}
