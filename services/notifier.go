package services

import "github.com/teamgrid/community-system/models"

// Notifier доставляет уведомление подключённому получателю (websocket).
// Вызывается строго после commit: незакоммиченное уведомление не пушится.
type Notifier interface {
	Push(userID int, notification *models.Notification)
}
