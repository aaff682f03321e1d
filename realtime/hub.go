package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/teamgrid/community-system/models"
)

// WebSocketMessage — конверт для всех исходящих сообщений.
type WebSocketMessage struct {
	Type    string      `json:"type"` // Тип сообщения, например, "NOTIFICATION"
	Payload interface{} `json:"payload"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Hub раздаёт уведомления по комнатам. Одна комната на пользователя:
// все его открытые вкладки получают одно и то же сообщение.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	rooms      map[string]map[*Client]bool
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.Room]; !ok {
				h.rooms[client.Room] = make(map[*Client]bool)
			}
			h.rooms[client.Room][client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.rooms[client.Room]; ok {
				if _, okClient := h.rooms[client.Room][client]; okClient {
					client.Mu.Lock()
					if !client.IsClosed {
						close(client.Send)
						client.IsClosed = true
					}
					client.Mu.Unlock()
					delete(h.rooms[client.Room], client)
					if len(h.rooms[client.Room]) == 0 {
						delete(h.rooms, client.Room)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// UserRoom — имя комнаты пользователя.
func UserRoom(userID int) string {
	return fmt.Sprintf("user_%d", userID)
}

// Push реализует services.Notifier: доставляет зафиксированное уведомление
// всем подключениям пользователя. Отсутствие подключений — не ошибка.
func (h *Hub) Push(userID int, notification *models.Notification) {
	h.broadcastToRoom(UserRoom(userID), WebSocketMessage{
		Type:    "NOTIFICATION",
		Payload: notification,
	})
}

func (h *Hub) broadcastToRoom(roomID string, message interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	roomClients, ok := h.rooms[roomID]
	if !ok {
		return
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshalling message for room %s: %v", roomID, err)
		return
	}

	for client := range roomClients {
		client.Mu.Lock()
		if client.IsClosed {
			client.Mu.Unlock()
			continue
		}
		select {
		case client.Send <- messageBytes:
		default:
			// Канал клиента полон: медленный потребитель пропускает сообщение.
			log.Printf("Client's send channel full for room %s. Skipping.", roomID)
		}
		client.Mu.Unlock()
	}
}
