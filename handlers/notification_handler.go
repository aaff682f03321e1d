package handlers

import (
	"net/http"

	"github.com/teamgrid/community-system/middleware"
	"github.com/teamgrid/community-system/services"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := h.notificationService.ListNotifications(r.Context(), userID, unreadOnly)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"notifications": notifications}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MarkRead идемпотентна: повторная пометка того же уведомления — 204.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	notificationID, err := idParam(r, "notificationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), userID, notificationID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
