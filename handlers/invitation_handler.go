package handlers

import (
	"fmt"
	"net/http"

	"github.com/teamgrid/community-system/middleware"
	"github.com/teamgrid/community-system/models"
	"github.com/teamgrid/community-system/services"
)

type InvitationHandler struct {
	invitationService services.InvitationService
}

func NewInvitationHandler(invitationService services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

func (h *InvitationHandler) Send(w http.ResponseWriter, r *http.Request) {
	senderID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input struct {
		Type        models.InvitationType `json:"type"`
		RecipientID int                   `json:"recipient_id"`
		TargetID    int                   `json:"target_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var invitation *models.Invitation
	switch input.Type {
	case models.InvitationTeam:
		invitation, err = h.invitationService.SendTeamInvitation(r.Context(), senderID, input.RecipientID, input.TargetID)
	case models.InvitationCommunity:
		invitation, err = h.invitationService.SendCommunityInvitation(r.Context(), senderID, input.RecipientID, input.TargetID)
	default:
		badRequestResponse(w, r, fmt.Errorf("unknown invitation type %q", input.Type))
		return
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"invitation": invitation}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	invitationID, err := idParam(r, "invitationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	membershipID, err := h.invitationService.AcceptInvitation(r.Context(), invitationID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"membership_id": membershipID}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *InvitationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	invitationID, err := idParam(r, "invitationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.invitationService.RejectInvitation(r.Context(), invitationID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *InvitationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	pendingOnly := r.URL.Query().Get("pending") == "true"

	invitations, err := h.invitationService.ListInvitations(r.Context(), userID, pendingOnly)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"invitations": invitations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
