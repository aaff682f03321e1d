package handlers

import (
	"net/http"
	"strconv"

	"github.com/teamgrid/community-system/middleware"
	"github.com/teamgrid/community-system/models"
	"github.com/teamgrid/community-system/services"
)

type CommunityHandler struct {
	communityService services.CommunityService
}

func NewCommunityHandler(communityService services.CommunityService) *CommunityHandler {
	return &CommunityHandler{communityService: communityService}
}

func (h *CommunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.CreateCommunityInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	community, err := h.communityService.CreateCommunityWithLeader(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"community": community}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CommunityHandler) Get(w http.ResponseWriter, r *http.Request) {
	communityID, err := idParam(r, "communityID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	community, err := h.communityService.GetCommunity(r.Context(), communityID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"community": community}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CommunityHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	communities, err := h.communityService.ListCommunities(r.Context(), limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"communities": communities}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CommunityHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	communityID, err := idParam(r, "communityID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.communityService.LeaveCommunity(r.Context(), userID, communityID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CommunityHandler) ExpelMember(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	communityID, err := idParam(r, "communityID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	targetUserID, err := idParam(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.communityService.ExpelMember(r.Context(), actorID, communityID, targetUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CommunityHandler) ReadmitMember(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	communityID, err := idParam(r, "communityID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	targetUserID, err := idParam(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.communityService.ReadmitMember(r.Context(), actorID, communityID, targetUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CommunityHandler) ChangeMemberRole(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	communityID, err := idParam(r, "communityID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	targetUserID, err := idParam(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Role models.CommunityRole `json:"role"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.communityService.ChangeMemberRole(r.Context(), actorID, communityID, targetUserID, input.Role); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadLogo принимает multipart/form-data с полем logo.
func (h *CommunityHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	communityID, err := idParam(r, "communityID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	community, err := h.communityService.UploadLogo(r.Context(), actorID, communityID, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"community": community}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
