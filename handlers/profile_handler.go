package handlers

import (
	"net/http"

	"github.com/teamgrid/community-system/middleware"
	"github.com/teamgrid/community-system/services"
)

type ProfileHandler struct {
	profileService services.ProfileService
}

func NewProfileHandler(profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	requesterID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	userID, err := idParam(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	profile, err := h.profileService.GetProfile(r.Context(), requesterID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"profile": profile}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.UpdateProfileInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	profile, err := h.profileService.UpdateProfile(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"profile": profile}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadPhoto принимает multipart/form-data с полем photo.
func (h *ProfileHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	profile, err := h.profileService.UploadPhoto(r.Context(), userID, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"profile": profile}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
