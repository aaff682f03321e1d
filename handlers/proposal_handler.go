package handlers

import (
	"net/http"

	"github.com/teamgrid/community-system/middleware"
	"github.com/teamgrid/community-system/services"
)

type ProposalHandler struct {
	proposalService services.ProposalService
}

func NewProposalHandler(proposalService services.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposalService: proposalService}
}

func (h *ProposalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input struct {
		TeamID       int `json:"team_id"`
		TournamentID int `json:"tournament_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	proposal, err := h.proposalService.SubmitProposal(r.Context(), actorID, input.TeamID, input.TournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"proposal": proposal}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ProposalHandler) Get(w http.ResponseWriter, r *http.Request) {
	proposalID, err := idParam(r, "proposalID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	proposal, err := h.proposalService.GetProposal(r.Context(), proposalID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"proposal": proposal}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ProposalHandler) Vote(w http.ResponseWriter, r *http.Request) {
	voterID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	proposalID, err := idParam(r, "proposalID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Value bool `json:"value"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.proposalService.CastVote(r.Context(), proposalID, voterID, input.Value); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Approve оценивает голосование. 200 с approved=false означает, что
// результат пока не единогласный и заявка осталась pending.
func (h *ProposalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	proposalID, err := idParam(r, "proposalID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	approved, err := h.proposalService.ApproveTournamentProposal(r.Context(), proposalID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"approved": approved}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
