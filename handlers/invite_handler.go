package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Carlos-Trindade-code/sbar-health-sub000/middleware"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/models"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/services"
	"github.com/go-chi/chi/v5"
)

type InviteHandler struct {
	inviteService services.InviteService
}

func NewInviteHandler(inviteService services.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

func (h *InviteHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input struct {
		SuggestedRole models.MemberRole `json:"suggested_role"`
		Email         *string           `json:"email"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	invite, err := h.inviteService.CreateInvite(r.Context(), teamID, actorID, input.SuggestedRole, input.Email)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"id":   invite.ID,
		"code": invite.Code,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetInvite is the unauthenticated preview endpoint: a prospective invitee
// can see the target team before committing.
func (h *InviteHandler) GetInvite(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		badRequestResponse(w, r, errors.New("missing invite code in URL path"))
		return
	}

	preview, err := h.inviteService.GetInviteByCode(r.Context(), code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"invite": preview}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *InviteHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		badRequestResponse(w, r, errors.New("missing invite code in URL path"))
		return
	}

	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to accept an invite")
		return
	}

	result, err := h.inviteService.AcceptInvite(r.Context(), code, actorID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *InviteHandler) ListTeamInvites(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	invites, err := h.inviteService.ListTeamInvites(r.Context(), teamID, actorID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"invites": invites}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *InviteHandler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, h.inviteService.ApproveRequest)
}

func (h *InviteHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, h.inviteService.RejectRequest)
}

func (h *InviteHandler) resolveRequest(w http.ResponseWriter, r *http.Request, resolve func(ctx context.Context, inviteID, actorID int) error) {
	inviteID, err := getIDFromURL(r, "inviteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := resolve(r.Context(), inviteID, actorID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *InviteHandler) RevokeInvite(w http.ResponseWriter, r *http.Request) {
	inviteID, err := getIDFromURL(r, "inviteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.inviteService.RevokeInvite(r.Context(), inviteID, actorID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
