package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/codecache/codecache/internal/auth"
	"github.com/codecache/codecache/internal/model"
	"github.com/codecache/codecache/internal/service"
)

// InvitationHandler manages sharing snippets by email and the
// invitee's accept/decline actions.
type InvitationHandler struct {
	invitations *service.InvitationService
	users       *service.UserService
	logger      *slog.Logger
}

// NewInvitationHandler creates an InvitationHandler.
func NewInvitationHandler(invitations *service.InvitationService, users *service.UserService, logger *slog.Logger) *InvitationHandler {
	return &InvitationHandler{invitations: invitations, users: users, logger: logger}
}

type shareRequest struct {
	Email       string             `json:"email"`
	Permissions []model.Permission `json:"permissions"`
}

// invitationResponse wraps an invitation with its time-aware status,
// so a pending record past its expiry reads as expired without a
// separate write.
type invitationResponse struct {
	model.Invitation
	EffectiveStatus model.InviteStatus `json:"effectiveStatus"`
}

func toInvitationResponse(inv model.Invitation, now time.Time) invitationResponse {
	return invitationResponse{
		Invitation:      inv,
		EffectiveStatus: inv.EffectiveStatus(now),
	}
}

func toInvitationResponses(invs []model.Invitation) []invitationResponse {
	now := time.Now()
	out := make([]invitationResponse, len(invs))
	for i, inv := range invs {
		out[i] = toInvitationResponse(inv, now)
	}
	return out
}

// HandleShare invites an email address to a snippet.
//
// HTTP: POST /api/snippets/{id}/share
func (h *InvitationHandler) HandleShare(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req shareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	inv, err := h.invitations.Share(r.Context(), r.PathValue("id"), userID, req.Email, req.Permissions)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toInvitationResponse(*inv, time.Now()))
}

// HandleListMine returns every invitation addressed to the caller's
// email, regardless of status.
//
// HTTP: GET /api/invitations
func (h *InvitationHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	invs, err := h.invitations.ListForInvitee(r.Context(), user.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toInvitationResponses(invs))
}

// HandleListForSnippet returns the invitations on a snippet.
//
// HTTP: GET /api/snippets/{id}/invitations
func (h *InvitationHandler) HandleListForSnippet(w http.ResponseWriter, r *http.Request) {
	invs, err := h.invitations.ListForSnippet(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toInvitationResponses(invs))
}

// HandleAccept marks an invitation accepted.
//
// HTTP: POST /api/invitations/{id}/accept
func (h *InvitationHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invitations.Accept(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toInvitationResponse(*inv, time.Now()))
}

// HandleDecline marks an invitation declined.
//
// HTTP: POST /api/invitations/{id}/decline
func (h *InvitationHandler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invitations.Decline(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toInvitationResponse(*inv, time.Now()))
}
