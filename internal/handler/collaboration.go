package handler

import (
	"log/slog"
	"net/http"

	"github.com/codecache/codecache/internal/apperror"
	"github.com/codecache/codecache/internal/auth"
	"github.com/codecache/codecache/internal/model"
	"github.com/codecache/codecache/internal/service"
)

// CollaborationHandler manages access requests between registered
// users.
type CollaborationHandler struct {
	collabs *service.CollaborationService
	logger  *slog.Logger
}

// NewCollaborationHandler creates a CollaborationHandler.
func NewCollaborationHandler(collabs *service.CollaborationService, logger *slog.Logger) *CollaborationHandler {
	return &CollaborationHandler{collabs: collabs, logger: logger}
}

type collabRequestBody struct {
	RecipientID string             `json:"recipientId"`
	Message     string             `json:"message"`
	Permissions []model.Permission `json:"permissions"`
}

// HandleCreate asks another user to collaborate on a snippet.
//
// HTTP: POST /api/snippets/{id}/collaboration-requests
func (h *CollaborationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req collabRequestBody
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	cr, err := h.collabs.Create(r.Context(), r.PathValue("id"), userID, req.RecipientID, req.Message, req.Permissions)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, cr)
}

// HandleGet returns a single request. Only the requester and the
// recipient may see it; anyone else gets not-found so request IDs do
// not leak.
//
// HTTP: GET /api/collaboration-requests/{id}
func (h *CollaborationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	id := r.PathValue("id")
	cr, err := h.collabs.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if cr.RequesterID != userID && cr.RecipientID != userID {
		writeError(w, apperror.NotFound("collaboration request", id))
		return
	}

	writeJSON(w, http.StatusOK, cr)
}

// HandleListReceived returns requests addressed to the caller.
//
// HTTP: GET /api/collaboration-requests/received
func (h *CollaborationHandler) HandleListReceived(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	requests, err := h.collabs.ListReceived(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

// HandleListSent returns requests the caller has made.
//
// HTTP: GET /api/collaboration-requests/sent
func (h *CollaborationHandler) HandleListSent(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	requests, err := h.collabs.ListSent(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

// HandleAccept marks a request accepted.
//
// HTTP: POST /api/collaboration-requests/{id}/accept
func (h *CollaborationHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	cr, err := h.collabs.Accept(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cr)
}

// HandleDecline marks a request declined.
//
// HTTP: POST /api/collaboration-requests/{id}/decline
func (h *CollaborationHandler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	cr, err := h.collabs.Decline(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cr)
}
