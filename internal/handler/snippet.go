package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/codecache/codecache/internal/auth"
	"github.com/codecache/codecache/internal/service"
)

// SnippetHandler manages snippet CRUD, listing and search.
type SnippetHandler struct {
	snippets *service.SnippetService
	logger   *slog.Logger
}

// NewSnippetHandler creates a SnippetHandler.
func NewSnippetHandler(snippets *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, logger: logger}
}

type snippetRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Code        string   `json:"code"`
	Language    string   `json:"language"`
	Tags        []string `json:"tags"`
	IsPublic    *bool    `json:"isPublic"`
}

func (r snippetRequest) toInput() service.SnippetInput {
	in := service.SnippetInput{
		Title:       r.Title,
		Description: r.Description,
		Code:        r.Code,
		Language:    r.Language,
		Tags:        r.Tags,
		IsPublic:    true,
	}
	if r.IsPublic != nil {
		in.IsPublic = *r.IsPublic
	}
	return in
}

// HandleCreate saves a new snippet. Anonymous callers may create
// public snippets only.
//
// HTTP: POST /api/snippets
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req snippetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())

	snippet, err := h.snippets.Create(r.Context(), userID, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snippet)
}

// HandleGet returns a single snippet, subject to visibility rules.
//
// HTTP: GET /api/snippets/{id}
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	snippet, err := h.snippets.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleUpdate modifies a snippet. Allowed for the owner and for
// holders of an accepted invitation with write or admin permission.
//
// HTTP: PUT /api/snippets/{id}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req snippetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())

	snippet, err := h.snippets.Update(r.Context(), userID, r.PathValue("id"), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes a snippet. Owner only.
//
// HTTP: DELETE /api/snippets/{id}
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.snippets.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleListPublic returns public snippets, newest first.
//
// HTTP: GET /api/snippets?limit=20&offset=0
func (h *SnippetHandler) HandleListPublic(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	snippets, err := h.snippets.ListPublic(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleListMine returns the caller's own snippets.
//
// HTTP: GET /api/snippets/mine
func (h *SnippetHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	limit, offset := pagination(r)

	snippets, err := h.snippets.ListByOwner(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleSearch searches public snippets by title, description, code
// or tags.
//
// HTTP: GET /api/snippets/search?q=xxx
func (h *SnippetHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	snippets, err := h.snippets.Search(r.Context(), r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleAccessible returns the snippets the caller owns plus those
// shared with them through accepted invitations.
//
// HTTP: GET /api/snippets/accessible
func (h *SnippetHandler) HandleAccessible(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	result, err := h.snippets.Accessible(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// pagination parses limit/offset query parameters. Out-of-range
// values are clamped by the service layer.
func pagination(r *http.Request) (limit, offset int) {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}
	return limit, offset
}
