package handler

import (
	"log/slog"
	"net/http"

	"github.com/codecache/codecache/internal/auth"
	"github.com/codecache/codecache/internal/executor"
	"github.com/codecache/codecache/internal/service"
)

// ExecuteHandler runs stored snippets in the sandbox.
type ExecuteHandler struct {
	exec     executor.Executor
	snippets *service.SnippetService
	logger   *slog.Logger
}

// NewExecuteHandler creates an ExecuteHandler. exec may be nil when
// the runner is disabled; the route then responds 503.
func NewExecuteHandler(exec executor.Executor, snippets *service.SnippetService, logger *slog.Logger) *ExecuteHandler {
	return &ExecuteHandler{
		exec:     exec,
		snippets: snippets,
		logger:   logger,
	}
}

// HandleRun executes a snippet by ID, subject to the same visibility
// rules as reading it.
//
// HTTP: POST /api/snippets/{id}/run
func (h *ExecuteHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if h.exec == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "runner_unavailable",
			Message: "code execution is not enabled on this server",
		})
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())

	snippet, err := h.snippets.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	if !h.exec.Supports(snippet.Language) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "language " + snippet.Language + " cannot be executed",
		})
		return
	}

	h.logger.Info("executing snippet",
		slog.String("id", snippet.ID),
		slog.String("language", snippet.Language),
	)

	result, err := h.exec.Execute(r.Context(), executor.Request{
		Language: snippet.Language,
		Code:     snippet.Code,
	})
	if err != nil {
		h.logger.Error("snippet execution failed",
			slog.String("id", snippet.ID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "execution_error",
			Message: "snippet execution failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}
