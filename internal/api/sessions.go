package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"fathom/internal/domain/models/research"
	"fathom/internal/httputil"
	"fathom/internal/middleware"
	"fathom/internal/session"
	"fathom/internal/streaming"
)

// SessionsHandler serves the Session API: list, get, delete, resume,
// history, and rollback over the Session Store.
type SessionsHandler struct {
	store    *session.Store
	registry *streaming.Registry
	defaults research.Settings
	logger   *slog.Logger
}

func NewSessionsHandler(store *session.Store, registry *streaming.Registry, defaults research.Settings, logger *slog.Logger) *SessionsHandler {
	return &SessionsHandler{store: store, registry: registry, defaults: defaults, logger: logger}
}

// List handles GET /sessions[?user_id=...].
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	var userID *string
	if v := r.URL.Query().Get("user_id"); v != "" {
		userID = &v
	}

	summaries, err := h.store.List(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, summaries)
}

// Get handles GET /sessions/{id}.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := h.store.Load(r.Context(), id)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, sess)
}

// Delete handles DELETE /sessions/{id}. An active run is cancelled first so
// deletion does not race a live checkpoint.
func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.registry.Cancel(id)

	removed, err := h.store.Delete(r.Context(), id)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"deleted": removed})
}

// Resume handles POST /sessions/{id}/resume: it loads the session and
// begins a new streaming run continuing from its last completed iteration.
func (h *SessionsHandler) Resume(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := h.store.Resume(r.Context(), id)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}

	clientID := uuid.NewString()
	rs, ch := h.registry.StartSession(sess, clientID)
	(&ResearchHandler{store: h.store, registry: h.registry, defaults: h.defaults, logger: h.logger}).stream(w, r, sess.ID, rs, clientID, ch)
}

// History handles GET /sessions/{id}/history.
func (h *SessionsHandler) History(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	records, err := h.store.History(r.Context(), id)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, records)
}

// Rollback handles POST /sessions/{id}/rollback/{n}.
func (h *SessionsHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "rollback target must be an integer")
		return
	}

	sess, rbErr := h.store.Rollback(r.Context(), id, n)
	if rbErr != nil {
		middleware.WriteError(w, h.logger, rbErr)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, RollbackResponse{Session: sess})
}
