package api

import (
	"log/slog"
	"net/http"

	"fathom/internal/domain/models/research"
	"fathom/internal/httputil"
	"fathom/internal/middleware"
	"fathom/internal/session"
	"fathom/internal/streaming"
)

// NewRouter wires the Research API and Session API handlers onto a
// net/http.ServeMux, wrapped with panic recovery.
func NewRouter(store *session.Store, registry *streaming.Registry, defaults research.Settings, logger *slog.Logger) http.Handler {
	researchHandler := NewResearchHandler(store, registry, defaults, logger)
	sessions := NewSessionsHandler(store, registry, defaults, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /v1/chat/completions", researchHandler.Create)

	mux.HandleFunc("GET /sessions", sessions.List)
	mux.HandleFunc("GET /sessions/{id}", sessions.Get)
	mux.HandleFunc("DELETE /sessions/{id}", sessions.Delete)
	mux.HandleFunc("POST /sessions/{id}/resume", sessions.Resume)
	mux.HandleFunc("GET /sessions/{id}/history", sessions.History)
	mux.HandleFunc("POST /sessions/{id}/rollback/{n}", sessions.Rollback)

	return middleware.Recovery(logger)(mux)
}
