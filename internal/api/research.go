package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"fathom/internal/domain"
	"fathom/internal/domain/models/research"
	"fathom/internal/httputil"
	"fathom/internal/middleware"
	"fathom/internal/orchestrator"
	"fathom/internal/session"
	"fathom/internal/streaming"
	"fathom/internal/streaming/sse"
)

// ResearchHandler serves the Research API: one OpenAI-chat-completions-shaped
// endpoint that creates or resumes a session and drives it through the
// Orchestrator, either streamed via SSE or collected into a single JSON
// response.
type ResearchHandler struct {
	store    *session.Store
	registry *streaming.Registry
	defaults research.Settings
	logger   *slog.Logger
}

func NewResearchHandler(store *session.Store, registry *streaming.Registry, defaults research.Settings, logger *slog.Logger) *ResearchHandler {
	return &ResearchHandler{store: store, registry: registry, defaults: defaults, logger: logger}
}

// Create handles POST /v1/chat/completions: when session_id is present it
// resumes that session, otherwise it creates a fresh one. When stream=true
// the first streamed line is always the session-id announcement, so a
// client can record a newly created id before the run ends.
func (h *ResearchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ResearchRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess, err := h.resolveSession(r, &req)
	if err != nil {
		middleware.WriteError(w, h.logger, err)
		return
	}

	clientID := uuid.NewString()
	rs, ch := h.registry.StartSession(sess, clientID)

	if req.Stream {
		h.stream(w, r, sess.ID, rs, clientID, ch)
		return
	}
	h.collect(w, r, sess, rs, clientID, ch)
}

func (h *ResearchHandler) resolveSession(r *http.Request, req *ResearchRequest) (*research.Session, error) {
	if req.SessionID != nil && *req.SessionID != "" {
		return h.store.Resume(r.Context(), *req.SessionID)
	}

	settings := req.settings(h.defaults)
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	sess := research.NewSession(req.query(), req.systemInstruction(), req.UserID, settings)
	sess.Messages = req.messageLog()
	return sess, nil
}

// stream drains rs over Server-Sent Events, guaranteeing the session-id
// announcement is the connection's first line. clientID and ch must be the
// pair Registry.StartSession returned, already subscribed before the run
// started.
func (h *ResearchHandler) stream(w http.ResponseWriter, r *http.Request, sessionID string, rs *streaming.ResearchStream, clientID string, ch <-chan orchestrator.Chunk) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.RespondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	defer rs.Unsubscribe(clientID)

	keepAlive := sse.NewTickerKeepAlive(sse.DefaultConfig().KeepAliveInterval)
	defer keepAlive.Stop()
	done := keepAlive.Start(sse.NewKeepAliveWriter(w, flusher, sessionID), h.logger)

	for {
		select {
		case c, ok := <-ch:
			if !ok {
				return
			}
			if err := sse.WriteLine(w, flusher, streaming.Line(c)); err != nil {
				h.logger.Warn("sse write failed, client likely disconnected", "session_id", sessionID, "error", err)
				h.registry.Cancel(sessionID)
				return
			}
			if c.Kind == orchestrator.ChunkTerminalMarker || c.Kind == orchestrator.ChunkError {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			h.registry.Cancel(sessionID)
			return
		}
	}
}

// collect drains rs to completion in-process and returns a single JSON
// response carrying the final report, per stream=false. clientID and ch must
// be the pair Registry.StartSession returned, already subscribed before the
// run started.
func (h *ResearchHandler) collect(w http.ResponseWriter, r *http.Request, sess *research.Session, rs *streaming.ResearchStream, clientID string, ch <-chan orchestrator.Chunk) {
	defer rs.Unsubscribe(clientID)

	resp := ResearchResponse{SessionID: sess.ID, Status: string(research.StatusRunning)}

	for {
		select {
		case c, ok := <-ch:
			if !ok {
				httputil.RespondJSON(w, http.StatusOK, resp)
				return
			}
			switch c.Kind {
			case orchestrator.ChunkReportFragment:
				text := c.Text
				resp.Report = &text
				resp.Status = string(research.StatusCompleted)
			case orchestrator.ChunkError:
				msg := c.Err.Error()
				resp.Error = &msg
				resp.Status = string(research.StatusError)
			case orchestrator.ChunkTerminalMarker:
				httputil.RespondJSON(w, http.StatusOK, resp)
				return
			}
		case <-r.Context().Done():
			h.registry.Cancel(sess.ID)
			return
		case <-time.After(30 * time.Minute):
			h.registry.Cancel(sess.ID)
			httputil.RespondError(w, http.StatusGatewayTimeout, "research run exceeded its time budget")
			return
		}
	}
}
