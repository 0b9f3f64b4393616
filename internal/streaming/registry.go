package streaming

import (
	"log/slog"
	"sync"

	mstream "github.com/haowjy/meridian-stream-go"

	"fathom/internal/domain/models/research"
	"fathom/internal/orchestrator"
	"fathom/internal/session"
)

// Registry tracks one ResearchStream per in-flight session, alongside the
// mstream.Registry that owns cancellation for the streams it wraps. A
// session dropped from both maps is simply forgotten: the Session Store, not
// this registry, is the durable record.
type Registry struct {
	inner *mstream.Registry

	mu            sync.Mutex
	streams       map[string]*ResearchStream
	orch          *orchestrator.Orchestrator
	store         *session.Store
	logger        *slog.Logger
	debugEventIDs bool
}

func NewRegistry(orch *orchestrator.Orchestrator, store *session.Store, logger *slog.Logger, debugEventIDs bool) *Registry {
	return &Registry{
		inner:         mstream.NewRegistry(),
		streams:       make(map[string]*ResearchStream),
		orch:          orch,
		store:         store,
		logger:        logger,
		debugEventIDs: debugEventIDs,
	}
}

// StartSession creates and registers a ResearchStream for sess, subscribes
// clientID to it, and only then starts the run. The run's first chunk for a
// newly created session is the session-id announcement emitted as literally
// its first action (orchestrator.drive), so clientID must be subscribed
// before Start or that chunk is broadcast to an empty subscriber map and
// lost forever. Callers must use the returned channel as their subscription
// rather than calling Subscribe themselves.
func (r *Registry) StartSession(sess *research.Session, clientID string) (*ResearchStream, <-chan orchestrator.Chunk) {
	rs := newResearchStream(r.orch, r.store, sess, r.logger, r.debugEventIDs)

	r.mu.Lock()
	r.streams[sess.ID] = rs
	r.mu.Unlock()

	r.inner.Register(rs.ms)
	ch := rs.Subscribe(clientID)
	rs.Start()
	return rs, ch
}

// Get returns the ResearchStream registered for a session id, or nil if none
// was started on this process. A stream stays registered after its run
// finishes until Remove is called for it.
func (r *Registry) Get(sessionID string) *ResearchStream {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.streams[sessionID]
}

// Cancel requests cooperative cancellation of a session's active run, a
// no-op if no run is active.
func (r *Registry) Cancel(sessionID string) {
	if rs := r.Get(sessionID); rs != nil {
		rs.Cancel()
	}
}

// Remove forgets a finished session's stream so the registry does not grow
// without bound.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.streams, sessionID)
}
