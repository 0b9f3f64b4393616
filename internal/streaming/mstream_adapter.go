package streaming

import (
	"context"
	"log/slog"
	"sync"

	mstream "github.com/haowjy/meridian-stream-go"

	"fathom/internal/domain/models/research"
	"fathom/internal/orchestrator"
	"fathom/internal/session"
)

// ResearchStream wraps one mstream.Stream driving a single research run. It
// owns its own subscriber fan-out: mstream supplies execution, cancellation,
// and reconnect catchup, while a client connects by subscribing to the raw
// Chunk channel and rendering it however the transport requires (SSE today).
type ResearchStream struct {
	id  string
	ms  *mstream.Stream
	log *slog.Logger

	mu     sync.Mutex
	subs   map[string]chan orchestrator.Chunk
	closed bool
}

func newResearchStream(orch *orchestrator.Orchestrator, store *session.Store, sess *research.Session, logger *slog.Logger, debugEventIDs bool) *ResearchStream {
	rs := &ResearchStream{
		id:   sess.ID,
		log:  logger,
		subs: make(map[string]chan orchestrator.Chunk),
	}
	rs.ms = mstream.NewStream(
		sess.ID,
		rs.workFunc(orch, sess),
		mstream.WithCatchup(buildCatchupFunc(store, logger)),
		mstream.WithEventIDs(debugEventIDs),
	)
	return rs
}

// workFunc drains the Orchestrator's run for sess, forwarding each Chunk to
// both the mstream event sink (for catchup bookkeeping) and this stream's
// own live subscribers.
func (rs *ResearchStream) workFunc(orch *orchestrator.Orchestrator, sess *research.Session) func(ctx context.Context, send func(mstream.Event)) error {
	return func(ctx context.Context, send func(mstream.Event)) error {
		ch := orch.Run(ctx, sess)
		seq := 0
		for c := range ch {
			rs.broadcast(c)
			send(toEvent(seq, c))
			seq++
		}
		rs.closeSubscribers()
		return nil
	}
}

// ID returns the session id this stream was created for.
func (rs *ResearchStream) ID() string { return rs.id }

// Start begins executing the wrapped run. Callers must Subscribe at least
// one listener before calling Start, or a newly created session's first
// chunk (the session-id announcement) is broadcast to no one and lost —
// Registry.StartSession enforces this ordering for every caller in this
// codebase.
func (rs *ResearchStream) Start() { rs.ms.Start() }

// Cancel requests cooperative cancellation of the underlying run.
func (rs *ResearchStream) Cancel() { rs.ms.Cancel() }

// Subscribe registers a new live listener, keyed by an opaque client id so a
// single session can be watched by more than one connection (e.g. a
// reconnect racing the original). The returned channel is closed once the
// run reaches a terminal chunk or the listener is removed, whichever first.
func (rs *ResearchStream) Subscribe(clientID string) <-chan orchestrator.Chunk {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	ch := make(chan orchestrator.Chunk, 16)
	if rs.closed {
		close(ch)
		return ch
	}
	rs.subs[clientID] = ch
	return ch
}

// Unsubscribe removes a listener registered via Subscribe. Safe to call more
// than once or for an id that was never registered.
func (rs *ResearchStream) Unsubscribe(clientID string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if ch, ok := rs.subs[clientID]; ok {
		delete(rs.subs, clientID)
		close(ch)
	}
}

func (rs *ResearchStream) broadcast(c orchestrator.Chunk) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	for id, ch := range rs.subs {
		select {
		case ch <- c:
		default:
			rs.log.Warn("subscriber channel full, dropping chunk", "session_id", rs.id, "client_id", id, "kind", c.Kind)
		}
	}
}

func (rs *ResearchStream) closeSubscribers() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	for id, ch := range rs.subs {
		close(ch)
		delete(rs.subs, id)
	}
	rs.closed = true
}
