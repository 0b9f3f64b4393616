package streaming

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	mstream "github.com/haowjy/meridian-stream-go"

	"fathom/internal/orchestrator"
	"fathom/internal/session"
)

// buildCatchupFunc returns a mstream.CatchupFunc that reconstructs the
// events a reconnecting client missed from the Session Store's persisted
// state, rather than from an in-memory event log: a checkpointed session
// already carries everything a client needs to catch up.
func buildCatchupFunc(store *session.Store, logger *slog.Logger) mstream.CatchupFunc {
	return func(streamID string, lastEventID string) ([]mstream.Event, error) {
		ctx := context.Background()
		sess, err := store.Load(ctx, streamID)
		if err != nil {
			logger.Warn("catchup: failed to load session", "session_id", streamID, "error", err)
			return nil, fmt.Errorf("load session for catchup: %w", err)
		}

		var events []mstream.Event
		seq := 0
		push := func(c orchestrator.Chunk) {
			events = append(events, toEvent(seq, c))
			seq++
		}

		push(orchestrator.Chunk{Kind: orchestrator.ChunkSessionID, Text: sess.ID})
		if sess.Aggregated.LastPlan != nil {
			push(orchestrator.Chunk{Kind: orchestrator.ChunkPlanText, Text: *sess.Aggregated.LastPlan})
		}
		for _, it := range sess.Iterations {
			for _, q := range it.QueriesExecuted {
				push(orchestrator.Chunk{Kind: orchestrator.ChunkQueryLine, Text: q})
			}
			for _, cs := range it.ContextsGathered {
				push(orchestrator.Chunk{Kind: orchestrator.ChunkContextSummary, Text: cs.Summary})
			}
		}
		if sess.FinalReport != nil {
			push(orchestrator.Chunk{Kind: orchestrator.ChunkReportFragment, Text: *sess.FinalReport})
		}

		if lastEventID != "" {
			events = filterEventsAfter(events, lastEventID, logger)
		}
		return events, nil
	}
}

// filterEventsAfter keeps only events whose sequence comes strictly after
// lastEventID, which is of the form "event-N".
func filterEventsAfter(events []mstream.Event, lastEventID string, logger *slog.Logger) []mstream.Event {
	lastSeq := parseEventSeq(lastEventID)
	if lastSeq < 0 {
		logger.Warn("catchup: invalid last event id, replaying everything", "last_event_id", lastEventID)
		return events
	}
	var filtered []mstream.Event
	for _, e := range events {
		if parseEventSeq(e.ID) > lastSeq {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func parseEventSeq(id string) int {
	const prefix = "event-"
	if !strings.HasPrefix(id, prefix) {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
	if err != nil {
		return -1
	}
	return n
}
