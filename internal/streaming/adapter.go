// Package streaming converts the Orchestrator's chunk sequence into a byte
// stream, guaranteeing the session-id announcement is the first emitted
// line for a newly created session.
package streaming

import (
	"fmt"

	"fathom/internal/orchestrator"
)

// SessionIDPrefix is the well-known prefix form the first line of a new
// session's stream carries, so a client can record the id before the run
// ends.
const SessionIDPrefix = "session-id: "

// EndOfStreamSentinel terminates the byte stream.
const EndOfStreamSentinel = "[DONE]"

// Line renders one Chunk as a single text line, verbatim except for the
// session-id and terminal/error chunks, which carry their own well-known
// framing.
func Line(c orchestrator.Chunk) string {
	switch c.Kind {
	case orchestrator.ChunkSessionID:
		return SessionIDPrefix + c.Text
	case orchestrator.ChunkTerminalMarker:
		return EndOfStreamSentinel
	case orchestrator.ChunkError:
		return fmt.Sprintf("error: %v", c.Err)
	default:
		return c.Text
	}
}

// Adapt drains ch and sends each chunk's rendered line to send, one per
// flush. It stops after the terminal marker or an error chunk, matching the
// Orchestrator's guarantee that exactly one of those ends the sequence.
func Adapt(ch <-chan orchestrator.Chunk, send func(line string)) {
	for c := range ch {
		send(Line(c))
		if c.Kind == orchestrator.ChunkTerminalMarker || c.Kind == orchestrator.ChunkError {
			return
		}
	}
}
