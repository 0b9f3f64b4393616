package streaming

import (
	"encoding/json"
	"fmt"

	mstream "github.com/haowjy/meridian-stream-go"

	"fathom/internal/orchestrator"
)

// eventType maps a Chunk's kind to the wire event-type string a client
// dispatches on, matching the SSE event vocabulary described for clients.
func eventType(kind orchestrator.ChunkKind) string {
	return string(kind)
}

// chunkData is the JSON payload carried by every event; for an error chunk
// Text holds the error's message.
type chunkData struct {
	Text string `json:"text,omitempty"`
}

// toEvent renders one Chunk as an mstream.Event, tagging it with a
// reconnect-stable sequence id so a client's Last-Event-ID can resume after a
// dropped connection.
func toEvent(seq int, c orchestrator.Chunk) mstream.Event {
	var payload []byte
	if c.Kind == orchestrator.ChunkError {
		msg := ""
		if c.Err != nil {
			msg = c.Err.Error()
		}
		payload, _ = json.Marshal(chunkData{Text: msg})
	} else {
		payload, _ = json.Marshal(chunkData{Text: c.Text})
	}
	return mstream.NewEvent(payload).
		WithType(eventType(c.Kind)).
		WithID(fmt.Sprintf("event-%d", seq))
}
