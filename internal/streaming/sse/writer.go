package sse

import (
	"fmt"
	"net/http"
)

// KeepAliveWriterImpl implements KeepAliveWriter for SSE connections,
// writing SSE comment lines to keep the connection alive.
type KeepAliveWriterImpl struct {
	w        http.ResponseWriter
	flusher  http.Flusher
	sessionID string
}

func NewKeepAliveWriter(w http.ResponseWriter, flusher http.Flusher, sessionID string) *KeepAliveWriterImpl {
	return &KeepAliveWriterImpl{w: w, flusher: flusher, sessionID: sessionID}
}

// WriteKeepAlive writes an SSE comment (": keepalive\n\n") and flushes.
// Lines starting with ':' are comments per the SSE spec and are ignored by
// clients. A zero-byte write afterward doubles as a closed-connection
// health check.
func (s *KeepAliveWriterImpl) WriteKeepAlive() error {
	if _, err := fmt.Fprintf(s.w, ": keepalive\n\n"); err != nil {
		return fmt.Errorf("write keepalive failed: %w", err)
	}
	s.flusher.Flush()

	if _, err := s.w.Write([]byte{}); err != nil {
		return fmt.Errorf("connection closed: %w", err)
	}
	return nil
}

// WriteLine writes one data line in SSE "data: ..." framing and flushes.
func WriteLine(w http.ResponseWriter, flusher http.Flusher, line string) error {
	if _, err := fmt.Fprintf(w, "data: %s\n\n", line); err != nil {
		return fmt.Errorf("write line failed: %w", err)
	}
	flusher.Flush()
	return nil
}
