package streaming

import (
	"errors"
	"testing"

	"fathom/internal/orchestrator"
)

func TestLineRendersWellKnownKinds(t *testing.T) {
	tests := []struct {
		name  string
		chunk orchestrator.Chunk
		want  string
	}{
		{"session id", orchestrator.Chunk{Kind: orchestrator.ChunkSessionID, Text: "sess-1"}, "session-id: sess-1"},
		{"terminal marker", orchestrator.Chunk{Kind: orchestrator.ChunkTerminalMarker}, "[DONE]"},
		{"error", orchestrator.Chunk{Kind: orchestrator.ChunkError, Err: errors.New("boom")}, "error: boom"},
		{"plain text passthrough", orchestrator.Chunk{Kind: orchestrator.ChunkPlanText, Text: "plan body"}, "plan body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Line(tt.chunk); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAdaptStopsAtTerminalMarker(t *testing.T) {
	ch := make(chan orchestrator.Chunk, 4)
	ch <- orchestrator.Chunk{Kind: orchestrator.ChunkStatusLine, Text: "working"}
	ch <- orchestrator.Chunk{Kind: orchestrator.ChunkTerminalMarker}
	ch <- orchestrator.Chunk{Kind: orchestrator.ChunkStatusLine, Text: "should not be sent"}
	close(ch)

	var lines []string
	Adapt(ch, func(line string) { lines = append(lines, line) })

	if len(lines) != 2 {
		t.Fatalf("Adapt() sent %d lines, want 2", len(lines))
	}
	if lines[1] != EndOfStreamSentinel {
		t.Errorf("lines[1] = %q, want terminal sentinel", lines[1])
	}
}

func TestAdaptStopsAtErrorChunk(t *testing.T) {
	ch := make(chan orchestrator.Chunk, 2)
	ch <- orchestrator.Chunk{Kind: orchestrator.ChunkError, Err: errors.New("fail")}
	ch <- orchestrator.Chunk{Kind: orchestrator.ChunkStatusLine, Text: "unreachable"}
	close(ch)

	var lines []string
	Adapt(ch, func(line string) { lines = append(lines, line) })

	if len(lines) != 1 {
		t.Fatalf("Adapt() sent %d lines, want 1", len(lines))
	}
}
