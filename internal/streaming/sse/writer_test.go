package sse

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestKeepAliveWriterImplWritesCommentLine(t *testing.T) {
	w := httptest.NewRecorder()
	kw := NewKeepAliveWriter(w, w, "session-1")

	if err := kw.WriteKeepAlive(); err != nil {
		t.Fatalf("WriteKeepAlive() error = %v", err)
	}
	if !strings.Contains(w.Body.String(), ": keepalive") {
		t.Errorf("body = %q, want it to contain a keepalive comment", w.Body.String())
	}
}

func TestWriteLineFramesAsSSEData(t *testing.T) {
	w := httptest.NewRecorder()
	if err := WriteLine(w, w, `{"event":"chunk"}`); err != nil {
		t.Fatalf("WriteLine() error = %v", err)
	}
	if w.Body.String() != "data: {\"event\":\"chunk\"}\n\n" {
		t.Errorf("body = %q", w.Body.String())
	}
}
