package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"fathom/internal/domain"
	"fathom/internal/domain/models/research"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveSessionBuildsFreshSessionWithoutStore(t *testing.T) {
	h := NewResearchHandler(nil, nil, research.DefaultSettings(), discardLogger())
	req := &ResearchRequest{
		Messages: []MessageDTO{
			{Role: "system", Content: "be terse"},
			{Role: "user", Content: "what is a goroutine"},
		},
	}
	r := httptest.NewRequest("POST", "/v1/chat/completions", nil)

	sess, err := h.resolveSession(r, req)
	if err != nil {
		t.Fatalf("resolveSession() error = %v", err)
	}
	if sess.ID == "" {
		t.Error("resolveSession() produced a session with no ID")
	}
	if len(sess.Messages) != 2 {
		t.Errorf("len(sess.Messages) = %d, want 2", len(sess.Messages))
	}
}

func TestResolveSessionAppliesPositiveOverrides(t *testing.T) {
	h := NewResearchHandler(nil, nil, research.DefaultSettings(), discardLogger())
	req := &ResearchRequest{
		Messages:      []MessageDTO{{Role: "user", Content: "hi"}},
		MaxIterations: 7,
	}
	r := httptest.NewRequest("POST", "/v1/chat/completions", nil)

	sess, err := h.resolveSession(r, req)
	if err != nil {
		t.Fatalf("resolveSession() error = %v", err)
	}
	if sess.Settings.MaxIterations != 7 {
		t.Errorf("Settings.MaxIterations = %d, want 7", sess.Settings.MaxIterations)
	}
}

func TestResolveSessionIgnoresNonPositiveOverride(t *testing.T) {
	h := NewResearchHandler(nil, nil, research.DefaultSettings(), discardLogger())
	req := &ResearchRequest{
		Messages:      []MessageDTO{{Role: "user", Content: "hi"}},
		MaxIterations: -1,
	}
	r := httptest.NewRequest("POST", "/v1/chat/completions", nil)

	sess, err := h.resolveSession(r, req)
	if err != nil {
		t.Fatalf("resolveSession() error = %v", err)
	}
	if sess.Settings.MaxIterations != research.DefaultSettings().MaxIterations {
		t.Errorf("Settings.MaxIterations = %d, want default to survive a non-positive override", sess.Settings.MaxIterations)
	}
}

func TestResolveSessionWithEmptySessionIDBuildsFreshSession(t *testing.T) {
	h := NewResearchHandler(nil, nil, research.DefaultSettings(), discardLogger())
	empty := ""
	req := &ResearchRequest{
		SessionID: &empty,
		Messages:  []MessageDTO{{Role: "user", Content: "hi"}},
	}
	r := httptest.NewRequest("POST", "/v1/chat/completions", nil)

	sess, err := h.resolveSession(r, req)
	if err != nil {
		t.Fatalf("resolveSession() error = %v", err)
	}
	if sess.ID == "" {
		t.Error("resolveSession() produced a session with no ID")
	}
}

func TestResolveSessionValidationErrorIsWrapped(t *testing.T) {
	h := NewResearchHandler(nil, nil, research.Settings{}, discardLogger())
	req := &ResearchRequest{Messages: []MessageDTO{{Role: "user", Content: "hi"}}}
	r := httptest.NewRequest("POST", "/v1/chat/completions", nil)

	_, err := h.resolveSession(r, req)
	if err == nil {
		t.Fatal("resolveSession() expected error for empty defaults with no DefaultModel")
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("resolveSession() error = %v, want it to wrap domain.ErrValidation", err)
	}
}
