// Package api implements the HTTP surface: the Research API (an
// OpenAI-chat-completions-shaped endpoint that drives the Orchestrator) and
// the Session API (list/get/delete/resume/history/rollback over the Session
// Store), per spec section 6.
package api

import (
	"fathom/internal/domain/models/research"
)

// MessageDTO is one wire-format message in a ResearchRequest.
type MessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResearchRequest is the body of POST /v1/chat/completions: an
// OpenAI-chat-completions-shaped request extended with the research-specific
// fields the Orchestrator needs.
type ResearchRequest struct {
	Model           string       `json:"model"`
	Messages        []MessageDTO `json:"messages"`
	Stream          bool         `json:"stream"`
	MaxIterations   int          `json:"max_iterations"`
	MaxSearchItems  int          `json:"max_search_items"`
	DefaultModel    string       `json:"default_model"`
	ReasonModel     string       `json:"reason_model"`
	ReasonModelCtx  *int         `json:"reason_model_ctx,omitempty"`
	WithPlanning    *bool        `json:"with_planning,omitempty"`
	UseHostedParser *bool        `json:"use_hosted_parser,omitempty"`
	UseLocalLLM     *bool        `json:"use_local_llm,omitempty"`
	SessionID       *string      `json:"session_id,omitempty"`
	UserID          *string      `json:"user_id,omitempty"`
}

// query returns the content of the last user-role message, the Orchestrator's
// research query.
func (r *ResearchRequest) query() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" {
			return r.Messages[i].Content
		}
	}
	return ""
}

// systemInstruction concatenates every system-role message in order.
func (r *ResearchRequest) systemInstruction() string {
	var out string
	for _, m := range r.Messages {
		if m.Role == "system" {
			if out != "" {
				out += "\n"
			}
			out += m.Content
		}
	}
	return out
}

// messageLog converts the wire messages to the Session's MessageLog.
func (r *ResearchRequest) messageLog() research.MessageLog {
	log := make(research.MessageLog, 0, len(r.Messages))
	for _, m := range r.Messages {
		log = append(log, research.Message{
			Role:        research.Role(m.Role),
			Content:     m.Content,
			ContentType: research.ContentText,
		})
	}
	return log
}

// settings merges the request's overrides onto a defaults snapshot, the way
// a fresh session's Settings is meant to be captured once at creation.
func (r *ResearchRequest) settings(defaults research.Settings) research.Settings {
	s := defaults
	if r.MaxIterations > 0 {
		s.MaxIterations = r.MaxIterations
	}
	if r.MaxSearchItems > 0 {
		s.MaxSearchResults = r.MaxSearchItems
	}
	if r.DefaultModel != "" {
		s.DefaultModel = r.DefaultModel
	}
	if r.ReasonModel != "" {
		s.ReasonModel = r.ReasonModel
	}
	if r.ReasonModelCtx != nil {
		s.ReasonModelCtx = r.ReasonModelCtx
	}
	if r.WithPlanning != nil {
		s.WithPlanning = *r.WithPlanning
	}
	if r.UseHostedParser != nil {
		s.UseHostedParser = *r.UseHostedParser
	}
	if r.UseLocalLLM != nil {
		s.UseLocalLLM = *r.UseLocalLLM
	}
	return s
}

// ResearchResponse is the non-streaming response body: a single JSON object
// carrying the final report.
type ResearchResponse struct {
	SessionID string  `json:"session_id"`
	Status    string  `json:"status"`
	Report    *string `json:"report,omitempty"`
	Error     *string `json:"error,omitempty"`
}

// RollbackResponse wraps the session returned by a rollback call.
type RollbackResponse struct {
	Session *research.Session `json:"session"`
}
