package research

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"fathom/internal/domain"
)

// Status is the lifecycle state of a Session as persisted in the Session
// Store. It is a coarser projection of the Orchestrator's in-memory state
// machine (Init/Planning/Iterating/Writing collapse to "running").
type Status string

const (
	StatusRunning     Status = "running"
	StatusCompleted   Status = "completed"
	StatusInterrupted Status = "interrupted"
	StatusError       Status = "error"
)

// ContextSummary is one page's LLM-produced condensation relative to the
// query that surfaced it.
type ContextSummary struct {
	SourceURL        string `json:"source_url"`
	OriginatingQuery string `json:"originating_query"`
	Summary          string `json:"summary"`
}

// IterationRecord captures everything that happened during one
// planning-to-judgement cycle.
type IterationRecord struct {
	Number          int              `json:"number"`
	StartedAt       time.Time        `json:"started_at"`
	EndedAt         time.Time        `json:"ended_at"`
	PlanConsumed    string           `json:"plan_consumed"`
	QueriesExecuted []string         `json:"queries_executed"`
	ContextsGathered []ContextSummary `json:"contexts_gathered"`
	NextPlan        *string          `json:"next_plan"`
}

// AggregatedState is the running union across completed iterations. It is
// always a derived projection recomputed from Session.Iterations — never an
// independently mutated field — so rollback can recompute it deterministically
// instead of having to reconcile stale cross-references.
type AggregatedState struct {
	Queries               []string         `json:"queries"`
	Contexts              []ContextSummary `json:"contexts"`
	LastPlan              *string          `json:"last_plan"`
	LastCompletedIteration int             `json:"last_completed_iteration"`
}

// Recompute derives an AggregatedState from a session's iteration list,
// preserving first-seen order for queries as spec requires.
func Recompute(iterations []IterationRecord) AggregatedState {
	agg := AggregatedState{}
	seen := make(map[string]struct{})
	for _, it := range iterations {
		for _, q := range it.QueriesExecuted {
			if _, ok := seen[q]; !ok {
				seen[q] = struct{}{}
				agg.Queries = append(agg.Queries, q)
			}
		}
		agg.Contexts = append(agg.Contexts, it.ContextsGathered...)
		if it.NextPlan != nil {
			agg.LastPlan = it.NextPlan
		}
		if it.Number > agg.LastCompletedIteration {
			agg.LastCompletedIteration = it.Number
		}
	}
	return agg
}

// ValidationDigest is the content digest of a persisted Session, stored
// alongside it to detect silent corruption on load.
type ValidationDigest string

// Session is the full persistent record of one research run.
type Session struct {
	ID          string          `json:"id"`
	UserID      *string         `json:"user_id,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	EndedAt     *time.Time      `json:"ended_at,omitempty"`
	Status      Status          `json:"status"`
	Query       string          `json:"query"`
	SystemInstruction string    `json:"system_instruction"`
	Settings    Settings        `json:"settings"`
	Messages    MessageLog      `json:"messages"`
	Iterations  []IterationRecord `json:"iterations"`
	Aggregated  AggregatedState `json:"aggregated"`
	FinalReport *string         `json:"final_report"`
	ErrorMessage *string        `json:"error_message"`
}

// NewSession creates a fresh, running session with a new opaque id.
func NewSession(query, systemInstruction string, userID *string, settings Settings) *Session {
	return &Session{
		ID:                uuid.NewString(),
		UserID:            userID,
		StartedAt:         time.Now(),
		Status:            StatusRunning,
		Query:             query,
		SystemInstruction: systemInstruction,
		Settings:          settings,
		Aggregated:        AggregatedState{},
	}
}

// Summary is the projection Session Store.list returns per session.
type Summary struct {
	ID               string    `json:"id"`
	UserQuery        string    `json:"user_query"`
	Status           Status    `json:"status"`
	StartedAt        time.Time `json:"started_at"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
	CurrentIteration int       `json:"current_iteration"`
}

func (s *Session) ToSummary() Summary {
	return Summary{
		ID:               s.ID,
		UserQuery:        s.Query,
		Status:           s.Status,
		StartedAt:        s.StartedAt,
		EndedAt:          s.EndedAt,
		CurrentIteration: s.Aggregated.LastCompletedIteration,
	}
}

// CheckInvariants validates Session data-model invariants (a)-(f) from the
// data model section. It is called after every mutation that changes
// iterations or status, never silently skipped.
func (s *Session) CheckInvariants() error {
	// (a) iteration numbers dense and strictly increasing from 1.
	for i, it := range s.Iterations {
		if it.Number != i+1 {
			return fmt.Errorf("%w: iteration numbers not dense/increasing at index %d (got %d)", domain.ErrInvariant, i, it.Number)
		}
	}

	// (b) AggregatedState.last_completed_iteration equals highest iteration number.
	want := 0
	if len(s.Iterations) > 0 {
		want = s.Iterations[len(s.Iterations)-1].Number
	}
	if s.Aggregated.LastCompletedIteration != want {
		return fmt.Errorf("%w: last_completed_iteration=%d, want %d", domain.ErrInvariant, s.Aggregated.LastCompletedIteration, want)
	}

	// (c) status=completed => final report non-null and end-time set.
	if s.Status == StatusCompleted {
		if s.FinalReport == nil {
			return fmt.Errorf("%w: completed session missing final report", domain.ErrInvariant)
		}
		if s.EndedAt == nil {
			return fmt.Errorf("%w: completed session missing end time", domain.ErrInvariant)
		}
	}

	// (d) status=error => error message non-null.
	if s.Status == StatusError && s.ErrorMessage == nil {
		return fmt.Errorf("%w: error session missing error message", domain.ErrInvariant)
	}

	// (e) running/interrupted sessions must have last_plan unless no
	// iteration has completed yet.
	if (s.Status == StatusRunning || s.Status == StatusInterrupted) && len(s.Iterations) > 0 {
		if s.Aggregated.LastPlan == nil {
			return fmt.Errorf("%w: %s session with completed iterations missing last_plan", domain.ErrInvariant, s.Status)
		}
	}

	// (f) every context summary's originating query appears in AggregatedState.queries.
	known := make(map[string]struct{}, len(s.Aggregated.Queries))
	for _, q := range s.Aggregated.Queries {
		known[q] = struct{}{}
	}
	for _, it := range s.Iterations {
		for _, cs := range it.ContextsGathered {
			if _, ok := known[cs.OriginatingQuery]; !ok {
				return fmt.Errorf("%w: context summary query %q not in AggregatedState.queries", domain.ErrInvariant, cs.OriginatingQuery)
			}
		}
	}

	return nil
}
