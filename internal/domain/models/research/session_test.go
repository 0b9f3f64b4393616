package research

import (
	"errors"
	"testing"
	"time"

	"fathom/internal/domain"
)

func ptrString(s string) *string { return &s }

func TestRecompute(t *testing.T) {
	iterations := []IterationRecord{
		{
			Number:          1,
			QueriesExecuted: []string{"q1", "q2"},
			ContextsGathered: []ContextSummary{
				{SourceURL: "https://a.example", OriginatingQuery: "q1", Summary: "a"},
			},
			NextPlan: ptrString("plan after 1"),
		},
		{
			Number:          2,
			QueriesExecuted: []string{"q2", "q3"},
			ContextsGathered: []ContextSummary{
				{SourceURL: "https://b.example", OriginatingQuery: "q3", Summary: "b"},
			},
			NextPlan: ptrString("plan after 2"),
		},
	}

	got := Recompute(iterations)

	wantQueries := []string{"q1", "q2", "q3"}
	if len(got.Queries) != len(wantQueries) {
		t.Fatalf("Queries = %v, want %v", got.Queries, wantQueries)
	}
	for i, q := range wantQueries {
		if got.Queries[i] != q {
			t.Errorf("Queries[%d] = %q, want %q", i, got.Queries[i], q)
		}
	}

	if len(got.Contexts) != 2 {
		t.Errorf("Contexts has %d entries, want 2", len(got.Contexts))
	}
	if got.LastPlan == nil || *got.LastPlan != "plan after 2" {
		t.Errorf("LastPlan = %v, want %q", got.LastPlan, "plan after 2")
	}
	if got.LastCompletedIteration != 2 {
		t.Errorf("LastCompletedIteration = %d, want 2", got.LastCompletedIteration)
	}
}

func TestRecomputeEmpty(t *testing.T) {
	got := Recompute(nil)
	if len(got.Queries) != 0 || len(got.Contexts) != 0 || got.LastPlan != nil || got.LastCompletedIteration != 0 {
		t.Errorf("Recompute(nil) = %+v, want zero value", got)
	}
}

func baseValidSession() *Session {
	return &Session{
		ID:     "s1",
		Status: StatusRunning,
	}
}

func TestCheckInvariants(t *testing.T) {
	tests := []struct {
		name    string
		session *Session
		wantErr bool
	}{
		{
			name:    "fresh running session with no iterations is valid",
			session: baseValidSession(),
			wantErr: false,
		},
		{
			name: "non-dense iteration numbers",
			session: func() *Session {
				s := baseValidSession()
				s.Iterations = []IterationRecord{{Number: 1}, {Number: 3}}
				s.Aggregated = AggregatedState{LastCompletedIteration: 3, LastPlan: ptrString("p")}
				return s
			}(),
			wantErr: true,
		},
		{
			name: "last_completed_iteration mismatch",
			session: func() *Session {
				s := baseValidSession()
				s.Iterations = []IterationRecord{{Number: 1}}
				s.Aggregated = AggregatedState{LastCompletedIteration: 0, LastPlan: ptrString("p")}
				return s
			}(),
			wantErr: true,
		},
		{
			name: "completed without final report",
			session: func() *Session {
				s := baseValidSession()
				s.Status = StatusCompleted
				now := time.Now()
				s.EndedAt = &now
				return s
			}(),
			wantErr: true,
		},
		{
			name: "completed without end time",
			session: func() *Session {
				s := baseValidSession()
				s.Status = StatusCompleted
				s.FinalReport = ptrString("report")
				return s
			}(),
			wantErr: true,
		},
		{
			name: "completed with report and end time is valid",
			session: func() *Session {
				s := baseValidSession()
				s.Status = StatusCompleted
				s.FinalReport = ptrString("report")
				now := time.Now()
				s.EndedAt = &now
				return s
			}(),
			wantErr: false,
		},
		{
			name: "error status without error message",
			session: func() *Session {
				s := baseValidSession()
				s.Status = StatusError
				return s
			}(),
			wantErr: true,
		},
		{
			name: "running with completed iterations missing last_plan",
			session: func() *Session {
				s := baseValidSession()
				s.Iterations = []IterationRecord{{Number: 1}}
				s.Aggregated = AggregatedState{LastCompletedIteration: 1}
				return s
			}(),
			wantErr: true,
		},
		{
			name: "context summary query not aggregated",
			session: func() *Session {
				s := baseValidSession()
				s.Iterations = []IterationRecord{{
					Number:          1,
					QueriesExecuted: []string{"q1"},
					ContextsGathered: []ContextSummary{
						{SourceURL: "https://a.example", OriginatingQuery: "q-unknown"},
					},
				}}
				s.Aggregated = AggregatedState{Queries: []string{"q1"}, LastCompletedIteration: 1, LastPlan: ptrString("p")}
				return s
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.CheckInvariants()
			if tt.wantErr && err == nil {
				t.Fatalf("CheckInvariants() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("CheckInvariants() = %v, want nil", err)
			}
			if tt.wantErr && !errors.Is(err, domain.ErrInvariant) {
				t.Errorf("CheckInvariants() error = %v, want wrapping domain.ErrInvariant", err)
			}
		})
	}
}

func TestNewSessionAndToSummary(t *testing.T) {
	settings := DefaultSettings()
	sess := NewSession("what is the weather", "be concise", nil, settings)

	if sess.ID == "" {
		t.Error("NewSession() produced empty ID")
	}
	if sess.Status != StatusRunning {
		t.Errorf("Status = %v, want %v", sess.Status, StatusRunning)
	}
	if sess.Query != "what is the weather" {
		t.Errorf("Query = %q, want %q", sess.Query, "what is the weather")
	}

	summary := sess.ToSummary()
	if summary.ID != sess.ID || summary.UserQuery != sess.Query || summary.Status != sess.Status {
		t.Errorf("ToSummary() = %+v, inconsistent with source session", summary)
	}
}
