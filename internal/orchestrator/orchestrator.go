// Package orchestrator implements the iteration state machine driving a
// research run: plan → search → fetch → judge → repeat → write, emitting a
// lazy, finite sequence of output chunks and checkpointing to the Session
// Store at each iteration boundary.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fathom/internal/acquisition"
	"fathom/internal/admission"
	"fathom/internal/domain"
	"fathom/internal/domain/models/research"
	"fathom/internal/llmcap"
	"fathom/internal/metasearch"
	"fathom/internal/prompts"
	"fathom/internal/session"
)

// Orchestrator drives the research state machine for one session at a time;
// it holds no per-run state itself — each Run call owns its own Session and
// cancellation scope.
type Orchestrator struct {
	store     *session.Store
	llm       *llmcap.Capability
	search    metasearch.Client
	acquire   *acquisition.Pipeline
	admission *admission.Controller
	logger    *slog.Logger
	cancels   *CancelRegistry
}

func New(store *session.Store, llm *llmcap.Capability, search metasearch.Client, acquire *acquisition.Pipeline, adm *admission.Controller, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		llm:       llm,
		search:    search,
		acquire:   acquire,
		admission: adm,
		logger:    logger,
		cancels:   NewCancelRegistry(),
	}
}

// Cancel requests cooperative cancellation of a session's active run.
func (o *Orchestrator) Cancel(sessionID string) {
	o.cancels.Cancel(sessionID)
}

// Run drives sess through the state machine and returns a channel of
// output chunks. The channel is closed after the terminal marker or error
// chunk is sent. The caller owns ctx's lifetime; Run additionally derives a
// cancellable child context registered so Cancel(sess.ID) can stop the run.
func (o *Orchestrator) Run(ctx context.Context, sess *research.Session) <-chan Chunk {
	runCtx, cancel := context.WithCancel(ctx)
	o.cancels.register(sess.ID, cancel)

	out := make(chan Chunk, 8)
	go func() {
		defer close(out)
		defer cancel()
		defer o.cancels.unregister(sess.ID)
		o.drive(runCtx, sess, out)
	}()
	return out
}

func (o *Orchestrator) drive(ctx context.Context, sess *research.Session, out chan<- Chunk) {
	isNew := len(sess.Iterations) == 0 && sess.Status == research.StatusRunning
	if isNew {
		out <- sessionIDChunk(sess.ID)
	}

	startN := sess.Aggregated.LastCompletedIteration

	if startN == 0 && sess.Settings.WithPlanning {
		out <- statusChunk("planning")
		plan, err := o.initialPlan(ctx, sess)
		if err != nil {
			o.fail(ctx, sess, out, err)
			return
		}
		sess.Aggregated.LastPlan = &plan
		out <- planChunk(plan)
	}

	for n := startN + 1; ; n++ {
		if err := ctx.Err(); err != nil {
			o.interrupt(ctx, sess, out)
			return
		}

		if n > sess.Settings.MaxIterations {
			break
		}

		out <- statusChunk(fmt.Sprintf("iteration %d", n))

		record, done, err := o.runIteration(ctx, sess, n, func(c Chunk) { out <- c })
		if err != nil {
			if errors.Is(err, context.Canceled) {
				o.interrupt(ctx, sess, out)
				return
			}
			o.fail(ctx, sess, out, fmt.Errorf("%w: iteration %d: %v", domain.ErrRetryExhausted, n, err))
			return
		}

		if ctx.Err() != nil {
			o.interrupt(ctx, sess, out)
			return
		}

		sess.Iterations = append(sess.Iterations, record)
		sess.Aggregated = research.Recompute(sess.Iterations)

		if err := o.store.Save(ctx, sess); err != nil {
			o.fail(ctx, sess, out, fmt.Errorf("checkpoint: %w", err))
			return
		}

		if done {
			break
		}
	}

	out <- statusChunk("writing")
	if err := o.write(ctx, sess, out); err != nil {
		o.fail(ctx, sess, out, err)
		return
	}

	now := time.Now()
	sess.Status = research.StatusCompleted
	sess.EndedAt = &now
	if err := o.store.Save(ctx, sess); err != nil {
		o.fail(ctx, sess, out, fmt.Errorf("checkpoint: %w", err))
		return
	}

	out <- terminalChunk()
}

func (o *Orchestrator) initialPlan(ctx context.Context, sess *research.Session) (string, error) {
	messages, err := prompts.Render(prompts.PlanInitial, prompts.Bindings{Query: sess.Query})
	if err != nil {
		return "", err
	}
	return o.llm.Complete(ctx, messages, sess.Settings.ReasonModel, llmcap.Options{ReasoningEnabled: true})
}

func (o *Orchestrator) write(ctx context.Context, sess *research.Session, out chan<- Chunk) error {
	planMessages, err := prompts.Render(prompts.WritingPlan, prompts.Bindings{
		Query:              sess.Query,
		AggregatedContexts: sess.Aggregated.Contexts,
	})
	if err != nil {
		return err
	}
	writingPlan, err := o.llm.Complete(ctx, planMessages, sess.Settings.ReasonModel, llmcap.Options{ReasoningEnabled: true})
	if err != nil {
		return fmt.Errorf("writing plan: %w", err)
	}

	reportMessages, err := prompts.Render(prompts.FinalReport, prompts.Bindings{
		Query:              sess.Query,
		WritingPlanText:    writingPlan,
		AggregatedContexts: sess.Aggregated.Contexts,
	})
	if err != nil {
		return err
	}
	report, err := o.llm.Complete(ctx, reportMessages, sess.Settings.ReasonModel, llmcap.Options{ReasoningEnabled: true})
	if err != nil {
		return fmt.Errorf("final report: %w", err)
	}

	if len(sess.Aggregated.Contexts) == 0 && report == "" {
		report = "No evidence was retrieved during this research run."
	}

	sess.FinalReport = &report
	out <- reportChunk(report)
	return nil
}

// interrupt persists the session as interrupted, discarding any partial
// iteration that had not yet been appended, and is idempotent: calling it
// more than once for the same session leaves the same interrupted state.
func (o *Orchestrator) interrupt(ctx context.Context, sess *research.Session, out chan<- Chunk) {
	sess.Status = research.StatusInterrupted
	sess.EndedAt = nil

	saveCtx := context.Background()
	if err := o.store.Save(saveCtx, sess); err != nil {
		o.logger.Error("failed to checkpoint interrupted session", "session_id", sess.ID, "error", err)
	}
	out <- statusChunk("interrupted")
	out <- terminalChunk()
}

func (o *Orchestrator) fail(ctx context.Context, sess *research.Session, out chan<- Chunk, cause error) {
	msg := cause.Error()
	sess.Status = research.StatusError
	sess.ErrorMessage = &msg

	saveCtx := context.Background()
	if err := o.store.Save(saveCtx, sess); err != nil {
		o.logger.Error("failed to checkpoint failed session", "session_id", sess.ID, "error", err)
	}
	out <- errorChunk(cause)
}
