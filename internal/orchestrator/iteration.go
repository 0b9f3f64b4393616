package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fathom/internal/domain/models/research"
	"fathom/internal/llmcap"
	"fathom/internal/prompts"
)

type urlTask struct {
	url   string
	query string
}

// taskOutcome is a fetch task's result: either a gathered summary, or a
// skip. Per-URL failures are absorbed into a skip rather than propagated.
type taskOutcome struct {
	summary *research.ContextSummary
}

// runIteration executes one full iteration body: queries from plan, fetch
// fanout bounded by the Admission Controller, judge. It returns the
// completed IterationRecord, whether the judge emitted the terminal
// sentinel, and an error only for a fatal (non-absorbed) failure — a
// plan/judge failure.
func (o *Orchestrator) runIteration(ctx context.Context, sess *research.Session, number int, emit func(Chunk)) (research.IterationRecord, bool, error) {
	record := research.IterationRecord{
		Number:    number,
		StartedAt: time.Now(),
	}

	lastPlan := ""
	if sess.Aggregated.LastPlan != nil {
		lastPlan = *sess.Aggregated.LastPlan
	}
	record.PlanConsumed = lastPlan

	queriesText, err := o.completeReasoning(ctx, sess, prompts.QueriesFromPlan, prompts.Bindings{
		Plan:                  lastPlan,
		PreviouslyUsedQueries: sess.Aggregated.Queries,
	})
	if err != nil {
		return record, false, err
	}
	if strings.Contains(queriesText, prompts.DoneSentinel) {
		// Carry lastPlan forward for the same reason as the judge's own
		// terminal path below: the checkpoint after this return persists
		// with status still running, and invariant (e) requires a non-nil
		// last_plan once any iteration exists.
		carried := lastPlan
		record.NextPlan = &carried
		record.EndedAt = time.Now()
		return record, true, nil
	}

	queries := parseBracketedList(queriesText)
	record.QueriesExecuted = queries
	for _, q := range queries {
		emit(queryChunk(q))
	}

	urls := o.collectURLs(ctx, sess, queries)

	outcomes := o.fetchAll(ctx, sess, urls)
	for _, oc := range outcomes {
		if oc.summary != nil {
			record.ContextsGathered = append(record.ContextsGathered, *oc.summary)
			emit(contextChunk(oc.summary.Summary))
		}
	}

	judgeText, err := o.completeReasoning(ctx, sess, prompts.PlanJudge, prompts.Bindings{
		Query:         sess.Query,
		PriorContexts: append(sess.Aggregated.Contexts, record.ContextsGathered...),
		PriorPlan:     lastPlan,
	})
	if err != nil {
		return record, false, err
	}

	done := strings.Contains(judgeText, prompts.DoneSentinel)
	if !done {
		next := judgeText
		record.NextPlan = &next
	} else {
		// Even on the terminal sentinel, a plan must carry forward: the
		// session is still status=running at this iteration's checkpoint
		// (the running->completed transition happens later, in Writing),
		// and invariant (e) requires last_plan once an iteration has
		// completed. Carry the plan this iteration consumed unchanged.
		carried := lastPlan
		record.NextPlan = &carried
	}

	record.EndedAt = time.Now()
	return record, done, nil
}

// collectURLs sends each query to the metasearch backend, bounded to
// max_search_results, and deduplicates by URL preserving first-seen order.
func (o *Orchestrator) collectURLs(ctx context.Context, sess *research.Session, queries []string) []urlTask {
	seen := make(map[string]struct{})
	var out []urlTask

	for _, q := range queries {
		links, err := o.search.Search(ctx, q, sess.Settings.MaxSearchResults)
		if err != nil {
			o.logger.Warn("metasearch query failed, skipping", "query", q, "error", err)
			continue
		}
		for _, l := range links {
			if _, ok := seen[l.URL]; ok {
				continue
			}
			seen[l.URL] = struct{}{}
			out = append(out, urlTask{url: l.URL, query: q})
		}
	}
	return out
}

// fetchAll submits one task per URL, bounded by the Admission Controller and
// the global fetch concurrency it enforces. Outcomes are collected in
// completion order, which is deliberately nondeterministic across runs.
func (o *Orchestrator) fetchAll(ctx context.Context, sess *research.Session, tasks []urlTask) []taskOutcome {
	if len(tasks) == 0 {
		return nil
	}

	outcomes := make([]taskOutcome, 0, len(tasks))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			outcome := o.fetchOne(gctx, sess, t)
			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (o *Orchestrator) fetchOne(ctx context.Context, sess *research.Session, t urlTask) taskOutcome {
	release, err := o.admission.Acquire(ctx, t.url)
	if err != nil {
		o.logger.Warn("admission acquire failed, skipping url", "url", t.url, "error", err)
		return taskOutcome{}
	}
	defer release()

	result, err := o.acquire.Acquire(ctx, t.url, sess.Settings.UseHostedParser)
	if err != nil {
		o.logger.Warn("page acquisition failed, skipping url", "url", t.url, "error", err)
		return taskOutcome{}
	}

	usefulText, err := o.completeDefault(ctx, sess, prompts.PageUseful, prompts.Bindings{
		Query:    t.query,
		PageText: result.Text,
	})
	if err != nil {
		o.logger.Warn("usefulness check failed, treating as not useful", "url", t.url, "error", err)
		return taskOutcome{}
	}
	if !strings.Contains(strings.ToLower(usefulText), "yes") {
		return taskOutcome{}
	}

	summaryText, err := o.completeDefault(ctx, sess, prompts.ExtractContext, prompts.Bindings{
		Query:    t.query,
		PageText: result.Text,
	})
	if err != nil {
		o.logger.Warn("context extraction failed, skipping url", "url", t.url, "error", err)
		return taskOutcome{}
	}

	return taskOutcome{summary: &research.ContextSummary{
		SourceURL:        t.url,
		OriginatingQuery: t.query,
		Summary:          summaryText,
	}}
}

func (o *Orchestrator) completeDefault(ctx context.Context, sess *research.Session, name prompts.Name, b prompts.Bindings) (string, error) {
	messages, err := prompts.Render(name, b)
	if err != nil {
		return "", err
	}
	return o.llm.Complete(ctx, messages, sess.Settings.DefaultModel, llmcap.Options{})
}

func (o *Orchestrator) completeReasoning(ctx context.Context, sess *research.Session, name prompts.Name, b prompts.Bindings) (string, error) {
	messages, err := prompts.Render(name, b)
	if err != nil {
		return "", err
	}
	opts := llmcap.Options{ReasoningEnabled: true}
	if sess.Settings.ReasonModelCtx != nil {
		opts.ContextSize = sess.Settings.ReasonModelCtx
	}
	return o.llm.Complete(ctx, messages, sess.Settings.ReasonModel, opts)
}

// parseBracketedList parses a "[a, b, c]"-shaped response into its items. A
// malformed or empty response yields no items rather than an error — an
// empty query set for the iteration is itself well-formed per the metasearch
// empty-results scenario.
func parseBracketedList(text string) []string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "[")
	text = strings.TrimSuffix(text, "]")
	if text == "" {
		return nil
	}
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"'`)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
