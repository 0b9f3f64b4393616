// Package prompts holds parameterized prompt templates for planning,
// judging, usefulness checks, context extraction, and report writing. Each
// template is pure text; the library exposes only Render.
package prompts

import (
	"fmt"
	"strings"

	"fathom/internal/domain/models/research"
)

// Name identifies a template in the library.
type Name string

const (
	PlanInitial     Name = "plan_initial"
	PlanJudge       Name = "plan_judge"
	QueriesFromPlan Name = "queries_from_plan"
	PageUseful      Name = "page_useful"
	ExtractContext  Name = "extract_context"
	WritingPlan     Name = "writing_plan"
	FinalReport     Name = "final_report"
)

// DoneSentinel is the literal token a plan/judge call emits to signal the
// research loop should terminate.
const DoneSentinel = "<done>"

// Bindings carries the named variable slots a template may reference. Not
// every field is used by every template.
type Bindings struct {
	Query               string
	PriorContexts       []research.ContextSummary
	PriorPlan           string
	Plan                string
	PreviouslyUsedQueries []string
	PageText             string
	AggregatedContexts   []research.ContextSummary
	WritingPlanText      string
}

// Render produces the message set for a named template given its bindings.
func Render(name Name, b Bindings) ([]research.CanonicalPair, error) {
	switch name {
	case PlanInitial:
		return renderPlanInitial(b), nil
	case PlanJudge:
		return renderPlanJudge(b), nil
	case QueriesFromPlan:
		return renderQueriesFromPlan(b), nil
	case PageUseful:
		return renderPageUseful(b), nil
	case ExtractContext:
		return renderExtractContext(b), nil
	case WritingPlan:
		return renderWritingPlan(b), nil
	case FinalReport:
		return renderFinalReport(b), nil
	default:
		return nil, fmt.Errorf("prompts: unknown template %q", name)
	}
}

func systemPair(text string) research.CanonicalPair {
	return research.CanonicalPair{Role: "system", Content: text}
}

func userPair(text string) research.CanonicalPair {
	return research.CanonicalPair{Role: "user", Content: text}
}

func formatContexts(cs []research.ContextSummary) string {
	if len(cs) == 0 {
		return "(none gathered yet)"
	}
	var sb strings.Builder
	for _, c := range cs {
		fmt.Fprintf(&sb, "- [%s] (query: %q): %s\n", c.SourceURL, c.OriginatingQuery, c.Summary)
	}
	return sb.String()
}

func renderPlanInitial(b Bindings) []research.CanonicalPair {
	return []research.CanonicalPair{
		systemPair("You are a research planning assistant. Produce a concise, " +
			"actionable plan describing what to investigate to answer the user's query."),
		userPair(fmt.Sprintf("Query: %s\n\nProduce an initial research plan.", b.Query)),
	}
}

func renderPlanJudge(b Bindings) []research.CanonicalPair {
	return []research.CanonicalPair{
		systemPair("You judge whether enough evidence has been gathered to answer the query. " +
			"If sufficient, respond with exactly " + DoneSentinel + ". Otherwise produce the plan for the next research iteration."),
		userPair(fmt.Sprintf(
			"Query: %s\n\nContexts gathered so far:\n%s\nPrior plan: %s\n\nDecide whether to continue or emit %s.",
			b.Query, formatContexts(b.PriorContexts), b.PriorPlan, DoneSentinel)),
	}
}

func renderQueriesFromPlan(b Bindings) []research.CanonicalPair {
	used := "(none)"
	if len(b.PreviouslyUsedQueries) > 0 {
		used = strings.Join(b.PreviouslyUsedQueries, "; ")
	}
	return []research.CanonicalPair{
		systemPair("You turn a research plan into a bracketed list of concrete search queries. " +
			"Avoid repeating previously used queries. If the plan indicates research is complete, respond with exactly " + DoneSentinel + "."),
		userPair(fmt.Sprintf("Plan: %s\n\nPreviously used queries: %s\n\nProduce the query list.", b.Plan, used)),
	}
}

func renderPageUseful(b Bindings) []research.CanonicalPair {
	return []research.CanonicalPair{
		systemPair("Answer strictly 'yes' or 'no': is this page useful for answering the query?"),
		userPair(fmt.Sprintf("Query: %s\n\nPage text:\n%s", b.Query, truncate(b.PageText, 6000))),
	}
}

func renderExtractContext(b Bindings) []research.CanonicalPair {
	return []research.CanonicalPair{
		systemPair("Extract the information from this page relevant to the query as a concise summary."),
		userPair(fmt.Sprintf("Query: %s\n\nPage text:\n%s", b.Query, truncate(b.PageText, 12000))),
	}
}

func renderWritingPlan(b Bindings) []research.CanonicalPair {
	return []research.CanonicalPair{
		systemPair("Produce an outline for the final report given the gathered research."),
		userPair(fmt.Sprintf("Query: %s\n\nAggregated contexts:\n%s", b.Query, formatContexts(b.AggregatedContexts))),
	}
}

func renderFinalReport(b Bindings) []research.CanonicalPair {
	return []research.CanonicalPair{
		systemPair("Write the final cited report following the given writing plan. Cite sources inline by URL."),
		userPair(fmt.Sprintf("Query: %s\n\nWriting plan:\n%s\n\nAggregated contexts:\n%s",
			b.Query, b.WritingPlanText, formatContexts(b.AggregatedContexts))),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
