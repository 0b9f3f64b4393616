package providers

import (
	"context"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	"fathom/internal/domain/models/research"
	"fathom/internal/llmcap"
)

// LoremProvider is a deterministic, no-network mock backend for local
// development and tests. Model names encode speed ("lorem-slow",
// "lorem-fast", "lorem-medium") the same way the chat service's mock
// backend does.
type LoremProvider struct {
	generator *loremgen.Lorem
}

func NewLoremProvider() *LoremProvider {
	return &LoremProvider{generator: loremgen.New()}
}

func (p *LoremProvider) Name() string { return "lorem" }

func (p *LoremProvider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

func streamDelay(model string) time.Duration {
	switch {
	case strings.Contains(model, "slow"):
		return 300 * time.Millisecond
	case strings.Contains(model, "fast"):
		return 15 * time.Millisecond
	default:
		return 60 * time.Millisecond
	}
}

// Complete generates deterministic lorem ipsum text sized to a plausible
// response length rather than simulating a real model's latency end-to-end;
// the per-word Stream delay already gives tests something to assert timing
// against.
func (p *LoremProvider) Complete(ctx context.Context, messages []research.CanonicalPair, model string, opts llmcap.Options) (string, error) {
	var sb strings.Builder
	for sb.Len() < 400 {
		sb.WriteString(p.generator.Paragraph(3, 5))
		sb.WriteString("\n\n")
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	return strings.TrimSpace(sb.String()), nil
}

func (p *LoremProvider) Stream(ctx context.Context, messages []research.CanonicalPair, model string, opts llmcap.Options) (<-chan llmcap.Fragment, error) {
	out := make(chan llmcap.Fragment, 16)
	delay := streamDelay(model)

	go func() {
		defer close(out)

		text := p.generator.Paragraph(6, 10)
		for _, word := range strings.Fields(text) {
			select {
			case <-ctx.Done():
				out <- llmcap.Fragment{Err: ctx.Err()}
				return
			default:
			}
			out <- llmcap.Fragment{Text: word + " "}
			time.Sleep(delay)
		}
	}()

	return out, nil
}
