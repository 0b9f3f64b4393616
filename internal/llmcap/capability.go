// Package llmcap exposes a typed LLM Capability wrapper: complete and
// stream operations that hide provider choice (hosted, local, or a
// different local model server) behind a uniform interface, with every call
// routed through the Rate-Limit Governor.
package llmcap

import (
	"context"
	"fmt"

	"fathom/internal/domain/models/research"
	"fathom/internal/ratelimit"
)

// Options mirrors the per-call knobs the Orchestrator may set.
type Options struct {
	Temperature      *float64
	TopP             *float64
	Seed             *int64
	ReasoningEnabled bool
	ContextSize      *int
}

// Provider is the interface each backend (hosted Anthropic, OpenAI-compatible,
// or the deterministic local/mock backend) implements. The Capability never
// calls a Provider directly — it always goes through the Governor.
type Provider interface {
	Name() string
	SupportsModel(model string) bool
	Complete(ctx context.Context, messages []research.CanonicalPair, model string, opts Options) (string, error)
	Stream(ctx context.Context, messages []research.CanonicalPair, model string, opts Options) (<-chan Fragment, error)
}

// Fragment is one lazily-produced piece of a streaming completion. Exactly
// one Fragment in the channel may carry a non-nil Err, and it is always the
// last value sent before the channel closes — an I/O error terminates the
// stream rather than appearing after a partial success.
type Fragment struct {
	Text string
	Err  error
}

// Capability is the LLM Capability component: it resolves a model id to a
// backing Provider and routes every call through the Governor, applying
// fallback-model switching on sustained failure.
type Capability struct {
	providers []Provider
	governor  *ratelimit.Governor
	service   string
}

func New(governor *ratelimit.Governor, providers ...Provider) *Capability {
	return &Capability{providers: providers, governor: governor, service: "llm"}
}

func (c *Capability) resolve(model string) (Provider, error) {
	for _, p := range c.providers {
		if p.SupportsModel(model) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("llmcap: no provider supports model %q", model)
}

// Complete performs a non-streaming completion, routed through the Governor.
// If the Governor decides to fall back to a different model after
// consecutive failures, Complete retries once against the fallback model.
func (c *Capability) Complete(ctx context.Context, messages []research.CanonicalPair, model string, opts Options) (string, error) {
	provider, err := c.resolve(model)
	if err != nil {
		return "", err
	}

	var text string
	fallback, callErr := c.governor.Call(ctx, c.service, model, func(ctx context.Context) error {
		t, err := provider.Complete(ctx, messages, model, opts)
		if err != nil {
			return err
		}
		text = t
		return nil
	})
	if callErr == nil {
		return text, nil
	}
	if fallback == "" {
		return "", callErr
	}

	fallbackProvider, err := c.resolve(fallback)
	if err != nil {
		return "", callErr
	}
	var fallbackText string
	if _, err := c.governor.Call(ctx, c.service, fallback, func(ctx context.Context) error {
		t, err := fallbackProvider.Complete(ctx, messages, fallback, opts)
		if err != nil {
			return err
		}
		fallbackText = t
		return nil
	}); err != nil {
		return "", err
	}
	return fallbackText, nil
}

// Stream performs a streaming completion. The Governor paces and bounds the
// call the same as Complete; fallback switching on the stream path applies
// only before the first fragment is produced, since a stream in flight
// cannot be transparently swapped mid-flight.
func (c *Capability) Stream(ctx context.Context, messages []research.CanonicalPair, model string, opts Options) (<-chan Fragment, error) {
	provider, err := c.resolve(model)
	if err != nil {
		return nil, err
	}

	var ch <-chan Fragment
	fallback, callErr := c.governor.Call(ctx, c.service, model, func(ctx context.Context) error {
		s, err := provider.Stream(ctx, messages, model, opts)
		if err != nil {
			return err
		}
		ch = s
		return nil
	})
	if callErr == nil {
		return ch, nil
	}
	if fallback == "" {
		return nil, callErr
	}

	fallbackProvider, err := c.resolve(fallback)
	if err != nil {
		return nil, callErr
	}
	var fallbackCh <-chan Fragment
	if _, err := c.governor.Call(ctx, c.service, fallback, func(ctx context.Context) error {
		s, err := fallbackProvider.Stream(ctx, messages, fallback, opts)
		if err != nil {
			return err
		}
		fallbackCh = s
		return nil
	}); err != nil {
		return nil, err
	}
	return fallbackCh, nil
}
