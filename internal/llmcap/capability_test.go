package llmcap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"fathom/internal/domain/models/research"
	"fathom/internal/ratelimit"
)

type fakeProvider struct {
	name       string
	prefix     string
	completeFn func(model string) (string, error)
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) SupportsModel(model string) bool {
	return len(model) >= len(p.prefix) && model[:len(p.prefix)] == p.prefix
}

func (p *fakeProvider) Complete(ctx context.Context, messages []research.CanonicalPair, model string, opts Options) (string, error) {
	return p.completeFn(model)
}

func (p *fakeProvider) Stream(ctx context.Context, messages []research.CanonicalPair, model string, opts Options) (<-chan Fragment, error) {
	ch := make(chan Fragment, 1)
	text, err := p.completeFn(model)
	if err != nil {
		ch <- Fragment{Err: err}
	} else {
		ch <- Fragment{Text: text}
	}
	close(ch)
	return ch, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCapabilityCompleteResolvesProviderByModel(t *testing.T) {
	gov := ratelimit.New(ratelimit.Config{GlobalConcurrency: 2}, discardLogger())
	gov.SetRate("llm", 6000, 10)

	provider := &fakeProvider{name: "fake-a", prefix: "a-", completeFn: func(model string) (string, error) {
		return "response from " + model, nil
	}}
	capa := New(gov, provider)

	got, err := capa.Complete(context.Background(), nil, "a-model", Options{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "response from a-model" {
		t.Errorf("Complete() = %q, want %q", got, "response from a-model")
	}
}

func TestCapabilityCompleteUnknownModel(t *testing.T) {
	gov := ratelimit.New(ratelimit.Config{GlobalConcurrency: 2}, discardLogger())
	capa := New(gov, &fakeProvider{name: "fake-a", prefix: "a-"})

	if _, err := capa.Complete(context.Background(), nil, "z-model", Options{}); err == nil {
		t.Fatal("Complete() expected error for a model no provider supports")
	}
}

func TestCapabilityCompleteFallsBackAfterThreshold(t *testing.T) {
	gov := ratelimit.New(ratelimit.Config{
		GlobalConcurrency: 2,
		FailureThreshold:  1,
		Fallback: func(service, failingModel string) (string, bool) {
			if failingModel == "a-flaky" {
				return "b-stable", true
			}
			return "", false
		},
	}, discardLogger())
	gov.SetRate("llm", 6000, 10)

	failErr := errors.New("provider unavailable")
	providerA := &fakeProvider{name: "fake-a", prefix: "a-", completeFn: func(model string) (string, error) {
		return "", failErr
	}}
	providerB := &fakeProvider{name: "fake-b", prefix: "b-", completeFn: func(model string) (string, error) {
		return "recovered via " + model, nil
	}}
	capa := New(gov, providerA, providerB)

	got, err := capa.Complete(context.Background(), nil, "a-flaky", Options{})
	if err != nil {
		t.Fatalf("Complete() error = %v, want fallback to succeed", err)
	}
	if got != "recovered via b-stable" {
		t.Errorf("Complete() = %q, want %q", got, "recovered via b-stable")
	}
}

func TestCapabilityStreamResolvesProviderByModel(t *testing.T) {
	gov := ratelimit.New(ratelimit.Config{GlobalConcurrency: 2}, discardLogger())
	gov.SetRate("llm", 6000, 10)

	provider := &fakeProvider{name: "fake-a", prefix: "a-", completeFn: func(model string) (string, error) {
		return "streamed " + model, nil
	}}
	capa := New(gov, provider)

	ch, err := capa.Stream(context.Background(), nil, "a-model", Options{})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	frag := <-ch
	if frag.Err != nil {
		t.Fatalf("fragment error = %v", frag.Err)
	}
	if frag.Text != "streamed a-model" {
		t.Errorf("fragment text = %q, want %q", frag.Text, "streamed a-model")
	}
}
