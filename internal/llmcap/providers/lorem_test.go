package providers

import (
	"context"
	"strings"
	"testing"
	"time"

	"fathom/internal/llmcap"
)

func TestLoremProviderSupportsModel(t *testing.T) {
	p := NewLoremProvider()
	if !p.SupportsModel("lorem-fast") {
		t.Error("SupportsModel(lorem-fast) = false, want true")
	}
	if p.SupportsModel("claude-3-opus") {
		t.Error("SupportsModel(claude-3-opus) = true, want false")
	}
}

func TestLoremProviderComplete(t *testing.T) {
	p := NewLoremProvider()
	text, err := p.Complete(context.Background(), nil, "lorem-medium", llmcap.Options{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if len(text) < 400 {
		t.Errorf("Complete() len = %d, want >= 400", len(text))
	}
}

func TestLoremProviderCompleteRespectsCancellation(t *testing.T) {
	p := NewLoremProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Complete(ctx, nil, "lorem-medium", llmcap.Options{})
	if err == nil {
		t.Fatal("Complete() expected error on cancelled context")
	}
}

func TestLoremProviderStreamEmitsWords(t *testing.T) {
	p := NewLoremProvider()
	ch, err := p.Stream(context.Background(), nil, "lorem-fast", llmcap.Options{})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	var sb strings.Builder
	for frag := range ch {
		if frag.Err != nil {
			t.Fatalf("Stream() fragment error = %v", frag.Err)
		}
		sb.WriteString(frag.Text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		t.Error("Stream() produced no text")
	}
}

func TestLoremProviderStreamStopsOnCancel(t *testing.T) {
	p := NewLoremProvider()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := p.Stream(ctx, nil, "lorem-slow", llmcap.Options{})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	cancel()

	deadline := time.After(2 * time.Second)
	sawErr := false
	for {
		select {
		case frag, ok := <-ch:
			if !ok {
				return
			}
			if frag.Err != nil {
				sawErr = true
			}
		case <-deadline:
			if !sawErr {
				t.Fatal("Stream() did not stop promptly after context cancellation")
			}
			return
		}
	}
}
