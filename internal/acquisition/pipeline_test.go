package acquisition

import (
	"context"
	"testing"
)

type fakeAcquirer struct {
	name   string
	result Result
	err    error
}

func (f *fakeAcquirer) Acquire(ctx context.Context, url string) (Result, error) {
	if f.err != nil {
		return Result{}, f.err
	}
	return f.result, nil
}

func TestPipelineAcquireUsesHostedWhenRequested(t *testing.T) {
	hosted := &fakeAcquirer{result: Result{URL: "https://example.com", Kind: KindHTML, Text: "hosted"}}
	local := &fakeAcquirer{result: Result{URL: "https://example.com", Kind: KindHTML, Text: "local"}}
	p := &Pipeline{Hosted: hosted, Local: local}

	got, err := p.Acquire(context.Background(), "https://example.com", true)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got.Text != "hosted" {
		t.Errorf("Acquire() = %+v, want hosted result", got)
	}
}

func TestPipelineAcquireUsesLocalWhenNotRequested(t *testing.T) {
	hosted := &fakeAcquirer{result: Result{Text: "hosted"}}
	local := &fakeAcquirer{result: Result{Text: "local"}}
	p := &Pipeline{Hosted: hosted, Local: local}

	got, err := p.Acquire(context.Background(), "https://example.com", false)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got.Text != "local" {
		t.Errorf("Acquire() = %+v, want local result", got)
	}
}

func TestPipelineAcquireFallsBackToLocalWhenHostedNil(t *testing.T) {
	local := &fakeAcquirer{result: Result{Text: "local"}}
	p := &Pipeline{Hosted: nil, Local: local}

	got, err := p.Acquire(context.Background(), "https://example.com", true)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got.Text != "local" {
		t.Errorf("Acquire() = %+v, want local result when hosted is nil", got)
	}
}

func TestPipelineAcquirePropagatesError(t *testing.T) {
	local := &fakeAcquirer{err: ErrFetchFailed}
	p := &Pipeline{Local: local}

	_, err := p.Acquire(context.Background(), "https://example.com", false)
	if err != ErrFetchFailed {
		t.Errorf("Acquire() error = %v, want %v", err, ErrFetchFailed)
	}
}
