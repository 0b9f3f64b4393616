// Package acquisition implements the Page Acquisition Pipeline: given a URL
// it classifies the content, chooses between a hosted extraction service and
// a local browser path, and returns truncated, normalized text.
package acquisition

import (
	"context"
	"errors"
	"time"
)

// Failure modes surfaced to the Orchestrator. The caller treats any of these
// as a skip for the URL.
var (
	ErrTimeout         = errors.New("acquisition: timeout")
	ErrTooLarge        = errors.New("acquisition: too large")
	ErrUnsupportedType = errors.New("acquisition: unsupported type")
	ErrFetchFailed     = errors.New("acquisition: fetch failed")
)

// Kind classifies a URL's content.
type Kind string

const (
	KindHTML Kind = "html"
	KindPDF  Kind = "pdf"
)

// Result is the cleaned, normalized text extracted from a URL.
type Result struct {
	URL  string
	Kind Kind
	Text string
}

// Limits bounds the acquisition pipeline's resource usage, sourced from the
// Parsing section of the configuration surface.
type Limits struct {
	MaxHTMLLength  int
	PDFMaxFilesize int64
	PDFMaxPages    int
	FetchTimeout   time.Duration
}

const (
	defaultFetchTimeout   = 20 * time.Second
	defaultPDFMaxFilesize = 20 << 20 // 20MB
	defaultPDFMaxPages    = 50
)

// Acquirer is the strategy interface chosen per-session by the
// use_hosted_parser flag: the hosted implementation routes through the
// hosted extraction service, the local implementation drives DOM text
// extraction and PDF rendering in-process.
type Acquirer interface {
	Acquire(ctx context.Context, url string) (Result, error)
}
