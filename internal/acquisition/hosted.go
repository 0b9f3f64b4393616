package acquisition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"fathom/internal/ratelimit"
)

const hostedGovernorService = "hosted-parser"

// HostedAcquirer POSTs a URL to a hosted extraction service and receives
// back already-cleaned text. Calls are routed through the Rate-Limit
// Governor so the hosted parser obeys the same service-level pacing as LLM
// calls, per the requirement that it "obey service-level rate limiting by
// routing through the Governor."
type HostedAcquirer struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	governor *ratelimit.Governor
	limits   Limits
}

func NewHostedAcquirer(baseURL, apiKey string, governor *ratelimit.Governor, limits Limits) *HostedAcquirer {
	timeout := limits.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &HostedAcquirer{
		baseURL:  baseURL,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		governor: governor,
		limits:   limits,
	}
}

type hostedRequest struct {
	URL string `json:"url"`
}

type hostedResponse struct {
	Text        string `json:"text"`
	ContentType string `json:"content_type"`
}

func (a *HostedAcquirer) Acquire(ctx context.Context, rawURL string) (Result, error) {
	var result Result

	_, err := a.governor.Call(ctx, hostedGovernorService, "hosted-parser", func(ctx context.Context) error {
		r, err := a.call(ctx, rawURL)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

func (a *HostedAcquirer) call(ctx context.Context, rawURL string) (Result, error) {
	payload, err := json.Marshal(hostedRequest{URL: rawURL})
	if err != nil {
		return Result{}, fmt.Errorf("%w: encode request: %v", ErrFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("%w: build request: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ErrTimeout
		}
		return Result{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: read response: %v", ErrFetchFailed, err)
	}

	if resp.StatusCode >= 400 {
		return Result{}, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var parsed hostedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, fmt.Errorf("%w: decode response: %v", ErrFetchFailed, err)
	}

	text := parsed.Text
	if a.limits.MaxHTMLLength > 0 && len(text) > a.limits.MaxHTMLLength {
		text = text[:a.limits.MaxHTMLLength]
	}

	kind := Classify(rawURL, parsed.ContentType)
	return Result{URL: rawURL, Kind: kind, Text: strings.TrimSpace(text)}, nil
}
