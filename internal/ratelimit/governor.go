// Package ratelimit provides the process-wide Rate-Limit Governor: a shared
// resource that paces calls to external services (one clock per service),
// bounds total in-flight calls behind a single concurrency ceiling, and
// retries a retryable failure with exponential backoff before switching to a
// fallback model on sustained failure.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// FallbackFunc is consulted after a configurable number of consecutive
// failures on a service's current model; it returns the model id to switch
// to for the remainder of the call.
type FallbackFunc func(service, failingModel string) (fallbackModel string, ok bool)

// Governor enforces a global minimum inter-request spacing per service and a
// global concurrency ceiling shared across all services. Each service has its
// own pacing clock but they all draw from the same concurrency pool, so no
// service can starve another out of its fair share of waiting order — the
// semaphore and limiters each queue their own waiters FIFO.
type Governor struct {
	logger *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	concurrency *semaphore.Weighted

	failureThreshold int
	fallback         FallbackFunc

	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	backoffFactor  float64

	failMu     sync.Mutex
	failCounts map[string]int
}

// Config configures a Governor instance.
type Config struct {
	// GlobalConcurrency is the total number of in-flight calls allowed
	// across every service.
	GlobalConcurrency int64
	// FailureThreshold is the number of consecutive failures of the same
	// model after which the Governor switches to the fallback model for
	// the remainder of the call.
	FailureThreshold int
	// Fallback resolves a fallback model id for a failing (service, model)
	// pair. May be nil, in which case no fallback switching occurs.
	Fallback FallbackFunc

	// MaxAttempts is the total number of attempts (first try plus retries)
	// a single Call makes against a retryable failure before giving up.
	MaxAttempts int
	// InitialBackoff is the delay before the second attempt; each
	// subsequent attempt's delay is multiplied by BackoffFactor, capped at
	// MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
}

func New(cfg Config, logger *slog.Logger) *Governor {
	if cfg.GlobalConcurrency <= 0 {
		cfg.GlobalConcurrency = 4
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 20 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 2 * time.Second
	}
	if cfg.BackoffFactor <= 1 {
		cfg.BackoffFactor = 2.0
	}
	return &Governor{
		logger:           logger,
		limiters:         make(map[string]*rate.Limiter),
		concurrency:      semaphore.NewWeighted(cfg.GlobalConcurrency),
		failureThreshold: cfg.FailureThreshold,
		fallback:         cfg.Fallback,
		maxAttempts:      cfg.MaxAttempts,
		initialBackoff:   cfg.InitialBackoff,
		maxBackoff:       cfg.MaxBackoff,
		backoffFactor:    cfg.BackoffFactor,
		failCounts:       make(map[string]int),
	}
}

// SetRate configures the requests-per-minute pacing clock for a service.
// Calling it for a service already known replaces its limiter, leaving
// in-flight waiters on the old limiter to complete against their original
// clock.
func (g *Governor) SetRate(service string, requestsPerMinute float64, burst int) {
	if burst < 1 {
		burst = 1
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.limiters[service] = rate.NewLimiter(rate.Limit(requestsPerMinute/60.0), burst)
}

func (g *Governor) limiterFor(service string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.limiters[service]
	if !ok {
		l = rate.NewLimiter(rate.Inf, 1)
		g.limiters[service] = l
	}
	return l
}

// Call runs fn under the Governor's pacing and concurrency constraints,
// suspending until both the per-service spacing constraint and a global
// concurrency slot are satisfied. A retryable failure (anything but
// cancellation or deadline expiry) is retried in place with exponential backoff up
// to maxAttempts before Call gives up on it; only then is it recorded
// against (service, model), so the consecutive-failure count tracks failed
// Calls, not failed attempts. Once failureThreshold consecutive failed Calls
// of the same model accumulate, the fallback resolver is asked for a
// replacement model, returned alongside the error so the caller can retry
// against the new model.
func (g *Governor) Call(ctx context.Context, service, model string, fn func(ctx context.Context) error) (fallbackModel string, err error) {
	limiter := g.limiterFor(service)
	if err := limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("governor: wait for pacing slot: %w", err)
	}

	if err := g.concurrency.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("governor: acquire concurrency slot: %w", err)
	}
	defer g.concurrency.Release(1)

	if err := g.callWithRetry(ctx, fn); err != nil {
		return g.recordFailure(service, model), err
	}

	g.clearFailures(service, model)
	return "", nil
}

// callWithRetry invokes fn, retrying a retryable error with exponential
// backoff until it succeeds, a non-retryable error is seen, or maxAttempts
// is exhausted. Cooperative cancellation during the backoff wait returns
// immediately with the original fn error rather than ctx.Err(), so the
// caller's retryable-vs-cancelled classification of the failure is
// unaffected by when cancellation happened to land.
func (g *Governor) callWithRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := g.initialBackoff
	var lastErr error

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) || attempt == g.maxAttempts {
			return lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		}

		backoff = time.Duration(float64(backoff) * g.backoffFactor)
		if backoff > g.maxBackoff {
			backoff = g.maxBackoff
		}
	}

	return lastErr
}

// isRetryable reports whether a failed call is worth retrying. Cooperative
// cancellation and deadline expiry are never retried — the caller is done
// waiting, not transiently blocked.
func isRetryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (g *Governor) key(service, model string) string {
	return service + "\x00" + model
}

func (g *Governor) recordFailure(service, model string) string {
	g.failMu.Lock()
	defer g.failMu.Unlock()

	k := g.key(service, model)
	g.failCounts[k]++
	count := g.failCounts[k]

	if count < g.failureThreshold || g.fallback == nil {
		return ""
	}

	fallbackModel, ok := g.fallback(service, model)
	if !ok {
		return ""
	}

	g.logger.Warn("governor switching to fallback model",
		"service", service, "failing_model", model, "fallback_model", fallbackModel, "consecutive_failures", count)
	delete(g.failCounts, k)
	return fallbackModel
}

func (g *Governor) clearFailures(service, model string) {
	g.failMu.Lock()
	defer g.failMu.Unlock()
	delete(g.failCounts, g.key(service, model))
}
