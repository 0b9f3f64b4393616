package config

import "time"

const (
	// DefaultMaxHTMLLength bounds a single acquired page's extracted text,
	// preventing one oversized page from dominating a session's context
	// budget.
	DefaultMaxHTMLLength = 50_000

	// DefaultPDFMaxFilesize bounds how much of a PDF response body is
	// buffered to disk before extraction is abandoned.
	DefaultPDFMaxFilesize = 20 << 20

	// DefaultPDFMaxPages bounds how many pages of a PDF are extracted.
	DefaultPDFMaxPages = 50

	// DefaultFetchTimeout bounds a single page acquisition call.
	DefaultFetchTimeout = 20 * time.Second

	// DefaultPerHostCooldown is the minimum spacing between two fetches to
	// the same host.
	DefaultPerHostCooldown = 2 * time.Second

	// DefaultPerHostConcurrency bounds simultaneous in-flight fetches to a
	// single host.
	DefaultPerHostConcurrency = 2

	// DefaultGlobalFetchConcurrency bounds simultaneous in-flight fetches
	// across all hosts.
	DefaultGlobalFetchConcurrency = 16

	// DefaultLLMConcurrency bounds simultaneous in-flight LLM calls across
	// all sessions on this process.
	DefaultLLMConcurrency = 8

	// DefaultGovernorFailureThreshold is how many consecutive failures on a
	// service before the Rate-Limit Governor switches to its fallback
	// model.
	DefaultGovernorFailureThreshold = 3

	// DefaultRPM and DefaultBurst seed the Governor's per-service limiter
	// when a RateLimits entry omits one.
	DefaultRPM   = 60
	DefaultBurst = 5

	// DefaultGovernorMaxAttempts bounds how many times the Governor retries
	// a single retryable failure (transport error, timeout, rate-limit)
	// before giving up on that call and counting it toward
	// DefaultGovernorFailureThreshold.
	DefaultGovernorMaxAttempts = 3

	// DefaultGovernorInitialBackoff and DefaultGovernorMaxBackoff bound the
	// exponential backoff the Governor waits between retry attempts.
	DefaultGovernorInitialBackoff = 200 * time.Millisecond
	DefaultGovernorMaxBackoff     = 10 * time.Second
	DefaultGovernorBackoffFactor  = 2.0
)
