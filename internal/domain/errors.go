package domain

import "errors"

// Domain errors - use with errors.Is()
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a unique constraint violation
	ErrConflict = errors.New("already exists")

	// ErrValidation indicates invalid input
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates authentication failure
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates authorization failure
	ErrForbidden = errors.New("forbidden")

	// ErrCorrupt indicates a persisted session failed its digest check.
	ErrCorrupt = errors.New("corrupt")

	// ErrInvariant indicates an internal consistency check failed.
	ErrInvariant = errors.New("invariant violated")

	// ErrCancelled indicates cooperative cancellation of an in-flight run.
	ErrCancelled = errors.New("cancelled")

	// ErrRetryExhausted indicates a retryable operation ran out of attempts.
	ErrRetryExhausted = errors.New("retries exhausted")
)
