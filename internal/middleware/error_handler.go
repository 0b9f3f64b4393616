package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"fathom/internal/domain"
	"fathom/internal/httputil"
)

// WriteError maps a domain sentinel error to an HTTP status and writes an
// RFC 7807 problem response, logging anything that surfaces as a 5xx.
// Handlers call this once at the end of their error path rather than each
// picking its own status code, so the mapping stays in one place.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, detail := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err, "status", status)
	}
	httputil.RespondError(w, status, detail)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrCorrupt):
		// A corrupt session is a datastore-level failure from the
		// client's point of view: it cannot be repaired by retrying.
		return http.StatusInternalServerError, "session data failed its integrity check"
	case errors.Is(err, domain.ErrInvariant):
		return http.StatusInternalServerError, "session is in an inconsistent state"
	case errors.Is(err, domain.ErrCancelled):
		// Cancellation is an expected outcome of a client disconnect or
		// an explicit interrupt request, not a server error.
		return http.StatusOK, "interrupted"
	case errors.Is(err, domain.ErrRetryExhausted):
		return http.StatusBadGateway, "upstream retries exhausted"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
