package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrPromptNotFound signals a missing prompt.
	ErrPromptNotFound = fmt.Errorf("prompt %w", ErrNotFound)
	// ErrInvalidRequest signals caller input rejected before any engine call.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrForbidden signals an operation on a resource the caller does not own.
	ErrForbidden = errors.New("forbidden")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingUnavailable signals that the embedding model could not serve the request.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding quota upstream.
	ErrEmbeddingQuotaExceeded = fmt.Errorf("embedding quota exceeded: %w", ErrEmbeddingUnavailable)
	// ErrCompletionUnavailable signals a completion model failure.
	ErrCompletionUnavailable = errors.New("completion unavailable")
	// ErrNotImplemented signals an unimplemented feature.
	ErrNotImplemented = errors.New("not implemented")
)

// UpstreamError describes a failure of an external model provider.
// Retryable is a hint for the boundary layer (Retry-After), not a policy.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s upstream error %d: %s", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s upstream error: %s", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsRetryable reports whether err carries a retryable upstream hint.
func IsRetryable(err error) bool {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Retryable
	}
	return false
}

// Invalidf builds a validation error wrapping ErrInvalidRequest.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
