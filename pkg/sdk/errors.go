package promptdex

import (
	"fmt"

	"github.com/kailas-cloud/promptdex/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrPromptNotFound         = domain.ErrPromptNotFound
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrForbidden              = domain.ErrForbidden
	ErrRateLimited            = domain.ErrRateLimited
	ErrEmbeddingUnavailable   = domain.ErrEmbeddingUnavailable
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
	ErrCompletionUnavailable  = domain.ErrCompletionUnavailable
	ErrNotImplemented         = domain.ErrNotImplemented
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	// RetryAfter is the Retry-After header in seconds, 0 when absent.
	RetryAfter int
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("promptdex: http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("promptdex: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Unwrap maps the error code onto the matching sentinel so errors.Is works.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "validation_failed", "bad_request":
		return ErrInvalidRequest
	case "forbidden":
		return ErrForbidden
	case "prompt_not_found":
		return ErrPromptNotFound
	case "not_found":
		return ErrNotFound
	case "rate_limited":
		return ErrRateLimited
	case "embedding_quota_exceeded":
		return ErrEmbeddingQuotaExceeded
	case "embedding_unavailable":
		return ErrEmbeddingUnavailable
	case "completion_unavailable":
		return ErrCompletionUnavailable
	case "not_implemented":
		return ErrNotImplemented
	default:
		return nil
	}
}

// Retryable reports whether the request may succeed if repeated later.
func (e *APIError) Retryable() bool {
	return e.RetryAfter > 0 || e.StatusCode == 429
}
