package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/promptdex/internal/domain"
)

// classify turns a go-openai error into a *domain.UpstreamError.
// unavailable is the sentinel for the capability; quota is used for exhausted quotas.
// 429 (rate limit), 5xx and transport failures are retryable; 401/403 and quota are not.
func classify(provider string, err error, unavailable, quota error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s request: %w", provider, err)
	}

	status, detail, code := 0, "", ""

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		detail = apiErr.Message
		if c, ok := apiErr.Code.(string); ok {
			code = c
		}
		if code == "" {
			code = apiErr.Type
		}
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
		detail = extractDetail(reqErr.Body)
		if detail == "" {
			detail = strings.TrimSpace(string(reqErr.Body))
		}
	default:
		return &domain.UpstreamError{
			Provider:  provider,
			Retryable: true,
			Err:       fmt.Errorf("request failed: %v: %w", err, unavailable),
		}
	}

	sentinel := unavailable
	retryable := false
	switch {
	case code == "insufficient_quota":
		sentinel = quota
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		retryable = true
	}

	if detail == "" {
		detail = http.StatusText(status)
	}
	return &domain.UpstreamError{
		Provider:   provider,
		StatusCode: status,
		Retryable:  retryable,
		Err:        fmt.Errorf("%s: %w", detail, sentinel),
	}
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
