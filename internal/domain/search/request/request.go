package request

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/promptdex/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length in characters.
	MaxQueryLength = 1024
	DefaultLimit   = 20
	MaxLimit       = 50
)

// Request is a validated search query.
type Request struct {
	query      string
	searchMode mode.Mode
	limit      int
	userID     string
}

// New validates and normalizes search parameters.
// The query is trimmed and must be non-empty; empty mode means hybrid;
// limit must be positive and is capped at maxLimit (MaxLimit when <= 0).
// An empty userID is anonymous.
func New(query string, m mode.Mode, limit, maxLimit int, userID string) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid search mode: %q", m)
	}
	if limit <= 0 {
		return Request{}, fmt.Errorf("limit must be a positive integer")
	}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return Request{
		query:      query,
		searchMode: m,
		limit:      limit,
		userID:     strings.TrimSpace(userID),
	}, nil
}

// Query returns the trimmed search query text.
func (r *Request) Query() string { return r.query }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// UserID returns the requesting user, empty for anonymous.
func (r *Request) UserID() string { return r.userID }

// Anonymous reports whether the request has no user.
func (r *Request) Anonymous() bool { return r.userID == "" }
