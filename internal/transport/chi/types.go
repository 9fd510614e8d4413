package chi

import "time"

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeValidationFailed       ErrorCode = "validation_failed"
	ErrorCodeUnauthorized           ErrorCode = "unauthorized"
	ErrorCodeForbidden              ErrorCode = "forbidden"
	ErrorCodeNotFound               ErrorCode = "not_found"
	ErrorCodePromptNotFound         ErrorCode = "prompt_not_found"
	ErrorCodeRateLimited            ErrorCode = "rate_limited"
	ErrorCodeEmbeddingQuotaExceeded ErrorCode = "embedding_quota_exceeded"
	ErrorCodeEmbeddingUnavailable   ErrorCode = "embedding_unavailable"
	ErrorCodeCompletionUnavailable  ErrorCode = "completion_unavailable"
	ErrorCodeNotImplemented         ErrorCode = "not_implemented"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// PromptResponse is a prompt as returned by the API. Embeddings never leave the service.
type PromptResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Tags         []string  `json:"tags"`
	OwnerID      string    `json:"owner_id"`
	Public       bool      `json:"public"`
	ViewCount    int64     `json:"view_count"`
	ForkCount    int64     `json:"fork_count"`
	UseCount     int64     `json:"use_count"`
	HasEmbedding bool      `json:"has_embedding"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PromptRequest creates or replaces a prompt.
type PromptRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Public  bool     `json:"public"`
}

// SearchResultItem is a prompt with its relevance score, when the mode produces one.
type SearchResultItem struct {
	PromptResponse
	Score *float64 `json:"score,omitempty"`
}

// SearchResponse is the body of GET /v1/search.
type SearchResponse struct {
	Results  []SearchResultItem `json:"results"`
	Total    int                `json:"total"`
	Mode     string             `json:"mode"`
	Degraded bool               `json:"degraded,omitempty"`
}

// ItemResponse is a ranked recommendation.
type ItemResponse struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// ItemListResponse is the body of the similar and trending endpoints.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
}

// RecommendationsResponse is the body of GET /v1/recommendations.
type RecommendationsResponse struct {
	Items  []ItemResponse `json:"items"`
	Source string         `json:"source"`
}

// InteractionRequest is the body of POST /v1/interactions.
type InteractionRequest struct {
	PromptID string `json:"prompt_id"`
	Type     string `json:"type"`
}

// GenerateRequest is the body of POST /v1/authoring/generate.
type GenerateRequest struct {
	Description string `json:"description"`
}

// RefineRequest is the body of POST /v1/authoring/refine.
type RefineRequest struct {
	Content  string `json:"content"`
	Feedback string `json:"feedback,omitempty"`
}

// SuggestTagsRequest is the body of POST /v1/authoring/tags.
type SuggestTagsRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ContentResponse carries generated prompt text.
type ContentResponse struct {
	Content string `json:"content"`
}

// TagsResponse carries suggested tags.
type TagsResponse struct {
	Tags []string `json:"tags"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

// SearchParams are the query parameters of GET /v1/search.
type SearchParams struct {
	Q     string
	Limit *int
	Mode  *string
}

// RecommendationsParams are the query parameters of GET /v1/recommendations.
type RecommendationsParams struct {
	Limit   *int
	Exclude []string
}

// SimilarParams are the query parameters of GET /v1/prompts/{id}/similar.
type SimilarParams struct {
	Limit *int
}

// TrendingParams are the query parameters of GET /v1/trending.
type TrendingParams struct {
	Window *string
	Limit  *int
}
