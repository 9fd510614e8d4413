package promptdex

import "time"

// SearchMode controls the retrieval algorithm.
type SearchMode string

// Search mode constants.
const (
	Hybrid   SearchMode = "hybrid"
	Semantic SearchMode = "semantic"
	Keyword  SearchMode = "keyword"
)

// Window is a trending time window.
type Window string

// Window constants.
const (
	Day   Window = "day"
	Week  Window = "week"
	Month Window = "month"
)

// InteractionType is the kind of user engagement recorded.
type InteractionType string

// Interaction type constants.
const (
	Viewed         InteractionType = "viewed"
	Starred        InteractionType = "starred"
	Forked         InteractionType = "forked"
	UsedAsTemplate InteractionType = "used_as_template"
)

// Prompt is a library prompt as returned by the API.
type Prompt struct {
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

// PromptInput creates or replaces a prompt.
type PromptInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Public  bool     `json:"public"`
}

// SearchResult is a single hit. Score is nil in keyword mode.
type SearchResult struct {
	Prompt
	Score *float64 `json:"score,omitempty"`
}

// SearchPage is one page of search results.
type SearchPage struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
	Mode    SearchMode     `json:"mode"`
	// Degraded is set when hybrid search fell back to keyword-only results.
	Degraded bool `json:"degraded,omitempty"`
	// EmbeddingTokens is the provider usage reported by the server for this query.
	EmbeddingTokens int `json:"-"`
}

// Item is a ranked recommendation.
type Item struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Recommendations is a personalized list or its trending fallback.
type Recommendations struct {
	Items  []Item `json:"items"`
	Source string `json:"source"`
}

type itemList struct {
	Items []Item `json:"items"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
