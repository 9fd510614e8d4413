package result

import "github.com/kailas-cloud/promptdex/internal/domain/prompt"

// Result is a single search hit joined to its prompt.
type Result struct {
	prompt   prompt.Prompt
	score    float64
	hasScore bool
}

// New creates an unscored result (keyword mode).
func New(p prompt.Prompt) Result {
	return Result{prompt: p}
}

// NewScored creates a result carrying a similarity or RRF score.
func NewScored(p prompt.Prompt, score float64) Result {
	return Result{prompt: p, score: score, hasScore: true}
}

// Prompt returns the matched prompt.
func (r *Result) Prompt() *prompt.Prompt { return &r.prompt }

// ID returns the prompt identifier.
func (r *Result) ID() string { return r.prompt.ID() }

// Score returns the relevance score and whether one is set.
func (r *Result) Score() (float64, bool) { return r.score, r.hasScore }

// Page is a search response.
type Page struct {
	Results []Result
	// Degraded is set when hybrid search fell back to keyword-only.
	Degraded bool
}

// Total returns the number of results in the page.
func (p Page) Total() int { return len(p.Results) }
