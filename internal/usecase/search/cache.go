package search

import (
	"time"

	"github.com/kailas-cloud/promptdex/internal/domain/prompt"
	"github.com/kailas-cloud/promptdex/internal/domain/search/result"
)

// cachedPage is the cache representation of a result page. Embeddings are not stored.
type cachedPage struct {
	Results  []cachedResult `json:"results"`
	Degraded bool           `json:"degraded,omitempty"`
}

type cachedResult struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"owner_id"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	Tags           []string   `json:"tags"`
	Public         bool       `json:"public"`
	EmbeddingModel string     `json:"embedding_model,omitempty"`
	EmbeddedAt     *time.Time `json:"embedded_at,omitempty"`
	Views          int64      `json:"views"`
	Forks          int64      `json:"forks"`
	Uses           int64      `json:"uses"`
	LastViewedAt   *time.Time `json:"last_viewed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Score          *float64   `json:"score,omitempty"`
}

func toCachedPage(p result.Page) cachedPage {
	out := cachedPage{Results: make([]cachedResult, len(p.Results)), Degraded: p.Degraded}
	for i := range p.Results {
		r := &p.Results[i]
		pr := r.Prompt()
		c := pr.Counters()
		cr := cachedResult{
			ID:             pr.ID(),
			OwnerID:        pr.OwnerID(),
			Title:          pr.Title(),
			Content:        pr.Content(),
			Tags:           pr.Tags(),
			Public:         pr.IsPublic(),
			EmbeddingModel: pr.EmbeddingModel(),
			EmbeddedAt:     pr.EmbeddedAt(),
			Views:          c.Views,
			Forks:          c.Forks,
			Uses:           c.Uses,
			LastViewedAt:   pr.LastViewedAt(),
			CreatedAt:      pr.CreatedAt(),
			UpdatedAt:      pr.UpdatedAt(),
		}
		if s, ok := r.Score(); ok {
			cr.Score = &s
		}
		out.Results[i] = cr
	}
	return out
}

func fromCachedPage(c cachedPage) result.Page {
	page := result.Page{Results: make([]result.Result, len(c.Results)), Degraded: c.Degraded}
	for i, cr := range c.Results {
		tags := cr.Tags
		if tags == nil {
			tags = []string{}
		}
		p := prompt.Reconstruct(
			cr.ID, cr.OwnerID, cr.Title, cr.Content, tags, cr.Public,
			nil, cr.EmbeddingModel, cr.EmbeddedAt,
			prompt.Counters{Views: cr.Views, Forks: cr.Forks, Uses: cr.Uses},
			cr.LastViewedAt, cr.CreatedAt, cr.UpdatedAt,
		)
		if cr.Score != nil {
			page.Results[i] = result.NewScored(p, *cr.Score)
		} else {
			page.Results[i] = result.New(p)
		}
	}
	return page
}
