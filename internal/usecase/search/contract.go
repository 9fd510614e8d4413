package search

import (
	"context"

	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/domain/prompt"
	"github.com/kailas-cloud/promptdex/internal/domain/vector"
)

// KeywordSearcher runs the lexical branch: substring on title/content or exact tag,
// visibility-filtered, newest first.
type KeywordSearcher interface {
	KeywordSearch(ctx context.Context, query, userID string, limit int) ([]prompt.Prompt, error)
}

// PromptReader re-fetches full records for vector neighbours.
type PromptReader interface {
	GetMany(ctx context.Context, ids []string) ([]prompt.Prompt, error)
}

// VectorIndex returns nearest neighbours by similarity.
type VectorIndex interface {
	Nearest(ctx context.Context, q vector.NearestQuery) ([]vector.Neighbor, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
