package prompt

import (
	"context"
	"time"

	"github.com/kailas-cloud/promptdex/internal/domain"
	domprompt "github.com/kailas-cloud/promptdex/internal/domain/prompt"
)

// Repository defines the storage contract for prompts. It is the source of truth
// for embeddings.
type Repository interface {
	Create(ctx context.Context, p *domprompt.Prompt) error
	Get(ctx context.Context, id string) (domprompt.Prompt, error)
	Update(ctx context.Context, p *domprompt.Prompt) error
	SetEmbedding(ctx context.Context, id string, vec []float32, model string, at time.Time) error
	Delete(ctx context.Context, id string) error
	ListWithoutEmbedding(ctx context.Context, limit int) ([]domprompt.Prompt, error)
	ListEmbedded(ctx context.Context, afterID string, limit int) ([]domprompt.Prompt, error)
}

// IndexWriter mirrors embeddings into a separate vector index (e.g. Redis).
type IndexWriter interface {
	Upsert(ctx context.Context, p *domprompt.Prompt) error
	Remove(ctx context.Context, id string) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
