package recommend

import (
	"context"
	"time"

	"github.com/kailas-cloud/promptdex/internal/domain/interaction"
	"github.com/kailas-cloud/promptdex/internal/domain/prompt"
	"github.com/kailas-cloud/promptdex/internal/domain/vector"
)

// InteractionStore persists interactions and serves the signals scoring needs.
type InteractionStore interface {
	// Record upserts (user, prompt, type) and bumps the prompt counter atomically.
	Record(ctx context.Context, in interaction.Interaction) error
	// RecentSignals returns the user's newest n interactions joined to embeddings.
	RecentSignals(ctx context.Context, userID string, n int) ([]interaction.Signal, error)
	// WindowCounts groups interactions on public prompts since the given time.
	WindowCounts(ctx context.Context, since time.Time) ([]interaction.Count, error)
}

// PromptReader reads prompts for similarity sources, titles and view counts.
type PromptReader interface {
	Get(ctx context.Context, id string) (prompt.Prompt, error)
	GetMany(ctx context.Context, ids []string) ([]prompt.Prompt, error)
	// TopViewed returns public prompts by lifetime view count, highest first.
	TopViewed(ctx context.Context, limit int) ([]prompt.Prompt, error)
}

// VectorIndex returns nearest neighbours by similarity.
type VectorIndex interface {
	Nearest(ctx context.Context, q vector.NearestQuery) ([]vector.Neighbor, error)
}
