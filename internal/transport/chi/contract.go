package chi

import (
	"context"

	"github.com/kailas-cloud/promptdex/internal/domain/interaction"
	domprompt "github.com/kailas-cloud/promptdex/internal/domain/prompt"
	domrec "github.com/kailas-cloud/promptdex/internal/domain/recommend"
	"github.com/kailas-cloud/promptdex/internal/domain/search/request"
	"github.com/kailas-cloud/promptdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/promptdex/internal/usecase/health"
	promptuc "github.com/kailas-cloud/promptdex/internal/usecase/prompt"
)

// Searcher runs retrieval queries.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (result.Page, error)
}

// Recommender serves personalized, similar and trending lists.
type Recommender interface {
	Recommendations(ctx context.Context, userID string, limit int, exclude []string) (domrec.Recommendations, error)
	Similar(ctx context.Context, promptID, userID string, limit int) ([]domrec.Item, error)
	Trending(ctx context.Context, window domrec.Window, limit int) ([]domrec.Item, error)
	RecordInteraction(ctx context.Context, userID, promptID string, t interaction.Type) error
}

// Prompts is prompt CRUD.
type Prompts interface {
	Create(ctx context.Context, ownerID string, in promptuc.Input) (domprompt.Prompt, error)
	Get(ctx context.Context, id, userID string) (domprompt.Prompt, error)
	Update(ctx context.Context, id, userID string, in promptuc.Input) (domprompt.Prompt, error)
	Delete(ctx context.Context, id, userID string) error
}

// Authoring is AI-assisted prompt writing.
type Authoring interface {
	Generate(ctx context.Context, description string) (string, error)
	Refine(ctx context.Context, content, feedback string) (string, error)
	SuggestTags(ctx context.Context, title, content string) ([]string, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
