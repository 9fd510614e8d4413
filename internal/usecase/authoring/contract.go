package authoring

import (
	"context"

	"github.com/kailas-cloud/promptdex/internal/domain"
)

// Completer generates text from a single-turn request.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}
