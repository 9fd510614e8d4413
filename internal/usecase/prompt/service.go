package prompt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/domain"
	domprompt "github.com/kailas-cloud/promptdex/internal/domain/prompt"
	"github.com/kailas-cloud/promptdex/internal/domain/search/mode"
	"github.com/kailas-cloud/promptdex/internal/usecase/memoize"
)

// listingPatterns cover every memoized value that carries prompt records or
// vectors derived from them.
var listingPatterns = []string{
	memoize.NamespacePattern(string(mode.Keyword)),
	memoize.NamespacePattern(string(mode.Semantic)),
	memoize.NamespacePattern(string(mode.Hybrid)),
	memoize.NamespacePattern(memoize.NamespaceSimilar),
	memoize.NamespacePattern(memoize.NamespaceTrending),
	memoize.NamespacePattern(memoize.NamespaceRecs),
	memoize.NamespacePattern(memoize.NamespaceProfile),
}

// Input is the editable part of a prompt.
type Input struct {
	Title   string
	Content string
	Tags    []string
	Public  bool
}

// Service handles prompt CRUD and keeps embeddings in step with the text.
type Service struct {
	repo   Repository
	embed  Embedder
	index  IndexWriter
	memo   *memoize.Memo
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// New creates a prompt service. index may be nil when vectors live in the repository only.
// memo is the result cache shared with search and recommendations; nil disables invalidation.
func New(repo Repository, embed Embedder, index IndexWriter, memo *memoize.Memo, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		embed:  embed,
		index:  index,
		memo:   memo,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Create stores a new prompt owned by ownerID and embeds it.
// An embedding failure does not fail the create: the prompt is stored without a
// vector and picked up by Backfill.
func (s *Service) Create(ctx context.Context, ownerID string, in Input) (domprompt.Prompt, error) {
	if ownerID == "" {
		return domprompt.Prompt{}, domain.Invalidf("user is required")
	}
	p, err := domprompt.New(s.newID(), ownerID, in.Title, in.Content, in.Tags, in.Public, s.now().UTC())
	if err != nil {
		return domprompt.Prompt{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if err := s.repo.Create(ctx, &p); err != nil {
		return domprompt.Prompt{}, fmt.Errorf("create prompt: %w", err)
	}

	s.tryEmbed(ctx, &p)
	return p, nil
}

// Get returns a prompt visible to userID. Invisible prompts are reported as not found.
func (s *Service) Get(ctx context.Context, id, userID string) (domprompt.Prompt, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domprompt.Prompt{}, fmt.Errorf("get prompt: %w", err)
	}
	if !p.VisibleTo(userID) {
		return domprompt.Prompt{}, domain.ErrPromptNotFound
	}
	return p, nil
}

// Update replaces the editable fields. Only the owner may update. The embedding is
// regenerated whenever title, content or tags changed. A change of text or
// visibility drops cached listings so they cannot serve the old record.
func (s *Service) Update(ctx context.Context, id, userID string, in Input) (domprompt.Prompt, error) {
	prev, err := s.owned(ctx, id, userID)
	if err != nil {
		return domprompt.Prompt{}, err
	}

	next, err := prev.Revise(in.Title, in.Content, in.Tags, in.Public, s.now().UTC())
	if err != nil {
		return domprompt.Prompt{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if err := s.repo.Update(ctx, &next); err != nil {
		return domprompt.Prompt{}, fmt.Errorf("update prompt: %w", err)
	}

	if next.HasEmbedding() {
		// Text unchanged; the index still needs the new visibility.
		s.mirror(ctx, &next)
	} else {
		s.tryEmbed(ctx, &next)
	}
	if next.IsPublic() != prev.IsPublic() || next.NeedsReembedding(&prev) {
		s.memo.Invalidate(ctx, listingPatterns...)
	}
	return next, nil
}

// Delete removes a prompt owned by userID.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete prompt: %w", err)
	}
	if s.index != nil {
		if err := s.index.Remove(ctx, id); err != nil {
			s.logger.Warn("Failed to remove prompt from vector index", zap.String("id", id), zap.Error(err))
		}
	}
	s.memo.Invalidate(ctx, listingPatterns...)
	return nil
}

func (s *Service) owned(ctx context.Context, id, userID string) (domprompt.Prompt, error) {
	if userID == "" {
		return domprompt.Prompt{}, domain.Invalidf("user is required")
	}
	p, err := s.Get(ctx, id, userID)
	if err != nil {
		return domprompt.Prompt{}, err
	}
	if p.OwnerID() != userID {
		return domprompt.Prompt{}, fmt.Errorf("prompt %s: %w", id, domain.ErrForbidden)
	}
	return p, nil
}

// Embed computes and stores the embedding of p, then mirrors it to the index.
func (s *Service) Embed(ctx context.Context, p *domprompt.Prompt) error {
	res, err := s.embed.Embed(ctx, p.EmbeddingText())
	if err != nil {
		return fmt.Errorf("vectorize prompt: %w", err)
	}
	at := s.now().UTC()
	if err := s.repo.SetEmbedding(ctx, p.ID(), res.Embedding, res.Model, at); err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	p.SetEmbedding(res.Embedding, res.Model, at)
	s.mirror(ctx, p)
	return nil
}

func (s *Service) tryEmbed(ctx context.Context, p *domprompt.Prompt) {
	if err := s.Embed(ctx, p); err != nil {
		s.logger.Warn("Prompt stored without embedding",
			zap.String("id", p.ID()),
			zap.Bool("retryable", domain.IsRetryable(err)),
			zap.Error(err))
	}
}

func (s *Service) mirror(ctx context.Context, p *domprompt.Prompt) {
	if s.index == nil {
		return
	}
	if err := s.index.Upsert(ctx, p); err != nil {
		s.logger.Warn("Failed to mirror prompt to vector index", zap.String("id", p.ID()), zap.Error(err))
	}
}

// Backfill embeds prompts that have no vector, batch at a time, until none are
// left. It stops at the first embedding failure and returns how many were done.
func (s *Service) Backfill(ctx context.Context, batch int) (int, error) {
	if batch <= 0 {
		batch = 100
	}
	done := 0
	for {
		pending, err := s.repo.ListWithoutEmbedding(ctx, batch)
		if err != nil {
			return done, fmt.Errorf("list pending: %w", err)
		}
		if len(pending) == 0 {
			return done, nil
		}
		for i := range pending {
			if err := s.Embed(ctx, &pending[i]); err != nil {
				if errors.Is(err, domain.ErrPromptNotFound) {
					continue
				}
				return done, err
			}
			done++
		}
		s.logger.Info("Backfill progress", zap.Int("embedded", done))
	}
}

// Reindex copies every stored embedding into the vector index. No-op without one.
func (s *Service) Reindex(ctx context.Context, batch int) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	if batch <= 0 {
		batch = 500
	}
	done, after := 0, ""
	for {
		page, err := s.repo.ListEmbedded(ctx, after, batch)
		if err != nil {
			return done, fmt.Errorf("list embedded: %w", err)
		}
		for i := range page {
			if err := s.index.Upsert(ctx, &page[i]); err != nil {
				return done, fmt.Errorf("index %s: %w", page[i].ID(), err)
			}
			done++
		}
		if len(page) < batch {
			return done, nil
		}
		after = page[len(page)-1].ID()
	}
}
