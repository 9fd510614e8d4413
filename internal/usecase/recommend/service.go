package recommend

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/domain/interaction"
	"github.com/kailas-cloud/promptdex/internal/domain/prompt"
	domrec "github.com/kailas-cloud/promptdex/internal/domain/recommend"
	"github.com/kailas-cloud/promptdex/internal/domain/vector"
	"github.com/kailas-cloud/promptdex/internal/metrics"
	"github.com/kailas-cloud/promptdex/internal/usecase/memoize"
)

// Cache namespaces.
const (
	nsProfile  = memoize.NamespaceProfile
	nsRecs     = memoize.NamespaceRecs
	nsSimilar  = memoize.NamespaceSimilar
	nsTrending = memoize.NamespaceTrending
)

// Config tunes the recommendation engine.
type Config struct {
	// ProfileInteractions is N, the number of recent interactions in a profile.
	ProfileInteractions int
	// MinSimilarity drops neighbours below it; 0 keeps everything.
	MinSimilarity      float64
	MaxLimit           int
	ProfileTTL         time.Duration
	RecommendationsTTL time.Duration
	SimilarTTL         time.Duration
	TrendingTTL        time.Duration
	// FallbackWindow is the trending window served to users without a profile.
	FallbackWindow domrec.Window
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		ProfileInteractions: 50,
		MaxLimit:            50,
		ProfileTTL:          10 * time.Minute,
		RecommendationsTTL:  5 * time.Minute,
		SimilarTTL:          5 * time.Minute,
		TrendingTTL:         5 * time.Minute,
		FallbackWindow:      domrec.Week,
	}
}

// Service is the recommendation engine: interest profiles, personalized and
// similar-prompt recommendations, trending, and interaction recording.
type Service struct {
	interactions InteractionStore
	prompts      PromptReader
	index        VectorIndex
	memo         *memoize.Memo
	cfg          Config
	logger       *zap.Logger
	now          func() time.Time
}

// New creates a recommendation service.
func New(
	interactions InteractionStore, prompts PromptReader, index VectorIndex,
	memo *memoize.Memo, cfg Config, logger *zap.Logger,
) *Service {
	if cfg.ProfileInteractions <= 0 {
		cfg.ProfileInteractions = 50
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 50
	}
	if !cfg.FallbackWindow.IsValid() {
		cfg.FallbackWindow = domrec.Week
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		interactions: interactions,
		prompts:      prompts,
		index:        index,
		memo:         memo,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// userProfile is the cached interest profile. Vector is nil when the user has
// no embedded interactions. Seen lists every prompt in the profile window.
type userProfile struct {
	Vector []float32 `json:"vector,omitempty"`
	Seen   []string  `json:"seen,omitempty"`
}

func profileKey(userID string) string {
	return memoize.KeyPrefix + nsProfile + ":" + memoize.UserScope(userID)
}

// Profile returns the user's weighted-mean interest vector, or nil when there is none.
func (s *Service) Profile(ctx context.Context, userID string) ([]float32, error) {
	if userID == "" {
		return nil, domain.Invalidf("user is required")
	}
	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return p.Vector, nil
}

func (s *Service) profile(ctx context.Context, userID string) (userProfile, error) {
	return memoize.Fetch(ctx, s.memo, nsProfile, profileKey(userID), s.cfg.ProfileTTL,
		func(ctx context.Context) (userProfile, error) {
			signals, err := s.interactions.RecentSignals(ctx, userID, s.cfg.ProfileInteractions)
			if err != nil {
				return userProfile{}, fmt.Errorf("recent signals: %w", err)
			}
			return buildProfile(signals)
		})
}

// buildProfile averages embeddings weighted by interaction type. Signals without
// an embedding, or whose dimension differs from the first usable one, are skipped.
func buildProfile(signals []interaction.Signal) (userProfile, error) {
	var p userProfile
	weighted := make([]vector.Weighted, 0, len(signals))
	seen := make(map[string]struct{}, len(signals))

	for _, sig := range signals {
		if _, ok := seen[sig.PromptID]; !ok {
			seen[sig.PromptID] = struct{}{}
			p.Seen = append(p.Seen, sig.PromptID)
		}
		if len(sig.Embedding) == 0 {
			continue
		}
		weighted = append(weighted, vector.Weighted{Vector: sig.Embedding, Weight: sig.Type.Weight()})
	}

	mean, err := vector.WeightedMean(weighted)
	switch {
	case errors.Is(err, vector.ErrNoVectors):
		return p, nil
	case err != nil:
		return userProfile{}, fmt.Errorf("profile vector: %w", err)
	}
	p.Vector = mean
	return p, nil
}

// Recommendations returns public prompts nearest to the user's profile, excluding
// the user's own prompts, prompts already interacted with and exclude.
// Users without a profile get trending prompts instead.
func (s *Service) Recommendations(
	ctx context.Context, userID string, limit int, exclude []string,
) (domrec.Recommendations, error) {
	if userID == "" {
		return domrec.Recommendations{}, domain.Invalidf("user is required")
	}
	limit, err := s.clampLimit(limit)
	if err != nil {
		return domrec.Recommendations{}, err
	}

	exclude = slices.Clone(exclude)
	slices.Sort(exclude)
	exclude = slices.Compact(exclude)

	key := memoize.ScopedKey(nsRecs, memoize.UserScope(userID), limit, strings.Join(exclude, ","))
	return memoize.Fetch(ctx, s.memo, nsRecs, key, s.cfg.RecommendationsTTL,
		func(ctx context.Context) (domrec.Recommendations, error) {
			return s.recommend(ctx, userID, limit, exclude)
		})
}

func (s *Service) recommend(
	ctx context.Context, userID string, limit int, exclude []string,
) (domrec.Recommendations, error) {
	prof, err := s.profile(ctx, userID)
	if err != nil {
		return domrec.Recommendations{}, err
	}

	if prof.Vector == nil {
		metrics.RecommendationFallbacksTotal.Inc()
		s.logger.Debug("No profile, serving trending", zap.String("user_scope", memoize.UserScope(userID)))
		items, err := s.Trending(ctx, s.cfg.FallbackWindow, limit)
		if err != nil {
			return domrec.Recommendations{}, fmt.Errorf("trending fallback: %w", err)
		}
		return domrec.Recommendations{Items: items, Source: domrec.Trending}, nil
	}

	excluded := append(slices.Clone(prof.Seen), exclude...)
	neighbors, err := s.index.Nearest(ctx, vector.NearestQuery{
		Vector:       prof.Vector,
		K:            2 * limit,
		MinScore:     s.cfg.MinSimilarity,
		PublicOnly:   true,
		ExcludeOwner: userID,
		ExcludeIDs:   excluded,
	})
	if err != nil {
		return domrec.Recommendations{}, fmt.Errorf("nearest to profile: %w", err)
	}

	skip := make(map[string]struct{}, len(excluded))
	for _, id := range excluded {
		skip[id] = struct{}{}
	}
	items, err := s.itemsFor(ctx, prof.Vector, neighbors, func(p *prompt.Prompt) bool {
		_, excludedID := skip[p.ID()]
		return p.IsPublic() && p.OwnerID() != userID && !excludedID
	})
	if err != nil {
		return domrec.Recommendations{}, err
	}
	return domrec.Recommendations{Items: truncate(items, limit), Source: domrec.Personalized}, nil
}

// Similar returns public prompts nearest to the given prompt, excluding itself.
// A prompt without an embedding yields an empty list. userID is the caller and
// must be able to see the source prompt.
func (s *Service) Similar(ctx context.Context, promptID, userID string, limit int) ([]domrec.Item, error) {
	limit, err := s.clampLimit(limit)
	if err != nil {
		return nil, err
	}

	src, err := s.prompts.Get(ctx, promptID)
	if err != nil {
		return nil, fmt.Errorf("get prompt: %w", err)
	}
	if !src.VisibleTo(userID) {
		return nil, domain.ErrPromptNotFound
	}
	if !src.HasEmbedding() {
		return []domrec.Item{}, nil
	}

	key := memoize.Key(nsSimilar, promptID, limit)
	return memoize.Fetch(ctx, s.memo, nsSimilar, key, s.cfg.SimilarTTL,
		func(ctx context.Context) ([]domrec.Item, error) {
			neighbors, err := s.index.Nearest(ctx, vector.NearestQuery{
				Vector:     src.Embedding(),
				K:          limit,
				MinScore:   s.cfg.MinSimilarity,
				PublicOnly: true,
				ExcludeIDs: []string{promptID},
			})
			if err != nil {
				return nil, fmt.Errorf("nearest to prompt: %w", err)
			}
			items, err := s.itemsFor(ctx, src.Embedding(), neighbors, func(p *prompt.Prompt) bool {
				return p.IsPublic() && p.ID() != promptID
			})
			if err != nil {
				return nil, err
			}
			return truncate(items, limit), nil
		})
}

// itemsFor joins neighbours to titles and drops what keep rejects. Scores are
// recomputed from the stored embeddings, which the index may trail after a
// re-embed, so the result is ordered by exact similarity to query.
func (s *Service) itemsFor(
	ctx context.Context, query []float32, neighbors []vector.Neighbor, keep func(*prompt.Prompt) bool,
) ([]domrec.Item, error) {
	items := make([]domrec.Item, 0, len(neighbors))
	if len(neighbors) == 0 {
		return items, nil
	}

	ids := make([]string, len(neighbors))
	for i, n := range neighbors {
		ids[i] = n.ID
	}
	prompts, err := s.prompts.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load neighbours: %w", err)
	}
	byID := make(map[string]*prompt.Prompt, len(prompts))
	for i := range prompts {
		byID[prompts[i].ID()] = &prompts[i]
	}

	for _, n := range neighbors {
		p, ok := byID[n.ID]
		if !ok || !keep(p) {
			continue
		}
		score := exactScore(query, p, n.Score)
		if score < s.cfg.MinSimilarity {
			continue
		}
		items = append(items, domrec.Item{ID: p.ID(), Title: p.Title(), Score: score})
	}
	slices.SortStableFunc(items, func(a, b domrec.Item) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return items, nil
}

// exactScore is the cosine similarity of query and the prompt's stored
// embedding, or indexed when the two are not comparable.
func exactScore(query []float32, p *prompt.Prompt, indexed float64) float64 {
	emb := p.Embedding()
	if len(emb) == 0 || len(emb) != len(query) {
		return indexed
	}
	return vector.Normalize01(vector.Cosine(query, emb))
}

// RecordInteraction upserts the interaction and bumps the prompt counter, then drops
// the user's cached profile and personalized recommendations. Prompts the user
// cannot see are reported as not found.
func (s *Service) RecordInteraction(ctx context.Context, userID, promptID string, t interaction.Type) error {
	in, err := interaction.New(userID, promptID, t, s.now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	p, err := s.prompts.Get(ctx, promptID)
	if err != nil {
		return fmt.Errorf("get prompt: %w", err)
	}
	if !p.VisibleTo(userID) {
		return domain.ErrPromptNotFound
	}
	if err := s.interactions.Record(ctx, in); err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}

	s.memo.Invalidate(ctx,
		profileKey(userID),
		memoize.ScopePattern(nsRecs, memoize.UserScope(userID)),
	)
	return nil
}

func (s *Service) clampLimit(limit int) (int, error) {
	if limit <= 0 {
		return 0, domain.Invalidf("limit must be a positive integer")
	}
	return min(limit, s.cfg.MaxLimit), nil
}

func truncate(items []domrec.Item, limit int) []domrec.Item {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
