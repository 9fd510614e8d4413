package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/promptdex/internal/domain/search/mode"
	"github.com/kailas-cloud/promptdex/internal/domain/search/request"
	"github.com/kailas-cloud/promptdex/internal/domain/search/result"
	"github.com/kailas-cloud/promptdex/internal/domain/vector"
	"github.com/kailas-cloud/promptdex/internal/metrics"
	"github.com/kailas-cloud/promptdex/internal/usecase/memoize"
)

// Config tunes retrieval.
type Config struct {
	// MinSimilarity drops semantic neighbours below it (0..1 scale).
	MinSimilarity float64
	// RRFK is the fusion constant k.
	RRFK int
	// SemanticOverfetch multiplies limit for the vector lookup, since
	// visibility filtering happens after it.
	SemanticOverfetch int
	// KeywordFallback lets hybrid search serve keyword-only results
	// when the semantic branch fails. Off means the whole call fails.
	KeywordFallback bool
	CacheTTL        time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MinSimilarity:     0.1,
		RRFK:              DefaultRRFK,
		SemanticOverfetch: 2,
		CacheTTL:          time.Minute,
	}
}

// Service is the retrieval engine: keyword, semantic and hybrid (RRF) search over prompts.
type Service struct {
	keywords KeywordSearcher
	prompts  PromptReader
	index    VectorIndex
	embed    Embedder
	memo     *memoize.Memo
	cfg      Config
	logger   *zap.Logger
}

// New creates a search service.
func New(
	keywords KeywordSearcher, prompts PromptReader, index VectorIndex, embed Embedder,
	memo *memoize.Memo, cfg Config, logger *zap.Logger,
) *Service {
	if cfg.RRFK <= 0 {
		cfg.RRFK = DefaultRRFK
	}
	if cfg.SemanticOverfetch < 1 {
		cfg.SemanticOverfetch = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		keywords: keywords,
		prompts:  prompts,
		index:    index,
		embed:    embed,
		memo:     memo,
		cfg:      cfg,
		logger:   logger,
	}
}

// Search runs the request's mode and returns at most Limit visible prompts.
// Results are memoized per (query, mode, limit, user); degraded pages are not cached.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Page, error) {
	start := time.Now()
	m := req.Mode()

	key := memoize.Key(string(m), req.Query(), m, req.Limit(), req.UserID())
	cached, err := memoize.FetchIf(ctx, s.memo, string(m), key, s.cfg.CacheTTL,
		func(ctx context.Context) (cachedPage, error) {
			page, err := s.run(ctx, req)
			if err != nil {
				return cachedPage{}, err
			}
			return toCachedPage(page), nil
		},
		func(c cachedPage) bool { return !c.Degraded },
	)

	metrics.SearchDuration.WithLabelValues(string(m)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(m), "error").Inc()
		return result.Page{}, err
	}
	metrics.SearchRequestsTotal.WithLabelValues(string(m), "ok").Inc()

	return fromCachedPage(cached), nil
}

func (s *Service) run(ctx context.Context, req *request.Request) (result.Page, error) {
	var (
		results []result.Result
		err     error
	)

	switch req.Mode() {
	case mode.Keyword:
		results, err = s.searchKeyword(ctx, req)
	case mode.Semantic:
		results, err = s.searchSemantic(ctx, req)
	case mode.Hybrid:
		return s.searchHybrid(ctx, req)
	default:
		return result.Page{}, fmt.Errorf("unsupported search mode: %s", req.Mode())
	}
	if err != nil {
		return result.Page{}, err
	}
	return result.Page{Results: truncate(results, req.Limit())}, nil
}

// searchKeyword returns unscored prompts newest first.
func (s *Service) searchKeyword(ctx context.Context, req *request.Request) ([]result.Result, error) {
	prompts, err := s.keywords.KeywordSearch(ctx, req.Query(), req.UserID(), req.Limit())
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	results := make([]result.Result, 0, len(prompts))
	for i := range prompts {
		if !prompts[i].VisibleTo(req.UserID()) {
			continue
		}
		results = append(results, result.New(prompts[i].WithoutEmbedding()))
	}
	return results, nil
}

// searchSemantic embeds the query, over-fetches neighbours, re-reads the prompts
// and drops what the user may not see. Sorted by similarity descending.
func (s *Service) searchSemantic(ctx context.Context, req *request.Request) ([]result.Result, error) {
	embResult, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	neighbors, err := s.index.Nearest(ctx, vector.NearestQuery{
		Vector:   embResult.Embedding,
		K:        req.Limit() * s.cfg.SemanticOverfetch,
		MinScore: s.cfg.MinSimilarity,
	})
	if err != nil {
		return nil, fmt.Errorf("nearest neighbours: %w", err)
	}
	if len(neighbors) == 0 {
		return []result.Result{}, nil
	}

	ids := make([]string, len(neighbors))
	for i, n := range neighbors {
		ids[i] = n.ID
	}
	prompts, err := s.prompts.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load neighbours: %w", err)
	}
	byID := make(map[string]int, len(prompts))
	for i := range prompts {
		byID[prompts[i].ID()] = i
	}

	results := make([]result.Result, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Score < s.cfg.MinSimilarity {
			continue
		}
		i, ok := byID[n.ID]
		if !ok || !prompts[i].VisibleTo(req.UserID()) {
			continue
		}
		results = append(results, result.NewScored(prompts[i].WithoutEmbedding(), n.Score))
	}

	sort.SliceStable(results, func(i, j int) bool {
		si, _ := results[i].Score()
		sj, _ := results[j].Score()
		return si > sj
	})
	return results, nil
}

// searchHybrid runs keyword and semantic branches concurrently and fuses them via RRF.
// Either branch failing fails the call unless KeywordFallback is set, in which case a
// semantic failure yields a degraded keyword-only page.
func (s *Service) searchHybrid(ctx context.Context, req *request.Request) (result.Page, error) {
	var keyword, semantic []result.Result
	var semanticErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.searchKeyword(gctx, req)
		if err != nil {
			s.logger.Warn("Hybrid branch failed", zap.String("branch", "keyword"), zap.Error(err))
			return err
		}
		keyword = r
		return nil
	})
	g.Go(func() error {
		r, err := s.searchSemantic(gctx, req)
		if err != nil {
			s.logger.Warn("Hybrid branch failed", zap.String("branch", "semantic"), zap.Error(err))
			if s.cfg.KeywordFallback {
				semanticErr = err
				return nil
			}
			return err
		}
		semantic = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return result.Page{}, fmt.Errorf("hybrid search: %w", err)
	}

	if semanticErr != nil {
		return result.Page{
			Results:  truncate(fuseRRF(s.cfg.RRFK, keyword), req.Limit()),
			Degraded: true,
		}, nil
	}

	return result.Page{Results: truncate(fuseRRF(s.cfg.RRFK, keyword, semantic), req.Limit())}, nil
}

func truncate(results []result.Result, limit int) []result.Result {
	if len(results) > limit {
		return results[:limit]
	}
	return results
}
