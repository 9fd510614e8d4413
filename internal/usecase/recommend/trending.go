package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/promptdex/internal/domain"
	domrec "github.com/kailas-cloud/promptdex/internal/domain/recommend"
	"github.com/kailas-cloud/promptdex/internal/usecase/memoize"
)

type candidate struct {
	id    string
	title string
	score float64
	views int64
}

// Trending ranks public prompts by the weighted sum of interactions inside the
// window, then by lifetime view count, then by id. Prompts with no recent activity
// still compete through their view count.
func (s *Service) Trending(ctx context.Context, window domrec.Window, limit int) ([]domrec.Item, error) {
	if !window.IsValid() {
		return nil, domain.Invalidf("invalid time window: %q", window)
	}
	limit, err := s.clampLimit(limit)
	if err != nil {
		return nil, err
	}

	key := memoize.Key(nsTrending, window, limit)
	return memoize.Fetch(ctx, s.memo, nsTrending, key, s.cfg.TrendingTTL,
		func(ctx context.Context) ([]domrec.Item, error) {
			return s.trending(ctx, window, limit)
		})
}

func (s *Service) trending(ctx context.Context, window domrec.Window, limit int) ([]domrec.Item, error) {
	overfetch := 2 * limit

	counts, err := s.interactions.WindowCounts(ctx, window.Since(s.now()))
	if err != nil {
		return nil, fmt.Errorf("window counts: %w", err)
	}
	scores := make(map[string]float64)
	for _, c := range counts {
		scores[c.PromptID] += c.Type.Weight() * float64(c.N)
	}

	ids := topScored(scores, overfetch)

	top, err := s.prompts.TopViewed(ctx, overfetch)
	if err != nil {
		return nil, fmt.Errorf("top viewed: %w", err)
	}
	for i := range top {
		if _, ok := scores[top[i].ID()]; !ok {
			ids = append(ids, top[i].ID())
		}
	}
	if len(ids) == 0 {
		return []domrec.Item{}, nil
	}

	prompts, err := s.prompts.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load trending: %w", err)
	}

	candidates := make([]candidate, 0, len(prompts))
	for i := range prompts {
		p := &prompts[i]
		if !p.IsPublic() {
			continue
		}
		candidates = append(candidates, candidate{
			id:    p.ID(),
			title: p.Title(),
			score: scores[p.ID()],
			views: p.Counters().Views,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.views != b.views {
			return a.views > b.views
		}
		return a.id < b.id
	})

	items := make([]domrec.Item, 0, min(limit, len(candidates)))
	for _, c := range candidates[:min(limit, len(candidates))] {
		items = append(items, domrec.Item{ID: c.id, Title: c.title, Score: c.score})
	}
	return items, nil
}

// topScored returns the n best-scored ids, extended to every id tied with the
// n-th score so the view-count tiebreak sees all of them.
func topScored(scores map[string]float64, n int) []string {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) <= n {
		return ids
	}
	cut := n
	for cut < len(ids) && scores[ids[cut]] == scores[ids[n-1]] {
		cut++
	}
	return ids[:cut]
}
