package recommend

import (
	"context"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/domain/interaction"
	"github.com/kailas-cloud/promptdex/internal/domain/prompt"
	domrec "github.com/kailas-cloud/promptdex/internal/domain/recommend"
	"github.com/kailas-cloud/promptdex/internal/domain/vector"
	"github.com/kailas-cloud/promptdex/internal/usecase/memoize"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func makePrompt(t *testing.T, id, owner string, public bool, emb []float32, views int64) prompt.Prompt {
	t.Helper()
	p := prompt.Reconstruct(
		id, owner, "title "+id, "content "+id, []string{}, public,
		emb, "test-model", nil,
		prompt.Counters{Views: views},
		nil, testNow, testNow,
	)
	return p
}

type fakeInteractions struct {
	mu        sync.Mutex
	recorded  []interaction.Interaction
	signals   map[string][]interaction.Signal
	counts    []interaction.Count
	since     time.Time
	recordErr error
	calls     int
	// embeddings lets Record append a signal the way the real join would.
	embeddings map[string][]float32
}

func newFakeInteractions() *fakeInteractions {
	return &fakeInteractions{signals: make(map[string][]interaction.Signal), embeddings: make(map[string][]float32)}
}

// Record upserts on (user, prompt, type) like the unique index of the real table.
func (f *fakeInteractions) Record(_ context.Context, in interaction.Interaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recorded = slices.DeleteFunc(f.recorded, func(r interaction.Interaction) bool {
		return r.UserID == in.UserID && r.PromptID == in.PromptID && r.Type == in.Type
	})
	f.recorded = append(f.recorded, in)
	rest := slices.DeleteFunc(f.signals[in.UserID], func(s interaction.Signal) bool {
		return s.PromptID == in.PromptID && s.Type == in.Type
	})
	f.signals[in.UserID] = append([]interaction.Signal{{
		PromptID: in.PromptID, Type: in.Type, At: in.At, Embedding: f.embeddings[in.PromptID],
	}}, rest...)
	return nil
}

func (f *fakeInteractions) RecentSignals(_ context.Context, userID string, n int) ([]interaction.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.signals[userID]
	if len(s) > n {
		s = s[:n]
	}
	return slices.Clone(s), nil
}

func (f *fakeInteractions) WindowCounts(_ context.Context, since time.Time) ([]interaction.Count, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.since = since
	return slices.Clone(f.counts), nil
}

type fakePrompts struct {
	byID map[string]prompt.Prompt
}

func newFakePrompts(prompts ...prompt.Prompt) *fakePrompts {
	f := &fakePrompts{byID: make(map[string]prompt.Prompt)}
	for _, p := range prompts {
		f.byID[p.ID()] = p
	}
	return f
}

func (f *fakePrompts) Get(_ context.Context, id string) (prompt.Prompt, error) {
	p, ok := f.byID[id]
	if !ok {
		return prompt.Prompt{}, domain.ErrPromptNotFound
	}
	return p, nil
}

func (f *fakePrompts) GetMany(_ context.Context, ids []string) ([]prompt.Prompt, error) {
	out := make([]prompt.Prompt, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePrompts) TopViewed(_ context.Context, limit int) ([]prompt.Prompt, error) {
	out := make([]prompt.Prompt, 0, len(f.byID))
	for _, p := range f.byID {
		if p.IsPublic() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Counters().Views != out[j].Counters().Views {
			return out[i].Counters().Views > out[j].Counters().Views
		}
		return out[i].ID() < out[j].ID()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeIndex ranks stored prompts by cosine similarity and honours every filter.
type fakeIndex struct {
	prompts *fakePrompts
	err     error
	queries []vector.NearestQuery
}

func (f *fakeIndex) Nearest(_ context.Context, q vector.NearestQuery) ([]vector.Neighbor, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	var out []vector.Neighbor
	for _, p := range f.prompts.byID {
		if !p.HasEmbedding() ||
			(q.PublicOnly && !p.IsPublic()) ||
			(q.ExcludeOwner != "" && p.OwnerID() == q.ExcludeOwner) ||
			slices.Contains(q.ExcludeIDs, p.ID()) {
			continue
		}
		score := vector.Normalize01(vector.Cosine(q.Vector, p.Embedding()))
		if score < q.MinScore {
			continue
		}
		out = append(out, vector.Neighbor{ID: p.ID(), Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > q.K {
		out = out[:q.K]
	}
	return out, nil
}

// staleIndex answers with fixed neighbours, as an index not yet caught up with re-embeds.
type staleIndex []vector.Neighbor

func (s staleIndex) Nearest(context.Context, vector.NearestQuery) ([]vector.Neighbor, error) {
	return slices.Clone(s), nil
}

func (f *fakeIndex) lastQuery(t *testing.T) vector.NearestQuery {
	t.Helper()
	require.NotEmpty(t, f.queries, "vector index was not queried")
	return f.queries[len(f.queries)-1]
}

type fixture struct {
	interactions *fakeInteractions
	prompts      *fakePrompts
	index        *fakeIndex
	svc          *Service
}

func newFixture(t *testing.T, memo *memoize.Memo, prompts ...prompt.Prompt) *fixture {
	t.Helper()
	fp := newFakePrompts(prompts...)
	fi := newFakeInteractions()
	for _, p := range prompts {
		fi.embeddings[p.ID()] = p.Embedding()
	}
	idx := &fakeIndex{prompts: fp}
	svc := New(fi, fp, idx, memo, DefaultConfig(), zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return &fixture{interactions: fi, prompts: fp, index: idx, svc: svc}
}

func itemIDs(items []domrec.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
