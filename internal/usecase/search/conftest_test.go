package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/domain/prompt"
	"github.com/kailas-cloud/promptdex/internal/domain/search/mode"
	"github.com/kailas-cloud/promptdex/internal/domain/search/request"
	"github.com/kailas-cloud/promptdex/internal/domain/search/result"
	"github.com/kailas-cloud/promptdex/internal/domain/vector"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mustPrompt(t *testing.T, id, owner string, public bool) prompt.Prompt {
	t.Helper()
	p, err := prompt.New(id, owner, "title "+id, "content "+id, []string{"go"}, public, testNow)
	if err != nil {
		t.Fatalf("prompt.New(%s): %v", id, err)
	}
	p.SetEmbedding([]float32{1, 0}, "test-model", testNow)
	return p
}

// fakeStore serves both the keyword branch and record re-fetch.
type fakeStore struct {
	mu       sync.Mutex
	byID     map[string]prompt.Prompt
	keyword  []string
	kwErr    error
	kwCalls  int
	getCalls int
}

func newFakeStore(prompts ...prompt.Prompt) *fakeStore {
	s := &fakeStore{byID: make(map[string]prompt.Prompt)}
	for _, p := range prompts {
		s.byID[p.ID()] = p
	}
	return s
}

func (s *fakeStore) KeywordSearch(_ context.Context, _, userID string, limit int) ([]prompt.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kwCalls++
	if s.kwErr != nil {
		return nil, s.kwErr
	}
	out := make([]prompt.Prompt, 0, len(s.keyword))
	for _, id := range s.keyword {
		p := s.byID[id]
		if p.VisibleTo(userID) {
			out = append(out, p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) GetMany(_ context.Context, ids []string) ([]prompt.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	out := make([]prompt.Prompt, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeIndex struct {
	mu        sync.Mutex
	neighbors []vector.Neighbor
	err       error
	last      vector.NearestQuery
	calls     int
}

func (f *fakeIndex) Nearest(_ context.Context, q vector.NearestQuery) ([]vector.Neighbor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = q
	if f.err != nil {
		return nil, f.err
	}
	out := make([]vector.Neighbor, 0, len(f.neighbors))
	for _, n := range f.neighbors {
		if n.Score >= q.MinScore {
			out = append(out, n)
		}
		if len(out) == q.K {
			break
		}
	}
	return out, nil
}

type fakeEmbedder struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
}

func makeRequest(t *testing.T, m mode.Mode, limit int, userID string) *request.Request {
	t.Helper()
	r, err := request.New("test query", m, limit, 50, userID)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &r
}

func ids(results []result.Result) []string {
	out := make([]string, len(results))
	for i := range results {
		out[i] = results[i].ID()
	}
	return out
}
