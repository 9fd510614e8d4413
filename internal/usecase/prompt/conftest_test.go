package prompt

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/domain"
	domprompt "github.com/kailas-cloud/promptdex/internal/domain/prompt"
	"github.com/kailas-cloud/promptdex/internal/domain/vector"
	"github.com/kailas-cloud/promptdex/internal/repository/cache"
	"github.com/kailas-cloud/promptdex/internal/usecase/memoize"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type mockRepo struct {
	prompts map[string]domprompt.Prompt
	setErr  error
}

func newMockRepo() *mockRepo {
	return &mockRepo{prompts: make(map[string]domprompt.Prompt)}
}

func (m *mockRepo) Create(_ context.Context, p *domprompt.Prompt) error {
	m.prompts[p.ID()] = *p
	return nil
}

func (m *mockRepo) Get(_ context.Context, id string) (domprompt.Prompt, error) {
	p, ok := m.prompts[id]
	if !ok {
		return domprompt.Prompt{}, domain.ErrPromptNotFound
	}
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *domprompt.Prompt) error {
	if _, ok := m.prompts[p.ID()]; !ok {
		return domain.ErrPromptNotFound
	}
	m.prompts[p.ID()] = *p
	return nil
}

func (m *mockRepo) SetEmbedding(_ context.Context, id string, vec []float32, model string, at time.Time) error {
	if m.setErr != nil {
		return m.setErr
	}
	p, ok := m.prompts[id]
	if !ok {
		return domain.ErrPromptNotFound
	}
	p.SetEmbedding(vec, model, at)
	m.prompts[id] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.prompts[id]; !ok {
		return domain.ErrPromptNotFound
	}
	delete(m.prompts, id)
	return nil
}

func (m *mockRepo) sorted() []domprompt.Prompt {
	out := make([]domprompt.Prompt, 0, len(m.prompts))
	for _, p := range m.prompts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (m *mockRepo) ListWithoutEmbedding(_ context.Context, limit int) ([]domprompt.Prompt, error) {
	var out []domprompt.Prompt
	for _, p := range m.sorted() {
		if !p.HasEmbedding() && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRepo) ListEmbedded(_ context.Context, afterID string, limit int) ([]domprompt.Prompt, error) {
	var out []domprompt.Prompt
	for _, p := range m.sorted() {
		if p.HasEmbedding() && p.ID() > afterID && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

// KeywordSearch matches title or content substrings, visibility-filtered, by id.
func (m *mockRepo) KeywordSearch(_ context.Context, query, userID string, limit int) ([]domprompt.Prompt, error) {
	var out []domprompt.Prompt
	for _, p := range m.sorted() {
		if !p.VisibleTo(userID) || len(out) == limit {
			continue
		}
		if strings.Contains(p.Title(), query) || strings.Contains(p.Content(), query) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRepo) GetMany(_ context.Context, ids []string) ([]domprompt.Prompt, error) {
	out := make([]domprompt.Prompt, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.prompts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type noNeighbors struct{}

func (noNeighbors) Nearest(context.Context, vector.NearestQuery) ([]vector.Neighbor, error) {
	return nil, nil
}

func newTestMemo() *memoize.Memo {
	return memoize.New(cache.NewMemory(100, time.Hour), zap.NewNop())
}

type mockEmbedder struct {
	err   error
	texts []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text)), 1}, Model: "test-model"}, nil
}

type mockIndex struct {
	upserts map[string]bool // id -> public at last upsert
	removed []string
}

func newMockIndex() *mockIndex {
	return &mockIndex{upserts: make(map[string]bool)}
}

func (m *mockIndex) Upsert(_ context.Context, p *domprompt.Prompt) error {
	m.upserts[p.ID()] = p.IsPublic()
	return nil
}

func (m *mockIndex) Remove(_ context.Context, id string) error {
	m.removed = append(m.removed, id)
	delete(m.upserts, id)
	return nil
}

func newTestService(repo *mockRepo, emb *mockEmbedder, idx IndexWriter) *Service {
	s := New(repo, emb, idx, nil, zap.NewNop())
	s.now = func() time.Time { return testNow }
	n := 0
	s.newID = func() string {
		n++
		return "p" + string(rune('0'+n))
	}
	return s
}
