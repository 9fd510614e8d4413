package chi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/domain/interaction"
	domprompt "github.com/kailas-cloud/promptdex/internal/domain/prompt"
	domrec "github.com/kailas-cloud/promptdex/internal/domain/recommend"
	"github.com/kailas-cloud/promptdex/internal/domain/search/request"
	"github.com/kailas-cloud/promptdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/promptdex/internal/usecase/health"
	promptuc "github.com/kailas-cloud/promptdex/internal/usecase/prompt"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testPrompt(id, owner string, public bool) domprompt.Prompt {
	return domprompt.Reconstruct(id, owner, "Title "+id, "Content "+id, []string{"go"}, public,
		[]float32{1, 0}, "test-model", &testTime, domprompt.Counters{Views: 3}, nil, testTime, testTime)
}

type mockSearcher struct {
	page    result.Page
	err     error
	last    request.Request
	embedFn func(ctx context.Context)
}

func (m *mockSearcher) Search(ctx context.Context, req *request.Request) (result.Page, error) {
	m.last = *req
	if m.embedFn != nil {
		m.embedFn(ctx)
	}
	return m.page, m.err
}

type mockRecommender struct {
	recs    domrec.Recommendations
	items   []domrec.Item
	err     error
	user    string
	limit   int
	exclude []string
	id      string
	window  domrec.Window
	recType interaction.Type
}

func (m *mockRecommender) Recommendations(_ context.Context, userID string, limit int, exclude []string) (domrec.Recommendations, error) {
	m.user, m.limit, m.exclude = userID, limit, exclude
	return m.recs, m.err
}

func (m *mockRecommender) Similar(_ context.Context, promptID, userID string, limit int) ([]domrec.Item, error) {
	m.id, m.user, m.limit = promptID, userID, limit
	return m.items, m.err
}

func (m *mockRecommender) Trending(_ context.Context, window domrec.Window, limit int) ([]domrec.Item, error) {
	m.window, m.limit = window, limit
	return m.items, m.err
}

func (m *mockRecommender) RecordInteraction(_ context.Context, userID, promptID string, t interaction.Type) error {
	m.user, m.id, m.recType = userID, promptID, t
	return m.err
}

type mockPrompts struct {
	prompt domprompt.Prompt
	err    error
	user   string
	id     string
	input  promptuc.Input
}

func (m *mockPrompts) Create(ctx context.Context, ownerID string, in promptuc.Input) (domprompt.Prompt, error) {
	m.user, m.input = ownerID, in
	domain.UsageFromContext(ctx).AddTokens(7)
	return m.prompt, m.err
}

func (m *mockPrompts) Get(_ context.Context, id, userID string) (domprompt.Prompt, error) {
	m.id, m.user = id, userID
	return m.prompt, m.err
}

func (m *mockPrompts) Update(_ context.Context, id, userID string, in promptuc.Input) (domprompt.Prompt, error) {
	m.id, m.user, m.input = id, userID, in
	return m.prompt, m.err
}

func (m *mockPrompts) Delete(_ context.Context, id, userID string) error {
	m.id, m.user = id, userID
	return m.err
}

type mockAuthoring struct {
	text string
	tags []string
	err  error
}

func (m *mockAuthoring) Generate(context.Context, string) (string, error) { return m.text, m.err }

func (m *mockAuthoring) Refine(context.Context, string, string) (string, error) { return m.text, m.err }

func (m *mockAuthoring) SuggestTags(context.Context, string, string) ([]string, error) {
	return m.tags, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type fixture struct {
	search    *mockSearcher
	recommend *mockRecommender
	prompts   *mockPrompts
	authoring *mockAuthoring
	health    *mockHealth
	handler   http.Handler
}

func newFixture(t *testing.T, withAuthoring bool) *fixture {
	t.Helper()
	f := &fixture{
		search:    &mockSearcher{},
		recommend: &mockRecommender{},
		prompts:   &mockPrompts{},
		authoring: &mockAuthoring{},
		health:    &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}},
	}
	svc := Services{
		Search:    f.search,
		Recommend: f.recommend,
		Prompts:   f.prompts,
		Health:    f.health,
	}
	if withAuthoring {
		svc.Authoring = f.authoring
	}
	server := NewServer(svc, Limits{SearchDefault: 20, SearchMax: 50, RecommendDefault: 10}, nil)
	f.handler = Handler(server, RouterOptions{
		Middlewares: []func(http.Handler) http.Handler{IdentityMiddleware()},
	})
	return f
}

func (f *fixture) do(t *testing.T, method, target, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if user != "" {
		req.Header.Set(UserIDHeader, user)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}
