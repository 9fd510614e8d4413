package chi

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/domain/interaction"
	domprompt "github.com/kailas-cloud/promptdex/internal/domain/prompt"
	domrec "github.com/kailas-cloud/promptdex/internal/domain/recommend"
	"github.com/kailas-cloud/promptdex/internal/domain/search/mode"
	"github.com/kailas-cloud/promptdex/internal/domain/search/request"
	"github.com/kailas-cloud/promptdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/promptdex/internal/usecase/health"
	promptuc "github.com/kailas-cloud/promptdex/internal/usecase/prompt"
	"github.com/kailas-cloud/promptdex/internal/version"
)

// maxBodyBytes bounds JSON request bodies (prompt content is capped at 32KB).
const maxBodyBytes = 64 * 1024

// Limits are the default and maximum page sizes per endpoint family.
type Limits struct {
	SearchDefault    int
	SearchMax        int
	RecommendDefault int
}

// Services groups the use cases behind the API. Authoring may be nil when no
// completion provider is configured.
type Services struct {
	Search    Searcher
	Recommend Recommender
	Prompts   Prompts
	Authoring Authoring
	Health    HealthChecker
}

// Server implements the promptdex HTTP API.
type Server struct {
	search        Searcher
	recommend     Recommender
	prompts       Prompts
	authoring     Authoring
	health        HealthChecker
	limits        Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, limits Limits, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limits.SearchDefault <= 0 {
		limits.SearchDefault = request.DefaultLimit
	}
	if limits.SearchMax <= 0 {
		limits.SearchMax = request.MaxLimit
	}
	if limits.RecommendDefault <= 0 {
		limits.RecommendDefault = 10
	}
	return &Server{
		search:        svc.Search,
		recommend:     svc.Recommend,
		prompts:       svc.Prompts,
		authoring:     svc.Authoring,
		health:        svc.Health,
		limits:        limits,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Search handles GET /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request, params SearchParams) {
	m := mode.Hybrid
	if params.Mode != nil {
		parsed, err := mode.Parse(*params.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
			return
		}
		m = parsed
	}

	req, err := request.New(params.Q, m, intOr(params.Limit, s.limits.SearchDefault), s.limits.SearchMax, UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	page, err := s.search.Search(ctx, &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]SearchResultItem, len(page.Results))
	for i := range page.Results {
		items[i] = searchResultToAPI(&page.Results[i])
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, SearchResponse{
		Results:  items,
		Total:    page.Total(),
		Mode:     string(req.Mode()),
		Degraded: page.Degraded,
	})
}

// Recommendations handles GET /v1/recommendations.
func (s *Server) Recommendations(w http.ResponseWriter, r *http.Request, params RecommendationsParams) {
	recs, err := s.recommend.Recommendations(r.Context(), UserID(r.Context()),
		intOr(params.Limit, s.limits.RecommendDefault), params.Exclude)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RecommendationsResponse{
		Items:  itemsToAPI(recs.Items),
		Source: string(recs.Source),
	})
}

// Similar handles GET /v1/prompts/{id}/similar.
func (s *Server) Similar(w http.ResponseWriter, r *http.Request, id string, params SimilarParams) {
	items, err := s.recommend.Similar(r.Context(), id, UserID(r.Context()),
		intOr(params.Limit, s.limits.RecommendDefault))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ItemListResponse{Items: itemsToAPI(items)})
}

// Trending handles GET /v1/trending.
func (s *Server) Trending(w http.ResponseWriter, r *http.Request, params TrendingParams) {
	raw := ""
	if params.Window != nil {
		raw = *params.Window
	}
	window, err := domrec.ParseWindow(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	items, err := s.recommend.Trending(r.Context(), window, intOr(params.Limit, s.limits.RecommendDefault))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ItemListResponse{Items: itemsToAPI(items)})
}

// RecordInteraction handles POST /v1/interactions.
func (s *Server) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	var req InteractionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := interaction.ParseType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}
	if err := s.recommend.RecordInteraction(r.Context(), UserID(r.Context()), req.PromptID, t); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreatePrompt handles POST /v1/prompts.
func (s *Server) CreatePrompt(w http.ResponseWriter, r *http.Request) {
	var req PromptRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	p, err := s.prompts.Create(ctx, UserID(ctx), inputFromAPI(req))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	w.Header().Set("Location", "/v1/prompts/"+p.ID())
	writeJSON(w, http.StatusCreated, promptToAPI(&p))
}

// GetPrompt handles GET /v1/prompts/{id}.
func (s *Server) GetPrompt(w http.ResponseWriter, r *http.Request, id string) {
	p, err := s.prompts.Get(r.Context(), id, UserID(r.Context()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, promptToAPI(&p))
}

// UpdatePrompt handles PUT /v1/prompts/{id}.
func (s *Server) UpdatePrompt(w http.ResponseWriter, r *http.Request, id string) {
	var req PromptRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	p, err := s.prompts.Update(ctx, id, UserID(ctx), inputFromAPI(req))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, promptToAPI(&p))
}

// DeletePrompt handles DELETE /v1/prompts/{id}.
func (s *Server) DeletePrompt(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.prompts.Delete(r.Context(), id, UserID(r.Context())); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GeneratePrompt handles POST /v1/authoring/generate.
func (s *Server) GeneratePrompt(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !s.authoringEnabled(w, r) || !decodeBody(w, r, &req) {
		return
	}
	text, err := s.authoring.Generate(r.Context(), req.Description)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ContentResponse{Content: text})
}

// RefinePrompt handles POST /v1/authoring/refine.
func (s *Server) RefinePrompt(w http.ResponseWriter, r *http.Request) {
	var req RefineRequest
	if !s.authoringEnabled(w, r) || !decodeBody(w, r, &req) {
		return
	}
	text, err := s.authoring.Refine(r.Context(), req.Content, req.Feedback)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ContentResponse{Content: text})
}

// SuggestTags handles POST /v1/authoring/tags.
func (s *Server) SuggestTags(w http.ResponseWriter, r *http.Request) {
	var req SuggestTagsRequest
	if !s.authoringEnabled(w, r) || !decodeBody(w, r, &req) {
		return
	}
	tags, err := s.authoring.SuggestTags(r.Context(), req.Title, req.Content)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}

func (s *Server) authoringEnabled(w http.ResponseWriter, r *http.Request) bool {
	if s.authoring == nil {
		s.handleDomainError(w, r, domain.ErrNotImplemented)
		return false
	}
	return true
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
		w.Header().Set("X-Embedding-Cache-Hits", strconv.Itoa(usage.CacheHits))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func inputFromAPI(req PromptRequest) promptuc.Input {
	return promptuc.Input{Title: req.Title, Content: req.Content, Tags: req.Tags, Public: req.Public}
}

func promptToAPI(p *domprompt.Prompt) PromptResponse {
	tags := p.Tags()
	if tags == nil {
		tags = []string{}
	}
	c := p.Counters()
	return PromptResponse{
		ID:           p.ID(),
		Title:        p.Title(),
		Content:      p.Content(),
		Tags:         tags,
		OwnerID:      p.OwnerID(),
		Public:       p.IsPublic(),
		ViewCount:    c.Views,
		ForkCount:    c.Forks,
		UseCount:     c.Uses,
		HasEmbedding: p.HasEmbedding(),
		CreatedAt:    p.CreatedAt(),
		UpdatedAt:    p.UpdatedAt(),
	}
}

func searchResultToAPI(r *result.Result) SearchResultItem {
	item := SearchResultItem{PromptResponse: promptToAPI(r.Prompt())}
	if score, ok := r.Score(); ok {
		item.Score = &score
	}
	return item
}

func itemsToAPI(items []domrec.Item) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i, it := range items {
		out[i] = ItemResponse{ID: it.ID, Title: it.Title, Score: it.Score}
	}
	return out
}
