package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ErrorHandlerFunc reports parameter binding failures.
type ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)

// RouterOptions configures Handler.
type RouterOptions struct {
	BaseRouter       chi.Router
	Middlewares      []func(http.Handler) http.Handler
	ErrorHandlerFunc ErrorHandlerFunc
}

// Handler mounts every API route of s on a chi router.
func Handler(s *Server, opts RouterOptions) http.Handler {
	r := opts.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if opts.ErrorHandlerFunc == nil {
		opts.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		}
	}
	b := binder{server: s, errorHandler: opts.ErrorHandlerFunc}

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Use(opts.Middlewares...)

		r.Get("/search", b.search)
		r.Get("/recommendations", b.recommendations)
		r.Get("/trending", b.trending)
		r.Post("/interactions", s.RecordInteraction)

		r.Post("/prompts", s.CreatePrompt)
		r.Get("/prompts/{id}", b.withID(s.GetPrompt))
		r.Put("/prompts/{id}", b.withID(s.UpdatePrompt))
		r.Delete("/prompts/{id}", b.withID(s.DeletePrompt))
		r.Get("/prompts/{id}/similar", b.similar)

		r.Post("/authoring/generate", s.GeneratePrompt)
		r.Post("/authoring/refine", s.RefinePrompt)
		r.Post("/authoring/tags", s.SuggestTags)
	})
	return r
}

// binder decodes path and query parameters before calling the server.
type binder struct {
	server       *Server
	errorHandler ErrorHandlerFunc
}

func (b binder) fail(w http.ResponseWriter, r *http.Request, name string, err error) {
	b.errorHandler(w, r, fmt.Errorf("invalid format for parameter %s: %w", name, err))
}

func (b binder) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		b.fail(w, r, "id", err)
		return "", false
	}
	return id, true
}

func (b binder) withID(h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if id, ok := b.pathID(w, r); ok {
			h(w, r, id)
		}
	}
}

func (b binder) search(w http.ResponseWriter, r *http.Request) {
	var params SearchParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "q", q, &params.Q); err != nil {
		b.fail(w, r, "q", err)
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &params.Limit); err != nil {
		b.fail(w, r, "limit", err)
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "mode", q, &params.Mode); err != nil {
		b.fail(w, r, "mode", err)
		return
	}
	b.server.Search(w, r, params)
}

func (b binder) recommendations(w http.ResponseWriter, r *http.Request) {
	var params RecommendationsParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &params.Limit); err != nil {
		b.fail(w, r, "limit", err)
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "exclude", q, &params.Exclude); err != nil {
		b.fail(w, r, "exclude", err)
		return
	}
	b.server.Recommendations(w, r, params)
}

func (b binder) trending(w http.ResponseWriter, r *http.Request) {
	var params TrendingParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "window", q, &params.Window); err != nil {
		b.fail(w, r, "window", err)
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &params.Limit); err != nil {
		b.fail(w, r, "limit", err)
		return
	}
	b.server.Trending(w, r, params)
}

func (b binder) similar(w http.ResponseWriter, r *http.Request) {
	id, ok := b.pathID(w, r)
	if !ok {
		return
	}
	var params SimilarParams
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
		b.fail(w, r, "limit", err)
		return
	}
	b.server.Similar(w, r, id, params)
}
