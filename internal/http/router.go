package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"earnings-ai/internal/handlers"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Query       *handlers.QueryHandler
	Documents   *handlers.DocumentsHandler
	Extract     *handlers.ExtractHandler
	Health      *handlers.HealthHandler
	CORSOrigins []string
}

// NewRouter creates the HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         3600,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/query", deps.Query)

		r.Post("/documents", deps.Documents.Ingest)
		r.Post("/documents/batch", deps.Documents.IngestBatch)
		r.Get("/documents", deps.Documents.List)
		r.Get("/documents/{id}", deps.Documents.Get)

		r.Post("/metrics", deps.Extract.Metrics)
		r.Post("/series", deps.Extract.Series)
		r.Post("/buybacks", deps.Extract.Buybacks)
		r.Post("/guidance", deps.Extract.Guidance)
		r.Post("/guidance/rebuild", deps.Extract.GuidanceRebuild)

		r.Method(http.MethodGet, "/healthz", deps.Health)
	})

	return r
}
