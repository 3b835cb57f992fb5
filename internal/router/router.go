package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/msankrish92/userstory-rating-rag/internal/handler"
	"github.com/msankrish92/userstory-rating-rag/internal/middleware"
)

// Dependencies holds everything the router needs to wire the retrieval API.
type Dependencies struct {
	DB          handler.DBPinger
	FrontendURL string
	Version     string
	Metrics     *middleware.Metrics
	MetricsReg  *prometheus.Registry

	Search handler.SearchDeps

	// GeneralRateLimiter, if set, is applied to every /api/search* and
	// /api/jobs* route. nil disables rate limiting.
	GeneralRateLimiter *middleware.RateLimiter
}

// New builds the Chi router exposing the retrieval/reranking API.
func New(deps *Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(deps.FrontendURL))
	if deps.Metrics != nil {
		r.Use(middleware.Monitoring(deps.Metrics))
	}

	r.Get("/api/health", handler.Health(deps.DB, deps.Version))
	if deps.MetricsReg != nil {
		r.Handle("/metrics", middleware.MetricsHandler(deps.MetricsReg))
	}

	timeout30s := middleware.Timeout(30 * time.Second)

	r.Group(func(r chi.Router) {
		if deps.GeneralRateLimiter != nil {
			r.Use(middleware.RateLimit(deps.GeneralRateLimiter))
		}

		r.With(timeout30s).Post("/api/search", handler.Search(deps.Search))
		r.With(timeout30s).Post("/api/search/bm25", handler.BM25Search(deps.Search))
		r.With(timeout30s).Post("/api/search/hybrid", handler.HybridSearch(deps.Search))
		// Rerank runs the full fan-out/fuse/dedup pipeline and can take
		// longer than a single-source search.
		r.With(middleware.Timeout(60 * time.Second)).Post("/api/search/rerank", handler.Rerank(deps.Search))
		r.With(timeout30s).Post("/api/search/preprocess", handler.Preprocess())
		r.With(timeout30s).Post("/api/search/deduplicate", handler.Deduplicate(deps.Search))
		// Summarisation calls out to a completion model; give it more room.
		r.With(middleware.Timeout(45 * time.Second)).Post("/api/search/summarize", handler.Summarize(deps.Search))

		r.With(timeout30s).Get("/api/metadata/distinct", handler.DistinctMetadata(deps.Search))

		r.With(timeout30s).Get("/api/jobs/active", handler.ListActiveJobs(deps.Search))
		r.With(timeout30s).Get("/api/jobs/{id}", handler.GetJob(deps.Search))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "route not found",
		})
	})

	return r
}
