package handler

import (
	"net/http"
	"time"

	"github.com/msankrish92/userstory-rating-rag/internal/apperr"
	"github.com/msankrish92/userstory-rating-rag/internal/model"
	"github.com/msankrish92/userstory-rating-rag/internal/service"
)

// searchRequest is the common request body shared by the vector, bm25 and
// hybrid endpoints.
type searchRequest struct {
	Query        string            `json:"query"`
	Limit        int               `json:"limit,omitempty"`
	Filters      map[string]string `json:"filters,omitempty"`
	Fields       []string          `json:"fields,omitempty"`
	BM25Fields   []string          `json:"bm25Fields,omitempty"`
	BM25Weight   *float64          `json:"bm25Weight,omitempty"`
	VectorWeight *float64          `json:"vectorWeight,omitempty"`
}

// Search handles POST /api/search — the pure vector-similarity path.
func Search(deps SearchDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Query == "" {
			respondError(w, http.StatusBadRequest, "query is required")
			return
		}
		limit := deps.limitOrDefault(req.Limit)

		vec, usage, err := deps.Embedder.EmbedWithUsage(r.Context(), req.Query)
		if err != nil {
			respondErr(w, apperr.EmbeddingFailure(err))
			return
		}

		results, err := deps.Vector.Search(r.Context(), vec, numCandidatesFor(limit), req.Filters)
		if err != nil {
			respondErr(w, apperr.BackendUnavailable("vector search backend", err))
			return
		}
		if len(results) > limit {
			results = results[:limit]
		}

		respondJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]interface{}{
			"query":   req.Query,
			"filters": req.Filters,
			"results": results,
			"cost":    usage.Cost,
			"tokens":  usage.TotalTokens,
		}})
	}
}

// BM25Search handles POST /api/search/bm25 — the pure lexical path.
func BM25Search(deps SearchDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		var req searchRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Query == "" {
			respondError(w, http.StatusBadRequest, "query is required")
			return
		}
		limit := deps.limitOrDefault(req.Limit)
		weights := fieldWeightsFor(deps.FieldWeights, req.Fields)

		results, err := deps.Lexical.Search(r.Context(), req.Query, limit, req.Filters, weights)
		if err != nil {
			respondErr(w, apperr.BackendUnavailable("lexical search backend", err))
			return
		}

		respondJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]interface{}{
			"searchType": "bm25",
			"results":    results,
			"count":      len(results),
			"searchTime": time.Since(start).Milliseconds(),
		}})
	}
}

// HybridSearch handles POST /api/search/hybrid — retrieve, fuse and return,
// without deduplication or summarisation.
func HybridSearch(deps SearchDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		var req searchRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Query == "" {
			respondError(w, http.StatusBadRequest, "query is required")
			return
		}
		limit := deps.limitOrDefault(req.Limit)
		weights := fieldWeightsFor(deps.FieldWeights, req.BM25Fields)

		fusionWeights := service.FusionWeights{Lexical: deps.DefaultBM25Weight, Vector: deps.DefaultVectorWeight}
		if req.BM25Weight != nil {
			fusionWeights.Lexical = *req.BM25Weight
		}
		if req.VectorWeight != nil {
			fusionWeights.Vector = *req.VectorWeight
		}

		lexical, err := deps.Lexical.Search(r.Context(), req.Query, limit, req.Filters, weights)
		if err != nil {
			respondErr(w, apperr.BackendUnavailable("lexical search backend", err))
			return
		}

		var vector []model.Candidate
		var degraded bool
		vec, usage, err := deps.Embedder.EmbedWithUsage(r.Context(), req.Query)
		if err != nil {
			degraded = true
		} else {
			vector, err = deps.Vector.Search(r.Context(), vec, numCandidatesFor(limit), req.Filters)
			if err != nil {
				respondErr(w, apperr.BackendUnavailable("vector search backend", err))
				return
			}
		}

		fused, err := service.Fuse(lexical, vector, service.PolicyWeightedNormalised, fusionWeights)
		if err != nil {
			respondErr(w, err)
			return
		}
		if len(fused) > limit {
			fused = fused[:limit]
		}

		respondJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]interface{}{
			"searchType": "hybrid",
			"results":    fused,
			"stats": map[string]interface{}{
				"lexicalCount": len(lexical),
				"vectorCount":  len(vector),
				"degraded":     degraded,
			},
			"timing": map[string]interface{}{
				"totalMs": time.Since(start).Milliseconds(),
			},
			"cost":   usage.Cost,
			"tokens": usage.TotalTokens,
		}})
	}
}
