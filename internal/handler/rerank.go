package handler

import (
	"net/http"
	"time"

	"github.com/msankrish92/userstory-rating-rag/internal/apperr"
	"github.com/msankrish92/userstory-rating-rag/internal/model"
	"github.com/msankrish92/userstory-rating-rag/internal/service"
)

type rerankRequest struct {
	Query        string            `json:"query"`
	Limit        int               `json:"limit,omitempty"`
	Filters      map[string]string `json:"filters,omitempty"`
	FusionMethod string            `json:"fusionMethod"`
	RerankTopK   int               `json:"rerankTopK,omitempty"`
	BM25Weight   *float64          `json:"bm25Weight,omitempty"`
	VectorWeight *float64          `json:"vectorWeight,omitempty"`
}

// fusionPolicyFor maps the wire value of fusionMethod ({rrf, weighted,
// reciprocal}) to a FusionPolicy. The caller must reject an unknown value
// before calling this.
func fusionPolicyFor(method string) service.FusionPolicy {
	switch method {
	case "rrf":
		return service.PolicyRRF
	case "weighted":
		return service.PolicyWeightedNormalised
	case "reciprocal":
		return service.PolicyWeightedReciprocal
	default:
		return service.PolicyRRF
	}
}

// validFusionMethod reports whether method is one of the three wire values
// the rerank endpoint accepts.
func validFusionMethod(method string) bool {
	switch method {
	case "rrf", "weighted", "reciprocal":
		return true
	default:
		return false
	}
}

// Rerank handles POST /api/search/rerank, the direct HTTP exposure of the
// Pipeline Orchestrator (C7): normalise, retrieve both sources, fuse under
// the requested policy, deduplicate, and report before/after snapshots.
// Summarisation is skipped here — that is what /api/search/summarize is for.
func Rerank(deps SearchDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		var req rerankRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Query == "" {
			respondError(w, http.StatusBadRequest, "query is required")
			return
		}
		if !validFusionMethod(req.FusionMethod) {
			respondErr(w, apperr.InvalidArgument("fusionMethod must be one of rrf, weighted, reciprocal"))
			return
		}
		topK := req.RerankTopK
		if topK <= 0 {
			topK = deps.DefaultRerankTopK
		}
		limit := deps.limitOrDefault(req.Limit)

		fusionWeights := service.FusionWeights{Lexical: deps.DefaultBM25Weight, Vector: deps.DefaultVectorWeight}
		if req.BM25Weight != nil {
			fusionWeights.Lexical = *req.BM25Weight
		}
		if req.VectorWeight != nil {
			fusionWeights.Vector = *req.VectorWeight
		}

		result, err := deps.Orchestrator.Run(r.Context(), req.Query, service.RunOptions{
			TopK:           topK,
			NumCandidates:  numCandidatesFor(topK),
			Filters:        req.Filters,
			FieldWeights:   deps.FieldWeights,
			FusionPolicy:   fusionPolicyFor(req.FusionMethod),
			FusionWeights:  fusionWeights,
			DedupThreshold: deps.DedupThreshold,
			Limit:          limit,
			SkipSummary:    true,
		})
		if err != nil {
			respondErr(w, err)
			return
		}

		beforeReranking := append(append([]model.Candidate{}, result.CandidatesLexical...), result.CandidatesVector...)
		afterReranking := result.Deduplicated.Kept

		respondJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]interface{}{
			"fusionMethod":    req.FusionMethod,
			"results":         afterReranking,
			"beforeReranking": beforeReranking,
			"afterReranking":  afterReranking,
			"stats": map[string]interface{}{
				"lexicalCount": len(result.CandidatesLexical),
				"vectorCount":  len(result.CandidatesVector),
				"removedCount": len(result.Deduplicated.Removed),
				"degraded":     result.Degraded,
			},
			"timing": map[string]interface{}{
				"totalMs": time.Since(start).Milliseconds(),
			},
			"cost":   result.Execution.TotalCost,
			"tokens": result.Execution.TotalTokens,
		}})
	}
}
