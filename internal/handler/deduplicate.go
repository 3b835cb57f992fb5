package handler

import (
	"net/http"

	"github.com/msankrish92/userstory-rating-rag/internal/model"
	"github.com/msankrish92/userstory-rating-rag/internal/service"
)

type deduplicateRequest struct {
	Results   []model.RankedCandidate `json:"results"`
	Threshold float64                 `json:"threshold,omitempty"`
}

// Deduplicate handles POST /api/search/deduplicate: run C5 standalone over
// a caller-supplied result set (e.g. already fused client-side).
func Deduplicate(deps SearchDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deduplicateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		threshold := req.Threshold
		if threshold <= 0 {
			threshold = deps.DedupThreshold
		}
		if threshold <= 0 {
			threshold = 0.95
		}

		result := service.Deduplicate(req.Results, threshold)

		respondJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]interface{}{
			"deduplicated": result.Kept,
			"duplicates":   result.Removed,
			"stats": map[string]interface{}{
				"inputCount":   len(req.Results),
				"keptCount":    len(result.Kept),
				"removedCount": len(result.Removed),
				"threshold":    threshold,
			},
		}})
	}
}
