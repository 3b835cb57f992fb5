package handler

import (
	"log/slog"
	"net/http"

	"github.com/msankrish92/userstory-rating-rag/internal/apperr"
	"github.com/msankrish92/userstory-rating-rag/internal/model"
	"github.com/msankrish92/userstory-rating-rag/internal/service"
)

type summarizeRequest struct {
	Results     []model.RankedCandidate `json:"results"`
	SummaryType string                  `json:"summaryType,omitempty"`
}

func summaryStyleFor(summaryType string) service.SummaryStyle {
	if summaryType == string(service.SummaryDetailed) {
		return service.SummaryDetailed
	}
	return service.SummaryConcise
}

// Summarize handles POST /api/search/summarize: run C6 standalone over a
// caller-supplied result set.
func Summarize(deps SearchDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req summarizeRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if deps.Completer == nil {
			respondError(w, http.StatusServiceUnavailable, "summariser not configured")
			return
		}

		result, err := service.Summarize(r.Context(), deps.Completer, req.Results, summaryStyleFor(req.SummaryType), deps.SummaryMaxItems)
		if err != nil {
			// A summariser failure is never fatal to the caller: the
			// orchestrator treats it the same way (service/orchestrator.go).
			sumErr := apperr.SummariserFailure(err)
			slog.Warn("[PIPELINE] summarize endpoint: summariser failed, returning degraded response", "error", err)
			respondJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]interface{}{
				"summary": nil,
				"warning": sumErr.Message,
			}})
			return
		}

		respondJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]interface{}{
			"summary": result.Text,
			"tokens":  result.PromptTokens + result.CompletionTokens,
			"cost":    result.Cost,
			"model":   deps.CompletionModel,
		}})
	}
}
