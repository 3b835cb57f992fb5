package handler

import (
	"net/http"

	"github.com/msankrish92/userstory-rating-rag/internal/model"
	"github.com/msankrish92/userstory-rating-rag/internal/service"
)

type preprocessOptions struct {
	EnableAbbreviations  *bool               `json:"enableAbbreviations,omitempty"`
	EnableSynonyms       *bool               `json:"enableSynonyms,omitempty"`
	MaxSynonymVariations int                 `json:"maxSynonymVariations,omitempty"`
	PreserveIdentifiers  *bool               `json:"preserveIdentifiers,omitempty"`
	CustomAbbreviations  map[string]string   `json:"customAbbreviations,omitempty"`
	CustomSynonyms       map[string][]string `json:"customSynonyms,omitempty"`
}

type preprocessRequest struct {
	Query   string             `json:"query"`
	Options *preprocessOptions `json:"options,omitempty"`
}

func normalizeOptionsFrom(opts *preprocessOptions) model.NormalizeOptions {
	out := model.DefaultNormalizeOptions()
	if opts == nil {
		return out
	}
	if opts.EnableAbbreviations != nil {
		out.EnableAbbreviations = *opts.EnableAbbreviations
	}
	if opts.EnableSynonyms != nil {
		out.EnableSynonyms = *opts.EnableSynonyms
	}
	if opts.MaxSynonymVariations > 0 {
		out.MaxSynonymVariations = opts.MaxSynonymVariations
	}
	if opts.PreserveIdentifiers != nil {
		out.PreserveIdentifiers = *opts.PreserveIdentifiers
	}
	out.CustomAbbreviations = opts.CustomAbbreviations
	out.CustomSynonyms = opts.CustomSynonyms
	return out
}

// Preprocess handles POST /api/search/preprocess, returning the query
// transformation record C1 produces without running the rest of the
// pipeline.
func Preprocess() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req preprocessRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Query == "" {
			respondError(w, http.StatusBadRequest, "query is required")
			return
		}

		transformation := service.NormalizeQuery(req.Query, normalizeOptionsFrom(req.Options))
		respondJSON(w, http.StatusOK, envelope{Success: true, Data: transformation})
	}
}
