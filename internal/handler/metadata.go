package handler

import "net/http"

// distinctMetadataFields lists the Item metadata keys the corpus is faceted
// on; each maps to one array in the response.
var distinctMetadataFields = []string{"module", "priority", "risk", "type"}

// DistinctMetadata handles GET /api/metadata/distinct: the distinct values
// present for each faceted metadata field, for populating filter UIs.
func DistinctMetadata(deps SearchDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Metadata == nil {
			respondError(w, http.StatusServiceUnavailable, "metadata lookup not configured")
			return
		}

		out := map[string]interface{}{}
		responseKey := map[string]string{
			"module":   "modules",
			"priority": "priorities",
			"risk":     "risks",
			"type":     "types",
		}
		for _, field := range distinctMetadataFields {
			values, err := deps.Metadata.DistinctMetadataValues(r.Context(), field)
			if err != nil {
				respondError(w, http.StatusServiceUnavailable, "failed to load distinct "+field+" values")
				return
			}
			out[responseKey[field]] = values
		}

		respondJSON(w, http.StatusOK, envelope{Success: true, Data: out})
	}
}
