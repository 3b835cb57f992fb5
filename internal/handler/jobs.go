package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GetJob handles GET /api/jobs/{id}.
func GetJob(deps SearchDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			respondError(w, http.StatusBadRequest, "job id required")
			return
		}

		job, ok := deps.Jobs.Get(id)
		if !ok {
			respondError(w, http.StatusNotFound, "job not found")
			return
		}

		respondJSON(w, http.StatusOK, envelope{Success: true, Data: job})
	}
}

// ListActiveJobs handles GET /api/jobs/active.
func ListActiveJobs(deps SearchDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, envelope{Success: true, Data: deps.Jobs.ListActive()})
	}
}
