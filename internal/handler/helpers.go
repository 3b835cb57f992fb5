package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/msankrish92/userstory-rating-rag/internal/apperr"
)

// envelope is the standard JSON response shape for every /api endpoint.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, envelope{Success: false, Error: msg})
}

// respondErr maps an apperr.Error (or any error) to its HTTP status and
// writes the envelope. Errors that aren't *apperr.Error default to 500.
func respondErr(w http.ResponseWriter, err error) {
	if ae, ok := apperr.As(err); ok {
		respondError(w, ae.HTTPStatus(), ae.Message)
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 50<<20)
	return json.NewDecoder(r.Body).Decode(v)
}

// validateUUID checks if a string is a valid UUID format.
func validateUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
