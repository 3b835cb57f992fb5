package model

import (
	"encoding/json"
	"time"
)

// EmbeddingDimensions is the fixed dimensionality of stored item vectors.
const EmbeddingDimensions = 1536

// Item is the stored unit the pipeline retrieves over: a healthcare test
// case or user story. Immutable from the pipeline's perspective — owned by
// the search backend, borrowed for the lifetime of one request.
type Item struct {
	ID              string          `json:"id"`
	Module          string          `json:"module"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Steps           string          `json:"steps"`
	ExpectedResults string          `json:"expectedResults"`
	PreRequisites   string          `json:"preRequisites,omitempty"`
	Priority        string          `json:"priority,omitempty"`
	Risk            string          `json:"risk,omitempty"`
	Key             string          `json:"key,omitempty"`             // user-story shaped projection
	Summary         string          `json:"summary,omitempty"`         // user-story shaped projection
	AcceptanceCriteria string       `json:"acceptanceCriteria,omitempty"`
	BusinessValue   string          `json:"businessValue,omitempty"`
	Embedding       []float32       `json:"-"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// FieldWeights maps a field name to its BM25 boost.
type FieldWeights map[string]float64

// DefaultFieldWeights is the field-boost table applied to the "any field
// matches" lexical query.
func DefaultFieldWeights() FieldWeights {
	return FieldWeights{
		"id":              10.0,
		"title":           8.0,
		"module":          5.0,
		"description":     2.0,
		"expectedResults": 1.5,
		"steps":           1.0,
		"preRequisites":   0.8,
	}
}
