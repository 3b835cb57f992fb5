package handler

import (
	"context"

	"github.com/msankrish92/userstory-rating-rag/internal/jobs"
	"github.com/msankrish92/userstory-rating-rag/internal/llmclient"
	"github.com/msankrish92/userstory-rating-rag/internal/model"
	"github.com/msankrish92/userstory-rating-rag/internal/service"
)

// LexicalSearcher abstracts the C2 Lexical Retriever for the search handlers.
type LexicalSearcher interface {
	Search(ctx context.Context, queryText string, topK int, filters map[string]string, weights model.FieldWeights) ([]model.Candidate, error)
}

// VectorSearcher abstracts the C3 Vector Retriever for the search handlers.
type VectorSearcher interface {
	Search(ctx context.Context, queryVec []float32, numCandidates int, filters map[string]string) ([]model.Candidate, error)
}

// QueryEmbedder abstracts single-query embedding with cost accounting, used
// by handlers that report tokens/cost directly (outside the orchestrator's
// own roll-up).
type QueryEmbedder interface {
	EmbedWithUsage(ctx context.Context, text string) ([]float32, llmclient.EmbeddingUsage, error)
}

// MetadataLister abstracts distinct metadata-value lookups for
// /api/metadata/distinct.
type MetadataLister interface {
	DistinctMetadataValues(ctx context.Context, field string) ([]string, error)
}

// JobLister abstracts the Job Registry for /api/jobs/*.
type JobLister interface {
	Get(id string) (model.Job, bool)
	ListActive() []model.Job
}

// compile-time check that the concrete Job Registry satisfies JobLister.
var _ JobLister = (*jobs.Registry)(nil)

// SearchDeps bundles the dependencies shared by every /api/search* handler.
type SearchDeps struct {
	Lexical      LexicalSearcher
	Vector       VectorSearcher
	Embedder     QueryEmbedder
	Completer    service.Completer
	Orchestrator *service.Orchestrator
	Metadata     MetadataLister
	Jobs         JobLister
	FieldWeights model.FieldWeights

	DefaultLimit        int
	DefaultRerankTopK   int
	DefaultBM25Weight   float64
	DefaultVectorWeight float64
	DedupThreshold      float64
	CompletionModel     string
	SummaryMaxItems     int
}

func (d SearchDeps) limitOrDefault(limit int) int {
	if limit > 0 {
		return limit
	}
	if d.DefaultLimit > 0 {
		return d.DefaultLimit
	}
	return 10
}

func numCandidatesFor(topK int) int {
	if topK*2 > 100 {
		return topK * 2
	}
	return 100
}

// fieldWeightsFor restricts the default field-weight map to the given field
// names, or returns the full default map when fields is empty.
func fieldWeightsFor(defaults model.FieldWeights, fields []string) model.FieldWeights {
	if len(fields) == 0 {
		return defaults
	}
	out := make(model.FieldWeights, len(fields))
	for _, f := range fields {
		if w, ok := defaults[f]; ok {
			out[f] = w
		}
	}
	if len(out) == 0 {
		return defaults
	}
	return out
}
