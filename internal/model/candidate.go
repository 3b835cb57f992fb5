package model

// SourceTag identifies which retriever produced a Candidate.
type SourceTag string

const (
	SourceLexical SourceTag = "lexical"
	SourceVector  SourceTag = "vector"
)

// Candidate is a transient record emitted by a single retriever for one
// query. It exists only for the lifetime of one request.
type Candidate struct {
	Item     Item      `json:"item"`
	RawScore float64   `json:"rawScore"`
	Source   SourceTag `json:"source"`
}

// RankedCandidate is a Candidate enriched during fusion (C4). Sorted
// globally by FusedScore descending; ties broken by lower original rank,
// then by Item.ID lexicographic.
type RankedCandidate struct {
	Item             Item        `json:"item"`
	RawScoreLexical  float64     `json:"rawScoreLexical"`
	RawScoreVector   float64     `json:"rawScoreVector"`
	NormLexical      float64     `json:"normLexical"`
	NormVector       float64     `json:"normVector"`
	RankLexical      *int        `json:"rankLexical,omitempty"` // 1-based, nil = absent from this source
	RankVector       *int        `json:"rankVector,omitempty"`
	FusedScore       float64     `json:"fusedScore"`
	SourcesFoundIn   []SourceTag `json:"sourcesFoundIn"`
	RankChange       int         `json:"rankChange"`
}

// DedupResult is the output of the Deduplicator (C5): survivors in original
// order, plus the removed items paired with the id of the kept neighbour
// that triggered their removal.
type DedupResult struct {
	Kept    []RankedCandidate `json:"kept"`
	Removed []RemovedItem     `json:"removed"`
}

// RemovedItem records a near-duplicate and the kept item it collided with.
type RemovedItem struct {
	Item          RankedCandidate `json:"item"`
	DuplicateOf   string          `json:"duplicateOf"`
	Similarity    float64         `json:"similarity"`
}
