package model

// QueryTransformation is the output of the Query Normaliser (C1).
type QueryTransformation struct {
	Original             string   `json:"original"`
	Normalised           string   `json:"normalised"`
	Expansions           []string `json:"expansions"` // ordered rewrites, original at index 0
	AbbreviationsApplied []string `json:"abbreviationsApplied"`
	SynonymsApplied      []string `json:"synonymsApplied"`
}

// NormalizeOptions configures the C1 pipeline.
type NormalizeOptions struct {
	EnableAbbreviations  bool
	EnableSynonyms       bool
	MaxSynonymVariations int
	PreserveIdentifiers  bool
	CustomAbbreviations  map[string]string
	CustomSynonyms       map[string][]string
}

// DefaultNormalizeOptions mirrors the pipeline's default behaviour.
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{
		EnableAbbreviations:  true,
		EnableSynonyms:       true,
		MaxSynonymVariations: 2,
		PreserveIdentifiers:  true,
	}
}
