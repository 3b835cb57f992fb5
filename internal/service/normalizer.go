package service

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/msankrish92/userstory-rating-rag/internal/model"
)

// identifierPatterns are protected from abbreviation/synonym substitution
// when NormalizeOptions.PreserveIdentifiers is set.
var identifierPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^tc_\d+$`),
	regexp.MustCompile(`(?i)^hc-\d+$`),
	regexp.MustCompile(`(?i)^us-\d+$`),
}

// builtinAbbreviations is the healthcare-test-case domain abbreviation
// table. Whole-token replacement only; never applied inside a protected
// identifier.
var builtinAbbreviations = map[string]string{
	"tc":  "test case",
	"hc":  "health check",
	"pt":  "patient",
	"rx":  "prescription",
	"dx":  "diagnosis",
	"sx":  "symptom",
	"tx":  "treatment",
	"hx":  "history",
	"pre": "prerequisite",
	"req": "requirement",
	"exp": "expected",
}

// builtinSynonyms maps a token to alternative phrasings, ordered by
// preference. Only the first MaxSynonymVariations entries are used.
var builtinSynonyms = map[string][]string{
	"patient":    {"subject", "participant"},
	"test":       {"check", "validation"},
	"case":       {"scenario"},
	"diagnosis":  {"dx", "finding"},
	"medication": {"drug", "prescription"},
	"symptom":    {"sign", "complaint"},
	"treatment":  {"therapy", "intervention"},
	"result":     {"outcome", "finding"},
}

// NormalizeQuery runs the query normaliser (C1): whitespace normalisation
// (trim, lowercase, collapse runs of Unicode whitespace to one space; no
// Unicode canonical form such as NFC/NFKC is applied), identifier protection, abbreviation expansion, and
// bounded synonym expansion, in that fixed order. An empty input yields an
// empty transformation; rejecting empty queries is the orchestrator's job.
func NormalizeQuery(raw string, opts model.NormalizeOptions) model.QueryTransformation {
	qt := model.QueryTransformation{Original: raw}

	normalised := collapseWhitespace(strings.ToLower(strings.TrimSpace(raw)))
	qt.Normalised = normalised

	if normalised == "" {
		qt.Expansions = []string{""}
		return qt
	}

	tokens := strings.Fields(normalised)
	protected := make([]bool, len(tokens))
	if opts.PreserveIdentifiers {
		for i, tok := range tokens {
			if isIdentifier(tok) {
				protected[i] = true
			}
		}
	}

	abbrevs := builtinAbbreviations
	if opts.CustomAbbreviations != nil {
		abbrevs = mergeAbbreviations(builtinAbbreviations, opts.CustomAbbreviations)
	}

	var abbreviationsApplied []string
	if opts.EnableAbbreviations {
		for i, tok := range tokens {
			if protected[i] {
				continue
			}
			if expanded, ok := abbrevs[tok]; ok {
				tokens[i] = expanded
				abbreviationsApplied = append(abbreviationsApplied, tok+"->"+expanded)
			}
		}
	}
	qt.Normalised = strings.Join(tokens, " ")
	qt.AbbreviationsApplied = abbreviationsApplied

	expansions := []string{qt.Normalised}
	var synonymsApplied []string
	if opts.EnableSynonyms {
		synonyms := builtinSynonyms
		if opts.CustomSynonyms != nil {
			synonyms = mergeSynonyms(builtinSynonyms, opts.CustomSynonyms)
		}
		maxVariations := opts.MaxSynonymVariations
		if maxVariations <= 0 {
			maxVariations = 1
		}

		for i, tok := range tokens {
			if protected[i] {
				continue
			}
			alts, ok := synonyms[tok]
			if !ok {
				continue
			}
			limit := len(alts)
			if limit > maxVariations {
				limit = maxVariations
			}
			for _, alt := range alts[:limit] {
				variant := make([]string, len(tokens))
				copy(variant, tokens)
				variant[i] = alt
				expansions = append(expansions, strings.Join(variant, " "))
				synonymsApplied = append(synonymsApplied, tok+"->"+alt)
			}
		}
	}

	qt.Expansions = expansions
	qt.SynonymsApplied = synonymsApplied
	return qt
}

func isIdentifier(tok string) bool {
	for _, p := range identifierPatterns {
		if p.MatchString(tok) {
			return true
		}
	}
	return false
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	prevSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !prevSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			prevSpace = true
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

func mergeAbbreviations(base, custom map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(custom))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range custom {
		merged[k] = v
	}
	return merged
}

func mergeSynonyms(base, custom map[string][]string) map[string][]string {
	merged := make(map[string][]string, len(base)+len(custom))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range custom {
		merged[k] = v
	}
	return merged
}
