package service

import (
	"strings"

	"github.com/msankrish92/userstory-rating-rag/internal/model"
)

// Deduplicate walks ranked candidates in order and removes near-duplicates
// by Jaccard similarity over tokenised, lower-cased titles. O(n^2);
// acceptable at the sizes this stage sees (a few dozen candidates).
func Deduplicate(candidates []model.RankedCandidate, threshold float64) model.DedupResult {
	result := model.DedupResult{
		Kept:    make([]model.RankedCandidate, 0, len(candidates)),
		Removed: []model.RemovedItem{},
	}
	keptTokens := make([][]string, 0, len(candidates))

	for _, c := range candidates {
		tokens := titleTokens(c.Item)
		bestSim := 0.0
		bestID := ""
		for i, kt := range keptTokens {
			sim := jaccard(tokens, kt)
			if sim > bestSim {
				bestSim = sim
				bestID = result.Kept[i].Item.ID
			}
		}
		if bestSim >= threshold {
			result.Removed = append(result.Removed, model.RemovedItem{
				Item:        c,
				DuplicateOf: bestID,
				Similarity:  bestSim,
			})
			continue
		}
		result.Kept = append(result.Kept, c)
		keptTokens = append(keptTokens, tokens)
	}

	return result
}

// titleTokens tokenises an item's title for Jaccard comparison. Title
// covers the test-case shaped projection; Key is its user-story shaped
// counterpart (internal/model.Item). When both are empty, falls back to
// the full-document concatenation across both shapes.
func titleTokens(item model.Item) []string {
	text := strings.TrimSpace(item.Title)
	if text == "" {
		text = strings.TrimSpace(item.Key)
	}
	if text == "" {
		text = strings.Join([]string{item.Description, item.Steps, item.ExpectedResults, item.Summary}, " ")
	}
	return strings.Fields(strings.ToLower(text))
}

// jaccard computes |A ∩ B| / |A ∪ B| over the two token sets.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	intersection := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
