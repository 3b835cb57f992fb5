package service

import (
	"sort"

	"github.com/msankrish92/userstory-rating-rag/internal/apperr"
	"github.com/msankrish92/userstory-rating-rag/internal/model"
)

// FusionPolicy selects the scoring strategy used to combine C2/C3 output.
type FusionPolicy string

const (
	PolicyRRF                FusionPolicy = "rrf"
	PolicyWeightedNormalised FusionPolicy = "weighted_normalised"
	PolicyWeightedReciprocal FusionPolicy = "weighted_reciprocal"

	// rrfK is the standard RRF smoothing constant.
	rrfK = 60
)

// FusionWeights carries the lexical/vector weight pair for the two
// weighted policies. Ignored by PolicyRRF.
type FusionWeights struct {
	Lexical float64
	Vector  float64
}

// Fuse merges lexical and vector candidate lists into a single ranked
// list under the given policy: reciprocal rank fusion, weighted
// min-max-normalised scores, or weighted reciprocal rank.
func Fuse(lexical, vector []model.Candidate, policy FusionPolicy, weights FusionWeights) ([]model.RankedCandidate, error) {
	if policy == PolicyWeightedNormalised || policy == PolicyWeightedReciprocal {
		if weights.Lexical < 0 || weights.Vector < 0 {
			return nil, apperr.InvalidArgument("fusion weights must be non-negative")
		}
		sum := weights.Lexical + weights.Vector
		if sum == 0 {
			return nil, apperr.InvalidArgument("fusion weights must not both be zero")
		}
		if sum != 1 {
			weights.Lexical /= sum
			weights.Vector /= sum
		}
	}

	lexNorm, lexRank := normalizeAndRank(lexical)
	vecNorm, vecRank := normalizeAndRank(vector)

	type union struct {
		item        model.Item
		rawLex      float64
		rawVec      float64
		normLex     float64
		normVec     float64
		rankLex     *int
		rankVec     *int
		firstSource model.SourceTag
		firstRank   int
	}

	merged := make(map[string]*union)
	order := []string{}

	addLex := func(c model.Candidate, i int) {
		u, ok := merged[c.Item.ID]
		if !ok {
			u = &union{item: c.Item, firstSource: model.SourceLexical, firstRank: i + 1}
			merged[c.Item.ID] = u
			order = append(order, c.Item.ID)
		}
		u.rawLex = c.RawScore
		u.normLex = lexNorm[i]
		rank := i + 1
		u.rankLex = &rank
	}
	addVec := func(c model.Candidate, i int) {
		u, ok := merged[c.Item.ID]
		if !ok {
			u = &union{item: c.Item, firstSource: model.SourceVector, firstRank: i + 1}
			merged[c.Item.ID] = u
			order = append(order, c.Item.ID)
		}
		u.rawVec = c.RawScore
		u.normVec = vecNorm[i]
		rank := i + 1
		u.rankVec = &rank
	}
	for i, c := range lexical {
		addLex(c, i)
	}
	for i, c := range vector {
		addVec(c, i)
	}
	_ = lexRank
	_ = vecRank

	out := make([]model.RankedCandidate, 0, len(order))
	for _, id := range order {
		u := merged[id]
		var fused float64
		switch policy {
		case PolicyRRF:
			if u.rankLex != nil {
				fused += 1.0 / float64(rrfK+*u.rankLex)
			}
			if u.rankVec != nil {
				fused += 1.0 / float64(rrfK+*u.rankVec)
			}
		case PolicyWeightedNormalised:
			fused = weights.Lexical*u.normLex + weights.Vector*u.normVec
		case PolicyWeightedReciprocal:
			if u.rankLex != nil {
				fused += weights.Lexical * (1.0 / float64(*u.rankLex))
			}
			if u.rankVec != nil {
				fused += weights.Vector * (1.0 / float64(*u.rankVec))
			}
		default:
			return nil, apperr.InvalidArgument("unknown fusion policy: " + string(policy))
		}

		sources := make([]model.SourceTag, 0, 2)
		if u.rankLex != nil {
			sources = append(sources, model.SourceLexical)
		}
		if u.rankVec != nil {
			sources = append(sources, model.SourceVector)
		}

		out = append(out, model.RankedCandidate{
			Item:            u.item,
			RawScoreLexical: u.rawLex,
			RawScoreVector:  u.rawVec,
			NormLexical:     u.normLex,
			NormVector:      u.normVec,
			RankLexical:     u.rankLex,
			RankVector:      u.rankVec,
			FusedScore:      fused,
			SourcesFoundIn:  sources,
			RankChange:      u.firstRank,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FusedScore != out[j].FusedScore {
			return out[i].FusedScore > out[j].FusedScore
		}
		if out[i].RankChange != out[j].RankChange {
			return out[i].RankChange < out[j].RankChange
		}
		return out[i].Item.ID < out[j].Item.ID
	})

	for i := range out {
		out[i].RankChange = out[i].RankChange - (i + 1)
	}

	return out, nil
}

// normalizeAndRank returns the min-max-normalised [0,1] score for each
// candidate, in input order. All-equal inputs map to 1.0.
func normalizeAndRank(candidates []model.Candidate) (normalised []float64, ranks []int) {
	normalised = make([]float64, len(candidates))
	ranks = make([]int, len(candidates))
	if len(candidates) == 0 {
		return normalised, ranks
	}

	min, max := candidates[0].RawScore, candidates[0].RawScore
	for _, c := range candidates {
		if c.RawScore < min {
			min = c.RawScore
		}
		if c.RawScore > max {
			max = c.RawScore
		}
	}

	for i, c := range candidates {
		ranks[i] = i + 1
		if max == min {
			normalised[i] = 1.0
			continue
		}
		normalised[i] = (c.RawScore - min) / (max - min)
	}
	return normalised, ranks
}
