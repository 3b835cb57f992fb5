package repository

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/msankrish92/userstory-rating-rag/internal/model"
)

var tsQueryToken = regexp.MustCompile(`[a-zA-Z0-9]+`)

// buildPrefixTSQuery turns free text into a to_tsquery expression with
// every term prefix-locked (trailing :*), e.g. "patient adm" ->
// "patient:* & adm:*". A query with no word characters produces an
// expression that matches nothing, which to_tsquery accepts.
func buildPrefixTSQuery(queryText string) string {
	tokens := tsQueryToken.FindAllString(queryText, -1)
	if len(tokens) == 0 {
		return ""
	}
	for i, t := range tokens {
		tokens[i] = t + ":*"
	}
	return strings.Join(tokens, " & ")
}

// fieldToWeightTier maps an Item field to a fixed Postgres tsvector weight
// tier (A highest .. D lowest); a field not listed here gets D. The tier
// depends on the field alone: the numeric values in a request's field
// weights do not select or scale tiers.
var fieldToWeightTier = map[string]rune{
	"id":              'A',
	"title":           'A',
	"module":          'B',
	"description":     'C',
	"expectedResults": 'C',
	"steps":           'D',
	"preRequisites":   'D',
}

// fieldColumn maps a logical field name to its column in items.
var fieldColumn = map[string]string{
	"id":              "id",
	"title":           "title",
	"module":          "module",
	"description":     "description",
	"expectedResults": "expected_results",
	"steps":           "steps",
	"preRequisites":   "pre_requisites",
}

// LexicalRepo implements the C2 Lexical Retriever against a Postgres
// tsvector/GIN index, with a configurable field-weight query built from
// weighted tsvectors rather than a single fixed-weight query.
type LexicalRepo struct {
	pool *pgxpool.Pool
}

// NewLexicalRepo creates a LexicalRepo.
func NewLexicalRepo(pool *pgxpool.Pool) *LexicalRepo {
	return &LexicalRepo{pool: pool}
}

// trigramSimilarityThreshold is the pg_trgm similarity floor used for the
// single-edit fuzzy fallback: a query with one typo'd character should
// still surface a near-exact title.
const trigramSimilarityThreshold = 0.4

// Search returns at most topK candidates ordered by lexical score
// descending, scored with field boosts via setweight/ts_rank_cd. The
// tsquery is prefix-locked (each term gets a trailing :*) and paired with
// a pg_trgm similarity fallback so a one-character typo or a partial word
// still matches. Filters are AND-composed equality predicates over
// metadata fields; an empty result is not an error — only a backend
// failure is.
func (r *LexicalRepo) Search(ctx context.Context, queryText string, topK int, filters map[string]string, weights model.FieldWeights) ([]model.Candidate, error) {
	weightedVector := buildWeightedTSVector(weights)
	prefixQuery := buildPrefixTSQuery(queryText)

	args := []any{prefixQuery, queryText}
	where := []string{"1=1"}
	for _, field := range sortedKeys(filters) {
		args = append(args, field)
		fieldParam := len(args)
		args = append(args, filters[field])
		valueParam := len(args)
		where = append(where, fmt.Sprintf("metadata->>$%d = $%d", fieldParam, valueParam))
	}
	args = append(args, topK)

	sql := fmt.Sprintf(`
		SELECT id, module, title, description, steps, expected_results,
		       pre_requisites, priority, risk, key, summary,
		       acceptance_criteria, business_value, metadata, created_at, updated_at,
		       GREATEST(
		           ts_rank_cd(%s, to_tsquery('english', $1)),
		           similarity(title, $2)
		       ) AS rank
		FROM items
		WHERE %s
		  AND (%s @@ to_tsquery('english', $1) OR similarity(title, $2) > %v)
		ORDER BY rank DESC
		LIMIT $%d
	`, weightedVector, strings.Join(where, " AND "), weightedVector, trigramSimilarityThreshold, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("repository.LexicalRepo.Search: %w", err)
	}
	defer rows.Close()

	var results []model.Candidate
	for rows.Next() {
		var item model.Item
		var rank float64
		if err := rows.Scan(
			&item.ID, &item.Module, &item.Title, &item.Description, &item.Steps,
			&item.ExpectedResults, &item.PreRequisites, &item.Priority, &item.Risk,
			&item.Key, &item.Summary, &item.AcceptanceCriteria, &item.BusinessValue,
			&item.Metadata, &item.CreatedAt, &item.UpdatedAt, &rank,
		); err != nil {
			return nil, fmt.Errorf("repository.LexicalRepo.Search: scan: %w", err)
		}
		results = append(results, model.Candidate{Item: item, RawScore: rank, Source: model.SourceLexical})
	}

	slog.Info("[PIPELINE] lexical search complete", "results_count", len(results), "top_k", topK)
	return results, nil
}

// buildWeightedTSVector assembles a setweight-combined tsvector expression
// over the items table's fields, applying the A/B/C/D tier per field.
func buildWeightedTSVector(weights model.FieldWeights) string {
	fields := make([]string, 0, len(weights))
	for f := range weights {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var parts []string
	for _, f := range fields {
		col, ok := fieldColumn[f]
		if !ok {
			continue
		}
		tier, ok := fieldToWeightTier[f]
		if !ok {
			tier = 'D'
		}
		parts = append(parts, fmt.Sprintf("setweight(to_tsvector('english', coalesce(%s, '')), '%c')", col, tier))
	}
	if len(parts) == 0 {
		return "to_tsvector('english', '')"
	}
	return "(" + strings.Join(parts, " || ") + ")"
}
