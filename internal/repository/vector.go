package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/msankrish92/userstory-rating-rag/internal/model"
)

// VectorRepo implements the C3 Vector Retriever against a pgvector ANN
// index over Items. Per-caller privilege scoping is out of scope here;
// callers restrict visibility via the metadata filter map instead.
type VectorRepo struct {
	pool *pgxpool.Pool
}

// NewVectorRepo creates a VectorRepo.
func NewVectorRepo(pool *pgxpool.Pool) *VectorRepo {
	return &VectorRepo{pool: pool}
}

// Search returns the numCandidates nearest items to queryVec by cosine
// distance, honouring AND-composed metadata equality filters.
func (r *VectorRepo) Search(ctx context.Context, queryVec []float32, numCandidates int, filters map[string]string) ([]model.Candidate, error) {
	embedding := pgvector.NewVector(queryVec)

	args := []any{embedding}
	where := []string{"1=1"}
	for _, field := range sortedKeys(filters) {
		args = append(args, field)
		fieldParam := len(args)
		args = append(args, filters[field])
		valueParam := len(args)
		where = append(where, fmt.Sprintf("metadata->>$%d = $%d", fieldParam, valueParam))
	}
	args = append(args, numCandidates)
	limitParam := len(args)

	sql := fmt.Sprintf(`
		SELECT id, module, title, description, steps, expected_results,
		       pre_requisites, priority, risk, key, summary,
		       acceptance_criteria, business_value, metadata, created_at, updated_at,
		       1 - (embedding <=> $1::vector) AS similarity
		FROM items
		WHERE %s
		ORDER BY embedding <=> $1::vector
		LIMIT $%d
	`, strings.Join(where, " AND "), limitParam)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("repository.VectorRepo.Search: %w", err)
	}
	defer rows.Close()

	var results []model.Candidate
	for rows.Next() {
		var item model.Item
		var similarity float64
		if err := rows.Scan(
			&item.ID, &item.Module, &item.Title, &item.Description, &item.Steps,
			&item.ExpectedResults, &item.PreRequisites, &item.Priority, &item.Risk,
			&item.Key, &item.Summary, &item.AcceptanceCriteria, &item.BusinessValue,
			&item.Metadata, &item.CreatedAt, &item.UpdatedAt, &similarity,
		); err != nil {
			return nil, fmt.Errorf("repository.VectorRepo.Search: scan: %w", err)
		}
		results = append(results, model.Candidate{Item: item, RawScore: similarity, Source: model.SourceVector})
	}

	slog.Info("[PIPELINE] vector search complete", "results_count", len(results), "num_candidates", numCandidates)
	return results, nil
}

// BulkUpsert stores items with their embedding vectors, used by the
// ingestion path that seeds the search backend outside this pipeline's
// request/response scope.
func (r *VectorRepo) BulkUpsert(ctx context.Context, items []model.Item) error {
	if len(items) == 0 {
		return nil
	}
	for _, item := range items {
		embedding := pgvector.NewVector(item.Embedding)
		_, err := r.pool.Exec(ctx, `
			INSERT INTO items (id, module, title, description, steps, expected_results,
				pre_requisites, priority, risk, key, summary, acceptance_criteria,
				business_value, embedding, metadata, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
			ON CONFLICT (id) DO UPDATE SET
				module = EXCLUDED.module, title = EXCLUDED.title,
				description = EXCLUDED.description, steps = EXCLUDED.steps,
				expected_results = EXCLUDED.expected_results,
				pre_requisites = EXCLUDED.pre_requisites, priority = EXCLUDED.priority,
				risk = EXCLUDED.risk, key = EXCLUDED.key, summary = EXCLUDED.summary,
				acceptance_criteria = EXCLUDED.acceptance_criteria,
				business_value = EXCLUDED.business_value, embedding = EXCLUDED.embedding,
				metadata = EXCLUDED.metadata, updated_at = EXCLUDED.updated_at
		`,
			item.ID, item.Module, item.Title, item.Description, item.Steps, item.ExpectedResults,
			item.PreRequisites, item.Priority, item.Risk, item.Key, item.Summary,
			item.AcceptanceCriteria, item.BusinessValue, embedding, item.Metadata,
			item.CreatedAt, item.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("repository.VectorRepo.BulkUpsert: item %s: %w", item.ID, err)
		}
	}
	return nil
}

// distinctColumnFields lists the facets backed by a dedicated TEXT column
// on items rather than a key inside the metadata JSONB bag.
var distinctColumnFields = map[string]string{
	"module":   "module",
	"priority": "priority",
	"risk":     "risk",
}

// DistinctMetadataValues returns the distinct values present for a given
// facet, backing the /api/metadata/distinct endpoint. module/priority/risk
// are dedicated columns on items; anything else is looked up inside the
// metadata JSONB bag.
func (r *VectorRepo) DistinctMetadataValues(ctx context.Context, field string) ([]string, error) {
	var sql string
	var args []any
	if col, ok := distinctColumnFields[field]; ok {
		sql = fmt.Sprintf(`SELECT DISTINCT %s FROM items WHERE %s <> '' ORDER BY 1`, col, col)
	} else {
		sql = `SELECT DISTINCT metadata->>$1 FROM items WHERE metadata->>$1 IS NOT NULL ORDER BY 1`
		args = []any{field}
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("repository.VectorRepo.DistinctMetadataValues: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("repository.VectorRepo.DistinctMetadataValues: scan: %w", err)
		}
		values = append(values, v)
	}
	return values, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
