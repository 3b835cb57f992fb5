package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msankrish92/userstory-rating-rag/internal/apperr"
	"github.com/msankrish92/userstory-rating-rag/internal/model"
)

type mockLexicalSearcher struct {
	results []model.Candidate
	err     error
}

func (m *mockLexicalSearcher) Search(ctx context.Context, queryText string, topK int, filters map[string]string, weights model.FieldWeights) ([]model.Candidate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

type mockVecSearcher struct {
	results []model.Candidate
	err     error
}

func (m *mockVecSearcher) Search(ctx context.Context, queryVec []float32, numCandidates int, filters map[string]string) ([]model.Candidate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

type mockEmbedder struct {
	err error
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return [][]float32{{0.1, 0.2}}, nil
}

func baseOpts() RunOptions {
	return RunOptions{
		TopK:            10,
		NumCandidates:   10,
		FieldWeights:    model.DefaultFieldWeights(),
		FusionPolicy:    PolicyRRF,
		DedupThreshold:  0.95,
		SummaryMaxItems: 5,
		SkipSummary:     true,
	}
}

func TestOrchestrator_Run_RejectsEmptyQuery(t *testing.T) {
	o := &Orchestrator{Lexical: &mockLexicalSearcher{}, Vector: &mockVecSearcher{}, Embedder: &mockEmbedder{}}
	_, err := o.Run(context.Background(), "", baseOpts())
	if err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestOrchestrator_Run_BusyWhenPoolSaturated(t *testing.T) {
	o := NewOrchestrator(1, 10*time.Millisecond)
	o.Lexical = &mockLexicalSearcher{}
	o.Vector = &mockVecSearcher{}
	o.Embedder = &mockEmbedder{}

	if err := o.pool.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("seed acquire: %v", err)
	}
	defer o.pool.Release(1)

	_, err := o.Run(context.Background(), "patient intake", baseOpts())
	if err == nil {
		t.Fatal("expected Busy error when the pool is saturated")
	}
	ae, ok := apperr.As(err)
	if !ok || ae.Kind != apperr.KindBusy {
		t.Fatalf("err = %v, want *apperr.Error with KindBusy", err)
	}
}

func TestOrchestrator_Run_HappyPath(t *testing.T) {
	lex := []model.Candidate{{Item: model.Item{ID: "1", Title: "patient intake"}, RawScore: 5}}
	vec := []model.Candidate{{Item: model.Item{ID: "1", Title: "patient intake"}, RawScore: 0.9}}

	o := &Orchestrator{
		Lexical:  &mockLexicalSearcher{results: lex},
		Vector:   &mockVecSearcher{results: vec},
		Embedder: &mockEmbedder{},
	}

	res, err := o.Run(context.Background(), "patient intake", baseOpts())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(res.Fused) != 1 {
		t.Fatalf("len(Fused) = %d, want 1", len(res.Fused))
	}
	if res.Degraded {
		t.Error("expected not degraded on full success")
	}
}

func TestOrchestrator_Run_LexicalFailureAborts(t *testing.T) {
	o := &Orchestrator{
		Lexical:  &mockLexicalSearcher{err: errors.New("db down")},
		Vector:   &mockVecSearcher{},
		Embedder: &mockEmbedder{},
	}

	_, err := o.Run(context.Background(), "query", baseOpts())
	if err == nil {
		t.Fatal("expected error when lexical backend fails")
	}
}

func TestOrchestrator_Run_EmbeddingFailureDegradesInsteadOfAborting(t *testing.T) {
	lex := []model.Candidate{{Item: model.Item{ID: "1", Title: "x"}, RawScore: 1}}
	o := &Orchestrator{
		Lexical:  &mockLexicalSearcher{results: lex},
		Vector:   &mockVecSearcher{},
		Embedder: &mockEmbedder{err: errors.New("embedding service down")},
	}

	res, err := o.Run(context.Background(), "query", baseOpts())
	if err != nil {
		t.Fatalf("Run() should not abort on embedding failure, got: %v", err)
	}
	if !res.Degraded {
		t.Error("expected Degraded=true after embedding failure")
	}
	if len(res.CandidatesVector) != 0 {
		t.Error("expected no vector candidates after embedding failure")
	}
}

func TestOrchestrator_Run_ProgressCheckpoints(t *testing.T) {
	var checkpoints []int
	o := &Orchestrator{
		Lexical:    &mockLexicalSearcher{},
		Vector:     &mockVecSearcher{},
		Embedder:   &mockEmbedder{},
		OnProgress: func(p int) { checkpoints = append(checkpoints, p) },
	}

	_, err := o.Run(context.Background(), "query", baseOpts())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	want := []int{5, 10, 35, 45, 55, 75, 100}
	if len(checkpoints) != len(want) {
		t.Fatalf("checkpoints = %v, want %v", checkpoints, want)
	}
	for i := range want {
		if checkpoints[i] != want[i] {
			t.Errorf("checkpoints[%d] = %d, want %d", i, checkpoints[i], want[i])
		}
	}
}
