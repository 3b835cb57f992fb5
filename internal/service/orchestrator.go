package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/msankrish92/userstory-rating-rag/internal/apperr"
	"github.com/msankrish92/userstory-rating-rag/internal/model"
)

// LexicalSearcher abstracts the C2 Lexical Retriever for testability.
type LexicalSearcher interface {
	Search(ctx context.Context, queryText string, topK int, filters map[string]string, weights model.FieldWeights) ([]model.Candidate, error)
}

// VectorSearcher abstracts the C3 Vector Retriever for testability.
type VectorSearcher interface {
	Search(ctx context.Context, queryVec []float32, numCandidates int, filters map[string]string) ([]model.Candidate, error)
}

// Embedder abstracts query embedding for testability.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// RunOptions configures one orchestrator pass.
type RunOptions struct {
	TopK             int
	NumCandidates    int
	Filters          map[string]string
	FieldWeights     model.FieldWeights
	FusionPolicy     FusionPolicy
	FusionWeights    FusionWeights
	DedupThreshold   float64
	SummaryStyle     SummaryStyle
	SummaryMaxItems  int
	Limit            int
	NormalizeOptions model.NormalizeOptions
	SkipSummary      bool
}

// RunResult is the orchestrator's end-to-end output for one
// run(query, options) pass.
type RunResult struct {
	Transformation     model.QueryTransformation
	CandidatesLexical  []model.Candidate
	CandidatesVector   []model.Candidate
	Fused              []model.RankedCandidate
	Deduplicated       model.DedupResult
	Summary            *SummaryResult
	Execution          model.PipelineExecutionRecord
	Degraded           bool
}

// Orchestrator drives C1 -> (C2 || C3) -> C4 -> C5 -> C6, tracking
// per-stage timings/costs and emitting progress checkpoints.
type Orchestrator struct {
	Lexical   LexicalSearcher
	Vector    VectorSearcher
	Embedder  Embedder
	Completer Completer

	// OnProgress, if set, is called with each percent-complete checkpoint
	// (5, 10, 35, 45, 55, 75, 100).
	OnProgress func(percent int)

	// pool bounds concurrent Run calls to the configured connection pool
	// size; a request that can't acquire within waitBudget fails with
	// apperr.Busy rather than queuing indefinitely. Nil disables the gate.
	pool       *semaphore.Weighted
	waitBudget time.Duration
}

// NewOrchestrator builds an Orchestrator whose Run calls are gated by a
// weighted semaphore sized to poolSize: a Run that can't acquire a slot
// within waitBudget returns apperr.Busy instead of blocking past it. A
// poolSize <= 0 disables the gate.
func NewOrchestrator(poolSize int, waitBudget time.Duration) *Orchestrator {
	o := &Orchestrator{waitBudget: waitBudget}
	if poolSize > 0 {
		o.pool = semaphore.NewWeighted(int64(poolSize))
	}
	return o
}

// progress emits a checkpoint if a progress callback is attached.
func (o *Orchestrator) progress(percent int) {
	if o.OnProgress != nil {
		o.OnProgress(percent)
	}
}

// Run executes one end-to-end retrieval request.
func (o *Orchestrator) Run(ctx context.Context, query string, opts RunOptions) (*RunResult, error) {
	result := &RunResult{}

	// Stage: validate input (checkpoint 5)
	if query == "" {
		return nil, apperr.InvalidArgument("query must not be empty")
	}

	if o.pool != nil {
		acquireCtx := ctx
		if o.waitBudget > 0 {
			var cancel context.CancelFunc
			acquireCtx, cancel = context.WithTimeout(ctx, o.waitBudget)
			defer cancel()
		}
		if err := o.pool.Acquire(acquireCtx, 1); err != nil {
			return nil, apperr.Busy("retrieval pipeline")
		}
		defer o.pool.Release(1)
	}
	o.progress(5)

	// Stage: normalise (checkpoint 10)
	stageStart := time.Now()
	transformation := NormalizeQuery(query, opts.NormalizeOptions)
	result.Transformation = transformation
	result.Execution.Add(model.StageRecord{
		Name: "normalise", StartedAt: stageStart, Duration: time.Since(stageStart),
		CandidatesIn: 1, CandidatesOut: 1,
	})
	o.progress(10)

	// Stage: retrieve lexical + retrieve vector (parallel), join at checkpoint 35
	stageStart = time.Now()
	lexical, vector, degraded, warn, err := o.retrieveBoth(ctx, transformation.Normalised, opts)
	if err != nil {
		return nil, err
	}
	result.CandidatesLexical = lexical
	result.CandidatesVector = vector
	result.Degraded = degraded
	if warn != "" {
		result.Execution.Warn(warn)
	}
	result.Execution.Add(model.StageRecord{
		Name: "retrieve", StartedAt: stageStart, Duration: time.Since(stageStart),
		CandidatesIn: 0, CandidatesOut: len(lexical) + len(vector),
	})
	o.progress(35)

	// Stage: fuse (checkpoint 45)
	stageStart = time.Now()
	fused, err := Fuse(lexical, vector, opts.FusionPolicy, opts.FusionWeights)
	if err != nil {
		return nil, err
	}
	result.Fused = fused
	result.Execution.Add(model.StageRecord{
		Name: "fuse", StartedAt: stageStart, Duration: time.Since(stageStart),
		CandidatesIn: len(lexical) + len(vector), CandidatesOut: len(fused),
	})
	o.progress(45)

	// Stage: deduplicate (checkpoint 55)
	stageStart = time.Now()
	threshold := opts.DedupThreshold
	if threshold <= 0 {
		threshold = 0.95
	}
	dedup := Deduplicate(fused, threshold)
	result.Deduplicated = dedup
	result.Execution.Add(model.StageRecord{
		Name: "deduplicate", StartedAt: stageStart, Duration: time.Since(stageStart),
		CandidatesIn: len(fused), CandidatesOut: len(dedup.Kept),
	})
	o.progress(55)

	limited := dedup.Kept
	if opts.Limit > 0 && len(limited) > opts.Limit {
		limited = limited[:opts.Limit]
	}

	// Stage: summarise (checkpoint 75)
	if !opts.SkipSummary && o.Completer != nil {
		stageStart = time.Now()
		summary, err := Summarize(ctx, o.Completer, limited, opts.SummaryStyle, opts.SummaryMaxItems)
		if err != nil {
			// A summariser failure never aborts the pipeline; surface a
			// warning and a nil summary instead.
			result.Execution.Warn(fmt.Sprintf("summariser failed: %v", err))
			slog.Warn("[PIPELINE] summarise stage failed, continuing degraded", "error", err)
		} else {
			result.Summary = &summary
			result.Execution.Add(model.StageRecord{
				Name: "summarise", StartedAt: stageStart, Duration: time.Since(stageStart),
				CandidatesIn: len(limited), CandidatesOut: 1,
				PromptTokens: summary.PromptTokens, CompletionTokens: summary.CompletionTokens,
				Cost: summary.Cost,
			})
		}
	}
	o.progress(75)

	result.Execution.Degraded = result.Degraded
	o.progress(100)

	return result, nil
}

// retrieveBoth runs the lexical and vector retrievers concurrently via
// errgroup. An embedding failure degrades to lexical-only rather than
// aborting; a lexical backend failure aborts the request.
func (o *Orchestrator) retrieveBoth(ctx context.Context, query string, opts RunOptions) (lexical, vector []model.Candidate, degraded bool, warning string, err error) {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var lexErr error
		lexical, lexErr = o.Lexical.Search(gCtx, query, opts.TopK, opts.Filters, opts.FieldWeights)
		if lexErr != nil {
			return apperr.BackendUnavailable("lexical search backend", lexErr)
		}
		return nil
	})

	g.Go(func() error {
		if o.Embedder == nil || o.Vector == nil {
			return nil
		}
		vecs, embErr := o.Embedder.Embed(gCtx, []string{query})
		if embErr != nil {
			degraded = true
			warning = fmt.Sprintf("embedding failed, continuing lexical-only: %v", embErr)
			slog.Warn("[PIPELINE] embedding failed, degrading to lexical-only", "error", embErr)
			return nil
		}
		var searchErr error
		vector, searchErr = o.Vector.Search(gCtx, vecs[0], opts.NumCandidates, opts.Filters)
		if searchErr != nil {
			return apperr.BackendUnavailable("vector search backend", searchErr)
		}
		return nil
	})

	if joinErr := g.Wait(); joinErr != nil {
		return nil, nil, false, "", joinErr
	}
	return lexical, vector, degraded, warning, nil
}
