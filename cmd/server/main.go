package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/msankrish92/userstory-rating-rag/internal/config"
	"github.com/msankrish92/userstory-rating-rag/internal/handler"
	"github.com/msankrish92/userstory-rating-rag/internal/jobs"
	"github.com/msankrish92/userstory-rating-rag/internal/llmclient"
	"github.com/msankrish92/userstory-rating-rag/internal/middleware"
	"github.com/msankrish92/userstory-rating-rag/internal/model"
	"github.com/msankrish92/userstory-rating-rag/internal/repository"
	"github.com/msankrish92/userstory-rating-rag/internal/router"
	"github.com/msankrish92/userstory-rating-rag/internal/service"
)

const Version = "0.1.0"

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	lexical := repository.NewLexicalRepo(pool)
	vector := repository.NewVectorRepo(pool)

	embedder := llmclient.NewEmbeddingAdapter(cfg.EmbeddingServiceURL, cfg.EmbeddingUserID, cfg.EmbeddingModel, nil)
	completer := llmclient.NewCompletionAdapter(cfg.CompletionServiceURL, cfg.CompletionModel, nil)
	llmCompleter := &service.LLMCompleter{Adapter: completer}

	orchestrator := service.NewOrchestrator(cfg.ConnPoolSize, time.Duration(cfg.ConnPoolWaitBudgetMs)*time.Millisecond)
	orchestrator.Lexical = lexical
	orchestrator.Vector = vector
	orchestrator.Embedder = embedder
	orchestrator.Completer = llmCompleter

	jobRegistry := jobs.NewRegistry(time.Duration(cfg.JobTTLMinutes) * time.Minute)
	defer jobRegistry.Stop()

	metricsReg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(metricsReg)

	var generalLimiter *middleware.RateLimiter
	if cfg.Environment != "development" {
		generalLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			MaxRequests: 120,
			Window:      1 * time.Minute,
		})
		defer generalLimiter.Stop()
	}

	deps := &router.Dependencies{
		DB:          pool,
		FrontendURL: cfg.FrontendURL,
		Version:     Version,
		Metrics:     metrics,
		MetricsReg:  metricsReg,
		Search: handler.SearchDeps{
			Lexical:             lexical,
			Vector:              vector,
			Embedder:            embedder,
			Completer:           llmCompleter,
			Orchestrator:        orchestrator,
			Metadata:            vector,
			Jobs:                jobRegistry,
			FieldWeights:        model.DefaultFieldWeights(),
			DefaultLimit:        cfg.SearchLimitDefault,
			DefaultRerankTopK:   cfg.RerankTopKDefault,
			DefaultBM25Weight:   cfg.BM25Weight,
			DefaultVectorWeight: cfg.VectorWeight,
			DedupThreshold:      cfg.DedupThreshold,
			CompletionModel:     cfg.CompletionModel,
			SummaryMaxItems:     cfg.SummaryMaxItems,
		},
		GeneralRateLimiter: generalLimiter,
	}

	r := router.New(deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "version", Version, "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("received signal, shutting down gracefully", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
