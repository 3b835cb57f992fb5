package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration loaded from environment
// variables. It is immutable after Load() returns.
type Config struct {
	Port                 int
	Environment          string
	DatabaseURL          string
	DatabaseName         string
	DatabaseMaxConns     int
	SearchCollection     string
	TextIndexName        string
	VectorIndexName      string
	EmbeddingDimensions  int
	EmbeddingServiceURL  string
	EmbeddingModel       string
	EmbeddingUserID      string
	CompletionServiceURL string
	CompletionModel      string
	FrontendURL          string
	InternalAuthSecret   string
	DedupThreshold       float64
	DedupThresholdStrict float64
	SummaryMaxItems      int
	RerankTopKDefault    int
	SearchLimitDefault   int
	BM25Weight           float64
	VectorWeight         float64
	ConnPoolSize         int
	ConnPoolWaitBudgetMs int
	OrchestratorTimeoutS int
	RemoteCallTimeoutS   int
	JobTTLMinutes        int
}

// Load reads configuration from environment variables. DATABASE_URL is
// always required; the two outbound service URLs are required outside
// development so the process fails fast rather than degrading silently
// once deployed.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("config.Load: DATABASE_URL is required")
	}

	cfg := &Config{
		Port:                 envInt("PORT", 8080),
		Environment:          envStr("ENVIRONMENT", "development"),
		DatabaseURL:          dbURL,
		DatabaseName:         envStr("DATABASE_NAME", "retrieval"),
		DatabaseMaxConns:     envInt("DATABASE_MAX_CONNS", 20),
		SearchCollection:     envStr("SEARCH_COLLECTION", "items"),
		TextIndexName:        envStr("TEXT_INDEX_NAME", "items_text_idx"),
		VectorIndexName:      envStr("VECTOR_INDEX_NAME", "items_vector_idx"),
		EmbeddingDimensions:  envInt("EMBEDDING_DIMENSIONS", 1536),
		EmbeddingServiceURL:  envStr("EMBEDDING_SERVICE_URL", ""),
		EmbeddingModel:       envStr("EMBEDDING_MODEL", "text-embedding-3-large"),
		EmbeddingUserID:      envStr("EMBEDDING_SERVICE_USER_ID", ""),
		CompletionServiceURL: envStr("COMPLETION_SERVICE_URL", ""),
		CompletionModel:      envStr("COMPLETION_MODEL", "gpt-4o-mini"),
		FrontendURL:          envStr("FRONTEND_URL", "http://localhost:3000"),
		InternalAuthSecret:   envStr("INTERNAL_AUTH_SECRET", ""),
		DedupThreshold:       envFloat("DEDUP_THRESHOLD", 0.85),
		DedupThresholdStrict: envFloat("DEDUP_THRESHOLD_STRICT", 0.95),
		SummaryMaxItems:      envInt("SUMMARY_MAX_ITEMS", 5),
		RerankTopKDefault:    envInt("RERANK_TOP_K_DEFAULT", 50),
		SearchLimitDefault:   envInt("SEARCH_LIMIT_DEFAULT", 10),
		BM25Weight:           envFloat("BM25_WEIGHT", 0.4),
		VectorWeight:         envFloat("VECTOR_WEIGHT", 0.6),
		ConnPoolSize:         envInt("CONN_POOL_SIZE", 20),
		ConnPoolWaitBudgetMs: envInt("CONN_POOL_WAIT_BUDGET_MS", 500),
		OrchestratorTimeoutS: envInt("ORCHESTRATOR_TIMEOUT_S", 300),
		RemoteCallTimeoutS:   envInt("REMOTE_CALL_TIMEOUT_S", 30),
		JobTTLMinutes:        envInt("JOB_TTL_MINUTES", 60),
	}

	if cfg.Environment != "development" {
		if cfg.InternalAuthSecret == "" {
			return nil, fmt.Errorf("config.Load: INTERNAL_AUTH_SECRET is required in %s environment", cfg.Environment)
		}
		if cfg.EmbeddingServiceURL == "" {
			return nil, fmt.Errorf("config.Load: EMBEDDING_SERVICE_URL is required in %s environment", cfg.Environment)
		}
		if cfg.CompletionServiceURL == "" {
			return nil, fmt.Errorf("config.Load: COMPLETION_SERVICE_URL is required in %s environment", cfg.Environment)
		}
	}

	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
