package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

// EmbeddingAdapter calls an embedding service at
// POST {base}/embedding/text/{userId} with {input, model}.
type EmbeddingAdapter struct {
	baseURL    string
	userID     string
	model      string
	httpClient *http.Client
}

// NewEmbeddingAdapter builds an EmbeddingAdapter. tokenSource may be nil,
// in which case requests carry no Authorization header.
func NewEmbeddingAdapter(baseURL, userID, model string, tokenSource oauth2.TokenSource) *EmbeddingAdapter {
	var client *http.Client
	if tokenSource != nil {
		client = oauth2.NewClient(context.Background(), tokenSource)
	} else {
		client = http.DefaultClient
	}
	return &EmbeddingAdapter{baseURL: baseURL, userID: userID, model: model, httpClient: client}
}

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embeddingDatum struct {
	Embedding []float32 `json:"embedding"`
}

type embeddingResponse struct {
	Status string           `json:"status"`
	Data   []embeddingDatum `json:"data"`
	Usage  struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Cost float64 `json:"cost"`
}

// Embed embeds a batch of texts, one request per text (the service's
// contract takes a single `input` string per call). Retried on 429/503 and
// rate-limit/quota errors with backoff capped at the shared 10s ceiling.
func (a *EmbeddingAdapter) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, _, err := a.embedOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("llmclient.Embed: %w", err)
		}
		out[i] = vec
	}
	return out, nil
}

// EmbedWithUsage embeds a single text and returns the token/cost accounting
// the orchestrator rolls into its PipelineExecutionRecord.
func (a *EmbeddingAdapter) EmbedWithUsage(ctx context.Context, text string) ([]float32, EmbeddingUsage, error) {
	return a.embedOne(ctx, text)
}

// EmbeddingUsage is the cost/token accounting returned alongside a vector.
type EmbeddingUsage struct {
	TotalTokens int
	Cost        float64
}

func (a *EmbeddingAdapter) embedOne(ctx context.Context, text string) ([]float32, EmbeddingUsage, error) {
	type result struct {
		vec   []float32
		usage EmbeddingUsage
	}
	r, err := withRetry(ctx, "Embed", func() (result, error) {
		vec, usage, err := a.doEmbed(ctx, text)
		return result{vec, usage}, err
	})
	return r.vec, r.usage, err
}

func (a *EmbeddingAdapter) doEmbed(ctx context.Context, text string) ([]float32, EmbeddingUsage, error) {
	reqBody, err := json.Marshal(embeddingRequest{Input: text, Model: a.model})
	if err != nil {
		return nil, EmbeddingUsage{}, fmt.Errorf("marshal: %w", err)
	}

	url := fmt.Sprintf("%s/embedding/text/%s", a.baseURL, a.userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, EmbeddingUsage{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, EmbeddingUsage{}, fmt.Errorf("call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, EmbeddingUsage{}, fmt.Errorf("read body: %w", err)
	}

	if isRetryableStatus(resp.StatusCode) {
		return nil, EmbeddingUsage{}, newStatusError(resp.StatusCode, body)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, EmbeddingUsage{}, fmt.Errorf("embedding service error status %d: %s", resp.StatusCode, body)
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, EmbeddingUsage{}, fmt.Errorf("decode: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, EmbeddingUsage{}, fmt.Errorf("empty embedding response")
	}

	usage := EmbeddingUsage{TotalTokens: parsed.Usage.TotalTokens, Cost: parsed.Cost}
	return parsed.Data[0].Embedding, usage, nil
}

// HealthCheck validates connectivity to the embedding service.
func (a *EmbeddingAdapter) HealthCheck(ctx context.Context) error {
	_, err := a.Embed(ctx, []string{"health check"})
	if err != nil {
		return fmt.Errorf("embedding health check failed: %w", err)
	}
	return nil
}
