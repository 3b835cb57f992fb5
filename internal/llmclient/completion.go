package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// CompletionAdapter calls an OpenAI-style chat completion service at
// POST {base}/v1/chat/completions, wrapped in a transaction envelope
// carrying cost.
type CompletionAdapter struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewCompletionAdapter builds a CompletionAdapter. tokenSource may be nil.
func NewCompletionAdapter(baseURL, model string, tokenSource oauth2.TokenSource) *CompletionAdapter {
	var client *http.Client
	if tokenSource != nil {
		client = oauth2.NewClient(context.Background(), tokenSource)
	} else {
		client = http.DefaultClient
	}
	return &CompletionAdapter{baseURL: baseURL, model: model, httpClient: client}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

// transactionEnvelope is the wire shape of the completion service's
// response: the payload and cost nested under "transaction".
type transactionEnvelope struct {
	Transaction struct {
		Response chatResponse `json:"response"`
		Cost     float64      `json:"cost"`
	} `json:"transaction"`
}

// CompletionResult is the adapter's normalised output: the raw text
// response plus token/cost accounting for the orchestrator's roll-up.
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	Cost             float64
}

// Complete sends a system+user prompt pair and returns the raw completion
// text alongside usage accounting. Retried on 429/503 and rate-limit/quota
// errors.
func (a *CompletionAdapter) Complete(ctx context.Context, systemPrompt, userPrompt string) (CompletionResult, error) {
	return withRetry(ctx, "Complete", func() (CompletionResult, error) {
		return a.doComplete(ctx, systemPrompt, userPrompt)
	})
}

func (a *CompletionAdapter) doComplete(ctx context.Context, systemPrompt, userPrompt string) (CompletionResult, error) {
	messages := []chatMessage{}
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	reqBody, err := json.Marshal(chatRequest{Model: a.model, Messages: messages})
	if err != nil {
		return CompletionResult{}, fmt.Errorf("marshal: %w", err)
	}

	url := strings.TrimSuffix(a.baseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return CompletionResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("read body: %w", err)
	}

	if isRetryableStatus(resp.StatusCode) {
		return CompletionResult{}, newStatusError(resp.StatusCode, body)
	}
	if resp.StatusCode != http.StatusOK {
		return CompletionResult{}, fmt.Errorf("completion service error status %d: %s", resp.StatusCode, body)
	}

	var env transactionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return CompletionResult{}, fmt.Errorf("decode: %w", err)
	}
	if len(env.Transaction.Response.Choices) == 0 {
		return CompletionResult{}, fmt.Errorf("empty completion response")
	}

	return CompletionResult{
		Text:             env.Transaction.Response.Choices[0].Message.Content,
		PromptTokens:     env.Transaction.Response.Usage.PromptTokens,
		CompletionTokens: env.Transaction.Response.Usage.CompletionTokens,
		Cost:             env.Transaction.Cost,
	}, nil
}

// HealthCheck validates connectivity to the completion service.
func (a *CompletionAdapter) HealthCheck(ctx context.Context) error {
	res, err := a.Complete(ctx, "", "Reply with only: OK")
	if err != nil {
		return fmt.Errorf("completion health check failed: %w", err)
	}
	if res.Text == "" {
		return fmt.Errorf("completion service returned empty response")
	}
	return nil
}

// StripMarkdownFences removes a single pair of ``` fences wrapping raw,
// if present, so a model that wraps its answer in a code block still
// parses cleanly.
func StripMarkdownFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	lines := strings.Split(cleaned, "\n")
	if len(lines) >= 3 {
		cleaned = strings.Join(lines[1:len(lines)-1], "\n")
	}
	return strings.TrimSpace(cleaned)
}
