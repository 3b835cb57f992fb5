package service

import (
	"context"

	"github.com/msankrish92/userstory-rating-rag/internal/llmclient"
)

// LLMCompleter adapts *llmclient.CompletionAdapter to the Completer
// interface this package's summariser depends on, keeping service's
// interfaces free of the outbound client's wire types.
type LLMCompleter struct {
	Adapter *llmclient.CompletionAdapter
}

// Compile-time check.
var _ Completer = (*LLMCompleter)(nil)

func (c *LLMCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (CompletionResult, error) {
	res, err := c.Adapter.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return CompletionResult{}, err
	}
	return CompletionResult{
		Text:             res.Text,
		PromptTokens:     res.PromptTokens,
		CompletionTokens: res.CompletionTokens,
		Cost:             res.Cost,
	}, nil
}
