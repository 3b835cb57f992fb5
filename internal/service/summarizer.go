package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/msankrish92/userstory-rating-rag/internal/model"
)

// Truncation limits applied before prompt assembly to keep the prompt
// payload bounded.
const (
	descriptionTruncateChars    = 200
	businessValueTruncateChars  = 150
	acceptanceTruncateChars     = 200
	defaultSummaryMaxItems      = 5
)

// SummaryStyle selects the register of the generated summary.
type SummaryStyle string

const (
	SummaryConcise  SummaryStyle = "concise"
	SummaryDetailed SummaryStyle = "detailed"
)

// Completer abstracts the outbound completion call for testability.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (CompletionResult, error)
}

// CompletionResult mirrors llmclient.CompletionResult without importing
// that package, keeping this package's public interface free of the
// outbound client's wire types.
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	Cost             float64
}

// SummaryResult is the output of the Summariser Client (C6).
type SummaryResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	Cost             float64
}

// Summarize assembles a prompt over at most maxItems items (truncating
// long fields first) and requests one completion. A single retry on
// transient failure; the caller decides what "non-fatal" means at the
// orchestrator boundary.
func Summarize(ctx context.Context, completer Completer, items []model.RankedCandidate, style SummaryStyle, maxItems int) (SummaryResult, error) {
	if maxItems <= 0 {
		maxItems = defaultSummaryMaxItems
	}
	capped := items
	if len(capped) > maxItems {
		capped = capped[:maxItems]
	}

	systemPrompt := buildSummarizerSystemPrompt(style)
	userPrompt := buildSummarizerUserPrompt(capped)

	res, err := completer.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		// single retry on transient error
		res, err = completer.Complete(ctx, systemPrompt, userPrompt)
		if err != nil {
			return SummaryResult{}, fmt.Errorf("service.Summarize: %w", err)
		}
	}

	return SummaryResult{
		Text:             res.Text,
		PromptTokens:     res.PromptTokens,
		CompletionTokens: res.CompletionTokens,
		Cost:             res.Cost,
	}, nil
}

func buildSummarizerSystemPrompt(style SummaryStyle) string {
	switch style {
	case SummaryDetailed:
		return "You summarise a set of healthcare test cases or user stories for a reviewer. " +
			"Produce a detailed summary covering coverage, risk areas, and notable gaps."
	default:
		return "You summarise a set of healthcare test cases or user stories for a reviewer. " +
			"Produce a brief, focused summary of the overall theme."
	}
}

// displayTitle picks the populated title across both item projections: the
// test-case shape's Title, falling back to the user-story shape's Key.
func displayTitle(item model.Item) string {
	if item.Title != "" {
		return item.Title
	}
	return item.Key
}

// displayBody picks the populated body text across both item projections:
// the test-case shape's Description, falling back to the user-story
// shape's Summary.
func displayBody(item model.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Summary
}

func buildSummarizerUserPrompt(items []model.RankedCandidate) string {
	var sb strings.Builder
	sb.WriteString("=== ITEMS ===\n")
	for i, c := range items {
		item := c.Item
		sb.WriteString(fmt.Sprintf("[%d] id=%s title=%q module=%q priority=%q\n",
			i+1, item.ID, displayTitle(item), item.Module, item.Priority))
		if d := truncate(displayBody(item), descriptionTruncateChars); d != "" {
			sb.WriteString("    description: " + d + "\n")
		}
		if bv := truncate(item.BusinessValue, businessValueTruncateChars); bv != "" {
			sb.WriteString("    business_value: " + bv + "\n")
		}
		if ac := truncate(item.AcceptanceCriteria, acceptanceTruncateChars); ac != "" {
			sb.WriteString("    acceptance_criteria: " + ac + "\n")
		}
	}
	return sb.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
