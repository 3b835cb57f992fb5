package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/msankrish92/userstory-rating-rag/internal/model"
)

type stubCompleter struct {
	calls   int
	failN   int // fail the first failN calls
	result  CompletionResult
	lastReq string
}

func (s *stubCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (CompletionResult, error) {
	s.calls++
	s.lastReq = userPrompt
	if s.calls <= s.failN {
		return CompletionResult{}, errors.New("transient failure")
	}
	return s.result, nil
}

func rankedWithTitle(id, title string) model.RankedCandidate {
	return model.RankedCandidate{Item: model.Item{ID: id, Title: title, Description: strings.Repeat("x", 500)}}
}

func TestSummarize_Success(t *testing.T) {
	c := &stubCompleter{result: CompletionResult{Text: "summary", PromptTokens: 10, CompletionTokens: 5, Cost: 0.01}}
	items := []model.RankedCandidate{rankedWithTitle("1", "a"), rankedWithTitle("2", "b")}

	res, err := Summarize(context.Background(), c, items, SummaryConcise, 5)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if res.Text != "summary" {
		t.Errorf("Text = %q, want %q", res.Text, "summary")
	}
	if c.calls != 1 {
		t.Errorf("calls = %d, want 1", c.calls)
	}
}

func TestSummarize_RetriesOnceThenSucceeds(t *testing.T) {
	c := &stubCompleter{failN: 1, result: CompletionResult{Text: "ok"}}
	items := []model.RankedCandidate{rankedWithTitle("1", "a")}

	res, err := Summarize(context.Background(), c, items, SummaryConcise, 5)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if res.Text != "ok" || c.calls != 2 {
		t.Errorf("expected 2 calls ending in success, got calls=%d text=%q", c.calls, res.Text)
	}
}

func TestSummarize_FailsAfterSecondAttempt(t *testing.T) {
	c := &stubCompleter{failN: 2}
	items := []model.RankedCandidate{rankedWithTitle("1", "a")}

	_, err := Summarize(context.Background(), c, items, SummaryConcise, 5)
	if err == nil {
		t.Fatal("expected error after retry exhausted")
	}
	if c.calls != 2 {
		t.Errorf("calls = %d, want 2 (one retry)", c.calls)
	}
}

func TestSummarize_CapsItemCount(t *testing.T) {
	c := &stubCompleter{result: CompletionResult{Text: "ok"}}
	items := make([]model.RankedCandidate, 10)
	for i := range items {
		items[i] = rankedWithTitle(string(rune('a'+i)), "title")
	}

	_, err := Summarize(context.Background(), c, items, SummaryConcise, 5)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if strings.Count(c.lastReq, "id=") != 5 {
		t.Errorf("expected prompt to include exactly 5 items, got %d", strings.Count(c.lastReq, "id="))
	}
}

func TestSummarize_TruncatesLongFields(t *testing.T) {
	c := &stubCompleter{result: CompletionResult{Text: "ok"}}
	items := []model.RankedCandidate{rankedWithTitle("1", "a")}

	_, err := Summarize(context.Background(), c, items, SummaryConcise, 5)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if strings.Contains(c.lastReq, strings.Repeat("x", 201)) {
		t.Error("expected description to be truncated below 201 chars")
	}
}
