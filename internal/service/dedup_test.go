package service

import (
	"testing"

	"github.com/msankrish92/userstory-rating-rag/internal/model"
)

func ranked(id, title string) model.RankedCandidate {
	return model.RankedCandidate{Item: model.Item{ID: id, Title: title}}
}

func TestDeduplicate_RemovesNearDuplicates(t *testing.T) {
	in := []model.RankedCandidate{
		ranked("1", "patient admission workflow"),
		ranked("2", "patient admission workflow test"),
		ranked("3", "completely different topic entirely"),
	}

	result := Deduplicate(in, 0.6)

	if len(result.Kept) != 2 {
		t.Fatalf("len(Kept) = %d, want 2", len(result.Kept))
	}
	if len(result.Removed) != 1 {
		t.Fatalf("len(Removed) = %d, want 1", len(result.Removed))
	}
	if result.Removed[0].DuplicateOf != "1" {
		t.Errorf("DuplicateOf = %q, want %q", result.Removed[0].DuplicateOf, "1")
	}
}

func TestDeduplicate_EmptyInput(t *testing.T) {
	result := Deduplicate(nil, 0.85)
	if len(result.Kept) != 0 || len(result.Removed) != 0 {
		t.Error("expected empty Kept and Removed for empty input")
	}
}

func TestDeduplicate_EmptyTitleFallsBackToBody(t *testing.T) {
	a := model.RankedCandidate{Item: model.Item{ID: "1", Description: "shared description text here"}}
	b := model.RankedCandidate{Item: model.Item{ID: "2", Description: "shared description text here"}}

	result := Deduplicate([]model.RankedCandidate{a, b}, 0.85)
	if len(result.Kept) != 1 {
		t.Fatalf("len(Kept) = %d, want 1", len(result.Kept))
	}
}

func TestDeduplicate_ThresholdBoundary(t *testing.T) {
	in := []model.RankedCandidate{
		ranked("1", "alpha beta gamma delta"),
		ranked("2", "totally unrelated words here now"),
	}

	result := Deduplicate(in, 0.99)
	if len(result.Kept) != 2 {
		t.Errorf("len(Kept) = %d, want 2 (dissimilar titles must both survive a strict threshold)", len(result.Kept))
	}
}
