package service

import (
	"testing"

	"github.com/msankrish92/userstory-rating-rag/internal/model"
)

func TestNormalizeQuery_EmptyInput(t *testing.T) {
	qt := NormalizeQuery("", model.DefaultNormalizeOptions())
	if qt.Normalised != "" {
		t.Errorf("Normalised = %q, want empty", qt.Normalised)
	}
	if len(qt.Expansions) != 1 || qt.Expansions[0] != "" {
		t.Errorf("Expansions = %v, want [\"\"]", qt.Expansions)
	}
}

func TestNormalizeQuery_CollapsesWhitespaceAndCase(t *testing.T) {
	qt := NormalizeQuery("  Patient   ADMISSION  workflow ", model.NormalizeOptions{})
	if qt.Normalised != "patient admission workflow" {
		t.Errorf("Normalised = %q, want %q", qt.Normalised, "patient admission workflow")
	}
}

func TestNormalizeQuery_ExpandsAbbreviations(t *testing.T) {
	qt := NormalizeQuery("tc for pt dx", model.NormalizeOptions{EnableAbbreviations: true})
	if qt.Normalised != "test case for patient diagnosis" {
		t.Errorf("Normalised = %q, want %q", qt.Normalised, "test case for patient diagnosis")
	}
	if len(qt.AbbreviationsApplied) != 3 {
		t.Errorf("AbbreviationsApplied = %v, want 3 entries", qt.AbbreviationsApplied)
	}
}

func TestNormalizeQuery_AbbreviationsDisabledLeavesTokensAlone(t *testing.T) {
	qt := NormalizeQuery("tc for pt", model.NormalizeOptions{EnableAbbreviations: false})
	if qt.Normalised != "tc for pt" {
		t.Errorf("Normalised = %q, want unchanged input", qt.Normalised)
	}
	if qt.AbbreviationsApplied != nil {
		t.Errorf("AbbreviationsApplied = %v, want nil", qt.AbbreviationsApplied)
	}
}

func TestNormalizeQuery_PreservesIdentifiers(t *testing.T) {
	qt := NormalizeQuery("tc_100 pt", model.NormalizeOptions{
		EnableAbbreviations: true,
		PreserveIdentifiers: true,
	})
	if qt.Normalised != "tc_100 patient" {
		t.Errorf("Normalised = %q, want %q (tc_100 protected)", qt.Normalised, "tc_100 patient")
	}
}

func TestNormalizeQuery_SynonymExpansionRespectsMaxVariations(t *testing.T) {
	qt := NormalizeQuery("patient test", model.NormalizeOptions{
		EnableSynonyms:       true,
		MaxSynonymVariations: 1,
	})
	// "patient" and "test" both have synonym entries; with a cap of 1
	// variation per token, expect base + 1 per token = 3 total expansions.
	if len(qt.Expansions) != 3 {
		t.Fatalf("len(Expansions) = %d, want 3: %v", len(qt.Expansions), qt.Expansions)
	}
	if qt.Expansions[0] != "patient test" {
		t.Errorf("Expansions[0] = %q, want original normalised form first", qt.Expansions[0])
	}
}

func TestNormalizeQuery_SynonymsDisabledYieldsSingleExpansion(t *testing.T) {
	qt := NormalizeQuery("patient test", model.NormalizeOptions{EnableSynonyms: false})
	if len(qt.Expansions) != 1 {
		t.Errorf("len(Expansions) = %d, want 1", len(qt.Expansions))
	}
}

func TestNormalizeQuery_CustomAbbreviationsMergeWithBuiltins(t *testing.T) {
	qt := NormalizeQuery("ehr tc", model.NormalizeOptions{
		EnableAbbreviations: true,
		CustomAbbreviations: map[string]string{"ehr": "electronic health record"},
	})
	if qt.Normalised != "electronic health record test case" {
		t.Errorf("Normalised = %q, want custom+builtin abbreviations applied", qt.Normalised)
	}
}

func TestNormalizeQuery_OriginalPreserved(t *testing.T) {
	raw := "  Patient ADMISSION "
	qt := NormalizeQuery(raw, model.DefaultNormalizeOptions())
	if qt.Original != raw {
		t.Errorf("Original = %q, want verbatim input %q", qt.Original, raw)
	}
}
