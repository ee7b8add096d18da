package config_test

import (
	"testing"

	"github.com/openrcv/tabulator/config"
)

func TestParseAppliesDefaults(t *testing.T) {
	raw := []byte(`{"candidate_names": ["A", "B", "C"]}`)
	c, err := config.Parse(raw, "json")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if c.NumWinners != 1 {
		t.Errorf("NumWinners = %d, want default 1", c.NumWinners)
	}
	if c.DecimalPlaces != 4 {
		t.Errorf("DecimalPlaces = %d, want default 4", c.DecimalPlaces)
	}
	if c.NumCandidates() != 3 {
		t.Errorf("NumCandidates() = %d, want 3", c.NumCandidates())
	}
}

func TestParseRejectsNoCandidates(t *testing.T) {
	raw := []byte(`{"candidate_names": []}`)
	if _, err := config.Parse(raw, "json"); err == nil {
		t.Fatal("expected an error for a contest with no candidates")
	}
}

func TestParseRespectsExplicitOverride(t *testing.T) {
	raw := []byte(`{"candidate_names": ["A", "B"], "num_winners": 2}`)
	c, err := config.Parse(raw, "json")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if c.NumWinners != 2 {
		t.Errorf("NumWinners = %d, want 2", c.NumWinners)
	}
}

func TestCandidateIsExcluded(t *testing.T) {
	raw := []byte(`{"candidate_names": ["A", "B"], "excluded_candidates": ["B"]}`)
	c, err := config.Parse(raw, "json")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !c.CandidateIsExcluded("B") {
		t.Error("expected B to be excluded")
	}
	if c.NumCandidates() != 1 {
		t.Errorf("NumCandidates() = %d, want 1", c.NumCandidates())
	}
}

func TestMaxSkippedRanksUnsetMeansUnlimited(t *testing.T) {
	raw := []byte(`{"candidate_names": ["A", "B"]}`)
	c, err := config.Parse(raw, "json")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got := c.MaxSkippedRanks(); got != -1 {
		t.Errorf("MaxSkippedRanks() = %d, want -1 (unlimited)", got)
	}
}
