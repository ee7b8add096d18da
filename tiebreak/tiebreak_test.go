package tiebreak_test

import (
	"testing"

	"github.com/openrcv/tabulator/candidate"
	"github.com/openrcv/tabulator/tiebreak"
)

func TestBreakSingleCandidateNeedsNoTiebreak(t *testing.T) {
	b := tiebreak.New(tiebreak.ModeRandom, 1, nil, nil, nil)
	got, reason, err := b.Break([]candidate.Candidate{"A"}, 3, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "A" {
		t.Errorf("Break() = %q, want A", got)
	}
	if reason == "" {
		t.Error("expected a non-empty reason")
	}
}

func TestBreakRandomIsDeterministicForASeed(t *testing.T) {
	tied := []candidate.Candidate{"A", "B", "C"}
	b1 := tiebreak.New(tiebreak.ModeRandom, 42, nil, nil, nil)
	b2 := tiebreak.New(tiebreak.ModeRandom, 42, nil, nil, nil)

	got1, _, err := b1.Break(tied, 1, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got2, _, err := b2.Break(tied, 1, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got1 != got2 {
		t.Errorf("same seed produced different draws: %q vs %q", got1, got2)
	}
}

func TestBreakByPermutationWinnerAndLoserFirst(t *testing.T) {
	permutation := []candidate.Candidate{"B", "A", "C"}
	b := tiebreak.New(tiebreak.ModeUsePermutationInConfig, 0, permutation, nil, nil)

	tied := []candidate.Candidate{"A", "C"}
	winner, _, err := b.Break(tied, 1, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if winner != "A" {
		t.Errorf("winner-first pick = %q, want A (earliest in permutation)", winner)
	}

	loser, _, err := b.Break(tied, 1, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loser != "C" {
		t.Errorf("loser-first pick = %q, want C (latest in permutation)", loser)
	}
}

func TestBreakByPreviousRoundCountsFallsBackToRandom(t *testing.T) {
	tallyAt := func(round int, c candidate.Candidate) (int64, bool) { return 0, false }
	b := tiebreak.New(tiebreak.ModePreviousRoundCountsThenRandom, 7, nil, nil, tallyAt)

	got, reason, err := b.Break([]candidate.Candidate{"A", "B"}, 2, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "A" && got != "B" {
		t.Errorf("Break() = %q, want A or B", got)
	}
	if reason == "" {
		t.Error("expected a non-empty reason")
	}
}

func TestBreakByPreviousRoundCountsNarrows(t *testing.T) {
	scores := map[candidate.Candidate]int64{"A": 10, "B": 10, "C": 5}
	tallyAt := func(round int, c candidate.Candidate) (int64, bool) {
		v, ok := scores[c]
		return v, ok
	}
	b := tiebreak.New(tiebreak.ModePreviousRoundCountsThenRandom, 1, nil, nil, tallyAt)

	// Selecting a loser: round 1 counts narrow {A,B,C} down to {C} (lowest).
	loser, reason, err := b.Break([]candidate.Candidate{"A", "B", "C"}, 2, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loser != "C" {
		t.Errorf("loser = %q, want C", loser)
	}
	if reason == "" {
		t.Error("expected a non-empty reason")
	}
}
