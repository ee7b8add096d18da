package resultio_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/openrcv/tabulator/ballot"
	"github.com/openrcv/tabulator/candidate"
	"github.com/openrcv/tabulator/config"
	"github.com/openrcv/tabulator/overvote"
	"github.com/openrcv/tabulator/rankings"
	"github.com/openrcv/tabulator/resultio"
	"github.com/openrcv/tabulator/tabulator"
	"github.com/openrcv/tabulator/tiebreak"
)

func cvr(id string, ranks ...[]candidate.Candidate) *ballot.CastVoteRecord {
	b := rankings.NewBuilder()
	for i, cands := range ranks {
		b.Add(i+1, cands...)
	}
	return ballot.New(id, b.Build())
}

func runSmallContest(t *testing.T) (*config.Contest, *tabulator.Tabulator) {
	t.Helper()
	cfg := &config.Contest{
		NumWinners:           1,
		Candidates:           []candidate.Candidate{"A", "B", "C"},
		OvervoteRule:         overvote.RuleExhaustIfMultipleContinuing,
		TiebreakMode:         tiebreak.ModeRandom,
		MaxRankingsAllowed:   10,
		MinimumVoteThreshold: decimal.Zero,
		RandomSeed:           1,
	}
	cvrs := []*ballot.CastVoteRecord{
		cvr("1", []candidate.Candidate{"A"}, []candidate.Candidate{"B"}, []candidate.Candidate{"C"}),
		cvr("2", []candidate.Candidate{"A"}, []candidate.Candidate{"C"}),
		cvr("3", []candidate.Candidate{"B"}, []candidate.Candidate{"A"}),
		cvr("4", []candidate.Candidate{"B"}, []candidate.Candidate{"C"}),
		cvr("5", []candidate.Candidate{"C"}, []candidate.Candidate{"A"}),
	}

	tab := tabulator.New(cfg, cvrs, nil, nil, nil)
	if err := tab.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	return cfg, tab
}

func TestBuildSummaryReportsWinnerAndRounds(t *testing.T) {
	cfg, tab := runSmallContest(t)
	s := resultio.BuildSummary(cfg, tab)

	if len(s.Winners) != 1 || s.Winners[0] != "A" {
		t.Fatalf("Winners = %v, want [A]", s.Winners)
	}
	if len(s.Rounds) != 2 {
		t.Fatalf("len(Rounds) = %d, want 2", len(s.Rounds))
	}
	if s.Rounds[0].Round != 1 || s.Rounds[1].Round != 2 {
		t.Errorf("round numbers = %d, %d, want 1, 2", s.Rounds[0].Round, s.Rounds[1].Round)
	}
	if len(s.Rounds[0].Eliminated) != 1 || s.Rounds[0].Eliminated[0] != "C" {
		t.Errorf("round 1 Eliminated = %v, want [C]", s.Rounds[0].Eliminated)
	}
	if len(s.Rounds[1].Elected) != 1 || s.Rounds[1].Elected[0] != "A" {
		t.Errorf("round 2 Elected = %v, want [A]", s.Rounds[1].Elected)
	}
}

func TestWriteJSONRoundTrips(t *testing.T) {
	cfg, tab := runSmallContest(t)
	s := resultio.BuildSummary(cfg, tab)

	var buf bytes.Buffer
	if err := resultio.WriteJSON(&buf, s); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}

	var decoded resultio.Summary
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("round-tripping JSON: %v", err)
	}
	if len(decoded.Winners) != 1 || decoded.Winners[0] != "A" {
		t.Errorf("decoded Winners = %v, want [A]", decoded.Winners)
	}
}

func TestWriteCSVHasOneRowPerRound(t *testing.T) {
	cfg, tab := runSmallContest(t)
	s := resultio.BuildSummary(cfg, tab)

	var buf bytes.Buffer
	if err := resultio.WriteCSV(&buf, s); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// header + one row per round
	if len(lines) != 1+len(s.Rounds) {
		t.Fatalf("WriteCSV produced %d lines, want %d", len(lines), 1+len(s.Rounds))
	}
	if !strings.HasPrefix(lines[0], "round,") {
		t.Errorf("header = %q, want it to start with \"round,\"", lines[0])
	}
}
