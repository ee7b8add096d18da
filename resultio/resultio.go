// Package resultio writes a completed tabulation's round-by-round
// results, grounded on vote/methods.go's Result-string-building style:
// walk the finished in-memory state and marshal it, rather than stream
// as rounds complete.
package resultio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/openrcv/tabulator/config"
	"github.com/openrcv/tabulator/tabulator"
	"github.com/openrcv/tabulator/tally"
)

// RoundSummary is one round's JSON-serializable snapshot.
type RoundSummary struct {
	Round         int               `json:"round"`
	Tally         map[string]string `json:"tally"`
	Inactive      map[string]string `json:"inactive"`
	InactiveTotal string            `json:"inactive_total"`
	Threshold     string            `json:"threshold"`
	Elected       []string          `json:"elected,omitempty"`
	Eliminated    []string          `json:"eliminated,omitempty"`
}

var allInactiveReasons = []tally.InactiveReason{
	tally.InactiveByUndervote,
	tally.InactiveByOvervote,
	tally.InactiveBySkippedRanking,
	tally.InactiveByRepeatedRanking,
	tally.InactiveByExhaustedChoices,
}

// Summary is the JSON-serializable shape of a completed tabulation.
type Summary struct {
	NumWinners int            `json:"num_winners"`
	Rounds     []RoundSummary `json:"rounds"`
	Winners    []string       `json:"winners"`
}

// BuildSummary walks t's locked round tallies into a Summary.
func BuildSummary(cfg *config.Contest, t *tabulator.Tabulator) Summary {
	s := Summary{NumWinners: cfg.NumWinners}

	for round := 1; round <= t.CurrentRound(); round++ {
		rt, ok := t.RoundTallies()[round]
		if !ok {
			continue
		}

		rs := RoundSummary{
			Round:     round,
			Tally:     make(map[string]string),
			Inactive:  make(map[string]string),
			Threshold: rt.Threshold.String(),
		}
		for _, c := range rt.Candidates() {
			rs.Tally[cfg.GetNameForCandidate(c)] = rt.Candidate(c).String()
		}
		total := decimal.Zero
		for _, reason := range allInactiveReasons {
			v := rt.Inactive(reason)
			total = total.Add(v)
			if !v.IsZero() {
				rs.Inactive[reason.String()] = v.String()
			}
		}
		rs.InactiveTotal = total.String()
		for c, r := range t.WinnerToRound() {
			if r == round {
				rs.Elected = append(rs.Elected, cfg.GetNameForCandidate(c))
			}
		}
		for c, r := range t.CandidateToRoundEliminated() {
			if r == round {
				rs.Eliminated = append(rs.Eliminated, cfg.GetNameForCandidate(c))
			}
		}
		s.Rounds = append(s.Rounds, rs)
	}

	type winnerAtRound struct {
		name  string
		round int
	}
	var winners []winnerAtRound
	for c, r := range t.WinnerToRound() {
		winners = append(winners, winnerAtRound{cfg.GetNameForCandidate(c), r})
	}
	for i := 1; i < len(winners); i++ {
		for j := i; j > 0 && winners[j].round < winners[j-1].round; j-- {
			winners[j], winners[j-1] = winners[j-1], winners[j]
		}
	}
	for _, w := range winners {
		s.Winners = append(s.Winners, w.name)
	}

	return s
}

// WriteJSON marshals a Summary as indented JSON.
func WriteJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteCSV renders one row per round, one column per candidate plus
// threshold and inactive-ballot total.
func WriteCSV(w io.Writer, s Summary) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	candidates := map[string]struct{}{}
	for _, rs := range s.Rounds {
		for name := range rs.Tally {
			candidates[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(candidates))
	for name := range candidates {
		names = append(names, name)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}

	header := append([]string{"round"}, names...)
	header = append(header, "threshold", "inactive")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, rs := range s.Rounds {
		row := make([]string, 0, len(header))
		row = append(row, fmt.Sprintf("%d", rs.Round))
		for _, name := range names {
			row = append(row, rs.Tally[name])
		}
		row = append(row, rs.Threshold, rs.InactiveTotal)

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row for round %d: %w", rs.Round, err)
		}
	}
	return nil
}
