package tabulator

import (
	"github.com/shopspring/decimal"

	"github.com/openrcv/tabulator/candidate"
	"github.com/openrcv/tabulator/tally"
)

// carryForwardPastWinners implements spec §4.10: a multi-seat winner
// stops receiving new tally entries in computeTalliesForRound once
// elected (they are no longer continuing), so their tally has to be
// written back into every later round for reporting.
//
// The winner who won in the immediately prior round gets the fresh
// computation: sum every ballot's permanently-retained credit to
// them, subtract the threshold, book the positive remainder as
// residual surplus, and clamp tally(w) down to exactly the threshold
// (spec §8's monotonicity property: "past-round winners: tally =
// threshold exactly after the carry-forward"). A winner whose retained
// total is below the threshold (seated without reaching it) keeps that
// total; it is not raised to the threshold. A winner from an earlier round
// already has that clamped value sitting in the previous round's
// tally - it is copied forward unchanged, not recomputed, or the same
// residual would be booked again every later round.
func (t *Tabulator) carryForwardPastWinners(round int, rt *tally.RoundTally, precinctRT map[string]*tally.RoundTally) error {
	prev := t.roundTallies[round-1]

	for w, wonRound := range t.winnerToRound {
		if wonRound >= round {
			continue
		}

		if wonRound == round-1 {
			t.clampFreshWinner(round, w, rt)
		} else {
			rt.Unlock()
			rt.SetCandidate(w, prev.Candidate(w))
			rt.Relock()
		}

		if precinctRT == nil {
			continue
		}
		for p, prt := range precinctRT {
			if wonRound == round-1 {
				t.clampFreshWinnerPrecinct(round, w, p, rt.Threshold, prt)
				continue
			}
			prevP := t.precinctRoundTallies[p][round-1]
			prt.Unlock()
			prt.SetCandidate(w, prevP.Candidate(w))
			prt.Relock()
		}
	}
	return nil
}

// clampFreshWinner books the §4.10 carry-forward for a winner elected
// in the immediately prior round.
func (t *Tabulator) clampFreshWinner(round int, w candidate.Candidate, rt *tally.RoundTally) {
	raw := t.winnerFrozenTally(w, "")
	adjusted := raw
	remainder := t.ar.Sub(raw, rt.Threshold)
	if t.ar.Signum(remainder) > 0 {
		adjusted = rt.Threshold
		t.roundToResidualSurplus[round] = t.ar.Add(t.roundToResidualSurplus[round], remainder)
		t.transfers.Add(round, string(w), tally.Residual, remainder)
	}
	rt.Unlock()
	rt.SetCandidate(w, adjusted)
	rt.Relock()
}

// clampFreshWinnerPrecinct mirrors clampFreshWinner on one precinct's
// tally, using the same contest-wide threshold.
func (t *Tabulator) clampFreshWinnerPrecinct(round int, w candidate.Candidate, precinct string, threshold decimal.Decimal, prt *tally.RoundTally) {
	raw := t.winnerFrozenTally(w, precinct)
	adjusted := raw
	remainder := t.ar.Sub(raw, threshold)
	if t.ar.Signum(remainder) > 0 {
		adjusted = threshold
		pt := t.precinctTransfers[precinct]
		if pt == nil {
			pt = tally.NewTransfers()
			t.precinctTransfers[precinct] = pt
		}
		pt.Add(round, string(w), tally.Residual, remainder)
	}
	prt.Unlock()
	prt.SetCandidate(w, adjusted)
	prt.Relock()
}

// winnerFrozenTally sums every ballot's retained credit to w, scoped
// to precinct when non-empty.
func (t *Tabulator) winnerFrozenTally(w candidate.Candidate, precinct string) decimal.Decimal {
	sum := decimal.Zero
	for _, cvr := range t.cvrs {
		if precinct != "" && cvr.Precinct != precinct {
			continue
		}
		sum = sum.Add(cvr.WinnerToFractionalValue[w])
	}
	return sum
}
