package tabulator

import (
	"github.com/shopspring/decimal"

	"github.com/openrcv/tabulator/arith"
	"github.com/openrcv/tabulator/tally"
)

// computeThreshold implements spec §4.6: the Droop (default) or Hare
// quota for multi-seat contests, the majority threshold for a single
// winner, or the configured percentage for multi-seat bottoms-up —
// floored at minimum_vote_threshold either way.
func (t *Tabulator) computeThreshold(round int, rt *tally.RoundTally) (decimal.Decimal, error) {
	base := rt
	if t.cfg.FirstRoundDeterminesThreshold {
		if first, ok := t.roundTallies[1]; ok {
			base = first
		}
	}
	votes := base.NumActiveBallots()

	var threshold decimal.Decimal
	switch {
	case t.cfg.MultiSeatBottomsUp:
		pct := t.cfg.MultiSeatBottomsUpThresholdPct
		if pct.IsZero() {
			threshold = decimal.Zero
		} else {
			threshold = t.ar.Divide(t.ar.Mul(votes, pct), decimal.NewFromInt(100), arith.RoundDown)
		}

	case t.cfg.NumWinners <= 1:
		threshold = t.ar.Divide(votes, decimal.NewFromInt(2), arith.RoundDown).Add(t.ar.Augend())

	case t.cfg.HareQuotaEnabled:
		seats := decimal.NewFromInt(int64(t.cfg.NumWinners))
		threshold = t.ar.Divide(votes, seats, arith.RoundDown)

	default:
		seats := decimal.NewFromInt(int64(t.cfg.NumWinners))
		threshold = t.ar.Divide(votes, seats.Add(decimal.NewFromInt(1)), arith.RoundDown).Add(t.ar.Augend())
	}

	if t.ar.Compare(threshold, t.cfg.MinimumVoteThreshold) < 0 {
		threshold = t.cfg.MinimumVoteThreshold
	}
	return threshold, nil
}
