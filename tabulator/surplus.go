package tabulator

import (
	"github.com/shopspring/decimal"

	"github.com/openrcv/tabulator/arith"
	"github.com/openrcv/tabulator/candidate"
	"github.com/openrcv/tabulator/tally"
)

// distributeSurplus implements spec §4.8's fractional (Gregory)
// surplus transfer: each newly-elected winner keeps votes up to
// threshold and the surplus fraction of every ballot currently
// assigned to them continues on to be routed in the next round. The
// ballot keeps its (now-reduced) FractionalTransferValue and its
// CurrentRecipient unchanged; since the winner is no longer
// continuing, computeTalliesForRound re-routes it naturally next
// round and records the resulting transfer.
func (t *Tabulator) distributeSurplus(round int, rt *tally.RoundTally, winners []candidate.Candidate) {
	for _, w := range winners {
		total := rt.Candidate(w)
		surplus := t.ar.Sub(total, rt.Threshold)
		fraction := decimal.Zero
		if t.ar.Signum(surplus) > 0 {
			fraction = t.ar.Divide(surplus, total, arith.RoundDown)
		}

		for _, cvr := range t.cvrs {
			recipient, ok := cvr.Recipient()
			if !ok || recipient != w {
				continue
			}
			transferPortion := t.ar.Mul(cvr.FractionalTransferValue, fraction)
			retained := t.ar.Sub(cvr.FractionalTransferValue, transferPortion)
			cvr.CreditWinner(w, retained)
			cvr.FractionalTransferValue = transferPortion
		}
	}
}
