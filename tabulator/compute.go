package tabulator

import (
	"fmt"

	"github.com/openrcv/tabulator/ballot"
	"github.com/openrcv/tabulator/candidate"
	"github.com/openrcv/tabulator/overvote"
	"github.com/openrcv/tabulator/tally"
)

// computeTalliesForRound implements spec §4.5: walk every CVR, route
// inactive ballots into their reason bucket and active ballots to
// their current or newly-resolved recipient, and record any transfer
// caused by a ballot's prior recipient ceasing to be continuing.
func (t *Tabulator) computeTalliesForRound(round int) (*tally.RoundTally, map[string]*tally.RoundTally, error) {
	rt := tally.New(round)

	var precinctRT map[string]*tally.RoundTally
	if t.cfg.TabulateByPrecinctEnabled {
		precinctRT = make(map[string]*tally.RoundTally, len(t.precincts))
		for _, p := range t.precincts {
			precinctRT[p] = tally.New(round)
		}
	}

	addTally := func(cvr *ballot.CastVoteRecord, recipient candidate.Candidate) {
		rt.AddCandidate(recipient, cvr.FractionalTransferValue)
		if precinctRT != nil && cvr.Precinct != "" {
			precinctRT[cvr.Precinct].AddCandidate(recipient, cvr.FractionalTransferValue)
		}
	}
	addInactive := func(cvr *ballot.CastVoteRecord, reason tally.InactiveReason) {
		rt.AddInactive(reason, cvr.FractionalTransferValue)
		if precinctRT != nil && cvr.Precinct != "" {
			precinctRT[cvr.Precinct].AddInactive(reason, cvr.FractionalTransferValue)
		}
	}
	recordTransfer := func(cvr *ballot.CastVoteRecord, source candidate.Candidate, target string) {
		t.transfers.Add(round, string(source), target, cvr.FractionalTransferValue)
		if cvr.Precinct != "" {
			pt := t.precinctTransfers[cvr.Precinct]
			if pt == nil {
				pt = tally.NewTransfers()
				t.precinctTransfers[cvr.Precinct] = pt
			}
			pt.Add(round, string(source), target, cvr.FractionalTransferValue)
		}
	}

	for _, cvr := range t.cvrs {
		if cvr.Status != ballot.StatusActive {
			addInactive(cvr, cvr.Status.InactiveReason())
			continue
		}

		if recipient, ok := cvr.Recipient(); ok && t.isContinuing(recipient) {
			addTally(cvr, recipient)
			continue
		}

		prevRecipient, hadRecipient := cvr.Recipient()

		status, desc, recipient, err := t.routeBallot(cvr, round)
		if err != nil {
			return nil, nil, err
		}

		if status == ballot.StatusActive {
			cvr.SetRecipient(recipient)
			cvr.LogActive(round, desc)
			addTally(cvr, recipient)
			if hadRecipient && prevRecipient != recipient {
				recordTransfer(cvr, prevRecipient, string(recipient))
			}
			continue
		}

		cvr.MarkInactive(status, round, desc)
		addInactive(cvr, status.InactiveReason())
		if hadRecipient {
			recordTransfer(cvr, prevRecipient, tally.Residual)
		}
	}

	return rt, precinctRT, nil
}

// routeBallot walks a ballot's marked ranks in ascending order,
// applying the overvote decision table of spec §4.2, repeated-ranking
// and skipped-ranking detection, and returns either a continuing
// recipient (StatusActive) or the inactive status/reason that applies.
func (t *Tabulator) routeBallot(cvr *ballot.CastVoteRecord, round int) (ballot.Status, string, candidate.Candidate, error) {
	r := cvr.Rankings
	ranks := r.Ranks()
	if len(ranks) == 0 {
		return ballot.StatusInactiveUndervote, "no rankings marked", "", nil
	}

	maxSkipped := t.cfg.MaxSkippedRanks()
	seen := make(map[candidate.Candidate]struct{})
	lastRank := 0

	for i, rank := range ranks {
		if maxSkipped != -1 && rank-lastRank-1 > maxSkipped {
			return ballot.StatusInactiveSkippedRanking,
				fmt.Sprintf("more than %d ranks skipped before rank %d", maxSkipped, rank), "", nil
		}
		lastRank = rank
		isFinal := i == len(ranks)-1
		atRank := r.AtRank(rank)

		if t.cfg.ExhaustOnDuplicate {
			var dup candidate.Candidate
			found := false
			for _, c := range atRank.Sorted() {
				if _, ok := seen[c]; ok {
					dup, found = c, true
					break
				}
			}
			if found {
				return ballot.StatusInactiveRepeatedRanking,
					fmt.Sprintf("%s repeated at rank %d", dup, rank), "", nil
			}
			for _, c := range atRank.Sorted() {
				seen[c] = struct{}{}
			}
		}

		decision, err := overvote.Decide(atRank, t.cfg.OvervoteRule, t.isContinuing, round, rank)
		if err != nil {
			return 0, "", "", err
		}

		switch decision {
		case overvote.DecisionExhaust:
			return ballot.StatusInactiveOvervote, fmt.Sprintf("overvote at rank %d", rank), "", nil

		case overvote.DecisionSkipToNextRank:
			if isFinal {
				return ballot.StatusInactiveExhaustedChoices,
					fmt.Sprintf("overvote at rank %d, no further ranks", rank), "", nil
			}
			continue

		default: // DecisionNone
			for _, c := range atRank.Sorted() {
				if t.isContinuing(c) {
					return ballot.StatusActive, fmt.Sprintf("assigned to %s at rank %d", c, rank), c, nil
				}
			}
			if isFinal {
				return t.classifyNoContinuingAtFinalRank(rank),
					fmt.Sprintf("no continuing candidate at rank %d", rank), "", nil
			}
			continue
		}
	}

	return ballot.StatusInactiveExhaustedChoices, "exhausted all marked ranks", "", nil
}

// classifyNoContinuingAtFinalRank distinguishes an undervote (the
// ballot had room left to rank more candidates within the allowed skip
// window but didn't) from exhausted choices (it ranked as many
// candidates as it was permitted to).
func (t *Tabulator) classifyNoContinuingAtFinalRank(rank int) ballot.Status {
	maxSkipped := t.cfg.MaxSkippedRanks()
	if maxSkipped == -1 {
		return ballot.StatusInactiveExhaustedChoices
	}
	if t.cfg.MaxRankingsAllowed-rank > maxSkipped {
		return ballot.StatusInactiveUndervote
	}
	return ballot.StatusInactiveExhaustedChoices
}
