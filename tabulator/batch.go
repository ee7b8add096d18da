package tabulator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/openrcv/tabulator/candidate"
	"github.com/openrcv/tabulator/errs"
	"github.com/openrcv/tabulator/tally"
)

// eliminate implements spec §4.7's elimination step and §4.9's batch
// elimination. Batch elimination, when enabled, removes every
// candidate in the maximal bottom group that mathematically cannot
// catch up to the next-lowest continuing candidate even pooled
// together, skipping the tiebreak breaker entirely for that group.
// Otherwise a single lowest-tally candidate is eliminated, with ties
// resolved by the Breaker.
func (t *Tabulator) eliminate(round int, rt *tally.RoundTally) ([]candidate.Candidate, error) {
	// §4.4 step 7a: drop the undeclared-write-in bucket before any
	// declared candidate, the first time it carries a positive tally.
	if t.isContinuing(candidate.UndeclaredWriteIn) && rt.Candidate(candidate.UndeclaredWriteIn).IsPositive() {
		return []candidate.Candidate{candidate.UndeclaredWriteIn}, nil
	}

	continuing := t.continuingCandidates()
	if len(continuing) == 0 {
		return nil, errs.New(errs.KindNoEliminee, round, "no continuing candidates remain to eliminate")
	}
	if len(continuing) <= 1 {
		return nil, nil
	}

	// §4.4 step 7b: drop every candidate strictly below the minimum
	// vote threshold before batch/single elimination runs. Aborts if
	// that would drop every declared candidate still standing.
	if below := t.belowMinimumVoteThreshold(continuing, rt); len(below) > 0 {
		if len(below) == len(continuing) {
			return nil, errs.New(errs.KindNoEliminee, round, "every continuing candidate is below the minimum vote threshold")
		}
		return below, nil
	}

	if t.cfg.BatchEliminationEnabled {
		if batch := t.batchEliminees(continuing, rt); len(batch) > 0 {
			return batch, nil
		}
	}

	lowest := t.lowestTallyGroup(continuing, rt)
	loser, _, err := t.breaker.Break(lowest, round, false)
	if err != nil {
		return nil, err
	}
	return []candidate.Candidate{loser}, nil
}

func (t *Tabulator) belowMinimumVoteThreshold(continuing []candidate.Candidate, rt *tally.RoundTally) []candidate.Candidate {
	if !t.cfg.MinimumVoteThreshold.IsPositive() {
		return nil
	}
	var out []candidate.Candidate
	for _, c := range continuing {
		if t.ar.Compare(rt.Candidate(c), t.cfg.MinimumVoteThreshold) < 0 {
			out = append(out, c)
		}
	}
	return out
}

func (t *Tabulator) lowestTallyGroup(continuing []candidate.Candidate, rt *tally.RoundTally) []candidate.Candidate {
	sorted := ascendingByTally(continuing, rt)
	min := rt.Candidate(sorted[0])
	var out []candidate.Candidate
	for _, c := range sorted {
		if rt.Candidate(c).Equal(min) {
			out = append(out, c)
		}
	}
	return out
}

func (t *Tabulator) batchEliminees(continuing []candidate.Candidate, rt *tally.RoundTally) []candidate.Candidate {
	sorted := ascendingByTally(continuing, rt)

	sum := decimal.Zero
	cut := 0
	for i := 0; i < len(sorted)-1; i++ {
		sum = sum.Add(rt.Candidate(sorted[i]))
		next := rt.Candidate(sorted[i+1])
		if sum.LessThan(next) {
			cut = i + 1
		}
	}
	if cut == 0 {
		return nil
	}
	return sorted[:cut]
}

func ascendingByTally(cands []candidate.Candidate, rt *tally.RoundTally) []candidate.Candidate {
	out := make([]candidate.Candidate, len(cands))
	copy(out, cands)
	sortCandidates(out)
	sort.SliceStable(out, func(i, j int) bool { return rt.Candidate(out[i]).LessThan(rt.Candidate(out[j])) })
	return out
}
