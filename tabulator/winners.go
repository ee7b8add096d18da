package tabulator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/openrcv/tabulator/candidate"
	"github.com/openrcv/tabulator/tally"
)

// selectWinners implements spec §4.7: every continuing candidate at or
// above threshold wins, except that a round never declares more
// winners than seats remain - when more candidates cross the
// threshold than there is room for, the excess is resolved by tally
// order (ties broken by the Breaker) rather than all winning at once.
func (t *Tabulator) selectWinners(round int, rt *tally.RoundTally) ([]candidate.Candidate, error) {
	continuing := t.continuingCandidates()

	if t.cfg.MultiSeatBottomsUp {
		// Bottoms-up-with-threshold: declare every continuing
		// candidate a winner at once, but only once all of them have
		// crossed threshold - never a partial winner set.
		if len(continuing) == 0 {
			return nil, nil
		}
		for _, c := range continuing {
			if t.ar.Compare(rt.Candidate(c), rt.Threshold) < 0 {
				return nil, nil
			}
		}
		sortCandidates(continuing)
		return continuing, nil
	}

	remainingSeats := t.cfg.NumWinners - len(t.winnerToRound)
	if remainingSeats <= 0 {
		return nil, nil
	}

	var crossing []candidate.Candidate
	switch {
	case len(continuing) == remainingSeats:
		// Final-seats rule: once exactly as many candidates remain
		// continuing as there are seats left, they all win regardless
		// of threshold - there is no one left to prefer them over.
		crossing = append([]candidate.Candidate(nil), continuing...)

	case t.cfg.FirstRoundDeterminesThreshold && len(continuing) == t.cfg.NumWinners+1:
		// Penultimate-round fallback: one continuing candidate more
		// than seats remain, and the threshold is frozen to round 1 -
		// declare whoever has the highest tally rather than wait for
		// a crossing that a frozen threshold may never admit again.
		crossing = t.highestTallyGroup(continuing, rt)

	case !t.cfg.MultiSeatBottomsUpUntilN:
		for _, c := range continuing {
			if t.ar.Compare(rt.Candidate(c), rt.Threshold) >= 0 {
				crossing = append(crossing, c)
			}
		}
	}

	if len(crossing) == 0 {
		return nil, nil
	}
	sortCandidates(crossing)

	if t.cfg.MultiSeatOneWinnerPerRound || t.cfg.FirstRoundDeterminesThreshold {
		narrowed, err := t.narrowToSingleWinner(crossing, round, rt)
		if err != nil {
			return nil, err
		}
		crossing = narrowed
	}

	if len(crossing) <= remainingSeats {
		return crossing, nil
	}

	ordered, err := t.orderByTallyDescending(crossing, round, rt)
	if err != nil {
		return nil, err
	}
	return ordered[:remainingSeats], nil
}

// highestTallyGroup returns every candidate in cands tied at the
// maximum tally.
func (t *Tabulator) highestTallyGroup(cands []candidate.Candidate, rt *tally.RoundTally) []candidate.Candidate {
	sorted := ascendingByTally(cands, rt)
	max := rt.Candidate(sorted[len(sorted)-1])
	var out []candidate.Candidate
	for _, c := range sorted {
		if rt.Candidate(c).Equal(max) {
			out = append(out, c)
		}
	}
	return out
}

// narrowToSingleWinner implements spec §4.7's single-per-round
// narrowing: when multi_seat_one_winner_per_round or
// first_round_determines_threshold is set, a round declares at most
// one winner - retain only the candidates tied at the maximum tally
// among those selected, breaking a remaining tie via the Breaker.
func (t *Tabulator) narrowToSingleWinner(crossing []candidate.Candidate, round int, rt *tally.RoundTally) ([]candidate.Candidate, error) {
	top := t.highestTallyGroup(crossing, rt)
	if len(top) <= 1 {
		return top, nil
	}
	winner, _, err := t.breaker.Break(top, round, true)
	if err != nil {
		return nil, err
	}
	return []candidate.Candidate{winner}, nil
}

// orderByTallyDescending orders cands from highest to lowest tally,
// resolving any exact ties via the Breaker (selecting a winner, so
// selectingWinner=true).
func (t *Tabulator) orderByTallyDescending(cands []candidate.Candidate, round int, rt *tally.RoundTally) ([]candidate.Candidate, error) {
	sortCandidates(cands)

	groups := make(map[string][]candidate.Candidate)
	values := make(map[string]decimal.Decimal)
	var keys []string
	for _, c := range cands {
		v := rt.Candidate(c)
		k := v.String()
		if _, ok := values[k]; !ok {
			values[k] = v
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], c)
	}
	sort.Slice(keys, func(i, j int) bool { return values[keys[i]].GreaterThan(values[keys[j]]) })

	var out []candidate.Candidate
	for _, k := range keys {
		group := groups[k]
		for len(group) > 1 {
			winner, _, err := t.breaker.Break(group, round, true)
			if err != nil {
				return nil, err
			}
			out = append(out, winner)
			group = removeCandidate(group, winner)
		}
		out = append(out, group...)
	}
	return out, nil
}

func removeCandidate(cands []candidate.Candidate, target candidate.Candidate) []candidate.Candidate {
	out := make([]candidate.Candidate, 0, len(cands)-1)
	for _, c := range cands {
		if c != target {
			out = append(out, c)
		}
	}
	return out
}
