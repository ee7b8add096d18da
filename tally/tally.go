// Package tally implements the per-round tallies and vote-transfer
// ledger of spec §3/§4.4. RoundTally becomes immutable after
// lock_in_round, except for the single scoped surplus-adjustment
// window per round described in §4.10.
package tally

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/openrcv/tabulator/candidate"
)

// InactiveReason is a closed enumeration of the reasons a ballot is
// inactive. These are not errors (spec §7): they are aggregated here.
type InactiveReason int

const (
	InactiveByUndervote InactiveReason = iota
	InactiveByOvervote
	InactiveBySkippedRanking
	InactiveByRepeatedRanking
	InactiveByExhaustedChoices
)

func (r InactiveReason) String() string {
	switch r {
	case InactiveByUndervote:
		return "undervote"
	case InactiveByOvervote:
		return "overvote"
	case InactiveBySkippedRanking:
		return "skipped_ranking"
	case InactiveByRepeatedRanking:
		return "repeated_ranking"
	case InactiveByExhaustedChoices:
		return "exhausted_choices"
	default:
		return "unknown"
	}
}

// RoundTally holds per-round per-candidate totals, inactive-ballot
// tallies by reason, and the winning threshold for that round. It is
// mutable until Lock is called, after which every mutator panics
// except the Unlock/Relock pair guarding surplus adjustment.
type RoundTally struct {
	Round     int
	candTally map[candidate.Candidate]decimal.Decimal
	inactive  map[InactiveReason]decimal.Decimal
	Threshold decimal.Decimal
	locked    bool
}

// New builds an empty, unlocked RoundTally for the given round.
func New(round int) *RoundTally {
	return &RoundTally{
		Round:     round,
		candTally: make(map[candidate.Candidate]decimal.Decimal),
		inactive:  make(map[InactiveReason]decimal.Decimal),
	}
}

func (t *RoundTally) requireUnlocked() {
	if t.locked {
		panic("tally: RoundTally is locked; call Unlock before mutating")
	}
}

// AddCandidate adds amount to c's tally for this round.
func (t *RoundTally) AddCandidate(c candidate.Candidate, amount decimal.Decimal) {
	t.requireUnlocked()
	t.candTally[c] = t.candTally[c].Add(amount)
}

// SetCandidate overwrites c's tally for this round outright, used only
// by the surplus-adjustment carry-forward in spec §4.10.
func (t *RoundTally) SetCandidate(c candidate.Candidate, amount decimal.Decimal) {
	t.requireUnlocked()
	t.candTally[c] = amount
}

// AddInactive adds amount to the running total for the given reason.
func (t *RoundTally) AddInactive(reason InactiveReason, amount decimal.Decimal) {
	t.requireUnlocked()
	t.inactive[reason] = t.inactive[reason].Add(amount)
}

// Candidate returns c's tally for this round (zero if untallied).
func (t *RoundTally) Candidate(c candidate.Candidate) decimal.Decimal {
	return t.candTally[c]
}

// Candidates returns every candidate with an entry in this round's
// tally map (including entries whose value is zero), in deterministic
// lexicographic order.
func (t *RoundTally) Candidates() []candidate.Candidate {
	out := make([]candidate.Candidate, 0, len(t.candTally))
	for c := range t.candTally {
		out = append(out, c)
	}
	sortCandidates(out)
	return out
}

// Inactive returns the running total for reason (zero if none).
func (t *RoundTally) Inactive(reason InactiveReason) decimal.Decimal {
	return t.inactive[reason]
}

// NumActiveBallots returns the sum of every candidate's tally this
// round: Σ candidate tallies.
func (t *RoundTally) NumActiveBallots() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range t.candTally {
		sum = sum.Add(v)
	}
	return sum
}

// Lock freezes the RoundTally against further mutation.
func (t *RoundTally) Lock() { t.locked = true }

// Locked reports whether Lock has been called (and Unlock has not
// subsequently reopened it).
func (t *RoundTally) Locked() bool { return t.locked }

// Unlock reopens a locked RoundTally for the scoped surplus-adjustment
// window of spec §4.10. Callers must pair every Unlock with exactly
// one Relock before the round loop proceeds.
func (t *RoundTally) Unlock() {
	if !t.locked {
		panic("tally: Unlock called on a RoundTally that was never locked")
	}
	t.locked = false
}

// Relock re-freezes the RoundTally after the surplus-adjustment
// window.
func (t *RoundTally) Relock() { t.Lock() }

func sortCandidates(c []candidate.Candidate) {
	// insertion sort: round sizes are small (bounded by the number of
	// candidates in the contest) so this avoids importing sort twice
	// across the package for a one-line need.
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && c[j] < c[j-1]; j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}

// Transfers is the round -> source -> target -> amount vote-movement
// ledger. source and target are either a candidate.Candidate or the
// reserved string "residual". Append-only per (round, source, target):
// repeated Add calls accumulate rather than overwrite.
type Transfers struct {
	byRound map[int]map[string]map[string]decimal.Decimal
}

// Residual is the reserved target name for vote value that leaves
// every candidate: a winner's rounding remainder booked by the
// carry-forward, and a ballot that becomes inactive after its
// recipient stopped continuing.
const Residual = "residual"

// NewTransfers builds an empty ledger.
func NewTransfers() *Transfers {
	return &Transfers{byRound: make(map[int]map[string]map[string]decimal.Decimal)}
}

// Add records a transfer of amount from source to target in round.
func (t *Transfers) Add(round int, source, target string, amount decimal.Decimal) {
	if t.byRound[round] == nil {
		t.byRound[round] = make(map[string]map[string]decimal.Decimal)
	}
	if t.byRound[round][source] == nil {
		t.byRound[round][source] = make(map[string]decimal.Decimal)
	}
	t.byRound[round][source][target] = t.byRound[round][source][target].Add(amount)
}

// Round returns every source -> target -> amount entry recorded for
// round (nil if none).
func (t *Transfers) Round(round int) map[string]map[string]decimal.Decimal {
	return t.byRound[round]
}

// String renders a compact debug view of one round's entries.
func (t *Transfers) String(round int) string {
	m := t.Round(round)
	s := ""
	for source, targets := range m {
		for target, amount := range targets {
			s += fmt.Sprintf("%s->%s:%s ", source, target, amount.String())
		}
	}
	return s
}
