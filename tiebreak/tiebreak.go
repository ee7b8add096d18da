// Package tiebreak implements deterministic tied-candidate resolution
// per spec §4.3.
package tiebreak

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/openrcv/tabulator/candidate"
)

// Mode is a closed enumeration of the configured tiebreak algorithms.
type Mode int

const (
	ModeRandom Mode = iota
	ModeInteractive
	ModePreviousRoundCountsThenRandom
	ModePreviousRoundCountsThenInteractive
	ModeUsePermutationInConfig
	ModeGeneratePermutation
)

// InteractiveChooser is the out-of-band callback implementers supply
// for the INTERACTIVE modes. Production wiring surfaces this to an
// operator; tests supply a deterministic stub.
type InteractiveChooser func(tied []candidate.Candidate, selectingWinner bool) candidate.Candidate

// RoundTallyLookup returns the tally (as a comparable score; the
// caller, tabulator.RoundTally, converts decimal.Decimal to a
// monotonic int64 scale so this package stays arithmetic-agnostic) a
// candidate had in a given past round. ok is false when the lookup has
// no score for that round; candidates without a score are dropped
// from the narrowing at that round.
type RoundTallyLookup func(round int, c candidate.Candidate) (score int64, ok bool)

// Breaker resolves ties for one contest, holding the seeded PRNG state
// so repeated draws are consumed in a fixed order (spec §5).
type Breaker struct {
	mode        Mode
	rng         *rand.Rand
	interactive InteractiveChooser
	permutation []candidate.Candidate // winner-first order; index 0 wins first, last loses first
	tallyAt     RoundTallyLookup
}

// New builds a Breaker. seed is the configured random_seed (only
// consumed by modes that need randomness); permutation is the
// configured candidate_permutation, winner-first, used verbatim by
// ModeUsePermutationInConfig and as the shuffle base/order record for
// ModeGeneratePermutation.
func New(mode Mode, seed uint64, permutation []candidate.Candidate, interactive InteractiveChooser, tallyAt RoundTallyLookup) *Breaker {
	b := &Breaker{
		mode:        mode,
		rng:         rand.New(rand.NewPCG(seed, seed)),
		interactive: interactive,
		tallyAt:     tallyAt,
	}
	b.permutation = slices.Clone(permutation)
	return b
}

// GeneratePermutation performs the one-time seeded shuffle of the
// sorted candidate list at tabulation start, for ModeGeneratePermutation.
func (b *Breaker) GeneratePermutation(allCandidates []candidate.Candidate) {
	sorted := slices.Clone(allCandidates)
	slices.Sort(sorted)
	b.rng.Shuffle(len(sorted), func(i, j int) { sorted[i], sorted[j] = sorted[j], sorted[i] })
	b.permutation = sorted
}

// Break resolves a tie among tied (at least one element). round is
// the current round; it bounds how far back PREVIOUS_ROUND_COUNTS
// modes may look (rounds 1..round-1).
// selectingWinner reverses max/min semantics but not the algorithm.
func (b *Breaker) Break(tied []candidate.Candidate, round int, selectingWinner bool) (candidate.Candidate, string, error) {
	if len(tied) == 0 {
		return "", "", fmt.Errorf("tiebreak: empty candidate set")
	}
	if len(tied) == 1 {
		return tied[0], "only one candidate remained", nil
	}

	sorted := slices.Clone(tied)
	slices.Sort(sorted)

	switch b.mode {
	case ModeRandom:
		return b.randomPick(sorted)

	case ModeInteractive:
		c := b.interactive(sorted, selectingWinner)
		return c, "selected interactively", nil

	case ModePreviousRoundCountsThenRandom, ModePreviousRoundCountsThenInteractive:
		c, reason, narrowed := b.byPreviousRounds(sorted, round, selectingWinner)
		if narrowed {
			return c, reason, nil
		}
		if b.mode == ModePreviousRoundCountsThenRandom {
			return b.randomPick(sorted)
		}
		c = b.interactive(sorted, selectingWinner)
		return c, "fell back to interactive selection after round 1", nil

	case ModeUsePermutationInConfig, ModeGeneratePermutation:
		return b.byPermutation(sorted, selectingWinner)

	default:
		return "", "", fmt.Errorf("tiebreak: unknown mode %v", b.mode)
	}
}

func (b *Breaker) randomPick(sorted []candidate.Candidate) (candidate.Candidate, string, error) {
	idx := b.rng.IntN(len(sorted))
	return sorted[idx], fmt.Sprintf("randomly drawn from %d tied candidates", len(sorted)), nil
}

// byPreviousRounds repeatedly narrows sorted to the subset with the
// extreme (min for loser, max for winner) tally at round r, walking
// r = round-1, round-2, ..., 1. It stops as soon as exactly one
// candidate remains.
func (b *Breaker) byPreviousRounds(sorted []candidate.Candidate, round int, selectingWinner bool) (candidate.Candidate, string, bool) {
	remaining := slices.Clone(sorted)
	for r := round - 1; r >= 1; r-- {
		var best int64
		haveBest := false
		scored := make(map[candidate.Candidate]int64, len(remaining))
		for _, c := range remaining {
			score, ok := b.tallyAt(r, c)
			if !ok {
				continue
			}
			scored[c] = score
			if !haveBest {
				best, haveBest = score, true
				continue
			}
			if selectingWinner && score > best {
				best = score
			} else if !selectingWinner && score < best {
				best = score
			}
		}
		if !haveBest {
			continue
		}

		var next []candidate.Candidate
		for _, c := range remaining {
			if score, ok := scored[c]; ok && score == best {
				next = append(next, c)
			}
		}
		if len(next) == 0 {
			continue
		}
		remaining = next
		if len(remaining) == 1 {
			return remaining[0], fmt.Sprintf("resolved by round %d counts", r), true
		}
	}
	return "", "", false
}

// byPermutation picks by position in the configured/generated
// permutation: first position wins first, last position loses first.
func (b *Breaker) byPermutation(sorted []candidate.Candidate, selectingWinner bool) (candidate.Candidate, string, error) {
	if selectingWinner {
		for _, c := range b.permutation {
			if slices.Contains(sorted, c) {
				return c, "selected by leading position in configured permutation", nil
			}
		}
	} else {
		for i := len(b.permutation) - 1; i >= 0; i-- {
			c := b.permutation[i]
			if slices.Contains(sorted, c) {
				return c, "selected by trailing position in configured permutation", nil
			}
		}
	}
	return "", "", fmt.Errorf("tiebreak: none of the tied candidates appear in the configured permutation")
}
