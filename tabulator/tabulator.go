// Package tabulator implements the round loop at the heart of the RCV
// engine: spec §4.4, the per-round tally computation of §4.5, and the
// supporting threshold/winner/batch-elimination/surplus machinery of
// §4.6-§4.10.
package tabulator

import (
	"github.com/shopspring/decimal"

	"github.com/openrcv/tabulator/arith"
	"github.com/openrcv/tabulator/ballot"
	"github.com/openrcv/tabulator/candidate"
	"github.com/openrcv/tabulator/config"
	"github.com/openrcv/tabulator/errs"
	"github.com/openrcv/tabulator/tally"
	"github.com/openrcv/tabulator/tiebreak"
)

// Logger receives round-loop progress; the engine never blocks on it
// and it must not mutate tabulation state (spec §5). audit.Logger
// implements this.
type Logger interface {
	Round(round int, rt *tally.RoundTally)
	Eliminated(round int, c candidate.Candidate, reason string)
	Elected(round int, c candidate.Candidate)
	Fatal(err error)
}

type noopLogger struct{}

func (noopLogger) Round(int, *tally.RoundTally)             {}
func (noopLogger) Eliminated(int, candidate.Candidate, string) {}
func (noopLogger) Elected(int, candidate.Candidate)          {}
func (noopLogger) Fatal(error)                               {}

// Tabulator owns all contest state and runs the round loop exactly
// once (it is not re-entrant after Run returns, successfully or not).
type Tabulator struct {
	cfg   *config.Contest
	cvrs  []*ballot.CastVoteRecord
	ar    arith.Arith
	breaker *tiebreak.Breaker
	log   Logger

	cancelled func() bool

	roundTallies         map[int]*tally.RoundTally
	precinctRoundTallies map[string]map[int]*tally.RoundTally
	transfers            *tally.Transfers
	precinctTransfers    map[string]*tally.Transfers

	candidateToRoundEliminated map[candidate.Candidate]int
	winnerToRound              map[candidate.Candidate]int
	roundToResidualSurplus     map[int]decimal.Decimal

	currentRound int
	precincts    []string
}

// New builds a Tabulator for one contest pass. cancelled is the
// cooperative abort check consulted between rounds (spec §5); pass
// nil to disable cancellation. log may be nil.
func New(cfg *config.Contest, cvrs []*ballot.CastVoteRecord, interactive tiebreak.InteractiveChooser, cancelled func() bool, log Logger) *Tabulator {
	if log == nil {
		log = noopLogger{}
	}
	if cancelled == nil {
		cancelled = func() bool { return false }
	}

	t := &Tabulator{
		cfg:                        cfg,
		cvrs:                       cvrs,
		ar:                         arith.New(cfg.DecimalPlaces, cfg.NonIntegerThresholdsEnabled),
		log:                        log,
		cancelled:                  cancelled,
		roundTallies:               make(map[int]*tally.RoundTally),
		precinctRoundTallies:       make(map[string]map[int]*tally.RoundTally),
		transfers:                  tally.NewTransfers(),
		precinctTransfers:          make(map[string]*tally.Transfers),
		candidateToRoundEliminated: make(map[candidate.Candidate]int),
		winnerToRound:              make(map[candidate.Candidate]int),
		roundToResidualSurplus:     make(map[int]decimal.Decimal),
	}

	t.breaker = tiebreak.New(cfg.TiebreakMode, cfg.RandomSeed, cfg.CandidatePermutation, interactive, t.tallyAtRoundAsScore)
	return t
}

// init performs the one-time setup before the first round: the
// generated tiebreak permutation and the sorted precinct list.
func (t *Tabulator) init() error {
	if t.cfg.TiebreakMode == tiebreak.ModeGeneratePermutation {
		t.breaker.GeneratePermutation(t.activeCandidates())
	}

	seen := make(map[string]struct{})
	for _, cvr := range t.cvrs {
		if cvr.Precinct == "" {
			continue
		}
		if _, ok := seen[cvr.Precinct]; !ok {
			seen[cvr.Precinct] = struct{}{}
			t.precincts = append(t.precincts, cvr.Precinct)
		}
	}
	if t.cfg.TabulateByPrecinctEnabled && len(t.precincts) == 0 {
		return errs.New(errs.KindNoPrecincts, 0, "precinct tabulation requested but no CVR carries a precinct")
	}
	sortStrings(t.precincts)
	return nil
}

// Run tabulates the contest to completion, returning the fatal error
// (if any) that halted it. On success, RoundTallies/WinnerToRound/
// CandidateToRoundEliminated etc. are final and immutable.
func (t *Tabulator) Run() error {
	if err := t.init(); err != nil {
		t.log.Fatal(err)
		return err
	}

	for t.shouldContinueTabulating() {
		if t.cancelled() {
			err := errs.Cancelled(t.currentRound)
			t.log.Fatal(err)
			return err
		}

		t.currentRound++
		round := t.currentRound

		rt, precinctRT, err := t.computeTalliesForRound(round)
		if err != nil {
			t.log.Fatal(err)
			return err
		}
		t.roundTallies[round] = rt
		for p, prt := range precinctRT {
			if t.precinctRoundTallies[p] == nil {
				t.precinctRoundTallies[p] = make(map[int]*tally.RoundTally)
			}
			t.precinctRoundTallies[p][round] = prt
		}

		if round == 1 {
			t.roundToResidualSurplus[round] = decimal.Zero
		} else {
			t.roundToResidualSurplus[round] = t.roundToResidualSurplus[round-1]
		}

		threshold, err := t.computeThreshold(round, rt)
		if err != nil {
			t.log.Fatal(err)
			return err
		}
		rt.Threshold = threshold

		winners, err := t.selectWinners(round, rt)
		if err != nil {
			t.log.Fatal(err)
			return err
		}
		for _, w := range winners {
			t.winnerToRound[w] = round
			t.log.Elected(round, w)
		}

		multiSeat := t.cfg.NumWinners > 1
		switch {
		case len(winners) > 0 && multiSeat && !t.cfg.MultiSeatBottomsUp:
			// A round that seats one or more winners never also
			// eliminates: the surplus those winners carry is what
			// moves on to the next round instead.
			t.distributeSurplus(round, rt, winners)
		case len(winners) == 0 && (len(t.winnerToRound) < t.cfg.NumWinners || t.cfg.ContinueUntilTwo):
			// Eliminate only while seats remain unfilled (or under
			// continue-until-two); the extra multi-seat round after
			// the last winner only carries tallies forward.
			eliminated, err := t.eliminate(round, rt)
			if err != nil {
				t.log.Fatal(err)
				return err
			}
			for _, e := range eliminated {
				t.candidateToRoundEliminated[e] = round
				t.log.Eliminated(round, e, "")
			}
		}

		rt.Lock()
		for _, prt := range precinctRT {
			prt.Lock()
		}

		if multiSeat {
			// carryForwardPastWinners needs a window to adjust a
			// just-clamped winner's tally (spec §4.10); it opens that
			// window itself via Unlock/Relock rather than mutating
			// the round's tally before Lock is ever called (spec
			// §5's lock-on-completion protocol).
			if err := t.carryForwardPastWinners(round, rt, precinctRT); err != nil {
				t.log.Fatal(err)
				return err
			}
		}

		t.log.Round(round, rt)
	}

	return nil
}

// shouldContinueTabulating implements spec §4.4's continuation rule.
func (t *Tabulator) shouldContinueTabulating() bool {
	if t.currentRound >= t.cfg.StopAfterRound() {
		return false
	}

	numCandidates := t.cfg.NumCandidates()
	numEliminated := len(t.candidateToRoundEliminated)
	numWinners := len(t.winnerToRound)

	if t.cfg.ContinueUntilTwo {
		eliminatedThisRound := t.currentRound > 0 && t.roundHadElimination(t.currentRound)
		if numEliminated+numWinners+1 >= numCandidates && !eliminatedThisRound {
			return false
		}
	}

	if t.cfg.MultiSeatBottomsUp && numWinners > 0 {
		return false
	}

	if numWinners >= t.cfg.NumWinners {
		singleWinner := t.cfg.NumWinners == 1
		bottomsUpUntilN := t.cfg.MultiSeatBottomsUpUntilN
		lastWinnerPriorRound := t.lastWinnerDeclaredInPriorRound()
		if singleWinner || bottomsUpUntilN || lastWinnerPriorRound {
			return false
		}
	}

	return true
}

func (t *Tabulator) roundHadElimination(round int) bool {
	for _, r := range t.candidateToRoundEliminated {
		if r == round {
			return true
		}
	}
	return false
}

func (t *Tabulator) lastWinnerDeclaredInPriorRound() bool {
	maxRound := 0
	for _, r := range t.winnerToRound {
		if r > maxRound {
			maxRound = r
		}
	}
	return maxRound > 0 && maxRound < t.currentRound
}

// isContinuing reports whether c is neither a sentinel, excluded,
// eliminated nor already a winner. UndeclaredWriteIn is continuing
// (and so can receive votes per spec §3) until the §4.4 step-7a
// elimination priority records it in candidateToRoundEliminated; it
// is never excluded or electable, so those checks don't apply to it.
func (t *Tabulator) isContinuing(c candidate.Candidate) bool {
	if candidate.IsSentinel(c) {
		return false
	}
	if candidate.IsWriteIn(c) {
		_, dropped := t.candidateToRoundEliminated[c]
		return !dropped
	}
	if t.cfg.CandidateIsExcluded(c) {
		return false
	}
	if _, ok := t.candidateToRoundEliminated[c]; ok {
		return false
	}
	if _, ok := t.winnerToRound[c]; ok {
		return false
	}
	return true
}

// Status computes the candidate's current CandidateStatus.
func (t *Tabulator) Status(c candidate.Candidate) candidate.Status {
	if candidate.IsSentinel(c) {
		return candidate.StatusInvalid
	}
	if candidate.IsWriteIn(c) {
		if _, ok := t.candidateToRoundEliminated[c]; ok {
			return candidate.StatusEliminated
		}
		return candidate.StatusContinuing
	}
	if t.cfg.CandidateIsExcluded(c) {
		return candidate.StatusExcluded
	}
	if _, ok := t.winnerToRound[c]; ok {
		return candidate.StatusWinner
	}
	if _, ok := t.candidateToRoundEliminated[c]; ok {
		return candidate.StatusEliminated
	}
	return candidate.StatusContinuing
}

// continuingCandidates returns every continuing candidate, sorted.
func (t *Tabulator) continuingCandidates() []candidate.Candidate {
	var out []candidate.Candidate
	for _, c := range t.activeCandidates() {
		if t.isContinuing(c) {
			out = append(out, c)
		}
	}
	sortCandidates(out)
	return out
}

// activeCandidates returns every declared, non-excluded candidate.
func (t *Tabulator) activeCandidates() []candidate.Candidate {
	var out []candidate.Candidate
	for _, c := range t.cfg.CandidateNames() {
		if !t.cfg.CandidateIsExcluded(c) {
			out = append(out, c)
		}
	}
	sortCandidates(out)
	return out
}

// tallyAtRoundAsScore adapts a locked RoundTally's decimal tally into
// the tiebreak package's arithmetic-agnostic int64 score, scaled to
// the contest's configured decimal places; digits beyond those places
// are truncated, so tallies that differ only there score equal. A
// candidate with no entry in a recorded round scores 0 with ok true;
// ok is false only when the round itself has no tally.
func (t *Tabulator) tallyAtRoundAsScore(round int, c candidate.Candidate) (int64, bool) {
	rt, ok := t.roundTallies[round]
	if !ok {
		return 0, false
	}
	v := rt.Candidate(c)
	scaled := v.Shift(int32(t.cfg.DecimalPlaces))
	return scaled.IntPart(), true
}

// RoundTallies returns every locked round tally, keyed by round.
func (t *Tabulator) RoundTallies() map[int]*tally.RoundTally { return t.roundTallies }

// PrecinctRoundTallies returns every locked per-precinct round tally.
func (t *Tabulator) PrecinctRoundTallies() map[string]map[int]*tally.RoundTally {
	return t.precinctRoundTallies
}

// Transfers returns the contest-wide vote-transfer ledger.
func (t *Tabulator) Transfers() *tally.Transfers { return t.transfers }

// CandidateToRoundEliminated returns the elimination ledger.
func (t *Tabulator) CandidateToRoundEliminated() map[candidate.Candidate]int {
	return t.candidateToRoundEliminated
}

// WinnerToRound returns the election ledger.
func (t *Tabulator) WinnerToRound() map[candidate.Candidate]int { return t.winnerToRound }

// ResidualSurplus returns the residual-surplus ledger by round.
func (t *Tabulator) ResidualSurplus() map[int]decimal.Decimal { return t.roundToResidualSurplus }

// CurrentRound returns the last round computed.
func (t *Tabulator) CurrentRound() int { return t.currentRound }

func sortCandidates(c []candidate.Candidate) {
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && c[j] < c[j-1]; j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
