// Package overvote implements the pure rank-level overvote decision
// of spec §4.2.
package overvote

import (
	"github.com/openrcv/tabulator/candidate"
	"github.com/openrcv/tabulator/errs"
	"github.com/openrcv/tabulator/rankings"
)

// Rule is a closed enumeration of the configured overvote behaviors.
type Rule int

const (
	RuleExhaustImmediately Rule = iota
	RuleAlwaysSkipToNextRank
	RuleExhaustIfMultipleContinuing
)

// Decision is a closed enumeration of the outcomes Decide can return.
type Decision int

const (
	DecisionNone Decision = iota
	DecisionExhaust
	DecisionSkipToNextRank
)

// IsContinuing reports whether c is a continuing candidate, supplied
// by the caller so this package stays free of Tabulator state.
type IsContinuing func(candidate.Candidate) bool

// Decide maps the candidate set at one rank, the configured rule, and
// a continuing-candidate predicate to a decision. round and rank are
// only used to annotate the fatal config error; they carry no other
// weight.
func Decide(atRank rankings.AtRank, rule Rule, isContinuing IsContinuing, round, rank int) (Decision, error) {
	if atRank.Has(candidate.ExplicitOvervote) {
		if atRank.Len() != 1 {
			return DecisionNone, errs.New(errs.KindConfig, round, "rank %d: explicit overvote sentinel must be the sole entry", rank)
		}
		switch rule {
		case RuleExhaustImmediately:
			return DecisionExhaust, nil
		case RuleAlwaysSkipToNextRank:
			return DecisionSkipToNextRank, nil
		default:
			return DecisionNone, errs.New(errs.KindConfig, round, "rank %d: explicit overvote sentinel is incompatible with overvote rule %v", rank, rule)
		}
	}

	if atRank.Len() <= 1 {
		return DecisionNone, nil
	}

	switch rule {
	case RuleExhaustImmediately:
		return DecisionExhaust, nil
	case RuleAlwaysSkipToNextRank:
		return DecisionSkipToNextRank, nil
	case RuleExhaustIfMultipleContinuing:
		continuingCount := 0
		for _, c := range atRank.Sorted() {
			if isContinuing(c) {
				continuingCount++
			}
		}
		if continuingCount >= 2 {
			return DecisionExhaust, nil
		}
		return DecisionNone, nil
	default:
		return DecisionNone, errs.New(errs.KindConfig, round, "rank %d: unknown overvote rule %v", rank, rule)
	}
}
