package overvote_test

import (
	"testing"

	"github.com/openrcv/tabulator/candidate"
	"github.com/openrcv/tabulator/overvote"
	"github.com/openrcv/tabulator/rankings"
)

func allContinuing(candidate.Candidate) bool { return true }

func noneContinuing(candidate.Candidate) bool { return false }

func TestDecide(t *testing.T) {
	for _, tt := range []struct {
		name         string
		atRank       rankings.AtRank
		rule         overvote.Rule
		isContinuing overvote.IsContinuing
		want         overvote.Decision
		wantErr      bool
	}{
		{
			name:   "single candidate is never an overvote",
			atRank: rankings.NewAtRank("A"),
			rule:   overvote.RuleExhaustIfMultipleContinuing,
			want:   overvote.DecisionNone,
		},
		{
			name:   "exhaust immediately on any overvote",
			atRank: rankings.NewAtRank("A", "B"),
			rule:   overvote.RuleExhaustImmediately,
			want:   overvote.DecisionExhaust,
		},
		{
			name:   "always skip to next rank",
			atRank: rankings.NewAtRank("A", "B"),
			rule:   overvote.RuleAlwaysSkipToNextRank,
			want:   overvote.DecisionSkipToNextRank,
		},
		{
			name:         "exhaust if multiple continuing, both continuing",
			atRank:       rankings.NewAtRank("A", "B"),
			rule:         overvote.RuleExhaustIfMultipleContinuing,
			isContinuing: allContinuing,
			want:         overvote.DecisionExhaust,
		},
		{
			name:         "exhaust if multiple continuing, none continuing",
			atRank:       rankings.NewAtRank("A", "B"),
			rule:         overvote.RuleExhaustIfMultipleContinuing,
			isContinuing: noneContinuing,
			want:         overvote.DecisionNone,
		},
		{
			name:   "explicit overvote sentinel alone exhausts under exhaust-immediately",
			atRank: rankings.NewAtRank(candidate.ExplicitOvervote),
			rule:   overvote.RuleExhaustImmediately,
			want:   overvote.DecisionExhaust,
		},
		{
			name:    "explicit overvote sentinel alongside another mark is a config error",
			atRank:  rankings.NewAtRank(candidate.ExplicitOvervote, "A"),
			rule:    overvote.RuleExhaustImmediately,
			wantErr: true,
		},
		{
			name:    "explicit overvote sentinel incompatible with exhaust-if-multiple-continuing",
			atRank:  rankings.NewAtRank(candidate.ExplicitOvervote),
			rule:    overvote.RuleExhaustIfMultipleContinuing,
			wantErr: true,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			isContinuing := tt.isContinuing
			if isContinuing == nil {
				isContinuing = allContinuing
			}
			got, err := overvote.Decide(tt.atRank, tt.rule, isContinuing, 1, 1)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Decide() = %v, want %v", got, tt.want)
			}
		})
	}
}
