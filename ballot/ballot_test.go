package ballot_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/openrcv/tabulator/ballot"
	"github.com/openrcv/tabulator/rankings"
)

func newCVR() *ballot.CastVoteRecord {
	b := rankings.NewBuilder()
	b.Add(1, "A").Add(2, "B")
	return ballot.New("cvr-1", b.Build())
}

func TestNewCVRStartsActiveAtFullValue(t *testing.T) {
	cvr := newCVR()
	if cvr.Status != ballot.StatusActive {
		t.Errorf("Status = %v, want StatusActive", cvr.Status)
	}
	if !cvr.FractionalTransferValue.Equal(decimal.NewFromInt(1)) {
		t.Errorf("FractionalTransferValue = %s, want 1", cvr.FractionalTransferValue)
	}
	if _, ok := cvr.Recipient(); ok {
		t.Error("expected a fresh ballot to have no recipient")
	}
}

func TestMarkInactiveIsSticky(t *testing.T) {
	cvr := newCVR()
	cvr.SetRecipient("A")
	cvr.MarkInactive(ballot.StatusInactiveOvervote, 2, "overvote at rank 2")

	if cvr.Status != ballot.StatusInactiveOvervote {
		t.Fatalf("Status = %v, want StatusInactiveOvervote", cvr.Status)
	}
	if _, ok := cvr.Recipient(); ok {
		t.Error("expected MarkInactive to clear the recipient")
	}

	// A second MarkInactive call for a different reason must not change
	// the ballot's status: once inactive, always that same status.
	cvr.MarkInactive(ballot.StatusInactiveUndervote, 3, "should not apply")
	if cvr.Status != ballot.StatusInactiveOvervote {
		t.Errorf("Status changed to %v after a second MarkInactive call", cvr.Status)
	}
	if len(cvr.RoundOutcomes) != 1 {
		t.Errorf("RoundOutcomes has %d entries, want 1 (the second MarkInactive should be a no-op)", len(cvr.RoundOutcomes))
	}
}

func TestInactiveReasonPanicsOnActive(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected InactiveReason on StatusActive to panic")
		}
	}()
	_ = ballot.StatusActive.InactiveReason()
}

func TestCreditWinnerAccumulates(t *testing.T) {
	cvr := newCVR()
	cvr.CreditWinner("A", decimal.NewFromFloat(0.5))
	cvr.CreditWinner("A", decimal.NewFromFloat(0.25))

	if got := cvr.WinnerToFractionalValue["A"]; !got.Equal(decimal.NewFromFloat(0.75)) {
		t.Errorf("WinnerToFractionalValue[A] = %s, want 0.75", got)
	}
}
