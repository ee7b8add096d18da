// Package ballot holds the mutable per-ballot state the Tabulator
// carries across rounds, per spec §3.
package ballot

import (
	"github.com/shopspring/decimal"

	"github.com/openrcv/tabulator/candidate"
	"github.com/openrcv/tabulator/rankings"
	"github.com/openrcv/tabulator/tally"
)

// Status is a closed enumeration of a ballot's activity state.
type Status int

const (
	StatusActive Status = iota
	StatusInactiveUndervote
	StatusInactiveOvervote
	StatusInactiveSkippedRanking
	StatusInactiveRepeatedRanking
	StatusInactiveExhaustedChoices
)

// InactiveReason converts an inactive Status to the tally.InactiveReason
// it aggregates under. Panics if called on StatusActive: callers must
// check Status != StatusActive first.
func (s Status) InactiveReason() tally.InactiveReason {
	switch s {
	case StatusInactiveUndervote:
		return tally.InactiveByUndervote
	case StatusInactiveOvervote:
		return tally.InactiveByOvervote
	case StatusInactiveSkippedRanking:
		return tally.InactiveBySkippedRanking
	case StatusInactiveRepeatedRanking:
		return tally.InactiveByRepeatedRanking
	case StatusInactiveExhaustedChoices:
		return tally.InactiveByExhaustedChoices
	default:
		panic("ballot: InactiveReason called on an active ballot")
	}
}

// OutcomeType is a closed enumeration of what a round_outcomes entry
// records about a ballot in a given round.
type OutcomeType int

const (
	OutcomeActive OutcomeType = iota
	OutcomeInactive
	OutcomeCountedForWinner
)

// Outcome is one append-only entry in a ballot's round_outcomes log.
type Outcome struct {
	Round       int
	Type        OutcomeType
	Description string
	Value       decimal.Decimal
}

// CDFSnapshot records one round's (candidate, allocated_value) pair
// for NIST CDF export.
type CDFSnapshot struct {
	Round     int
	Candidate candidate.Candidate
	Allocated decimal.Decimal
}

// CastVoteRecord is one voter's ballot plus all tabulation state the
// engine mutates across rounds.
type CastVoteRecord struct {
	ID             string
	AuditID        string // supplemented: audit-facing id, distinct from the sanitized ID
	Precinct       string
	PrecinctPortion string
	TabulatorID    string
	BatchID        string
	Rankings       rankings.Rankings

	CurrentRecipient        candidate.Candidate
	hasCurrentRecipient     bool
	Status                  Status
	FractionalTransferValue decimal.Decimal
	WinnerToFractionalValue map[candidate.Candidate]decimal.Decimal
	RoundOutcomes           []Outcome
	CDFSnapshots            []CDFSnapshot
}

// New builds a fresh, active CastVoteRecord with transfer value 1.
func New(id string, r rankings.Rankings) *CastVoteRecord {
	return &CastVoteRecord{
		ID:                      id,
		Rankings:                r,
		Status:                  StatusActive,
		FractionalTransferValue: decimal.NewFromInt(1),
		WinnerToFractionalValue: make(map[candidate.Candidate]decimal.Decimal),
	}
}

// Recipient returns the current recipient and whether one is set.
func (c *CastVoteRecord) Recipient() (candidate.Candidate, bool) {
	return c.CurrentRecipient, c.hasCurrentRecipient
}

// SetRecipient assigns the ballot to recipient.
func (c *CastVoteRecord) SetRecipient(recipient candidate.Candidate) {
	c.CurrentRecipient = recipient
	c.hasCurrentRecipient = true
}

// ClearRecipient removes the current recipient; MarkInactive calls it
// when the ballot leaves tabulation.
func (c *CastVoteRecord) ClearRecipient() {
	c.CurrentRecipient = ""
	c.hasCurrentRecipient = false
}

// MarkInactive transitions the ballot to an inactive status. Once
// inactive, the recipient is cleared and the status never changes
// again (spec §3 invariant).
func (c *CastVoteRecord) MarkInactive(status Status, round int, description string) {
	if c.Status != StatusActive {
		return
	}
	c.Status = status
	c.ClearRecipient()
	c.RoundOutcomes = append(c.RoundOutcomes, Outcome{
		Round:       round,
		Type:        OutcomeInactive,
		Description: description,
		Value:       c.FractionalTransferValue,
	})
}

// LogActive appends an ACTIVE outcome for the current round.
func (c *CastVoteRecord) LogActive(round int, description string) {
	c.RoundOutcomes = append(c.RoundOutcomes, Outcome{
		Round:       round,
		Type:        OutcomeActive,
		Description: description,
		Value:       c.FractionalTransferValue,
	})
}

// CreditWinner records a (possibly partial, accumulating) fractional
// credit to a past-round winner, per the surplus-distribution step of
// spec §4.8.
func (c *CastVoteRecord) CreditWinner(w candidate.Candidate, fraction decimal.Decimal) {
	c.WinnerToFractionalValue[w] = c.WinnerToFractionalValue[w].Add(fraction)
}

// Snapshot appends one CDF allocation record for the given round.
func (c *CastVoteRecord) Snapshot(round int, recipient candidate.Candidate, allocated decimal.Decimal) {
	c.CDFSnapshots = append(c.CDFSnapshots, CDFSnapshot{Round: round, Candidate: recipient, Allocated: allocated})
}
