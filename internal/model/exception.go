package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction classifies which side of the books an exception sits on.
type Direction string

const (
	DirectionLedgerOnly    Direction = "ledger_only"
	DirectionProcessorOnly Direction = "processor_only"
	DirectionMismatch      Direction = "mismatch"
)

// ResolutionStatus is the review-workflow state of an exception.
type ResolutionStatus string

const (
	ResolutionNeedsReview      ResolutionStatus = "needs_review"
	ResolutionInProgress       ResolutionStatus = "in_progress"
	ResolutionResolved         ResolutionStatus = "resolved"
	ResolutionApprovedVariance ResolutionStatus = "approved_variance"
)

// ReconException is a variance bucket flagged for human review. It is keyed
// by (entity, processor, date, reason code), not by individual transaction.
// The engine produces candidates with workflow fields at their zero values;
// the exception store owns resolution state and identity dedup.
type ReconException struct {
	ID         string
	EntityID   string
	Date       time.Time
	Processor  string
	ReasonCode ReasonCode
	Amount     decimal.Decimal
	Direction  Direction
	ItemCount  int

	Resolution ResolutionStatus
	ResolvedBy string
	ResolvedAt time.Time
	Notes      string
}
