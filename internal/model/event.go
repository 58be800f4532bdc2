package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies where a normalized event came from.
type Source string

const (
	SourceLedger        Source = "ledger"
	SourceStripe        Source = "stripe"
	SourceBraintree     Source = "braintree"
	SourceNMIChesapeake Source = "nmi_chesapeake"
	SourceNMICliq       Source = "nmi_cliq"
	SourceNMIEsquire    Source = "nmi_esquire"
	SourceBank          Source = "bank"
)

// EventType is the normalized economic event kind across all sources.
type EventType string

const (
	EventCharge          EventType = "charge"
	EventRefund          EventType = "refund"
	EventRefundFailure   EventType = "refund_failure"
	EventFee             EventType = "fee"
	EventDispute         EventType = "dispute"
	EventDisputeReversal EventType = "dispute_reversal"
	EventAdjustment      EventType = "adjustment"
	EventPayout          EventType = "payout"
	EventBatch           EventType = "batch"
	EventReserve         EventType = "reserve"
)

// NormalizedEvent is one economic event from any source. Adapters convert
// their wire format into this common schema; everything downstream is
// source-agnostic.
//
// EffectiveDate is the date used for all aggregation and is never zero for an
// event that survives adapter filtering; rows without a parseable date are
// dropped, not defaulted.
type NormalizedEvent struct {
	Source          Source
	Merchant        string
	Type            EventType
	EventID         string // source-scoped, not globally unique
	Gross           decimal.Decimal
	Fee             decimal.Decimal
	Net             decimal.Decimal
	EventTS         time.Time
	EffectiveDate   time.Time // midnight UTC
	BatchOrPayoutID string
	Status          string
	Reference       string
	Description     string
	Raw             map[string]string // original row for audit/drilldown
}

// FillNet computes Net = Gross - Fee when Net was not supplied.
func (e *NormalizedEvent) FillNet() {
	if e.Net.IsZero() && !e.Gross.IsZero() {
		e.Net = e.Gross.Sub(e.Fee)
	}
}

// Day truncates a timestamp to midnight UTC, the canonical effective-date
// representation.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two timestamps fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}
