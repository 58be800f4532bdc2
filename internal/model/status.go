package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the traffic-light judgment for one (day, processor) pairing.
type Status string

const (
	StatusGreen  Status = "green"  // within tolerance, no action
	StatusYellow Status = "yellow" // flagged for awareness
	StatusRed    Status = "red"    // requires investigation
)

// ReasonCode explains why a variance exists or is within tolerance.
type ReasonCode string

const (
	ReasonWithinTolerance  ReasonCode = "within_tolerance"
	ReasonTimingCutoff     ReasonCode = "timing_cutoff"
	ReasonPayoutInTransit  ReasonCode = "payout_in_transit"
	ReasonRefundFailure    ReasonCode = "refund_failure"
	ReasonVoidVsRefund     ReasonCode = "void_vs_refund"
	ReasonProcessorOnly    ReasonCode = "processor_only"
	ReasonLedgerOnly       ReasonCode = "ledger_only"
	ReasonDisputeLifecycle ReasonCode = "dispute_lifecycle"
	ReasonFeeVariance      ReasonCode = "fee_variance"
	ReasonDataMissing      ReasonCode = "data_missing"
	ReasonUnexplained      ReasonCode = "unexplained"
)

// DailyTotals accumulates one side's activity for a single day. Refund gross
// is expected to be negative, refund-failure gross positive.
type DailyTotals struct {
	Date      time.Time
	Source    Source
	Processor string

	ChargeCount        int
	RefundCount        int
	RefundFailureCount int
	FeeCount           int
	DisputeCount       int
	AdjustmentCount    int
	PayoutCount        int

	ChargeGross        decimal.Decimal
	RefundGross        decimal.Decimal
	RefundFailureGross decimal.Decimal
	FeeAmount          decimal.Decimal
	DisputeGross       decimal.Decimal
	AdjustmentGross    decimal.Decimal
	PayoutGross        decimal.Decimal
}

// TotalGross is the gross economic activity: charges + refunds + refund failures.
func (t DailyTotals) TotalGross() decimal.Decimal {
	return t.ChargeGross.Add(t.RefundGross).Add(t.RefundFailureGross)
}

// TotalNet is gross after fees and adjustments.
func (t DailyTotals) TotalNet() decimal.Decimal {
	return t.TotalGross().Add(t.FeeAmount).Add(t.AdjustmentGross)
}

// Add accumulates one event into the totals.
func (t *DailyTotals) Add(e NormalizedEvent) {
	switch e.Type {
	case EventCharge:
		t.ChargeCount++
		t.ChargeGross = t.ChargeGross.Add(e.Gross)
	case EventRefund:
		t.RefundCount++
		t.RefundGross = t.RefundGross.Add(e.Gross)
	case EventRefundFailure:
		t.RefundFailureCount++
		t.RefundFailureGross = t.RefundFailureGross.Add(e.Gross)
	case EventFee:
		t.FeeCount++
		t.FeeAmount = t.FeeAmount.Add(e.Gross)
	case EventDispute:
		t.DisputeCount++
		t.DisputeGross = t.DisputeGross.Add(e.Gross)
	case EventAdjustment:
		t.AdjustmentCount++
		t.AdjustmentGross = t.AdjustmentGross.Add(e.Gross)
	case EventPayout:
		t.PayoutCount++
		t.PayoutGross = t.PayoutGross.Add(e.Gross)
	}
}

// VarianceBreakdown attributes a day's variance to named buckets. The
// bucketer consumes these values, not the raw status.
type VarianceBreakdown struct {
	TimingCutoff  decimal.Decimal
	RefundFailure decimal.Decimal
	VoidVsRefund  decimal.Decimal
	ProcessorOnly decimal.Decimal
	LedgerOnly    decimal.Decimal
	Adjustments   decimal.Decimal
	Disputes      decimal.Decimal
	Fees          decimal.Decimal
	Unexplained   decimal.Decimal
}

// DailyStatus is the reconciliation verdict for one (day, processor) pairing.
// It is a pure computation result, recreated fresh on every run and never
// persisted as a long-lived entity.
type DailyStatus struct {
	Date      time.Time
	EntityID  string
	Processor string

	LedgerChargeGross        decimal.Decimal
	LedgerRefundGross        decimal.Decimal
	LedgerRefundFailureGross decimal.Decimal
	LedgerTargetGross        decimal.Decimal
	LedgerChargeCount        int
	LedgerRefundCount        int

	ProcChargeGross decimal.Decimal
	ProcRefundGross decimal.Decimal
	ProcFeeAmount   decimal.Decimal
	ProcTargetGross decimal.Decimal
	ProcChargeCount int
	ProcRefundCount int

	VarianceAmount decimal.Decimal
	VariancePct    float64

	Status    Status
	TopReason ReasonCode
	Breakdown VarianceBreakdown

	LedgerDataPresent bool
	ProcDataPresent   bool
}
