package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/recondesk-dev/recondesk/internal/model"
)

// Classification thresholds. The flat GREEN floor can be raised per entity;
// the percentage bands are fixed.
var (
	defaultTolerance = decimal.RequireFromString("10.00")
	greenPct         = decimal.RequireFromString("0.0025")
	yellowFloor      = decimal.RequireFromString("100.00")
	yellowPct        = decimal.RequireFromString("0.01")
	one              = decimal.NewFromInt(1)
)

// Side is one side's qualifying activity for a single day. Charges are
// non-negative, refunds negative, refund failures positive.
type Side struct {
	ChargeGross        decimal.Decimal
	RefundGross        decimal.Decimal
	RefundFailureGross decimal.Decimal
	FeeAmount          decimal.Decimal

	ChargeCount        int
	RefundCount        int
	RefundFailureCount int

	// Rows counts qualifying rows. Zero rows means "no data", which is a
	// first-class classification input, not an error.
	Rows int
}

// Net is charges plus (negative) refunds.
func (s Side) Net() decimal.Decimal {
	return s.ChargeGross.Add(s.RefundGross)
}

// Present reports whether this side had any qualifying rows.
func (s Side) Present() bool { return s.Rows > 0 }

// Comparison is the classifier input for one (day, processor) pairing.
type Comparison struct {
	EntityID  string
	Processor string
	Date      time.Time

	Ledger Side
	Proc   Side

	// Tolerance overrides the flat GREEN floor when positive.
	Tolerance decimal.Decimal
}

// Classify assigns a traffic-light status and reason code to one comparison.
// It is a pure function re-evaluated fresh every run; there is no persisted
// previous status.
//
// The ledger target includes refund failures (money the ledger still expects
// back); the processor target does not, because failed refunds never reach
// the processor's settled activity.
func Classify(c Comparison) model.DailyStatus {
	ledgerTarget := c.Ledger.ChargeGross.Add(c.Ledger.RefundGross).Add(c.Ledger.RefundFailureGross)
	procTarget := c.Proc.ChargeGross.Add(c.Proc.RefundGross)
	variance := ledgerTarget.Sub(procTarget)

	denom := decimal.Max(ledgerTarget.Abs(), procTarget.Abs(), one)
	pct, _ := variance.Div(denom).Mul(decimal.NewFromInt(100)).Float64()

	ds := model.DailyStatus{
		Date:      c.Date,
		EntityID:  c.EntityID,
		Processor: c.Processor,

		LedgerChargeGross:        c.Ledger.ChargeGross,
		LedgerRefundGross:        c.Ledger.RefundGross,
		LedgerRefundFailureGross: c.Ledger.RefundFailureGross,
		LedgerTargetGross:        ledgerTarget,
		LedgerChargeCount:        c.Ledger.ChargeCount,
		LedgerRefundCount:        c.Ledger.RefundCount,

		ProcChargeGross: c.Proc.ChargeGross,
		ProcRefundGross: c.Proc.RefundGross,
		ProcFeeAmount:   c.Proc.FeeAmount,
		ProcTargetGross: procTarget,
		ProcChargeCount: c.Proc.ChargeCount,
		ProcRefundCount: c.Proc.RefundCount,

		VarianceAmount: variance,
		VariancePct:    pct,

		LedgerDataPresent: c.Ledger.Present(),
		ProcDataPresent:   c.Proc.Present(),
	}

	if !ds.LedgerDataPresent && !ds.ProcDataPresent {
		ds.Status = model.StatusRed
		ds.TopReason = model.ReasonDataMissing
		return ds
	}

	floor := defaultTolerance
	if c.Tolerance.IsPositive() {
		floor = c.Tolerance
	}
	greenTol := decimal.Max(floor, ledgerTarget.Abs().Mul(greenPct))
	yellowTol := decimal.Max(yellowFloor, ledgerTarget.Abs().Mul(yellowPct))

	abs := variance.Abs()
	switch {
	case abs.LessThanOrEqual(greenTol):
		ds.Status = model.StatusGreen
		ds.TopReason = model.ReasonWithinTolerance
	case abs.LessThanOrEqual(yellowTol):
		ds.Status = model.StatusYellow
		ds.TopReason = model.ReasonTimingCutoff
	default:
		ds.Status = model.StatusRed
		ds.TopReason = model.ReasonUnexplained
	}

	ds.Breakdown = breakdown(ds, variance)
	return ds
}

// breakdown attributes the variance to named buckets. One-sided days get the
// whole of that side's net in the matching one-sided bucket; two-sided days
// that miss tolerance carry the full variance as timing (YELLOW) or
// unexplained (RED).
func breakdown(ds model.DailyStatus, variance decimal.Decimal) model.VarianceBreakdown {
	var b model.VarianceBreakdown
	switch {
	case !ds.LedgerDataPresent && ds.ProcDataPresent:
		b.ProcessorOnly = ds.ProcTargetGross
	case ds.LedgerDataPresent && !ds.ProcDataPresent:
		b.LedgerOnly = ds.LedgerTargetGross
	case ds.Status == model.StatusYellow:
		b.TimingCutoff = variance
	case ds.Status == model.StatusRed:
		b.Unexplained = variance
	}
	return b
}
