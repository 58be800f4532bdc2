package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/recondesk-dev/recondesk/internal/model"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mar1() time.Time {
	return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
}

func comparison(ledger, proc Side) Comparison {
	return Comparison{
		EntityID:  "helpgrid",
		Processor: "stripe",
		Date:      mar1(),
		Ledger:    ledger,
		Proc:      proc,
	}
}

func TestClassify_SmallVarianceIsGreen(t *testing.T) {
	ds := Classify(comparison(
		Side{ChargeGross: d("1000.00"), ChargeCount: 1, Rows: 1},
		Side{ChargeGross: d("998.50"), ChargeCount: 1, Rows: 1},
	))

	assert.Equal(t, model.StatusGreen, ds.Status)
	assert.Equal(t, model.ReasonWithinTolerance, ds.TopReason)
	assert.Equal(t, "1.50", ds.VarianceAmount.StringFixed(2))
}

func TestClassify_LargeVarianceIsRedUnexplained(t *testing.T) {
	ds := Classify(comparison(
		Side{ChargeGross: d("1000.00"), ChargeCount: 1, Rows: 1},
		Side{ChargeGross: d("850.00"), ChargeCount: 1, Rows: 1},
	))

	assert.Equal(t, model.StatusRed, ds.Status)
	assert.Equal(t, model.ReasonUnexplained, ds.TopReason)
	assert.Equal(t, "150.00", ds.VarianceAmount.StringFixed(2))
	assert.Equal(t, "150.00", ds.Breakdown.Unexplained.StringFixed(2))
	assert.InDelta(t, 15.0, ds.VariancePct, 0.0001)
}

func TestClassify_MidVarianceIsYellowTiming(t *testing.T) {
	ds := Classify(comparison(
		Side{ChargeGross: d("1000.00"), ChargeCount: 1, Rows: 1},
		Side{ChargeGross: d("950.00"), ChargeCount: 1, Rows: 1},
	))

	assert.Equal(t, model.StatusYellow, ds.Status)
	assert.Equal(t, model.ReasonTimingCutoff, ds.TopReason)
	assert.Equal(t, "50.00", ds.Breakdown.TimingCutoff.StringFixed(2))
}

func TestClassify_BothSidesEmptyIsDataMissing(t *testing.T) {
	c := comparison(Side{}, Side{})
	c.Tolerance = d("1000000") // tolerance never rescues a missing day
	ds := Classify(c)

	assert.Equal(t, model.StatusRed, ds.Status)
	assert.Equal(t, model.ReasonDataMissing, ds.TopReason)
	assert.False(t, ds.LedgerDataPresent)
	assert.False(t, ds.ProcDataPresent)
}

func TestClassify_MissingLedgerSideIsNotDataMissing(t *testing.T) {
	ds := Classify(comparison(
		Side{},
		Side{ChargeGross: d("500.00"), ChargeCount: 1, Rows: 1},
	))

	// One side has data, so rule ordering lands on the size bands.
	assert.Equal(t, model.StatusRed, ds.Status)
	assert.Equal(t, model.ReasonUnexplained, ds.TopReason)
	assert.Equal(t, "500.00", ds.Breakdown.ProcessorOnly.StringFixed(2))
	assert.True(t, ds.Breakdown.Unexplained.IsZero())
}

func TestClassify_MissingProcessorSide(t *testing.T) {
	ds := Classify(comparison(
		Side{ChargeGross: d("750.00"), ChargeCount: 1, Rows: 1},
		Side{},
	))

	assert.Equal(t, model.StatusRed, ds.Status)
	assert.Equal(t, "750.00", ds.Breakdown.LedgerOnly.StringFixed(2))
}

func TestClassify_BoundaryVarianceIsGreen(t *testing.T) {
	// |ledger| * 0.25% = 25.00; variance exactly at the threshold stays GREEN.
	ds := Classify(comparison(
		Side{ChargeGross: d("10000.00"), ChargeCount: 1, Rows: 1},
		Side{ChargeGross: d("9975.00"), ChargeCount: 1, Rows: 1},
	))

	assert.Equal(t, model.StatusGreen, ds.Status)
}

func TestClassify_EntityToleranceOverride(t *testing.T) {
	c := comparison(
		Side{ChargeGross: d("1000.00"), ChargeCount: 1, Rows: 1},
		Side{ChargeGross: d("950.00"), ChargeCount: 1, Rows: 1},
	)
	c.Tolerance = d("75.00")
	ds := Classify(c)

	assert.Equal(t, model.StatusGreen, ds.Status)
	assert.Equal(t, model.ReasonWithinTolerance, ds.TopReason)
}

func TestClassify_RefundFailuresCountOnLedgerSideOnly(t *testing.T) {
	// Ledger booked a refund and its failure reversal; the processor settled
	// the original charge only.
	ds := Classify(comparison(
		Side{
			ChargeGross:        d("1000.00"),
			RefundGross:        d("-125.00"),
			RefundFailureGross: d("125.00"),
			ChargeCount:        1, RefundCount: 1, RefundFailureCount: 1,
			Rows: 3,
		},
		Side{ChargeGross: d("1000.00"), ChargeCount: 1, Rows: 1},
	))

	assert.Equal(t, "1000.00", ds.LedgerTargetGross.StringFixed(2))
	assert.Equal(t, "1000.00", ds.ProcTargetGross.StringFixed(2))
	assert.Equal(t, model.StatusGreen, ds.Status)
}
