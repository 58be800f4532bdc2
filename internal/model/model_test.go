package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFillNet(t *testing.T) {
	e := NormalizedEvent{Gross: d("100.00"), Fee: d("3.20")}
	e.FillNet()
	assert.Equal(t, "96.80", e.Net.StringFixed(2))

	// A supplied net is never overwritten.
	e2 := NormalizedEvent{Gross: d("100.00"), Fee: d("3.20"), Net: d("95.00")}
	e2.FillNet()
	assert.Equal(t, "95.00", e2.Net.StringFixed(2))
}

func TestDay(t *testing.T) {
	ts := time.Date(2025, 3, 1, 14, 30, 59, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Day(ts))
	assert.True(t, SameDay(ts, time.Date(2025, 3, 1, 0, 0, 1, 0, time.UTC)))
	assert.False(t, SameDay(ts, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)))
}

func TestDailyTotals_Add(t *testing.T) {
	var totals DailyTotals
	totals.Add(NormalizedEvent{Type: EventCharge, Gross: d("1000.00")})
	totals.Add(NormalizedEvent{Type: EventCharge, Gross: d("250.00")})
	totals.Add(NormalizedEvent{Type: EventRefund, Gross: d("-125.00")})
	totals.Add(NormalizedEvent{Type: EventRefundFailure, Gross: d("125.00")})
	totals.Add(NormalizedEvent{Type: EventFee, Gross: d("-29.30")})
	totals.Add(NormalizedEvent{Type: EventDispute, Gross: d("-200.00")})
	totals.Add(NormalizedEvent{Type: EventAdjustment, Gross: d("-10.00")})
	totals.Add(NormalizedEvent{Type: EventPayout, Gross: d("-843.70")})

	assert.Equal(t, 2, totals.ChargeCount)
	assert.Equal(t, 1, totals.RefundCount)
	assert.Equal(t, 1, totals.RefundFailureCount)
	assert.Equal(t, "1250.00", totals.ChargeGross.StringFixed(2))
	assert.Equal(t, "-125.00", totals.RefundGross.StringFixed(2))
	assert.Equal(t, "125.00", totals.RefundFailureGross.StringFixed(2))

	// charges + refunds + refund failures
	assert.Equal(t, "1250.00", totals.TotalGross().StringFixed(2))
	// gross after fees and adjustments
	assert.Equal(t, "1210.70", totals.TotalNet().StringFixed(2))
}

func TestDailyTotals_IgnoresInformationalTypes(t *testing.T) {
	var totals DailyTotals
	totals.Add(NormalizedEvent{Type: EventBatch, Gross: d("500.00")})
	totals.Add(NormalizedEvent{Type: EventReserve, Gross: d("50.00")})

	assert.True(t, totals.TotalGross().IsZero())
	assert.Equal(t, 0, totals.ChargeCount)
}
