package engine

import (
	"github.com/shopspring/decimal"

	"github.com/recondesk-dev/recondesk/internal/id"
	"github.com/recondesk-dev/recondesk/internal/model"
)

// negligible is the floor below which a breakdown bucket is not worth a
// review item.
var negligible = decimal.RequireFromString("0.01")

// BucketExceptions converts non-GREEN per-processor statuses into candidate
// exception records, one per non-negligible breakdown bucket. A RED status
// with no bucket amounts (the missing-data case) still yields one zero-amount
// record so missing-file days never vanish from the review queue.
//
// Candidates carry workflow fields at their zero values and are not
// deduplicated here; the exception store owns identity dedup.
func BucketExceptions(statuses []model.DailyStatus) []model.ReconException {
	var out []model.ReconException
	for _, ds := range statuses {
		if ds.Processor == TotalProcessor || ds.Status == model.StatusGreen {
			continue
		}

		before := len(out)
		for _, bucket := range buckets(ds.Breakdown) {
			if bucket.amount.Abs().LessThanOrEqual(negligible) {
				continue
			}
			out = append(out, candidate(ds, bucket.reason, bucket.amount, itemCount(ds)))
		}
		if ds.Status == model.StatusRed && len(out) == before {
			out = append(out, candidate(ds, model.ReasonDataMissing, decimal.Zero, 0))
		}
	}
	return out
}

type bucket struct {
	reason model.ReasonCode
	amount decimal.Decimal
}

func buckets(b model.VarianceBreakdown) []bucket {
	return []bucket{
		{model.ReasonTimingCutoff, b.TimingCutoff},
		{model.ReasonRefundFailure, b.RefundFailure},
		{model.ReasonVoidVsRefund, b.VoidVsRefund.Add(b.Adjustments)},
		{model.ReasonProcessorOnly, b.ProcessorOnly},
		{model.ReasonLedgerOnly, b.LedgerOnly},
		{model.ReasonDisputeLifecycle, b.Disputes},
		{model.ReasonFeeVariance, b.Fees},
		{model.ReasonUnexplained, b.Unexplained},
	}
}

func candidate(ds model.DailyStatus, reason model.ReasonCode, amount decimal.Decimal, items int) model.ReconException {
	return model.ReconException{
		ID:         id.FormatExceptionID(ds.EntityID, ds.Processor, ds.Date, string(reason)),
		EntityID:   ds.EntityID,
		Date:       ds.Date,
		Processor:  ds.Processor,
		ReasonCode: reason,
		Amount:     amount,
		Direction:  direction(reason),
		ItemCount:  items,
	}
}

func direction(reason model.ReasonCode) model.Direction {
	switch reason {
	case model.ReasonProcessorOnly:
		return model.DirectionProcessorOnly
	case model.ReasonLedgerOnly:
		return model.DirectionLedgerOnly
	}
	return model.DirectionMismatch
}

func itemCount(ds model.DailyStatus) int {
	return ds.LedgerChargeCount + ds.LedgerRefundCount + ds.ProcChargeCount + ds.ProcRefundCount
}
