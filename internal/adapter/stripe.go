package adapter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/recondesk-dev/recondesk/internal/model"
	"github.com/recondesk-dev/recondesk/internal/tabular"
)

// stripeTypeRules map the reporting_category column. This is the richest
// extract format: itemized payout reports carry category, fee breakdown, and
// the automatic payout ID.
var stripeTypeRules = []typeRule{
	{[]string{"refund_failure", "refund failure"}, model.EventRefundFailure},
	{[]string{"dispute_reversal", "dispute reversal"}, model.EventDisputeReversal},
	{[]string{"refund"}, model.EventRefund},
	{[]string{"dispute"}, model.EventDispute},
	{[]string{"charge", "payment"}, model.EventCharge},
	{[]string{"fee"}, model.EventFee},
	{[]string{"payout"}, model.EventPayout},
	{[]string{"risk_reserved_funds", "reserve"}, model.EventReserve},
	{[]string{"adjustment"}, model.EventAdjustment},
}

// StripeAdapter parses Stripe itemized balance/payout reports.
type StripeAdapter struct {
	log *slog.Logger
}

// NewStripeAdapter creates a StripeAdapter.
func NewStripeAdapter(log *slog.Logger) *StripeAdapter {
	return &StripeAdapter{log: log}
}

// Source returns the stripe source tag.
func (a *StripeAdapter) Source() model.Source { return model.SourceStripe }

// CanHandle matches Stripe exports by filename keyword.
func (a *StripeAdapter) CanHandle(path string) bool {
	return strings.Contains(strings.ToLower(filepath.Base(path)), "stripe")
}

// Parse reads a Stripe itemized report.
func (a *StripeAdapter) Parse(path string, target time.Time) ([]model.NormalizedEvent, error) {
	table, ok := loadTable(a.log, path)
	if !ok {
		return nil, nil
	}

	dateCol := table.Col("created_utc", "created", "effective_at", "date")
	grossCol := table.Col("gross", "amount")
	if dateCol < 0 || grossCol < 0 {
		a.log.Warn("stripe extract missing date or amount column", "path", path, "header", table.Header)
		return nil, nil
	}
	feeCol := table.Col("fee")
	netCol := table.Col("net")
	categoryCol := table.Col("reporting_category", "reporting category", "type")
	payoutCol := table.Col("automatic_payout_id", "payout_id", "payout id")
	idCol := table.Col("balance_transaction_id", "id")
	statusCol := table.Col("status")
	descCol := table.Col("description", "statement_descriptor")

	var events []model.NormalizedEvent
	for i, row := range table.Rows {
		day, err := tabular.ParseDate(tabular.Cell(row, dateCol))
		if err != nil {
			continue
		}
		if !wantDay(day, target) {
			continue
		}

		gross, err := tabular.ParseAmount(tabular.Cell(row, grossCol))
		if err != nil {
			gross = decimal.Zero
		}
		fee := decimal.Zero
		if feeCol >= 0 {
			if f, err := tabular.ParseAmount(tabular.Cell(row, feeCol)); err == nil {
				fee = f
			}
		}
		net := gross.Sub(fee)
		if netCol >= 0 {
			if n, err := tabular.ParseAmount(tabular.Cell(row, netCol)); err == nil {
				net = n
			}
		}

		eventID := tabular.Cell(row, idCol)
		if eventID == "" {
			eventID = fmt.Sprintf("stripe_%d", i)
		}
		status := tabular.Cell(row, statusCol)
		if status == "" {
			status = "succeeded"
		}

		ev := model.NormalizedEvent{
			Source:          model.SourceStripe,
			Merchant:        "Stripe",
			Type:            mapType(stripeTypeRules, tabular.Cell(row, categoryCol), gross),
			EventID:         eventID,
			Gross:           gross,
			Fee:             fee,
			Net:             net,
			EventTS:         day,
			EffectiveDate:   day,
			BatchOrPayoutID: tabular.Cell(row, payoutCol),
			Status:          status,
			Reference:       tabular.Cell(row, descCol),
			Description:     tabular.Cell(row, descCol),
			Raw:             rawRow(table.Header, row),
		}
		events = append(events, ev)
	}
	return events, nil
}
