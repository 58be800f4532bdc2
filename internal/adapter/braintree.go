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

// settledStatuses are the only financially real settlement states. Everything
// else (authorized, voided, declined, gateway_rejected) never moves money and
// must be dropped before aggregation.
var settledStatuses = map[string]bool{
	"settled":                  true,
	"settling":                 true,
	"submitted_for_settlement": true,
	"submitted for settlement": true,
}

var braintreeTypeRules = []typeRule{
	{[]string{"credit", "refund"}, model.EventRefund},
	{[]string{"sale", "charge"}, model.EventCharge},
	{[]string{"void"}, model.EventAdjustment},
}

// BraintreeAdapter parses Braintree transaction exports. Fees are usually
// absent from the transaction export, so fee stays zero until month-end.
type BraintreeAdapter struct {
	log *slog.Logger
}

// NewBraintreeAdapter creates a BraintreeAdapter.
func NewBraintreeAdapter(log *slog.Logger) *BraintreeAdapter {
	return &BraintreeAdapter{log: log}
}

// Source returns the braintree source tag.
func (a *BraintreeAdapter) Source() model.Source { return model.SourceBraintree }

// CanHandle matches Braintree exports by filename keyword.
func (a *BraintreeAdapter) CanHandle(path string) bool {
	return strings.Contains(strings.ToLower(filepath.Base(path)), "braintree")
}

// Parse reads a Braintree transaction export, keeping only settled rows.
func (a *BraintreeAdapter) Parse(path string, target time.Time) ([]model.NormalizedEvent, error) {
	table, ok := loadTable(a.log, path)
	if !ok {
		return nil, nil
	}

	dateCol := table.Col("settlement date", "settlement_date", "created_at", "created datetime", "date")
	amountCol := table.Col("settlement amount", "amount submitted for settlement", "amount authorized", "amount")
	if dateCol < 0 || amountCol < 0 {
		a.log.Warn("braintree extract missing date or amount column", "path", path, "header", table.Header)
		return nil, nil
	}
	statusCol := table.Col("transaction status", "status")
	typeCol := table.Col("type", "transaction type", "transaction_type")
	idCol := table.Col("transaction id", "transaction_id", "id")
	batchCol := table.Col("settlement batch id", "settlement_batch_id")
	refCol := table.Col("order id", "order_id", "customer_id")
	merchantAcctCol := table.Col("merchant account id", "merchant_account_id")

	var events []model.NormalizedEvent
	for i, row := range table.Rows {
		status := strings.ToLower(tabular.Cell(row, statusCol))
		if statusCol >= 0 && !settledStatuses[status] {
			continue
		}

		day, err := tabular.ParseDate(tabular.Cell(row, dateCol))
		if err != nil {
			continue
		}
		if !wantDay(day, target) {
			continue
		}

		amount, err := tabular.ParseAmount(tabular.Cell(row, amountCol))
		if err != nil {
			amount = decimal.Zero
		}

		kind := mapType(braintreeTypeRules, tabular.Cell(row, typeCol), amount)
		// The export encodes refunds as positive magnitudes; the canonical
		// model requires refunds negative.
		if kind == model.EventRefund && amount.IsPositive() {
			amount = amount.Neg()
		}

		eventID := tabular.Cell(row, idCol)
		if eventID == "" {
			eventID = fmt.Sprintf("bt_%d", i)
		}

		ev := model.NormalizedEvent{
			Source:          model.SourceBraintree,
			Merchant:        "Braintree",
			Type:            kind,
			EventID:         eventID,
			Gross:           amount,
			Net:             amount,
			EventTS:         day,
			EffectiveDate:   day,
			BatchOrPayoutID: tabular.Cell(row, batchCol),
			Status:          status,
			Reference:       tabular.Cell(row, refCol),
			Description:     tabular.Cell(row, merchantAcctCol),
			Raw:             rawRow(table.Header, row),
		}
		events = append(events, ev)
	}
	return events, nil
}
