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

// NMI gateway action reports exist per merchant account; the merchant name is
// embedded in the filename and distinguishes the variants.
var nmiSources = map[string]model.Source{
	"chesapeake": model.SourceNMIChesapeake,
	"cliq":       model.SourceNMICliq,
	"esquire":    model.SourceNMIEsquire,
}

// authOnlyActions never settle and are excluded from gross activity.
var authOnlyActions = map[string]bool{
	"auth":      true,
	"authorize": true,
	"validate":  true,
}

var nmiTypeRules = []typeRule{
	{[]string{"refund", "credit"}, model.EventRefund},
	{[]string{"settle", "capture", "sale"}, model.EventCharge},
	{[]string{"void"}, model.EventAdjustment},
}

// NMIAdapter parses NMI gateway action reports for one merchant variant.
type NMIAdapter struct {
	merchant string
	source   model.Source
	log      *slog.Logger
}

// NewNMIAdapter creates an NMIAdapter for a merchant variant (chesapeake,
// cliq, or esquire).
func NewNMIAdapter(merchant string, log *slog.Logger) *NMIAdapter {
	m := strings.ToLower(merchant)
	src, ok := nmiSources[m]
	if !ok {
		src = model.SourceNMIChesapeake
	}
	return &NMIAdapter{merchant: m, source: src, log: log}
}

// Source returns the variant's source tag.
func (a *NMIAdapter) Source() model.Source { return a.source }

// CanHandle matches NMI exports carrying this variant's merchant keyword.
func (a *NMIAdapter) CanHandle(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	return strings.Contains(name, "nmi") && strings.Contains(name, a.merchant)
}

// Parse reads a gateway action report, dropping failed and auth-only rows.
func (a *NMIAdapter) Parse(path string, target time.Time) ([]model.NormalizedEvent, error) {
	table, ok := loadTable(a.log, path)
	if !ok {
		return nil, nil
	}

	dateCol := table.Col("settle_date", "settle date", "transaction_date", "transaction date", "date", "created")
	amountCol := table.Col("action_amount", "action amount", "amount", "settle_amount", "settle amount")
	if dateCol < 0 || amountCol < 0 {
		a.log.Warn("nmi extract missing date or amount column", "path", path, "header", table.Header)
		return nil, nil
	}
	successCol := table.Col("action_success", "action success", "success")
	actionCol := table.Col("action_type", "action type", "type")
	idCol := table.Col("transaction_id", "transaction id", "transactionid")
	batchCol := table.Col("action_batch_id", "action batch id", "batch_id", "batch id")
	refCol := table.Col("order_id", "order id", "orderid")
	descCol := table.Col("merchant_defined_field_1", "merchant defined field 1")

	var events []model.NormalizedEvent
	for i, row := range table.Rows {
		if successCol >= 0 && !isSuccess(tabular.Cell(row, successCol)) {
			continue
		}
		action := strings.ToLower(tabular.Cell(row, actionCol))
		if authOnlyActions[action] {
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

		kind := mapType(nmiTypeRules, action, amount)
		if kind == model.EventRefund && amount.IsPositive() {
			amount = amount.Neg()
		}

		eventID := tabular.Cell(row, idCol)
		if eventID == "" {
			eventID = fmt.Sprintf("nmi_%d", i)
		}

		ev := model.NormalizedEvent{
			Source:          a.source,
			Merchant:        "NMI " + capitalize(a.merchant),
			Type:            kind,
			EventID:         eventID,
			Gross:           amount,
			Net:             amount,
			EventTS:         day,
			EffectiveDate:   day,
			BatchOrPayoutID: tabular.Cell(row, batchCol),
			Status:          "settled",
			Reference:       tabular.Cell(row, refCol),
			Description:     tabular.Cell(row, descCol),
			Raw:             rawRow(table.Header, row),
		}
		events = append(events, ev)
	}
	return events, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func isSuccess(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "success", "":
		return true
	}
	return false
}
