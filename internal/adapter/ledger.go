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

// Column synonym lists for ledger/CRM activity exports. These are the primary
// defense against schema drift across extract versions: each list is tried in
// order, exact match before substring match. Kept as package-level data so new
// extract variants can be supported by extending the lists.
var (
	LedgerDateColumns     = []string{"date", "transaction date", "transaction_date", "posting date", "posting_date", "created_at", "created at"}
	LedgerAmountColumns   = []string{"amount", "net", "total", "payment_amount", "payment amount"}
	LedgerTypeColumns     = []string{"type", "transaction type", "transaction_type", "category", "action"}
	LedgerDescColumns     = []string{"description", "memo", "notes", "reference"}
	LedgerMerchantColumns = []string{"merchant", "vendor", "processor", "gateway"}
	LedgerIDColumns       = []string{"id", "transaction id", "transaction_id", "txn_id", "reference_id"}
)

// ledgerTypeRules order matters: refund failures would otherwise match the
// plain refund keyword.
var ledgerTypeRules = []typeRule{
	{[]string{"refund_failure", "refund failure"}, model.EventRefundFailure},
	{[]string{"refund"}, model.EventRefund},
	{[]string{"void", "cancel"}, model.EventAdjustment},
	{[]string{"adjustment", "correction"}, model.EventAdjustment},
	{[]string{"chargeback", "dispute"}, model.EventDispute},
	{[]string{"payment", "sale", "charge"}, model.EventCharge},
}

// LedgerAdapter parses CRM/ledger activity exports, the gross-truth side of
// the reconciliation. The ledger never carries fees: fee is always zero and
// net equals gross.
type LedgerAdapter struct {
	log *slog.Logger
}

// NewLedgerAdapter creates a LedgerAdapter.
func NewLedgerAdapter(log *slog.Logger) *LedgerAdapter {
	return &LedgerAdapter{log: log}
}

// Source returns the ledger source tag.
func (a *LedgerAdapter) Source() model.Source { return model.SourceLedger }

// CanHandle matches ledger activity exports by filename keyword.
func (a *LedgerAdapter) CanHandle(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, kw := range []string{"vendors", "spi", "ledger", "activity_report", "activity report", "nav"} {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// Parse reads a ledger export, resolving columns by synonym lists.
func (a *LedgerAdapter) Parse(path string, target time.Time) ([]model.NormalizedEvent, error) {
	table, ok := loadTable(a.log, path)
	if !ok {
		return nil, nil
	}

	dateCol := table.Col(LedgerDateColumns...)
	amountCol := table.Col(LedgerAmountColumns...)
	if dateCol < 0 || amountCol < 0 {
		a.log.Warn("ledger extract missing date or amount column", "path", path, "header", table.Header)
		return nil, nil
	}
	typeCol := table.Col(LedgerTypeColumns...)
	descCol := table.Col(LedgerDescColumns...)
	merchantCol := table.Col(LedgerMerchantColumns...)
	idCol := table.Col(LedgerIDColumns...)

	var events []model.NormalizedEvent
	for i, row := range table.Rows {
		day, err := tabular.ParseDate(tabular.Cell(row, dateCol))
		if err != nil {
			continue // undated rows are dropped, not defaulted
		}
		if !wantDay(day, target) {
			continue
		}

		amount, err := tabular.ParseAmount(tabular.Cell(row, amountCol))
		if err != nil {
			amount = decimal.Zero
		}

		eventID := tabular.Cell(row, idCol)
		if eventID == "" {
			eventID = fmt.Sprintf("ledger_%d", i)
		}
		merchant := tabular.Cell(row, merchantCol)
		if merchant == "" {
			merchant = "Unknown"
		}

		ev := model.NormalizedEvent{
			Source:        model.SourceLedger,
			Merchant:      merchant,
			Type:          mapType(ledgerTypeRules, tabular.Cell(row, typeCol), amount),
			EventID:       eventID,
			Gross:         amount,
			Net:           amount,
			EventTS:       day,
			EffectiveDate: day,
			Status:        "succeeded",
			Reference:     tabular.Cell(row, descCol),
			Description:   tabular.Cell(row, descCol),
			Raw:           rawRow(table.Header, row),
		}
		events = append(events, ev)
	}
	return events, nil
}
