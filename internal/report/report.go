// Package report renders a reconciliation result into a styled XLSX
// workbook with Summary, Exceptions, Bridge, and Details sheets.
package report

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/recondesk-dev/recondesk/internal/engine"
	"github.com/recondesk-dev/recondesk/internal/model"
)

const (
	sheetSummary    = "Summary"
	sheetExceptions = "Exceptions"
	sheetBridge     = "Bridge"
	sheetDetails    = "Details"

	dateFormat = "2006-01-02"
	// Accounting-style number format with parenthesized negatives.
	currencyFormat = "#,##0.00;(#,##0.00)"
)

// statusFills are the familiar Excel conditional-format palettes reviewers
// expect: green/yellow/red fill with the matching dark font.
var statusFills = map[model.Status][2]string{
	model.StatusGreen:  {"C6EFCE", "006100"},
	model.StatusYellow: {"FFEB9C", "9C6500"},
	model.StatusRed:    {"FFC7CE", "9C0006"},
}

type styles struct {
	header   int
	currency int
	status   map[model.Status]int
}

// Render builds the workbook for one result.
func Render(res *engine.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	st, err := buildStyles(f)
	if err != nil {
		return nil, err
	}

	f.SetSheetName("Sheet1", sheetSummary)
	if err := writeSummary(f, st, res); err != nil {
		return nil, err
	}
	if err := writeExceptions(f, st, res); err != nil {
		return nil, err
	}
	if err := writeBridge(f, st, res); err != nil {
		return nil, err
	}
	if err := writeDetails(f, st, res); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Save renders and writes the workbook to path.
func Save(path string, res *engine.Result) error {
	f, err := Render(res)
	if err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving report %s: %w", path, err)
	}
	return f.Close()
}

// Bytes renders the workbook into memory, for download endpoints.
func Bytes(res *engine.Result) ([]byte, error) {
	f, err := Render(res)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}
	return buf.Bytes(), nil
}

func buildStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error

	st.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"366092"}},
	})
	if err != nil {
		return st, fmt.Errorf("building header style: %w", err)
	}

	st.currency, err = f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(currencyFormat)})
	if err != nil {
		return st, fmt.Errorf("building currency style: %w", err)
	}

	st.status = make(map[model.Status]int, len(statusFills))
	for status, colors := range statusFills {
		id, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Color: colors[1]},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colors[0]}},
		})
		if err != nil {
			return st, fmt.Errorf("building %s style: %w", status, err)
		}
		st.status[status] = id
	}
	return st, nil
}

func strPtr(s string) *string { return &s }

func writeHeader(f *excelize.File, st styles, sheet string, cols []interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &cols); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	end, _ := excelize.CoordinatesToCellName(len(cols), 1)
	return f.SetCellStyle(sheet, "A1", end, st.header)
}

func writeSummary(f *excelize.File, st styles, res *engine.Result) error {
	header := []interface{}{"Processor", "Ledger Gross", "Processor Gross", "Variance", "Variance %", "Status", "Reason"}
	if err := writeHeader(f, st, sheetSummary, header); err != nil {
		return err
	}

	for i, ds := range res.Meta.DailyStatuses {
		r := i + 2
		row := []interface{}{
			ds.Processor,
			ds.LedgerTargetGross.InexactFloat64(),
			ds.ProcTargetGross.InexactFloat64(),
			ds.VarianceAmount.InexactFloat64(),
			fmt.Sprintf("%.2f%%", ds.VariancePct),
			string(ds.Status),
			string(ds.TopReason),
		}
		if err := f.SetSheetRow(sheetSummary, fmt.Sprintf("A%d", r), &row); err != nil {
			return fmt.Errorf("writing summary row %d: %w", r, err)
		}
		if err := f.SetCellStyle(sheetSummary, fmt.Sprintf("B%d", r), fmt.Sprintf("D%d", r), st.currency); err != nil {
			return err
		}
		if style, ok := st.status[ds.Status]; ok {
			if err := f.SetCellStyle(sheetSummary, fmt.Sprintf("F%d", r), fmt.Sprintf("F%d", r), style); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(sheetSummary, "A", "G", 16)
}

func writeExceptions(f *excelize.File, st styles, res *engine.Result) error {
	if _, err := f.NewSheet(sheetExceptions); err != nil {
		return err
	}
	header := []interface{}{"ID", "Date", "Processor", "Reason", "Amount", "Direction", "Items"}
	if err := writeHeader(f, st, sheetExceptions, header); err != nil {
		return err
	}

	for i, ex := range res.Exceptions {
		r := i + 2
		row := []interface{}{
			ex.ID,
			ex.Date.Format(dateFormat),
			ex.Processor,
			string(ex.ReasonCode),
			ex.Amount.InexactFloat64(),
			string(ex.Direction),
			ex.ItemCount,
		}
		if err := f.SetSheetRow(sheetExceptions, fmt.Sprintf("A%d", r), &row); err != nil {
			return fmt.Errorf("writing exception row %d: %w", r, err)
		}
		if err := f.SetCellStyle(sheetExceptions, fmt.Sprintf("E%d", r), fmt.Sprintf("E%d", r), st.currency); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheetExceptions, "A", "A", 42)
}

// writeBridge walks each processor's variance through its breakdown buckets.
func writeBridge(f *excelize.File, st styles, res *engine.Result) error {
	if _, err := f.NewSheet(sheetBridge); err != nil {
		return err
	}
	header := []interface{}{"Processor", "Bucket", "Amount"}
	if err := writeHeader(f, st, sheetBridge, header); err != nil {
		return err
	}

	r := 2
	for _, ds := range res.Meta.DailyStatuses {
		if ds.Processor == engine.TotalProcessor {
			continue
		}
		for _, b := range bridgeBuckets(ds.Breakdown) {
			if b.amount.IsZero() {
				continue
			}
			row := []interface{}{ds.Processor, b.name, b.amount.InexactFloat64()}
			if err := f.SetSheetRow(sheetBridge, fmt.Sprintf("A%d", r), &row); err != nil {
				return fmt.Errorf("writing bridge row %d: %w", r, err)
			}
			if err := f.SetCellStyle(sheetBridge, fmt.Sprintf("C%d", r), fmt.Sprintf("C%d", r), st.currency); err != nil {
				return err
			}
			r++
		}
	}
	return nil
}

func writeDetails(f *excelize.File, st styles, res *engine.Result) error {
	if _, err := f.NewSheet(sheetDetails); err != nil {
		return err
	}
	header := []interface{}{"Entity ID", "Entity", "Date", "Processor", "Metric", "Value"}
	if err := writeHeader(f, st, sheetDetails, header); err != nil {
		return err
	}

	r := 2
	for _, s := range res.Summary {
		row := []interface{}{s.EntityID, s.Entity, s.Date.Format(dateFormat), s.Processor, s.Metric, s.Value}
		if err := f.SetSheetRow(sheetDetails, fmt.Sprintf("A%d", r), &row); err != nil {
			return fmt.Errorf("writing details row %d: %w", r, err)
		}
		r++
	}

	// File provenance below the metric rows.
	r++
	for _, ds := range res.Meta.DailyStatuses {
		key := ds.Processor
		if key == engine.TotalProcessor {
			key = engine.LedgerKey
		}
		for _, file := range res.Meta.Files[key] {
			row := []interface{}{res.EntityID, res.EntityName, res.Date.Format(dateFormat), key, "source_file", file}
			if err := f.SetSheetRow(sheetDetails, fmt.Sprintf("A%d", r), &row); err != nil {
				return fmt.Errorf("writing provenance row %d: %w", r, err)
			}
			r++
		}
	}
	return nil
}

type bridgeBucket struct {
	name   string
	amount decimal.Decimal
}

func bridgeBuckets(b model.VarianceBreakdown) []bridgeBucket {
	return []bridgeBucket{
		{"timing_cutoff", b.TimingCutoff},
		{"refund_failure", b.RefundFailure},
		{"void_vs_refund", b.VoidVsRefund},
		{"processor_only", b.ProcessorOnly},
		{"ledger_only", b.LedgerOnly},
		{"adjustments", b.Adjustments},
		{"disputes", b.Disputes},
		{"fees", b.Fees},
		{"unexplained", b.Unexplained},
	}
}
