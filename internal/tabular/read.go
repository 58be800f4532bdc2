package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// Table is a parsed tabular file: normalized header labels plus data rows.
// Rows are padded or truncated to the header width.
type Table struct {
	Header []string
	Rows   [][]string
}

// Empty reports whether the table has no data rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Col returns the index of the first header matching one of the candidate
// labels: all candidates are tried for an exact match first, then for a
// substring match, in candidate order. Returns -1 if nothing matches.
func (t Table) Col(candidates ...string) int {
	for _, c := range candidates {
		for i, h := range t.Header {
			if h == c {
				return i
			}
		}
	}
	for _, c := range candidates {
		for i, h := range t.Header {
			if strings.Contains(h, c) {
				return i
			}
		}
	}
	return -1
}

// Cell returns row[col], or "" when col is -1 or out of range.
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// ReadFile parses a CSV, XLSX, or XLS file into a Table. Unsupported
// extensions are an error; a readable file with no data rows yields an empty
// Table, not an error.
func ReadFile(path string) (Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx":
		return readXLSX(path)
	case ".xls":
		return readXLS(path)
	default:
		return Table{}, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// IsTabular reports whether a filename has a supported extension.
func IsTabular(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".xls":
		return true
	}
	return false
}

func readCSV(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return tableFromRecords(decodeCSV(data))
}

// decodeCSV tries UTF-8, then Latin-1, then Windows-1252, finally falling
// back to lossy UTF-8. Processor exports arrive in all of these.
func decodeCSV(data []byte) ([][]string, error) {
	if utf8.Valid(data) {
		return parseCSVBytes(data)
	}
	for _, cm := range []*charmap.Charmap{charmap.ISO8859_1, charmap.Windows1252} {
		decoded, err := cm.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		if recs, err := parseCSVBytes(decoded); err == nil {
			return recs, nil
		}
	}
	return parseCSVBytes(bytes.ToValidUTF8(data, []byte("�")))
}

func parseCSVBytes(data []byte) ([][]string, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1 // extracts are ragged; pad later
	cr.LazyQuotes = true
	return cr.ReadAll()
}

func readXLSX(path string) (Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Table{}, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	return tableFromRecords(rows, nil)
}

func readXLS(path string) (Table, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return Table{}, fmt.Errorf("opening %s: %w", path, err)
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return Table{}, nil
	}

	var records [][]string
	for r := 0; r <= int(sheet.MaxRow); r++ {
		row := sheet.Row(r)
		if row == nil {
			continue
		}
		rec := make([]string, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			rec[c] = row.Col(c)
		}
		records = append(records, rec)
	}
	return tableFromRecords(records, nil)
}

func tableFromRecords(records [][]string, err error) (Table, error) {
	if err != nil {
		return Table{}, fmt.Errorf("parsing rows: %w", err)
	}
	if len(records) == 0 {
		return Table{}, nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = NormalizeLabel(h)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]string, len(header))
		copy(row, rec)
		rows = append(rows, row)
	}
	return Table{Header: header, Rows: rows}, nil
}

// NormalizeLabel lowercases a column label and collapses runs of whitespace
// to single spaces, so synonym matching tolerates header formatting drift.
func NormalizeLabel(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
