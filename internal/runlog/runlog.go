// Package runlog keeps an append-only audit trail of reconciliation runs in
// runs.csv under the output directory.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one row in the run log.
type Entry struct {
	Timestamp      time.Time
	EntityID       string
	Date           time.Time
	Green          int
	Yellow         int
	Red            int
	TotalVariance  decimal.Decimal
	ExceptionCount int
	OutputFile     string
}

// Header is the CSV header for runs.csv.
const Header = "timestamp,entity_id,date,green,yellow,red,total_variance,exception_count,output_file"

const (
	numFields     = 9
	fileName      = "runs.csv"
	dateFormat    = "2006-01-02"
	colTimestamp  = 0
	colEntityID   = 1
	colDate       = 2
	colGreen      = 3
	colYellow     = 4
	colRed        = 5
	colVariance   = 6
	colExceptions = 7
	colOutputFile = 8
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colEntityID] = e.EntityID
	row[colDate] = e.Date.Format(dateFormat)
	row[colGreen] = strconv.Itoa(e.Green)
	row[colYellow] = strconv.Itoa(e.Yellow)
	row[colRed] = strconv.Itoa(e.Red)
	row[colVariance] = e.TotalVariance.StringFixed(2)
	row[colExceptions] = strconv.Itoa(e.ExceptionCount)
	row[colOutputFile] = e.OutputFile
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}
	variance, err := decimal.NewFromString(record[colVariance])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing variance %q: %w", record[colVariance], err)
	}

	e := Entry{
		Timestamp:     ts,
		EntityID:      record[colEntityID],
		Date:          date,
		TotalVariance: variance,
		OutputFile:    record[colOutputFile],
	}
	for _, f := range []struct {
		col int
		dst *int
	}{
		{colGreen, &e.Green},
		{colYellow, &e.Yellow},
		{colRed, &e.Red},
		{colExceptions, &e.ExceptionCount},
	} {
		n, err := strconv.Atoi(record[f.col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing count %q: %w", record[f.col], err)
		}
		*f.dst = n
	}
	return e, nil
}

// Append writes entries to <dir>/runs.csv, creating the file and header if
// needed.
func Append(dir string, entries []Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating run log dir: %w", err)
	}

	path := filepath.Join(dir, fileName)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for _, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing run log row: %w", err)
		}
	}
	return cw.Error()
}

// Read returns all entries from <dir>/runs.csv, oldest first. A missing file
// is an empty log.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, fileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()
	return readAll(f)
}

func readAll(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
