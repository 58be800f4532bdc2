package exceptions

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/recondesk-dev/recondesk/internal/model"
)

// Header is the CSV header for exceptions.csv.
const Header = "id,entity_id,date,processor,reason_code,amount,direction,item_count,resolution,resolved_by,resolved_at,notes"

const (
	numFields     = 12
	dateFormat    = "2006-01-02"
	colID         = 0
	colEntityID   = 1
	colDate       = 2
	colProcessor  = 3
	colReason     = 4
	colAmount     = 5
	colDirection  = 6
	colItemCount  = 7
	colResolution = 8
	colResolvedBy = 9
	colResolvedAt = 10
	colNotes      = 11
)

// ReadExceptions reads all exception records from an exceptions.csv reader.
func ReadExceptions(r io.Reader) ([]model.ReconException, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading exceptions CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var out []model.ReconException
	for i, rec := range records[1:] {
		ex, err := UnmarshalException(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, ex)
	}
	return out, nil
}

// WriteExceptions writes records to an exceptions.csv writer (including header).
func WriteExceptions(w io.Writer, exceptions []model.ReconException) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, ex := range exceptions {
		if err := cw.Write(MarshalException(ex)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalException converts a record to a CSV row.
func MarshalException(ex model.ReconException) []string {
	row := make([]string, numFields)
	row[colID] = ex.ID
	row[colEntityID] = ex.EntityID
	row[colDate] = ex.Date.Format(dateFormat)
	row[colProcessor] = ex.Processor
	row[colReason] = string(ex.ReasonCode)
	row[colAmount] = ex.Amount.StringFixed(2)
	row[colDirection] = string(ex.Direction)
	row[colItemCount] = strconv.Itoa(ex.ItemCount)
	row[colResolution] = string(ex.Resolution)
	row[colResolvedBy] = ex.ResolvedBy
	if !ex.ResolvedAt.IsZero() {
		row[colResolvedAt] = ex.ResolvedAt.Format(time.RFC3339)
	}
	row[colNotes] = ex.Notes
	return row
}

// UnmarshalException converts a CSV row to a record.
func UnmarshalException(record []string) (model.ReconException, error) {
	if len(record) != numFields {
		return model.ReconException{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.ReconException{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}
	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.ReconException{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}
	items, err := strconv.Atoi(record[colItemCount])
	if err != nil {
		return model.ReconException{}, fmt.Errorf("parsing item count %q: %w", record[colItemCount], err)
	}

	ex := model.ReconException{
		ID:         record[colID],
		EntityID:   record[colEntityID],
		Date:       date,
		Processor:  record[colProcessor],
		ReasonCode: model.ReasonCode(record[colReason]),
		Amount:     amount,
		Direction:  model.Direction(record[colDirection]),
		ItemCount:  items,
		Resolution: model.ResolutionStatus(record[colResolution]),
		ResolvedBy: record[colResolvedBy],
		Notes:      record[colNotes],
	}
	if record[colResolvedAt] != "" {
		ts, err := time.Parse(time.RFC3339, record[colResolvedAt])
		if err != nil {
			return model.ReconException{}, fmt.Errorf("parsing resolved_at %q: %w", record[colResolvedAt], err)
		}
		ex.ResolvedAt = ts
	}
	return ex, nil
}
