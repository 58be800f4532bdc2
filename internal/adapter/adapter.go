// Package adapter normalizes heterogeneous processor and ledger extract
// formats into the canonical event model. Each adapter declares which files
// it can handle via filename keywords (substring match, not strict parsing,
// to survive naming drift) and parses its wire format into NormalizedEvents.
package adapter

import (
	"log/slog"
	"time"

	"github.com/recondesk-dev/recondesk/internal/model"
	"github.com/recondesk-dev/recondesk/internal/tabular"
)

// Adapter converts one upstream extract format into normalized events.
type Adapter interface {
	// Source identifies which upstream system this adapter reads.
	Source() model.Source

	// CanHandle reports whether this adapter recognizes the file by name.
	CanHandle(path string) bool

	// Parse reads the file and returns normalized events. A non-zero target
	// restricts output to events whose effective date matches. Empty or
	// unreadable files yield an empty slice, not an error.
	Parse(path string, target time.Time) ([]model.NormalizedEvent, error)
}

// loadTable reads a file, degrading unreadable or empty inputs to an empty
// table with a logged warning. Recoverable parse errors must never abort a
// reconciliation run.
func loadTable(log *slog.Logger, path string) (tabular.Table, bool) {
	table, err := tabular.ReadFile(path)
	if err != nil {
		log.Warn("unreadable extract, treating as empty", "path", path, "error", err)
		return tabular.Table{}, false
	}
	if table.Empty() {
		log.Warn("extract has no data rows", "path", path)
		return table, false
	}
	return table, true
}

// rawRow captures the original row for audit/drilldown.
func rawRow(header []string, row []string) map[string]string {
	raw := make(map[string]string, len(header))
	for i, h := range header {
		if i < len(row) {
			raw[h] = row[i]
		}
	}
	return raw
}

// wantDay reports whether an event dated d passes the optional target filter.
func wantDay(d, target time.Time) bool {
	return target.IsZero() || model.SameDay(d, target)
}
