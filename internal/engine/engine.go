// Package engine is the reconciliation core: it discovers the day's extract
// files, aggregates normalized events into per-processor and ledger totals,
// classifies each processor's variance, and buckets non-GREEN outcomes into
// exception candidates. A single (entity, day) run is synchronous and
// side-effect-free aside from reading input files; concurrent runs for
// different (entity, day) pairs share no mutable state.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/recondesk-dev/recondesk/internal/adapter"
	"github.com/recondesk-dev/recondesk/internal/config"
	"github.com/recondesk-dev/recondesk/internal/discovery"
	"github.com/recondesk-dev/recondesk/internal/model"
)

// TotalProcessor is the synthetic entity-wide aggregate row. It is always
// first in a result's daily statuses.
const TotalProcessor = "TOTAL"

// LedgerKey names the ledger side in file provenance maps.
const LedgerKey = "ledger"

// Engine runs reconciliations against an immutable settings snapshot.
type Engine struct {
	settings config.Settings
	registry *adapter.Registry
	log      *slog.Logger
}

// New creates an Engine. A nil logger falls back to slog.Default.
func New(settings config.Settings, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		settings: settings,
		registry: adapter.Default(log),
		log:      log,
	}
}

// SummaryRow is one tabular summary line for the report renderer.
type SummaryRow struct {
	EntityID  string
	Entity    string
	Date      time.Time
	Processor string
	Metric    string
	Value     string
}

// Meta carries the run's per-processor verdicts, file provenance, and
// entity-wide counts.
type Meta struct {
	// DailyStatuses holds the TOTAL aggregate row first, then one row per
	// configured processor in configuration order.
	DailyStatuses []model.DailyStatus

	// Files maps each processor key (and LedgerKey) to the files read.
	Files map[string][]string

	GreenCount     int
	YellowCount    int
	RedCount       int
	TotalVariance  decimal.Decimal
	ExceptionCount int
}

// Result is one (entity, day) reconciliation outcome.
type Result struct {
	EntityID   string
	EntityName string
	Date       time.Time

	Summary    []SummaryRow
	Exceptions []model.ReconException
	Meta       Meta
}

// Run reconciles one entity for one business day. Unknown entity IDs are the
// only fatal error; missing or malformed extracts degrade to DATA_MISSING
// classifications, never failures.
func (e *Engine) Run(entityID string, day time.Time) (*Result, error) {
	ent, ok := e.settings.Entity(entityID)
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", entityID)
	}
	day = model.Day(day)

	agg, err := e.aggregate(ent, day)
	if err != nil {
		return nil, err
	}

	statuses := classifyAll(ent, day, agg)
	exceptions := BucketExceptions(statuses)

	meta := Meta{
		DailyStatuses:  statuses,
		Files:          agg.files,
		TotalVariance:  statuses[0].VarianceAmount,
		ExceptionCount: len(exceptions),
	}
	for _, ds := range statuses[1:] {
		switch ds.Status {
		case model.StatusGreen:
			meta.GreenCount++
		case model.StatusYellow:
			meta.YellowCount++
		case model.StatusRed:
			meta.RedCount++
		}
	}

	return &Result{
		EntityID:   ent.ID,
		EntityName: ent.Name,
		Date:       day,
		Summary:    summaryRows(ent, day, statuses),
		Exceptions: exceptions,
		Meta:       meta,
	}, nil
}

// classifyAll produces the TOTAL row followed by per-processor rows in
// configuration order. The ledger is one gross-truth total per day; it is
// allocated to processors proportionally to each processor's share of total
// absolute processor volume. That split is a stop-gap heuristic, not a
// causal attribution.
func classifyAll(ent config.Entity, day time.Time, agg *aggregation) []model.DailyStatus {
	procTotal := Side{}
	volume := decimal.Zero
	for _, key := range agg.order {
		side := agg.processors[key]
		procTotal = addSides(procTotal, side)
		volume = volume.Add(side.Net().Abs())
	}

	statuses := make([]model.DailyStatus, 0, len(agg.order)+1)
	statuses = append(statuses, Classify(Comparison{
		EntityID:  ent.ID,
		Processor: TotalProcessor,
		Date:      day,
		Ledger:    agg.ledger,
		Proc:      procTotal,
		Tolerance: ent.AmountTolerance,
	}))

	for _, key := range agg.order {
		side := agg.processors[key]
		statuses = append(statuses, Classify(Comparison{
			EntityID:  ent.ID,
			Processor: key,
			Date:      day,
			Ledger:    allocateLedger(agg.ledger, side, volume),
			Proc:      side,
			Tolerance: ent.AmountTolerance,
		}))
	}
	return statuses
}

// allocateLedger scales the ledger side by share = |procNet| / volume. A
// processor with no volume gets no allocation, so a day where only the
// ledger reports for it classifies as missing processor data rather than
// phantom variance.
func allocateLedger(ledger, proc Side, volume decimal.Decimal) Side {
	if volume.IsZero() {
		return Side{}
	}
	share := proc.Net().Abs().Div(volume)
	if share.IsZero() {
		return Side{}
	}
	return Side{
		ChargeGross:        ledger.ChargeGross.Mul(share),
		RefundGross:        ledger.RefundGross.Mul(share),
		RefundFailureGross: ledger.RefundFailureGross.Mul(share),
		Rows:               ledger.Rows,
	}
}

func addSides(a, b Side) Side {
	return Side{
		ChargeGross:        a.ChargeGross.Add(b.ChargeGross),
		RefundGross:        a.RefundGross.Add(b.RefundGross),
		RefundFailureGross: a.RefundFailureGross.Add(b.RefundFailureGross),
		FeeAmount:          a.FeeAmount.Add(b.FeeAmount),
		ChargeCount:        a.ChargeCount + b.ChargeCount,
		RefundCount:        a.RefundCount + b.RefundCount,
		RefundFailureCount: a.RefundFailureCount + b.RefundFailureCount,
		Rows:               a.Rows + b.Rows,
	}
}

func summaryRows(ent config.Entity, day time.Time, statuses []model.DailyStatus) []SummaryRow {
	var rows []SummaryRow
	add := func(processor, metric, value string) {
		rows = append(rows, SummaryRow{
			EntityID:  ent.ID,
			Entity:    ent.Name,
			Date:      day,
			Processor: processor,
			Metric:    metric,
			Value:     value,
		})
	}
	for _, ds := range statuses {
		add(ds.Processor, "ledger_gross", ds.LedgerTargetGross.StringFixed(2))
		add(ds.Processor, "processor_gross", ds.ProcTargetGross.StringFixed(2))
		add(ds.Processor, "variance", ds.VarianceAmount.StringFixed(2))
		add(ds.Processor, "variance_pct", fmt.Sprintf("%.4f", ds.VariancePct))
		add(ds.Processor, "status", string(ds.Status))
		add(ds.Processor, "reason", string(ds.TopReason))
	}
	return rows
}

// aggregation is the loaded and summed state for one (entity, day).
type aggregation struct {
	ledger     Side
	processors map[string]Side
	order      []string
	files      map[string][]string
}

// aggregate discovers and parses the day's files. The ledger folder is read
// once; each processor folder is keyed by folder-name keywords and
// accumulated separately. Discovery and parse problems degrade to empty
// sides with a warning.
func (e *Engine) aggregate(ent config.Entity, day time.Time) (*aggregation, error) {
	agg := &aggregation{
		processors: make(map[string]Side),
		files:      make(map[string][]string),
	}

	ledgerDir := e.settings.InputPath(ent.LedgerFolder)
	ledgerFiles, err := discovery.FilesForDay(ledgerDir, day)
	if err != nil {
		e.log.Warn("ledger discovery failed", "dir", ledgerDir, "error", err)
	}
	agg.files[LedgerKey] = ledgerFiles
	agg.ledger = accumulate(e.registry.ParseFiles(ledgerFiles, day))

	for _, folder := range ent.ProcessorFolders {
		key := ProcessorKey(folder)
		if _, seen := agg.processors[key]; !seen {
			agg.order = append(agg.order, key)
		}

		dir := e.settings.InputPath(folder)
		files, err := discovery.FilesForDay(dir, day)
		if err != nil {
			e.log.Warn("processor discovery failed", "dir", dir, "error", err)
		}
		agg.files[key] = append(agg.files[key], files...)
		agg.processors[key] = addSides(agg.processors[key], accumulate(e.registry.ParseFiles(files, day)))
	}
	return agg, nil
}

// accumulate sums qualifying events into a Side. Charges and refunds are
// split by amount sign, whatever the adapter called them; refund failures
// keep their own bucket because they belong to the ledger target but not the
// processor target. Fees, payouts, batches, and reserves never count toward
// either target.
func accumulate(events []model.NormalizedEvent) Side {
	var s Side
	for _, e := range events {
		switch e.Type {
		case model.EventRefundFailure:
			s.RefundFailureGross = s.RefundFailureGross.Add(e.Gross)
			s.RefundFailureCount++
			s.Rows++
		case model.EventCharge, model.EventRefund:
			if e.Gross.Sign() >= 0 {
				s.ChargeGross = s.ChargeGross.Add(e.Gross)
				s.ChargeCount++
			} else {
				s.RefundGross = s.RefundGross.Add(e.Gross)
				s.RefundCount++
			}
			s.Rows++
		case model.EventFee:
			s.FeeAmount = s.FeeAmount.Add(e.Gross)
		}
	}
	return s
}
