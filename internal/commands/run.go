package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/recondesk-dev/recondesk/internal/config"
	"github.com/recondesk-dev/recondesk/internal/discovery"
	"github.com/recondesk-dev/recondesk/internal/engine"
	"github.com/recondesk-dev/recondesk/internal/exceptions"
	"github.com/recondesk-dev/recondesk/internal/report"
	"github.com/recondesk-dev/recondesk/internal/runlog"
)

const dateFormat = "2006-01-02"

func newRunCommand(configPath *string) *cobra.Command {
	var entityID string
	var date string
	var lookback int
	var force bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile one entity for a business day (or a lookback window)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(*configPath)
			if err != nil {
				return err
			}

			var days []time.Time
			switch {
			case lookback > 0:
				days = discovery.BusinessDaysLookback(time.Now().UTC(), lookback)
			case date != "":
				d, err := time.Parse(dateFormat, date)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				days = []time.Time{d}
			default:
				days = discovery.BusinessDaysLookback(time.Now().UTC(), 1)
			}

			for _, day := range days {
				if !force && engine.AlreadyRan(cfg.OutputDir, entityID, day) {
					cmd.Printf("%s %s: already ran, skipping (use --force to rerun)\n",
						entityID, day.Format(dateFormat))
					continue
				}
				if err := runDay(cmd, cfg, entityID, day); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&entityID, "entity", "", "entity ID (required)")
	_ = cmd.MarkFlagRequired("entity")
	cmd.Flags().StringVar(&date, "date", "", "business day to reconcile (YYYY-MM-DD, default: last business day)")
	cmd.Flags().IntVar(&lookback, "lookback", 0, "reconcile the last N business days instead of one date")
	cmd.Flags().BoolVar(&force, "force", false, "rerun even when a report already exists")

	return cmd
}

func runDay(cmd *cobra.Command, cfg *config.Settings, entityID string, day time.Time) error {
	res, err := engine.New(*cfg, newLogger()).Run(entityID, day)
	if err != nil {
		return err
	}

	outPath := engine.OutputFilename(cfg.OutputDir, res.EntityID, res.Date)
	if err := report.Save(outPath, res); err != nil {
		return err
	}
	added, err := exceptions.NewStore(cfg.OutputDir).Merge(res.Exceptions)
	if err != nil {
		return err
	}
	entry := runlog.Entry{
		Timestamp:      time.Now().UTC(),
		EntityID:       res.EntityID,
		Date:           res.Date,
		Green:          res.Meta.GreenCount,
		Yellow:         res.Meta.YellowCount,
		Red:            res.Meta.RedCount,
		TotalVariance:  res.Meta.TotalVariance,
		ExceptionCount: res.Meta.ExceptionCount,
		OutputFile:     outPath,
	}
	if err := runlog.Append(cfg.OutputDir, []runlog.Entry{entry}); err != nil {
		return err
	}

	cmd.Printf("%s %s: %d green, %d yellow, %d red, variance %s, %d exception(s) (%d new)\n",
		res.EntityID, res.Date.Format(dateFormat),
		res.Meta.GreenCount, res.Meta.YellowCount, res.Meta.RedCount,
		res.Meta.TotalVariance.StringFixed(2), res.Meta.ExceptionCount, added)
	for _, ds := range res.Meta.DailyStatuses {
		cmd.Printf("  %-16s %-7s %-18s ledger %12s  processor %12s  variance %10s\n",
			ds.Processor, ds.Status, ds.TopReason,
			ds.LedgerTargetGross.StringFixed(2), ds.ProcTargetGross.StringFixed(2),
			ds.VarianceAmount.StringFixed(2))
	}
	cmd.Printf("  report: %s\n", outPath)
	return nil
}
