// Package scheduler runs the daily auto-reconciliation loop: at the
// configured local time it sweeps a business-day lookback window for every
// entity, skipping days that already have a report on disk.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/recondesk-dev/recondesk/internal/config"
	"github.com/recondesk-dev/recondesk/internal/discovery"
	"github.com/recondesk-dev/recondesk/internal/engine"
	"github.com/recondesk-dev/recondesk/internal/exceptions"
	"github.com/recondesk-dev/recondesk/internal/report"
	"github.com/recondesk-dev/recondesk/internal/runlog"
)

// Scheduler owns the cron loop for one settings snapshot.
type Scheduler struct {
	settings config.Settings
	store    *exceptions.Store
	log      *slog.Logger
	cron     *cron.Cron
	now      func() time.Time
}

// New creates a Scheduler.
func New(settings config.Settings, log *slog.Logger) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	loc, err := time.LoadLocation(settings.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", settings.TimeZone, err)
	}
	return &Scheduler{
		settings: settings,
		store:    exceptions.NewStore(settings.OutputDir),
		log:      log,
		cron:     cron.New(cron.WithLocation(loc)),
		now:      time.Now,
	}, nil
}

// Start registers the daily job and starts the cron loop. Disabled settings
// make Start a no-op.
func (s *Scheduler) Start() error {
	if !s.settings.AutoEnabled {
		s.log.Info("auto-run disabled")
		return nil
	}
	spec, err := cronSpec(s.settings.AutoTime)
	if err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(spec, s.Sweep); err != nil {
		return fmt.Errorf("scheduling daily run: %w", err)
	}
	s.cron.Start()
	s.log.Info("auto-run scheduled", "time", s.settings.AutoTime, "tz", s.settings.TimeZone)
	return nil
}

// Stop halts the cron loop, waiting for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep reconciles the lookback window for every entity, newest day last.
// Days with an existing report are skipped, which makes repeated sweeps
// idempotent.
func (s *Scheduler) Sweep() {
	lookback := s.settings.LookbackBizDays
	if lookback < 1 {
		lookback = 1
	}
	days := discovery.BusinessDaysLookback(s.now().UTC(), lookback)

	for _, ent := range s.settings.Entities {
		for _, day := range days {
			if engine.AlreadyRan(s.settings.OutputDir, ent.ID, day) {
				continue
			}
			if err := s.runOne(ent.ID, day); err != nil {
				s.log.Error("auto-run failed", "entity", ent.ID, "day", day.Format("2006-01-02"), "error", err)
			}
		}
	}
}

func (s *Scheduler) runOne(entityID string, day time.Time) error {
	res, err := engine.New(s.settings, s.log).Run(entityID, day)
	if err != nil {
		return err
	}

	outPath := engine.OutputFilename(s.settings.OutputDir, res.EntityID, res.Date)
	if err := report.Save(outPath, res); err != nil {
		return err
	}
	if _, err := s.store.Merge(res.Exceptions); err != nil {
		return err
	}
	entry := runlog.Entry{
		Timestamp:      s.now().UTC(),
		EntityID:       res.EntityID,
		Date:           res.Date,
		Green:          res.Meta.GreenCount,
		Yellow:         res.Meta.YellowCount,
		Red:            res.Meta.RedCount,
		TotalVariance:  res.Meta.TotalVariance,
		ExceptionCount: res.Meta.ExceptionCount,
		OutputFile:     outPath,
	}
	if err := runlog.Append(s.settings.OutputDir, []runlog.Entry{entry}); err != nil {
		return err
	}
	s.log.Info("auto-run complete", "entity", res.EntityID, "day", res.Date.Format("2006-01-02"),
		"green", res.Meta.GreenCount, "yellow", res.Meta.YellowCount, "red", res.Meta.RedCount)
	return nil
}

// cronSpec converts "HH:MM" into a daily cron expression.
func cronSpec(hhmm string) (string, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", fmt.Errorf("invalid auto_time %q: %w", hhmm, err)
	}
	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}
