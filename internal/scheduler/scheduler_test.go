package scheduler

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recondesk-dev/recondesk/internal/config"
	"github.com/recondesk-dev/recondesk/internal/engine"
	"github.com/recondesk-dev/recondesk/internal/runlog"
)

func testScheduler(t *testing.T) *Scheduler {
	t.Helper()
	root := t.TempDir()

	// One ledger file for Monday 2025-03-03 under a flat layout.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "inputs", "HG NAV Reports"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "inputs", "HG NAV Reports", "ledger_3-3-2025.csv"),
		[]byte("Transaction Date,Amount,Transaction Type,Merchant,Transaction ID\n"+
			"2025-03-03,1000.00,Customer Payment,Stripe,L-1\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "inputs", "Stripe"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "inputs", "Stripe", "stripe_2025-03-03.csv"),
		[]byte("balance_transaction_id,created_utc,reporting_category,gross\n"+
			"txn_1,2025-03-03,charge,999.00\n"), 0o644))

	settings := config.Settings{
		InputRoot:       filepath.Join(root, "inputs"),
		OutputDir:       filepath.Join(root, "output"),
		AutoEnabled:     true,
		AutoTime:        "02:30",
		TimeZone:        "UTC",
		LookbackBizDays: 2,
		Entities: []config.Entity{{
			ID:               "helpgrid",
			Name:             "Helpgrid",
			LedgerFolder:     "HG NAV Reports",
			ProcessorFolders: []string{"Stripe"},
		}},
	}
	s, err := New(settings, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	// A Monday, so the two-day lookback covers Friday 02-28 and Monday 03-03.
	s.now = func() time.Time { return time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestSweep_WritesReportsForLookbackWindow(t *testing.T) {
	s := testScheduler(t)
	s.Sweep()

	out := s.settings.OutputDir
	friday := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	monday := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	assert.True(t, engine.AlreadyRan(out, "helpgrid", friday))
	assert.True(t, engine.AlreadyRan(out, "helpgrid", monday))

	entries, err := runlog.Read(out)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, friday, entries[0].Date)
	assert.Equal(t, monday, entries[1].Date)
}

func TestSweep_SkipsAlreadyRanDays(t *testing.T) {
	s := testScheduler(t)
	s.Sweep()
	s.Sweep()

	entries, err := runlog.Read(s.settings.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCronSpec(t *testing.T) {
	spec, err := cronSpec("02:30")
	require.NoError(t, err)
	assert.Equal(t, "30 2 * * *", spec)

	_, err = cronSpec("half past two")
	assert.Error(t, err)
}

func TestNew_BadTimeZone(t *testing.T) {
	_, err := New(config.Settings{TimeZone: "Mars/Olympus"}, nil)
	assert.Error(t, err)
}
