package report

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/recondesk-dev/recondesk/internal/config"
	"github.com/recondesk-dev/recondesk/internal/engine"
)

// runResult reconciles a small seeded workspace: a ledger export against a
// mismatched Stripe extract, so the result carries a RED row and an
// exception.
func runResult(t *testing.T) *engine.Result {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "HG NAV Reports"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "HG NAV Reports", "ledger_3-1-2025.csv"), []byte(
		"Transaction Date,Amount,Transaction Type,Merchant,Transaction ID\n"+
			"2025-03-01,1000.00,Customer Payment,Stripe,L-1\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Stripe"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Stripe", "stripe_2025-03-01.csv"), []byte(
		"balance_transaction_id,created_utc,reporting_category,gross\n"+
			"txn_1,2025-03-01,charge,850.00\n"), 0o644))

	settings := config.Settings{
		InputRoot: root,
		Entities: []config.Entity{{
			ID:               "helpgrid",
			Name:             "Helpgrid",
			LedgerFolder:     "HG NAV Reports",
			ProcessorFolders: []string{"Stripe"},
		}},
	}
	e := engine.New(settings, slog.New(slog.NewTextHandler(io.Discard, nil)))
	res, err := e.Run("helpgrid", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return res
}

func TestSave_RoundTrip(t *testing.T) {
	res := runResult(t)
	path := filepath.Join(t.TempDir(), "merchant_recon_helpgrid_2025-03-01.xlsx")
	require.NoError(t, Save(path, res))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Summary", "Exceptions", "Bridge", "Details"}, f.GetSheetList())

	// TOTAL row first on the summary sheet.
	proc, err := f.GetCellValue("Summary", "A2")
	require.NoError(t, err)
	assert.Equal(t, engine.TotalProcessor, proc)
	status, err := f.GetCellValue("Summary", "F2")
	require.NoError(t, err)
	assert.Equal(t, "red", status)

	reason, err := f.GetCellValue("Exceptions", "D2")
	require.NoError(t, err)
	assert.Equal(t, "unexplained", reason)

	bucket, err := f.GetCellValue("Bridge", "B2")
	require.NoError(t, err)
	assert.Equal(t, "unexplained", bucket)
}

func TestBytes(t *testing.T) {
	data, err := Bytes(runResult(t))
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	// XLSX files are zip archives.
	assert.Equal(t, byte('P'), data[0])
	assert.Equal(t, byte('K'), data[1])
}
