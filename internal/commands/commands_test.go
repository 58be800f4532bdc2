package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recondesk-dev/recondesk/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInit_ScaffoldsWorkspace(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized recondesk workspace")

	_, err = os.Stat(filepath.Join(dir, "recondesk.yaml"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "inputs", "HG NAV Reports"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "inputs", "Stripe"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "output"))
	require.NoError(t, err)
}

func TestInit_RefusesExistingConfig(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "init", dir)
	require.NoError(t, err)

	_, err = execute(t, "init", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func seedWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	inputRoot := filepath.Join(dir, "inputs")
	require.NoError(t, os.MkdirAll(filepath.Join(inputRoot, "HG NAV Reports"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(inputRoot, "HG NAV Reports", "ledger_3-3-2025.csv"),
		[]byte("Transaction Date,Amount,Transaction Type,Merchant,Transaction ID\n"+
			"2025-03-03,1000.00,Customer Payment,Stripe,L-1\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(inputRoot, "Stripe"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(inputRoot, "Stripe", "stripe_2025-03-03.csv"),
		[]byte("balance_transaction_id,created_utc,reporting_category,gross\n"+
			"txn_1,2025-03-03,charge,999.00\n"), 0o644))

	cfg := &config.Settings{
		InputRoot: inputRoot,
		OutputDir: filepath.Join(dir, "output"),
		Entities: []config.Entity{{
			ID:               "helpgrid",
			Name:             "Helpgrid",
			LedgerFolder:     "HG NAV Reports",
			ProcessorFolders: []string{"Stripe"},
		}},
	}
	require.NoError(t, config.Save(filepath.Join(dir, "recondesk.yaml"), cfg))
	return dir
}

func TestRun_WritesReport(t *testing.T) {
	dir := seedWorkspace(t)

	out, err := execute(t, "run",
		"--config", filepath.Join(dir, "recondesk.yaml"),
		"--entity", "helpgrid", "--date", "2025-03-03")
	require.NoError(t, err)

	assert.Contains(t, out, "1 green")
	assert.Contains(t, out, "TOTAL")
	_, err = os.Stat(filepath.Join(dir, "output", "merchant_recon_helpgrid_2025-03-03.xlsx"))
	require.NoError(t, err)
}

func TestRun_SkipsAlreadyRan(t *testing.T) {
	dir := seedWorkspace(t)
	args := []string{"run",
		"--config", filepath.Join(dir, "recondesk.yaml"),
		"--entity", "helpgrid", "--date", "2025-03-03"}

	_, err := execute(t, args...)
	require.NoError(t, err)
	out, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "already ran")
}

func TestRun_UnknownEntity(t *testing.T) {
	dir := seedWorkspace(t)
	_, err := execute(t, "run",
		"--config", filepath.Join(dir, "recondesk.yaml"),
		"--entity", "nope", "--date", "2025-03-03")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown entity")
}

func TestStatus_ReportsRuns(t *testing.T) {
	dir := seedWorkspace(t)
	_, err := execute(t, "run",
		"--config", filepath.Join(dir, "recondesk.yaml"),
		"--entity", "helpgrid", "--date", "2025-03-03")
	require.NoError(t, err)

	out, err := execute(t, "status", "--config", filepath.Join(dir, "recondesk.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "helpgrid (Helpgrid): 1 report(s), last 2025-03-03")
	assert.Contains(t, out, "Recent runs:")
}

func TestExceptionsListAndResolve(t *testing.T) {
	dir := seedWorkspace(t)
	cfgPath := filepath.Join(dir, "recondesk.yaml")

	// A day with no extracts yields a data_missing exception.
	_, err := execute(t, "run", "--config", cfgPath, "--entity", "helpgrid", "--date", "2025-03-04")
	require.NoError(t, err)

	out, err := execute(t, "exceptions", "list", "--config", cfgPath)
	require.NoError(t, err)
	require.Contains(t, out, "helpgrid:stripe:2025-03-04:data_missing")

	id := "helpgrid:stripe:2025-03-04:data_missing"
	_, err = execute(t, "exceptions", "resolve", id,
		"--config", cfgPath, "--status", "approved_variance", "--by", "pat")
	require.NoError(t, err)

	out, err = execute(t, "exceptions", "list", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No open exceptions.")
}
