package adapter

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recondesk-dev/recondesk/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLedgerAdapter_Parse(t *testing.T) {
	a := NewLedgerAdapter(testLogger())
	events, err := a.Parse("../../testdata/ledger_activity_report_2025-03-01_2025-03-01.csv", day(2025, 3, 1))
	require.NoError(t, err)
	require.Len(t, events, 5)

	// Customer payment with quoted thousands separator.
	first := events[0]
	assert.Equal(t, model.SourceLedger, first.Source)
	assert.Equal(t, model.EventCharge, first.Type)
	assert.Equal(t, "1000.00", first.Gross.StringFixed(2))
	assert.Equal(t, "1000.00", first.Net.StringFixed(2))
	assert.True(t, first.Fee.IsZero())
	assert.Equal(t, "Stripe", first.Merchant)
	assert.Equal(t, "L-1001", first.EventID)

	// Accounting-style parenthesized negative.
	assert.Equal(t, model.EventRefund, events[1].Type)
	assert.Equal(t, "-125.00", events[1].Gross.StringFixed(2))

	// Refund failure must not collapse into refund.
	assert.Equal(t, model.EventRefundFailure, events[2].Type)
	assert.Equal(t, "125.00", events[2].Gross.StringFixed(2))

	assert.Equal(t, model.EventAdjustment, events[3].Type)
	assert.Equal(t, model.EventDispute, events[4].Type)
}

func TestLedgerAdapter_NoTargetKeepsAllDatedRows(t *testing.T) {
	a := NewLedgerAdapter(testLogger())
	events, err := a.Parse("../../testdata/ledger_activity_report_2025-03-01_2025-03-01.csv", time.Time{})
	require.NoError(t, err)

	// Six dated rows; the undated one is dropped, not defaulted.
	assert.Len(t, events, 6)
	assert.Equal(t, day(2025, 3, 2), events[5].EffectiveDate)
}

func TestLedgerAdapter_CanHandle(t *testing.T) {
	a := NewLedgerAdapter(testLogger())
	assert.True(t, a.CanHandle("HG NAV Reports/Vendors 3-1-2025.xlsx"))
	assert.True(t, a.CanHandle("spi_activity_2025-03-01.csv"))
	assert.True(t, a.CanHandle("Activity Report 03.01.2025.csv"))
	assert.False(t, a.CanHandle("stripe_2025-03-01.csv"))
}

func TestStripeAdapter_Parse(t *testing.T) {
	a := NewStripeAdapter(testLogger())
	events, err := a.Parse("../../testdata/stripe_2025-03-01.csv", day(2025, 3, 1))
	require.NoError(t, err)
	require.Len(t, events, 4)

	charge := events[0]
	assert.Equal(t, model.SourceStripe, charge.Source)
	assert.Equal(t, model.EventCharge, charge.Type)
	assert.Equal(t, "1000.00", charge.Gross.StringFixed(2))
	assert.Equal(t, "29.30", charge.Fee.StringFixed(2))
	assert.Equal(t, "970.70", charge.Net.StringFixed(2))
	assert.Equal(t, "po_900", charge.BatchOrPayoutID)
	assert.Equal(t, "available", charge.Status)
	assert.Equal(t, "txn_001", charge.EventID)

	assert.Equal(t, model.EventRefund, events[1].Type)
	assert.Equal(t, model.EventFee, events[2].Type)
	assert.Equal(t, model.EventPayout, events[3].Type)
	assert.Equal(t, "-843.70", events[3].Net.StringFixed(2))
}

func TestBraintreeAdapter_DropsUnsettledRows(t *testing.T) {
	a := NewBraintreeAdapter(testLogger())
	events, err := a.Parse("../../testdata/braintree_2025-03-01.csv", day(2025, 3, 1))
	require.NoError(t, err)

	// authorized and voided rows never moved money.
	require.Len(t, events, 3)
	assert.Equal(t, "bt_001", events[0].EventID)
	assert.Equal(t, "bt_002", events[1].EventID)
	assert.Equal(t, "bt_005", events[2].EventID)
	assert.Equal(t, "submitted_for_settlement", events[2].Status)
}

func TestBraintreeAdapter_ForcesRefundsNegative(t *testing.T) {
	a := NewBraintreeAdapter(testLogger())
	events, err := a.Parse("../../testdata/braintree_2025-03-01.csv", day(2025, 3, 1))
	require.NoError(t, err)

	credit := events[1]
	assert.Equal(t, model.EventRefund, credit.Type)
	assert.Equal(t, "-60.00", credit.Gross.StringFixed(2))
	assert.Equal(t, "-60.00", credit.Net.StringFixed(2))
}

func TestNMIAdapter_Parse(t *testing.T) {
	a := NewNMIAdapter("chesapeake", testLogger())
	events, err := a.Parse("../../testdata/nmi_chesapeake_03-01-2025.csv", day(2025, 3, 1))
	require.NoError(t, err)

	// auth-only and failed rows are dropped.
	require.Len(t, events, 3)
	assert.Equal(t, model.SourceNMIChesapeake, events[0].Source)
	assert.Equal(t, "NMI Chesapeake", events[0].Merchant)
	assert.Equal(t, model.EventCharge, events[0].Type)
	assert.Equal(t, "320.00", events[0].Gross.StringFixed(2))

	refund := events[1]
	assert.Equal(t, model.EventRefund, refund.Type)
	assert.Equal(t, "-45.00", refund.Gross.StringFixed(2))

	assert.Equal(t, "nmi_005", events[2].EventID)
	assert.Equal(t, "campaign_b", events[2].Description)
}

func TestNMIAdapter_CanHandlePerVariant(t *testing.T) {
	ches := NewNMIAdapter("chesapeake", testLogger())
	cliq := NewNMIAdapter("cliq", testLogger())

	assert.True(t, ches.CanHandle("NMI Chesapeake Reports/nmi_chesapeake_03-01-2025.csv"))
	assert.False(t, ches.CanHandle("nmi_cliq_03-01-2025.csv"))
	assert.True(t, cliq.CanHandle("nmi_cliq_03-01-2025.csv"))
	assert.False(t, cliq.CanHandle("chesapeake_03-01-2025.csv")) // needs the nmi keyword too
}

func TestRegistry_ForFile(t *testing.T) {
	r := Default(testLogger())

	assert.Equal(t, model.SourceLedger, r.ForFile("Vendors 3-1-2025.xlsx").Source())
	assert.Equal(t, model.SourceStripe, r.ForFile("stripe_2025-03-01.csv").Source())
	assert.Equal(t, model.SourceBraintree, r.ForFile("braintree_txns.csv").Source())
	assert.Equal(t, model.SourceNMIEsquire, r.ForFile("nmi_esquire_20250301.csv").Source())
	assert.Nil(t, r.ForFile("random_notes.csv"))
}

func TestRegistry_ParseFile_Degrades(t *testing.T) {
	r := Default(testLogger())

	// Unrecognized files and missing files yield no events, not an error.
	assert.Empty(t, r.ParseFile("random_notes.csv", day(2025, 3, 1)))
	assert.Empty(t, r.ParseFile("stripe_missing.csv", day(2025, 3, 1)))
}

func TestRegistry_ParseFiles_Concatenates(t *testing.T) {
	r := Default(testLogger())
	events := r.ParseFiles([]string{
		"../../testdata/ledger_activity_report_2025-03-01_2025-03-01.csv",
		"../../testdata/stripe_2025-03-01.csv",
	}, day(2025, 3, 1))

	assert.Len(t, events, 9)
	assert.Equal(t, model.SourceLedger, events[0].Source)
	assert.Equal(t, model.SourceStripe, events[5].Source)
}

func TestAdapter_EmptyFileYieldsNoEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stripe_empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("created_utc,gross\n"), 0o644))

	a := NewStripeAdapter(testLogger())
	events, err := a.Parse(path, day(2025, 3, 1))
	require.NoError(t, err)
	assert.Empty(t, events)
}
