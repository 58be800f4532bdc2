package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatExceptionID(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	got := FormatExceptionID("helpgrid", "stripe", day, "unexplained")
	assert.Equal(t, "helpgrid:stripe:2025-03-01:unexplained", got)
}

func TestParseExceptionID(t *testing.T) {
	entity, proc, day, reason, err := ParseExceptionID("helpgrid:nmi_cliq:2025-03-01:data_missing")
	require.NoError(t, err)
	assert.Equal(t, "helpgrid", entity)
	assert.Equal(t, "nmi_cliq", proc)
	assert.Equal(t, 2025, day.Year())
	assert.Equal(t, time.March, day.Month())
	assert.Equal(t, 1, day.Day())
	assert.Equal(t, "data_missing", reason)
}

func TestParseExceptionID_Invalid(t *testing.T) {
	_, _, _, _, err := ParseExceptionID("not-an-id")
	assert.Error(t, err)

	_, _, _, _, err = ParseExceptionID("a:b:garbage:c")
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	day := time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC)
	id := FormatExceptionID("yomali", "braintree", day, "processor_only")

	entity, proc, gotDay, reason, err := ParseExceptionID(id)
	require.NoError(t, err)
	assert.Equal(t, "yomali", entity)
	assert.Equal(t, "braintree", proc)
	assert.True(t, gotDay.Equal(day))
	assert.Equal(t, "processor_only", reason)
}
