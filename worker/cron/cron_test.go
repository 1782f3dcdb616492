package cron_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgqueue/pgqueue/worker/cron"
)

func TestParse_RejectsWrongFieldCount(t *testing.T) {
	_, err := cron.Parse("* * * *", time.UTC)
	assert.Error(t, err)
}

func TestParse_RejectsNilLocation(t *testing.T) {
	_, err := cron.Parse("*/5 * * * *", nil)
	assert.Error(t, err)
}

func TestExpression_Matches_EveryFiveMinutes(t *testing.T) {
	expr, err := cron.Parse("*/5 * * * *", time.UTC)
	require.NoError(t, err)

	assert.True(t, expr.Matches(time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)))
	assert.True(t, expr.Matches(time.Date(2026, 8, 6, 12, 5, 0, 0, time.UTC)))
	assert.False(t, expr.Matches(time.Date(2026, 8, 6, 12, 3, 0, 0, time.UTC)))
}

func TestExpression_Matches_DomOrDowRestricted(t *testing.T) {
	// first of the month OR Monday, at 9:00
	expr, err := cron.Parse("0 9 1 * 1", time.UTC)
	require.NoError(t, err)

	assert.True(t, expr.Matches(time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC))) // Aug 1 is a Saturday
	assert.True(t, expr.Matches(time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC))) // Aug 3 is a Monday
	assert.False(t, expr.Matches(time.Date(2026, 8, 4, 9, 0, 0, 0, time.UTC)))
}

func TestExpression_LatestSlot_FindsMostRecentMatch(t *testing.T) {
	expr, err := cron.Parse("0 * * * *", time.UTC)
	require.NoError(t, err)

	at := time.Date(2026, 8, 6, 12, 47, 0, 0, time.UTC)
	slot, ok := expr.LatestSlot(at, time.Hour)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC), slot)
}

func TestExpression_LatestSlot_NoMatchWithinLookback(t *testing.T) {
	expr, err := cron.Parse("0 0 1 1 *", time.UTC) // once a year
	require.NoError(t, err)

	at := time.Date(2026, 8, 6, 12, 47, 0, 0, time.UTC)
	_, ok := expr.LatestSlot(at, time.Hour)
	assert.False(t, ok)
}

func TestExpression_Matches_HonorsExplicitLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	expr, err := cron.Parse("0 9 * * *", loc)
	require.NoError(t, err)

	// 13:00 UTC is 9:00 in New York during EDT.
	assert.True(t, expr.Matches(time.Date(2026, 8, 6, 13, 0, 0, 0, time.UTC)))
	assert.False(t, expr.Matches(time.Date(2026, 8, 6, 9, 0, 0, 0, time.UTC)))
}
