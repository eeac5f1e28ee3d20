package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayKeyUsesFixedOffset(t *testing.T) {
	// 19:30 UTC is already past midnight in IST.
	instant := time.Date(2025, 3, 9, 19, 30, 0, 0, time.UTC)

	ist := NewDayClock(330)
	utc := NewDayClock(0)

	assert.Equal(t, "2025-03-10", ist.DayKey(instant))
	assert.Equal(t, "2025-03-09", utc.DayKey(instant))
}

func TestDayKeyIgnoresCallerZone(t *testing.T) {
	clock := NewDayClock(330)
	instant := time.Date(2025, 3, 9, 19, 30, 0, 0, time.UTC)
	elsewhere := instant.In(time.FixedZone("UTC-8", -8*3600))

	assert.Equal(t, clock.DayKey(instant), clock.DayKey(elsewhere))
}

func TestStartOfDayIdempotent(t *testing.T) {
	clock := NewDayClock(330)
	instant := time.Date(2025, 6, 1, 13, 45, 12, 0, time.UTC)

	start := clock.StartOfDay(instant)
	assert.Equal(t, start, clock.StartOfDay(start))
	assert.Equal(t, time.UTC, start.Location())
}

func TestDayStartRoundTrip(t *testing.T) {
	clock := NewDayClock(330)

	start, err := clock.DayStart("2025-06-01")
	require.NoError(t, err)
	// Midnight IST on June 1st is 18:30 UTC on May 31st.
	assert.Equal(t, time.Date(2025, 5, 31, 18, 30, 0, 0, time.UTC), start)
	assert.Equal(t, "2025-06-01", clock.DayKey(start))

	_, err = clock.DayStart("not-a-day")
	assert.Error(t, err)
}

func TestSameDayAroundMidnight(t *testing.T) {
	clock := NewDayClock(330)
	// IST midnight falls at 18:30 UTC.
	before := time.Date(2025, 6, 1, 18, 29, 59, 0, time.UTC)
	after := time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)

	assert.False(t, clock.SameDay(before, after))
	assert.True(t, clock.SameDay(before, before.Add(-time.Hour)))
}

func TestAddDaysAcrossBoundaries(t *testing.T) {
	clock := NewDayClock(330)

	assert.Equal(t, "2025-06-01", clock.AddDays("2025-05-31", 1))
	assert.Equal(t, "2025-05-31", clock.AddDays("2025-06-01", -1))
	assert.Equal(t, "2025-02-28", clock.AddDays("2025-03-01", -1))
	assert.Equal(t, "2024-02-29", clock.AddDays("2024-03-01", -1))
}

func TestClockLabel(t *testing.T) {
	clock := NewDayClock(330)
	start, err := clock.DayStart("2025-06-01")
	require.NoError(t, err)

	assert.Equal(t, "09:00 AM", clock.ClockLabel(start, 540))
	assert.Equal(t, "06:00 PM", clock.ClockLabel(start, 1080))
}
