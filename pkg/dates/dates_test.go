package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	assert.Equal(t, date(2024, time.February, 29), AddMonths(date(2024, time.January, 31), 1))
	assert.Equal(t, date(2023, time.February, 28), AddMonths(date(2023, time.January, 31), 1))
	assert.Equal(t, date(2024, time.April, 30), AddMonths(date(2024, time.March, 31), 1))
}

func TestAddMonthsPlain(t *testing.T) {
	assert.Equal(t, date(2024, time.February, 15), AddMonths(date(2024, time.January, 15), 1))
	assert.Equal(t, date(2025, time.January, 1), AddMonths(date(2024, time.January, 1), 12))
	assert.Equal(t, date(2024, time.April, 1), AddMonths(date(2024, time.January, 1), 3))
}

func TestAddMonthsNegative(t *testing.T) {
	assert.Equal(t, date(2023, time.December, 15), AddMonths(date(2024, time.January, 15), -1))
	assert.Equal(t, date(2024, time.February, 29), AddMonths(date(2024, time.March, 31), -1))
}

func TestAddMonthsRepeatedSteppingIsStable(t *testing.T) {
	// Stepping one month at a time from the 1st must always land on the 1st.
	d := date(2024, time.January, 1)
	for i := 0; i < 24; i++ {
		d = AddMonths(d, 1)
		assert.Equal(t, 1, d.Day())
	}
	assert.Equal(t, date(2026, time.January, 1), d)
}

func TestDayGranularityComparisons(t *testing.T) {
	morning := time.Date(2024, time.March, 5, 8, 30, 0, 0, time.UTC)
	evening := time.Date(2024, time.March, 5, 22, 0, 0, 0, time.FixedZone("X", 3600))

	assert.True(t, SameDay(morning, evening))
	assert.False(t, Before(morning, evening))
	assert.True(t, SameOrBefore(morning, evening))
	assert.True(t, SameOrAfter(morning, evening))
	assert.True(t, Before(morning, date(2024, time.March, 6)))
	assert.True(t, After(date(2024, time.March, 6), evening))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 31, DaysBetween(date(2024, time.January, 1), date(2024, time.February, 1)))
	assert.Equal(t, 0, DaysBetween(date(2024, time.January, 1), date(2024, time.January, 1)))
	assert.Equal(t, -1, DaysBetween(date(2024, time.January, 2), date(2024, time.January, 1)))
	// Time-of-day must not bleed into day counts.
	assert.Equal(t, 1, DaysBetween(
		time.Date(2024, time.January, 1, 23, 59, 0, 0, time.UTC),
		time.Date(2024, time.January, 2, 0, 1, 0, 0, time.UTC),
	))
}

func TestParseAndKey(t *testing.T) {
	d, err := Parse("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.February, 29), d)
	assert.Equal(t, "2024-02-29", Key(d))

	_, err = Parse("02/29/2024")
	require.Error(t, err)
}
