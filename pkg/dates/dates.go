// Package dates provides day-granularity calendar arithmetic for billing
// schedules. Time-of-day and time zone information is discarded up front:
// every helper operates on dates normalized to midnight UTC.
package dates

import "time"

// Layout is the canonical wire format for dates handled by this package.
const Layout = "2006-01-02"

// Day normalizes t to midnight UTC, dropping time-of-day and zone.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Key renders t as a YYYY-MM-DD string suitable for set membership keys.
func Key(t time.Time) string {
	return Day(t).Format(Layout)
}

// Parse reads a YYYY-MM-DD string into a normalized date.
func Parse(raw string) (time.Time, error) {
	t, err := time.Parse(Layout, raw)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// AddMonths advances t by n calendar months, clamping the day-of-month to
// the last valid day of the target month. Jan 31 + 1 month is Feb 28 (or 29),
// never an overflow into March. Schedule walks depend on this convention
// being stable, so time.Time.AddDate (which overflows) is not used here.
func AddMonths(t time.Time, n int) time.Time {
	t = Day(t)
	y, m, d := t.Date()

	months := int(m) - 1 + n
	targetYear := y + months/12
	targetMonth := time.Month(months%12 + 1)
	if months < 0 && months%12 != 0 {
		targetYear--
		targetMonth = time.Month(months%12 + 13)
	}

	if last := daysIn(targetYear, targetMonth); d > last {
		d = last
	}
	return time.Date(targetYear, targetMonth, d, 0, 0, 0, 0, time.UTC)
}

// AddDays advances t by n days.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// Before reports whether a falls on an earlier day than b.
func Before(a, b time.Time) bool {
	return Day(a).Before(Day(b))
}

// After reports whether a falls on a later day than b.
func After(a, b time.Time) bool {
	return Day(a).After(Day(b))
}

// SameDay reports whether a and b fall on the same day.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// SameOrBefore reports whether a falls on b's day or earlier.
func SameOrBefore(a, b time.Time) bool {
	return !After(a, b)
}

// SameOrAfter reports whether a falls on b's day or later.
func SameOrAfter(a, b time.Time) bool {
	return !Before(a, b)
}

// DaysBetween returns the number of whole days from a to b. Negative when b
// precedes a.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
