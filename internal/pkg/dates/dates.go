// Package dates holds the calendar arithmetic shared by the phase scheduler and the pause ledger.
// All values are civil dates: UTC midnight, no time-of-day component.
package dates

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// Normalize truncates t to a civil date at UTC midnight.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a civil date.
func Date(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

// AddMonths adds calendar months, clamping to the last day of the target month
// (Jan 31 + 1 month = Feb 29 in a leap year, never Mar 2).
func AddMonths(t time.Time, months int) time.Time {
	t = Normalize(t)
	y, m, d := t.Date()

	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	last := daysIn(first.Year(), first.Month())
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts a civil date by n days.
func AddDays(t time.Time, n int) time.Time {
	return Normalize(t).AddDate(0, 0, n)
}

// EndOfPeriod returns the last day of a period of the given months starting at start.
func EndOfPeriod(start time.Time, months int) time.Time {
	return AddDays(AddMonths(start, months), -1)
}

// CeilDays returns the absolute distance between two instants in whole days, rounded up.
func CeilDays(from, to time.Time) int {
	diff := to.Sub(from)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(float64(diff) / float64(day)))
}

// DaysUntil is the signed number of civil days from today to target.
func DaysUntil(today, target time.Time) int {
	return int(Normalize(target).Sub(Normalize(today)) / day)
}

// Ptr returns a pointer to a normalized copy of t.
func Ptr(t time.Time) *time.Time {
	n := Normalize(t)
	return &n
}

// Equal compares two optional dates.
func Equal(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
