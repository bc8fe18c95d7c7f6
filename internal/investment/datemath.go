package investment

import "time"

// Contribution cadence and the early-withdrawal lock both count calendar
// months, clamped to month ends: one month after Jan 31 is Feb 28 (or 29),
// not Mar 2 as time.AddDate would produce.

// addMonths returns t shifted by the given number of calendar months, with
// the day of month clamped to the target month's length.
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())

	if last := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > last {
		day = last
	}

	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

// wholeMonthsBetween counts full calendar months elapsed from one instant
// to a later one. Returns 0 when to precedes from.
func wholeMonthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}

	months := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
	if months > 0 && to.Before(addMonths(from, months)) {
		months--
	}

	return months
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
