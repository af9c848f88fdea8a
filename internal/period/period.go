// Package period maps a last-applied instant and a period length onto the
// instants that have come due since.
package period

import "time"

// DefaultCatchUpLimit bounds how many due instants a single call returns so a
// long-dormant definition cannot flood one pass. The rest is picked up on the
// next run.
const DefaultCatchUpLimit = 100

func Days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// DueInstants returns last+k*every for k = 1, 2, ... while the instant is not
// after now, oldest first and at most limit of them.
func DueInstants(last time.Time, every time.Duration, now time.Time, limit int) []time.Time {
	if every <= 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultCatchUpLimit
	}

	var due []time.Time
	for next := last.Add(every); !next.After(now) && len(due) < limit; next = next.Add(every) {
		due = append(due, next)
	}
	return due
}

// MonthsBetween is the calendar month difference between from and to.
// Day-of-month is ignored: the 31st to the 1st of the next month counts as one.
func MonthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// DaysBetween counts whole calendar days between the date parts of from and
// to, in from's location.
func DaysBetween(from, to time.Time) int {
	to = to.In(from.Location())
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a) / (24 * time.Hour))
}

// AddMonths shifts t by n calendar months.
func AddMonths(t time.Time, n int) time.Time {
	return t.AddDate(0, n, 0)
}
