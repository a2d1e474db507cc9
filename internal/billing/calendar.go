// Package billing maps card purchases onto invoice periods and splits
// purchases into monthly installment schedules.
//
// All functions here are pure calendar arithmetic on civil.Date values and
// are safe for concurrent use. The only source of randomness is the group
// identifier minted by GenerateInstallments.
package billing

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths moves d by n calendar months, keeping the day of month when the
// target month has it and clamping to the target month's last day otherwise.
// Jan 31 + 1 month is Feb 28 (or 29), never Mar 2 or 3.
func AddMonths(d civil.Date, n int) civil.Date {
	months := d.Year*12 + int(d.Month) - 1 + n
	year := floorDiv(months, 12)
	month := time.Month(months-year*12) + 1

	day := d.Day
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return civil.Date{Year: year, Month: month, Day: day}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Period identifies a billing cycle (invoice) by year and month.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period a date falls in.
func PeriodOf(d civil.Date) Period {
	return Period{Year: d.Year, Month: d.Month}
}

// Start returns the first day of the period.
func (p Period) Start() civil.Date {
	return civil.Date{Year: p.Year, Month: p.Month, Day: 1}
}

// End returns the first day of the following period (exclusive bound).
func (p Period) End() civil.Date {
	return p.Next().Start()
}

// Next returns the following period.
func (p Period) Next() Period {
	return PeriodOf(AddMonths(p.Start(), 1))
}

// Prev returns the preceding period.
func (p Period) Prev() Period {
	return PeriodOf(AddMonths(p.Start(), -1))
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d civil.Date) bool {
	return d.Year == p.Year && d.Month == p.Month
}

// Before reports whether p is earlier than q.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

// Compare returns -1, 0 or +1 as p is before, equal to or after q.
func (p Period) Compare(q Period) int {
	switch {
	case p.Before(q):
		return -1
	case q.Before(p):
		return 1
	}
	return 0
}

// String formats the period as "YYYY-MM".
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// ParsePeriod parses a "YYYY-MM" string.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("parsing period %q: %w", s, err)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// PeriodsBetween lists every period touched by the half-open date range
// [from, to). It returns nil when the range is empty.
func PeriodsBetween(from, to civil.Date) []Period {
	if !from.Before(to) {
		return nil
	}
	last := PeriodOf(to.AddDays(-1))
	var out []Period
	for p := PeriodOf(from); !last.Before(p); p = p.Next() {
		out = append(out, p)
	}
	return out
}
