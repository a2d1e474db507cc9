package billing

import (
	"fmt"

	"cloud.google.com/go/civil"
)

const (
	// MinClosingDay and MaxClosingDay bound a card's closing day.
	MinClosingDay = 1
	MaxClosingDay = 31

	// FallbackClosingDay is used when a card reference does not resolve.
	// Combined with the on-or-after rule it never shifts a purchase past
	// day 30, and only day-31 purchases roll over.
	FallbackClosingDay = MaxClosingDay
)

// ValidDay reports whether day is a usable closing or due day.
func ValidDay(day int) bool {
	return day >= MinClosingDay && day <= MaxClosingDay
}

// ResolveInvoiceDate returns the effective invoice date of a card purchase.
//
// A purchase made on or after the closing day belongs to the next month's
// invoice and is moved forward by one calendar month (clamped to the last
// day of that month). Earlier purchases stay on the current invoice and keep
// their date.
//
// closingDay must be in [1,31]; anything else is a programming error and
// panics.
func ResolveInvoiceDate(purchase civil.Date, closingDay int) civil.Date {
	if !ValidDay(closingDay) {
		panic(fmt.Sprintf("billing: closing day %d outside [%d,%d]", closingDay, MinClosingDay, MaxClosingDay))
	}
	if purchase.Day >= closingDay {
		return AddMonths(purchase, 1)
	}
	return purchase
}

// ClosingDayLookup finds the closing day for a card reference.
type ClosingDayLookup interface {
	ClosingDay(cardID string) (int, bool)
}

// ClosingDayFor returns the closing day for cardID, or FallbackClosingDay
// when the card is unknown. The boolean reports whether the card was found.
func ClosingDayFor(lookup ClosingDayLookup, cardID string) (int, bool) {
	if lookup != nil {
		if day, ok := lookup.ClosingDay(cardID); ok && ValidDay(day) {
			return day, true
		}
	}
	return FallbackClosingDay, false
}

// DueDate returns the payment due date for an invoice period, clamping
// dueDay to the month's length. The due day is informational only.
func DueDate(p Period, dueDay int) civil.Date {
	day := dueDay
	if last := DaysIn(p.Year, p.Month); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return civil.Date{Year: p.Year, Month: p.Month, Day: day}
}
