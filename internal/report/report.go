// Package report computes the monthly dashboard and the category breakdown.
package report

import (
	"cmp"
	"slices"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/carteira-dev/carteira/internal/billing"
	"github.com/carteira-dev/carteira/internal/model"
)

var hundred = decimal.NewFromInt(100)

// CardInvoice is one card's invoice total for the month.
type CardInvoice struct {
	Card    model.Card
	Total   decimal.Decimal
	Count   int
	Paid    bool
	DueDate civil.Date
}

// Summary is the dashboard for one period.
type Summary struct {
	Period       billing.Period
	Income       decimal.Decimal
	Expense      decimal.Decimal
	Balance      decimal.Decimal
	SpentPercent int // expense as a share of income, 0..100

	FixedIncome   []model.Entry
	FixedExpenses []model.Entry // fixed cash expenses
	Variable      []model.Entry // other cash expenses
	Cards         []CardInvoice
	// OrphanCard sums card expenses whose card no longer exists.
	OrphanCard decimal.Decimal
}

// Summarize builds the dashboard from a period's entries. Card expenses are
// grouped per registered card and matched with the period's invoices.
func Summarize(p billing.Period, entries []model.Entry, cards []model.Card, invoices []model.Invoice) Summary {
	s := Summary{
		Period:     p,
		Income:     decimal.Zero,
		Expense:    decimal.Zero,
		OrphanCard: decimal.Zero,
	}

	byCard := make(map[string]*CardInvoice)
	var order []string
	for _, e := range entries {
		if !p.Contains(e.Date) {
			continue
		}
		switch e.Kind {
		case model.KindIncome:
			s.Income = s.Income.Add(e.Amount)
			if e.Fixed {
				s.FixedIncome = append(s.FixedIncome, e)
			}
			continue
		case model.KindExpense:
			s.Expense = s.Expense.Add(e.Amount)
		default:
			continue
		}

		if e.Method == model.MethodCash {
			if e.Fixed {
				s.FixedExpenses = append(s.FixedExpenses, e)
			} else {
				s.Variable = append(s.Variable, e)
			}
			continue
		}

		inv, ok := byCard[e.CardID]
		if !ok {
			i := slices.IndexFunc(cards, func(c model.Card) bool { return c.ID == e.CardID })
			if i < 0 {
				s.OrphanCard = s.OrphanCard.Add(e.Amount)
				continue
			}
			inv = &CardInvoice{
				Card:    cards[i],
				Total:   decimal.Zero,
				DueDate: billing.DueDate(p, cards[i].DueDay),
			}
			byCard[e.CardID] = inv
			order = append(order, e.CardID)
		}
		inv.Total = inv.Total.Add(e.Amount)
		inv.Count++
	}

	for _, id := range order {
		inv := byCard[id]
		for _, paid := range invoices {
			if paid.CardID == id && paid.Period == p {
				inv.Paid = paid.Paid
			}
		}
		s.Cards = append(s.Cards, *inv)
	}
	slices.SortFunc(s.Cards, func(a, b CardInvoice) int { return cmp.Compare(a.Card.ID, b.Card.ID) })

	s.Balance = s.Income.Sub(s.Expense)
	s.SpentPercent = Percent(s.Expense, s.Income)
	return s
}

// Percent returns part/whole as a whole percentage rounded half-up and
// capped at 100. A non-positive whole yields 0.
func Percent(part, whole decimal.Decimal) int {
	if !whole.IsPositive() {
		return 0
	}
	pct := part.Mul(hundred).Div(whole).Round(0).IntPart()
	switch {
	case pct > 100:
		return 100
	case pct < 0:
		return 0
	}
	return int(pct)
}

// Slice is one category's share of the month's expenses.
type Slice struct {
	Category model.Category
	Total    decimal.Decimal
	Percent  int
}

// Breakdown totals expenses by category, largest first. Unknown categories
// are counted as "outros".
func Breakdown(entries []model.Entry) []Slice {
	totals := make(map[string]decimal.Decimal)
	sum := decimal.Zero
	for _, e := range entries {
		if e.Kind != model.KindExpense {
			continue
		}
		cat := model.LookupCategory(e.Category).ID
		totals[cat] = totals[cat].Add(e.Amount)
		sum = sum.Add(e.Amount)
	}

	out := make([]Slice, 0, len(totals))
	for id, total := range totals {
		out = append(out, Slice{
			Category: model.LookupCategory(id),
			Total:    total,
			Percent:  Percent(total, sum),
		})
	}
	slices.SortFunc(out, func(a, b Slice) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Category.ID, b.Category.ID)
	})
	return out
}
