package report

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carteira-dev/carteira/internal/billing"
	"github.com/carteira-dev/carteira/internal/cards"
	"github.com/carteira-dev/carteira/internal/ledger"
	"github.com/carteira-dev/carteira/internal/model"
)

var mar = billing.Period{Year: 2026, Month: time.March}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func entry(kind model.Kind, amount string, day int) model.Entry {
	return model.Entry{
		Kind:        kind,
		Description: "x",
		Amount:      dec(amount),
		Date:        civil.Date{Year: 2026, Month: time.March, Day: day},
		Category:    "mercado",
		Method:      model.MethodCash,
	}
}

func onCard(e model.Entry, card string) model.Entry {
	e.Method = model.MethodCard
	e.CardID = card
	return e
}

func fixed(e model.Entry) model.Entry {
	e.Fixed = true
	return e
}

func sampleCards() []model.Card {
	return []model.Card{
		{ID: "nubank", Name: "Nubank", ClosingDay: 10, DueDay: 17},
		{ID: "inter", Name: "Inter", ClosingDay: 2, DueDay: 31},
	}
}

func TestSummarize(t *testing.T) {
	entries := []model.Entry{
		fixed(entry(model.KindIncome, "5000.00", 5)),
		entry(model.KindIncome, "250.00", 12),
		fixed(entry(model.KindExpense, "1500.00", 10)),
		entry(model.KindExpense, "80.00", 11),
		onCard(entry(model.KindExpense, "300.00", 12), "nubank"),
		onCard(entry(model.KindExpense, "200.00", 20), "nubank"),
		onCard(entry(model.KindExpense, "99.90", 3), "inter"),
		onCard(entry(model.KindExpense, "10.00", 4), "removed"),
	}
	invoices := []model.Invoice{
		{CardID: "nubank", Period: mar, Paid: true},
		{CardID: "inter", Period: mar.Prev(), Paid: true},
	}

	s := Summarize(mar, entries, sampleCards(), invoices)

	assert.True(t, dec("5250.00").Equal(s.Income))
	assert.True(t, dec("2189.90").Equal(s.Expense))
	assert.True(t, dec("3060.10").Equal(s.Balance))
	assert.Equal(t, 42, s.SpentPercent)

	assert.Len(t, s.FixedIncome, 1)
	assert.Len(t, s.FixedExpenses, 1)
	assert.Len(t, s.Variable, 1)
	assert.True(t, dec("10.00").Equal(s.OrphanCard))

	require.Len(t, s.Cards, 2)
	assert.Equal(t, "inter", s.Cards[0].Card.ID)
	assert.False(t, s.Cards[0].Paid, "a paid invoice from another month does not count")
	assert.Equal(t, civil.Date{Year: 2026, Month: time.March, Day: 31}, s.Cards[0].DueDate)

	assert.Equal(t, "nubank", s.Cards[1].Card.ID)
	assert.True(t, dec("500.00").Equal(s.Cards[1].Total))
	assert.Equal(t, 2, s.Cards[1].Count)
	assert.True(t, s.Cards[1].Paid)
}

func TestSummarize_NoIncome(t *testing.T) {
	s := Summarize(mar, []model.Entry{entry(model.KindExpense, "10.00", 1)}, nil, nil)
	assert.Equal(t, 0, s.SpentPercent)
	assert.True(t, dec("-10.00").Equal(s.Balance))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(dec("10"), decimal.Zero))
	assert.Equal(t, 50, Percent(dec("5"), dec("10")))
	assert.Equal(t, 33, Percent(dec("1"), dec("3")))
	assert.Equal(t, 67, Percent(dec("2"), dec("3")))
	assert.Equal(t, 100, Percent(dec("30"), dec("10")))
}

func TestBreakdown(t *testing.T) {
	lazer := entry(model.KindExpense, "50.00", 2)
	lazer.Category = "lazer"
	unknown := entry(model.KindExpense, "5.00", 3)
	unknown.Category = "pets"
	outros := entry(model.KindExpense, "15.00", 3)
	outros.Category = "outros"

	got := Breakdown([]model.Entry{
		entry(model.KindExpense, "100.00", 1),
		entry(model.KindExpense, "30.00", 1),
		lazer,
		unknown,
		outros,
		entry(model.KindIncome, "9999.00", 1),
	})

	require.Len(t, got, 3)
	assert.Equal(t, "mercado", got[0].Category.ID)
	assert.True(t, dec("130.00").Equal(got[0].Total))
	assert.Equal(t, 65, got[0].Percent)
	assert.Equal(t, "lazer", got[1].Category.ID)
	assert.Equal(t, "outros", got[2].Category.ID)
	assert.True(t, dec("20.00").Equal(got[2].Total))
	assert.Equal(t, "Outros", got[2].Category.Label)

	assert.Empty(t, Breakdown(nil))
}

func TestLoader(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	l := ledger.New(dir)
	cs := cards.NewFileStore(dir)
	for _, c := range sampleCards() {
		require.NoError(t, cs.SaveCard(ctx, c))
	}
	_, err := l.InsertEntries(ctx, []model.Entry{
		entry(model.KindIncome, "1000.00", 1),
		onCard(entry(model.KindExpense, "250.00", 2), "nubank"),
	})
	require.NoError(t, err)
	require.NoError(t, l.SaveInvoice(ctx, model.Invoice{CardID: "nubank", Period: mar, Paid: true}))

	loader := Loader{Entries: l, Cards: cs, Invoices: l}
	s, entries, err := loader.Month(ctx, mar)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 25, s.SpentPercent)
	require.Len(t, s.Cards, 1)
	assert.True(t, s.Cards[0].Paid)

	trend, err := loader.Trend(ctx, mar.Next(), 3)
	require.NoError(t, err)
	require.Len(t, trend, 3)
	assert.Equal(t, mar.Prev(), trend[0].Period)
	assert.True(t, trend[0].Income.IsZero())
	assert.True(t, dec("1000.00").Equal(trend[1].Income))
	assert.Equal(t, mar.Next(), trend[2].Period)
}
