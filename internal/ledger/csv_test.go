package ledger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carteira-dev/carteira/internal/billing"
	"github.com/carteira-dev/carteira/internal/model"
)

func date(y, m, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

const testGroup = "5b0c9a4e-3f61-4d1e-9a7b-2c8d1e0f4a55"

func TestRoundTrip(t *testing.T) {
	entries := []model.Entry{
		{
			ID:          "2026-02-001",
			Kind:        model.KindIncome,
			Description: "Salário",
			Amount:      dec("5000.00"),
			Date:        date(2026, 2, 5),
			Category:    "outros",
			Fixed:       true,
			Method:      model.MethodCash,
			Paid:        true,
		},
		{
			ID:           "2026-02-002",
			Kind:         model.KindExpense,
			Description:  "Geladeira (1/3)",
			Amount:       dec("1000.00"),
			Date:         date(2026, 2, 20),
			PurchaseDate: date(2026, 1, 20),
			Category:     "moradia",
			Method:       model.MethodCard,
			CardID:       "nubank",
			Store:        "Magalu",
			Receipt:      "receipts/geladeira.pdf",
			Installment:  1,
			Installments: 3,
			GroupID:      testGroup,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, entries))
	assert.True(t, strings.HasPrefix(buf.String(), Header+"\n"))

	got, err := ReadEntries(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i := range entries {
		want := entries[i]
		assert.Equal(t, want.ID, got[i].ID)
		assert.Equal(t, want.Kind, got[i].Kind)
		assert.Equal(t, want.Date, got[i].Date)
		assert.Equal(t, want.PurchaseDate, got[i].PurchaseDate)
		assert.True(t, want.Amount.Equal(got[i].Amount))
		assert.Equal(t, want.Fixed, got[i].Fixed)
		assert.Equal(t, want.CardID, got[i].CardID)
		assert.Equal(t, want.Installment, got[i].Installment)
		assert.Equal(t, want.Installments, got[i].Installments)
		assert.Equal(t, want.GroupID, got[i].GroupID)
		assert.Equal(t, want.Receipt, got[i].Receipt)
	}
}

func TestMarshalEntry_OptionalFieldsBlank(t *testing.T) {
	row := MarshalEntry(model.Entry{
		ID:          "2026-02-001",
		Kind:        model.KindExpense,
		Description: "Café",
		Amount:      dec("7.5"),
		Date:        date(2026, 2, 1),
		Method:      model.MethodCash,
	})
	assert.Equal(t, "7.50", row[colAmount])
	assert.Empty(t, row[colPurchase])
	assert.Empty(t, row[colInstIndex])
	assert.Empty(t, row[colInstTotal])
	assert.Equal(t, "false", row[colFixed])
}

func TestSpecialCharactersInDescription(t *testing.T) {
	e := model.Entry{
		ID:          "2026-02-001",
		Kind:        model.KindExpense,
		Description: `Padaria "Pão, Leite & Cia"`,
		Amount:      dec("12.00"),
		Date:        date(2026, 2, 1),
		Method:      model.MethodCash,
	}
	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, []model.Entry{e}))

	got, err := ReadEntries(&buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, e.Description, got[0].Description)
}

func TestReadEntries_Empty(t *testing.T) {
	got, err := ReadEntries(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReadEntries_HeaderOnly(t *testing.T) {
	got, err := ReadEntries(strings.NewReader(Header + "\n"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	valid := MarshalEntry(model.Entry{
		ID: "2026-02-001", Kind: model.KindExpense, Description: "x",
		Amount: dec("1.00"), Date: date(2026, 2, 1), Method: model.MethodCash,
	})

	tests := []struct {
		name string
		col  int
		val  string
	}{
		{"bad date", colDate, "2026-02-30"},
		{"bad purchase date", colPurchase, "yesterday"},
		{"bad amount", colAmount, "R$ 1,00"},
		{"bad fixed", colFixed, "maybe"},
		{"bad installment", colInstIndex, "one"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := append([]string(nil), valid...)
			row[tt.col] = tt.val
			_, err := UnmarshalEntry(row)
			assert.Error(t, err)
		})
	}

	_, err := UnmarshalEntry(valid[:3])
	assert.ErrorContains(t, err, "expected 16 fields")
}

func TestInvoiceRoundTrip(t *testing.T) {
	invoices := []model.Invoice{
		{CardID: "nubank", Period: billing.Period{Year: 2026, Month: time.March}, Paid: true, PaidAmount: dec("1520.30"), PaidOn: date(2026, 3, 14)},
		{CardID: "inter", Period: billing.Period{Year: 2026, Month: time.March}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteInvoices(&buf, invoices))

	got, err := ReadInvoices(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "nubank", got[0].CardID)
	assert.True(t, got[0].Paid)
	assert.True(t, dec("1520.30").Equal(got[0].PaidAmount))
	assert.Equal(t, date(2026, 3, 14), got[0].PaidOn)
	assert.False(t, got[1].Paid)
	assert.Equal(t, civil.Date{}, got[1].PaidOn)
}
