package model

import (
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validEntry() Entry {
	return Entry{
		ID:          "2026-02-001",
		Kind:        KindExpense,
		Description: "Padaria",
		Amount:      decimal.RequireFromString("12.50"),
		Date:        civil.Date{Year: 2026, Month: 2, Day: 5},
		Category:    "padaria",
		Method:      MethodCash,
	}
}

func TestEntryValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Entry)
		wantErr error
	}{
		{"valid", func(*Entry) {}, nil},
		{"bad kind", func(e *Entry) { e.Kind = "transfer" }, ErrInvalidKind},
		{"blank description", func(e *Entry) { e.Description = "  " }, ErrEmptyDescription},
		{"long description", func(e *Entry) { e.Description = strings.Repeat("x", 201) }, ErrDescriptionTooLong},
		{"accented description at limit", func(e *Entry) { e.Description = strings.Repeat("ç", MaxDescription) }, nil},
		{"accented description over limit", func(e *Entry) { e.Description = strings.Repeat("ã", MaxDescription+1) }, ErrDescriptionTooLong},
		{"zero amount", func(e *Entry) { e.Amount = decimal.Zero }, ErrInvalidAmount},
		{"three decimals", func(e *Entry) { e.Amount = decimal.RequireFromString("1.234") }, ErrInvalidAmount},
		{"missing date", func(e *Entry) { e.Date = civil.Date{} }, ErrMissingDate},
		{"bad method", func(e *Entry) { e.Method = "pix" }, ErrInvalidMethod},
		{"card without id", func(e *Entry) { e.Method = MethodCard }, ErrCardRequired},
		{"cash with card", func(e *Entry) { e.CardID = "nubank" }, ErrCardWithoutMethod},
		{"index without group", func(e *Entry) { e.Installment = 1 }, ErrInvalidInstallment},
		{"index past total", func(e *Entry) {
			e.Method, e.CardID = MethodCard, "nubank"
			e.GroupID, e.Installment, e.Installments = "g", 4, 3
		}, ErrInvalidInstallment},
		{"valid installment", func(e *Entry) {
			e.Method, e.CardID = MethodCard, "nubank"
			e.GroupID, e.Installment, e.Installments = "g", 3, 3
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEntry()
			tt.mutate(&e)
			err := e.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCardValidate(t *testing.T) {
	c := Card{ID: "nubank", Name: "Nubank", ClosingDay: 7, DueDay: 14}
	assert.NoError(t, c.Validate())

	bad := c
	bad.ID = "Nu Bank"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidCardID)

	bad = c
	bad.ClosingDay = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidClosingDay)

	bad = c
	bad.DueDay = 32
	assert.ErrorIs(t, bad.Validate(), ErrInvalidDueDay)

	bad = c
	bad.Limit = decimal.NewFromInt(-1)
	assert.ErrorIs(t, bad.Validate(), ErrNegativeLimit)
}

func TestCardLabel(t *testing.T) {
	assert.Equal(t, "Nubank ••1234", Card{ID: "nubank", Name: "Nubank", LastFour: "1234"}.Label())
	assert.Equal(t, "inter", Card{ID: "inter"}.Label())
}

func TestLookupCategory(t *testing.T) {
	assert.Equal(t, "Mercado", LookupCategory("mercado").Label)
	assert.Equal(t, DefaultCategory, LookupCategory("nope").ID)
	assert.True(t, IsCategory("saude"))
	assert.False(t, IsCategory("nope"))
	assert.Len(t, Categories, 13)
}
