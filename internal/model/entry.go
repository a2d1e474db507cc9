package model

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Kind separates money coming in from money going out.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Method is how an entry was paid.
type Method string

const (
	MethodCash Method = "cash"
	MethodCard Method = "card"
)

// Entry errors.
var (
	ErrInvalidKind        = errors.New("kind must be income or expense")
	ErrInvalidMethod      = errors.New("method must be cash or card")
	ErrInvalidAmount      = errors.New("amount must be positive with at most 2 decimal places")
	ErrEmptyDescription   = errors.New("description is required")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrMissingDate        = errors.New("date is required")
	ErrCardRequired       = errors.New("card method requires a card")
	ErrCardWithoutMethod  = errors.New("cash entries cannot reference a card")
	ErrInvalidInstallment = errors.New("installment fields are inconsistent")
)

// MaxDescription is the longest description accepted, in characters.
const MaxDescription = 200

// Entry is one persisted income or expense record. Installments of a single
// purchase are separate entries sharing a GroupID.
type Entry struct {
	ID           string
	Kind         Kind
	Description  string
	Amount       decimal.Decimal
	Date         civil.Date // effective (invoice) date
	PurchaseDate civil.Date // date the user made the purchase
	Category     string
	Fixed        bool // recurring every month
	Method       Method
	CardID       string
	Store        string
	Receipt      string // path of a stored receipt, if any
	Paid         bool
	Installment  int // 1-based index; 0 when not part of a group
	Installments int // group size; 0 when not part of a group
	GroupID      string
}

// InGroup reports whether the entry is one installment of a split purchase.
func (e Entry) InGroup() bool {
	return e.GroupID != ""
}

// ValidKind reports whether k is a known kind.
func ValidKind(k Kind) bool {
	return k == KindIncome || k == KindExpense
}

// ValidMethod reports whether m is a known payment method.
func ValidMethod(m Method) bool {
	return m == MethodCash || m == MethodCard
}

// ValidAmount reports whether a is positive with at most two decimal places.
func ValidAmount(a decimal.Decimal) bool {
	return a.IsPositive() && a.Equal(a.Round(2))
}

// Validate checks a single entry in isolation.
func (e Entry) Validate() error {
	if !ValidKind(e.Kind) {
		return fmt.Errorf("%w: %q", ErrInvalidKind, e.Kind)
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(e.Description) > MaxDescription {
		return ErrDescriptionTooLong
	}
	if !ValidAmount(e.Amount) {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, e.Amount)
	}
	if e.Date == (civil.Date{}) || !e.Date.IsValid() {
		return ErrMissingDate
	}
	if e.PurchaseDate != (civil.Date{}) && !e.PurchaseDate.IsValid() {
		return fmt.Errorf("invalid purchase date %s", e.PurchaseDate)
	}
	if !ValidMethod(e.Method) {
		return fmt.Errorf("%w: %q", ErrInvalidMethod, e.Method)
	}
	if e.Method == MethodCard && e.CardID == "" {
		return ErrCardRequired
	}
	if e.Method == MethodCash && e.CardID != "" {
		return ErrCardWithoutMethod
	}
	if e.InGroup() {
		if e.Installments < 1 || e.Installment < 1 || e.Installment > e.Installments {
			return fmt.Errorf("%w: %d/%d", ErrInvalidInstallment, e.Installment, e.Installments)
		}
	} else if e.Installment != 0 || e.Installments != 0 {
		return fmt.Errorf("%w: index without group", ErrInvalidInstallment)
	}
	return nil
}
