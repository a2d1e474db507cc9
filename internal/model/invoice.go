package model

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/carteira-dev/carteira/internal/billing"
)

// Invoice is the payment status of one card's billing period.
type Invoice struct {
	CardID     string
	Period     billing.Period
	Paid       bool
	PaidAmount decimal.Decimal
	PaidOn     civil.Date
	Receipt    string
}
