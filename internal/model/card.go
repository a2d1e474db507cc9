package model

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/carteira-dev/carteira/internal/billing"
)

// Card errors.
var (
	ErrInvalidCardID     = errors.New("card ID must be 1-32 lowercase letters, digits, '-' or '_'")
	ErrInvalidClosingDay = errors.New("closing day must be between 1 and 31")
	ErrInvalidDueDay     = errors.New("due day must be between 1 and 31")
	ErrNegativeLimit     = errors.New("credit limit cannot be negative")
)

var cardIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)

// Card is a credit card whose purchases are billed on monthly invoices.
type Card struct {
	ID          string
	Name        string
	Institution string
	Brand       string
	LastFour    string
	Limit       decimal.Decimal
	ClosingDay  int // day of month the billing cycle closes
	DueDay      int // informational
	Color       string
}

// Validate checks the card fields that billing depends on.
func (c Card) Validate() error {
	if !cardIDPattern.MatchString(c.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidCardID, c.ID)
	}
	if !billing.ValidDay(c.ClosingDay) {
		return fmt.Errorf("%w: %d", ErrInvalidClosingDay, c.ClosingDay)
	}
	if !billing.ValidDay(c.DueDay) {
		return fmt.Errorf("%w: %d", ErrInvalidDueDay, c.DueDay)
	}
	if c.Limit.IsNegative() {
		return ErrNegativeLimit
	}
	return nil
}

// Label returns a short human name like "Nubank ••1234".
func (c Card) Label() string {
	name := c.Name
	if name == "" {
		name = c.ID
	}
	if c.LastFour == "" {
		return name
	}
	return name + " ••" + c.LastFour
}
