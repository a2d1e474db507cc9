// Package store defines the persistence contract shared by the CSV ledger
// and the SQLite backend.
package store

import (
	"context"
	"errors"
	"slices"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/carteira-dev/carteira/internal/billing"
	"github.com/carteira-dev/carteira/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// EntryStore persists income and expense entries.
type EntryStore interface {
	// InsertEntries stores a batch atomically and returns it with IDs
	// assigned. Any ID already set on the input is ignored.
	InsertEntries(ctx context.Context, entries []model.Entry) ([]model.Entry, error)
	GetEntry(ctx context.Context, id string) (model.Entry, error)
	// UpdateEntries replaces existing entries by ID. Every ID must exist.
	UpdateEntries(ctx context.Context, entries []model.Entry) error
	DeleteEntries(ctx context.Context, ids ...string) error
	// ListEntries returns entries with from <= Date < to, ordered by date
	// then ID.
	ListEntries(ctx context.Context, from, to civil.Date) ([]model.Entry, error)
	// ListGroup returns the installments of a group ordered by index.
	ListGroup(ctx context.Context, groupID string) ([]model.Entry, error)
}

// CardStore persists credit cards.
type CardStore interface {
	ListCards(ctx context.Context) ([]model.Card, error)
	SaveCard(ctx context.Context, c model.Card) error
	DeleteCard(ctx context.Context, id string) error
}

// InvoiceStore persists invoice payment status.
type InvoiceStore interface {
	GetInvoice(ctx context.Context, cardID string, p billing.Period) (model.Invoice, error)
	SaveInvoice(ctx context.Context, inv model.Invoice) error
	ListInvoices(ctx context.Context, p billing.Period) ([]model.Invoice, error)
}

// Store bundles every record kind behind one backend.
type Store interface {
	EntryStore
	CardStore
	InvoiceStore
	Close() error
}

// SortEntries orders entries by date, then by ID.
func SortEntries(entries []model.Entry) {
	slices.SortStableFunc(entries, func(a, b model.Entry) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

type combined struct {
	EntryStore
	CardStore
	InvoiceStore
}

func (combined) Close() error { return nil }

// Combine joins separate stores into one Store whose Close is a no-op.
func Combine(entries EntryStore, cards CardStore, invoices InvoiceStore) Store {
	return combined{EntryStore: entries, CardStore: cards, InvoiceStore: invoices}
}
