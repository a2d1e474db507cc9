package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/carteira-dev/carteira/internal/billing"
	"github.com/carteira-dev/carteira/internal/model"
	"github.com/carteira-dev/carteira/internal/store"
)

// GetInvoice returns the stored status of one card's invoice.
func (l *Ledger) GetInvoice(ctx context.Context, cardID string, p billing.Period) (model.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return model.Invoice{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	invoices, err := l.readInvoices()
	if err != nil {
		return model.Invoice{}, err
	}
	for _, inv := range invoices {
		if inv.CardID == cardID && inv.Period == p {
			return inv, nil
		}
	}
	return model.Invoice{}, fmt.Errorf("invoice %s %s: %w", cardID, p, store.ErrNotFound)
}

// SaveInvoice inserts or replaces the status of one card's invoice.
func (l *Ledger) SaveInvoice(ctx context.Context, inv model.Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	invoices, err := l.readInvoices()
	if err != nil {
		return err
	}

	i := slices.IndexFunc(invoices, func(x model.Invoice) bool {
		return x.CardID == inv.CardID && x.Period == inv.Period
	})
	if i >= 0 {
		invoices[i] = inv
	} else {
		invoices = append(invoices, inv)
	}
	slices.SortFunc(invoices, func(a, b model.Invoice) int {
		if c := a.Period.Compare(b.Period); c != 0 {
			return c
		}
		return strings.Compare(a.CardID, b.CardID)
	})

	path := l.invoicesPath()
	tmp, err := writeTemp(path, func(f *os.File) error { return WriteInvoices(f, invoices) })
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// ListInvoices returns the invoices recorded for a period.
func (l *Ledger) ListInvoices(ctx context.Context, p billing.Period) ([]model.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	invoices, err := l.readInvoices()
	if err != nil {
		return nil, err
	}
	var out []model.Invoice
	for _, inv := range invoices {
		if inv.Period == p {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (l *Ledger) readInvoices() ([]model.Invoice, error) {
	path := l.invoicesPath()
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening invoices: %w", err)
	}
	defer f.Close()

	invoices, err := ReadInvoices(f)
	if err != nil {
		return nil, fmt.Errorf("reading invoices: %w", err)
	}
	return invoices, nil
}

func (l *Ledger) invoicesPath() string {
	return filepath.Join(l.Dir(), "invoices.csv")
}
