package report

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/carteira-dev/carteira/internal/billing"
	"github.com/carteira-dev/carteira/internal/model"
	"github.com/carteira-dev/carteira/internal/store"
)

// Loader reads everything a report needs from a store.
type Loader struct {
	Entries  store.EntryStore
	Cards    store.CardStore
	Invoices store.InvoiceStore
}

// Month loads a period's entries, cards and invoices concurrently and
// summarizes them.
func (l Loader) Month(ctx context.Context, p billing.Period) (Summary, []model.Entry, error) {
	var (
		entries  []model.Entry
		cards    []model.Card
		invoices []model.Invoice
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = l.Entries.ListEntries(gctx, p.Start(), p.End())
		if err != nil {
			return fmt.Errorf("loading entries for %s: %w", p, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		cards, err = l.Cards.ListCards(gctx)
		if err != nil {
			return fmt.Errorf("loading cards: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		invoices, err = l.Invoices.ListInvoices(gctx, p)
		if err != nil {
			return fmt.Errorf("loading invoices for %s: %w", p, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, nil, err
	}

	return Summarize(p, entries, cards, invoices), entries, nil
}

// Trend summarizes n consecutive periods ending at last, oldest first.
// Periods are loaded concurrently with at most four in flight.
func (l Loader) Trend(ctx context.Context, last billing.Period, n int) ([]Summary, error) {
	if n < 1 {
		return nil, nil
	}
	periods := make([]billing.Period, n)
	p := last
	for i := n - 1; i >= 0; i-- {
		periods[i] = p
		p = p.Prev()
	}

	out := make([]Summary, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, p := range periods {
		g.Go(func() error {
			s, _, err := l.Month(gctx, p)
			if err != nil {
				return err
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
