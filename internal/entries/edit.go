package entries

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/carteira-dev/carteira/internal/logger"
	"github.com/carteira-dev/carteira/internal/model"
)

// Changes lists the fields to edit. Nil fields are left alone.
type Changes struct {
	Kind        *model.Kind
	Description *string
	Amount      *decimal.Decimal
	Date        *civil.Date // purchase date for standalone entries, effective date for installments
	Category    *string
	Fixed       *bool
	CardID      *string // empty switches the entry to cash
	Store       *string
	Receipt     *string
	Paid        *bool
}

// EditResult reports what an edit touched.
type EditResult struct {
	Entry    model.Entry
	Cascaded []string // IDs of later installments that received the shared fields
}

// Edit applies changes to one entry.
//
// A standalone card entry is re-resolved to its invoice date when its
// purchase date or card changes. An installment keeps its schedule; its
// category, store, card, method and fixed flag are copied to every later
// installment of the same group. Earlier installments are never touched.
func (s *Service) Edit(ctx context.Context, id string, ch Changes) (EditResult, error) {
	e, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return EditResult{}, err
	}

	if ch.Amount != nil && !model.ValidAmount(*ch.Amount) {
		return EditResult{}, fmt.Errorf("%w: %s", model.ErrInvalidAmount, *ch.Amount)
	}

	rebill := false
	if ch.Kind != nil {
		e.Kind = *ch.Kind
	}
	if ch.Description != nil {
		e.Description = strings.TrimSpace(*ch.Description)
	}
	if ch.Amount != nil {
		e.Amount = *ch.Amount
	}
	if ch.Category != nil {
		e.Category = *ch.Category
		if e.Category == "" {
			e.Category = model.DefaultCategory
		}
	}
	if ch.Fixed != nil {
		e.Fixed = *ch.Fixed
	}
	if ch.Store != nil {
		e.Store = strings.TrimSpace(*ch.Store)
	}
	if ch.Receipt != nil {
		e.Receipt = *ch.Receipt
	}
	if ch.Paid != nil {
		e.Paid = *ch.Paid
	}
	if ch.CardID != nil && *ch.CardID != e.CardID {
		e.CardID = *ch.CardID
		e.Method = model.MethodCash
		if e.CardID != "" {
			e.Method = model.MethodCard
		}
		rebill = true
	}
	if ch.Date != nil {
		if e.InGroup() {
			e.Date = *ch.Date
		} else {
			e.PurchaseDate = *ch.Date
			rebill = true
		}
	}

	if rebill && !e.InGroup() {
		purchase := e.PurchaseDate
		if purchase == (civil.Date{}) {
			purchase = e.Date
			e.PurchaseDate = purchase
		}
		e.Date = s.EffectiveDate(ctx, purchase, e.CardID)
	}

	if err := e.Validate(); err != nil {
		return EditResult{}, err
	}

	batch := []model.Entry{e}
	var cascaded []string
	if e.InGroup() {
		group, err := s.store.ListGroup(ctx, e.GroupID)
		if err != nil {
			return EditResult{}, fmt.Errorf("loading installment group: %w", err)
		}
		for _, later := range group {
			if later.Installment <= e.Installment {
				continue
			}
			later.Category = e.Category
			later.Store = e.Store
			later.CardID = e.CardID
			later.Method = e.Method
			later.Fixed = e.Fixed
			batch = append(batch, later)
			cascaded = append(cascaded, later.ID)
		}
	}

	if err := s.store.UpdateEntries(ctx, batch); err != nil {
		return EditResult{}, fmt.Errorf("updating entries: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().Str("id", e.ID).Int("cascaded", len(cascaded)).Msg("entry updated")
	return EditResult{Entry: e, Cascaded: cascaded}, nil
}

// Delete removes an entry. Deleting an installment also removes every later
// installment of its group; earlier ones stay. It returns the deleted IDs.
func (s *Service) Delete(ctx context.Context, id string) ([]string, error) {
	e, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := []string{e.ID}
	if e.InGroup() {
		group, err := s.store.ListGroup(ctx, e.GroupID)
		if err != nil {
			return nil, fmt.Errorf("loading installment group: %w", err)
		}
		ids = ids[:0]
		for _, member := range group {
			if member.Installment >= e.Installment {
				ids = append(ids, member.ID)
			}
		}
	}

	if err := s.store.DeleteEntries(ctx, ids...); err != nil {
		return nil, fmt.Errorf("deleting entries: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().Str("id", e.ID).Int("count", len(ids)).Msg("entries deleted")
	return ids, nil
}
