// Package entries creates, edits and deletes income and expense entries,
// turning card purchases into invoice-dated records and installment groups.
package entries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/carteira-dev/carteira/internal/billing"
	"github.com/carteira-dev/carteira/internal/logger"
	"github.com/carteira-dev/carteira/internal/model"
	"github.com/carteira-dev/carteira/internal/store"
)

// Errors returned for rejected input.
var (
	ErrInvalidInstallments  = fmt.Errorf("installments must be between 1 and %d", billing.MaxInstallments)
	ErrInstallmentsNeedCard = errors.New("installments above 1 require a card")
)

// Service provides business logic for entries.
type Service struct {
	store store.EntryStore
	cards billing.ClosingDayLookup
}

// NewService creates an entries Service. cards may be nil, in which case
// every card reference uses the fallback closing day.
func NewService(st store.EntryStore, cards billing.ClosingDayLookup) *Service {
	return &Service{store: st, cards: cards}
}

// NewEntry holds the user's input for a new entry.
type NewEntry struct {
	Kind         model.Kind
	Description  string
	Amount       decimal.Decimal
	Date         civil.Date // purchase date as chosen by the user
	Category     string
	Fixed        bool
	CardID       string // empty for cash
	Installments int    // 0 or 1 for a single entry
	Store        string
	Receipt      string
	Paid         bool
}

// Create validates n, resolves card purchases to their invoice date and
// stores the resulting entries. A card purchase with more than one
// installment becomes a group of entries, one per invoice.
func (s *Service) Create(ctx context.Context, n NewEntry) ([]model.Entry, error) {
	if !model.ValidAmount(n.Amount) {
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidAmount, n.Amount)
	}
	count := n.Installments
	if count == 0 {
		count = 1
	}
	if count < 1 || count > billing.MaxInstallments {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidInstallments, n.Installments)
	}
	if count > 1 && n.CardID == "" {
		return nil, ErrInstallmentsNeedCard
	}
	if part := billing.SplitAmount(n.Amount, count); !part.IsPositive() {
		return nil, fmt.Errorf("%w: %s split %d ways rounds to zero", model.ErrInvalidAmount, n.Amount, count)
	}

	base := model.Entry{
		Kind:         n.Kind,
		Description:  strings.TrimSpace(n.Description),
		Amount:       n.Amount,
		Date:         n.Date,
		PurchaseDate: n.Date,
		Category:     n.Category,
		Fixed:        n.Fixed,
		Method:       model.MethodCash,
		Store:        strings.TrimSpace(n.Store),
		Receipt:      n.Receipt,
		Paid:         n.Paid,
	}
	if base.Category == "" {
		base.Category = model.DefaultCategory
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}

	var batch []model.Entry
	switch {
	case n.CardID == "":
		batch = []model.Entry{base}
	case count == 1:
		base.Method = model.MethodCard
		base.CardID = n.CardID
		base.Date = s.EffectiveDate(ctx, n.Date, n.CardID)
		batch = []model.Entry{base}
	default:
		closing := s.closingDay(ctx, n.CardID)
		schedule := billing.GenerateInstallments(billing.Purchase{
			Amount:      n.Amount,
			Date:        n.Date,
			Description: base.Description,
		}, closing, count)

		batch = make([]model.Entry, len(schedule))
		for i, inst := range schedule {
			e := base
			e.Method = model.MethodCard
			e.CardID = n.CardID
			e.Description = inst.Description
			e.Amount = inst.Amount
			e.Date = inst.Date
			e.PurchaseDate = inst.PurchaseDate
			e.Fixed = false
			e.Receipt = ""
			e.GroupID = inst.GroupID
			e.Installment = inst.Index
			e.Installments = inst.Total
			if err := e.Validate(); err != nil {
				return nil, fmt.Errorf("installment %d/%d: %w", inst.Index, inst.Total, err)
			}
			batch[i] = e
		}
	}

	created, err := s.store.InsertEntries(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("storing entries: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("first_id", created[0].ID).
		Int("count", len(created)).
		Str("card", n.CardID).
		Msg("entries created")
	return created, nil
}

// EffectiveDate returns the date a purchase is billed on. Cash purchases
// keep their date; card purchases move to their invoice date.
func (s *Service) EffectiveDate(ctx context.Context, purchase civil.Date, cardID string) civil.Date {
	if cardID == "" {
		return purchase
	}
	return billing.ResolveInvoiceDate(purchase, s.closingDay(ctx, cardID))
}

func (s *Service) closingDay(ctx context.Context, cardID string) int {
	day, ok := billing.ClosingDayFor(s.cards, cardID)
	if !ok {
		log := logger.FromContext(ctx)
		log.Warn().
			Str("card", cardID).
			Int("closing_day", day).
			Msg("card not found, using fallback closing day")
	}
	return day
}

// Get returns an entry by ID.
func (s *Service) Get(ctx context.Context, id string) (model.Entry, error) {
	return s.store.GetEntry(ctx, id)
}

// Month returns every entry billed in a period.
func (s *Service) Month(ctx context.Context, p billing.Period) ([]model.Entry, error) {
	return s.Range(ctx, p.Start(), p.End())
}

// Range returns entries with from <= date < to.
func (s *Service) Range(ctx context.Context, from, to civil.Date) ([]model.Entry, error) {
	out, err := s.store.ListEntries(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return out, nil
}
