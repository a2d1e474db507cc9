// Package cards is the credit card registry. Lookups are served from memory;
// changes are written through to a store.CardStore.
package cards

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/carteira-dev/carteira/internal/billing"
	"github.com/carteira-dev/carteira/internal/model"
	"github.com/carteira-dev/carteira/internal/store"
)

// ErrExists is returned when adding a card whose ID is taken.
var ErrExists = errors.New("card already exists")

// Service provides in-memory lookup over the registered cards.
type Service struct {
	store store.CardStore
	cards []model.Card
	byID  map[string]model.Card
}

var _ billing.ClosingDayLookup = (*Service)(nil)

// Load reads every card from st and returns a Service that writes back to it.
func Load(ctx context.Context, st store.CardStore) (*Service, error) {
	cards, err := st.ListCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading cards: %w", err)
	}
	s := &Service{store: st}
	s.reset(cards)
	return s, nil
}

// All returns all cards ordered by ID.
func (s *Service) All() []model.Card {
	return s.cards
}

// Get returns a card by ID.
func (s *Service) Get(id string) (model.Card, bool) {
	c, ok := s.byID[id]
	return c, ok
}

// Exists reports whether a card ID exists.
func (s *Service) Exists(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// ClosingDay returns a card's closing day.
func (s *Service) ClosingDay(id string) (int, bool) {
	c, ok := s.byID[id]
	if !ok {
		return 0, false
	}
	return c.ClosingDay, true
}

// Add registers a new card.
func (s *Service) Add(ctx context.Context, c model.Card) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if s.Exists(c.ID) {
		return fmt.Errorf("%w: %s", ErrExists, c.ID)
	}
	return s.save(ctx, c)
}

// Update replaces an existing card.
func (s *Service) Update(ctx context.Context, c model.Card) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !s.Exists(c.ID) {
		return fmt.Errorf("card %s: %w", c.ID, store.ErrNotFound)
	}
	return s.save(ctx, c)
}

// Remove deletes a card. Entries that still reference it fall back to the
// default closing day.
func (s *Service) Remove(ctx context.Context, id string) error {
	if !s.Exists(id) {
		return fmt.Errorf("card %s: %w", id, store.ErrNotFound)
	}
	if s.store != nil {
		if err := s.store.DeleteCard(ctx, id); err != nil {
			return fmt.Errorf("deleting card: %w", err)
		}
	}
	s.reset(slices.DeleteFunc(slices.Clone(s.cards), func(c model.Card) bool { return c.ID == id }))
	return nil
}

func (s *Service) save(ctx context.Context, c model.Card) error {
	if s.store != nil {
		if err := s.store.SaveCard(ctx, c); err != nil {
			return fmt.Errorf("saving card: %w", err)
		}
	}
	next := slices.DeleteFunc(slices.Clone(s.cards), func(x model.Card) bool { return x.ID == c.ID })
	s.reset(append(next, c))
	return nil
}

func (s *Service) reset(cards []model.Card) {
	slices.SortFunc(cards, func(a, b model.Card) int { return strings.Compare(a.ID, b.ID) })
	s.cards = cards
	s.byID = make(map[string]model.Card, len(cards))
	for _, c := range cards {
		s.byID[c.ID] = c
	}
}
