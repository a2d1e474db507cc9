package cards

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/carteira-dev/carteira/internal/model"
	"github.com/carteira-dev/carteira/internal/store"
)

// FileStore keeps cards in <repo>/cards/cards.csv.
type FileStore struct {
	repoRoot string
}

var _ store.CardStore = (*FileStore)(nil)

// NewFileStore creates a FileStore rooted at a data directory.
func NewFileStore(repoRoot string) *FileStore {
	return &FileStore{repoRoot: repoRoot}
}

// Path returns the location of cards.csv.
func (s *FileStore) Path() string {
	return filepath.Join(s.repoRoot, "cards", "cards.csv")
}

// ListCards reads every card. A missing file means no cards.
func (s *FileStore) ListCards(ctx context.Context) ([]model.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening cards: %w", err)
	}
	defer f.Close()

	cards, err := ReadCards(f)
	if err != nil {
		return nil, fmt.Errorf("reading cards: %w", err)
	}
	return cards, nil
}

// SaveCard inserts or replaces a card.
func (s *FileStore) SaveCard(ctx context.Context, c model.Card) error {
	cards, err := s.ListCards(ctx)
	if err != nil {
		return err
	}
	if i := slices.IndexFunc(cards, func(x model.Card) bool { return x.ID == c.ID }); i >= 0 {
		cards[i] = c
	} else {
		cards = append(cards, c)
	}
	return s.write(cards)
}

// DeleteCard removes a card.
func (s *FileStore) DeleteCard(ctx context.Context, cardID string) error {
	cards, err := s.ListCards(ctx)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(cards, func(x model.Card) bool { return x.ID == cardID })
	if i < 0 {
		return fmt.Errorf("card %s: %w", cardID, store.ErrNotFound)
	}
	return s.write(slices.Delete(cards, i, i+1))
}

// write replaces cards.csv through a sibling temp file so a failed write
// leaves the previous file intact.
func (s *FileStore) write(cards []model.Card) error {
	slices.SortFunc(cards, func(a, b model.Card) int { return strings.Compare(a.ID, b.ID) })

	path := s.Path()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cards dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if err := WriteCards(f, cards); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("writing cards: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("closing cards file: %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("replacing cards file: %w", err)
	}
	return nil
}
