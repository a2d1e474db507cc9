package cards

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carteira-dev/carteira/internal/billing"
	"github.com/carteira-dev/carteira/internal/model"
	"github.com/carteira-dev/carteira/internal/store"
)

func sample() []model.Card {
	return []model.Card{
		{ID: "nubank", Name: "Nubank", Institution: "Nu Pagamentos", Brand: "Mastercard", LastFour: "1234", Limit: decimal.RequireFromString("5000.00"), ClosingDay: 7, DueDay: 14, Color: "#820ad1"},
		{ID: "inter", Name: "Inter", ClosingDay: 31, DueDay: 10},
	}
}

func TestCSVRoundTrip(t *testing.T) {
	cards := sample()

	var buf bytes.Buffer
	require.NoError(t, WriteCards(&buf, cards))

	got, err := ReadCards(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(cards))
	for i := range cards {
		assert.Equal(t, cards[i].ID, got[i].ID)
		assert.Equal(t, cards[i].Name, got[i].Name)
		assert.Equal(t, cards[i].LastFour, got[i].LastFour)
		assert.True(t, cards[i].Limit.Equal(got[i].Limit))
		assert.Equal(t, cards[i].ClosingDay, got[i].ClosingDay)
		assert.Equal(t, cards[i].DueDay, got[i].DueDay)
		assert.Equal(t, cards[i].Color, got[i].Color)
	}
}

func TestReadCards_RejectsInvalidClosingDay(t *testing.T) {
	c := sample()[0]
	c.ClosingDay = 32

	var buf bytes.Buffer
	require.NoError(t, WriteCards(&buf, []model.Card{c}))

	_, err := ReadCards(&buf)
	assert.ErrorIs(t, err, model.ErrInvalidClosingDay)
}

func loadSample(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	fs := NewFileStore(t.TempDir())
	for _, c := range sample() {
		require.NoError(t, fs.SaveCard(ctx, c))
	}
	svc, err := Load(ctx, fs)
	require.NoError(t, err)
	return svc
}

func TestGetExists(t *testing.T) {
	svc := loadSample(t)

	c, ok := svc.Get("nubank")
	assert.True(t, ok)
	assert.Equal(t, "Nubank", c.Name)

	_, ok = svc.Get("missing")
	assert.False(t, ok)

	assert.True(t, svc.Exists("inter"))
	assert.False(t, svc.Exists("missing"))

	// Ordered by ID.
	assert.Equal(t, "inter", svc.All()[0].ID)
}

func TestClosingDayLookup(t *testing.T) {
	svc := loadSample(t)

	day, ok := billing.ClosingDayFor(svc, "nubank")
	assert.True(t, ok)
	assert.Equal(t, 7, day)

	day, ok = billing.ClosingDayFor(svc, "deleted")
	assert.False(t, ok)
	assert.Equal(t, billing.FallbackClosingDay, day)
}

func TestServiceWritesThrough(t *testing.T) {
	ctx := context.Background()
	fs := NewFileStore(t.TempDir())

	svc, err := Load(ctx, fs)
	require.NoError(t, err)
	assert.Empty(t, svc.All())

	for _, c := range sample() {
		require.NoError(t, svc.Add(ctx, c))
	}
	assert.ErrorIs(t, svc.Add(ctx, sample()[0]), ErrExists)

	updated := sample()[1]
	updated.ClosingDay = 3
	require.NoError(t, svc.Update(ctx, updated))

	missing := sample()[1]
	missing.ID = "c6"
	assert.ErrorIs(t, svc.Update(ctx, missing), store.ErrNotFound)

	bad := sample()[0]
	bad.ClosingDay = 0
	assert.ErrorIs(t, svc.Update(ctx, bad), model.ErrInvalidClosingDay)

	reloaded, err := Load(ctx, fs)
	require.NoError(t, err)
	require.Len(t, reloaded.All(), 2)
	day, _ := reloaded.ClosingDay("inter")
	assert.Equal(t, 3, day)

	require.NoError(t, reloaded.Remove(ctx, "inter"))
	assert.ErrorIs(t, reloaded.Remove(ctx, "inter"), store.ErrNotFound)

	reloaded, err = Load(ctx, fs)
	require.NoError(t, err)
	assert.Len(t, reloaded.All(), 1)
}

func TestFileStore_MissingFile(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	cards, err := fs.ListCards(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cards)

	_, err = os.Stat(fs.Path())
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, fs.DeleteCard(context.Background(), "nubank"), store.ErrNotFound)
}

func TestFileStore_WriteLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	fs := NewFileStore(t.TempDir())
	for _, c := range sample() {
		require.NoError(t, fs.SaveCard(ctx, c))
	}
	require.NoError(t, fs.DeleteCard(ctx, "inter"))

	entries, err := os.ReadDir(filepath.Dir(fs.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(fs.Path()), entries[0].Name())
}

func TestFileStore_FailedReplaceCleansUp(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	// A non-empty directory where cards.csv belongs cannot be replaced.
	require.NoError(t, os.MkdirAll(filepath.Join(fs.Path(), "x"), 0o755))

	err := fs.write(sample())
	require.Error(t, err)
	assert.ErrorContains(t, err, "replacing cards file")

	entries, err := os.ReadDir(filepath.Dir(fs.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file removed")
}
