package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		amount   string
		merchant string
		desc     string
	}{
		{
			name:     "approved purchase",
			text:     "Compra aprovada de R$ 45,90 em PADARIA DOCE PAO.",
			amount:   "45.9",
			merchant: "PADARIA DOCE PAO",
			desc:     "Compra em PADARIA DOCE PAO",
		},
		{
			name:     "thousands separator",
			text:     "Compra aprovada de R$ 1.234,56 em LOJA DO ZE",
			amount:   "1234.56",
			merchant: "LOJA DO ZE",
			desc:     "Compra em LOJA DO ZE",
		},
		{
			name:     "dotted decimals",
			text:     "Compra aprovada de R$ 1234.56 em MERCADO X",
			amount:   "1234.56",
			merchant: "MERCADO X",
			desc:     "Compra em MERCADO X",
		},
		{
			name:     "debit",
			text:     "Débito em POSTO SHELL no valor de R$ 200,00",
			amount:   "200",
			merchant: "POSTO SHELL",
			desc:     "Compra em POSTO SHELL",
		},
		{
			name:     "merchant before amount",
			text:     "PADARIA REAL R$ 12,50\nCartão final 1234",
			amount:   "12.5",
			merchant: "PADARIA REAL",
			desc:     "Compra em PADARIA REAL",
		},
		{
			name:     "lancamento",
			text:     "Lançamento em ACADEMIA FIT. Valor R$ 99,90",
			amount:   "99.9",
			merchant: "ACADEMIA FIT",
			desc:     "Compra em ACADEMIA FIT",
		},
		{
			name:     "debitado",
			text:     "Valor debitado de LOJA DO ZE",
			merchant: "LOJA DO ZE",
			desc:     "Compra em LOJA DO ZE",
		},
		{
			name:     "whitespace collapsed",
			text:     "Compra aprovada no LOJA   DO   ZE.",
			merchant: "LOJA DO ZE",
			desc:     "Compra em LOJA DO ZE",
		},
		{
			name:   "amount only",
			text:   "Saldo: R$ 150,00",
			amount: "150",
			desc:   "Compra",
		},
		{
			name:   "trailing period after amount",
			text:   "Saldo: R$ 50.00.",
			amount: "50",
			desc:   "Compra",
		},
		{
			name: "zero amount ignored",
			text: "Saldo: R$ 0,00",
		},
		{
			name: "blank",
			text: "   \n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := ParseText(tt.text)
			if tt.amount == "" {
				assert.False(t, n.Amount.Valid)
			} else {
				require.True(t, n.Amount.Valid)
				assert.Equal(t, tt.amount, n.Amount.Decimal.String())
			}
			assert.Equal(t, tt.merchant, n.Merchant)
			assert.Equal(t, tt.desc, n.Description)
		})
	}
}

func TestNotification_Empty(t *testing.T) {
	assert.True(t, ParseText("").Empty())
	assert.False(t, ParseText("Saldo: R$ 1,00").Empty())
}

func TestNotificationParser_Parse(t *testing.T) {
	p := &NotificationParser{}
	n, err := p.Parse(strings.NewReader("Compra aprovada de R$ 10,00 em CAFE CENTRAL."))
	require.NoError(t, err)
	assert.Equal(t, "CAFE CENTRAL", n.Merchant)
	assert.Equal(t, "notification", p.Format())
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nonexistent"))
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&NotificationParser{})
	assert.NotNil(t, r.Get("Notification"))
	assert.NotNil(t, r.Get("NOTIFICATION"))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&NotificationParser{})
	assert.Panics(t, func() { r.Register(&NotificationParser{}) })
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r.Get("notification"))
}

func TestScan_FindsTextFiles(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(filepath.Join(importDir, "processed"), 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(importDir, "sms.txt"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "bank.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "processed", "old.txt"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "sms.txt", files[0].Name)
	assert.Equal(t, int64(4), files[0].Size)
}

func TestScan_MissingDir(t *testing.T) {
	files, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "sms.txt"), []byte("data"), 0o644))

	require.NoError(t, MarkProcessed(dir, "sms.txt"))

	_, err := os.Stat(filepath.Join(importDir, "sms.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "import", "processed", "sms.txt"))
	assert.NoError(t, err)
}
