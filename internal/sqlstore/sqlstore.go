// Package sqlstore is the SQLite backend. Every row is parsed and validated
// on the way out, so a hand-edited database fails loudly instead of feeding
// bad records to billing.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/carteira-dev/carteira/internal/billing"
	"github.com/carteira-dev/carteira/internal/id"
	"github.com/carteira-dev/carteira/internal/logger"
	"github.com/carteira-dev/carteira/internal/model"
	"github.com/carteira-dev/carteira/internal/store"
)

// Store implements store.Store on a SQLite database file.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at dbPath and migrates it.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const entryColumns = `id, kind, date, purchase_date, description, amount, category, fixed, method,
	card_id, store, receipt, paid, installment, installments, group_id`

// InsertEntries assigns IDs per effective month and inserts the batch in one
// transaction.
func (s *Store) InsertEntries(ctx context.Context, entries []model.Entry) ([]model.Entry, error) {
	for _, e := range entries {
		if err := validateForWrite(e); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	seqs := make(map[billing.Period]int)
	out := make([]model.Entry, len(entries))
	for i, e := range entries {
		p := billing.PeriodOf(e.Date)
		if _, ok := seqs[p]; !ok {
			seq, err := maxSeq(ctx, tx, p)
			if err != nil {
				return nil, err
			}
			seqs[p] = seq
		}
		seqs[p]++
		e.ID = id.FormatEntryID(p.Year, int(p.Month), seqs[p])

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entryArgs(e)...); err != nil {
			return nil, fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
		out[i] = e
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Debug().Int("count", len(out)).Msg("entries inserted into sqlite")
	return out, nil
}

// GetEntry returns an entry by ID.
func (s *Store) GetEntry(ctx context.Context, entryID string) (model.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, entryID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Entry{}, fmt.Errorf("entry %s: %w", entryID, store.ErrNotFound)
	}
	return e, err
}

// UpdateEntries replaces entries by ID in one transaction.
func (s *Store) UpdateEntries(ctx context.Context, entries []model.Entry) error {
	for _, e := range entries {
		if err := validateForWrite(e); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		args := entryArgs(e)
		res, err := tx.ExecContext(ctx, `UPDATE entries SET kind = ?, date = ?, purchase_date = ?,
			description = ?, amount = ?, category = ?, fixed = ?, method = ?, card_id = ?, store = ?,
			receipt = ?, paid = ?, installment = ?, installments = ?, group_id = ? WHERE id = ?`,
			append(args[1:], args[0])...)
		if err != nil {
			return fmt.Errorf("update entry %s: %w", e.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("entry %s: %w", e.ID, store.ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

// DeleteEntries removes entries by ID in one transaction.
func (s *Store) DeleteEntries(ctx context.Context, ids ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	for _, entryID := range ids {
		res, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, entryID)
		if err != nil {
			return fmt.Errorf("delete entry %s: %w", entryID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("entry %s: %w", entryID, store.ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// ListEntries returns entries with from <= date < to.
func (s *Store) ListEntries(ctx context.Context, from, to civil.Date) ([]model.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE date >= ? AND date < ? ORDER BY date, id`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return scanEntries(rows)
}

// ListGroup returns the installments of a group ordered by index.
func (s *Store) ListGroup(ctx context.Context, groupID string) ([]model.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE group_id = ? ORDER BY installment`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group: %w", err)
	}
	return scanEntries(rows)
}

// ListCards returns every card ordered by ID.
func (s *Store) ListCards(ctx context.Context) ([]model.Card, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, institution, brand, last_four, credit_limit,
		closing_day, due_day, color FROM cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []model.Card
	for rows.Next() {
		var c model.Card
		var limit string
		if err := rows.Scan(&c.ID, &c.Name, &c.Institution, &c.Brand, &c.LastFour, &limit,
			&c.ClosingDay, &c.DueDay, &c.Color); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		if c.Limit, err = decimal.NewFromString(limit); err != nil {
			return nil, fmt.Errorf("card %s: parsing credit_limit %q: %w", c.ID, limit, err)
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("card %s: %w", c.ID, err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// SaveCard inserts or replaces a card.
func (s *Store) SaveCard(ctx context.Context, c model.Card) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO cards (id, name, institution, brand, last_four,
		credit_limit, closing_day, due_day, color) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, institution = excluded.institution,
		brand = excluded.brand, last_four = excluded.last_four, credit_limit = excluded.credit_limit,
		closing_day = excluded.closing_day, due_day = excluded.due_day, color = excluded.color`,
		c.ID, c.Name, c.Institution, c.Brand, c.LastFour, c.Limit.StringFixed(2), c.ClosingDay, c.DueDay, c.Color)
	if err != nil {
		return fmt.Errorf("save card %s: %w", c.ID, err)
	}
	return nil
}

// DeleteCard removes a card. Entries keep their card reference.
func (s *Store) DeleteCard(ctx context.Context, cardID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, cardID)
	if err != nil {
		return fmt.Errorf("delete card %s: %w", cardID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("card %s: %w", cardID, store.ErrNotFound)
	}
	return nil
}

// GetInvoice returns one card's invoice status.
func (s *Store) GetInvoice(ctx context.Context, cardID string, p billing.Period) (model.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `SELECT card_id, period, paid, paid_amount, paid_on, receipt
		FROM invoices WHERE card_id = ? AND period = ?`, cardID, p.String())
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Invoice{}, fmt.Errorf("invoice %s %s: %w", cardID, p, store.ErrNotFound)
	}
	return inv, err
}

// SaveInvoice inserts or replaces one card's invoice status.
func (s *Store) SaveInvoice(ctx context.Context, inv model.Invoice) error {
	var amount, paidOn string
	if !inv.PaidAmount.IsZero() {
		amount = inv.PaidAmount.StringFixed(2)
	}
	if inv.PaidOn != (civil.Date{}) {
		paidOn = inv.PaidOn.String()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO invoices (card_id, period, paid, paid_amount, paid_on, receipt)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(card_id, period) DO UPDATE SET paid = excluded.paid, paid_amount = excluded.paid_amount,
		paid_on = excluded.paid_on, receipt = excluded.receipt`,
		inv.CardID, inv.Period.String(), inv.Paid, amount, paidOn, inv.Receipt)
	if err != nil {
		return fmt.Errorf("save invoice %s %s: %w", inv.CardID, inv.Period, err)
	}
	return nil
}

// ListInvoices returns the invoices recorded for a period.
func (s *Store) ListInvoices(ctx context.Context, p billing.Period) ([]model.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT card_id, period, paid, paid_amount, paid_on, receipt
		FROM invoices WHERE period = ? ORDER BY card_id`, p.String())
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []model.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntries(rows *sql.Rows) ([]model.Entry, error) {
	defer rows.Close()
	var out []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(row scanner) (model.Entry, error) {
	var e model.Entry
	var kind, method, date, purchase, amt string
	if err := row.Scan(&e.ID, &kind, &date, &purchase, &e.Description, &amt, &e.Category, &e.Fixed,
		&method, &e.CardID, &e.Store, &e.Receipt, &e.Paid, &e.Installment, &e.Installments, &e.GroupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Entry{}, err
		}
		return model.Entry{}, fmt.Errorf("scan entry: %w", err)
	}

	e.Kind = model.Kind(kind)
	e.Method = model.Method(method)

	var err error
	if e.Date, err = civil.ParseDate(date); err != nil {
		return model.Entry{}, fmt.Errorf("entry %s: parsing date %q: %w", e.ID, date, err)
	}
	if purchase != "" {
		if e.PurchaseDate, err = civil.ParseDate(purchase); err != nil {
			return model.Entry{}, fmt.Errorf("entry %s: parsing purchase_date %q: %w", e.ID, purchase, err)
		}
	}
	if e.Amount, err = decimal.NewFromString(amt); err != nil {
		return model.Entry{}, fmt.Errorf("entry %s: parsing amount %q: %w", e.ID, amt, err)
	}
	if err := e.Validate(); err != nil {
		return model.Entry{}, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	return e, nil
}

func scanInvoice(row scanner) (model.Invoice, error) {
	var inv model.Invoice
	var period, amount, paidOn string
	if err := row.Scan(&inv.CardID, &period, &inv.Paid, &amount, &paidOn, &inv.Receipt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Invoice{}, err
		}
		return model.Invoice{}, fmt.Errorf("scan invoice: %w", err)
	}

	var err error
	if inv.Period, err = billing.ParsePeriod(period); err != nil {
		return model.Invoice{}, err
	}
	if amount != "" {
		if inv.PaidAmount, err = decimal.NewFromString(amount); err != nil {
			return model.Invoice{}, fmt.Errorf("parsing paid_amount %q: %w", amount, err)
		}
	}
	if paidOn != "" {
		if inv.PaidOn, err = civil.ParseDate(paidOn); err != nil {
			return model.Invoice{}, fmt.Errorf("parsing paid_on %q: %w", paidOn, err)
		}
	}
	return inv, nil
}

func entryArgs(e model.Entry) []any {
	var purchase string
	if e.PurchaseDate != (civil.Date{}) {
		purchase = e.PurchaseDate.String()
	}
	return []any{
		e.ID, string(e.Kind), e.Date.String(), purchase, e.Description, e.Amount.StringFixed(2),
		e.Category, e.Fixed, string(e.Method), e.CardID, e.Store, e.Receipt, e.Paid,
		e.Installment, e.Installments, e.GroupID,
	}
}

// maxSeq returns the highest sequence used by IDs allocated in p.
func maxSeq(ctx context.Context, tx *sql.Tx, p billing.Period) (int, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM entries WHERE id LIKE ?`, p.String()+"-%")
	if err != nil {
		return 0, fmt.Errorf("scan sequence for %s: %w", p, err)
	}
	defer rows.Close()

	highest := 0
	for rows.Next() {
		var entryID string
		if err := rows.Scan(&entryID); err != nil {
			return 0, fmt.Errorf("scan sequence for %s: %w", p, err)
		}
		if _, _, seq, err := id.ParseEntryID(entryID); err == nil && seq > highest {
			highest = seq
		}
	}
	return highest, rows.Err()
}

func validateForWrite(e model.Entry) error {
	if err := e.Validate(); err != nil {
		label := e.ID
		if label == "" {
			label = strings.TrimSpace(e.Description)
		}
		return fmt.Errorf("entry %q: %w", label, err)
	}
	return nil
}
