// Package ledger stores entries as plain CSV files, one file per effective
// month, so the data directory stays readable and diffable under git.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"github.com/carteira-dev/carteira/internal/billing"
	"github.com/carteira-dev/carteira/internal/id"
	"github.com/carteira-dev/carteira/internal/model"
	"github.com/carteira-dev/carteira/internal/store"
)

// Ledger implements store.EntryStore and store.InvoiceStore on top of
// <repo>/ledger/YYYY/MM/entries.csv and <repo>/ledger/invoices.csv.
type Ledger struct {
	repoRoot string
	mu       sync.Mutex
}

var (
	_ store.EntryStore   = (*Ledger)(nil)
	_ store.InvoiceStore = (*Ledger)(nil)
)

// New creates a Ledger rooted at a data directory.
func New(repoRoot string) *Ledger {
	return &Ledger{repoRoot: repoRoot}
}

// Dir returns the directory holding the month files.
func (l *Ledger) Dir() string {
	return filepath.Join(l.repoRoot, "ledger")
}

// InsertEntries assigns IDs in each entry's effective month and writes the
// batch. Nothing is written if any affected month fails validation.
func (l *Ledger) InsertEntries(ctx context.Context, entries []model.Entry) ([]model.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	seqs, err := l.maxSeqs()
	if err != nil {
		return nil, err
	}

	out := make([]model.Entry, len(entries))
	touched := make(map[billing.Period][]model.Entry)
	for i, e := range entries {
		p := billing.PeriodOf(e.Date)
		if _, ok := touched[p]; !ok {
			existing, err := l.ReadMonth(p)
			if err != nil {
				return nil, err
			}
			touched[p] = existing
		}
		seqs[p]++
		e.ID = id.FormatEntryID(p.Year, int(p.Month), seqs[p])
		out[i] = e
		touched[p] = append(touched[p], e)
	}

	if err := l.commit(touched); err != nil {
		return nil, err
	}
	return out, nil
}

// GetEntry returns an entry by ID.
func (l *Ledger) GetEntry(ctx context.Context, entryID string) (model.Entry, error) {
	if err := ctx.Err(); err != nil {
		return model.Entry{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	// Entries usually live in the month their ID was allocated in; edits
	// can move them, so fall back to a full scan.
	if year, month, _, err := id.ParseEntryID(entryID); err == nil {
		home, err := l.ReadMonth(billing.Period{Year: year, Month: time.Month(month)})
		if err != nil {
			return model.Entry{}, err
		}
		if i := indexOf(home, entryID); i >= 0 {
			return home[i], nil
		}
	}

	all, err := l.loadAll()
	if err != nil {
		return model.Entry{}, err
	}
	for _, month := range all {
		if i := indexOf(month, entryID); i >= 0 {
			return month[i], nil
		}
	}
	return model.Entry{}, fmt.Errorf("entry %s: %w", entryID, store.ErrNotFound)
}

// UpdateEntries replaces entries by ID, moving them between month files
// when their effective date changes month.
func (l *Ledger) UpdateEntries(ctx context.Context, entries []model.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.loadAll()
	if err != nil {
		return err
	}

	touched := make(map[billing.Period]bool)
	for _, e := range entries {
		from, i := find(all, e.ID)
		if i < 0 {
			return fmt.Errorf("entry %s: %w", e.ID, store.ErrNotFound)
		}
		to := billing.PeriodOf(e.Date)
		if from == to {
			all[from][i] = e
		} else {
			all[from] = slices.Delete(all[from], i, i+1)
			all[to] = append(all[to], e)
		}
		touched[from] = true
		touched[to] = true
	}

	return l.commit(pick(all, touched))
}

// DeleteEntries removes entries by ID.
func (l *Ledger) DeleteEntries(ctx context.Context, ids ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.loadAll()
	if err != nil {
		return err
	}

	touched := make(map[billing.Period]bool)
	for _, entryID := range ids {
		p, i := find(all, entryID)
		if i < 0 {
			return fmt.Errorf("entry %s: %w", entryID, store.ErrNotFound)
		}
		all[p] = slices.Delete(all[p], i, i+1)
		touched[p] = true
	}

	return l.commit(pick(all, touched))
}

// ListEntries returns entries with from <= Date < to.
func (l *Ledger) ListEntries(ctx context.Context, from, to civil.Date) ([]model.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []model.Entry
	for _, p := range billing.PeriodsBetween(from, to) {
		month, err := l.ReadMonth(p)
		if err != nil {
			return nil, err
		}
		for _, e := range month {
			if !e.Date.Before(from) && e.Date.Before(to) {
				out = append(out, e)
			}
		}
	}
	store.SortEntries(out)
	return out, nil
}

// ListGroup returns every installment of a group ordered by index.
func (l *Ledger) ListGroup(ctx context.Context, groupID string) ([]model.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.loadAll()
	if err != nil {
		return nil, err
	}

	var out []model.Entry
	for _, month := range all {
		for _, e := range month {
			if e.GroupID == groupID {
				out = append(out, e)
			}
		}
	}
	slices.SortFunc(out, func(a, b model.Entry) int { return a.Installment - b.Installment })
	return out, nil
}

// ReadMonth reads all entries stored for a period. A missing file is an
// empty month.
func (l *Ledger) ReadMonth(p billing.Period) ([]model.Entry, error) {
	path := l.monthPath(p)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	defer f.Close()

	entries, err := ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}
	return entries, nil
}

// Months lists the periods that have a month file, oldest first.
func (l *Ledger) Months() ([]billing.Period, error) {
	matches, err := filepath.Glob(filepath.Join(l.Dir(), "[0-9][0-9][0-9][0-9]", "[0-9][0-9]", "entries.csv"))
	if err != nil {
		return nil, fmt.Errorf("listing ledger months: %w", err)
	}

	var out []billing.Period
	for _, m := range matches {
		rel, err := filepath.Rel(l.Dir(), filepath.Dir(m))
		if err != nil {
			continue
		}
		p, err := billing.ParsePeriod(strings.ReplaceAll(filepath.ToSlash(rel), "/", "-"))
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	slices.SortFunc(out, billing.Period.Compare)
	return out, nil
}

// Validate checks every month file and returns all violations.
func (l *Ledger) Validate() ([]ValidationError, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	months, err := l.Months()
	if err != nil {
		return nil, err
	}
	var errs []ValidationError
	for _, p := range months {
		entries, err := l.ReadMonth(p)
		if err != nil {
			return nil, err
		}
		errs = append(errs, ValidateEntries(entries, p)...)
	}
	return errs, nil
}

func (l *Ledger) loadAll() (map[billing.Period][]model.Entry, error) {
	months, err := l.Months()
	if err != nil {
		return nil, err
	}
	all := make(map[billing.Period][]model.Entry, len(months))
	for _, p := range months {
		entries, err := l.ReadMonth(p)
		if err != nil {
			return nil, err
		}
		all[p] = entries
	}
	return all, nil
}

// maxSeqs returns the highest sequence number used per ID month across the
// whole ledger, including entries that moved to another month file.
func (l *Ledger) maxSeqs() (map[billing.Period]int, error) {
	all, err := l.loadAll()
	if err != nil {
		return nil, err
	}
	seqs := make(map[billing.Period]int)
	for _, month := range all {
		for _, e := range month {
			year, m, seq, err := id.ParseEntryID(e.ID)
			if err != nil {
				continue
			}
			p := billing.Period{Year: year, Month: time.Month(m)}
			if seq > seqs[p] {
				seqs[p] = seq
			}
		}
	}
	return seqs, nil
}

// commit validates every touched month, then replaces the files. Empty
// months are removed.
func (l *Ledger) commit(touched map[billing.Period][]model.Entry) error {
	periods := slices.SortedFunc(maps.Keys(touched), billing.Period.Compare)
	for _, p := range periods {
		if verrs := ValidateEntries(touched[p], p); len(verrs) > 0 {
			return validationFailed(p, verrs)
		}
	}

	staged := make(map[string]string, len(touched))
	cleanup := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}

	for _, p := range periods {
		entries := touched[p]
		path := l.monthPath(p)
		if len(entries) == 0 {
			staged[path] = ""
			continue
		}
		tmp, err := writeTemp(path, func(f *os.File) error {
			store.SortEntries(entries)
			return WriteEntries(f, entries)
		})
		if err != nil {
			cleanup()
			return err
		}
		staged[path] = tmp
	}

	for path, tmp := range staged {
		if tmp == "" {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("removing empty month %s: %w", path, err)
			}
			continue
		}
		if err := os.Rename(tmp, path); err != nil {
			return fmt.Errorf("replacing %s: %w", path, err)
		}
	}
	return nil
}

func (l *Ledger) monthPath(p billing.Period) string {
	return filepath.Join(l.Dir(), fmt.Sprintf("%04d", p.Year), fmt.Sprintf("%02d", int(p.Month)), "entries.csv")
}

// writeTemp writes a sibling temp file of path and returns its name.
func writeTemp(path string, write func(*os.File) error) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating ledger dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return f.Name(), nil
}

func pick(all map[billing.Period][]model.Entry, periods map[billing.Period]bool) map[billing.Period][]model.Entry {
	out := make(map[billing.Period][]model.Entry, len(periods))
	for p := range periods {
		out[p] = all[p]
	}
	return out
}

func find(all map[billing.Period][]model.Entry, entryID string) (billing.Period, int) {
	for p, month := range all {
		if i := indexOf(month, entryID); i >= 0 {
			return p, i
		}
	}
	return billing.Period{}, -1
}

func indexOf(entries []model.Entry, entryID string) int {
	return slices.IndexFunc(entries, func(e model.Entry) bool { return e.ID == entryID })
}
