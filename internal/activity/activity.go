// Package activity keeps the append-only log of every change made to a
// repository, in logs/activity-log.csv.
package activity

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Actions recorded by the commands.
const (
	ActionInit        = "init"
	ActionCardAdd     = "card_add"
	ActionCardEdit    = "card_edit"
	ActionCardRemove  = "card_rm"
	ActionEntryAdd    = "entry_add"
	ActionEntryEdit   = "entry_edit"
	ActionEntryRemove = "entry_rm"
	ActionInvoicePay  = "invoice_pay"
	ActionImport      = "import"
	ActionGoal        = "goal"
	ActionLock        = "lock"
)

// Record is one row in the activity log.
type Record struct {
	Timestamp  time.Time
	Actor      string
	Action     string
	Details    string
	EntryID    string
	CommitHash string
}

// Header is the CSV header for activity-log.csv.
const Header = "timestamp,actor,action,details,entry_id,commit_hash"

const (
	numFields     = 6
	logDir        = "logs"
	logFile       = "logs/activity-log.csv"
	colTimestamp  = 0
	colActor      = 1
	colAction     = 2
	colDetails    = 3
	colEntryID    = 4
	colCommitHash = 5
)

// Path returns the activity log of a repository.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, logFile)
}

// MarshalRecord converts a Record to a CSV row.
func MarshalRecord(r Record) []string {
	row := make([]string, numFields)
	row[colTimestamp] = r.Timestamp.UTC().Format(time.RFC3339)
	row[colActor] = r.Actor
	row[colAction] = r.Action
	row[colDetails] = r.Details
	row[colEntryID] = r.EntryID
	row[colCommitHash] = r.CommitHash
	return row
}

// UnmarshalRecord converts a CSV row to a Record.
func UnmarshalRecord(row []string) (Record, error) {
	if len(row) != numFields {
		return Record{}, fmt.Errorf("expected %d fields, got %d", numFields, len(row))
	}

	ts, err := time.Parse(time.RFC3339, row[colTimestamp])
	if err != nil {
		return Record{}, fmt.Errorf("parsing timestamp %q: %w", row[colTimestamp], err)
	}

	return Record{
		Timestamp:  ts,
		Actor:      row[colActor],
		Action:     row[colAction],
		Details:    row[colDetails],
		EntryID:    row[colEntryID],
		CommitHash: row[colCommitHash],
	}, nil
}

// Append adds records to the log, creating the file and header if needed.
func Append(repoRoot string, records ...Record) (err error) {
	if err := os.MkdirAll(filepath.Join(repoRoot, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := Path(repoRoot)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing activity log: %w", cerr)
		}
	}()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, r := range records {
		if err := cw.Write(MarshalRecord(r)); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns every record in the log, oldest first. A missing log yields
// no records.
func Read(repoRoot string) ([]Record, error) {
	f, err := os.Open(Path(repoRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	return readRecords(f)
}

// Tail returns the last n records, oldest first.
func Tail(repoRoot string, n int) ([]Record, error) {
	all, err := Read(repoRoot)
	if err != nil {
		return nil, err
	}
	if n >= 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

func readRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity log CSV: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	var records []Record
	for i, row := range rows[1:] {
		rec, err := UnmarshalRecord(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
