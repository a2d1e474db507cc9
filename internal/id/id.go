package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// FormatEntryID returns an entry ID like "2026-03-001".
func FormatEntryID(year, month, seq int) string {
	return fmt.Sprintf("%04d-%02d-%03d", year, month, seq)
}

// ParseEntryID parses "2026-03-001" into year, month, seq.
func ParseEntryID(s string) (year, month, seq int, err error) {
	parts := strings.SplitN(s, "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid entry ID format: %q", s)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year in entry ID %q: %w", s, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid month in entry ID %q: %w", s, err)
	}
	if month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("month %d out of range in entry ID %q", month, s)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid sequence in entry ID %q: %w", s, err)
	}
	if seq < 1 {
		return 0, 0, 0, fmt.Errorf("sequence %d out of range in entry ID %q", seq, s)
	}

	return year, month, seq, nil
}

// NewGroupID mints a fresh installment group identifier.
func NewGroupID() string {
	return uuid.NewString()
}

// ValidGroupID reports whether s looks like a group identifier.
func ValidGroupID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
