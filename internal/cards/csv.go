package cards

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/carteira-dev/carteira/internal/model"
)

const (
	numFields      = 9
	colID          = 0
	colName        = 1
	colInstitution = 2
	colBrand       = 3
	colLastFour    = 4
	colLimit       = 5
	colClosingDay  = 6
	colDueDay      = 7
	colColor       = 8
)

var header = []string{"card_id", "name", "institution", "brand", "last_four", "credit_limit", "closing_day", "due_day", "color"}

// ReadCards reads cards.csv. Every row is validated.
func ReadCards(r io.Reader) ([]model.Card, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading cards CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var cards []model.Card
	for i, rec := range records[1:] {
		c, err := UnmarshalCard(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// WriteCards writes cards.csv.
func WriteCards(w io.Writer, cards []model.Card) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, c := range cards {
		if err := cw.Write(MarshalCard(c)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalCard converts a Card to a CSV row.
func MarshalCard(c model.Card) []string {
	row := make([]string, numFields)
	row[colID] = c.ID
	row[colName] = c.Name
	row[colInstitution] = c.Institution
	row[colBrand] = c.Brand
	row[colLastFour] = c.LastFour
	if !c.Limit.IsZero() {
		row[colLimit] = c.Limit.StringFixed(2)
	}
	row[colClosingDay] = strconv.Itoa(c.ClosingDay)
	row[colDueDay] = strconv.Itoa(c.DueDay)
	row[colColor] = c.Color
	return row
}

// UnmarshalCard converts a CSV row to a Card.
func UnmarshalCard(record []string) (model.Card, error) {
	if len(record) != numFields {
		return model.Card{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	closing, err := strconv.Atoi(record[colClosingDay])
	if err != nil {
		return model.Card{}, fmt.Errorf("parsing closing_day %q: %w", record[colClosingDay], err)
	}
	due, err := strconv.Atoi(record[colDueDay])
	if err != nil {
		return model.Card{}, fmt.Errorf("parsing due_day %q: %w", record[colDueDay], err)
	}

	var limit decimal.Decimal
	if record[colLimit] != "" {
		limit, err = decimal.NewFromString(record[colLimit])
		if err != nil {
			return model.Card{}, fmt.Errorf("parsing credit_limit %q: %w", record[colLimit], err)
		}
	}

	return model.Card{
		ID:          record[colID],
		Name:        record[colName],
		Institution: record[colInstitution],
		Brand:       record[colBrand],
		LastFour:    record[colLastFour],
		Limit:       limit,
		ClosingDay:  closing,
		DueDay:      due,
		Color:       record[colColor],
	}, nil
}
