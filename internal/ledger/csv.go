package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/carteira-dev/carteira/internal/billing"
	"github.com/carteira-dev/carteira/internal/model"
)

// Header is the CSV header for entries.csv.
const Header = "entry_id,kind,date,purchase_date,description,amount,category,fixed,method,card_id,store,receipt,paid,installment,installments,group_id"

const (
	numFields    = 16
	colEntryID   = 0
	colKind      = 1
	colDate      = 2
	colPurchase  = 3
	colDesc      = 4
	colAmount    = 5
	colCategory  = 6
	colFixed     = 7
	colMethod    = 8
	colCardID    = 9
	colStore     = 10
	colReceipt   = 11
	colPaid      = 12
	colInstIndex = 13
	colInstTotal = 14
	colGroupID   = 15
)

// InvoiceHeader is the CSV header for invoices.csv.
const InvoiceHeader = "card_id,period,paid,paid_amount,paid_on,receipt"

const (
	numInvoiceFields = 6
	colInvCard       = 0
	colInvPeriod     = 1
	colInvPaid       = 2
	colInvAmount     = 3
	colInvPaidOn     = 4
	colInvReceipt    = 5
)

// ReadEntries reads all entries from an entries.csv reader.
func ReadEntries(r io.Reader) ([]model.Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading entries CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var entries []model.Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// WriteEntries writes entries to an entries.csv writer (including header).
func WriteEntries(w io.Writer, entries []model.Entry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e model.Entry) []string {
	row := make([]string, numFields)
	row[colEntryID] = e.ID
	row[colKind] = string(e.Kind)
	row[colDate] = e.Date.String()
	if e.PurchaseDate != (civil.Date{}) {
		row[colPurchase] = e.PurchaseDate.String()
	}
	row[colDesc] = e.Description
	row[colAmount] = e.Amount.StringFixed(2)
	row[colCategory] = e.Category
	row[colFixed] = strconv.FormatBool(e.Fixed)
	row[colMethod] = string(e.Method)
	row[colCardID] = e.CardID
	row[colStore] = e.Store
	row[colReceipt] = e.Receipt
	row[colPaid] = strconv.FormatBool(e.Paid)
	if e.InGroup() {
		row[colInstIndex] = strconv.Itoa(e.Installment)
		row[colInstTotal] = strconv.Itoa(e.Installments)
	}
	row[colGroupID] = e.GroupID
	return row
}

// UnmarshalEntry converts a CSV row to an Entry. The row is parsed, not
// validated; see ValidateEntries.
func UnmarshalEntry(record []string) (model.Entry, error) {
	if len(record) != numFields {
		return model.Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := civil.ParseDate(record[colDate])
	if err != nil {
		return model.Entry{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	var purchase civil.Date
	if record[colPurchase] != "" {
		purchase, err = civil.ParseDate(record[colPurchase])
		if err != nil {
			return model.Entry{}, fmt.Errorf("parsing purchase_date %q: %w", record[colPurchase], err)
		}
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Entry{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	fixed, err := parseBool(record[colFixed])
	if err != nil {
		return model.Entry{}, fmt.Errorf("parsing fixed: %w", err)
	}
	paid, err := parseBool(record[colPaid])
	if err != nil {
		return model.Entry{}, fmt.Errorf("parsing paid: %w", err)
	}

	var index, total int
	if record[colInstIndex] != "" {
		index, err = strconv.Atoi(record[colInstIndex])
		if err != nil {
			return model.Entry{}, fmt.Errorf("parsing installment %q: %w", record[colInstIndex], err)
		}
	}
	if record[colInstTotal] != "" {
		total, err = strconv.Atoi(record[colInstTotal])
		if err != nil {
			return model.Entry{}, fmt.Errorf("parsing installments %q: %w", record[colInstTotal], err)
		}
	}

	return model.Entry{
		ID:           record[colEntryID],
		Kind:         model.Kind(record[colKind]),
		Description:  record[colDesc],
		Amount:       amount,
		Date:         date,
		PurchaseDate: purchase,
		Category:     record[colCategory],
		Fixed:        fixed,
		Method:       model.Method(record[colMethod]),
		CardID:       record[colCardID],
		Store:        record[colStore],
		Receipt:      record[colReceipt],
		Paid:         paid,
		Installment:  index,
		Installments: total,
		GroupID:      record[colGroupID],
	}, nil
}

// ReadInvoices reads invoices.csv.
func ReadInvoices(r io.Reader) ([]model.Invoice, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numInvoiceFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading invoices CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var invoices []model.Invoice
	for i, rec := range records[1:] {
		inv, err := UnmarshalInvoice(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

// WriteInvoices writes invoices.csv (including header).
func WriteInvoices(w io.Writer, invoices []model.Invoice) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(InvoiceHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, inv := range invoices {
		if err := cw.Write(MarshalInvoice(inv)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalInvoice converts an Invoice to a CSV row.
func MarshalInvoice(inv model.Invoice) []string {
	row := make([]string, numInvoiceFields)
	row[colInvCard] = inv.CardID
	row[colInvPeriod] = inv.Period.String()
	row[colInvPaid] = strconv.FormatBool(inv.Paid)
	if !inv.PaidAmount.IsZero() {
		row[colInvAmount] = inv.PaidAmount.StringFixed(2)
	}
	if inv.PaidOn != (civil.Date{}) {
		row[colInvPaidOn] = inv.PaidOn.String()
	}
	row[colInvReceipt] = inv.Receipt
	return row
}

// UnmarshalInvoice converts a CSV row to an Invoice.
func UnmarshalInvoice(record []string) (model.Invoice, error) {
	if len(record) != numInvoiceFields {
		return model.Invoice{}, fmt.Errorf("expected %d fields, got %d", numInvoiceFields, len(record))
	}

	period, err := billing.ParsePeriod(record[colInvPeriod])
	if err != nil {
		return model.Invoice{}, err
	}
	paid, err := parseBool(record[colInvPaid])
	if err != nil {
		return model.Invoice{}, fmt.Errorf("parsing paid: %w", err)
	}

	var amount decimal.Decimal
	if record[colInvAmount] != "" {
		amount, err = decimal.NewFromString(record[colInvAmount])
		if err != nil {
			return model.Invoice{}, fmt.Errorf("parsing paid_amount %q: %w", record[colInvAmount], err)
		}
	}

	var paidOn civil.Date
	if record[colInvPaidOn] != "" {
		paidOn, err = civil.ParseDate(record[colInvPaidOn])
		if err != nil {
			return model.Invoice{}, fmt.Errorf("parsing paid_on %q: %w", record[colInvPaidOn], err)
		}
	}

	return model.Invoice{
		CardID:     record[colInvCard],
		Period:     period,
		Paid:       paid,
		PaidAmount: amount,
		PaidOn:     paidOn,
		Receipt:    record[colInvReceipt],
	}, nil
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}
