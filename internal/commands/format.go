package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/carteira-dev/carteira/internal/billing"
)

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// brl formats an amount as Brazilian reais, e.g. "R$ 1.234,56".
func brl(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	s := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	return sign + "R$ " + b.String() + "," + frac
}

// parseMoney accepts "1234.56" as well as the Brazilian "1.234,56".
func parseMoney(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if strings.Contains(raw, ",") {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.Replace(raw, ",", ".", 1)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

// brDate formats a date as dd/mm/yyyy.
func brDate(d civil.Date) string {
	if d == (civil.Date{}) {
		return ""
	}
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

func monthTitle(p billing.Period) string {
	return fmt.Sprintf("%s %d", monthNames[p.Month-1], p.Year)
}

// parseDate parses YYYY-MM-DD; empty means today.
func parseDate(s string) (civil.Date, error) {
	if s == "" {
		return civil.DateOf(now()), nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return d, nil
}

// parseMonth parses YYYY-MM; empty means the current month.
func parseMonth(s string) (billing.Period, error) {
	if s == "" {
		return billing.PeriodOf(civil.DateOf(now())), nil
	}
	return billing.ParsePeriod(s)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}
