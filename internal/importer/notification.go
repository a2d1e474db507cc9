package importer

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// NotificationParser reads Brazilian bank SMS and push notifications.
type NotificationParser struct{}

const (
	minMerchant = 3
	maxMerchant = 50
)

// Matches "R$ 1.234,56", "R$1234,56", "R$ 1234.56" and "R$50.00".
var amountRe = regexp.MustCompile(`(?i)R\$\s*([\d.,]+)`)

// Merchant patterns, most specific first. The first match wins.
var merchantRes = []*regexp.Regexp{
	// "compra aprovada de R$ X em LOJA"
	regexp.MustCompile(`(?i)compra\s+(?:aprovada?|autorizada?|realizada?|efetuada?)(?:\s+(?:de|no\s+valor\s+de)\s+R\$[^\n]+?)?\s+(?:em|na|no)\s+([^\n\r.]{3,40}?)(?:\s+R\$|\s+no\s+valor|\s+aprovad|\s*[.\n]|$)`),
	// "débito em LOJA", "pagamento no LOJA"
	regexp.MustCompile(`(?i)(?:d[eé]bito|cr[eé]dito|pagamento|compra)\s+(?:realizado[as]?\s+)?(?:em|na|no)\s+([^\n\rR$.]{3,40}?)(?:\s+R\$|\s+no\s+valor|\s*[.\n]|$)`),
	// "LOJA R$ 10,00"
	regexp.MustCompile(`(?im)^([A-ZÁÉÍÓÚÂÊÎÔÛÃÕÇ][A-ZÁÉÍÓÚÂÊÎÔÛÃÕÇ\s]{2,39}?)\s+R\$`),
	// "Lançamento em LOJA"
	regexp.MustCompile(`(?i)lan[çc]amento\s+em\s+([^\n\rR$.]{3,40}?)(?:\s+R\$|\s*[.\n]|$)`),
	// "debitado de LOJA"
	regexp.MustCompile(`(?i)debitado\s+(?:de\s+)?([^\n\rR$.]{3,40}?)(?:\s+R\$|\s*[.\n]|$)`),
}

// Format returns the parser name.
func (p *NotificationParser) Format() string { return "notification" }

// Parse reads the whole text and extracts what it can.
func (p *NotificationParser) Parse(r io.Reader) (Notification, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Notification{}, fmt.Errorf("reading notification: %w", err)
	}
	return ParseText(string(data)), nil
}

// ParseText extracts amount, merchant and description from text. Blank text
// yields an empty Notification.
func ParseText(text string) Notification {
	var n Notification
	if strings.TrimSpace(text) == "" {
		return n
	}

	if amount, ok := parseAmount(text); ok {
		n.Amount = decimal.NullDecimal{Decimal: amount, Valid: true}
	}

	for _, re := range merchantRes {
		m := re.FindStringSubmatch(text)
		if m == nil || m[1] == "" {
			continue
		}
		merchant := strings.Join(strings.Fields(m[1]), " ")
		if l := len([]rune(merchant)); l >= minMerchant && l <= maxMerchant {
			n.Merchant = merchant
			n.Description = "Compra em " + merchant
			break
		}
	}

	if n.Description == "" && n.Amount.Valid {
		n.Description = "Compra"
	}
	return n
}

// parseAmount reads the first R$ amount. A comma marks the Brazilian
// format, where dots group thousands.
func parseAmount(text string) (decimal.Decimal, bool) {
	m := amountRe.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero, false
	}
	raw := strings.TrimRight(m[1], ".,")
	if strings.Contains(m[1], ",") {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.Replace(raw, ",", ".", 1)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount, true
}
