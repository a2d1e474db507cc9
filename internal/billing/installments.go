package billing

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/carteira-dev/carteira/internal/id"
)

// MaxInstallments is the largest installment count accepted by callers.
const MaxInstallments = 48

// Purchase is the input to schedule generation.
type Purchase struct {
	Amount      decimal.Decimal
	Date        civil.Date // raw purchase date chosen by the user
	Description string
}

// Installment is one generated charge of a purchase.
type Installment struct {
	GroupID      string
	Index        int // 1-based
	Total        int
	Amount       decimal.Decimal
	Date         civil.Date // effective (invoice) date
	PurchaseDate civil.Date
	Description  string
}

// SplitAmount divides amount into count equal parts rounded half-up to
// cents. The remainder is not redistributed, so the parts may sum to within
// count × 0.005 of amount.
func SplitAmount(amount decimal.Decimal, count int) decimal.Decimal {
	return amount.DivRound(decimal.NewFromInt(int64(count)), 2)
}

// InstallmentDescription appends the "(i/n)" suffix to a description.
func InstallmentDescription(desc string, index, total int) string {
	return fmt.Sprintf("%s (%d/%d)", desc, index, total)
}

// GenerateInstallments splits p into count monthly installments billed on a
// card with the given closing day.
//
// The first installment lands on the resolved invoice date (the anchor).
// Installment i is the anchor moved by i-1 months, each computed from the
// anchor itself, so a Jan 31 anchor yields Feb 28 and then Mar 31. Every
// call mints a new group ID.
//
// count must be at least 1.
func GenerateInstallments(p Purchase, closingDay, count int) []Installment {
	if count < 1 {
		panic(fmt.Sprintf("billing: installment count %d must be at least 1", count))
	}

	anchor := ResolveInvoiceDate(p.Date, closingDay)
	amount := SplitAmount(p.Amount, count)
	group := id.NewGroupID()

	out := make([]Installment, count)
	for i := range out {
		n := i + 1
		out[i] = Installment{
			GroupID:      group,
			Index:        n,
			Total:        count,
			Amount:       amount,
			Date:         AddMonths(anchor, i),
			PurchaseDate: p.Date,
			Description:  InstallmentDescription(p.Description, n, count),
		}
	}
	return out
}
