package checkout

import (
	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the VAT rate applied when no tax_rate setting exists.
var DefaultTaxRate = decimal.NewFromFloat(0.12)

// PricedLine is one cart line with its authoritative price. UnitPrice
// comes from the catalog snapshot inside the transaction, never from the
// client payload.
type PricedLine struct {
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// Pricing is the server-computed money for one cart.
type Pricing struct {
	Lines    []PricedLine
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// price computes line totals, subtotal, tax and total. Tax is
// round(subtotal * rate, 2) with half-up rounding; decimal.Round rounds
// half away from zero, which for non-negative money is exactly half-up.
func price(lines []PricedLine, taxRate decimal.Decimal) Pricing {
	subtotal := decimal.Zero
	for i := range lines {
		lines[i].LineTotal = lines[i].UnitPrice.Mul(decimal.NewFromInt(int64(lines[i].Quantity)))
		subtotal = subtotal.Add(lines[i].LineTotal)
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(taxRate).Round(2)
	return Pricing{
		Lines:    lines,
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}
