package sales

import "github.com/shopspring/decimal"

// DefaultTaxRate is the Peruvian IGV.
const DefaultTaxRate = 0.18

// ComputeTotals returns subtotal = Σ unit price × quantity, tax = subtotal ×
// rate and total = subtotal + tax. Each amount is rounded to cents.
func ComputeTotals(lines []Line, rate float64) Totals {
	return totals(lineSubtotal(lines), rate)
}

// RecordedTotals splits a stored sale into the amounts it was charged. The
// total is the stored one and tax is what it adds over the line subtotal, so
// a later tax-rate change does not alter old receipts.
func RecordedTotals(sale *Sale) Totals {
	subtotal := lineSubtotal(sale.Lines).Round(2)
	total := decimal.NewFromFloat(sale.Total).Round(2)

	return Totals{
		Subtotal: subtotal.InexactFloat64(),
		Tax:      total.Sub(subtotal).InexactFloat64(),
		Total:    total.InexactFloat64(),
	}
}

// TaxRateOf is the rate t was charged at, as a percentage with two decimals.
// Zero when there is no subtotal.
func TaxRateOf(t Totals) float64 {
	subtotal := decimal.NewFromFloat(t.Subtotal)
	if subtotal.IsZero() {
		return 0
	}
	return decimal.NewFromFloat(t.Tax).Div(subtotal).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

func lineSubtotal(lines []Line) decimal.Decimal {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return subtotal
}

// ComputeLineAmounts is ComputeTotals for a single line.
func ComputeLineAmounts(unitPrice float64, qty int, rate float64) Totals {
	return totals(decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(qty))), rate)
}

func totals(subtotal decimal.Decimal, rate float64) Totals {
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(decimal.NewFromFloat(rate)).Round(2)
	total := subtotal.Add(tax)

	return Totals{
		Subtotal: subtotal.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}
}
