package purchases

import "github.com/shopspring/decimal"

// totalTolerance is how far a declared purchase amount may be from the sum
// of its lines.
const totalTolerance = 0.005

// Total returns Σ units × unit price of lines, rounded to cents.
func Total(lines []Line) float64 {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Units))))
	}
	return sum.Round(2).InexactFloat64()
}

func matchesTotal(declared, computed float64) bool {
	diff := decimal.NewFromFloat(declared).Sub(decimal.NewFromFloat(computed)).Abs()
	return diff.LessThanOrEqual(decimal.NewFromFloat(totalTolerance))
}
