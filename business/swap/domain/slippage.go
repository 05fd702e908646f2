package domain

import "github.com/shopspring/decimal"

// Default slippage tolerances, in percent.
var (
	StableSlippagePct   = decimal.RequireFromString("0.1")
	VolatileSlippagePct = decimal.RequireFromString("0.3")
)

var hundred = decimal.NewFromInt(100)

// DefaultSlippagePct picks the tolerance for a pair.
func DefaultSlippagePct(p Pair, stable, volatile decimal.Decimal) decimal.Decimal {
	if p.IsStable() {
		return stable
	}
	return volatile
}

// SlippageFraction converts a percentage to the fraction the oracle expects.
func SlippageFraction(pct decimal.Decimal) decimal.Decimal {
	return pct.Div(hundred)
}
