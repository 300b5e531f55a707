package calculation

import (
	"github.com/rgehrsitz/taxengine/internal/rules"
	"github.com/shopspring/decimal"
)

// BracketTax applies a marginal-rate table to taxable income. Each band taxes the part of
// income between its bounds; the sum is rounded half-up to cents once, at the end.
// Income at or below zero owes nothing.
func BracketTax(table rules.BracketTable, income decimal.Decimal) decimal.Decimal {
	if !income.IsPositive() {
		return decimal.Zero
	}
	var total decimal.Decimal
	for _, b := range table {
		if income.LessThanOrEqual(b.Lower) {
			break
		}
		top := income
		if !b.Unbounded {
			top = decimal.Min(income, b.Upper)
		}
		total = total.Add(top.Sub(b.Lower).Mul(b.Rate))
	}
	return total.Round(2)
}

// MarginalRate returns the rate applied to the next dollar below income. Income that sits
// exactly on a boundary reports the lower band's rate.
func MarginalRate(table rules.BracketTable, income decimal.Decimal) decimal.Decimal {
	if len(table) == 0 {
		return decimal.Zero
	}
	for _, b := range table {
		if b.Unbounded || income.LessThanOrEqual(b.Upper) {
			return b.Rate
		}
	}
	return table[len(table)-1].Rate
}
