package calculation

import (
	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/rgehrsitz/taxengine/internal/rules"
	"github.com/shopspring/decimal"
)

// StandardDeduction returns the table amount for the filing status plus the additional
// amount for each filer who is 65 or older or blind.
func StandardDeduction(rs *rules.RuleSet, fs domain.FilingStatus, taxpayer domain.Person, spouse *domain.Person) decimal.Decimal {
	amount := rs.StandardDeduction(fs)

	extra := rs.AdditionalDeductionUnmarried
	if fs.Married() {
		extra = rs.AdditionalDeductionMarried
	}
	if extra.IsZero() {
		return amount
	}
	conditions := additionalConditions(taxpayer)
	if spouse != nil && fs.Joint() {
		conditions += additionalConditions(*spouse)
	}
	return amount.Add(extra.Mul(decimal.NewFromInt(int64(conditions))))
}

func additionalConditions(p domain.Person) int {
	n := 0
	if p.Age >= 65 {
		n++
	}
	if p.Blind {
		n++
	}
	return n
}

// ResolveDeduction picks the deduction for a profile under rs. An itemized election with a
// positive amount takes the larger of the standard amount and the (capped) itemized amount.
func ResolveDeduction(rs *rules.RuleSet, p *domain.TaxpayerProfile) domain.DeductionResult {
	standard := StandardDeduction(rs, p.FilingStatus, p.Taxpayer, p.Spouse)
	res := domain.DeductionResult{
		Method:   domain.StandardDeduction,
		Standard: standard,
		Amount:   standard,
	}
	if p.Deduction.Method != domain.ItemizedDeduction || p.Deduction.ItemizedAmount == nil || !p.Deduction.ItemizedAmount.IsPositive() {
		return res
	}
	itemized := *p.Deduction.ItemizedAmount
	if rs.ItemizedCap != nil {
		itemized = decimal.Min(itemized, *rs.ItemizedCap)
	}
	res.Itemized = itemized
	if itemized.GreaterThan(standard) {
		res.Method = domain.ItemizedDeduction
		res.Amount = itemized
	}
	return res
}

// TaxableIncome is income less the deduction, floored at zero.
func TaxableIncome(income, deduction decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, income.Sub(deduction))
}
