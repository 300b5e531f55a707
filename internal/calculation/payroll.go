package calculation

import (
	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/rgehrsitz/taxengine/internal/rules"
	"github.com/shopspring/decimal"
)

// Net self-employment earnings below this amount owe no self-employment tax.
var minSelfEmploymentEarnings = decimal.NewFromInt(400)

var two = decimal.NewFromInt(2)

// earner is one person's payroll picture on a return.
type earner struct {
	wages          decimal.Decimal
	ssWithheld     decimal.Decimal
	employers      int
	selfEmployment decimal.Decimal // net profit, may be negative
}

// PayrollTaxes are the federal taxes and payments derived from payroll rules.
type PayrollTaxes struct {
	SelfEmploymentTax       decimal.Decimal
	SelfEmploymentDeduction decimal.Decimal // deductible half of SE tax
	AdditionalMedicareTax   decimal.Decimal
	ExcessSocialSecurity    decimal.Decimal // withheld beyond the wage base across employers
}

// PayrollCalculator handles self-employment tax, additional Medicare tax and FICA
// reconciliation for one year's payroll rules.
type PayrollCalculator struct {
	rules *rules.Payroll
}

// NewPayrollCalculator creates a payroll calculator for p.
func NewPayrollCalculator(p *rules.Payroll) *PayrollCalculator {
	return &PayrollCalculator{rules: p}
}

// Calculate computes payroll taxes for the profile. Wages and business income are tracked
// per earner so each person has their own wage base.
func (pc *PayrollCalculator) Calculate(p *domain.TaxpayerProfile) PayrollTaxes {
	var out PayrollTaxes
	if pc == nil || pc.rules == nil {
		return out
	}
	var combinedEarnings decimal.Decimal
	for _, e := range splitEarners(p) {
		se, seEarnings := pc.SelfEmploymentTax(e.selfEmployment, e.wages)
		out.SelfEmploymentTax = out.SelfEmploymentTax.Add(se)
		out.ExcessSocialSecurity = out.ExcessSocialSecurity.Add(pc.ExcessSocialSecurity(e.wages, e.ssWithheld, e.employers))
		combinedEarnings = combinedEarnings.Add(e.wages).Add(seEarnings)
	}
	out.SelfEmploymentDeduction = out.SelfEmploymentTax.Div(two).Round(2)
	out.AdditionalMedicareTax = pc.AdditionalMedicareTax(p.FilingStatus, combinedEarnings)
	return out
}

// SelfEmploymentTax returns the tax on a net profit and the net earnings it was based on.
// Social security applies only to the part of the wage base wages have not used.
func (pc *PayrollCalculator) SelfEmploymentTax(netProfit, wages decimal.Decimal) (tax, earnings decimal.Decimal) {
	if !netProfit.IsPositive() {
		return decimal.Zero, decimal.Zero
	}
	r := pc.rules
	earnings = netProfit.Mul(r.SelfEmploymentEarningsFactor).Round(2)
	if earnings.LessThan(minSelfEmploymentEarnings) {
		return decimal.Zero, decimal.Zero
	}
	remainingBase := decimal.Max(decimal.Zero, r.SocialSecurityWageBase.Sub(wages))
	ss := decimal.Min(earnings, remainingBase).Mul(r.SelfEmploymentSocialSecurityRate)
	medicare := earnings.Mul(r.SelfEmploymentMedicareRate)
	return ss.Add(medicare).Round(2), earnings
}

// AdditionalMedicareTax applies the additional rate to wages and self-employment earnings
// above the filing-status threshold.
func (pc *PayrollCalculator) AdditionalMedicareTax(fs domain.FilingStatus, earnings decimal.Decimal) decimal.Decimal {
	excess := earnings.Sub(pc.rules.AdditionalMedicareThreshold[fs])
	if !excess.IsPositive() {
		return decimal.Zero
	}
	return excess.Mul(pc.rules.AdditionalMedicareRate).Round(2)
}

// ExcessSocialSecurity is social security withheld beyond the wage-base maximum. It is
// creditable only when more than one employer withheld; a single employer refunds its own error.
func (pc *PayrollCalculator) ExcessSocialSecurity(wages, withheld decimal.Decimal, employers int) decimal.Decimal {
	if employers < 2 {
		return decimal.Zero
	}
	ceiling := decimal.Min(wages, pc.rules.SocialSecurityWageBase).Mul(pc.rules.SocialSecurityRate).Round(2)
	return decimal.Max(decimal.Zero, withheld.Sub(ceiling))
}

func splitEarners(p *domain.TaxpayerProfile) []earner {
	var primary, spouse earner
	for _, src := range p.Income {
		var e *earner
		switch src.Kind() {
		case domain.WageIncomeKind:
			e = &primary
			if src.Wages.Spouse {
				e = &spouse
			}
			e.wages = e.wages.Add(src.Wages.Gross)
			e.ssWithheld = e.ssWithheld.Add(src.Wages.SocialSecurityWithheld)
			e.employers++
		case domain.SelfEmploymentIncomeKind:
			e = &primary
			if src.SelfEmployment.Spouse {
				e = &spouse
			}
			e.selfEmployment = e.selfEmployment.Add(src.SelfEmployment.NetProfit())
		}
	}
	return []earner{primary, spouse}
}
