package calculation

import (
	"fmt"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/rgehrsitz/taxengine/internal/rules"
	"github.com/shopspring/decimal"
)

// SuspiciousWithholdingTolerance is how far total withholding on a wage source may exceed
// its gross before the source is flagged.
var SuspiciousWithholdingTolerance = decimal.NewFromInt(1)

// FederalCalculator computes the federal portion of a return from one rule set.
type FederalCalculator struct {
	rules   *rules.RuleSet
	payroll *PayrollCalculator
}

// NewFederalCalculator creates a calculator for a compiled federal rule set.
func NewFederalCalculator(rs *rules.RuleSet) *FederalCalculator {
	return &FederalCalculator{rules: rs, payroll: NewPayrollCalculator(rs.Payroll)}
}

// Calculate runs the federal pipeline: AGI, deduction, bracket tax, credits, other taxes
// and payments. The profile must already be valid.
func (fc *FederalCalculator) Calculate(p *domain.TaxpayerProfile) (*domain.FederalResult, error) {
	rs := fc.rules
	if rs.Jurisdiction != domain.Federal {
		return nil, fmt.Errorf("federal calculator given %s rule set", rs.Jurisdiction)
	}
	if rs.Year != p.TaxYear {
		return nil, domain.Unsupported(p.TaxYear, domain.Federal)
	}

	payroll := fc.payroll.Calculate(p)

	totalIncome := decimal.Zero
	withheld := decimal.Zero
	for _, src := range p.Income {
		totalIncome = totalIncome.Add(src.Contribution())
		withheld = withheld.Add(src.FederalWithheld())
	}
	adjustments := fc.adjustments(p).Add(payroll.SelfEmploymentDeduction)
	agi := decimal.Max(decimal.Zero, totalIncome.Sub(adjustments))

	deduction := ResolveDeduction(rs, p)
	taxable := TaxableIncome(agi, deduction.Amount)
	table := rs.Brackets(p.FilingStatus)
	grossTax := BracketTax(table, taxable)

	credits := ApplyCredits(rs.Credits, CreditContext{
		FilingStatus:      p.FilingStatus,
		AGI:               agi,
		EarnedIncome:      p.EarnedIncome(),
		Dependents:        p.Dependents,
		QualifiedExpenses: p.EducationExpenses,
	}, grossTax)

	other := domain.OtherTaxes{
		SelfEmploymentTax:     payroll.SelfEmploymentTax,
		AdditionalMedicareTax: payroll.AdditionalMedicareTax,
	}
	other.Total = other.SelfEmploymentTax.Add(other.AdditionalMedicareTax)

	liability := credits.Liability.Add(other.Total)
	estimated := p.EstimatedPayments[domain.Federal]
	payments := withheld.Add(estimated).Add(payroll.ExcessSocialSecurity)

	res := &domain.FederalResult{
		TaxYear:              p.TaxYear,
		RuleSetVersion:       rs.Version,
		FilingStatus:         p.FilingStatus,
		TotalIncome:          totalIncome,
		Adjustments:          adjustments,
		AGI:                  agi,
		Deduction:            deduction,
		TaxableIncome:        taxable,
		GrossTax:             grossTax,
		Credits:              credits.Applied,
		NonrefundableCredits: credits.Nonrefundable,
		RefundableCredits:    credits.Refundable,
		OtherTaxes:           other,
		TotalTaxLiability:    liability,
		TotalWithheld:        withheld,
		EstimatedPayments:    estimated,
		ExcessSocialSecurity: payroll.ExcessSocialSecurity,
		TotalPayments:        payments,
		TotalRefund:          payments.Add(credits.Refundable).Sub(liability),
		EffectiveRate:        effectiveRate(liability, agi),
		MarginalRate:         MarginalRate(table, taxable),
	}
	return res, nil
}

// adjustments sums the above-the-line adjustments, each limited by its statutory cap.
func (fc *FederalCalculator) adjustments(p *domain.TaxpayerProfile) decimal.Decimal {
	caps := fc.rules.AdjustmentCaps
	return capped(p.Adjustments.StudentLoanInterest, caps.StudentLoanInterest).
		Add(capped(p.Adjustments.EducatorExpenses, caps.EducatorExpenses)).
		Add(capped(p.Adjustments.HSADeduction, caps.HSADeduction))
}

func capped(v decimal.Decimal, limit *decimal.Decimal) decimal.Decimal {
	if limit == nil {
		return v
	}
	return decimal.Min(v, *limit)
}

func effectiveRate(liability, income decimal.Decimal) decimal.Decimal {
	if !income.IsPositive() {
		return decimal.Zero
	}
	return liability.Div(income).Round(4)
}

// WithholdingWarnings flags wage sources whose combined withholding exceeds gross wages by
// more than SuspiciousWithholdingTolerance. These never stop a calculation.
func WithholdingWarnings(p *domain.TaxpayerProfile) []domain.Warning {
	var out []domain.Warning
	for i, src := range p.Income {
		if src.Kind() != domain.WageIncomeKind {
			continue
		}
		w := src.Wages
		total := w.FederalWithheld.Add(w.SocialSecurityWithheld).Add(w.MedicareWithheld).Add(w.StateWithheld)
		if total.Sub(w.Gross).GreaterThan(SuspiciousWithholdingTolerance) {
			out = append(out, domain.Warning{
				Code:         domain.SuspiciousInput,
				Field:        fmt.Sprintf("income[%d].wages", i),
				Jurisdiction: src.SourceJurisdiction(p.ResidentJurisdiction),
				Message: fmt.Sprintf("withholding of %s exceeds gross wages of %s from %s",
					total.StringFixed(2), w.Gross.StringFixed(2), w.Employer),
			})
		}
	}
	return out
}
