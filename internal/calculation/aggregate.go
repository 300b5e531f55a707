package calculation

import (
	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/shopspring/decimal"
)

// Aggregate merges federal and state results into one CalculationResult. It is a pure
// function of its inputs.
func Aggregate(p *domain.TaxpayerProfile, fed *domain.FederalResult, states []domain.StateResult, warnings []domain.Warning) *domain.CalculationResult {
	sum := domain.Summary{
		TotalTaxLiability: fed.TotalTaxLiability,
		TotalWithheld:     fed.TotalWithheld,
		TotalPayments:     fed.TotalPayments,
		RefundableCredits: fed.RefundableCredits,
	}
	for _, s := range states {
		sum.TotalTaxLiability = sum.TotalTaxLiability.Add(s.TotalTaxLiability)
		sum.TotalWithheld = sum.TotalWithheld.Add(s.TotalWithheld)
		sum.TotalPayments = sum.TotalPayments.Add(s.TotalWithheld).Add(s.EstimatedPayments)
		sum.RefundableCredits = sum.RefundableCredits.Add(s.RefundableCredits)
	}
	sum.TotalRefund = sum.TotalPayments.Add(sum.RefundableCredits).Sub(sum.TotalTaxLiability)

	return &domain.CalculationResult{
		ProfileID: p.ID,
		TaxYear:   p.TaxYear,
		Federal:   *fed,
		States:    states,
		Summary:   sum,
		Warnings:  warnings,
	}
}

// Owed is the balance due, zero when the result is a refund.
func Owed(r *domain.CalculationResult) decimal.Decimal {
	return decimal.Max(decimal.Zero, r.Summary.TotalRefund.Neg())
}
