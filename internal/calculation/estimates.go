package calculation

import (
	"context"
	"fmt"
	"time"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/rgehrsitz/taxengine/internal/rules"
	"github.com/shopspring/decimal"
)

var quarters = decimal.NewFromInt(4)

// EstimateQuarterlyPayments builds next year's safe-harbor schedule for one jurisdiction
// of a completed result: that jurisdiction's current liability (scaled up for high-AGI
// filers when the rule set says so) paid in four installments. State rule sets without
// estimated tax parameters use 100% of the liability. The last installment absorbs
// rounding so the total is exact.
func EstimateQuarterlyPayments(result *domain.CalculationResult, rs *rules.RuleSet) (*domain.QuarterlyEstimate, error) {
	if rs.Year != result.TaxYear {
		return nil, fmt.Errorf("estimates need %d rule sets, got %s", result.TaxYear, rs.Key())
	}
	var liability decimal.Decimal
	if rs.Jurisdiction == domain.Federal {
		if rs.EstimatedTax == nil {
			return nil, domain.Malformed(rs.Year, rs.Jurisdiction, "estimated_tax", "rule set has no estimated tax parameters")
		}
		liability = result.Federal.TotalTaxLiability
	} else {
		st, ok := result.State(rs.Jurisdiction)
		if !ok {
			return nil, fmt.Errorf("result %q has no %s calculation to estimate from", result.ProfileID, rs.Jurisdiction)
		}
		liability = st.TotalTaxLiability
	}

	base := decimal.Max(decimal.Zero, liability)
	rate := decimal.NewFromInt(1)
	if et := rs.EstimatedTax; et != nil {
		rate = et.SafeHarborRate
		if result.Federal.AGI.GreaterThan(et.HighIncomeAGIThreshold) {
			rate = et.HighIncomeRate
		}
	}
	total := base.Mul(rate).Round(2)
	each := total.Div(quarters).Round(2)

	next := result.TaxYear + 1
	due := []time.Time{
		time.Date(next, time.April, 15, 0, 0, 0, 0, time.UTC),
		time.Date(next, time.June, 15, 0, 0, 0, 0, time.UTC),
		time.Date(next, time.September, 15, 0, 0, 0, 0, time.UTC),
		time.Date(next+1, time.January, 15, 0, 0, 0, 0, time.UTC),
	}
	est := &domain.QuarterlyEstimate{
		Jurisdiction:     rs.Jurisdiction,
		TaxYear:          next,
		BaseLiability:    base,
		SafeHarborRate:   rate,
		SafeHarborAmount: total,
	}
	paid := decimal.Zero
	for i, d := range due {
		amt := each
		if i == len(due)-1 {
			amt = total.Sub(paid)
		}
		paid = paid.Add(amt)
		est.Installments = append(est.Installments, domain.QuarterlyInstallment{
			Quarter: i + 1,
			DueDate: d.Format("2006-01-02"),
			Amount:  amt,
		})
	}
	return est, nil
}

// Estimate computes the quarterly schedules for a result: federal first, then each
// state that imposes a positive liability, in result order.
func (e *Engine) Estimate(ctx context.Context, result *domain.CalculationResult) ([]*domain.QuarterlyEstimate, error) {
	jurisdictions := []domain.Jurisdiction{domain.Federal}
	for _, s := range result.States {
		if s.HasIncomeTax && s.TotalTaxLiability.IsPositive() {
			jurisdictions = append(jurisdictions, s.Jurisdiction)
		}
	}
	out := make([]*domain.QuarterlyEstimate, 0, len(jurisdictions))
	for _, j := range jurisdictions {
		rs, err := e.registry.Get(ctx, result.TaxYear, j)
		if err != nil {
			return nil, err
		}
		est, err := EstimateQuarterlyPayments(result, rs)
		if err != nil {
			return nil, err
		}
		out = append(out, est)
	}
	return out, nil
}
