package compare

import (
	"fmt"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/shopspring/decimal"
)

// ComparisonResult holds one what-if outcome and its key figures.
type ComparisonResult struct {
	ScenarioName string                    `json:"scenarioName"`
	Description  string                    `json:"description"`
	Result       *domain.CalculationResult `json:"-"`

	FilingStatus         domain.FilingStatus `json:"filingStatus"`
	ResidentJurisdiction domain.Jurisdiction `json:"residentJurisdiction"`

	// Key Metrics
	AGI              decimal.Decimal `json:"agi"`
	FederalLiability decimal.Decimal `json:"federalLiability"`
	StateLiability   decimal.Decimal `json:"stateLiability"`
	TotalLiability   decimal.Decimal `json:"totalLiability"`
	TotalRefund      decimal.Decimal `json:"totalRefund"`
	EffectiveRate    decimal.Decimal `json:"effectiveRate"`

	// Comparison to Base
	LiabilityDiffFromBase decimal.Decimal `json:"liabilityDiffFromBase"`
	LiabilityPctFromBase  decimal.Decimal `json:"liabilityPctFromBase"`
	RefundDiffFromBase    decimal.Decimal `json:"refundDiffFromBase"`
}

// ComparisonSet is a base calculation and its alternatives.
type ComparisonSet struct {
	BaseScenarioName   string             `json:"baseScenarioName"`
	BaseResult         *ComparisonResult  `json:"baseResult"`
	AlternativeResults []ComparisonResult `json:"alternativeResults"`
	Recommendations    []string           `json:"recommendations"`
	ProfilePath        string             `json:"profilePath,omitempty"`
}

// MetricsCalculator extracts key metrics from calculation results
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateMetrics summarizes one calculation result.
func (mc *MetricsCalculator) CalculateMetrics(name string, res *domain.CalculationResult) ComparisonResult {
	state := decimal.Zero
	for _, s := range res.States {
		state = state.Add(s.TotalTaxLiability)
	}
	out := ComparisonResult{
		ScenarioName:     name,
		Result:           res,
		FilingStatus:     res.Federal.FilingStatus,
		AGI:              res.Federal.AGI,
		FederalLiability: res.Federal.TotalTaxLiability,
		StateLiability:   state,
		TotalLiability:   res.Summary.TotalTaxLiability,
		TotalRefund:      res.Summary.TotalRefund,
	}
	for _, s := range res.States {
		if s.Residency == domain.Resident {
			out.ResidentJurisdiction = s.Jurisdiction
			break
		}
	}
	if income := res.Federal.TotalIncome; income.IsPositive() && out.TotalLiability.IsPositive() {
		out.EffectiveRate = out.TotalLiability.Div(income).Round(4)
	}
	return out
}

// CalculateComparison fills the deltas of scenario against base.
func (mc *MetricsCalculator) CalculateComparison(scenario, base ComparisonResult) ComparisonResult {
	scenario.LiabilityDiffFromBase = scenario.TotalLiability.Sub(base.TotalLiability)
	if !base.TotalLiability.IsZero() {
		scenario.LiabilityPctFromBase = scenario.LiabilityDiffFromBase.
			Div(base.TotalLiability.Abs()).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}
	scenario.RefundDiffFromBase = scenario.TotalRefund.Sub(base.TotalRefund)
	return scenario
}

// GenerateRecommendations points out the alternative with the lowest total tax and,
// when it is a different one, the alternative with the best refund position.
func GenerateRecommendations(compSet *ComparisonSet) []string {
	recommendations := []string{}

	if compSet.BaseResult == nil || len(compSet.AlternativeResults) == 0 {
		return recommendations
	}
	base := compSet.BaseResult

	lowestTax := base
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.TotalLiability.LessThan(lowestTax.TotalLiability) {
			lowestTax = alt
		}
	}
	if lowestTax != base {
		savings := base.TotalLiability.Sub(lowestTax.TotalLiability)
		recommendations = append(recommendations,
			fmt.Sprintf("Lowest Tax: %s saves $%s in total tax", lowestTax.ScenarioName, savings.StringFixed(2)))
	} else {
		recommendations = append(recommendations,
			fmt.Sprintf("Lowest Tax: no alternative lowers the total tax of %s", base.ScenarioName))
	}

	bestRefund := base
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.TotalRefund.GreaterThan(bestRefund.TotalRefund) {
			bestRefund = alt
		}
	}
	if bestRefund != base && bestRefund != lowestTax {
		gain := bestRefund.TotalRefund.Sub(base.TotalRefund)
		recommendations = append(recommendations,
			fmt.Sprintf("Best Refund: %s improves the refund position by $%s", bestRefund.ScenarioName, gain.StringFixed(2)))
	}

	return recommendations
}
