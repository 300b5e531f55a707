package calculation

import (
	"context"
	"testing"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultWith(liability, agi string) *domain.CalculationResult {
	return &domain.CalculationResult{
		TaxYear: 2024,
		Federal: domain.FederalResult{TaxYear: 2024, TotalTaxLiability: d(liability), AGI: d(agi)},
	}
}

func TestEstimateQuarterlyPayments(t *testing.T) {
	fed := ruleSet(t, 2024, domain.Federal)

	est, err := EstimateQuarterlyPayments(resultWith("4016", "50000"), fed)
	require.NoError(t, err)

	assert.Equal(t, 2025, est.TaxYear)
	assertMoney(t, "1", est.SafeHarborRate)
	assertMoney(t, "4016", est.SafeHarborAmount)
	require.Len(t, est.Installments, 4)

	wantDates := []string{"2025-04-15", "2025-06-15", "2025-09-15", "2026-01-15"}
	for i, inst := range est.Installments {
		assert.Equal(t, i+1, inst.Quarter)
		assert.Equal(t, wantDates[i], inst.DueDate)
		assertMoney(t, "1004", inst.Amount, "quarter", i+1)
	}
}

func TestEstimateQuarterlyPayments_HighIncome(t *testing.T) {
	fed := ruleSet(t, 2024, domain.Federal)

	est, err := EstimateQuarterlyPayments(resultWith("1000.01", "200000"), fed)
	require.NoError(t, err)

	assertMoney(t, "1.10", est.SafeHarborRate)
	assertMoney(t, "1100.01", est.SafeHarborAmount)
	assertMoney(t, "275", est.Installments[0].Amount)
	assertMoney(t, "275", est.Installments[2].Amount)
	assertMoney(t, "275.01", est.Installments[3].Amount, "last installment absorbs rounding")

	total := d("0")
	for _, inst := range est.Installments {
		total = total.Add(inst.Amount)
	}
	assertMoney(t, "1100.01", total)
}

func TestEstimateQuarterlyPayments_ThresholdIsExclusive(t *testing.T) {
	est, err := EstimateQuarterlyPayments(resultWith("1000", "150000"), ruleSet(t, 2024, domain.Federal))
	require.NoError(t, err)
	assertMoney(t, "1", est.SafeHarborRate)
}

func TestEstimateQuarterlyPayments_NoLiability(t *testing.T) {
	est, err := EstimateQuarterlyPayments(resultWith("-500", "10000"), ruleSet(t, 2024, domain.Federal))
	require.NoError(t, err)

	assertMoney(t, "0", est.SafeHarborAmount)
	for _, inst := range est.Installments {
		assertMoney(t, "0", inst.Amount)
	}
}

func TestEstimateQuarterlyPayments_WrongRuleSet(t *testing.T) {
	res := resultWith("4016", "50000")

	_, err := EstimateQuarterlyPayments(res, ruleSet(t, 2024, "PA"))
	assert.Error(t, err, "state without a calculation")

	_, err = EstimateQuarterlyPayments(res, ruleSet(t, 2025, domain.Federal))
	assert.Error(t, err, "wrong year")
}

func TestEngine_Estimate(t *testing.T) {
	engine := testEngine()
	res, err := engine.Calculate(context.Background(), singleProfile("TX", wages("50000", "TX")))
	require.NoError(t, err)

	ests, err := engine.Estimate(context.Background(), res)
	require.NoError(t, err)
	require.Len(t, ests, 1, "Texas has no income tax")
	assert.Equal(t, domain.Federal, ests[0].Jurisdiction)
	assertMoney(t, "4016", ests[0].SafeHarborAmount)
}

func TestEstimateQuarterlyPayments_State(t *testing.T) {
	res := resultWith("4016", "50000")
	res.States = []domain.StateResult{{Jurisdiction: "PA", HasIncomeTax: true, TotalTaxLiability: d("1535")}}

	est, err := EstimateQuarterlyPayments(res, ruleSet(t, 2024, "PA"))
	require.NoError(t, err)

	assert.Equal(t, domain.Jurisdiction("PA"), est.Jurisdiction)
	assert.Equal(t, 2025, est.TaxYear)
	assertMoney(t, "1", est.SafeHarborRate, "no state safe-harbor parameters")
	assertMoney(t, "1535", est.SafeHarborAmount)
	assertMoney(t, "383.75", est.Installments[0].Amount)
	assertMoney(t, "383.75", est.Installments[3].Amount)
}

func TestEngine_EstimateIncludesTaxingStates(t *testing.T) {
	engine := testEngine()
	src := wages("60000", "PA")
	res, err := engine.Calculate(context.Background(), singleProfile("NJ", src))
	require.NoError(t, err)

	ests, err := engine.Estimate(context.Background(), res)
	require.NoError(t, err)

	// PA exempts the wages under reciprocity, so only NJ owes.
	require.Len(t, ests, 2)
	assert.Equal(t, domain.Federal, ests[0].Jurisdiction)
	assert.Equal(t, domain.Jurisdiction("NJ"), ests[1].Jurisdiction)
	assertMoney(t, "1767.25", ests[1].SafeHarborAmount)
	assertMoney(t, "441.81", ests[1].Installments[0].Amount)
	assertMoney(t, "441.82", ests[1].Installments[3].Amount)
}
