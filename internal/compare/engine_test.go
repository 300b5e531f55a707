package compare

import (
	"context"
	"testing"

	"github.com/rgehrsitz/taxengine/internal/calculation"
	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/rgehrsitz/taxengine/internal/rules"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, d(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func testCompareEngine() *CompareEngine {
	return NewCompareEngine(calculation.NewEngine(rules.NewRegistry(rules.EmbeddedSource())))
}

// paProfile is a single Pennsylvania resident earning 50,000 in PA.
func paProfile() *domain.TaxpayerProfile {
	return &domain.TaxpayerProfile{
		ID:           "pa-single",
		TaxYear:      2024,
		FilingStatus: domain.Single,
		Taxpayer:     domain.Person{Age: 40},
		Income: []domain.IncomeSource{{Wages: &domain.WageIncome{
			Employer: "Acme", Gross: d("50000"), FederalWithheld: d("5000"), StateWithheld: d("1535"), Source: "PA",
		}}},
		ResidentJurisdiction: "PA",
	}
}

func TestCompareEngine_Compare(t *testing.T) {
	ce := testCompareEngine()
	base := paProfile()

	set, err := ce.Compare(context.Background(), base, CompareOptions{
		Transforms: []string{"relocate:to=TX,move_work=true", "set_deduction:method=itemized,amount=20000"},
	})
	require.NoError(t, err)

	assert.Equal(t, "pa-single", set.BaseScenarioName)
	require.NotNil(t, set.BaseResult)
	assertMoney(t, "4016", set.BaseResult.FederalLiability)
	assertMoney(t, "1535", set.BaseResult.StateLiability)
	assertMoney(t, "5551", set.BaseResult.TotalLiability)
	assertMoney(t, "984", set.BaseResult.TotalRefund)
	assert.Equal(t, domain.Jurisdiction("PA"), set.BaseResult.ResidentJurisdiction)
	assert.Equal(t, domain.Single, set.BaseResult.FilingStatus)

	require.Len(t, set.AlternativeResults, 2)

	moved := set.AlternativeResults[0]
	assert.Equal(t, "relocate", moved.ScenarioName)
	assert.Equal(t, "Live and work in Texas", moved.Description)
	assert.Equal(t, domain.Jurisdiction("TX"), moved.ResidentJurisdiction)
	assertMoney(t, "4016", moved.FederalLiability)
	assertMoney(t, "0", moved.StateLiability)
	assertMoney(t, "-1535", moved.LiabilityDiffFromBase)
	assertMoney(t, "-27.65", moved.LiabilityPctFromBase)

	itemized := set.AlternativeResults[1]
	assert.Equal(t, "set_deduction", itemized.ScenarioName)
	assertMoney(t, "3368", itemized.FederalLiability)

	require.NotEmpty(t, set.Recommendations)
	assert.Equal(t, "Lowest Tax: relocate saves $1535.00 in total tax", set.Recommendations[0])

	// The base profile is never modified.
	assert.Equal(t, domain.Jurisdiction("PA"), base.ResidentJurisdiction)
	assert.Equal(t, domain.Jurisdiction("PA"), base.Income[0].Wages.Source)
}

func TestCompareEngine_Templates(t *testing.T) {
	ce := testCompareEngine()
	set, err := ce.Compare(context.Background(), paProfile(), CompareOptions{
		BaseScenarioName: "current",
		Templates:        []string{"add_child"},
	})
	require.NoError(t, err)

	assert.Equal(t, "current", set.BaseScenarioName)
	require.Len(t, set.AlternativeResults, 1)
	alt := set.AlternativeResults[0]
	assert.Equal(t, "add_child", alt.ScenarioName)
	assert.True(t, alt.FederalLiability.LessThan(set.BaseResult.FederalLiability), "a qualifying child lowers federal tax")
	assert.True(t, alt.LiabilityDiffFromBase.IsNegative())
}

func TestCompareEngine_Errors(t *testing.T) {
	ce := testCompareEngine()
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		opts CompareOptions
		want string
	}{
		{"nothing to compare", context.Background(), CompareOptions{}, "no alternatives"},
		{"unknown template", context.Background(), CompareOptions{Templates: []string{"retire_early"}}, "template retire_early not found"},
		{"bad spec", context.Background(), CompareOptions{Transforms: []string{"relocate"}}, "requires 'to'"},
		{"invalid change", context.Background(), CompareOptions{Transforms: []string{"relocate:to=PA"}}, "already resident"},
		{"cancelled", cancelled, CompareOptions{Templates: []string{"add_child"}}, "context canceled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ce.Compare(tt.ctx, paProfile(), tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompareEngine_BaseFailure(t *testing.T) {
	p := paProfile()
	p.TaxYear = 2019
	_, err := testCompareEngine().Compare(context.Background(), p, CompareOptions{Templates: []string{"add_child"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedRuleSet)
	assert.Contains(t, err.Error(), "failed to calculate base scenario")
}
