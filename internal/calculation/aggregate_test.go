package calculation

import (
	"testing"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_RefundsReconcile(t *testing.T) {
	profiles := map[string]*domain.TaxpayerProfile{
		"single PA": singleProfile("PA", wages("50000", "PA")),
		"NY with NJ and PA wages": func() *domain.TaxpayerProfile {
			nj := wages("100000", "NJ")
			nj.Wages.FederalWithheld = d("15000")
			nj.Wages.StateWithheld = d("3000")
			p := singleProfile("NY", nj, wages("30000", "PA"))
			p.EstimatedPayments = map[domain.Jurisdiction]decimal.Decimal{"NY": d("1200")}
			return p
		}(),
		"TX with CA wages": singleProfile("TX", wages("80000", "CA")),
	}

	for name, p := range profiles {
		t.Run(name, func(t *testing.T) {
			res := compute(t, p)

			sum := res.Federal.TotalRefund
			for _, s := range res.States {
				sum = sum.Add(s.TotalRefund)
			}
			assertMoney(t, sum.String(), res.Summary.TotalRefund, "federal plus state refunds")

			liability := res.Federal.TotalTaxLiability
			for _, s := range res.States {
				liability = liability.Add(s.TotalTaxLiability)
			}
			assertMoney(t, liability.String(), res.Summary.TotalTaxLiability)
		})
	}
}

func TestAggregate_KeepsInputs(t *testing.T) {
	p := singleProfile("PA", wages("1000", "PA"))
	p.ID = "abc"
	fed := &domain.FederalResult{TotalTaxLiability: d("100"), TotalWithheld: d("150"), TotalPayments: d("150")}
	states := []domain.StateResult{
		{Jurisdiction: "PA", TotalTaxLiability: d("30"), TotalWithheld: d("20"), EstimatedPayments: d("5"), TotalRefund: d("-5")},
	}
	warnings := []domain.Warning{{Code: domain.SuspiciousInput, Field: "income[0].wages"}}

	res := Aggregate(p, fed, states, warnings)

	assert.Equal(t, "abc", res.ProfileID)
	require.Len(t, res.States, 1)
	assert.Equal(t, warnings, res.Warnings)
	assertMoney(t, "130", res.Summary.TotalTaxLiability)
	assertMoney(t, "170", res.Summary.TotalWithheld)
	assertMoney(t, "175", res.Summary.TotalPayments)
	assertMoney(t, "45", res.Summary.TotalRefund)
	assertMoney(t, "0", Owed(res))
}

func TestOwed(t *testing.T) {
	res := &domain.CalculationResult{Summary: domain.Summary{TotalRefund: d("-250.10")}}
	assertMoney(t, "250.10", Owed(res))
}
