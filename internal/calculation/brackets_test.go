package calculation

import (
	"testing"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBracketTax_Federal2024Single(t *testing.T) {
	table := ruleSet(t, 2024, domain.Federal).Brackets(domain.Single)

	tests := []struct {
		name   string
		income string
		want   string
	}{
		{"zero income", "0", "0"},
		{"negative income", "-500", "0"},
		{"inside first band", "10000", "1000"},
		{"first boundary", "11600", "1160"},
		{"second band", "35400", "4016"},
		{"third band", "60000", "8253"},
		{"top band", "700000", "217187.75"},
		{"fractional cents round half up", "11600.05", "1160.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertMoney(t, tt.want, BracketTax(table, d(tt.income)))
		})
	}
}

func TestBracketTax_Monotonic(t *testing.T) {
	for _, fs := range domain.FilingStatuses() {
		table := ruleSet(t, 2024, domain.Federal).Brackets(fs)
		prev := decimal.Zero
		for income := int64(0); income <= 800000; income += 997 {
			tax := BracketTax(table, decimal.NewFromInt(income))
			if tax.LessThan(prev) {
				t.Fatalf("%s: tax fell from %s to %s at income %d", fs, prev, tax, income)
			}
			prev = tax
		}
	}
}

func TestBracketTax_BoundaryContinuity(t *testing.T) {
	cent := d("0.01")
	for _, j := range []domain.Jurisdiction{domain.Federal, "NY", "CA", "NJ"} {
		table := ruleSet(t, 2024, j).Brackets(domain.MarriedFilingJointly)
		for _, b := range table {
			if b.Unbounded {
				continue
			}
			below := BracketTax(table, b.Upper.Sub(cent))
			at := BracketTax(table, b.Upper)
			above := BracketTax(table, b.Upper.Add(cent))
			assert.True(t, at.Sub(below).LessThanOrEqual(cent), "%s jump below %s", j, b.Upper)
			assert.True(t, above.Sub(at).LessThanOrEqual(cent), "%s jump above %s", j, b.Upper)
		}
	}
}

func TestMarginalRate(t *testing.T) {
	table := ruleSet(t, 2024, domain.Federal).Brackets(domain.Single)

	assert.True(t, MarginalRate(table, d("0")).Equal(d("0.10")))
	assert.True(t, MarginalRate(table, d("11600")).Equal(d("0.10")), "boundary uses the lower band")
	assert.True(t, MarginalRate(table, d("11600.01")).Equal(d("0.12")))
	assert.True(t, MarginalRate(table, d("35400")).Equal(d("0.12")))
	assert.True(t, MarginalRate(table, d("5000000")).Equal(d("0.37")))
	assert.True(t, MarginalRate(nil, d("100")).IsZero())
}
