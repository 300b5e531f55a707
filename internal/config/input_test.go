package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInputParser(t *testing.T) {
	parser := NewInputParser()
	assert.NotNil(t, parser, "Should create input parser")
	assert.True(t, parser.Strict)
}

func TestInputParser_LoadFromFile_FileNotFound(t *testing.T) {
	parser := NewInputParser()

	profile, err := parser.LoadFromFile("nonexistent.yaml")

	assert.Error(t, err, "Should error for nonexistent file")
	assert.Nil(t, profile, "Should return nil profile")
	assert.Contains(t, err.Error(), "failed to read file", "Should have specific error message")
}

func TestInputParser_LoadFromFile_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	invalidFile := filepath.Join(tmpDir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalidFile, []byte("invalid: yaml: content: [unclosed"), 0o644))

	parser := NewInputParser()
	profile, err := parser.LoadFromFile(invalidFile)

	assert.Error(t, err, "Should error for invalid YAML")
	assert.Nil(t, profile)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestInputParser_LoadFromFile_Single(t *testing.T) {
	profile, err := NewInputParser().LoadFromFile("testdata/single.yaml")
	require.NoError(t, err)

	assert.Equal(t, "single-pa", profile.ID)
	assert.Equal(t, 2024, profile.TaxYear)
	assert.Equal(t, domain.Single, profile.FilingStatus)
	assert.Equal(t, domain.Jurisdiction("PA"), profile.ResidentJurisdiction, "codes are upper-cased")
	require.Len(t, profile.Income, 1)
	require.NotNil(t, profile.Income[0].Wages)
	assert.Equal(t, domain.Jurisdiction("PA"), profile.Income[0].Wages.Source)
	assert.True(t, profile.Income[0].Wages.Gross.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, domain.StandardDeduction, profile.Deduction.Method)
}

func TestInputParser_LoadFromFile_Family(t *testing.T) {
	profile, err := NewInputParser().LoadFromFile("testdata/family.yaml")
	require.NoError(t, err)

	assert.Equal(t, domain.MarriedFilingJointly, profile.FilingStatus, "MFJ alias")
	require.NotNil(t, profile.Spouse)
	assert.Len(t, profile.Income, 3)
	assert.True(t, profile.Income[1].Wages.Spouse)
	assert.Equal(t, domain.InvestmentIncomeKind, profile.Income[2].Kind())
	assert.Len(t, profile.Dependents, 2)
	assert.True(t, profile.EstimatedPayments[domain.Federal].Equal(decimal.NewFromInt(500)))
	assert.True(t, profile.EstimatedPayments["NJ"].Equal(decimal.NewFromInt(100)))
	assert.Equal(t, []domain.StateScenario{
		{Jurisdiction: "NJ", Residency: domain.Resident},
		{Jurisdiction: "PA", Residency: domain.Nonresident},
	}, profile.Scenarios)
}

func TestInputParser_Strict(t *testing.T) {
	_, err := NewInputParser().LoadFromFile("testdata/typo.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomes")

	lenient := &InputParser{Strict: false}
	profile, err := lenient.LoadFromFile("testdata/typo.yaml")
	require.NoError(t, err)
	assert.Empty(t, profile.Income, "unknown keys are dropped")
}

func TestInputParser_Parse_Validation(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{
			name: "unknown filing status",
			yaml: `
tax_year: 2024
filing_status: widowed
taxpayer: {age: 40}
resident_jurisdiction: PA`,
			field: "filing_status",
		},
		{
			name: "unknown resident state",
			yaml: `
tax_year: 2024
filing_status: single
taxpayer: {age: 40}
resident_jurisdiction: XX`,
			field: "resident_jurisdiction",
		},
		{
			name: "negative wages",
			yaml: `
tax_year: 2024
filing_status: single
taxpayer: {age: 40}
income:
  - wages: {employer: Acme, gross: -5, source: PA}
resident_jurisdiction: PA`,
			field: "income[0].wages.gross",
		},
		{
			name: "empty income source",
			yaml: `
tax_year: 2024
filing_status: single
taxpayer: {age: 40}
income:
  - {}
resident_jurisdiction: PA`,
			field: "income[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := NewInputParser().Parse([]byte(tt.yaml))

			assert.Nil(t, profile)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Contains(t, err.Error(), "profile validation failed")
			var ie *domain.InputError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.field, ie.Field)
		})
	}
}

func TestInputParser_Parse_Empty(t *testing.T) {
	_, err := NewInputParser().Parse(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty document")
}

func TestInputParser_LoadBatchFromFile(t *testing.T) {
	profiles, err := NewInputParser().LoadBatchFromFile("testdata/batch.yaml")
	require.NoError(t, err)
	require.Len(t, profiles, 3)

	assert.Equal(t, "first", profiles[0].ID)
	assert.Empty(t, profiles[1].ID, "IDs are assigned at evaluation time")
	assert.Equal(t, domain.HeadOfHousehold, profiles[1].FilingStatus)
	assert.Equal(t, domain.Jurisdiction("NY"), profiles[1].ResidentJurisdiction)

	// Invalid profiles load; batch evaluation reports them per item.
	assert.Equal(t, "invalid", profiles[2].ID)
	assert.Error(t, NewInputParser().ValidateProfile(&profiles[2]))
}

func TestInputParser_ParseBatch_NoProfiles(t *testing.T) {
	_, err := NewInputParser().ParseBatch([]byte("profiles: []"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no profiles provided")
}

func TestNormalize(t *testing.T) {
	p := &domain.TaxpayerProfile{
		FilingStatus:         " Married-Filing-Separately ",
		ResidentJurisdiction: " oh",
		Income: []domain.IncomeSource{
			{SelfEmployment: &domain.SelfEmploymentIncome{Source: "in"}},
			{Other: &domain.OtherIncome{Source: "ky"}},
		},
		EstimatedPayments: map[domain.Jurisdiction]decimal.Decimal{
			"oh": decimal.NewFromInt(100),
			"OH": decimal.NewFromInt(50),
		},
		Deduction: domain.DeductionElection{Method: "Itemized"},
	}

	Normalize(p)

	assert.Equal(t, domain.MarriedFilingSeparately, p.FilingStatus)
	assert.Equal(t, domain.Jurisdiction("OH"), p.ResidentJurisdiction)
	assert.Equal(t, domain.Jurisdiction("IN"), p.Income[0].SelfEmployment.Source)
	assert.Equal(t, domain.Jurisdiction("KY"), p.Income[1].Other.Source)
	require.Len(t, p.EstimatedPayments, 1, "duplicate keys merge")
	assert.True(t, p.EstimatedPayments["OH"].Equal(decimal.NewFromInt(150)))
	assert.Equal(t, domain.ItemizedDeduction, p.Deduction.Method)
}

func TestInputParser_DefaultTaxYear(t *testing.T) {
	doc := []byte(`
filing_status: single
taxpayer: {age: 40}
resident_jurisdiction: TX`)

	_, err := NewInputParser().Parse(doc)
	require.Error(t, err, "tax_year is required without a default")

	parser := NewInputParser()
	parser.DefaultTaxYear = 2025
	profile, err := parser.Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, 2025, profile.TaxYear)
}
