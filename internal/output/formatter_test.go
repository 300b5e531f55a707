package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rgehrsitz/taxengine/internal/calculation"
	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func buildTestResult() *domain.CalculationResult {
	return &domain.CalculationResult{
		ProfileID: "nj-family",
		TaxYear:   2024,
		Federal: domain.FederalResult{
			TaxYear:              2024,
			RuleSetVersion:       "2024-US",
			FilingStatus:         domain.MarriedFilingJointly,
			TotalIncome:          d("120000"),
			AGI:                  d("120000"),
			Deduction:            domain.DeductionResult{Method: domain.StandardDeduction, Standard: d("29200"), Amount: d("29200")},
			TaxableIncome:        d("90800"),
			GrossTax:             d("10432"),
			Credits:              []domain.AppliedCredit{{ID: "child_tax_credit", Name: "Child Tax Credit", Amount: d("4000"), NonrefundableApplied: d("4000")}},
			NonrefundableCredits: d("4000"),
			TotalTaxLiability:    d("6432"),
			TotalWithheld:        d("8000"),
			TotalPayments:        d("8000"),
			TotalRefund:          d("1568"),
			EffectiveRate:        d("0.0536"),
			MarginalRate:         d("0.12"),
		},
		States: []domain.StateResult{
			{
				Jurisdiction: "PA", Name: "Pennsylvania", Residency: domain.Nonresident, HasIncomeTax: true,
				ApportionedIncome: d("0"), ApportionmentRatio: d("0"),
				TotalWithheld: d("1842"), TotalRefund: d("1842"),
			},
			{
				Jurisdiction: "NJ", Name: "New Jersey", Residency: domain.Resident, HasIncomeTax: true,
				ApportionedIncome: d("120000"), ApportionmentRatio: d("1"),
				TaxableIncome: d("118000"), GrossTax: d("3900.50"),
				TotalTaxLiability: d("3900.50"), TotalWithheld: d("3000"), TotalRefund: d("-900.50"),
			},
		},
		Summary: domain.Summary{
			TotalTaxLiability: d("10332.50"),
			TotalWithheld:     d("12842"),
			TotalPayments:     d("12842"),
			TotalRefund:       d("2509.50"),
		},
		Warnings: []domain.Warning{{Code: domain.SuspiciousInput, Field: "income[0].wages", Jurisdiction: "PA", Message: "withholding exceeds gross wages"}},
	}
}

func buildTestReport() *Report {
	r := NewReport(buildTestResult())
	r.Failures = []Failure{{Index: 1, ProfileID: "broken", Error: "invalid input at filing_status: unrecognized filing status"}}
	return r
}

func TestFormatterFunc(t *testing.T) {
	called := false
	var received *Report
	formatter := FormatterFunc{
		ID: "test-formatter",
		F: func(r *Report) ([]byte, error) {
			called = true
			received = r
			return []byte("test output"), nil
		},
	}

	report := buildTestReport()
	out, err := formatter.Format(report)

	assert.NoError(t, err)
	assert.True(t, called, "Should call the function")
	assert.Same(t, report, received, "Should pass the report")
	assert.Equal(t, []byte("test output"), out)
	assert.Equal(t, "test-formatter", formatter.Name())
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	ok := FormatterFunc{ID: "ok", F: func(*Report) ([]byte, error) { return []byte("hello"), nil }}
	require.NoError(t, Write(&buf, ok, buildTestReport()))
	assert.Equal(t, "hello", buf.String())

	failing := FormatterFunc{ID: "broken", F: func(*Report) ([]byte, error) { return nil, errors.New("boom") }}
	err := Write(&buf, failing, buildTestReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken formatter failed: boom")
}

func TestWriteFormatted(t *testing.T) {
	dir := t.TempDir()
	formatter := FormatterFunc{ID: "txt", F: func(*Report) ([]byte, error) { return []byte("test output content"), nil }}

	filename, err := WriteFormatted(formatter, buildTestReport(), dir, "txt")

	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(filename))
	assert.Contains(t, filepath.Base(filename), "tax_report_")
	assert.True(t, strings.HasSuffix(filename, ".txt"))
	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, "test output content", string(content))
}

func TestWriteFormatted_FormatterError(t *testing.T) {
	formatter := FormatterFunc{ID: "error-formatter", F: func(*Report) ([]byte, error) { return nil, fmt.Errorf("formatter error") }}

	filename, err := WriteFormatted(formatter, buildTestReport(), t.TempDir(), "txt")

	assert.Error(t, err)
	assert.Empty(t, filename, "Should return empty filename on error")
	assert.Contains(t, err.Error(), "formatter error")
}

func TestJSONFormatter_Format(t *testing.T) {
	out, err := JSONFormatter{}.Format(buildTestReport())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Contains(t, decoded, "results")
	assert.Contains(t, decoded, "failures")
	assert.NotContains(t, decoded, "estimates", "empty estimates are omitted")

	content := string(out)
	assert.Contains(t, content, `"profile_id": "nj-family"`)
	assert.Contains(t, content, `"total_tax_liability": "6432"`)
	assert.Contains(t, content, `"apportionment_ratio": "1"`)
}

func TestYAMLFormatter_Format(t *testing.T) {
	out, err := YAMLFormatter{}.Format(buildTestReport())
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	require.Len(t, decoded.Results, 1)
	assert.Equal(t, "nj-family", decoded.Results[0].ProfileID)
	assert.True(t, decoded.Results[0].Summary.TotalRefund.Equal(d("2509.50")))
	assert.Equal(t, "broken", decoded.Failures[0].ProfileID)
}

func TestCSVFormatter_Format(t *testing.T) {
	out, err := CSVFormatter{}.Format(buildTestReport())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6, "header, federal, two states, total, one failure")

	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"nj-family", "2024", "US", "", "120000.00", "90800.00", "10432.00", "4000.00", "6432.00", "8000.00", "1568.00", ""}, records[1])
	assert.Equal(t, "PA", records[2][2], "states keep result order")
	assert.Equal(t, "nonresident", records[2][3])
	assert.Equal(t, "NJ", records[3][2])
	assert.Equal(t, "-900.50", records[3][10])
	assert.Equal(t, "TOTAL", records[4][2])
	assert.Equal(t, "2509.50", records[4][10])
	assert.Equal(t, "broken", records[5][0])
	assert.Contains(t, records[5][11], "filing_status")
}

func TestConsoleFormatter_Format(t *testing.T) {
	report := buildTestReport()
	report.AddEstimate("nj-family", &domain.QuarterlyEstimate{
		TaxYear: 2025, BaseLiability: d("6432"), SafeHarborRate: d("1"), SafeHarborAmount: d("6432"),
		Installments: []domain.QuarterlyInstallment{
			{Quarter: 1, DueDate: "2025-04-15", Amount: d("1608")},
			{Quarter: 2, DueDate: "2025-06-15", Amount: d("1608")},
			{Quarter: 3, DueDate: "2025-09-15", Amount: d("1608")},
			{Quarter: 4, DueDate: "2026-01-15", Amount: d("1608")},
		},
	})

	out, err := ConsoleFormatter{}.Format(report)
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, "TAX CALCULATION 2024")
	assert.Contains(t, content, "nj-family")
	assert.Contains(t, content, "$90,800.00")
	assert.Contains(t, content, "Child Tax Credit")
	assert.Contains(t, content, "Pennsylvania")
	assert.Contains(t, content, "-$900.50", "NJ owes")
	assert.Contains(t, content, "$2,509.50")
	assert.Contains(t, content, "withholding exceeds gross wages")
	assert.Contains(t, content, "ESTIMATED PAYMENTS FOR 2025")
	assert.Contains(t, content, "2026-01-15")
	assert.Contains(t, content, "FAILED PROFILES")
	assert.Contains(t, content, "KEY ASSUMPTIONS")
}

func TestConsoleLiteFormatter_Format(t *testing.T) {
	out, err := ConsoleLiteFormatter{}.Format(buildTestReport())
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, "TAX SUMMARY")
	assert.Contains(t, content, "nj-family (2024): AGI=$120,000.00 Federal=$6,432.00 States=[PA=$0.00 NJ=$3,900.50] Refund=$2,509.50")
	assert.Contains(t, content, "broken: FAILED")
	assert.Contains(t, content, "1 calculated, 1 failed")
}

func TestHTMLFormatter_Format(t *testing.T) {
	out, err := HTMLFormatter{}.Format(buildTestReport())
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, "<!DOCTYPE html>")
	assert.Contains(t, content, "<title>Tax Liability Report</title>")
	assert.Contains(t, content, "New Jersey (resident)")
	assert.Contains(t, content, "Total refund: $2,509.50")
	assert.Contains(t, content, "Capital gains are taxed as ordinary income")
}

func TestFromBatch(t *testing.T) {
	res := buildTestResult()
	items := []calculation.BatchItem{
		{Index: 0, ProfileID: "nj-family", Result: res},
		{Index: 1, ProfileID: "broken", Err: domain.InvalidInput("filing_status", "unrecognized")},
	}

	report := FromBatch(items)

	require.Len(t, report.Results, 1)
	assert.Same(t, res, report.Results[0])
	require.Len(t, report.Failures, 1)
	assert.Equal(t, Failure{Index: 1, ProfileID: "broken", Error: "invalid input at filing_status: unrecognized"}, report.Failures[0])
}

func TestAvailableFormatterNames(t *testing.T) {
	assert.Equal(t, []string{"console", "console-lite", "csv", "html", "json", "yaml"}, AvailableFormatterNames())
}

func TestAvailableFormatAliases(t *testing.T) {
	aliases := AvailableFormatAliases()
	assert.Contains(t, aliases, "yml")
	assert.Contains(t, aliases, "summary")
}

func TestGetFormatterByName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"console", "console"},
		{" JSON ", "json"},
		{"yml", "yaml"},
		{"summary", "console-lite"},
		{"csv", "csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := GetFormatterByName(tt.name)
			require.NotNil(t, f)
			assert.Equal(t, tt.want, f.Name())
		})
	}

	assert.Nil(t, GetFormatterByName("non-existent"))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "txt", Extension(ConsoleFormatter{}))
	assert.Equal(t, "txt", Extension(ConsoleLiteFormatter{}))
	assert.Equal(t, "csv", Extension(CSVFormatter{}))
	assert.Equal(t, "yaml", Extension(YAMLFormatter{}))
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"5", "$5.00"},
		{"999.999", "$1,000.00"},
		{"1234.567", "$1,234.57"},
		{"1234567.8", "$1,234,567.80"},
		{"-900.5", "-$900.50"},
		{"-0.001", "$0.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency(d(tt.in)), tt.in)
	}
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "8.03%", FormatRate(d("0.0803")))
	assert.Equal(t, "12.35%", FormatPercentage(d("12.3456")))
}
