package compare

import (
	"encoding/csv"
	"strings"
)

// CSVFormatter formats comparison results as CSV
type CSVFormatter struct{}

// Format generates CSV output for comparison results
func (cf *CSVFormatter) Format(compSet *ComparisonSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"Scenario",
		"Type",
		"Description",
		"Filing Status",
		"Resident State",
		"AGI",
		"Federal Tax",
		"State Tax",
		"Total Tax",
		"Refund",
		"Effective Rate",
		"Tax Diff from Base",
		"Tax % Change",
		"Refund Diff from Base",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	if compSet.BaseResult != nil {
		if err := writer.Write(cf.formatRow(compSet.BaseResult, "base")); err != nil {
			return "", err
		}
	}
	for i := range compSet.AlternativeResults {
		if err := writer.Write(cf.formatRow(&compSet.AlternativeResults[i], "alternative")); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// formatRow formats a comparison result as a CSV row
func (cf *CSVFormatter) formatRow(result *ComparisonResult, scenarioType string) []string {
	return []string{
		result.ScenarioName,
		scenarioType,
		result.Description,
		string(result.FilingStatus),
		string(result.ResidentJurisdiction),
		result.AGI.StringFixed(2),
		result.FederalLiability.StringFixed(2),
		result.StateLiability.StringFixed(2),
		result.TotalLiability.StringFixed(2),
		result.TotalRefund.StringFixed(2),
		result.EffectiveRate.StringFixed(4),
		result.LiabilityDiffFromBase.StringFixed(2),
		result.LiabilityPctFromBase.StringFixed(2),
		result.RefundDiffFromBase.StringFixed(2),
	}
}
