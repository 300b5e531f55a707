package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/rgehrsitz/taxengine/internal/domain"
)

var csvHeader = []string{
	"ProfileID", "TaxYear", "Jurisdiction", "Residency", "Income", "TaxableIncome",
	"GrossTax", "Credits", "Liability", "Payments", "Refund", "Error",
}

// CSVFormatter writes one row per jurisdiction per result, then one row per failure.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Format(report *Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, res := range report.Results {
		for _, row := range resultRows(res) {
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	for _, f := range report.Failures {
		row := make([]string, len(csvHeader))
		row[0] = f.ProfileID
		row[len(row)-1] = f.Error
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func resultRows(res *domain.CalculationResult) [][]string {
	year := strconv.Itoa(res.TaxYear)
	fed := res.Federal
	rows := [][]string{{
		res.ProfileID, year, string(domain.Federal), "",
		fed.AGI.StringFixed(2),
		fed.TaxableIncome.StringFixed(2),
		fed.GrossTax.StringFixed(2),
		fed.NonrefundableCredits.Add(fed.RefundableCredits).StringFixed(2),
		fed.TotalTaxLiability.StringFixed(2),
		fed.TotalPayments.StringFixed(2),
		fed.TotalRefund.StringFixed(2),
		"",
	}}
	for _, s := range res.States {
		credits := s.RefundableCredits.Add(s.OtherStateCredit)
		for _, c := range s.Credits {
			credits = credits.Add(c.NonrefundableApplied)
		}
		rows = append(rows, []string{
			res.ProfileID, year, string(s.Jurisdiction), string(s.Residency),
			s.ApportionedIncome.StringFixed(2),
			s.TaxableIncome.StringFixed(2),
			s.GrossTax.StringFixed(2),
			credits.StringFixed(2),
			s.TotalTaxLiability.StringFixed(2),
			s.TotalWithheld.Add(s.EstimatedPayments).StringFixed(2),
			s.TotalRefund.StringFixed(2),
			"",
		})
	}
	sum := res.Summary
	rows = append(rows, []string{
		res.ProfileID, year, "TOTAL", "", "", "", "", "",
		sum.TotalTaxLiability.StringFixed(2),
		sum.TotalPayments.StringFixed(2),
		sum.TotalRefund.StringFixed(2),
		"",
	})
	return rows
}
