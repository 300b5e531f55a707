package output

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginTop(1)
	labelStyle   = lipgloss.NewStyle().Width(28).PaddingLeft(2)
	refundStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	owedStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
)

// ConsoleFormatter renders a detailed, styled report for terminals.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	for i, res := range report.Results {
		if i > 0 {
			fmt.Fprintln(&buf)
		}
		writeResult(&buf, res)
		for _, est := range report.Estimates[res.ProfileID] {
			writeEstimate(&buf, est)
		}
	}
	if len(report.Failures) > 0 {
		fmt.Fprintln(&buf, sectionStyle.Render("FAILED PROFILES"))
		for _, f := range report.Failures {
			fmt.Fprintf(&buf, "  #%d %s: %s\n", f.Index, f.ProfileID, owedStyle.Render(f.Error))
		}
	}
	if len(report.Results) > 0 {
		fmt.Fprintln(&buf, sectionStyle.Render("KEY ASSUMPTIONS"))
		for _, a := range DefaultAssumptions {
			fmt.Fprintln(&buf, mutedStyle.Render("  • "+a))
		}
	}
	return buf.Bytes(), nil
}

func line(buf *bytes.Buffer, label string, amount decimal.Decimal) {
	fmt.Fprintln(buf, labelStyle.Render(label)+FormatCurrency(amount))
}

func writeResult(buf *bytes.Buffer, res *domain.CalculationResult) {
	fed := res.Federal
	title := fmt.Sprintf("TAX CALCULATION %d", res.TaxYear)
	if res.ProfileID != "" {
		title += " · " + res.ProfileID
	}
	fmt.Fprintln(buf, titleStyle.Render(title))
	fmt.Fprintf(buf, "Filing status: %s   Rules: %s\n", fed.FilingStatus, fed.RuleSetVersion)

	fmt.Fprintln(buf, sectionStyle.Render("FEDERAL"))
	line(buf, "Total income", fed.TotalIncome)
	line(buf, "Adjustments", fed.Adjustments)
	line(buf, "Adjusted gross income", fed.AGI)
	line(buf, fmt.Sprintf("Deduction (%s)", fed.Deduction.Method), fed.Deduction.Amount)
	line(buf, "Taxable income", fed.TaxableIncome)
	line(buf, "Income tax", fed.GrossTax)
	writeCredits(buf, fed.Credits)
	if !fed.OtherTaxes.Total.IsZero() {
		line(buf, "Self-employment tax", fed.OtherTaxes.SelfEmploymentTax)
		line(buf, "Additional Medicare tax", fed.OtherTaxes.AdditionalMedicareTax)
	}
	line(buf, "Total liability", fed.TotalTaxLiability)
	line(buf, "Payments", fed.TotalPayments)
	writeRefund(buf, fed.TotalRefund)
	fmt.Fprintln(buf, labelStyle.Render("Effective / marginal rate")+
		FormatRate(fed.EffectiveRate)+" / "+FormatRate(fed.MarginalRate))

	if len(res.States) > 0 {
		fmt.Fprintln(buf, sectionStyle.Render("STATES"))
		fmt.Fprintln(buf, statesTable(res.States))
		for _, s := range res.States {
			if len(s.Credits) == 0 {
				continue
			}
			fmt.Fprintln(buf, mutedStyle.Render("  "+s.Name+" credits"))
			writeCredits(buf, s.Credits)
		}
	}

	fmt.Fprintln(buf, sectionStyle.Render("SUMMARY"))
	line(buf, "Total liability", res.Summary.TotalTaxLiability)
	line(buf, "Total payments", res.Summary.TotalPayments)
	line(buf, "Refundable credits", res.Summary.RefundableCredits)
	writeRefund(buf, res.Summary.TotalRefund)

	if len(res.Warnings) > 0 {
		fmt.Fprintln(buf, sectionStyle.Render("WARNINGS"))
		for _, w := range res.Warnings {
			msg := w.Field + ": " + w.Message
			if w.Jurisdiction != "" {
				msg = fmt.Sprintf("%s (%s)", msg, w.Jurisdiction)
			}
			fmt.Fprintln(buf, warnStyle.Render("  ! "+msg))
		}
	}
}

func writeCredits(buf *bytes.Buffer, credits []domain.AppliedCredit) {
	for _, c := range credits {
		detail := fmt.Sprintf("applied %s, refundable %s", FormatCurrency(c.NonrefundableApplied), FormatCurrency(c.Refundable))
		if !c.Disallowed.IsZero() {
			detail += ", unused " + FormatCurrency(c.Disallowed)
		}
		if c.PhaseOutReduced {
			detail += " (phased out)"
		}
		fmt.Fprintln(buf, labelStyle.Render("  "+c.Name)+detail)
	}
}

func writeRefund(buf *bytes.Buffer, refund decimal.Decimal) {
	if refund.IsNegative() {
		fmt.Fprintln(buf, labelStyle.Render("Balance due")+owedStyle.Render(FormatCurrency(refund.Neg())))
		return
	}
	fmt.Fprintln(buf, labelStyle.Render("Refund")+refundStyle.Render(FormatCurrency(refund)))
}

func statesTable(states []domain.StateResult) string {
	rows := make([][]string, 0, len(states))
	for _, s := range states {
		residency := string(s.Residency)
		if !s.HasIncomeTax {
			residency += " (no income tax)"
		}
		rows = append(rows, []string{
			string(s.Jurisdiction),
			residency,
			FormatCurrency(s.ApportionedIncome),
			s.ApportionmentRatio.StringFixed(4),
			FormatCurrency(s.TaxableIncome),
			FormatCurrency(s.GrossTax),
			FormatCurrency(s.OtherStateCredit),
			FormatCurrency(s.TotalTaxLiability),
			FormatCurrency(s.TotalWithheld.Add(s.EstimatedPayments)),
			FormatCurrency(s.TotalRefund),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("State", "Residency", "Income", "Ratio", "Taxable", "Tax", "Other-state credit", "Liability", "Payments", "Refund").
		Rows(rows...).
		String()
}

func writeEstimate(buf *bytes.Buffer, est *domain.QuarterlyEstimate) {
	title := fmt.Sprintf("ESTIMATED PAYMENTS FOR %d", est.TaxYear)
	if est.Jurisdiction != "" {
		title += " (" + est.Jurisdiction.Name() + ")"
	}
	fmt.Fprintln(buf, sectionStyle.Render(title))
	fmt.Fprintf(buf, "  Safe harbor: %s of %s = %s\n",
		FormatRate(est.SafeHarborRate), FormatCurrency(est.BaseLiability), FormatCurrency(est.SafeHarborAmount))
	insts := append([]domain.QuarterlyInstallment(nil), est.Installments...)
	sort.Slice(insts, func(a, b int) bool { return insts[a].Quarter < insts[b].Quarter })
	for _, inst := range insts {
		fmt.Fprintln(buf, labelStyle.Render(fmt.Sprintf("Q%d due %s", inst.Quarter, inst.DueDate))+FormatCurrency(inst.Amount))
	}
}

// ConsoleLiteFormatter prints one line per result, suited to batches.
type ConsoleLiteFormatter struct{}

func (c ConsoleLiteFormatter) Name() string { return "console-lite" }

func (c ConsoleLiteFormatter) Format(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "TAX SUMMARY")
	fmt.Fprintln(&buf, strings.Repeat("=", 32))
	for _, res := range report.Results {
		states := make([]string, 0, len(res.States))
		for _, s := range res.States {
			states = append(states, string(s.Jurisdiction)+"="+FormatCurrency(s.TotalTaxLiability))
		}
		fmt.Fprintf(&buf, "%s (%d): AGI=%s Federal=%s States=[%s] Refund=%s\n",
			res.ProfileID, res.TaxYear,
			FormatCurrency(res.Federal.AGI),
			FormatCurrency(res.Federal.TotalTaxLiability),
			strings.Join(states, " "),
			FormatCurrency(res.Summary.TotalRefund),
		)
	}
	for _, f := range report.Failures {
		fmt.Fprintf(&buf, "%s: FAILED: %s\n", f.ProfileID, f.Error)
	}
	fmt.Fprintf(&buf, "\n%d calculated, %d failed\n", len(report.Results), len(report.Failures))
	return buf.Bytes(), nil
}
