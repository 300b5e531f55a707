package domain

import (
	"github.com/shopspring/decimal"
)

// AppliedCredit records how one credit was applied.
type AppliedCredit struct {
	ID                   string          `json:"id" yaml:"id"`
	Name                 string          `json:"name" yaml:"name"`
	Amount               decimal.Decimal `json:"amount" yaml:"amount"`
	NonrefundableApplied decimal.Decimal `json:"nonrefundable_applied" yaml:"nonrefundable_applied"`
	Refundable           decimal.Decimal `json:"refundable" yaml:"refundable"`
	Disallowed           decimal.Decimal `json:"disallowed" yaml:"disallowed"`
	PhaseOutReduced      bool            `json:"phase_out_reduced" yaml:"phase_out_reduced"`
}

// DeductionResult records which deduction was taken.
type DeductionResult struct {
	Method   DeductionMethod `json:"method" yaml:"method"`
	Standard decimal.Decimal `json:"standard" yaml:"standard"`
	Itemized decimal.Decimal `json:"itemized" yaml:"itemized"`
	Amount   decimal.Decimal `json:"amount" yaml:"amount"`
}

// OtherTaxes are federal taxes computed outside the bracket table.
type OtherTaxes struct {
	SelfEmploymentTax     decimal.Decimal `json:"self_employment_tax" yaml:"self_employment_tax"`
	AdditionalMedicareTax decimal.Decimal `json:"additional_medicare_tax" yaml:"additional_medicare_tax"`
	Total                 decimal.Decimal `json:"total" yaml:"total"`
}

// FederalResult is the federal portion of a calculation.
type FederalResult struct {
	TaxYear              int             `json:"tax_year" yaml:"tax_year"`
	RuleSetVersion       string          `json:"rule_set_version" yaml:"rule_set_version"`
	FilingStatus         FilingStatus    `json:"filing_status" yaml:"filing_status"`
	TotalIncome          decimal.Decimal `json:"total_income" yaml:"total_income"`
	Adjustments          decimal.Decimal `json:"adjustments" yaml:"adjustments"`
	AGI                  decimal.Decimal `json:"agi" yaml:"agi"`
	Deduction            DeductionResult `json:"deduction" yaml:"deduction"`
	TaxableIncome        decimal.Decimal `json:"taxable_income" yaml:"taxable_income"`
	GrossTax             decimal.Decimal `json:"gross_tax" yaml:"gross_tax"`
	Credits              []AppliedCredit `json:"credits" yaml:"credits"`
	NonrefundableCredits decimal.Decimal `json:"nonrefundable_credits" yaml:"nonrefundable_credits"`
	RefundableCredits    decimal.Decimal `json:"refundable_credits" yaml:"refundable_credits"`
	OtherTaxes           OtherTaxes      `json:"other_taxes" yaml:"other_taxes"`
	TotalTaxLiability    decimal.Decimal `json:"total_tax_liability" yaml:"total_tax_liability"`
	TotalWithheld        decimal.Decimal `json:"total_withheld" yaml:"total_withheld"`
	EstimatedPayments    decimal.Decimal `json:"estimated_payments" yaml:"estimated_payments"`
	ExcessSocialSecurity decimal.Decimal `json:"excess_social_security" yaml:"excess_social_security"`
	TotalPayments        decimal.Decimal `json:"total_payments" yaml:"total_payments"`
	TotalRefund          decimal.Decimal `json:"total_refund" yaml:"total_refund"`
	EffectiveRate        decimal.Decimal `json:"effective_rate" yaml:"effective_rate"`
	MarginalRate         decimal.Decimal `json:"marginal_rate" yaml:"marginal_rate"`
}

// StateResult is one state scenario's outcome.
type StateResult struct {
	Jurisdiction       Jurisdiction    `json:"jurisdiction" yaml:"jurisdiction"`
	Name               string          `json:"name" yaml:"name"`
	Residency          Residency       `json:"residency" yaml:"residency"`
	RuleSetVersion     string          `json:"rule_set_version" yaml:"rule_set_version"`
	HasIncomeTax       bool            `json:"has_income_tax" yaml:"has_income_tax"`
	SourcedIncome      decimal.Decimal `json:"sourced_income" yaml:"sourced_income"`
	ExemptIncome       decimal.Decimal `json:"exempt_income" yaml:"exempt_income"`
	ApportionedIncome  decimal.Decimal `json:"apportioned_income" yaml:"apportioned_income"`
	ApportionmentRatio decimal.Decimal `json:"apportionment_ratio" yaml:"apportionment_ratio"`
	Deduction          DeductionResult `json:"deduction" yaml:"deduction"`
	TaxableIncome      decimal.Decimal `json:"taxable_income" yaml:"taxable_income"`
	GrossTax           decimal.Decimal `json:"gross_tax" yaml:"gross_tax"`
	Credits            []AppliedCredit `json:"credits" yaml:"credits"`
	RefundableCredits  decimal.Decimal `json:"refundable_credits" yaml:"refundable_credits"`
	OtherStateCredit   decimal.Decimal `json:"other_state_credit" yaml:"other_state_credit"`
	TotalTaxLiability  decimal.Decimal `json:"total_tax_liability" yaml:"total_tax_liability"`
	TotalWithheld      decimal.Decimal `json:"total_withheld" yaml:"total_withheld"`
	EstimatedPayments  decimal.Decimal `json:"estimated_payments" yaml:"estimated_payments"`
	TotalRefund        decimal.Decimal `json:"total_refund" yaml:"total_refund"`
}

// Summary totals federal and state outcomes. Positive TotalRefund is a refund, negative is owed.
type Summary struct {
	TotalTaxLiability decimal.Decimal `json:"total_tax_liability" yaml:"total_tax_liability"`
	TotalWithheld     decimal.Decimal `json:"total_withheld" yaml:"total_withheld"`
	TotalPayments     decimal.Decimal `json:"total_payments" yaml:"total_payments"`
	RefundableCredits decimal.Decimal `json:"refundable_credits" yaml:"refundable_credits"`
	TotalRefund       decimal.Decimal `json:"total_refund" yaml:"total_refund"`
}

// CalculationResult is the immutable output of one calculation.
// Corrections produce a new result; nothing mutates an existing one.
type CalculationResult struct {
	ProfileID string        `json:"profile_id,omitempty" yaml:"profile_id,omitempty"`
	TaxYear   int           `json:"tax_year" yaml:"tax_year"`
	Federal   FederalResult `json:"federal" yaml:"federal"`
	States    []StateResult `json:"states" yaml:"states"`
	Summary   Summary       `json:"summary" yaml:"summary"`
	Warnings  []Warning     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// State returns the result for jurisdiction j, if present.
func (r *CalculationResult) State(j Jurisdiction) (StateResult, bool) {
	for _, s := range r.States {
		if s.Jurisdiction == j {
			return s, true
		}
	}
	return StateResult{}, false
}

// QuarterlyInstallment is one estimated tax payment.
type QuarterlyInstallment struct {
	Quarter int             `json:"quarter" yaml:"quarter"`
	DueDate string          `json:"due_date" yaml:"due_date"`
	Amount  decimal.Decimal `json:"amount" yaml:"amount"`
}

// QuarterlyEstimate is the safe-harbor estimated payment schedule for the next tax year.
type QuarterlyEstimate struct {
	Jurisdiction     Jurisdiction           `json:"jurisdiction" yaml:"jurisdiction"`
	TaxYear          int                    `json:"tax_year" yaml:"tax_year"`
	BaseLiability    decimal.Decimal        `json:"base_liability" yaml:"base_liability"`
	SafeHarborRate   decimal.Decimal        `json:"safe_harbor_rate" yaml:"safe_harbor_rate"`
	SafeHarborAmount decimal.Decimal        `json:"safe_harbor_amount" yaml:"safe_harbor_amount"`
	Installments     []QuarterlyInstallment `json:"installments" yaml:"installments"`
}
