package domain

import (
	"github.com/shopspring/decimal"
)

// RuleSetData is one rule document per (tax year, jurisdiction) as supplied by a rule
// source. It is raw input: the rules package validates it and compiles an immutable
// rule set from it.
type RuleSetData struct {
	Metadata                    RuleSetMetadata                  `yaml:"metadata" json:"metadata"`
	NoIncomeTax                 bool                             `yaml:"no_income_tax" json:"no_income_tax"`
	Brackets                    map[FilingStatus][]BracketData   `yaml:"brackets" json:"brackets"`
	StandardDeduction           map[FilingStatus]decimal.Decimal `yaml:"standard_deduction" json:"standard_deduction"`
	AdditionalStandardDeduction *AdditionalDeductionData         `yaml:"additional_standard_deduction,omitempty" json:"additional_standard_deduction,omitempty"`
	ItemizedCap                 *decimal.Decimal                 `yaml:"itemized_cap,omitempty" json:"itemized_cap,omitempty"`
	AdjustmentCaps              AdjustmentCapsData               `yaml:"adjustment_caps" json:"adjustment_caps"`
	Credits                     []CreditData                     `yaml:"credits" json:"credits"`
	Reciprocity                 []Jurisdiction                   `yaml:"reciprocity" json:"reciprocity"`
	Payroll                     *PayrollData                     `yaml:"payroll,omitempty" json:"payroll,omitempty"`
	EstimatedTax                *EstimatedTaxData                `yaml:"estimated_tax,omitempty" json:"estimated_tax,omitempty"`
}

// RuleSetMetadata identifies the document
type RuleSetMetadata struct {
	Year         int          `yaml:"year" json:"year"`
	Jurisdiction Jurisdiction `yaml:"jurisdiction" json:"jurisdiction"`
	Version      string       `yaml:"version" json:"version"`
	Source       string       `yaml:"source" json:"source"`
	Description  string       `yaml:"description" json:"description"`
}

// BracketData is one marginal-rate band. A nil Upper means unbounded.
type BracketData struct {
	Rate  decimal.Decimal  `yaml:"rate" json:"rate"`
	Lower decimal.Decimal  `yaml:"lower" json:"lower"`
	Upper *decimal.Decimal `yaml:"upper,omitempty" json:"upper,omitempty"`
}

// AdditionalDeductionData holds the per-condition (65+, blind) standard deduction add-ons.
type AdditionalDeductionData struct {
	Married   decimal.Decimal `yaml:"married" json:"married"`
	Unmarried decimal.Decimal `yaml:"unmarried" json:"unmarried"`
}

// AdjustmentCapsData caps above-the-line adjustments. Nil means uncapped.
type AdjustmentCapsData struct {
	StudentLoanInterest *decimal.Decimal `yaml:"student_loan_interest,omitempty" json:"student_loan_interest,omitempty"`
	EducatorExpenses    *decimal.Decimal `yaml:"educator_expenses,omitempty" json:"educator_expenses,omitempty"`
	HSADeduction        *decimal.Decimal `yaml:"hsa_deduction,omitempty" json:"hsa_deduction,omitempty"`
}

// CreditData defines one credit. Credits apply in document order.
type CreditData struct {
	ID                          string            `yaml:"id" json:"id"`
	Name                        string            `yaml:"name" json:"name"`
	BaseAmount                  decimal.Decimal   `yaml:"base_amount" json:"base_amount"`
	PerDependent                bool              `yaml:"per_dependent" json:"per_dependent"`
	DependentQualifier          *QualifierData    `yaml:"dependent_qualifier,omitempty" json:"dependent_qualifier,omitempty"`
	Eligibility                 EligibilityData   `yaml:"eligibility" json:"eligibility"`
	PhaseInRate                 *decimal.Decimal  `yaml:"phase_in_rate,omitempty" json:"phase_in_rate,omitempty"`
	PhaseOut                    *PhaseOutData     `yaml:"phase_out,omitempty" json:"phase_out,omitempty"`
	Refundable                  bool              `yaml:"refundable" json:"refundable"`
	RefundableLimitPerDependent *decimal.Decimal  `yaml:"refundable_limit_per_dependent,omitempty" json:"refundable_limit_per_dependent,omitempty"`
	ExpenseTiers                []ExpenseTierData `yaml:"expense_tiers,omitempty" json:"expense_tiers,omitempty"`
}

// ExpenseTierData credits Rate of the next Width dollars of qualified expenses.
// A nil Width is unbounded and only allowed on the last tier.
type ExpenseTierData struct {
	Rate  decimal.Decimal  `yaml:"rate" json:"rate"`
	Width *decimal.Decimal `yaml:"width,omitempty" json:"width,omitempty"`
}

// QualifierData selects the dependents a credit counts.
type QualifierData struct {
	Relationships     []Relationship `yaml:"relationships" json:"relationships"`
	MinAge            *int           `yaml:"min_age,omitempty" json:"min_age,omitempty"`
	MaxAge            *int           `yaml:"max_age,omitempty" json:"max_age,omitempty"`
	MinMonthsResident int            `yaml:"min_months_resident" json:"min_months_resident"`
}

// EligibilityData restricts who may claim a credit.
type EligibilityData struct {
	FilingStatuses       []FilingStatus `yaml:"filing_statuses" json:"filing_statuses"`
	MinDependents        int            `yaml:"min_dependents" json:"min_dependents"`
	MaxDependents        *int           `yaml:"max_dependents,omitempty" json:"max_dependents,omitempty"`
	EarnedIncomeRequired bool           `yaml:"earned_income_required" json:"earned_income_required"`
}

// PhaseOutData reduces a credit as AGI rises past Start. Either Rate or End must be set.
type PhaseOutData struct {
	Start map[FilingStatus]decimal.Decimal `yaml:"start" json:"start"`
	End   map[FilingStatus]decimal.Decimal `yaml:"end,omitempty" json:"end,omitempty"`
	Rate  *decimal.Decimal                 `yaml:"rate,omitempty" json:"rate,omitempty"`
	Step  *decimal.Decimal                 `yaml:"step,omitempty" json:"step,omitempty"`
}

// PayrollData contains FICA and self-employment rules
type PayrollData struct {
	SocialSecurityRate           decimal.Decimal                  `yaml:"social_security_rate" json:"social_security_rate"`
	SocialSecurityWageBase       decimal.Decimal                  `yaml:"social_security_wage_base" json:"social_security_wage_base"`
	MedicareRate                 decimal.Decimal                  `yaml:"medicare_rate" json:"medicare_rate"`
	AdditionalMedicareRate       decimal.Decimal                  `yaml:"additional_medicare_rate" json:"additional_medicare_rate"`
	AdditionalMedicareThreshold  map[FilingStatus]decimal.Decimal `yaml:"additional_medicare_threshold" json:"additional_medicare_threshold"`
	SelfEmploymentEarningsFactor decimal.Decimal                  `yaml:"self_employment_earnings_factor" json:"self_employment_earnings_factor"`
	SelfEmploymentSocialSecurity decimal.Decimal                  `yaml:"self_employment_social_security_rate" json:"self_employment_social_security_rate"`
	SelfEmploymentMedicare       decimal.Decimal                  `yaml:"self_employment_medicare_rate" json:"self_employment_medicare_rate"`
}

// EstimatedTaxData holds the safe-harbor rules for quarterly payments
type EstimatedTaxData struct {
	SafeHarborRate         decimal.Decimal `yaml:"safe_harbor_rate" json:"safe_harbor_rate"`
	HighIncomeRate         decimal.Decimal `yaml:"high_income_rate" json:"high_income_rate"`
	HighIncomeAGIThreshold decimal.Decimal `yaml:"high_income_agi_threshold" json:"high_income_agi_threshold"`
}
