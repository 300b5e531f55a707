package domain

import (
	"github.com/shopspring/decimal"
)

// IncomeKind names the variant held by an IncomeSource
type IncomeKind string

const (
	WageIncomeKind           IncomeKind = "wages"
	SelfEmploymentIncomeKind IncomeKind = "self_employment"
	InvestmentIncomeKind     IncomeKind = "investment"
	OtherIncomeKind          IncomeKind = "other"
)

// WageIncome is W-2 style employment income.
type WageIncome struct {
	Employer               string          `yaml:"employer" json:"employer"`
	Gross                  decimal.Decimal `yaml:"gross" json:"gross"`
	FederalWithheld        decimal.Decimal `yaml:"federal_withheld" json:"federal_withheld"`
	SocialSecurityWithheld decimal.Decimal `yaml:"social_security_withheld" json:"social_security_withheld"`
	MedicareWithheld       decimal.Decimal `yaml:"medicare_withheld" json:"medicare_withheld"`
	StateWithheld          decimal.Decimal `yaml:"state_withheld" json:"state_withheld"`
	Source                 Jurisdiction    `yaml:"source" json:"source"`
	Spouse                 bool            `yaml:"spouse,omitempty" json:"spouse,omitempty"`
}

// SelfEmploymentIncome is Schedule C style business income.
type SelfEmploymentIncome struct {
	Business      string          `yaml:"business" json:"business"`
	GrossReceipts decimal.Decimal `yaml:"gross_receipts" json:"gross_receipts"`
	Expenses      decimal.Decimal `yaml:"expenses" json:"expenses"`
	Source        Jurisdiction    `yaml:"source" json:"source"`
	Spouse        bool            `yaml:"spouse,omitempty" json:"spouse,omitempty"`
}

// NetProfit is receipts less expenses; it may be negative.
func (s SelfEmploymentIncome) NetProfit() decimal.Decimal {
	return s.GrossReceipts.Sub(s.Expenses)
}

// InvestmentIncome is interest, dividends and gains. It is sourced to the state of residence.
type InvestmentIncome struct {
	Payer           string          `yaml:"payer" json:"payer"`
	Interest        decimal.Decimal `yaml:"interest" json:"interest"`
	Dividends       decimal.Decimal `yaml:"dividends" json:"dividends"`
	CapitalGains    decimal.Decimal `yaml:"capital_gains" json:"capital_gains"`
	FederalWithheld decimal.Decimal `yaml:"federal_withheld" json:"federal_withheld"`
}

// Total is the ordinary-income amount of the investment source.
func (i InvestmentIncome) Total() decimal.Decimal {
	return i.Interest.Add(i.Dividends).Add(i.CapitalGains)
}

// OtherIncome covers taxable amounts that need no special treatment (unemployment, pensions, prizes).
type OtherIncome struct {
	Description     string          `yaml:"description" json:"description"`
	Amount          decimal.Decimal `yaml:"amount" json:"amount"`
	FederalWithheld decimal.Decimal `yaml:"federal_withheld" json:"federal_withheld"`
	StateWithheld   decimal.Decimal `yaml:"state_withheld" json:"state_withheld"`
	Source          Jurisdiction    `yaml:"source" json:"source"`
}

// IncomeSource holds exactly one income variant.
type IncomeSource struct {
	Wages          *WageIncome           `yaml:"wages,omitempty" json:"wages,omitempty"`
	SelfEmployment *SelfEmploymentIncome `yaml:"self_employment,omitempty" json:"self_employment,omitempty"`
	Investment     *InvestmentIncome     `yaml:"investment,omitempty" json:"investment,omitempty"`
	Other          *OtherIncome          `yaml:"other,omitempty" json:"other,omitempty"`
}

// Kind returns the variant held, or "" when zero or several are set.
func (s IncomeSource) Kind() IncomeKind {
	var kind IncomeKind
	n := 0
	if s.Wages != nil {
		kind, n = WageIncomeKind, n+1
	}
	if s.SelfEmployment != nil {
		kind, n = SelfEmploymentIncomeKind, n+1
	}
	if s.Investment != nil {
		kind, n = InvestmentIncomeKind, n+1
	}
	if s.Other != nil {
		kind, n = OtherIncomeKind, n+1
	}
	if n != 1 {
		return ""
	}
	return kind
}

// SourceJurisdiction returns the state the income is earned in. Investment income and
// sources without an explicit state are sourced to the resident jurisdiction.
func (s IncomeSource) SourceJurisdiction(resident Jurisdiction) Jurisdiction {
	var src Jurisdiction
	switch s.Kind() {
	case WageIncomeKind:
		src = s.Wages.Source
	case SelfEmploymentIncomeKind:
		src = s.SelfEmployment.Source
	case OtherIncomeKind:
		src = s.Other.Source
	}
	if src == "" {
		return resident
	}
	return src
}

// FederalWithheld is the federal income tax withheld on this source.
func (s IncomeSource) FederalWithheld() decimal.Decimal {
	switch s.Kind() {
	case WageIncomeKind:
		return s.Wages.FederalWithheld
	case InvestmentIncomeKind:
		return s.Investment.FederalWithheld
	case OtherIncomeKind:
		return s.Other.FederalWithheld
	}
	return decimal.Zero
}

// StateWithheld is the state income tax withheld for the source jurisdiction.
func (s IncomeSource) StateWithheld() decimal.Decimal {
	switch s.Kind() {
	case WageIncomeKind:
		return s.Wages.StateWithheld
	case OtherIncomeKind:
		return s.Other.StateWithheld
	}
	return decimal.Zero
}

// Contribution is the amount the source adds to total income before adjustments.
// Self-employment losses contribute a negative amount.
func (s IncomeSource) Contribution() decimal.Decimal {
	switch s.Kind() {
	case WageIncomeKind:
		return s.Wages.Gross
	case SelfEmploymentIncomeKind:
		return s.SelfEmployment.NetProfit()
	case InvestmentIncomeKind:
		return s.Investment.Total()
	case OtherIncomeKind:
		return s.Other.Amount
	}
	return decimal.Zero
}

// Label is a short human description used in warnings and logs.
func (s IncomeSource) Label() string {
	switch s.Kind() {
	case WageIncomeKind:
		return "wages:" + s.Wages.Employer
	case SelfEmploymentIncomeKind:
		return "self_employment:" + s.SelfEmployment.Business
	case InvestmentIncomeKind:
		return "investment:" + s.Investment.Payer
	case OtherIncomeKind:
		return "other:" + s.Other.Description
	}
	return "unknown"
}

// Relationship of a dependent to the taxpayer
type Relationship string

const (
	Child         Relationship = "child"
	Stepchild     Relationship = "stepchild"
	FosterChild   Relationship = "foster_child"
	Sibling       Relationship = "sibling"
	Grandchild    Relationship = "grandchild"
	Parent        Relationship = "parent"
	OtherRelative Relationship = "other_relative"
)

// Valid reports whether r is a known relationship.
func (r Relationship) Valid() bool {
	switch r {
	case Child, Stepchild, FosterChild, Sibling, Grandchild, Parent, OtherRelative:
		return true
	}
	return false
}

// Dependent is a person claimed on the return.
type Dependent struct {
	Name           string       `yaml:"name" json:"name"`
	Relationship   Relationship `yaml:"relationship" json:"relationship"`
	Age            int          `yaml:"age" json:"age"`
	MonthsResident int          `yaml:"months_resident" json:"months_resident"`
}

// Person carries the filer facts that change the standard deduction.
type Person struct {
	Age   int  `yaml:"age" json:"age"`
	Blind bool `yaml:"blind" json:"blind"`
}

// Adjustments are above-the-line deductions subtracted when computing AGI.
type Adjustments struct {
	StudentLoanInterest decimal.Decimal `yaml:"student_loan_interest" json:"student_loan_interest"`
	EducatorExpenses    decimal.Decimal `yaml:"educator_expenses" json:"educator_expenses"`
	HSADeduction        decimal.Decimal `yaml:"hsa_deduction" json:"hsa_deduction"`
}

// DeductionMethod is the taxpayer's deduction election
type DeductionMethod string

const (
	StandardDeduction DeductionMethod = "standard"
	ItemizedDeduction DeductionMethod = "itemized"
)

// DeductionElection is standard, or itemized with an amount.
type DeductionElection struct {
	Method         DeductionMethod  `yaml:"method" json:"method"`
	ItemizedAmount *decimal.Decimal `yaml:"itemized_amount,omitempty" json:"itemized_amount,omitempty"`
}

// StateScenario places the taxpayer in a state with a residency status.
type StateScenario struct {
	Jurisdiction Jurisdiction `yaml:"jurisdiction" json:"jurisdiction"`
	Residency    Residency    `yaml:"residency" json:"residency"`
}

// TaxpayerProfile is the complete structured input for one calculation.
type TaxpayerProfile struct {
	ID                   string                           `yaml:"id,omitempty" json:"id,omitempty"`
	TaxYear              int                              `yaml:"tax_year" json:"tax_year"`
	FilingStatus         FilingStatus                     `yaml:"filing_status" json:"filing_status"`
	Taxpayer             Person                           `yaml:"taxpayer" json:"taxpayer"`
	Spouse               *Person                          `yaml:"spouse,omitempty" json:"spouse,omitempty"`
	Income               []IncomeSource                   `yaml:"income" json:"income"`
	Dependents           []Dependent                      `yaml:"dependents,omitempty" json:"dependents,omitempty"`
	Adjustments          Adjustments                      `yaml:"adjustments,omitempty" json:"adjustments,omitempty"`
	Deduction            DeductionElection                `yaml:"deduction" json:"deduction"`
	EducationExpenses    decimal.Decimal                  `yaml:"education_expenses,omitempty" json:"education_expenses,omitempty"`
	EstimatedPayments    map[Jurisdiction]decimal.Decimal `yaml:"estimated_payments,omitempty" json:"estimated_payments,omitempty"`
	ResidentJurisdiction Jurisdiction                     `yaml:"resident_jurisdiction" json:"resident_jurisdiction"`
	Scenarios            []StateScenario                  `yaml:"scenarios,omitempty" json:"scenarios,omitempty"`
}

// EarnedIncome is wages plus positive self-employment profit.
func (p *TaxpayerProfile) EarnedIncome() decimal.Decimal {
	total := decimal.Zero
	for _, src := range p.Income {
		switch src.Kind() {
		case WageIncomeKind:
			total = total.Add(src.Wages.Gross)
		case SelfEmploymentIncomeKind:
			if np := src.SelfEmployment.NetProfit(); np.IsPositive() {
				total = total.Add(np)
			}
		}
	}
	return total
}

// StateScenarios returns the explicit scenarios, or derives them: the resident
// jurisdiction as resident plus every other sourcing state as nonresident.
func (p *TaxpayerProfile) StateScenarios() []StateScenario {
	if len(p.Scenarios) > 0 {
		return p.Scenarios
	}
	var out []StateScenario
	seen := map[Jurisdiction]bool{}
	if p.ResidentJurisdiction.IsState() {
		out = append(out, StateScenario{Jurisdiction: p.ResidentJurisdiction, Residency: Resident})
		seen[p.ResidentJurisdiction] = true
	}
	for _, src := range p.Income {
		j := src.SourceJurisdiction(p.ResidentJurisdiction)
		if seen[j] || !j.IsState() {
			continue
		}
		seen[j] = true
		out = append(out, StateScenario{Jurisdiction: j, Residency: Nonresident})
	}
	return out
}

// Jurisdictions lists every rule set the profile needs: federal first, then each scenario state.
func (p *TaxpayerProfile) Jurisdictions() []Jurisdiction {
	out := []Jurisdiction{Federal}
	for _, sc := range p.StateScenarios() {
		out = append(out, sc.Jurisdiction)
	}
	return out
}
