package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Validate checks the profile for fatal input problems. The first problem found is
// returned as an *InputError naming the offending field.
func (p *TaxpayerProfile) Validate() error {
	if p.TaxYear < 1913 {
		return InvalidInput("tax_year", "tax year %d is not valid", p.TaxYear)
	}
	if !p.FilingStatus.Valid() {
		return InvalidInput("filing_status", "unrecognized filing status %q", p.FilingStatus)
	}
	if err := validatePerson("taxpayer", p.Taxpayer); err != nil {
		return err
	}
	if p.Spouse != nil {
		if !p.FilingStatus.Joint() {
			return InvalidInput("spouse", "spouse facts apply only to %s returns", MarriedFilingJointly)
		}
		if err := validatePerson("spouse", *p.Spouse); err != nil {
			return err
		}
	}
	if !p.ResidentJurisdiction.Valid() {
		return InvalidInput("resident_jurisdiction", "unrecognized jurisdiction %q", p.ResidentJurisdiction)
	}
	if !p.ResidentJurisdiction.IsState() {
		return InvalidInput("resident_jurisdiction", "resident jurisdiction must be a state, got %s", p.ResidentJurisdiction)
	}

	for i, src := range p.Income {
		if err := validateIncome(fmt.Sprintf("income[%d]", i), src, p.FilingStatus); err != nil {
			return err
		}
	}
	for i, dep := range p.Dependents {
		field := fmt.Sprintf("dependents[%d]", i)
		if !dep.Relationship.Valid() {
			return InvalidInput(field+".relationship", "unrecognized relationship %q", dep.Relationship)
		}
		if dep.Age < 0 {
			return InvalidInput(field+".age", "age cannot be negative")
		}
		if dep.MonthsResident < 0 || dep.MonthsResident > 12 {
			return InvalidInput(field+".months_resident", "months resident must be between 0 and 12")
		}
	}

	for field, v := range map[string]decimal.Decimal{
		"adjustments.student_loan_interest": p.Adjustments.StudentLoanInterest,
		"adjustments.educator_expenses":     p.Adjustments.EducatorExpenses,
		"adjustments.hsa_deduction":         p.Adjustments.HSADeduction,
		"education_expenses":                p.EducationExpenses,
	} {
		if v.IsNegative() {
			return InvalidInput(field, "amount cannot be negative")
		}
	}

	switch p.Deduction.Method {
	case "", StandardDeduction:
	case ItemizedDeduction:
		if p.Deduction.ItemizedAmount == nil {
			return InvalidInput("deduction.itemized_amount", "itemized deduction requires an amount")
		}
		if p.Deduction.ItemizedAmount.IsNegative() {
			return InvalidInput("deduction.itemized_amount", "amount cannot be negative")
		}
	default:
		return InvalidInput("deduction.method", "unrecognized deduction method %q", p.Deduction.Method)
	}

	for j, amt := range p.EstimatedPayments {
		if !j.Valid() {
			return InvalidInput("estimated_payments", "unrecognized jurisdiction %q", j)
		}
		if amt.IsNegative() {
			return &InputError{Field: "estimated_payments", Jurisdiction: j, Reason: "amount cannot be negative"}
		}
	}

	return p.validateScenarios()
}

func (p *TaxpayerProfile) validateScenarios() error {
	seen := map[Jurisdiction]bool{}
	residents := 0
	for i, sc := range p.Scenarios {
		field := fmt.Sprintf("scenarios[%d]", i)
		if !sc.Jurisdiction.IsState() {
			return &InputError{Field: field + ".jurisdiction", Jurisdiction: sc.Jurisdiction, Reason: "scenario jurisdiction must be a state"}
		}
		if seen[sc.Jurisdiction] {
			return &InputError{Field: field + ".jurisdiction", Jurisdiction: sc.Jurisdiction, Reason: "jurisdiction appears in more than one scenario"}
		}
		seen[sc.Jurisdiction] = true
		if !sc.Residency.Valid() {
			return &InputError{Field: field + ".residency", Jurisdiction: sc.Jurisdiction, Reason: fmt.Sprintf("unrecognized residency %q", sc.Residency)}
		}
		isHome := sc.Jurisdiction == p.ResidentJurisdiction
		switch {
		case sc.Residency == Resident && !isHome:
			return &InputError{Field: field + ".residency", Jurisdiction: sc.Jurisdiction, Reason: "resident scenario must be the resident jurisdiction"}
		case sc.Residency == Nonresident && isHome:
			return &InputError{Field: field + ".residency", Jurisdiction: sc.Jurisdiction, Reason: "the resident jurisdiction cannot be a nonresident scenario"}
		case sc.Residency == Resident:
			residents++
		}
	}
	if residents > 1 {
		return InvalidInput("scenarios", "at most one resident scenario is allowed")
	}
	return nil
}

func validatePerson(field string, p Person) error {
	if p.Age < 0 || p.Age > 130 {
		return InvalidInput(field+".age", "age %d is out of range", p.Age)
	}
	return nil
}

func validateIncome(field string, src IncomeSource, fs FilingStatus) error {
	kind := src.Kind()
	if kind == "" {
		return InvalidInput(field, "exactly one of wages, self_employment, investment or other must be set")
	}
	amounts := map[string]decimal.Decimal{}
	var source Jurisdiction
	spouse := false
	switch kind {
	case WageIncomeKind:
		w := src.Wages
		amounts["gross"] = w.Gross
		amounts["federal_withheld"] = w.FederalWithheld
		amounts["social_security_withheld"] = w.SocialSecurityWithheld
		amounts["medicare_withheld"] = w.MedicareWithheld
		amounts["state_withheld"] = w.StateWithheld
		source, spouse = w.Source, w.Spouse
	case SelfEmploymentIncomeKind:
		s := src.SelfEmployment
		amounts["gross_receipts"] = s.GrossReceipts
		amounts["expenses"] = s.Expenses
		source, spouse = s.Source, s.Spouse
	case InvestmentIncomeKind:
		inv := src.Investment
		amounts["interest"] = inv.Interest
		amounts["dividends"] = inv.Dividends
		amounts["federal_withheld"] = inv.FederalWithheld
		// Net capital losses are limited by statute; a negative gain is out of scope.
		amounts["capital_gains"] = inv.CapitalGains
	case OtherIncomeKind:
		o := src.Other
		amounts["amount"] = o.Amount
		amounts["federal_withheld"] = o.FederalWithheld
		amounts["state_withheld"] = o.StateWithheld
		source = o.Source
	}
	prefix := field + "." + string(kind) + "."
	for name, v := range amounts {
		if v.IsNegative() {
			return InvalidInput(prefix+name, "amount cannot be negative")
		}
	}
	if source != "" && !source.IsState() {
		return InvalidInput(prefix+"source", "income must be sourced to a state, got %q", source)
	}
	if spouse && !fs.Joint() {
		return InvalidInput(prefix+"spouse", "spouse income is only valid on %s returns", MarriedFilingJointly)
	}
	return nil
}
