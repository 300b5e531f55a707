package transform

import (
	"fmt"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/shopspring/decimal"
)

// SetFilingStatus changes the filing status. Leaving a joint return removes the
// spouse and every spouse-owned income source from the profile, since the spouse
// files separately.
type SetFilingStatus struct {
	Status domain.FilingStatus
}

func (t *SetFilingStatus) Name() string { return "set_filing_status" }

func (t *SetFilingStatus) Description() string {
	return fmt.Sprintf("File as %s", t.Status)
}

func (t *SetFilingStatus) Validate(base *domain.TaxpayerProfile) error {
	if !t.Status.Valid() {
		return NewTransformError(t.Name(), "validate", fmt.Sprintf("unrecognized filing status %q", t.Status), nil)
	}
	return nil
}

func (t *SetFilingStatus) Apply(base *domain.TaxpayerProfile) (*domain.TaxpayerProfile, error) {
	out := Clone(base)
	out.FilingStatus = t.Status
	if t.Status.Joint() {
		return out, nil
	}
	out.Spouse = nil
	kept := out.Income[:0]
	for _, src := range out.Income {
		if src.Wages != nil && src.Wages.Spouse {
			continue
		}
		if src.SelfEmployment != nil && src.SelfEmployment.Spouse {
			continue
		}
		kept = append(kept, src)
	}
	out.Income = kept
	return out, nil
}

// SetDeduction changes the deduction election.
type SetDeduction struct {
	Method domain.DeductionMethod
	Amount *decimal.Decimal // required for itemized
}

func (t *SetDeduction) Name() string { return "set_deduction" }

func (t *SetDeduction) Description() string {
	if t.Method == domain.ItemizedDeduction && t.Amount != nil {
		return fmt.Sprintf("Itemize deductions of $%s", t.Amount.StringFixed(2))
	}
	return "Take the standard deduction"
}

func (t *SetDeduction) Validate(base *domain.TaxpayerProfile) error {
	switch t.Method {
	case domain.StandardDeduction:
		return nil
	case domain.ItemizedDeduction:
		if t.Amount == nil {
			return NewTransformError(t.Name(), "validate", "itemized deduction requires an amount", nil)
		}
		if t.Amount.IsNegative() {
			return NewTransformError(t.Name(), "validate", "amount cannot be negative", nil)
		}
		return nil
	}
	return NewTransformError(t.Name(), "validate", fmt.Sprintf("unrecognized deduction method %q", t.Method), nil)
}

func (t *SetDeduction) Apply(base *domain.TaxpayerProfile) (*domain.TaxpayerProfile, error) {
	out := Clone(base)
	out.Deduction = domain.DeductionElection{Method: t.Method}
	if t.Method == domain.ItemizedDeduction {
		amt := *t.Amount
		out.Deduction.ItemizedAmount = &amt
	}
	return out, nil
}

// Relocate moves the taxpayer's residence to another state. Explicit state scenarios
// are dropped so they are derived again from the new residence. Without MoveWork the
// work stays in the old state; with it, income sourced to the old state moves too.
type Relocate struct {
	To       domain.Jurisdiction
	MoveWork bool
}

func (t *Relocate) Name() string { return "relocate" }

func (t *Relocate) Description() string {
	if t.MoveWork {
		return fmt.Sprintf("Live and work in %s", t.To.Name())
	}
	return fmt.Sprintf("Live in %s", t.To.Name())
}

func (t *Relocate) Validate(base *domain.TaxpayerProfile) error {
	if !t.To.IsState() {
		return NewTransformError(t.Name(), "validate", fmt.Sprintf("%q is not a state", t.To), nil)
	}
	if t.To == base.ResidentJurisdiction {
		return NewTransformError(t.Name(), "validate", fmt.Sprintf("already resident in %s", t.To), nil)
	}
	return nil
}

func (t *Relocate) Apply(base *domain.TaxpayerProfile) (*domain.TaxpayerProfile, error) {
	out := Clone(base)
	from := out.ResidentJurisdiction
	out.ResidentJurisdiction = t.To
	out.Scenarios = nil

	// Unsourced income follows the residence, so a job that stays behind is
	// pinned to the old state. Moving the job re-sources the old state's income.
	for i := range out.Income {
		if src := sourceField(&out.Income[i]); src != nil {
			switch {
			case t.MoveWork && *src == from:
				*src = t.To
			case !t.MoveWork && *src == "":
				*src = from
			}
		}
	}
	if amt, ok := out.EstimatedPayments[from]; ok {
		delete(out.EstimatedPayments, from)
		out.EstimatedPayments[t.To] = out.EstimatedPayments[t.To].Add(amt)
	}
	return out, nil
}

// sourceField returns the work-location field of an income source, or nil for
// income that is always sourced to the residence.
func sourceField(src *domain.IncomeSource) *domain.Jurisdiction {
	switch {
	case src.Wages != nil:
		return &src.Wages.Source
	case src.SelfEmployment != nil:
		return &src.SelfEmployment.Source
	case src.Other != nil:
		return &src.Other.Source
	}
	return nil
}

// AddDependent claims one more dependent.
type AddDependent struct {
	Dependent domain.Dependent
}

func (t *AddDependent) Name() string { return "add_dependent" }

func (t *AddDependent) Description() string {
	return fmt.Sprintf("Claim a %s dependent age %d", t.Dependent.Relationship, t.Dependent.Age)
}

func (t *AddDependent) Validate(base *domain.TaxpayerProfile) error {
	d := t.Dependent
	if !d.Relationship.Valid() {
		return NewTransformError(t.Name(), "validate", fmt.Sprintf("unrecognized relationship %q", d.Relationship), nil)
	}
	if d.Age < 0 {
		return NewTransformError(t.Name(), "validate", "age cannot be negative", nil)
	}
	if d.MonthsResident < 0 || d.MonthsResident > 12 {
		return NewTransformError(t.Name(), "validate", "months resident must be between 0 and 12", nil)
	}
	return nil
}

func (t *AddDependent) Apply(base *domain.TaxpayerProfile) (*domain.TaxpayerProfile, error) {
	out := Clone(base)
	out.Dependents = append(out.Dependents, t.Dependent)
	return out, nil
}

// SetEstimatedPayment replaces the estimated payments made to one jurisdiction.
type SetEstimatedPayment struct {
	Jurisdiction domain.Jurisdiction
	Amount       decimal.Decimal
}

func (t *SetEstimatedPayment) Name() string { return "set_estimated_payment" }

func (t *SetEstimatedPayment) Description() string {
	return fmt.Sprintf("Pay $%s estimated tax to %s", t.Amount.StringFixed(2), t.Jurisdiction)
}

func (t *SetEstimatedPayment) Validate(base *domain.TaxpayerProfile) error {
	if !t.Jurisdiction.Valid() {
		return NewTransformError(t.Name(), "validate", fmt.Sprintf("unrecognized jurisdiction %q", t.Jurisdiction), nil)
	}
	if t.Amount.IsNegative() {
		return NewTransformError(t.Name(), "validate", "amount cannot be negative", nil)
	}
	return nil
}

func (t *SetEstimatedPayment) Apply(base *domain.TaxpayerProfile) (*domain.TaxpayerProfile, error) {
	out := Clone(base)
	if out.EstimatedPayments == nil {
		out.EstimatedPayments = map[domain.Jurisdiction]decimal.Decimal{}
	}
	out.EstimatedPayments[t.Jurisdiction] = t.Amount
	return out, nil
}

// Adjustment kinds accepted by SetAdjustment.
const (
	StudentLoanInterest = "student_loan_interest"
	EducatorExpenses    = "educator_expenses"
	HSADeduction        = "hsa_deduction"
)

// SetAdjustment replaces one above-the-line adjustment.
type SetAdjustment struct {
	Kind   string
	Amount decimal.Decimal
}

func (t *SetAdjustment) Name() string { return "set_adjustment" }

func (t *SetAdjustment) Description() string {
	return fmt.Sprintf("Set %s to $%s", t.Kind, t.Amount.StringFixed(2))
}

func (t *SetAdjustment) Validate(base *domain.TaxpayerProfile) error {
	switch t.Kind {
	case StudentLoanInterest, EducatorExpenses, HSADeduction:
	default:
		return NewTransformError(t.Name(), "validate", fmt.Sprintf("unrecognized adjustment %q", t.Kind), nil)
	}
	if t.Amount.IsNegative() {
		return NewTransformError(t.Name(), "validate", "amount cannot be negative", nil)
	}
	return nil
}

func (t *SetAdjustment) Apply(base *domain.TaxpayerProfile) (*domain.TaxpayerProfile, error) {
	out := Clone(base)
	switch t.Kind {
	case StudentLoanInterest:
		out.Adjustments.StudentLoanInterest = t.Amount
	case EducatorExpenses:
		out.Adjustments.EducatorExpenses = t.Amount
	case HSADeduction:
		out.Adjustments.HSADeduction = t.Amount
	}
	return out, nil
}
