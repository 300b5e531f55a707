package transform

import (
	"fmt"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/shopspring/decimal"
)

// ProfileTransform is one what-if change to a taxpayer profile. Transforms never
// modify their input; Apply returns a new profile.
type ProfileTransform interface {
	// Apply returns a modified copy of base.
	Apply(base *domain.TaxpayerProfile) (*domain.TaxpayerProfile, error)

	// Name returns a short identifier (e.g. "set_filing_status").
	Name() string

	// Description returns a human-readable summary of the change.
	Description() string

	// Validate checks the transform parameters against base without applying it.
	Validate(base *domain.TaxpayerProfile) error
}

// ApplyTransforms applies transforms in order, each receiving the output of the previous one.
// The resulting profile is validated so a what-if can never produce input the engine rejects
// for a reason other than the change itself.
func ApplyTransforms(base *domain.TaxpayerProfile, transforms []ProfileTransform) (*domain.TaxpayerProfile, error) {
	if base == nil {
		return nil, fmt.Errorf("base profile cannot be nil")
	}

	current := Clone(base)
	for i, t := range transforms {
		if t == nil {
			return nil, fmt.Errorf("transform at index %d is nil", i)
		}
		if err := t.Validate(current); err != nil {
			return nil, fmt.Errorf("transform %s validation failed: %w", t.Name(), err)
		}
		next, err := t.Apply(current)
		if err != nil {
			return nil, fmt.Errorf("transform %s failed: %w", t.Name(), err)
		}
		current = next
	}

	if err := current.Validate(); err != nil {
		return nil, fmt.Errorf("transformed profile is invalid: %w", err)
	}
	return current, nil
}

// TransformError represents an error that occurred during transformation.
type TransformError struct {
	TransformName string
	Operation     string
	Reason        string
	Err           error
}

func (e *TransformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transform %s (%s): %s: %v", e.TransformName, e.Operation, e.Reason, e.Err)
	}
	return fmt.Sprintf("transform %s (%s): %s", e.TransformName, e.Operation, e.Reason)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// NewTransformError creates a new TransformError.
func NewTransformError(transformName, operation, reason string, err error) error {
	return &TransformError{
		TransformName: transformName,
		Operation:     operation,
		Reason:        reason,
		Err:           err,
	}
}

// Clone returns a deep copy of p. Decimal values are immutable and shared.
func Clone(p *domain.TaxpayerProfile) *domain.TaxpayerProfile {
	out := *p
	if p.Spouse != nil {
		s := *p.Spouse
		out.Spouse = &s
	}
	if p.Income != nil {
		out.Income = make([]domain.IncomeSource, len(p.Income))
		for i, src := range p.Income {
			out.Income[i] = cloneIncome(src)
		}
	}
	if p.Dependents != nil {
		out.Dependents = append([]domain.Dependent(nil), p.Dependents...)
	}
	if p.Deduction.ItemizedAmount != nil {
		amt := *p.Deduction.ItemizedAmount
		out.Deduction.ItemizedAmount = &amt
	}
	if p.EstimatedPayments != nil {
		out.EstimatedPayments = make(map[domain.Jurisdiction]decimal.Decimal, len(p.EstimatedPayments))
		for j, amt := range p.EstimatedPayments {
			out.EstimatedPayments[j] = amt
		}
	}
	if p.Scenarios != nil {
		out.Scenarios = append([]domain.StateScenario(nil), p.Scenarios...)
	}
	return &out
}

func cloneIncome(src domain.IncomeSource) domain.IncomeSource {
	var out domain.IncomeSource
	if src.Wages != nil {
		w := *src.Wages
		out.Wages = &w
	}
	if src.SelfEmployment != nil {
		s := *src.SelfEmployment
		out.SelfEmployment = &s
	}
	if src.Investment != nil {
		inv := *src.Investment
		out.Investment = &inv
	}
	if src.Other != nil {
		o := *src.Other
		out.Other = &o
	}
	return out
}
