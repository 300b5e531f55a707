package rules

import (
	"sort"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/shopspring/decimal"
)

// Bracket is a validated marginal-rate band covering [Lower, Upper).
type Bracket struct {
	Rate      decimal.Decimal
	Lower     decimal.Decimal
	Upper     decimal.Decimal // zero when Unbounded
	Unbounded bool
}

// Contains reports whether income falls inside the band. The lower bound is inclusive.
func (b Bracket) Contains(income decimal.Decimal) bool {
	if income.LessThan(b.Lower) {
		return false
	}
	return b.Unbounded || income.LessThan(b.Upper)
}

// BracketTable is an ordered, contiguous set of brackets starting at zero and ending unbounded.
type BracketTable []Bracket

// AdjustmentCaps caps above-the-line adjustments; nil fields are uncapped.
type AdjustmentCaps struct {
	StudentLoanInterest *decimal.Decimal
	EducatorExpenses    *decimal.Decimal
	HSADeduction        *decimal.Decimal
}

// Qualifier selects the dependents a credit counts.
type Qualifier struct {
	Relationships     map[domain.Relationship]bool // empty means any relationship
	MinAge            *int
	MaxAge            *int
	MinMonthsResident int
}

// Matches reports whether d satisfies the qualifier.
func (q *Qualifier) Matches(d domain.Dependent) bool {
	if len(q.Relationships) > 0 && !q.Relationships[d.Relationship] {
		return false
	}
	if q.MinAge != nil && d.Age < *q.MinAge {
		return false
	}
	if q.MaxAge != nil && d.Age > *q.MaxAge {
		return false
	}
	return d.MonthsResident >= q.MinMonthsResident
}

// PhaseOut describes the income-based reduction of a credit.
type PhaseOut struct {
	Start map[domain.FilingStatus]decimal.Decimal
	End   map[domain.FilingStatus]decimal.Decimal // optional; used when Rate is nil
	Rate  *decimal.Decimal
	Step  *decimal.Decimal
}

// Credit is a compiled credit definition.
type Credit struct {
	ID                          string
	Name                        string
	BaseAmount                  decimal.Decimal
	PerDependent                bool
	Qualifier                   *Qualifier
	FilingStatuses              map[domain.FilingStatus]bool // empty means every status
	MinDependents               int
	MaxDependents               *int
	EarnedIncomeRequired        bool
	PhaseInRate                 *decimal.Decimal
	PhaseOut                    *PhaseOut
	Refundable                  bool
	RefundableLimitPerDependent *decimal.Decimal
	// ExpenseTiers make the credit expense-driven; BaseAmount then caps it when positive.
	ExpenseTiers []ExpenseTier
}

// ExpenseTier is one band of qualified expenses. A nil Width is unbounded.
type ExpenseTier struct {
	Rate  decimal.Decimal
	Width *decimal.Decimal
}

// Payroll holds FICA and self-employment parameters.
type Payroll struct {
	SocialSecurityRate               decimal.Decimal
	SocialSecurityWageBase           decimal.Decimal
	MedicareRate                     decimal.Decimal
	AdditionalMedicareRate           decimal.Decimal
	AdditionalMedicareThreshold      map[domain.FilingStatus]decimal.Decimal
	SelfEmploymentEarningsFactor     decimal.Decimal
	SelfEmploymentSocialSecurityRate decimal.Decimal
	SelfEmploymentMedicareRate       decimal.Decimal
}

// EstimatedTax holds the safe-harbor parameters for quarterly payments.
type EstimatedTax struct {
	SafeHarborRate         decimal.Decimal
	HighIncomeRate         decimal.Decimal
	HighIncomeAGIThreshold decimal.Decimal
}

// RuleSet is the immutable, validated rule data for one (year, jurisdiction).
// Instances are shared across goroutines and must never be modified after Compile.
type RuleSet struct {
	Year         int
	Jurisdiction domain.Jurisdiction
	Version      string
	NoIncomeTax  bool

	AdditionalDeductionMarried   decimal.Decimal
	AdditionalDeductionUnmarried decimal.Decimal
	ItemizedCap                  *decimal.Decimal
	AdjustmentCaps               AdjustmentCaps
	Credits                      []Credit
	Payroll                      *Payroll
	EstimatedTax                 *EstimatedTax

	brackets    map[domain.FilingStatus]BracketTable
	standard    map[domain.FilingStatus]decimal.Decimal
	reciprocity map[domain.Jurisdiction]bool
}

// Key identifies a rule set.
type Key struct {
	Year         int
	Jurisdiction domain.Jurisdiction
}

// Key returns the (year, jurisdiction) identity of the rule set.
func (rs *RuleSet) Key() Key {
	return Key{Year: rs.Year, Jurisdiction: rs.Jurisdiction}
}

// Brackets returns the bracket table for a filing status. It is nil only for
// no-income-tax jurisdictions.
func (rs *RuleSet) Brackets(fs domain.FilingStatus) BracketTable {
	return rs.brackets[fs]
}

// StandardDeduction returns the base standard deduction for a filing status.
func (rs *RuleSet) StandardDeduction(fs domain.FilingStatus) decimal.Decimal {
	return rs.standard[fs]
}

// HasReciprocity reports whether this jurisdiction exempts wages earned by residents of other.
func (rs *RuleSet) HasReciprocity(other domain.Jurisdiction) bool {
	return rs.reciprocity[other]
}

// ReciprocityPartners lists the jurisdictions this one has agreements with.
func (rs *RuleSet) ReciprocityPartners() []domain.Jurisdiction {
	out := make([]domain.Jurisdiction, 0, len(rs.reciprocity))
	for j := range rs.reciprocity {
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// Book is the read-only set of rule sets one calculation needs.
type Book struct {
	Year int
	sets map[domain.Jurisdiction]*RuleSet
}

// NewBook assembles a book from already compiled rule sets.
func NewBook(year int, sets ...*RuleSet) *Book {
	b := &Book{Year: year, sets: make(map[domain.Jurisdiction]*RuleSet, len(sets))}
	for _, rs := range sets {
		b.sets[rs.Jurisdiction] = rs
	}
	return b
}

// RuleSet returns the rule set for j, or an ErrUnsupportedRuleSet error.
func (b *Book) RuleSet(j domain.Jurisdiction) (*RuleSet, error) {
	rs, ok := b.sets[j]
	if !ok {
		return nil, domain.Unsupported(b.Year, j)
	}
	return rs, nil
}

// Federal returns the federal rule set of the book.
func (b *Book) Federal() (*RuleSet, error) {
	return b.RuleSet(domain.Federal)
}
