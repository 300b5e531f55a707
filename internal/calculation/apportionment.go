package calculation

import (
	"fmt"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/rgehrsitz/taxengine/internal/rules"
	"github.com/shopspring/decimal"
)

// ratioPlaces is the precision of apportionment ratios.
const ratioPlaces = 6

// ApportionmentEngine sources income to each state scenario and computes state tax with
// the state's own rule set.
type ApportionmentEngine struct {
	book *rules.Book
}

// NewApportionmentEngine creates an engine reading rule sets from book.
func NewApportionmentEngine(book *rules.Book) *ApportionmentEngine {
	return &ApportionmentEngine{book: book}
}

// Calculate returns one StateResult per scenario, in scenario order. Nonresident states are
// computed first so the resident state can credit the tax they impose.
func (ae *ApportionmentEngine) Calculate(p *domain.TaxpayerProfile, fed *domain.FederalResult) ([]domain.StateResult, error) {
	scenarios := p.StateScenarios()
	results := make([]domain.StateResult, len(scenarios))
	resident := -1

	if err := checkSingleSourcing(scenarios); err != nil {
		return nil, err
	}
	for i, sc := range scenarios {
		if sc.Residency == domain.Resident {
			resident = i
			continue
		}
		rs, err := ae.book.RuleSet(sc.Jurisdiction)
		if err != nil {
			return nil, err
		}
		results[i] = ae.nonresident(rs, p, fed)
	}

	if resident >= 0 {
		rs, err := ae.book.RuleSet(scenarios[resident].Jurisdiction)
		if err != nil {
			return nil, err
		}
		others := make([]domain.StateResult, 0, len(results)-1)
		for i, r := range results {
			if i != resident {
				others = append(others, r)
			}
		}
		results[resident] = ae.resident(rs, p, fed, others)
	}
	return results, nil
}

// Reciprocal reports whether wages earned in work by a resident of home are exempt there.
// Either state's rule set may declare the agreement.
func (ae *ApportionmentEngine) Reciprocal(home, work domain.Jurisdiction) bool {
	if home == work {
		return false
	}
	if rs, err := ae.book.RuleSet(work); err == nil && rs.HasReciprocity(home) {
		return true
	}
	if rs, err := ae.book.RuleSet(home); err == nil && rs.HasReciprocity(work) {
		return true
	}
	return false
}

func (ae *ApportionmentEngine) nonresident(rs *rules.RuleSet, p *domain.TaxpayerProfile, fed *domain.FederalResult) domain.StateResult {
	j := rs.Jurisdiction
	res := newStateResult(rs, domain.Nonresident, p)

	reciprocal := ae.Reciprocal(p.ResidentJurisdiction, j)
	for _, src := range p.Income {
		if src.SourceJurisdiction(p.ResidentJurisdiction) != j {
			continue
		}
		amt := src.Contribution()
		res.SourcedIncome = res.SourcedIncome.Add(amt)
		if reciprocal && src.Kind() == domain.WageIncomeKind {
			res.ExemptIncome = res.ExemptIncome.Add(amt)
		}
	}
	res.ApportionedIncome = decimal.Max(decimal.Zero, res.SourcedIncome.Sub(res.ExemptIncome))
	if rs.NoIncomeTax {
		return finishState(res)
	}

	res.ApportionmentRatio = apportionmentRatio(res.ApportionedIncome, fed.TotalIncome)
	deduction := ResolveDeduction(rs, p)
	deduction.Amount = deduction.Amount.Mul(res.ApportionmentRatio).Round(2)
	res.Deduction = deduction
	res.TaxableIncome = TaxableIncome(res.ApportionedIncome, deduction.Amount)
	res.GrossTax = BracketTax(rs.Brackets(p.FilingStatus), res.TaxableIncome)

	ratio := res.ApportionmentRatio
	credits := ApplyCredits(rs.Credits, CreditContext{
		FilingStatus:      p.FilingStatus,
		AGI:               fed.AGI,
		EarnedIncome:      p.EarnedIncome(),
		Dependents:        p.Dependents,
		QualifiedExpenses: p.EducationExpenses,
		Proration:         &ratio,
	}, res.GrossTax)
	res.Credits = credits.Applied
	res.RefundableCredits = credits.Refundable
	res.TotalTaxLiability = credits.Liability
	return finishState(res)
}

func (ae *ApportionmentEngine) resident(rs *rules.RuleSet, p *domain.TaxpayerProfile, fed *domain.FederalResult, others []domain.StateResult) domain.StateResult {
	res := newStateResult(rs, domain.Resident, p)
	res.SourcedIncome = fed.AGI
	res.ApportionedIncome = fed.AGI
	if rs.NoIncomeTax {
		return finishState(res)
	}

	res.ApportionmentRatio = decimal.NewFromInt(1)
	res.Deduction = ResolveDeduction(rs, p)
	res.TaxableIncome = TaxableIncome(fed.AGI, res.Deduction.Amount)
	res.GrossTax = BracketTax(rs.Brackets(p.FilingStatus), res.TaxableIncome)

	credits := ApplyCredits(rs.Credits, CreditContext{
		FilingStatus:      p.FilingStatus,
		AGI:               fed.AGI,
		EarnedIncome:      p.EarnedIncome(),
		Dependents:        p.Dependents,
		QualifiedExpenses: p.EducationExpenses,
	}, res.GrossTax)
	res.Credits = credits.Applied
	res.RefundableCredits = credits.Refundable

	res.OtherStateCredit = OtherStateCredit(credits.Liability, fed.AGI, others)
	res.TotalTaxLiability = credits.Liability.Sub(res.OtherStateCredit)
	return finishState(res)
}

// OtherStateCredit is the resident credit for tax paid to other states. For each taxing
// state it is the lesser of that state's liability and the resident tax attributable to
// the same income; the total never exceeds the resident tax.
func OtherStateCredit(residentTax, residentBase decimal.Decimal, others []domain.StateResult) decimal.Decimal {
	if !residentTax.IsPositive() || !residentBase.IsPositive() {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, o := range others {
		if !o.TotalTaxLiability.IsPositive() {
			continue
		}
		share := residentTax.Mul(decimal.Min(o.ApportionedIncome, residentBase)).Div(residentBase).Round(2)
		total = total.Add(decimal.Min(o.TotalTaxLiability, share))
	}
	return decimal.Min(total, residentTax)
}

func apportionmentRatio(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() || !part.IsPositive() {
		return decimal.Zero
	}
	return decimal.Min(decimal.NewFromInt(1), part.Div(whole)).Round(ratioPlaces)
}

func newStateResult(rs *rules.RuleSet, residency domain.Residency, p *domain.TaxpayerProfile) domain.StateResult {
	j := rs.Jurisdiction
	res := domain.StateResult{
		Jurisdiction:      j,
		Name:              j.Name(),
		Residency:         residency,
		RuleSetVersion:    rs.Version,
		HasIncomeTax:      !rs.NoIncomeTax,
		EstimatedPayments: p.EstimatedPayments[j],
	}
	for _, src := range p.Income {
		if src.SourceJurisdiction(p.ResidentJurisdiction) == j {
			res.TotalWithheld = res.TotalWithheld.Add(src.StateWithheld())
		}
	}
	return res
}

// ScenarioCoverageWarnings flags income sourced to a state missing from explicit
// scenarios. Such income and its state withholding appear in no state result.
func ScenarioCoverageWarnings(p *domain.TaxpayerProfile) []domain.Warning {
	covered := map[domain.Jurisdiction]bool{}
	for _, sc := range p.StateScenarios() {
		covered[sc.Jurisdiction] = true
	}
	var out []domain.Warning
	for i, src := range p.Income {
		j := src.SourceJurisdiction(p.ResidentJurisdiction)
		if !j.IsState() || covered[j] {
			continue
		}
		msg := fmt.Sprintf("%s of %s is sourced to %s, which has no state scenario",
			src.Label(), src.Contribution().StringFixed(2), j)
		if w := src.StateWithheld(); w.IsPositive() {
			msg += fmt.Sprintf("; its state withholding of %s is not credited", w.StringFixed(2))
		}
		out = append(out, domain.Warning{
			Code:         domain.UnscopedSource,
			Field:        fmt.Sprintf("income[%d]", i),
			Jurisdiction: j,
			Message:      msg,
		})
	}
	return out
}

func finishState(res domain.StateResult) domain.StateResult {
	res.TotalRefund = res.TotalWithheld.Add(res.EstimatedPayments).Add(res.RefundableCredits).Sub(res.TotalTaxLiability)
	return res
}

// checkSingleSourcing verifies no jurisdiction appears in two nonresident scenarios, so
// each source is taxable by at most one nonresident state.
func checkSingleSourcing(scenarios []domain.StateScenario) error {
	nonresident := map[domain.Jurisdiction]bool{}
	for _, sc := range scenarios {
		if sc.Residency != domain.Nonresident {
			continue
		}
		if nonresident[sc.Jurisdiction] {
			return &domain.InputError{Field: "scenarios", Jurisdiction: sc.Jurisdiction, Reason: "jurisdiction is listed twice"}
		}
		nonresident[sc.Jurisdiction] = true
	}
	return nil
}
