package calculation

import (
	"slices"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/rgehrsitz/taxengine/internal/rules"
	"github.com/shopspring/decimal"
)

// CreditContext carries the facts credit eligibility and phase-outs depend on.
type CreditContext struct {
	FilingStatus domain.FilingStatus
	AGI          decimal.Decimal
	EarnedIncome decimal.Decimal
	Dependents   []domain.Dependent
	// QualifiedExpenses feed expense-tiered credits.
	QualifiedExpenses decimal.Decimal
	// Proration scales every credit amount; nil means the full amount.
	// Nonresident state returns use the apportionment ratio.
	Proration *decimal.Decimal
}

// CreditOutcome is the result of applying an ordered credit list against a liability.
type CreditOutcome struct {
	Applied       []domain.AppliedCredit
	Nonrefundable decimal.Decimal
	Refundable    decimal.Decimal
	Liability     decimal.Decimal // remaining after nonrefundable credits, never negative
}

// creditState is the running value threaded through the fold. Each step returns a new state.
type creditState struct {
	liability     decimal.Decimal
	nonrefundable decimal.Decimal
	refundable    decimal.Decimal
	applied       []domain.AppliedCredit
}

// ApplyCredits folds credits, in order, over liability. Nonrefundable amounts reduce the
// running liability but never below zero; the excess is discarded. Refundable amounts
// accumulate separately. Credits the taxpayer is not eligible for are omitted.
func ApplyCredits(credits []rules.Credit, cc CreditContext, liability decimal.Decimal) CreditOutcome {
	state := creditState{liability: decimal.Max(decimal.Zero, liability)}
	for _, c := range credits {
		state = applyCredit(state, c, cc)
	}
	return CreditOutcome{
		Applied:       state.applied,
		Nonrefundable: state.nonrefundable,
		Refundable:    state.refundable,
		Liability:     state.liability,
	}
}

func applyCredit(s creditState, c rules.Credit, cc CreditContext) creditState {
	amount, qualifying, reduced, ok := CreditAmount(c, cc)
	if !ok {
		return s
	}
	ac := domain.AppliedCredit{ID: c.ID, Name: c.Name, Amount: amount, PhaseOutReduced: reduced}
	next := s

	switch {
	case !c.Refundable:
		ac.NonrefundableApplied = decimal.Min(amount, s.liability)
		ac.Disallowed = amount.Sub(ac.NonrefundableApplied)
	case c.RefundableLimitPerDependent == nil:
		ac.Refundable = amount
	default:
		// Partially refundable: use what the liability absorbs, refund the rest up to the limit.
		ac.NonrefundableApplied = decimal.Min(amount, s.liability)
		unused := amount.Sub(ac.NonrefundableApplied)
		limit := c.RefundableLimitPerDependent.Mul(decimal.NewFromInt(int64(qualifying)))
		ac.Refundable = decimal.Min(unused, limit)
		ac.Disallowed = unused.Sub(ac.Refundable)
	}

	next.liability = s.liability.Sub(ac.NonrefundableApplied)
	next.nonrefundable = s.nonrefundable.Add(ac.NonrefundableApplied)
	next.refundable = s.refundable.Add(ac.Refundable)
	next.applied = append(slices.Clone(s.applied), ac)
	return next
}

// CreditAmount computes one credit's allowed amount before it is applied. ok is false when
// the taxpayer is not eligible. qualifying is the number of dependents the credit counts.
// reduced reports whether a phase-out took anything away.
func CreditAmount(c rules.Credit, cc CreditContext) (amount decimal.Decimal, qualifying int, reduced bool, ok bool) {
	if len(c.FilingStatuses) > 0 && !c.FilingStatuses[cc.FilingStatus] {
		return decimal.Zero, 0, false, false
	}
	qualifying = countQualifying(c.Qualifier, cc.Dependents)
	if qualifying < c.MinDependents {
		return decimal.Zero, qualifying, false, false
	}
	if c.MaxDependents != nil && qualifying > *c.MaxDependents {
		return decimal.Zero, qualifying, false, false
	}
	if c.EarnedIncomeRequired && !cc.EarnedIncome.IsPositive() {
		return decimal.Zero, qualifying, false, false
	}

	base := c.BaseAmount
	if c.PerDependent {
		base = base.Mul(decimal.NewFromInt(int64(qualifying)))
	}
	if len(c.ExpenseTiers) > 0 {
		tiered := expenseCredit(c.ExpenseTiers, cc.QualifiedExpenses)
		if base.IsPositive() {
			tiered = decimal.Min(base, tiered)
		}
		base = tiered
	}
	if !base.IsPositive() {
		return decimal.Zero, qualifying, false, false
	}
	if c.PhaseInRate != nil {
		base = decimal.Min(base, decimal.Max(decimal.Zero, cc.EarnedIncome).Mul(*c.PhaseInRate))
	}

	amount = base
	if c.PhaseOut != nil {
		reduction := phaseOutReduction(c.PhaseOut, cc.FilingStatus, cc.AGI, base)
		if reduction.IsPositive() {
			reduced = true
			amount = decimal.Max(decimal.Zero, base.Sub(reduction))
		}
	}
	if cc.Proration != nil {
		amount = amount.Mul(*cc.Proration)
	}
	return amount.Round(2), qualifying, reduced, true
}

// phaseOutReduction is (AGI - start) * rate, with the excess rounded up to a whole step
// when one is set. Without an explicit rate the credit reaches zero at the end threshold.
func phaseOutReduction(po *rules.PhaseOut, fs domain.FilingStatus, agi, base decimal.Decimal) decimal.Decimal {
	start := po.Start[fs]
	excess := agi.Sub(start)
	if !excess.IsPositive() {
		return decimal.Zero
	}
	if po.Step != nil {
		excess = excess.Div(*po.Step).Ceil().Mul(*po.Step)
	}
	var rate decimal.Decimal
	if po.Rate != nil {
		rate = *po.Rate
	} else {
		width := po.End[fs].Sub(start)
		if !width.IsPositive() {
			return base
		}
		rate = base.Div(width)
	}
	return excess.Mul(rate)
}

// expenseCredit walks the tiers in order, crediting each tier's rate on the expenses
// that fall inside it.
func expenseCredit(tiers []rules.ExpenseTier, expenses decimal.Decimal) decimal.Decimal {
	remaining := decimal.Max(decimal.Zero, expenses)
	total := decimal.Zero
	for _, t := range tiers {
		if !remaining.IsPositive() {
			break
		}
		in := remaining
		if t.Width != nil {
			in = decimal.Min(remaining, *t.Width)
		}
		total = total.Add(in.Mul(t.Rate))
		remaining = remaining.Sub(in)
	}
	return total
}

func countQualifying(q *rules.Qualifier, deps []domain.Dependent) int {
	if q == nil {
		return len(deps)
	}
	n := 0
	for _, d := range deps {
		if q.Matches(d) {
			n++
		}
	}
	return n
}
