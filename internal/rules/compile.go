package rules

import (
	"fmt"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Compile validates raw rule data for (year, j) and builds an immutable RuleSet.
// Malformed data is rejected with ErrMalformedRuleSet; nothing is coerced.
func Compile(year int, j domain.Jurisdiction, data *domain.RuleSetData) (*RuleSet, error) {
	if data == nil {
		return nil, domain.Malformed(year, j, "", "empty document")
	}
	if !j.Valid() {
		return nil, domain.Malformed(year, j, "metadata.jurisdiction", "unknown jurisdiction")
	}
	if data.Metadata.Year != 0 && data.Metadata.Year != year {
		return nil, domain.Malformed(year, j, "metadata.year", "document is for year %d", data.Metadata.Year)
	}
	if data.Metadata.Jurisdiction != "" && data.Metadata.Jurisdiction != j {
		return nil, domain.Malformed(year, j, "metadata.jurisdiction", "document is for %s", data.Metadata.Jurisdiction)
	}

	rs := &RuleSet{
		Year:         year,
		Jurisdiction: j,
		Version:      data.Metadata.Version,
		NoIncomeTax:  data.NoIncomeTax,
		reciprocity:  map[domain.Jurisdiction]bool{},
	}
	if rs.Version == "" {
		rs.Version = fmt.Sprintf("%d-%s", year, j)
	}

	if data.NoIncomeTax {
		if len(data.Brackets) > 0 {
			return nil, domain.Malformed(year, j, "brackets", "no_income_tax jurisdictions cannot define brackets")
		}
	} else {
		brackets, err := resolveStatusTable(data.Brackets)
		if err != nil {
			return nil, domain.Malformed(year, j, "brackets", "%v", err)
		}
		rs.brackets = make(map[domain.FilingStatus]BracketTable, len(brackets))
		for _, fs := range domain.FilingStatuses() {
			table, err := compileBrackets(brackets[fs])
			if err != nil {
				return nil, domain.Malformed(year, j, "brackets."+string(fs), "%v", err)
			}
			rs.brackets[fs] = table
		}

		standard, err := resolveStatusTable(data.StandardDeduction)
		if err != nil {
			return nil, domain.Malformed(year, j, "standard_deduction", "%v", err)
		}
		for _, fs := range domain.FilingStatuses() {
			if standard[fs].IsNegative() {
				return nil, domain.Malformed(year, j, "standard_deduction."+string(fs), "amount cannot be negative")
			}
		}
		rs.standard = standard
	}

	if add := data.AdditionalStandardDeduction; add != nil {
		if add.Married.IsNegative() || add.Unmarried.IsNegative() {
			return nil, domain.Malformed(year, j, "additional_standard_deduction", "amounts cannot be negative")
		}
		rs.AdditionalDeductionMarried = add.Married
		rs.AdditionalDeductionUnmarried = add.Unmarried
	}

	if data.ItemizedCap != nil {
		if data.ItemizedCap.IsNegative() {
			return nil, domain.Malformed(year, j, "itemized_cap", "cap cannot be negative")
		}
		c := *data.ItemizedCap
		rs.ItemizedCap = &c
	}

	caps, err := compileAdjustmentCaps(data.AdjustmentCaps)
	if err != nil {
		return nil, domain.Malformed(year, j, "adjustment_caps", "%v", err)
	}
	rs.AdjustmentCaps = caps

	seen := map[string]bool{}
	for i, cd := range data.Credits {
		field := fmt.Sprintf("credits[%d]", i)
		if cd.ID != "" {
			field = "credits." + cd.ID
		}
		if seen[cd.ID] {
			return nil, domain.Malformed(year, j, field, "duplicate credit id")
		}
		seen[cd.ID] = true
		credit, err := compileCredit(cd)
		if err != nil {
			return nil, domain.Malformed(year, j, field, "%v", err)
		}
		rs.Credits = append(rs.Credits, credit)
	}

	for _, partner := range data.Reciprocity {
		if !partner.IsState() {
			return nil, domain.Malformed(year, j, "reciprocity", "unknown state %q", partner)
		}
		if partner == j {
			return nil, domain.Malformed(year, j, "reciprocity", "a state cannot have reciprocity with itself")
		}
		rs.reciprocity[partner] = true
	}

	if j == domain.Federal {
		if data.Payroll == nil {
			return nil, domain.Malformed(year, j, "payroll", "federal rule sets require payroll rules")
		}
		if len(data.Reciprocity) > 0 {
			return nil, domain.Malformed(year, j, "reciprocity", "reciprocity applies to states only")
		}
	}
	if data.Payroll != nil {
		p, err := compilePayroll(*data.Payroll)
		if err != nil {
			return nil, domain.Malformed(year, j, "payroll", "%v", err)
		}
		rs.Payroll = p
	}

	if et := data.EstimatedTax; et != nil {
		if et.SafeHarborRate.IsNegative() || et.HighIncomeRate.IsNegative() || et.HighIncomeAGIThreshold.IsNegative() {
			return nil, domain.Malformed(year, j, "estimated_tax", "values cannot be negative")
		}
		rs.EstimatedTax = &EstimatedTax{
			SafeHarborRate:         et.SafeHarborRate,
			HighIncomeRate:         et.HighIncomeRate,
			HighIncomeAGIThreshold: et.HighIncomeAGIThreshold,
		}
	}

	return rs, nil
}

// resolveStatusTable expands a table keyed by filing status (with an optional "any"
// entry) into one entry per statutory status. Every status must resolve.
func resolveStatusTable[T any](m map[domain.FilingStatus]T) (map[domain.FilingStatus]T, error) {
	for fs := range m {
		if fs != domain.AnyFilingStatus && !fs.Valid() {
			return nil, fmt.Errorf("unknown filing status key %q", fs)
		}
	}
	out := make(map[domain.FilingStatus]T, len(domain.FilingStatuses()))
	fallback, hasFallback := m[domain.AnyFilingStatus]
	for _, fs := range domain.FilingStatuses() {
		v, ok := m[fs]
		if !ok {
			if !hasFallback {
				return nil, fmt.Errorf("missing entry for %s", fs)
			}
			v = fallback
		}
		out[fs] = v
	}
	return out, nil
}

// compileBrackets enforces: ascending, contiguous, starting at zero, only the last
// band unbounded, rates in [0, 1).
func compileBrackets(raw []domain.BracketData) (BracketTable, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("at least one bracket is required")
	}
	table := make(BracketTable, 0, len(raw))
	for i, b := range raw {
		if b.Rate.IsNegative() || b.Rate.GreaterThanOrEqual(one) {
			return nil, fmt.Errorf("bracket %d: rate %s outside [0, 1)", i, b.Rate)
		}
		if i == 0 && !b.Lower.IsZero() {
			return nil, fmt.Errorf("bracket 0: lower bound must be 0, got %s", b.Lower)
		}
		if i > 0 {
			prev := table[i-1]
			if prev.Unbounded {
				return nil, fmt.Errorf("bracket %d: only the last bracket may be unbounded", i-1)
			}
			if !b.Lower.Equal(prev.Upper) {
				return nil, fmt.Errorf("bracket %d: lower bound %s does not continue previous upper bound %s", i, b.Lower, prev.Upper)
			}
		}
		nb := Bracket{Rate: b.Rate, Lower: b.Lower}
		if b.Upper == nil {
			nb.Unbounded = true
		} else {
			if !b.Upper.GreaterThan(b.Lower) {
				return nil, fmt.Errorf("bracket %d: upper bound %s must exceed lower bound %s", i, *b.Upper, b.Lower)
			}
			nb.Upper = *b.Upper
		}
		table = append(table, nb)
	}
	if !table[len(table)-1].Unbounded {
		return nil, fmt.Errorf("last bracket must be unbounded")
	}
	return table, nil
}

func compileAdjustmentCaps(data domain.AdjustmentCapsData) (AdjustmentCaps, error) {
	var caps AdjustmentCaps
	copyCap := func(name string, v *decimal.Decimal) (*decimal.Decimal, error) {
		if v == nil {
			return nil, nil
		}
		if v.IsNegative() {
			return nil, fmt.Errorf("%s cap cannot be negative", name)
		}
		c := *v
		return &c, nil
	}
	var err error
	if caps.StudentLoanInterest, err = copyCap("student_loan_interest", data.StudentLoanInterest); err != nil {
		return caps, err
	}
	if caps.EducatorExpenses, err = copyCap("educator_expenses", data.EducatorExpenses); err != nil {
		return caps, err
	}
	if caps.HSADeduction, err = copyCap("hsa_deduction", data.HSADeduction); err != nil {
		return caps, err
	}
	return caps, nil
}

func compileCredit(cd domain.CreditData) (Credit, error) {
	if cd.ID == "" {
		return Credit{}, fmt.Errorf("id is required")
	}
	if cd.BaseAmount.IsNegative() {
		return Credit{}, fmt.Errorf("base_amount cannot be negative")
	}
	c := Credit{
		ID:                   cd.ID,
		Name:                 cd.Name,
		BaseAmount:           cd.BaseAmount,
		PerDependent:         cd.PerDependent,
		MinDependents:        cd.Eligibility.MinDependents,
		EarnedIncomeRequired: cd.Eligibility.EarnedIncomeRequired,
		Refundable:           cd.Refundable,
	}
	if c.Name == "" {
		c.Name = cd.ID
	}
	if cd.PerDependent && cd.DependentQualifier == nil {
		return Credit{}, fmt.Errorf("per_dependent credits need a dependent_qualifier")
	}
	if q := cd.DependentQualifier; q != nil {
		cq := &Qualifier{MinMonthsResident: q.MinMonthsResident}
		if len(q.Relationships) > 0 {
			cq.Relationships = map[domain.Relationship]bool{}
			for _, r := range q.Relationships {
				if !r.Valid() {
					return Credit{}, fmt.Errorf("unknown relationship %q", r)
				}
				cq.Relationships[r] = true
			}
		}
		if q.MinAge != nil {
			v := *q.MinAge
			cq.MinAge = &v
		}
		if q.MaxAge != nil {
			v := *q.MaxAge
			cq.MaxAge = &v
		}
		if cq.MinAge != nil && cq.MaxAge != nil && *cq.MinAge > *cq.MaxAge {
			return Credit{}, fmt.Errorf("dependent_qualifier min_age exceeds max_age")
		}
		c.Qualifier = cq
	}
	if len(cd.Eligibility.FilingStatuses) > 0 {
		c.FilingStatuses = map[domain.FilingStatus]bool{}
		for _, fs := range cd.Eligibility.FilingStatuses {
			if !fs.Valid() {
				return Credit{}, fmt.Errorf("unknown filing status %q", fs)
			}
			c.FilingStatuses[fs] = true
		}
	}
	if cd.Eligibility.MinDependents < 0 {
		return Credit{}, fmt.Errorf("min_dependents cannot be negative")
	}
	if cd.Eligibility.MaxDependents != nil {
		v := *cd.Eligibility.MaxDependents
		if v < cd.Eligibility.MinDependents {
			return Credit{}, fmt.Errorf("max_dependents is below min_dependents")
		}
		c.MaxDependents = &v
	}
	if cd.PhaseInRate != nil {
		if !cd.PhaseInRate.IsPositive() {
			return Credit{}, fmt.Errorf("phase_in_rate must be positive")
		}
		v := *cd.PhaseInRate
		c.PhaseInRate = &v
	}
	if cd.PhaseOut != nil {
		po, err := compilePhaseOut(*cd.PhaseOut)
		if err != nil {
			return Credit{}, err
		}
		c.PhaseOut = po
	}
	if cd.RefundableLimitPerDependent != nil {
		if !cd.Refundable {
			return Credit{}, fmt.Errorf("refundable_limit_per_dependent requires refundable")
		}
		if cd.RefundableLimitPerDependent.IsNegative() {
			return Credit{}, fmt.Errorf("refundable_limit_per_dependent cannot be negative")
		}
		v := *cd.RefundableLimitPerDependent
		c.RefundableLimitPerDependent = &v
	}
	for i, t := range cd.ExpenseTiers {
		if !t.Rate.IsPositive() || t.Rate.GreaterThan(decimal.NewFromInt(1)) {
			return Credit{}, fmt.Errorf("expense_tiers[%d] rate must be in (0, 1]", i)
		}
		tier := ExpenseTier{Rate: t.Rate}
		switch {
		case t.Width == nil && i != len(cd.ExpenseTiers)-1:
			return Credit{}, fmt.Errorf("expense_tiers[%d] only the last tier may be unbounded", i)
		case t.Width != nil && !t.Width.IsPositive():
			return Credit{}, fmt.Errorf("expense_tiers[%d] width must be positive", i)
		case t.Width != nil:
			w := *t.Width
			tier.Width = &w
		}
		c.ExpenseTiers = append(c.ExpenseTiers, tier)
	}
	return c, nil
}

func compilePhaseOut(data domain.PhaseOutData) (*PhaseOut, error) {
	start, err := resolveStatusTable(data.Start)
	if err != nil {
		return nil, fmt.Errorf("phase_out.start: %w", err)
	}
	po := &PhaseOut{Start: start}
	switch {
	case data.Rate != nil:
		if data.Rate.IsNegative() {
			return nil, fmt.Errorf("phase_out.rate cannot be negative")
		}
		r := *data.Rate
		po.Rate = &r
	case len(data.End) > 0:
		end, err := resolveStatusTable(data.End)
		if err != nil {
			return nil, fmt.Errorf("phase_out.end: %w", err)
		}
		for fs, e := range end {
			if !e.GreaterThan(start[fs]) {
				return nil, fmt.Errorf("phase_out.end for %s must exceed start", fs)
			}
		}
		po.End = end
	default:
		return nil, fmt.Errorf("phase_out needs a rate or an end")
	}
	if data.Step != nil {
		if !data.Step.IsPositive() {
			return nil, fmt.Errorf("phase_out.step must be positive")
		}
		s := *data.Step
		po.Step = &s
	}
	return po, nil
}

func compilePayroll(data domain.PayrollData) (*Payroll, error) {
	for name, v := range map[string]decimal.Decimal{
		"social_security_rate":                 data.SocialSecurityRate,
		"medicare_rate":                        data.MedicareRate,
		"additional_medicare_rate":             data.AdditionalMedicareRate,
		"self_employment_earnings_factor":      data.SelfEmploymentEarningsFactor,
		"self_employment_social_security_rate": data.SelfEmploymentSocialSecurity,
		"self_employment_medicare_rate":        data.SelfEmploymentMedicare,
	} {
		if v.IsNegative() || v.GreaterThan(one) {
			return nil, fmt.Errorf("%s must be within [0, 1]", name)
		}
	}
	if !data.SocialSecurityWageBase.IsPositive() {
		return nil, fmt.Errorf("social_security_wage_base must be positive")
	}
	thresholds, err := resolveStatusTable(data.AdditionalMedicareThreshold)
	if err != nil {
		return nil, fmt.Errorf("additional_medicare_threshold: %w", err)
	}
	return &Payroll{
		SocialSecurityRate:               data.SocialSecurityRate,
		SocialSecurityWageBase:           data.SocialSecurityWageBase,
		MedicareRate:                     data.MedicareRate,
		AdditionalMedicareRate:           data.AdditionalMedicareRate,
		AdditionalMedicareThreshold:      thresholds,
		SelfEmploymentEarningsFactor:     data.SelfEmploymentEarningsFactor,
		SelfEmploymentSocialSecurityRate: data.SelfEmploymentSocialSecurity,
		SelfEmploymentMedicareRate:       data.SelfEmploymentMedicare,
	}, nil
}
