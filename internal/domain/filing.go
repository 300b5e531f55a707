package domain

import "fmt"

// FilingStatus is the federal filing status of a return
type FilingStatus string

const (
	Single                    FilingStatus = "single"
	MarriedFilingJointly      FilingStatus = "married_filing_jointly"
	MarriedFilingSeparately   FilingStatus = "married_filing_separately"
	HeadOfHousehold           FilingStatus = "head_of_household"
	QualifyingSurvivingSpouse FilingStatus = "qualifying_surviving_spouse"

	// AnyFilingStatus keys a rule table entry that applies to every status without its own entry.
	AnyFilingStatus FilingStatus = "any"
)

// FilingStatuses lists the closed set of statuses in display order.
func FilingStatuses() []FilingStatus {
	return []FilingStatus{Single, MarriedFilingJointly, MarriedFilingSeparately, HeadOfHousehold, QualifyingSurvivingSpouse}
}

// ParseFilingStatus validates a raw filing status value.
func ParseFilingStatus(s string) (FilingStatus, error) {
	fs := FilingStatus(s)
	if !fs.Valid() {
		return "", fmt.Errorf("unrecognized filing status %q", s)
	}
	return fs, nil
}

// Valid reports whether fs is one of the five statutory statuses.
func (fs FilingStatus) Valid() bool {
	switch fs {
	case Single, MarriedFilingJointly, MarriedFilingSeparately, HeadOfHousehold, QualifyingSurvivingSpouse:
		return true
	}
	return false
}

// Married reports whether the status is one of the married statuses for
// additional standard deduction purposes.
func (fs FilingStatus) Married() bool {
	return fs == MarriedFilingJointly || fs == MarriedFilingSeparately || fs == QualifyingSurvivingSpouse
}

// Joint reports whether the return covers two taxpayers.
func (fs FilingStatus) Joint() bool {
	return fs == MarriedFilingJointly
}

// Residency describes how a taxpayer relates to a state for one scenario.
type Residency string

const (
	Resident    Residency = "resident"
	Nonresident Residency = "nonresident"
)

// Valid reports whether r is a supported residency status.
func (r Residency) Valid() bool {
	return r == Resident || r == Nonresident
}
