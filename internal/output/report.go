package output

import (
	"github.com/rgehrsitz/taxengine/internal/calculation"
	"github.com/rgehrsitz/taxengine/internal/domain"
)

// Failure records a profile that could not be calculated.
type Failure struct {
	Index     int    `json:"index" yaml:"index"`
	ProfileID string `json:"profile_id" yaml:"profile_id"`
	Error     string `json:"error" yaml:"error"`
}

// Report is the unit every formatter renders: calculation results, the profiles that
// failed and optional estimated payment schedules keyed by profile ID.
type Report struct {
	Results   []*domain.CalculationResult            `json:"results" yaml:"results"`
	Failures  []Failure                              `json:"failures,omitempty" yaml:"failures,omitempty"`
	Estimates map[string][]*domain.QuarterlyEstimate `json:"estimates,omitempty" yaml:"estimates,omitempty"`
}

// NewReport wraps results in a report.
func NewReport(results ...*domain.CalculationResult) *Report {
	return &Report{Results: results}
}

// FromBatch converts batch items into a report, keeping input order.
func FromBatch(items []calculation.BatchItem) *Report {
	r := &Report{Results: []*domain.CalculationResult{}}
	for _, it := range items {
		if it.Err != nil {
			r.Failures = append(r.Failures, Failure{Index: it.Index, ProfileID: it.ProfileID, Error: it.Err.Error()})
			continue
		}
		r.Results = append(r.Results, it.Result)
	}
	return r
}

// AddEstimate attaches estimated payment schedules for profileID, one per jurisdiction.
func (r *Report) AddEstimate(profileID string, ests ...*domain.QuarterlyEstimate) {
	if len(ests) == 0 {
		return
	}
	if r.Estimates == nil {
		r.Estimates = map[string][]*domain.QuarterlyEstimate{}
	}
	r.Estimates[profileID] = append(r.Estimates[profileID], ests...)
}
