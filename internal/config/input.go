package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of taxpayer profile files
type InputParser struct {
	// Strict rejects unknown fields, which usually means a typo in the profile.
	Strict bool
	// DefaultTaxYear fills profiles that omit tax_year. Zero leaves them unset.
	DefaultTaxYear int
}

// NewInputParser creates a new input parser with strict field checking
func NewInputParser() *InputParser {
	return &InputParser{Strict: true}
}

// BatchFile is the document layout of a batch input file
type BatchFile struct {
	Profiles []domain.TaxpayerProfile `yaml:"profiles"`
}

// LoadFromFile loads and validates a single profile from a YAML file
func (ip *InputParser) LoadFromFile(filename string) (*domain.TaxpayerProfile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes and validates a single profile document
func (ip *InputParser) Parse(data []byte) (*domain.TaxpayerProfile, error) {
	var profile domain.TaxpayerProfile
	if err := ip.decode(data, &profile); err != nil {
		return nil, err
	}
	ip.prepare(&profile)

	if err := ip.ValidateProfile(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// LoadBatchFromFile loads every profile of a batch file. Profiles are normalized but
// not validated here: batch evaluation reports invalid profiles per item.
func (ip *InputParser) LoadBatchFromFile(filename string) ([]domain.TaxpayerProfile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.ParseBatch(data)
}

// ParseBatch decodes a batch document
func (ip *InputParser) ParseBatch(data []byte) ([]domain.TaxpayerProfile, error) {
	var batch BatchFile
	if err := ip.decode(data, &batch); err != nil {
		return nil, err
	}
	if len(batch.Profiles) == 0 {
		return nil, fmt.Errorf("no profiles provided")
	}
	for i := range batch.Profiles {
		ip.prepare(&batch.Profiles[i])
	}
	return batch.Profiles, nil
}

// ValidateProfile validates a loaded profile
func (ip *InputParser) ValidateProfile(profile *domain.TaxpayerProfile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("profile validation failed: %w", err)
	}
	return nil
}

func (ip *InputParser) prepare(p *domain.TaxpayerProfile) {
	if p.TaxYear == 0 {
		p.TaxYear = ip.DefaultTaxYear
	}
	Normalize(p)
}

func (ip *InputParser) decode(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(ip.Strict)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to parse YAML: empty document")
		}
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

var filingStatusAliases = map[string]domain.FilingStatus{
	"mfj": domain.MarriedFilingJointly,
	"mfs": domain.MarriedFilingSeparately,
	"hoh": domain.HeadOfHousehold,
	"qss": domain.QualifyingSurvivingSpouse,
	"qw":  domain.QualifyingSurvivingSpouse,
}

// Normalize canonicalizes user-typed codes: jurisdictions are upper-cased and filing
// statuses accept spaces, hyphens and the common abbreviations.
func Normalize(p *domain.TaxpayerProfile) {
	p.FilingStatus = NormalizeFilingStatus(string(p.FilingStatus))
	p.ResidentJurisdiction = code(p.ResidentJurisdiction)
	for i := range p.Income {
		src := &p.Income[i]
		switch {
		case src.Wages != nil:
			src.Wages.Source = code(src.Wages.Source)
		case src.SelfEmployment != nil:
			src.SelfEmployment.Source = code(src.SelfEmployment.Source)
		case src.Other != nil:
			src.Other.Source = code(src.Other.Source)
		}
	}
	for i := range p.Scenarios {
		p.Scenarios[i].Jurisdiction = code(p.Scenarios[i].Jurisdiction)
		p.Scenarios[i].Residency = domain.Residency(strings.ToLower(strings.TrimSpace(string(p.Scenarios[i].Residency))))
	}
	if len(p.EstimatedPayments) > 0 {
		payments := make(map[domain.Jurisdiction]decimal.Decimal, len(p.EstimatedPayments))
		for j, amt := range p.EstimatedPayments {
			k := code(j)
			payments[k] = payments[k].Add(amt)
		}
		p.EstimatedPayments = payments
	}
	p.Deduction.Method = domain.DeductionMethod(strings.ToLower(strings.TrimSpace(string(p.Deduction.Method))))
}

// NormalizeFilingStatus maps a user-typed status to its canonical form. Unknown values
// are returned lower-cased for validation to reject.
func NormalizeFilingStatus(raw string) domain.FilingStatus {
	fs := strings.ToLower(strings.TrimSpace(raw))
	fs = strings.NewReplacer(" ", "_", "-", "_").Replace(fs)
	if alias, ok := filingStatusAliases[fs]; ok {
		return alias
	}
	return domain.FilingStatus(fs)
}

// NormalizeJurisdiction upper-cases and trims a jurisdiction code.
func NormalizeJurisdiction(raw string) domain.Jurisdiction {
	return code(domain.Jurisdiction(raw))
}

func code(j domain.Jurisdiction) domain.Jurisdiction {
	return domain.Jurisdiction(strings.ToUpper(strings.TrimSpace(string(j))))
}
