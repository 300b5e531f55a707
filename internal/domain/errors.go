package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput marks malformed or inconsistent taxpayer data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedRuleSet marks a (year, jurisdiction) pair with no rule data.
	ErrUnsupportedRuleSet = errors.New("unsupported rule set")
	// ErrMalformedRuleSet marks rule data that failed load-time validation.
	ErrMalformedRuleSet = errors.New("malformed rule set")
)

// InputError reports which profile field was rejected and why.
type InputError struct {
	Field        string
	Jurisdiction Jurisdiction
	Reason       string
}

func (e *InputError) Error() string {
	var b strings.Builder
	b.WriteString("invalid input")
	if e.Field != "" {
		fmt.Fprintf(&b, " at %s", e.Field)
	}
	if e.Jurisdiction != "" {
		fmt.Fprintf(&b, " (%s)", e.Jurisdiction)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// InvalidInput builds an *InputError for field.
func InvalidInput(field, format string, args ...any) error {
	return &InputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// RuleSetError reports a rule set problem with its (year, jurisdiction) key.
type RuleSetError struct {
	Year         int
	Jurisdiction Jurisdiction
	Field        string
	Reason       string
	Kind         error // ErrUnsupportedRuleSet or ErrMalformedRuleSet
}

func (e *RuleSetError) Error() string {
	kind := "rule set error"
	if e.Kind != nil {
		kind = e.Kind.Error()
	}
	msg := fmt.Sprintf("%s %d/%s", kind, e.Year, e.Jurisdiction)
	if e.Field != "" {
		msg += " at " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *RuleSetError) Unwrap() error { return e.Kind }

// Unsupported builds the error returned when no rule data exists for a key.
func Unsupported(year int, j Jurisdiction) error {
	return &RuleSetError{Year: year, Jurisdiction: j, Kind: ErrUnsupportedRuleSet, Reason: "no rule data"}
}

// Malformed builds a load-time validation error.
func Malformed(year int, j Jurisdiction, field, format string, args ...any) error {
	return &RuleSetError{Year: year, Jurisdiction: j, Field: field, Kind: ErrMalformedRuleSet, Reason: fmt.Sprintf(format, args...)}
}

// WarningCode classifies non-fatal conditions attached to a result.
type WarningCode string

const (
	// SuspiciousInput flags data that is implausible but still calculable.
	SuspiciousInput WarningCode = "suspicious_input"
	// UnscopedSource flags income sourced to a state that no scenario calculates.
	UnscopedSource WarningCode = "unscoped_source"
)

// Warning is a non-fatal finding returned alongside a best-effort result.
type Warning struct {
	Code         WarningCode  `json:"code" yaml:"code"`
	Field        string       `json:"field" yaml:"field"`
	Jurisdiction Jurisdiction `json:"jurisdiction,omitempty" yaml:"jurisdiction,omitempty"`
	Message      string       `json:"message" yaml:"message"`
}
