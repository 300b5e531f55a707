package calculation

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/rgehrsitz/taxengine/internal/rules"
)

// Engine orchestrates tax calculations. Rule sets come from the registry before any
// arithmetic starts; the calculation itself only reads an immutable Book.
type Engine struct {
	registry *rules.Registry
	Logger   Logger
}

// NewEngine creates a calculation engine backed by registry.
func NewEngine(registry *rules.Registry) *Engine {
	return &Engine{registry: registry, Logger: NopLogger{}}
}

// SetLogger sets the logger for the engine. Nil restores the no-op logger.
func (e *Engine) SetLogger(l Logger) {
	if l == nil {
		e.Logger = NopLogger{}
		return
	}
	e.Logger = l
}

// Registry returns the rule registry the engine reads from.
func (e *Engine) Registry() *rules.Registry {
	return e.registry
}

// Calculate validates the profile, resolves every rule set it needs and computes the result.
// No partial result is returned on error.
func (e *Engine) Calculate(ctx context.Context, p *domain.TaxpayerProfile) (*domain.CalculationResult, error) {
	book, err := e.prepare(ctx, p)
	if err != nil {
		return nil, err
	}
	res, err := Compute(book, p)
	if err != nil {
		e.Logger.Errorf("calculation failed for profile %q: %v", p.ID, err)
		return nil, err
	}
	e.logResult(res)
	return res, nil
}

// prepare validates p and loads its rule book.
func (e *Engine) prepare(ctx context.Context, p *domain.TaxpayerProfile) (*rules.Book, error) {
	if p == nil {
		return nil, domain.InvalidInput("profile", "profile is required")
	}
	if err := p.Validate(); err != nil {
		e.Logger.Debugf("profile %q rejected: %v", p.ID, err)
		return nil, err
	}
	book, err := e.registry.Book(ctx, p.TaxYear, p.Jurisdictions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules for %d: %w", p.TaxYear, err)
	}
	return book, nil
}

func (e *Engine) logResult(res *domain.CalculationResult) {
	e.Logger.Debugf("profile %q: AGI %s, federal liability %s, %d state(s)",
		res.ProfileID, res.Federal.AGI.StringFixed(2), res.Federal.TotalTaxLiability.StringFixed(2), len(res.States))
	for _, w := range res.Warnings {
		e.Logger.Warnf("profile %q: %s: %s", res.ProfileID, w.Field, w.Message)
	}
}

// Compute is the pure calculation: profile and rule book in, result out. p must be valid.
func Compute(book *rules.Book, p *domain.TaxpayerProfile) (*domain.CalculationResult, error) {
	if book.Year != p.TaxYear {
		return nil, fmt.Errorf("rule book for %d cannot calculate tax year %d: %w", book.Year, p.TaxYear, domain.ErrUnsupportedRuleSet)
	}
	fedRules, err := book.Federal()
	if err != nil {
		return nil, err
	}
	fed, err := NewFederalCalculator(fedRules).Calculate(p)
	if err != nil {
		return nil, err
	}
	states, err := NewApportionmentEngine(book).Calculate(p, fed)
	if err != nil {
		return nil, err
	}
	warnings := append(WithholdingWarnings(p), ScenarioCoverageWarnings(p)...)
	return Aggregate(p, fed, states, warnings), nil
}
