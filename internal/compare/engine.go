package compare

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/taxengine/internal/calculation"
	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/rgehrsitz/taxengine/internal/transform"
)

// CompareEngine runs a profile and its what-if alternatives through the calculation engine.
type CompareEngine struct {
	CalcEngine        *calculation.Engine
	MetricsCalculator *MetricsCalculator
	TemplateRegistry  *transform.TemplateRegistry
	TransformRegistry *transform.TransformRegistry
}

// NewCompareEngine creates a comparison engine with the built-in templates and transforms.
func NewCompareEngine(calcEngine *calculation.Engine) *CompareEngine {
	return &CompareEngine{
		CalcEngine:        calcEngine,
		MetricsCalculator: NewMetricsCalculator(),
		TemplateRegistry:  transform.CreateBuiltInTemplates(),
		TransformRegistry: transform.NewTransformRegistry(),
	}
}

// CompareOptions configures comparison behavior
type CompareOptions struct {
	BaseScenarioName string   // display name of the unmodified profile; defaults to its ID or "base"
	Templates        []string // template names, one alternative each
	Transforms       []string // transform specs ("name:key=value,..."), one alternative each
}

type alternative struct {
	name        string
	description string
	transforms  []transform.ProfileTransform
}

// Compare calculates the base profile and each requested alternative. Any failing
// alternative fails the comparison, since a partial table would be misleading.
func (ce *CompareEngine) Compare(ctx context.Context, profile *domain.TaxpayerProfile, options CompareOptions) (*ComparisonSet, error) {
	alts, err := ce.alternatives(options)
	if err != nil {
		return nil, err
	}
	if len(alts) == 0 {
		return nil, fmt.Errorf("no alternatives requested")
	}

	baseName := options.BaseScenarioName
	if baseName == "" {
		baseName = profile.ID
	}
	if baseName == "" {
		baseName = "base"
	}

	baseRes, err := ce.CalcEngine.Calculate(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate base scenario: %w", err)
	}
	baseResult := ce.MetricsCalculator.CalculateMetrics(baseName, baseRes)
	baseResult.Description = "As filed"

	alternatives := make([]ComparisonResult, 0, len(alts))
	for _, alt := range alts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		modified, err := transform.ApplyTransforms(profile, alt.transforms)
		if err != nil {
			return nil, fmt.Errorf("failed to apply %s: %w", alt.name, err)
		}
		res, err := ce.CalcEngine.Calculate(ctx, modified)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate scenario %s: %w", alt.name, err)
		}
		altResult := ce.MetricsCalculator.CalculateMetrics(alt.name, res)
		altResult.Description = alt.description
		alternatives = append(alternatives, ce.MetricsCalculator.CalculateComparison(altResult, baseResult))
	}

	compSet := &ComparisonSet{
		BaseScenarioName:   baseName,
		BaseResult:         &baseResult,
		AlternativeResults: alternatives,
	}
	compSet.Recommendations = GenerateRecommendations(compSet)
	return compSet, nil
}

func (ce *CompareEngine) alternatives(options CompareOptions) ([]alternative, error) {
	var out []alternative
	for _, name := range options.Templates {
		tmpl, ok := ce.TemplateRegistry.Get(name)
		if !ok {
			return nil, fmt.Errorf("template %s not found", name)
		}
		out = append(out, alternative{name: tmpl.Name, description: tmpl.Description, transforms: tmpl.Transforms})
	}
	for _, spec := range options.Transforms {
		t, err := ce.TransformRegistry.ParseTransformSpec(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, alternative{name: t.Name(), description: t.Description(), transforms: []transform.ProfileTransform{t}})
	}
	return out, nil
}
