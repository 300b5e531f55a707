package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rgehrsitz/taxengine/internal/domain"
)

// TemplateRegistry manages named what-if templates
type TemplateRegistry struct {
	templates map[string]Template
}

// Template represents a named collection of transforms
type Template struct {
	Name        string
	Description string
	Transforms  []ProfileTransform
}

// NewTemplateRegistry creates an empty template registry
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]Template),
	}
}

// Register adds a template to the registry
func (tr *TemplateRegistry) Register(t Template) {
	tr.templates[strings.ToLower(t.Name)] = t
}

// Get retrieves a template by name (case-insensitive)
func (tr *TemplateRegistry) Get(name string) (Template, bool) {
	t, ok := tr.templates[strings.ToLower(name)]
	return t, ok
}

// List returns all registered template names, sorted
func (tr *TemplateRegistry) List() []string {
	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateBuiltInTemplates registers the common filing decisions.
func CreateBuiltInTemplates() *TemplateRegistry {
	registry := NewTemplateRegistry()

	registry.Register(Template{
		Name:        "file_jointly",
		Description: "File a joint return",
		Transforms:  []ProfileTransform{&SetFilingStatus{Status: domain.MarriedFilingJointly}},
	})
	registry.Register(Template{
		Name:        "file_separately",
		Description: "File married filing separately without the spouse's income",
		Transforms:  []ProfileTransform{&SetFilingStatus{Status: domain.MarriedFilingSeparately}},
	})
	registry.Register(Template{
		Name:        "head_of_household",
		Description: "File as head of household",
		Transforms:  []ProfileTransform{&SetFilingStatus{Status: domain.HeadOfHousehold}},
	})
	registry.Register(Template{
		Name:        "standard_deduction",
		Description: "Take the standard deduction",
		Transforms:  []ProfileTransform{&SetDeduction{Method: domain.StandardDeduction}},
	})
	registry.Register(Template{
		Name:        "add_child",
		Description: "Claim one more qualifying child (age 5, resident all year)",
		Transforms: []ProfileTransform{&AddDependent{Dependent: domain.Dependent{
			Name: "new child", Relationship: domain.Child, Age: 5, MonthsResident: 12,
		}}},
	})

	return registry
}

// ApplyTemplate applies a template to a base profile
func ApplyTemplate(base *domain.TaxpayerProfile, template Template) (*domain.TaxpayerProfile, error) {
	return ApplyTransforms(base, template.Transforms)
}

// ParseTemplateList parses a comma-separated list of template names
func ParseTemplateList(templateList string) []string {
	if templateList == "" {
		return nil
	}

	parts := strings.Split(templateList, ",")
	templates := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			templates = append(templates, trimmed)
		}
	}
	return templates
}

// GetTemplateHelp returns formatted help text for all templates
func GetTemplateHelp(registry *TemplateRegistry) string {
	if len(registry.templates) == 0 {
		return "No templates registered"
	}

	var sb strings.Builder
	sb.WriteString("Available Templates:\n\n")
	for _, name := range registry.List() {
		t := registry.templates[name]
		sb.WriteString(fmt.Sprintf("  %-20s %s\n", t.Name, t.Description))
	}
	return sb.String()
}
