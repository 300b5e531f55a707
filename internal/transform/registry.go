package transform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rgehrsitz/taxengine/internal/config"
	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/shopspring/decimal"
)

// TransformRegistry creates transforms from string parameters, for CLI use.
type TransformRegistry struct {
	factories map[string]TransformFactory
}

// TransformFactory creates a transform from parameters.
type TransformFactory func(params map[string]string) (ProfileTransform, error)

// NewTransformRegistry creates a registry with every built-in transform registered.
func NewTransformRegistry() *TransformRegistry {
	registry := &TransformRegistry{
		factories: make(map[string]TransformFactory),
	}

	registry.Register("set_filing_status", createSetFilingStatus)
	registry.Register("set_deduction", createSetDeduction)
	registry.Register("relocate", createRelocate)
	registry.Register("add_dependent", createAddDependent)
	registry.Register("set_estimated_payment", createSetEstimatedPayment)
	registry.Register("set_adjustment", createSetAdjustment)

	return registry
}

// Register adds a transform factory to the registry.
func (r *TransformRegistry) Register(name string, factory TransformFactory) {
	r.factories[name] = factory
}

// Create creates a transform by name with the given parameters.
func (r *TransformRegistry) Create(name string, params map[string]string) (ProfileTransform, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("unknown transform: %s", name)
	}
	return factory(params)
}

// List returns the registered transform names in sorted order.
func (r *TransformRegistry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseTransformSpec parses "name:key=value,key=value", e.g. "relocate:to=TX,move_work=true".
// A transform without parameters may omit the colon.
func (r *TransformRegistry) ParseTransformSpec(spec string) (ProfileTransform, error) {
	name, paramsStr, _ := strings.Cut(spec, ":")
	name = strings.TrimSpace(name)
	paramsStr = strings.TrimSpace(paramsStr)
	if name == "" {
		return nil, fmt.Errorf("invalid transform spec format, expected 'name:params', got: %s", spec)
	}

	params := make(map[string]string)
	if paramsStr != "" {
		for _, pair := range strings.Split(paramsStr, ",") {
			k, v, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, fmt.Errorf("invalid parameter format, expected 'key=value', got: %s", pair)
			}
			params[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}

	return r.Create(name, params)
}

func required(transform string, params map[string]string, key string) (string, error) {
	v, ok := params[key]
	if !ok || v == "" {
		return "", fmt.Errorf("%s requires '%s' parameter", transform, key)
	}
	return v, nil
}

func amountParam(transform string, params map[string]string, key string) (decimal.Decimal, error) {
	raw, err := required(transform, params, key)
	if err != nil {
		return decimal.Zero, err
	}
	amt, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return amt, nil
}

func createSetFilingStatus(params map[string]string) (ProfileTransform, error) {
	status, err := required("set_filing_status", params, "status")
	if err != nil {
		return nil, err
	}
	return &SetFilingStatus{Status: config.NormalizeFilingStatus(status)}, nil
}

func createSetDeduction(params map[string]string) (ProfileTransform, error) {
	method, err := required("set_deduction", params, "method")
	if err != nil {
		return nil, err
	}
	t := &SetDeduction{Method: domain.DeductionMethod(strings.ToLower(method))}
	if t.Method == domain.ItemizedDeduction {
		amt, err := amountParam("set_deduction", params, "amount")
		if err != nil {
			return nil, err
		}
		t.Amount = &amt
	}
	return t, nil
}

func createRelocate(params map[string]string) (ProfileTransform, error) {
	to, err := required("relocate", params, "to")
	if err != nil {
		return nil, err
	}
	t := &Relocate{To: config.NormalizeJurisdiction(to)}
	if raw, ok := params["move_work"]; ok {
		t.MoveWork, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid move_work value: %w", err)
		}
	}
	return t, nil
}

func createAddDependent(params map[string]string) (ProfileTransform, error) {
	rawAge, err := required("add_dependent", params, "age")
	if err != nil {
		return nil, err
	}
	age, err := strconv.Atoi(rawAge)
	if err != nil {
		return nil, fmt.Errorf("invalid age value: %w", err)
	}
	d := domain.Dependent{
		Name:           params["name"],
		Relationship:   domain.Child,
		Age:            age,
		MonthsResident: 12,
	}
	if rel, ok := params["relationship"]; ok {
		d.Relationship = domain.Relationship(strings.ToLower(rel))
	}
	if raw, ok := params["months"]; ok {
		d.MonthsResident, err = strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid months value: %w", err)
		}
	}
	return &AddDependent{Dependent: d}, nil
}

func createSetEstimatedPayment(params map[string]string) (ProfileTransform, error) {
	j, err := required("set_estimated_payment", params, "jurisdiction")
	if err != nil {
		return nil, err
	}
	amt, err := amountParam("set_estimated_payment", params, "amount")
	if err != nil {
		return nil, err
	}
	return &SetEstimatedPayment{Jurisdiction: config.NormalizeJurisdiction(j), Amount: amt}, nil
}

func createSetAdjustment(params map[string]string) (ProfileTransform, error) {
	kind, err := required("set_adjustment", params, "kind")
	if err != nil {
		return nil, err
	}
	amt, err := amountParam("set_adjustment", params, "amount")
	if err != nil {
		return nil, err
	}
	return &SetAdjustment{Kind: strings.ToLower(kind), Amount: amt}, nil
}
