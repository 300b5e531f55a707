package calculation

import (
	"context"
	"sync"
	"testing"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/rgehrsitz/taxengine/internal/rules"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Errorf("expected %s, got %s %v", want, got.String(), msgAndArgs)
	}
}

var (
	sharedRegistry     *rules.Registry
	sharedRegistryOnce sync.Once
)

func testRegistry() *rules.Registry {
	sharedRegistryOnce.Do(func() {
		sharedRegistry = rules.NewRegistry(rules.EmbeddedSource())
	})
	return sharedRegistry
}

func testEngine() *Engine {
	return NewEngine(testRegistry())
}

func testBook(t *testing.T, year int, states ...domain.Jurisdiction) *rules.Book {
	t.Helper()
	book, err := testRegistry().Book(context.Background(), year, states...)
	require.NoError(t, err)
	return book
}

func ruleSet(t *testing.T, year int, j domain.Jurisdiction) *rules.RuleSet {
	t.Helper()
	rs, err := testRegistry().Get(context.Background(), year, j)
	require.NoError(t, err)
	return rs
}

func wages(gross string, source domain.Jurisdiction) domain.IncomeSource {
	return domain.IncomeSource{Wages: &domain.WageIncome{Employer: "Acme", Gross: d(gross), Source: source}}
}

func singleProfile(resident domain.Jurisdiction, income ...domain.IncomeSource) *domain.TaxpayerProfile {
	return &domain.TaxpayerProfile{
		ID:                   "test",
		TaxYear:              2024,
		FilingStatus:         domain.Single,
		Taxpayer:             domain.Person{Age: 40},
		Income:               income,
		ResidentJurisdiction: resident,
	}
}

// TestLogger records log lines for assertions.
type TestLogger struct {
	mu       sync.Mutex
	messages []string
}

func (tl *TestLogger) record(prefix, format string) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.messages = append(tl.messages, prefix+format)
}

func (tl *TestLogger) Debugf(format string, args ...any) { tl.record("DEBUG: ", format) }
func (tl *TestLogger) Infof(format string, args ...any)  { tl.record("INFO: ", format) }
func (tl *TestLogger) Warnf(format string, args ...any)  { tl.record("WARN: ", format) }
func (tl *TestLogger) Errorf(format string, args ...any) { tl.record("ERROR: ", format) }

func (tl *TestLogger) Messages() []string {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return append([]string(nil), tl.messages...)
}
