package rules

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Fetch(ctx context.Context, year int, j domain.Jurisdiction) (*domain.RuleSetData, error) {
	args := m.Called(year, j)
	data, _ := args.Get(0).(*domain.RuleSetData)
	return data, args.Error(1)
}

func TestRegistry_GetCompilesOnceUnderContention(t *testing.T) {
	src := &mockSource{}
	src.On("Fetch", 2024, domain.Jurisdiction("PA")).
		Run(func(mock.Arguments) { time.Sleep(20 * time.Millisecond) }).
		Return(flatState("PA", "0.0307"), nil)

	reg := NewRegistry(src)

	const callers = 32
	results := make([]*RuleSet, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rs, err := reg.Get(context.Background(), 2024, "PA")
			assert.NoError(t, err)
			results[i] = rs
		}(i)
	}
	wg.Wait()

	require.NotNil(t, results[0])
	for _, rs := range results {
		assert.Same(t, results[0], rs)
	}
	assert.Equal(t, int64(1), reg.Compiled())
	src.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestRegistry_UnsupportedKey(t *testing.T) {
	src := &mockSource{}
	src.On("Fetch", 2031, domain.Jurisdiction("NJ")).Return(nil, domain.Unsupported(2031, "NJ"))

	reg := NewRegistry(src)
	_, err := reg.Get(context.Background(), 2031, "NJ")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedRuleSet)
	_, ok := reg.Cached(2031, "NJ")
	assert.False(t, ok)
}

func TestRegistry_InvalidJurisdiction(t *testing.T) {
	src := &mockSource{}
	reg := NewRegistry(src)

	_, err := reg.Get(context.Background(), 2024, "XX")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	src.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestRegistry_FailuresAreNotCached(t *testing.T) {
	src := &mockSource{}
	src.On("Fetch", 2024, domain.Jurisdiction("OH")).Return(nil, errors.New("source offline")).Once()
	src.On("Fetch", 2024, domain.Jurisdiction("OH")).Return(flatState("OH", "0.03"), nil).Once()

	reg := NewRegistry(src)

	_, err := reg.Get(context.Background(), 2024, "OH")
	require.Error(t, err)

	rs, err := reg.Get(context.Background(), 2024, "OH")
	require.NoError(t, err)
	assert.Equal(t, domain.Jurisdiction("OH"), rs.Jurisdiction)
	src.AssertExpectations(t)
}

func TestRegistry_MalformedDataRejected(t *testing.T) {
	bad := flatState("WI", "0.05")
	bad.Brackets[domain.AnyFilingStatus] = []domain.BracketData{
		{Rate: d("0.03"), Lower: d("0"), Upper: dp("10000")},
		{Rate: d("0.05"), Lower: d("10001")},
	}
	src := &mockSource{}
	src.On("Fetch", 2024, domain.Jurisdiction("WI")).Return(bad, nil)

	_, err := NewRegistry(src).Get(context.Background(), 2024, "WI")

	assert.ErrorIs(t, err, domain.ErrMalformedRuleSet)
}

func TestRegistry_BookIncludesFederal(t *testing.T) {
	reg := NewRegistry(EmbeddedSource())

	book, err := reg.Book(context.Background(), 2024, "PA", "NJ", "PA")
	require.NoError(t, err)

	fed, err := book.Federal()
	require.NoError(t, err)
	assert.Equal(t, domain.Federal, fed.Jurisdiction)

	pa, err := book.RuleSet("PA")
	require.NoError(t, err)
	assert.True(t, pa.HasReciprocity("NJ"))

	_, err = book.RuleSet("CA")
	assert.ErrorIs(t, err, domain.ErrUnsupportedRuleSet)
	assert.Equal(t, int64(3), reg.Compiled())
}

func TestRegistry_ValidateAllBuiltin(t *testing.T) {
	reg := NewRegistry(EmbeddedSource())

	results, err := reg.ValidateAll(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, Key{Year: 2024, Jurisdiction: domain.Federal}, results[0].Key)
	for _, r := range results {
		assert.NoError(t, r.Err, r.Key.String())
		assert.NotNil(t, r.RuleSet, r.Key.String())
	}
}

func TestRegistry_Preload(t *testing.T) {
	reg := NewRegistry(EmbeddedSource())

	require.NoError(t, reg.Preload(context.Background(), 2025))

	_, ok := reg.Cached(2025, "NY")
	assert.True(t, ok)
	_, ok = reg.Cached(2024, "NY")
	assert.False(t, ok)
}

func TestRegistry_CancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	src := &mockSource{}
	src.On("Fetch", 2024, domain.Jurisdiction("IL")).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(flatState("IL", "0.0495"), nil).Once()

	reg := NewRegistry(src)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := reg.Get(ctx, 2024, "IL")
		firstErr <- err
	}()
	<-started

	type result struct {
		rs  *RuleSet
		err error
	}
	second := make(chan result, 1)
	go func() {
		rs, err := reg.Get(context.Background(), 2024, "IL")
		second <- result{rs, err}
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	time.Sleep(20 * time.Millisecond)
	close(release)

	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, domain.Jurisdiction("IL"), got.rs.Jurisdiction)
	assert.Equal(t, int64(1), reg.Compiled())
	src.AssertExpectations(t)
}
