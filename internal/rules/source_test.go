package rules

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paDoc = `
metadata:
  year: 2026
  jurisdiction: PA
  version: "2026.0"
brackets:
  any:
    - {rate: 0.0307, lower: 0}
standard_deduction:
  any: 0
reciprocity: [NJ]
`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"rules/2026/PA.yaml":   {Data: []byte(paDoc)},
		"rules/2026/US.yaml":   {Data: []byte("metadata: {year: 2026}\nbrackets: [not, a, map\n")},
		"rules/2026/notes.txt": {Data: []byte("ignored")},
		"rules/drafts/NJ.yaml": {Data: []byte("ignored")},
		"rules/2025/TX.yaml":   {Data: []byte("no_income_tax: true\n")},
	}
}

func TestFSSource_Fetch(t *testing.T) {
	src := &FSSource{FS: testFS(), Root: "rules", Name: "test"}

	data, err := src.Fetch(context.Background(), 2026, "PA")
	require.NoError(t, err)
	assert.Equal(t, "2026.0", data.Metadata.Version)
	assert.Equal(t, []domain.Jurisdiction{"NJ"}, data.Reciprocity)
	require.Len(t, data.Brackets[domain.AnyFilingStatus], 1)
	assert.Nil(t, data.Brackets[domain.AnyFilingStatus][0].Upper)

	_, err = src.Fetch(context.Background(), 2026, "OH")
	assert.ErrorIs(t, err, domain.ErrUnsupportedRuleSet)

	_, err = src.Fetch(context.Background(), 2026, domain.Federal)
	assert.ErrorIs(t, err, domain.ErrMalformedRuleSet)
}

func TestFSSource_FetchHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&FSSource{FS: testFS(), Root: "rules"}).Fetch(ctx, 2026, "PA")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFSSource_List(t *testing.T) {
	src := &FSSource{FS: testFS(), Root: "rules"}

	keys, err := src.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Key{
		{Year: 2025, Jurisdiction: "TX"},
		{Year: 2026, Jurisdiction: domain.Federal},
		{Year: 2026, Jurisdiction: "PA"},
	}, keys)
}

func TestChainSource_FallsThroughUnsupported(t *testing.T) {
	override := &FSSource{FS: testFS(), Root: "rules", Name: "override"}
	chain := ChainSource{override, EmbeddedSource()}

	pa, err := chain.Fetch(context.Background(), 2026, "PA")
	require.NoError(t, err)
	assert.Equal(t, "2026.0", pa.Metadata.Version)

	fed, err := chain.Fetch(context.Background(), 2024, domain.Federal)
	require.NoError(t, err)
	assert.Equal(t, 2024, fed.Metadata.Year)

	_, err = chain.Fetch(context.Background(), 2026, "OH")
	assert.ErrorIs(t, err, domain.ErrUnsupportedRuleSet)

	keys, err := chain.List(context.Background())
	require.NoError(t, err)
	assert.Contains(t, keys, Key{Year: 2024, Jurisdiction: "CA"})
	assert.Contains(t, keys, Key{Year: 2026, Jurisdiction: "PA"})
}

func TestChainSource_StopsOnMalformed(t *testing.T) {
	chain := ChainSource{&FSSource{FS: testFS(), Root: "rules"}, EmbeddedSource()}

	_, err := chain.Fetch(context.Background(), 2026, domain.Federal)

	assert.ErrorIs(t, err, domain.ErrMalformedRuleSet)
}

func TestFSSource_RejectsUnknownKeys(t *testing.T) {
	fsys := fstest.MapFS{
		"rules/2026/NJ.yaml": {Data: []byte(paDoc + "reciprocty: [PA]\n")},
		"rules/2026/US.yaml": {Data: []byte(`
brackets:
  any:
    - {rate: 0.10, lower: 0}
standard_deduction:
  any: 0
credits:
  - id: ctc
    base_amount: 2000
    refundable: true
    refundable_limit_per_dependnt: 1700
`)},
		"rules/2026/OH.yaml": {Data: []byte("")},
	}
	reg := NewRegistry(&FSSource{FS: fsys, Root: "rules"})

	for _, j := range []domain.Jurisdiction{"NJ", domain.Federal, "OH"} {
		t.Run(string(j), func(t *testing.T) {
			_, err := reg.Get(context.Background(), 2026, j)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedRuleSet)
		})
	}

	_, err := reg.Get(context.Background(), 2026, "NJ")
	assert.ErrorContains(t, err, "reciprocty")
}
