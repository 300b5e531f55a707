package rules

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"golang.org/x/sync/singleflight"
)

func (k Key) String() string {
	return fmt.Sprintf("%d/%s", k.Year, k.Jurisdiction)
}

// Registry loads and caches compiled rule sets process-wide, keyed by (year, jurisdiction).
// A key is compiled at most once per successful load: concurrent loaders share one fetch,
// and the first stored instance is the one every caller observes.
type Registry struct {
	source   Source
	cache    sync.Map // Key -> *RuleSet
	group    singleflight.Group
	compiled atomic.Int64
}

// NewRegistry creates a registry backed by source.
func NewRegistry(source Source) *Registry {
	return &Registry{source: source}
}

// Get returns the rule set for (year, j), loading it on first use.
func (r *Registry) Get(ctx context.Context, year int, j domain.Jurisdiction) (*RuleSet, error) {
	if !j.Valid() {
		return nil, &domain.InputError{Field: "jurisdiction", Jurisdiction: j, Reason: "unrecognized jurisdiction code"}
	}
	key := Key{Year: year, Jurisdiction: j}
	if v, ok := r.cache.Load(key); ok {
		return v.(*RuleSet), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// The shared load outlives any one caller; each caller stops waiting on its own ctx.
	loadCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key.String(), func() (any, error) {
		if v, ok := r.cache.Load(key); ok {
			return v, nil
		}
		data, err := r.source.Fetch(loadCtx, year, j)
		if err != nil {
			return nil, err
		}
		rs, err := Compile(year, j, data)
		if err != nil {
			return nil, err
		}
		r.compiled.Add(1)
		actual, _ := r.cache.LoadOrStore(key, rs)
		return actual, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*RuleSet), nil
	}
}

// Cached returns a rule set only if it is already loaded. It never blocks on a source.
func (r *Registry) Cached(year int, j domain.Jurisdiction) (*RuleSet, bool) {
	v, ok := r.cache.Load(Key{Year: year, Jurisdiction: j})
	if !ok {
		return nil, false
	}
	return v.(*RuleSet), true
}

// Compiled reports how many rule sets this registry has compiled.
func (r *Registry) Compiled() int64 {
	return r.compiled.Load()
}

// Book loads the federal rule set and each listed jurisdiction for year and returns
// them as a read-only Book. Calculations read only from a Book.
func (r *Registry) Book(ctx context.Context, year int, jurisdictions ...domain.Jurisdiction) (*Book, error) {
	sets := make([]*RuleSet, 0, len(jurisdictions)+1)
	seen := map[domain.Jurisdiction]bool{}
	for _, j := range append([]domain.Jurisdiction{domain.Federal}, jurisdictions...) {
		if seen[j] {
			continue
		}
		seen[j] = true
		rs, err := r.Get(ctx, year, j)
		if err != nil {
			return nil, err
		}
		sets = append(sets, rs)
	}
	return NewBook(year, sets...), nil
}

// Preload loads every rule set the source lists for year so malformed data surfaces
// before any calculation starts. Sources that cannot list are a no-op.
func (r *Registry) Preload(ctx context.Context, year int) error {
	lister, ok := r.source.(Lister)
	if !ok {
		return nil
	}
	keys, err := lister.List(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, k := range keys {
		if k.Year != year {
			continue
		}
		if _, err := r.Get(ctx, k.Year, k.Jurisdiction); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// KeyResult pairs a listed key with its load outcome.
type KeyResult struct {
	Key     Key
	RuleSet *RuleSet
	Err     error
}

// ValidateAll loads every key the source lists and reports each outcome.
func (r *Registry) ValidateAll(ctx context.Context) ([]KeyResult, error) {
	lister, ok := r.source.(Lister)
	if !ok {
		return nil, fmt.Errorf("rule source cannot enumerate its rule sets")
	}
	keys, err := lister.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]KeyResult, 0, len(keys))
	for _, k := range keys {
		rs, err := r.Get(ctx, k.Year, k.Jurisdiction)
		out = append(out, KeyResult{Key: k, RuleSet: rs, Err: err})
	}
	return out, nil
}
