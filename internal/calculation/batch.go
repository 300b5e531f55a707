package calculation

import (
	"context"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/rgehrsitz/taxengine/internal/rules"
	"golang.org/x/sync/errgroup"
)

// BatchOptions controls batch evaluation.
type BatchOptions struct {
	// Workers bounds concurrent calculations. Zero uses GOMAXPROCS.
	Workers int
	// OnProgress, when set, is called after each item finishes. Calls are serialized.
	OnProgress func(done, total int)
}

// BatchItem is one profile's outcome. Exactly one of Result and Err is set.
type BatchItem struct {
	Index     int
	ProfileID string
	Result    *domain.CalculationResult
	Err       error
}

// BatchSummary counts batch outcomes.
type BatchSummary struct {
	Total     int
	Succeeded int
	Failed    int
	Warnings  int
}

// Summarize counts successes, failures and warnings across items.
func Summarize(items []BatchItem) BatchSummary {
	s := BatchSummary{Total: len(items)}
	for _, it := range items {
		if it.Err != nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		s.Warnings += len(it.Result.Warnings)
	}
	return s
}

// CalculateBatch evaluates profiles concurrently. Every rule book is resolved before any
// calculation starts. Failures are isolated per item: one bad profile never cancels its
// siblings. Cancelling ctx marks the items that had not started with ctx.Err().
// Profiles without an ID are assigned a random UUID; the caller's slice is not modified.
func (e *Engine) CalculateBatch(ctx context.Context, profiles []domain.TaxpayerProfile, opts BatchOptions) []BatchItem {
	items := make([]BatchItem, len(profiles))
	books := make([]*rules.Book, len(profiles))
	work := make([]domain.TaxpayerProfile, len(profiles))

	for i := range profiles {
		work[i] = profiles[i]
		if work[i].ID == "" {
			work[i].ID = uuid.NewString()
		}
		items[i] = BatchItem{Index: i, ProfileID: work[i].ID}
		book, err := e.prepare(ctx, &work[i])
		if err != nil {
			items[i].Err = err
			continue
		}
		books[i] = book
	}
	e.Logger.Infof("batch: %d profile(s), %d rejected before calculation", len(profiles), countErrors(items))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		mu   sync.Mutex
		done int
	)
	progress := func() {
		if opts.OnProgress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		opts.OnProgress(done, len(items))
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range items {
		if items[i].Err != nil {
			progress()
			continue
		}
		if err := ctx.Err(); err != nil {
			items[i].Err = err
			progress()
			continue
		}
		g.Go(func() error {
			defer progress()
			if err := ctx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			res, err := Compute(books[i], &work[i])
			if err != nil {
				e.Logger.Warnf("batch item %d (%s) failed: %v", i, work[i].ID, err)
				items[i].Err = err
				return nil
			}
			items[i].Result = res
			return nil
		})
	}
	_ = g.Wait()

	sum := Summarize(items)
	e.Logger.Infof("batch complete: %d succeeded, %d failed", sum.Succeeded, sum.Failed)
	return items
}

func countErrors(items []BatchItem) int {
	n := 0
	for _, it := range items {
		if it.Err != nil {
			n++
		}
	}
	return n
}
