package annotate

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/inodb/infofrac/internal/vcf"
)

// WorkItem is one parsed site queued for annotation. Seq numbers start at 0
// and have no gaps.
type WorkItem struct {
	Seq     int
	Variant *vcf.Variant
}

// WorkResult carries the annotation of one WorkItem. Site is set even when
// Err is not nil, holding the values of the annotators that succeeded.
type WorkResult struct {
	Seq     int
	Variant *vcf.Variant
	Site    *SiteAnnotation
	Err     error
}

// ParallelAnnotate fans items out to a pool of workers and returns their
// results in completion order. Workers stop taking items once ctx is done.
// If workers is 0, runtime.NumCPU() is used.
func (a *Annotator) ParallelAnnotate(ctx context.Context, items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for {
				var item WorkItem
				var ok bool
				select {
				case item, ok = <-items:
					if !ok {
						return
					}
				case <-ctx.Done():
					return
				}

				site, err := a.Annotate(item.Variant)
				select {
				case results <- WorkResult{Seq: item.Seq, Variant: item.Variant, Site: site, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect hands results to fn in Seq order, holding back any that
// arrive early. It returns the first error from fn after draining results.
// If results closes while a sequence number is still missing, the run was
// cut short: ctx.Err() is returned when ctx is done, otherwise a gap error.
func OrderedCollect(ctx context.Context, results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	next := 0

	for r := range results {
		pending[r.Seq] = r
		for {
			rr, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if err := fn(rr); err != nil {
				for range results {
				}
				return err
			}
		}
	}

	if len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("result %d never arrived (%d later results held back)", next, len(pending))
	}
	return nil
}
