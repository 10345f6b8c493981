package resolve

import (
	"context"
	"runtime"
	"sync"
)

// WorkItem holds one approved symbol to resolve.
type WorkItem struct {
	Seq    int
	Symbol string
}

// WorkResult holds the resolution for a single symbol.
type WorkResult struct {
	Seq        int
	Symbol     string
	Resolution *Resolution
	Err        error
}

// ParallelResolve resolves work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func (r *Resolver) ParallelResolve(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				res, err := r.ResolveGene(item.Symbol)
				results <- WorkResult{
					Seq:        item.Seq,
					Symbol:     item.Symbol,
					Resolution: res,
					Err:        err,
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

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for res := range results {
		pending[res.Seq] = res

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}

// ResolveAll resolves symbols on a worker pool and returns resolutions in
// input order. The output does not depend on the number of workers.
func (r *Resolver) ResolveAll(ctx context.Context, symbols []string, workers int) ([]*Resolution, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	items := make(chan WorkItem, 2*max(workers, 1))
	go func() {
		defer close(items)
		for i, s := range symbols {
			select {
			case items <- WorkItem{Seq: i, Symbol: s}:
			case <-ctx.Done():
				return
			}
		}
	}()

	out := make([]*Resolution, 0, len(symbols))
	err := OrderedCollect(r.ParallelResolve(items, workers), func(res WorkResult) error {
		if res.Err != nil {
			cancel()
			return res.Err
		}
		out = append(out, res.Resolution)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
