package concurrency

import (
	"context"
	"fmt"
	"sync"
)

// ParallelOptions configures ProcessParallel.
type ParallelOptions struct {
	// MaxWorkers caps the number of goroutines.
	MaxWorkers int
}

func DefaultOptions() ParallelOptions {
	return ParallelOptions{
		MaxWorkers: 10,
	}
}

// ProcessParallel runs itemFunc over items on a bounded worker pool and
// returns the results in input order. Items not started before ctx is done
// yield a zero result and an error wrapping ctx.Err().
func ProcessParallel[T any, R any](
	ctx context.Context,
	items []T,
	opts ParallelOptions,
	itemFunc func(ctx context.Context, index int, item T) (R, error),
) ([]R, []error) {
	if len(items) == 0 {
		return []R{}, nil
	}

	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = DefaultOptions().MaxWorkers
	}
	if maxWorkers > len(items) {
		maxWorkers = len(items)
	}

	jobs := make(chan int, len(items))
	for i := range items {
		jobs <- i
	}
	close(jobs)

	results := make([]R, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	for w := 0; w < maxWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					errs[i] = fmt.Errorf("item %d: %w", i, err)
					continue
				}
				results[i], errs[i] = itemFunc(ctx, i, items[i])
			}
		}()
	}
	wg.Wait()

	var out []error
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return results, out
}
