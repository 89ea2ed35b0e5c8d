// Copyright 2025 Certen Protocol

package prover

import (
	"sync"
)

// runBounded runs fn(i) for every index in [0, n), one goroutine per
// index with a semaphore channel letting at most maxConcurrency of them
// run fn at once, the same semaphore-channel shape as the
// teacher's batch BPT extractor, but returning results keyed by index
// rather than append order so the caller's slice preserves input order
// regardless of which goroutine finishes first.
func runBounded(n int, maxConcurrency int, fn func(i int) (interface{}, error)) ([]interface{}, []error) {
	results := make([]interface{}, n)
	errs := make([]error, n)

	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := fn(i)
			results[i] = result
			errs[i] = err
		}(i)
	}
	wg.Wait()

	return results, errs
}
