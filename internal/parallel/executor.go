// Package parallel provides the bounded task executors used to fan out
// independent mechanism and cut evaluations.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Pool runs tasks on up to workers goroutines. The first task error
// cancels the rest; callers collect results by index so the outcome does
// not depend on completion order.
type Pool struct {
	workers int64
}

// NewPool creates a pool with the given worker bound. Non-positive
// values fall back to the CPU count.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{workers: int64(workers)}
}

// Workers returns the concurrency bound
func (p *Pool) Workers() int { return int(p.workers) }

// Map runs fn for every index in [0, n)
func (p *Pool) Map(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(p.workers)
	var stopped error
	for i := 0; i < n; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			stopped = err
			break
		}
		i := i
		g.Go(func() error {
			defer sem.Release(1)
			return fn(ctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return stopped
}

// Serial runs tasks inline on the calling goroutine. Used for nested
// fan-out, where the outer pool already owns the workers, and for
// deterministic debugging.
type Serial struct{}

// Map runs fn for every index in [0, n), stopping at the first error or
// context cancellation.
func (Serial) Map(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, i); err != nil {
			return err
		}
	}
	return nil
}
