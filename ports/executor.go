package ports

import "context"

// TaskExecutor fans a batch of independent tasks out to workers. Results
// must be collected by index so reduction stays deterministic regardless
// of completion order.
type TaskExecutor interface {
	// Map runs fn for every index in [0, n). It returns the first error
	// and cancels the remaining tasks through the derived context.
	Map(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error
}
