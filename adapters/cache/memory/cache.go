// Package memory implements the phi cache on process-local maps with
// per-key in-flight latches, so concurrent workers asking for the same
// repertoire compute it exactly once.
package memory

import (
	"context"
	"sync"

	"gophi/domain/phi"
	"gophi/ports"
)

type repEntry struct {
	done chan struct{}
	rep  phi.Repertoire
	err  error
}

type phiEntry struct {
	done chan struct{}
	phi  float64
	err  error
}

// Cache is a process-local ports.PhiCache. Safe for concurrent use.
type Cache struct {
	mu   sync.Mutex
	reps map[ports.CacheKey]*repEntry
	phis map[ports.CacheKey]*phiEntry
}

// New creates an empty cache
func New() *Cache {
	return &Cache{
		reps: make(map[ports.CacheKey]*repEntry),
		phis: make(map[ports.CacheKey]*phiEntry),
	}
}

// GetOrComputeRepertoire returns the cached repertoire for key or
// computes and stores it. The loser of a concurrent race waits on the
// winner's latch instead of recomputing.
func (c *Cache) GetOrComputeRepertoire(ctx context.Context, key ports.CacheKey, compute func() (phi.Repertoire, error)) (phi.Repertoire, error) {
	c.mu.Lock()
	if e, ok := c.reps[key]; ok {
		c.mu.Unlock()
		select {
		case <-e.done:
			return e.rep, e.err
		case <-ctx.Done():
			return phi.Repertoire{}, ctx.Err()
		}
	}
	e := &repEntry{done: make(chan struct{})}
	c.reps[key] = e
	c.mu.Unlock()

	e.rep, e.err = compute()
	if e.err != nil {
		// Failed computations are not cached; a later caller retries.
		c.mu.Lock()
		delete(c.reps, key)
		c.mu.Unlock()
	}
	close(e.done)
	return e.rep, e.err
}

// GetOrComputePhi returns the cached phi value for key or computes and
// stores it.
func (c *Cache) GetOrComputePhi(ctx context.Context, key ports.CacheKey, compute func() (float64, error)) (float64, error) {
	c.mu.Lock()
	if e, ok := c.phis[key]; ok {
		c.mu.Unlock()
		select {
		case <-e.done:
			return e.phi, e.err
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	e := &phiEntry{done: make(chan struct{})}
	c.phis[key] = e
	c.mu.Unlock()

	e.phi, e.err = compute()
	if e.err != nil {
		c.mu.Lock()
		delete(c.phis, key)
		c.mu.Unlock()
	}
	close(e.done)
	return e.phi, e.err
}

// Len returns the number of stored entries, for tests and stats
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reps) + len(c.phis)
}

// Close discards all entries
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reps = make(map[ports.CacheKey]*repEntry)
	c.phis = make(map[ports.CacheKey]*phiEntry)
	return nil
}

// Passthrough is a ports.PhiCache that stores nothing: every call runs
// compute. Used when caching is disabled.
type Passthrough struct{}

func (Passthrough) GetOrComputeRepertoire(ctx context.Context, _ ports.CacheKey, compute func() (phi.Repertoire, error)) (phi.Repertoire, error) {
	if err := ctx.Err(); err != nil {
		return phi.Repertoire{}, err
	}
	return compute()
}

func (Passthrough) GetOrComputePhi(ctx context.Context, _ ports.CacheKey, compute func() (float64, error)) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return compute()
}

func (Passthrough) Close() error { return nil }
