// Package ports defines the boundary interfaces of the engine. Adapters
// implement them; the computation core depends only on what is declared
// here.
package ports

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gophi/domain/core"
	"gophi/domain/phi"
)

// CacheKey identifies one memoizable intermediate. Keys are scoped by
// subsystem hash, so a cut view never aliases the intact view.
type CacheKey string

// PhiCache memoizes the two hot intermediates of a phi computation:
// repertoires and mechanism-level phi values. Implementations must
// guarantee at-most-once execution of the compute function per key
// among concurrent callers, and must be safe for concurrent use.
type PhiCache interface {
	// GetOrComputeRepertoire returns the cached repertoire for key, or
	// runs compute, stores the result and returns it.
	GetOrComputeRepertoire(ctx context.Context, key CacheKey, compute func() (phi.Repertoire, error)) (phi.Repertoire, error)

	// GetOrComputePhi is GetOrComputeRepertoire for scalar phi values.
	GetOrComputePhi(ctx context.Context, key CacheKey, compute func() (float64, error)) (float64, error)

	// Close releases any backing resources. Further calls after Close
	// are undefined.
	Close() error
}

// RepertoireKey builds the cache key for an unpartitioned repertoire.
func RepertoireKey(sub core.SubsystemHash, dir phi.Direction, mechanism, purview phi.NodeSet) CacheKey {
	return CacheKey(fmt.Sprintf("rep:%s:%s:%s:%s", sub.Short(), dir, joinNodes(mechanism), joinNodes(purview)))
}

// PartitionedRepertoireKey builds the cache key for a repertoire under a
// specific mechanism-purview partition.
func PartitionedRepertoireKey(sub core.SubsystemHash, dir phi.Direction, partition phi.Partition) CacheKey {
	return CacheKey(fmt.Sprintf("prep:%s:%s:%s", sub.Short(), dir, partition))
}

// PhiKey builds the cache key for a mechanism-purview phi value.
func PhiKey(sub core.SubsystemHash, dir phi.Direction, mechanism, purview phi.NodeSet) CacheKey {
	return CacheKey(fmt.Sprintf("phi:%s:%s:%s:%s", sub.Short(), dir, joinNodes(mechanism), joinNodes(purview)))
}

func joinNodes(nodes phi.NodeSet) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
