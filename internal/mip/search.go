// Package mip finds the minimum-information partition of a
// mechanism-purview pair: the way of cutting the mechanism apart that
// destroys the least of its cause or effect information. The distance
// destroyed by that partition is the pair's integrated information.
package mip

import (
	"context"

	"gophi/domain/core"
	"gophi/domain/phi"
	"gophi/internal/distance"
	"gophi/internal/partition"
	"gophi/internal/repertoire"
	"gophi/ports"
)

// Scheme selects the partition family searched over
type Scheme int

const (
	// Bipartitions is the classic two-part search
	Bipartitions Scheme = iota
	// Tripartitions adds wedge partitions with an empty-mechanism third
	// part, which catch reducibility the bipartitions miss
	Tripartitions
)

// String returns the scheme name
func (s Scheme) String() string {
	if s == Tripartitions {
		return "TRI"
	}
	return "BI"
}

func (s Scheme) enumerate(mechanism, purview phi.NodeSet) *partition.Sequence {
	if s == Tripartitions {
		return partition.MechanismPurviewTripartitions(mechanism, purview)
	}
	return partition.MechanismPurviewBipartitions(mechanism, purview)
}

// Result is the outcome of one MIP search
type Result struct {
	Direction   phi.Direction
	Mechanism   phi.NodeSet
	Purview     phi.NodeSet
	Phi         float64
	Partition   phi.Partition
	Repertoire  phi.Repertoire
	Partitioned phi.Repertoire
}

// Searcher runs MIP searches over one subsystem view. Safe for
// concurrent use.
type Searcher struct {
	engine    *repertoire.Engine
	measure   distance.Measure
	cache     ports.PhiCache
	scheme    Scheme
	tolerance float64
	enumerate func(mechanism, purview phi.NodeSet) *partition.Sequence
}

// NewSearcher wires a searcher over the given engine
func NewSearcher(engine *repertoire.Engine, measure distance.Measure, cache ports.PhiCache, scheme Scheme, tolerance float64) *Searcher {
	return &Searcher{
		engine:    engine,
		measure:   measure,
		cache:     cache,
		scheme:    scheme,
		tolerance: tolerance,
		enumerate: scheme.enumerate,
	}
}

// Engine returns the underlying repertoire engine
func (s *Searcher) Engine() *repertoire.Engine { return s.engine }

// Repertoire returns the unpartitioned repertoire, through the cache
func (s *Searcher) Repertoire(ctx context.Context, dir phi.Direction, mechanism, purview phi.NodeSet) (phi.Repertoire, error) {
	key := ports.RepertoireKey(s.engine.Subsystem().Hash(), dir, mechanism, purview)
	return s.cache.GetOrComputeRepertoire(ctx, key, func() (phi.Repertoire, error) {
		return s.engine.Repertoire(dir, mechanism, purview), nil
	})
}

func (s *Searcher) partitioned(ctx context.Context, dir phi.Direction, p phi.Partition) (phi.Repertoire, error) {
	key := ports.PartitionedRepertoireKey(s.engine.Subsystem().Hash(), dir, p)
	return s.cache.GetOrComputeRepertoire(ctx, key, func() (phi.Repertoire, error) {
		return s.engine.PartitionedRepertoire(dir, p), nil
	})
}

// FindPhi returns just the phi value of the MIP search, memoized per
// (direction, mechanism, purview). The purview sweep in the MICE search
// calls this; only the winner pays for a full FindMIP.
func (s *Searcher) FindPhi(ctx context.Context, dir phi.Direction, mechanism, purview phi.NodeSet) (float64, error) {
	key := ports.PhiKey(s.engine.Subsystem().Hash(), dir, mechanism, purview)
	return s.cache.GetOrComputePhi(ctx, key, func() (float64, error) {
		res, err := s.FindMIP(ctx, dir, mechanism, purview)
		if err != nil {
			return 0, err
		}
		return res.Phi, nil
	})
}

// FindMIP evaluates every candidate partition and returns the one that
// destroys the least information. Ties resolve to the canonically
// smallest partition, so the winner does not depend on the order the
// candidates arrive in. A distance at or below the tolerance ends the
// search immediately: the pair is reducible and phi is zero.
func (s *Searcher) FindMIP(ctx context.Context, dir phi.Direction, mechanism, purview phi.NodeSet) (*Result, error) {
	unpart, err := s.Repertoire(ctx, dir, mechanism, purview)
	if err != nil {
		return nil, err
	}
	out := &Result{
		Direction:   dir,
		Mechanism:   mechanism,
		Purview:     purview,
		Repertoire:  unpart,
		Partitioned: unpart,
	}
	seq := s.enumerate(mechanism, purview)
	if seq.Len() == 0 {
		// Nothing to cut apart; the pair is trivially reducible.
		return out, nil
	}

	best := -1.0
	for {
		if err := ctx.Err(); err != nil {
			return nil, core.NewTimeoutError("mip search", err)
		}
		cand, ok := seq.Next()
		if !ok {
			break
		}
		parted, err := s.partitioned(ctx, dir, cand)
		if err != nil {
			return nil, err
		}
		d, err := s.measure.Distance(unpart, parted)
		if err != nil {
			return nil, err
		}
		if best < 0 || d < best || (d == best && cand.Compare(out.Partition) < 0) {
			best = d
			out.Partition = cand
			out.Partitioned = parted
			if d <= s.tolerance {
				best = 0
				break
			}
		}
	}
	out.Phi = best
	return out, nil
}
