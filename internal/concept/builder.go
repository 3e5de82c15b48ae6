// Package concept assembles concepts: for each mechanism, the purview
// that maximizes its integrated cause information and the purview that
// maximizes its integrated effect information, found by running a MIP
// search per candidate purview.
package concept

import (
	"context"
	"errors"
	"sort"

	"gophi/domain/core"
	"gophi/domain/phi"
	"gophi/internal/mip"
	"gophi/ports"
)

// Builder computes concepts and cause-effect structures over one
// subsystem view. Safe for concurrent use.
type Builder struct {
	searcher  *mip.Searcher
	executor  ports.TaskExecutor
	tolerance float64
}

// NewBuilder wires a builder over the given searcher
func NewBuilder(searcher *mip.Searcher, executor ports.TaskExecutor, tolerance float64) *Builder {
	return &Builder{searcher: searcher, executor: executor, tolerance: tolerance}
}

// PotentialPurviews returns the candidate purviews for a mechanism in
// canonical order. A purview node with no surviving causal path to the
// mechanism in the queried direction cannot carry constrained
// information, so purviews containing one are pruned before any
// repertoire is computed.
func (b *Builder) PotentialPurviews(dir phi.Direction, mechanism phi.NodeSet) []phi.NodeSet {
	sub := b.searcher.Engine().Subsystem()
	nodes := sub.Nodes()
	connected := phi.NodeSet{}
	for _, p := range nodes {
		if b.linked(dir, p, mechanism) {
			connected = append(connected, p)
		}
	}
	out := []phi.NodeSet{}
	for mask := 1; mask < phi.StateCount(connected.Len()); mask++ {
		out = append(out, phi.FromMask(uint64(mask), connected))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

// linked reports whether purview node p touches the mechanism in the
// given direction: an edge into the mechanism for causes, an edge from
// the mechanism for effects. Connectivity is read after any system cut.
func (b *Builder) linked(dir phi.Direction, p int, mechanism phi.NodeSet) bool {
	sub := b.searcher.Engine().Subsystem()
	for _, m := range mechanism {
		if dir == phi.Cause {
			if sub.HasEdge(p, m) {
				return true
			}
		} else {
			if sub.HasEdge(m, p) {
				return true
			}
		}
	}
	return false
}

// FindMice returns the maximally irreducible cause or effect of a
// mechanism: the purview with the highest MIP phi. Ties resolve to the
// earliest purview in canonical order, which is the smallest. The
// purview sweep only asks for phi values; the full MIP with its witness
// repertoires is recomputed once, for the winner.
func (b *Builder) FindMice(ctx context.Context, dir phi.Direction, mechanism phi.NodeSet) (*phi.Mice, error) {
	purviews := b.PotentialPurviews(dir, mechanism)
	if len(purviews) == 0 {
		return b.nullMice(dir, mechanism), nil
	}
	best := -1.0
	winner := purviews[0]
	for _, purview := range purviews {
		v, err := b.searcher.FindPhi(ctx, dir, mechanism, purview)
		if err != nil {
			return nil, wrapCtx("mice search", err)
		}
		if v > best {
			best = v
			winner = purview
		}
	}
	res, err := b.searcher.FindMIP(ctx, dir, mechanism, winner)
	if err != nil {
		return nil, wrapCtx("mice search", err)
	}
	return &phi.Mice{
		Direction:   dir,
		Mechanism:   mechanism,
		Purview:     res.Purview,
		Phi:         res.Phi,
		Repertoire:  res.Repertoire,
		Partitioned: res.Partitioned,
		Partition:   res.Partition,
	}, nil
}

// nullMice marks a mechanism with no admissible purview in a direction
func (b *Builder) nullMice(dir phi.Direction, mechanism phi.NodeSet) *phi.Mice {
	return &phi.Mice{
		Direction:   dir,
		Mechanism:   mechanism,
		Purview:     phi.NodeSet{},
		Phi:         0,
		Repertoire:  phi.ScalarRepertoire(),
		Partitioned: phi.ScalarRepertoire(),
	}
}

// BuildConcept computes both directions for a mechanism. The concept's
// phi is the minimum of the two: losing either direction makes the
// mechanism reducible.
func (b *Builder) BuildConcept(ctx context.Context, mechanism phi.NodeSet) (*phi.Concept, error) {
	cause, err := b.FindMice(ctx, phi.Cause, mechanism)
	if err != nil {
		return nil, err
	}
	effect, err := b.FindMice(ctx, phi.Effect, mechanism)
	if err != nil {
		return nil, err
	}
	small := cause.Phi
	if effect.Phi < small {
		small = effect.Phi
	}
	return &phi.Concept{
		Mechanism: mechanism,
		Phi:       small,
		Cause:     cause,
		Effect:    effect,
	}, nil
}

// BuildStructure computes the cause-effect structure: every non-empty
// mechanism's concept, keeping the irreducible ones in canonical
// mechanism order. Mechanisms are independent and fan out to the
// executor; results land by index so the order is deterministic.
func (b *Builder) BuildStructure(ctx context.Context) (*phi.CauseEffectStructure, error) {
	sub := b.searcher.Engine().Subsystem()
	mechanisms := Mechanisms(sub.Nodes())
	results := make([]*phi.Concept, len(mechanisms))
	err := b.executor.Map(ctx, len(mechanisms), func(ctx context.Context, i int) error {
		c, err := b.BuildConcept(ctx, mechanisms[i])
		if err != nil {
			return err
		}
		results[i] = c
		return nil
	})
	if err != nil {
		return nil, wrapCtx("structure build", err)
	}
	ces := &phi.CauseEffectStructure{Subsystem: sub.Hash()}
	for _, c := range results {
		if c.Irreducible(b.tolerance) {
			ces.Concepts = append(ces.Concepts, *c)
		}
	}
	return ces, nil
}

// wrapCtx maps a raw context error to the timeout taxonomy. The
// executor and the cache latches return ctx.Err() as-is; callers of the
// builder only see classified errors.
func wrapCtx(stage string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return core.NewTimeoutError(stage, err)
	}
	return err
}

// Mechanisms enumerates every non-empty subset of nodes in canonical
// order: by size, then lexicographically.
func Mechanisms(nodes phi.NodeSet) []phi.NodeSet {
	out := make([]phi.NodeSet, 0, phi.StateCount(nodes.Len())-1)
	for mask := 1; mask < phi.StateCount(nodes.Len()); mask++ {
		out = append(out, phi.FromMask(uint64(mask), nodes))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}
