// Package partition enumerates candidate cuts: mechanism-purview
// partitions for the mechanism-level MIP search and unidirectional
// system cuts for the system-level search.
//
// Enumeration is iterative over bitmask index ranges (no recursion) and
// emitted in the canonical order required for deterministic tie-breaks:
// increasing size of the smallest part, then lexicographic node order.
package partition

import (
	"sort"

	"gophi/domain/phi"
)

// Sequence is a finite, single-pass iterator over partitions. It is not
// restartable; re-enumerate on demand.
type Sequence struct {
	items []phi.Partition
	pos   int
}

// Next returns the next partition in canonical order
func (s *Sequence) Next() (phi.Partition, bool) {
	if s.pos >= len(s.items) {
		return phi.Partition{}, false
	}
	p := s.items[s.pos]
	s.pos++
	return p, true
}

// Len returns the total number of candidates
func (s *Sequence) Len() int { return len(s.items) }

// NewSequence wraps an explicit candidate list, iterated in the given
// order. The search accepts any order; the enumerators above emit the
// canonical one.
func NewSequence(items []phi.Partition) *Sequence {
	return &Sequence{items: items}
}

// MechanismPurviewBipartitions enumerates every way to split a
// mechanism-purview pair into two parts: unordered splits of the
// mechanism crossed with ordered splits of the purview. Candidates
// where a part restricts neither mechanism nor purview are not valid
// cuts under the theory and are skipped, not scored.
func MechanismPurviewBipartitions(mechanism, purview phi.NodeSet) *Sequence {
	items := []phi.Partition{}
	mechSplits := phi.StateCount(mechanism.Len()) / 2
	if mechanism.IsEmpty() {
		mechSplits = 1
	}
	purviewSplits := phi.StateCount(purview.Len())
	for mm := 0; mm < mechSplits; mm++ {
		m0 := phi.FromMask(uint64(mm), mechanism)
		m1 := mechanism.Minus(m0)
		for pm := 0; pm < purviewSplits; pm++ {
			p0 := phi.FromMask(uint64(pm), purview)
			p1 := purview.Minus(p0)
			a := phi.Part{Mechanism: m0, Purview: p0}
			b := phi.Part{Mechanism: m1, Purview: p1}
			if a.IsTrivial() || b.IsTrivial() {
				continue
			}
			items = append(items, phi.NewPartition(a, b))
		}
	}
	return canonicalize(items)
}

// MechanismPurviewTripartitions enumerates the bipartitions plus every
// wedge tripartition: two mechanism-bearing parts and a third part that
// cuts purview nodes away from the whole mechanism. Degenerate wedges
// with an empty third purview are already covered by the bipartitions
// and are not re-emitted, and mirror assignments that normalize to the
// same three parts count once.
func MechanismPurviewTripartitions(mechanism, purview phi.NodeSet) *Sequence {
	bi := MechanismPurviewBipartitions(mechanism, purview)
	items := append([]phi.Partition{}, bi.items...)
	mechSplits := phi.StateCount(mechanism.Len()) / 2
	if mechanism.IsEmpty() {
		mechSplits = 1
	}
	// Assign each purview node to part 0, 1 or the wedge (part 2).
	assignments := 1
	for i := 0; i < purview.Len(); i++ {
		assignments *= 3
	}
	for mm := 0; mm < mechSplits; mm++ {
		m0 := phi.FromMask(uint64(mm), mechanism)
		m1 := mechanism.Minus(m0)
		for a := 0; a < assignments; a++ {
			p0, p1, p2 := phi.NodeSet{}, phi.NodeSet{}, phi.NodeSet{}
			rest := a
			for _, n := range purview {
				switch rest % 3 {
				case 0:
					p0 = append(p0, n)
				case 1:
					p1 = append(p1, n)
				default:
					p2 = append(p2, n)
				}
				rest /= 3
			}
			if p2.IsEmpty() {
				continue
			}
			pa := phi.Part{Mechanism: m0, Purview: p0}
			pb := phi.Part{Mechanism: m1, Purview: p1}
			pc := phi.Part{Mechanism: phi.NodeSet{}, Purview: p2}
			if pa.IsTrivial() || pb.IsTrivial() {
				continue
			}
			items = append(items, phi.NewPartition(pa, pb, pc))
		}
	}
	return canonicalize(items)
}

// SystemCuts enumerates every directional bipartition of the node set:
// 2^n - 2 candidates, each severing the edges from one group to its
// complement. hasEdge reports surviving connectivity; when prune is set,
// cuts that no causal edge crosses are dropped (they are degenerate:
// severing nothing, they are handled by the caller's trivial-
// reducibility check).
func SystemCuts(nodes phi.NodeSet, prune bool, hasEdge func(i, j int) bool) []phi.Cut {
	cuts := []phi.Cut{}
	total := phi.StateCount(nodes.Len())
	for mask := 1; mask < total-1; mask++ {
		from := phi.FromMask(uint64(mask), nodes)
		to := nodes.Minus(from)
		cut := phi.Cut{From: from, To: to}
		if prune && !CutCrossesEdge(cut, hasEdge) {
			continue
		}
		cuts = append(cuts, cut)
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].Compare(cuts[j]) < 0 })
	return cuts
}

// CutCrossesEdge reports whether any causal edge is actually severed by
// the cut.
func CutCrossesEdge(cut phi.Cut, hasEdge func(i, j int) bool) bool {
	for _, i := range cut.From {
		for _, j := range cut.To {
			if i != j && hasEdge(i, j) {
				return true
			}
		}
	}
	return false
}

func canonicalize(items []phi.Partition) *Sequence {
	sort.Slice(items, func(i, j int) bool { return items[i].Compare(items[j]) < 0 })
	// Drop duplicates produced by symmetric assignments.
	out := items[:0]
	for _, p := range items {
		if len(out) == 0 || out[len(out)-1].Compare(p) != 0 {
			out = append(out, p)
		}
	}
	return &Sequence{items: out}
}
