package phi

import (
	"fmt"
	"sort"
	"strings"
)

// Part pairs a piece of a mechanism with a piece of a purview. Either
// side may be empty, but a part whose sides are both empty is trivial
// and never appears in a valid partition.
type Part struct {
	Mechanism NodeSet
	Purview   NodeSet
}

// IsTrivial reports whether the part restricts neither mechanism nor purview
func (p Part) IsTrivial() bool {
	return p.Mechanism.IsEmpty() && p.Purview.IsEmpty()
}

// Size is the total node count of the part across both sides
func (p Part) Size() int {
	return p.Mechanism.Len() + p.Purview.Len()
}

func (p Part) String() string {
	return p.Mechanism.String() + "/" + p.Purview.String()
}

func comparePart(a, b Part) int {
	if c := a.Mechanism.Compare(b.Mechanism); c != 0 {
		return c
	}
	return a.Purview.Compare(b.Purview)
}

// Partition is a directional cut of a mechanism-purview pair into two or
// more parts. Influence between parts is severed: the partitioned
// repertoire is the product of the per-part repertoires.
type Partition struct {
	Parts []Part
}

// NewPartition builds a partition and normalizes part order so equal
// partitions compare equal regardless of construction order.
func NewPartition(parts ...Part) Partition {
	sorted := make([]Part, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Size() != sorted[j].Size() {
			return sorted[i].Size() < sorted[j].Size()
		}
		return comparePart(sorted[i], sorted[j]) < 0
	})
	return Partition{Parts: sorted}
}

// SmallestPartSize returns the node count of the smallest part, the
// leading component of the canonical partition ordering.
func (p Partition) SmallestPartSize() int {
	if len(p.Parts) == 0 {
		return 0
	}
	min := p.Parts[0].Size()
	for _, part := range p.Parts[1:] {
		if part.Size() < min {
			min = part.Size()
		}
	}
	return min
}

// Compare imposes the canonical partition ordering: increasing size of
// the smallest part, then lexicographic over the normalized parts.
func (p Partition) Compare(o Partition) int {
	if a, b := p.SmallestPartSize(), o.SmallestPartSize(); a != b {
		if a < b {
			return -1
		}
		return 1
	}
	if len(p.Parts) != len(o.Parts) {
		if len(p.Parts) < len(o.Parts) {
			return -1
		}
		return 1
	}
	for i := range p.Parts {
		if c := comparePart(p.Parts[i], o.Parts[i]); c != 0 {
			return c
		}
	}
	return 0
}

func (p Partition) String() string {
	parts := make([]string, len(p.Parts))
	for i, part := range p.Parts {
		parts[i] = part.String()
	}
	return strings.Join(parts, " x ")
}

// Cut is a system-level unidirectional partition: every edge from a node
// in From to a node in To is severed.
type Cut struct {
	From NodeSet
	To   NodeSet
}

// CompleteCut severs every connection among the given nodes. Used as the
// degenerate winning cut for trivially reducible systems.
func CompleteCut(nodes NodeSet) Cut {
	return Cut{From: nodes.Clone(), To: nodes.Clone()}
}

// Severs reports whether the cut destroys the edge i -> j
func (c Cut) Severs(i, j int) bool {
	return c.From.Contains(i) && c.To.Contains(j)
}

// IsComplete reports whether the cut severs all connections
func (c Cut) IsComplete() bool {
	return c.From.Equal(c.To) && !c.From.IsEmpty()
}

// SmallerSideSize returns the node count of the smaller group
func (c Cut) SmallerSideSize() int {
	if c.From.Len() < c.To.Len() {
		return c.From.Len()
	}
	return c.To.Len()
}

// Compare imposes the canonical cut ordering: increasing size of the
// smaller group, then lexicographic by the severed side.
func (c Cut) Compare(o Cut) int {
	if a, b := c.SmallerSideSize(), o.SmallerSideSize(); a != b {
		if a < b {
			return -1
		}
		return 1
	}
	if cmp := c.From.Compare(o.From); cmp != 0 {
		return cmp
	}
	return c.To.Compare(o.To)
}

func (c Cut) String() string {
	return fmt.Sprintf("%s -/-> %s", c.From, c.To)
}
