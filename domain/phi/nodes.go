package phi

import (
	"fmt"
	"sort"
	"strings"
)

// NodeSet is an ordered, deduplicated set of node indices. The zero value
// is the empty set. All operations are value-semantic and never mutate
// the receiver.
type NodeSet []int

// NewNodeSet creates a NodeSet from the given indices, sorting and
// deduplicating them.
func NewNodeSet(nodes ...int) NodeSet {
	if len(nodes) == 0 {
		return NodeSet{}
	}
	sorted := make([]int, len(nodes))
	copy(sorted, nodes)
	sort.Ints(sorted)
	out := sorted[:1]
	for _, n := range sorted[1:] {
		if n != out[len(out)-1] {
			out = append(out, n)
		}
	}
	return NodeSet(out)
}

// Len returns the number of nodes in the set
func (s NodeSet) Len() int { return len(s) }

// IsEmpty checks whether the set has no nodes
func (s NodeSet) IsEmpty() bool { return len(s) == 0 }

// Contains reports whether n is a member of the set
func (s NodeSet) Contains(n int) bool {
	i := sort.SearchInts(s, n)
	return i < len(s) && s[i] == n
}

// IndexOf returns the position of n within the set, or -1
func (s NodeSet) IndexOf(n int) int {
	i := sort.SearchInts(s, n)
	if i < len(s) && s[i] == n {
		return i
	}
	return -1
}

// Union returns the set union
func (s NodeSet) Union(o NodeSet) NodeSet {
	merged := make([]int, 0, len(s)+len(o))
	merged = append(merged, s...)
	merged = append(merged, o...)
	return NewNodeSet(merged...)
}

// Intersect returns the set intersection
func (s NodeSet) Intersect(o NodeSet) NodeSet {
	out := NodeSet{}
	for _, n := range s {
		if o.Contains(n) {
			out = append(out, n)
		}
	}
	return out
}

// Minus returns the set difference s \ o
func (s NodeSet) Minus(o NodeSet) NodeSet {
	out := NodeSet{}
	for _, n := range s {
		if !o.Contains(n) {
			out = append(out, n)
		}
	}
	return out
}

// Equal reports whether two sets contain the same nodes
func (s NodeSet) Equal(o NodeSet) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Compare imposes the canonical node-set ordering: shorter sets first,
// then lexicographic by node index. Returns -1, 0 or 1.
func (s NodeSet) Compare(o NodeSet) int {
	if len(s) != len(o) {
		if len(s) < len(o) {
			return -1
		}
		return 1
	}
	for i := range s {
		if s[i] != o[i] {
			if s[i] < o[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Clone returns an independent copy of the set
func (s NodeSet) Clone() NodeSet {
	out := make(NodeSet, len(s))
	copy(out, s)
	return out
}

// Mask encodes the set as a bitmask relative to the given universe:
// bit k is set iff universe[k] is a member. Panics are avoided; nodes
// outside the universe are ignored.
func (s NodeSet) Mask(universe NodeSet) uint64 {
	var mask uint64
	for _, n := range s {
		if k := universe.IndexOf(n); k >= 0 {
			mask |= 1 << uint(k)
		}
	}
	return mask
}

// FromMask decodes a bitmask relative to the given universe.
func FromMask(mask uint64, universe NodeSet) NodeSet {
	out := NodeSet{}
	for k, n := range universe {
		if mask&(1<<uint(k)) != 0 {
			out = append(out, n)
		}
	}
	return out
}

// String renders the set as "{1,2,5}"
func (s NodeSet) String() string {
	if s.IsEmpty() {
		return "{}"
	}
	parts := make([]string, len(s))
	for i, n := range s {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return "{" + strings.Join(parts, ",") + "}"
}
