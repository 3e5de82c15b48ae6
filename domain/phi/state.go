package phi

import "fmt"

// State is the joint state of all network nodes, one 0/1 entry per node.
type State []int

// Validate checks that the state matches the network size and is binary
func (st State) Validate(size int) error {
	if len(st) != size {
		return fmt.Errorf("state has %d entries, network has %d nodes", len(st), size)
	}
	for i, v := range st {
		if v != 0 && v != 1 {
			return fmt.Errorf("state entry %d is %d, want 0 or 1", i, v)
		}
	}
	return nil
}

// Clone returns an independent copy of the state
func (st State) Clone() State {
	out := make(State, len(st))
	copy(out, st)
	return out
}

// Restrict returns the sub-state over the given nodes, in set order
func (st State) Restrict(nodes NodeSet) []int {
	out := make([]int, len(nodes))
	for k, n := range nodes {
		out[k] = st[n]
	}
	return out
}

// StateIndex encodes the state of the given nodes as a little-endian
// joint-state index: the node with the lowest index is the least
// significant bit.
func StateIndex(nodes NodeSet, st State) int {
	idx := 0
	for k, n := range nodes {
		if st[n] != 0 {
			idx |= 1 << uint(k)
		}
	}
	return idx
}

// BitAt extracts bit k of a joint-state index
func BitAt(index, k int) int {
	return (index >> uint(k)) & 1
}

// SubIndex projects a joint-state index over `nodes` down to the
// joint-state index over `sub`, which must be a subset of `nodes`.
func SubIndex(index int, nodes, sub NodeSet) int {
	out := 0
	for k, n := range sub {
		pos := nodes.IndexOf(n)
		if BitAt(index, pos) == 1 {
			out |= 1 << uint(k)
		}
	}
	return out
}

// StateCount returns the number of joint states of k binary nodes
func StateCount(k int) int {
	return 1 << uint(k)
}
