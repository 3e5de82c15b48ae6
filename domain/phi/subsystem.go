package phi

import (
	"gophi/domain/core"
)

// Subsystem is a network restricted to a subset of nodes, at a fixed
// global state. Nodes outside the subset are background conditions:
// their state is frozen and conditioned on, never marginalized. A
// Subsystem owns no mutable state; it is a derived view over a Network.
type Subsystem struct {
	network *Network
	nodes   NodeSet
	state   State
	cut     *Cut
	hash    core.SubsystemHash
}

// NewSubsystem validates the node subset and state and builds the view.
// The state must be reachable under the TPM; phi is undefined for
// impossible states.
func NewSubsystem(network *Network, nodes NodeSet, state State) (*Subsystem, error) {
	if network == nil {
		return nil, core.NewInvalidSubsystemError("nil network")
	}
	if nodes.IsEmpty() {
		return nil, core.NewInvalidSubsystemError("empty node subset")
	}
	for _, n := range nodes {
		if n < 0 || n >= network.Size() {
			return nil, core.NewNodeOutOfRangeError(n, network.Size())
		}
	}
	if err := state.Validate(network.Size()); err != nil {
		return nil, core.NewInvalidSubsystemError(err.Error())
	}
	if !stateReachable(network, state) {
		return nil, core.ErrStateUnreachable
	}
	s := &Subsystem{
		network: network,
		nodes:   nodes.Clone(),
		state:   state.Clone(),
	}
	s.hash = s.computeHash()
	return s, nil
}

// stateReachable checks that some prior joint state produces the given
// state with nonzero probability.
func stateReachable(network *Network, state State) bool {
	for row := 0; row < StateCount(network.Size()); row++ {
		p := 1.0
		for j := 0; j < network.Size(); j++ {
			on := network.ProbOn(row, j)
			if state[j] == 1 {
				p *= on
			} else {
				p *= 1 - on
			}
			if p == 0 {
				break
			}
		}
		if p > 0 {
			return true
		}
	}
	return false
}

// WithCut returns a derived view with the given system cut applied.
// The receiver is unchanged.
func (s *Subsystem) WithCut(cut Cut) *Subsystem {
	out := &Subsystem{
		network: s.network,
		nodes:   s.nodes,
		state:   s.state,
		cut:     &cut,
	}
	out.hash = out.computeHash()
	return out
}

// Network returns the underlying network
func (s *Subsystem) Network() *Network { return s.network }

// Nodes returns the subsystem's node set
func (s *Subsystem) Nodes() NodeSet { return s.nodes }

// Size returns the number of subsystem nodes
func (s *Subsystem) Size() int { return len(s.nodes) }

// State returns the full network state
func (s *Subsystem) State() State { return s.state }

// NodeState returns the current state of a single node
func (s *Subsystem) NodeState(n int) int { return s.state[n] }

// Cut returns the applied system cut, or nil for the intact subsystem
func (s *Subsystem) Cut() *Cut { return s.cut }

// HasEdge reports whether the edge i -> j survives the connectivity
// matrix and any applied cut.
func (s *Subsystem) HasEdge(i, j int) bool {
	if !s.network.HasEdge(i, j) {
		return false
	}
	if s.cut != nil && s.cut.Severs(i, j) {
		return false
	}
	return true
}

// Inputs returns the in-subsystem inputs of node j, after the cut
func (s *Subsystem) Inputs(j int) NodeSet {
	out := NodeSet{}
	for _, i := range s.nodes {
		if s.HasEdge(i, j) {
			out = append(out, i)
		}
	}
	return out
}

// Outputs returns the in-subsystem outputs of node i, after the cut
func (s *Subsystem) Outputs(i int) NodeSet {
	out := NodeSet{}
	for _, j := range s.nodes {
		if s.HasEdge(i, j) {
			out = append(out, j)
		}
	}
	return out
}

// HasAnyEdge reports whether any causal edge connects two distinct
// subsystem nodes after the cut. A subsystem without such an edge is
// fully reducible and has zero phi.
func (s *Subsystem) HasAnyEdge() bool {
	for _, i := range s.nodes {
		for _, j := range s.nodes {
			if i != j && s.HasEdge(i, j) {
				return true
			}
		}
	}
	return false
}

// External returns the background nodes outside the subsystem
func (s *Subsystem) External() NodeSet {
	return s.network.Nodes().Minus(s.nodes)
}

// Hash returns the subsystem's stable identity, covering network, node
// subset, state and cut. Used as the cache key scope.
func (s *Subsystem) Hash() core.SubsystemHash { return s.hash }

func (s *Subsystem) computeHash() core.SubsystemHash {
	h := core.NewHasher()
	h.WriteString(s.network.Hash().String())
	h.WriteInts(s.nodes)
	h.WriteInts(s.state)
	if s.cut != nil {
		h.WriteInt(1)
		h.WriteInts(s.cut.From)
		h.WriteInts(s.cut.To)
	} else {
		h.WriteInt(0)
	}
	return core.SubsystemHash(h.Sum())
}
