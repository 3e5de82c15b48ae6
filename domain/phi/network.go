package phi

import (
	"math"

	"gophi/domain/core"
)

// MaxNetworkSize bounds the number of nodes so state spaces stay addressable.
const MaxNetworkSize = 20

// Network is an immutable transition probability model over binary nodes
// plus a connectivity matrix. Created once from validated input and
// read-only thereafter.
//
// The TPM is held in state-by-node form: tpm[s][j] is the probability
// that node j is ON at t+1 given that the network is in joint state s at
// time t. Joint states are indexed little-endian (node 0 is the least
// significant bit).
type Network struct {
	size int
	tpm  [][]float64
	cm   [][]int
	hash core.NetworkHash
}

// NewNetwork builds a network from a state-by-node TPM. cm may be nil,
// in which case full connectivity (including self-loops) is assumed.
func NewNetwork(tpm [][]float64, cm [][]int) (*Network, error) {
	if len(tpm) == 0 || len(tpm[0]) == 0 {
		return nil, core.NewInvalidSubsystemError("empty TPM")
	}
	size := len(tpm[0])
	if size > MaxNetworkSize {
		return nil, core.NewInvalidSubsystemError("network too large")
	}
	if len(tpm) != StateCount(size) {
		return nil, core.NewInvalidTPMError(len(tpm), 0)
	}
	for s, row := range tpm {
		if len(row) != size {
			return nil, core.NewInvalidTPMError(s, 0)
		}
		for _, p := range row {
			if p < -probTolerance || p > 1+probTolerance || math.IsNaN(p) {
				return nil, core.NewInvalidTPMError(s, p)
			}
		}
	}
	cm, err := normalizeCM(cm, size)
	if err != nil {
		return nil, err
	}
	n := &Network{size: size, tpm: copyMatrix(tpm), cm: cm}
	n.hash = n.computeHash()
	return n, nil
}

// NewNetworkFromStateByState builds a network from a full 2^N x 2^N
// state-by-state TPM. Every row must sum to 1 within tolerance or the
// model is rejected as non-stochastic.
func NewNetworkFromStateByState(tpm [][]float64, cm [][]int) (*Network, error) {
	states := len(tpm)
	if states == 0 {
		return nil, core.NewInvalidSubsystemError("empty TPM")
	}
	size := intLog2(states)
	if size == 0 || StateCount(size) != states || size > MaxNetworkSize {
		return nil, core.NewInvalidTPMError(0, float64(states))
	}
	sbn := make([][]float64, states)
	for s, row := range tpm {
		if len(row) != states {
			return nil, core.NewInvalidTPMError(s, 0)
		}
		sum := 0.0
		sbn[s] = make([]float64, size)
		for t, p := range row {
			if p < -probTolerance || math.IsNaN(p) {
				return nil, core.NewInvalidTPMError(s, p)
			}
			sum += p
			for j := 0; j < size; j++ {
				if BitAt(t, j) == 1 {
					sbn[s][j] += p
				}
			}
		}
		if math.Abs(sum-1) > rowTolerance {
			return nil, core.NewInvalidTPMError(s, sum)
		}
	}
	return NewNetwork(sbn, cm)
}

// Size returns the number of nodes
func (n *Network) Size() int { return n.size }

// Nodes returns the full node set 0..N-1
func (n *Network) Nodes() NodeSet {
	out := make(NodeSet, n.size)
	for i := range out {
		out[i] = i
	}
	return out
}

// ProbOn returns P(node ON at t+1 | joint state `row` at t)
func (n *Network) ProbOn(row, node int) float64 {
	return n.tpm[row][node]
}

// HasEdge reports whether node i inputs to node j
func (n *Network) HasEdge(i, j int) bool {
	return n.cm[i][j] != 0
}

// Hash returns the network's stable identity for cache keys
func (n *Network) Hash() core.NetworkHash {
	return n.hash
}

func (n *Network) computeHash() core.NetworkHash {
	h := core.NewHasher()
	h.WriteInt(n.size)
	for _, row := range n.tpm {
		h.WriteFloats(row)
	}
	for _, row := range n.cm {
		h.WriteInts(row)
	}
	return core.NetworkHash(h.Sum())
}

const (
	probTolerance = 1e-10
	rowTolerance  = 1e-10
)

func normalizeCM(cm [][]int, size int) ([][]int, error) {
	if cm == nil {
		cm = make([][]int, size)
		for i := range cm {
			cm[i] = make([]int, size)
			for j := range cm[i] {
				cm[i][j] = 1
			}
		}
		return cm, nil
	}
	if len(cm) != size {
		return nil, core.NewInvalidSubsystemError("connectivity matrix size mismatch")
	}
	out := make([][]int, size)
	for i, row := range cm {
		if len(row) != size {
			return nil, core.NewInvalidSubsystemError("connectivity matrix size mismatch")
		}
		out[i] = make([]int, size)
		for j, v := range row {
			if v != 0 {
				out[i][j] = 1
			}
		}
	}
	return out, nil
}

func copyMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}
	return out
}

func intLog2(v int) int {
	k := 0
	for 1<<uint(k) < v {
		k++
	}
	if 1<<uint(k) != v {
		return 0
	}
	return k
}
