// Package tpm derives per-node conditional probability tables from a
// subsystem's transition probability model and answers marginal
// conditional queries over them.
//
// Background nodes outside the subsystem are frozen boundary conditions:
// their state is fixed before any marginalization. Subsystem nodes that
// do not input a queried node - including inputs severed by a system
// cut - are marginalized with the uniform (maximum entropy) distribution.
package tpm

import (
	"gophi/domain/phi"
)

// nodeCPT is the conditional probability table of a single node:
// P(node ON at t+1) for every joint state of its surviving inputs.
type nodeCPT struct {
	node   int
	inputs phi.NodeSet
	probOn []float64
}

// Model holds the per-node CPTs of one subsystem view. Building a model
// is the only expensive step; queries are pure lookups plus averaging.
type Model struct {
	sub  *phi.Subsystem
	cpts map[int]*nodeCPT
}

// Build conditions the network TPM on the subsystem's background state
// and collapses it into per-node tables over each node's inputs.
func Build(sub *phi.Subsystem) *Model {
	m := &Model{sub: sub, cpts: make(map[int]*nodeCPT, sub.Size())}
	for _, j := range sub.Nodes() {
		m.cpts[j] = buildCPT(sub, j)
	}
	return m
}

func buildCPT(sub *phi.Subsystem, j int) *nodeCPT {
	network := sub.Network()
	state := sub.State()
	inputs := sub.Inputs(j)
	free := sub.Nodes().Minus(inputs)

	// Frozen background contribution to the network row index.
	baseRow := 0
	for _, n := range sub.External() {
		if state[n] == 1 {
			baseRow |= 1 << uint(n)
		}
	}

	cpt := &nodeCPT{
		node:   j,
		inputs: inputs,
		probOn: make([]float64, phi.StateCount(inputs.Len())),
	}
	freeStates := phi.StateCount(free.Len())
	for u := range cpt.probOn {
		total := 0.0
		for v := 0; v < freeStates; v++ {
			row := baseRow
			for k, in := range inputs {
				if phi.BitAt(u, k) == 1 {
					row |= 1 << uint(in)
				}
			}
			for k, fn := range free {
				if phi.BitAt(v, k) == 1 {
					row |= 1 << uint(fn)
				}
			}
			total += network.ProbOn(row, j)
		}
		cpt.probOn[u] = total / float64(freeStates)
	}
	return cpt
}

// Subsystem returns the view this model was built from
func (m *Model) Subsystem() *phi.Subsystem { return m.sub }

// Inputs returns the surviving inputs of the given node
func (m *Model) Inputs(node int) phi.NodeSet {
	return m.cpts[node].inputs
}

// CondProbOn returns P(node ON at t+1 | cond nodes in the joint state
// condState), marginalizing the node's remaining inputs uniformly.
// condState is a little-endian joint index over the sorted cond set.
func (m *Model) CondProbOn(node int, cond phi.NodeSet, condState int) float64 {
	cpt := m.cpts[node]
	freeIn := cpt.inputs.Minus(cond)
	freeStates := phi.StateCount(freeIn.Len())
	total := 0.0
	for w := 0; w < freeStates; w++ {
		idx := 0
		for k, in := range cpt.inputs {
			var bit int
			if pos := cond.IndexOf(in); pos >= 0 {
				bit = phi.BitAt(condState, pos)
			} else {
				bit = phi.BitAt(w, freeIn.IndexOf(in))
			}
			idx |= bit << uint(k)
		}
		total += cpt.probOn[idx]
	}
	return total / float64(freeStates)
}

// StateLikelihood returns P(node at t+1 equals nodeState | cond in
// condState). Used on the cause side, where the conditioning nodes are
// the purview at t-1 and the queried node is a mechanism node at t.
func (m *Model) StateLikelihood(node, nodeState int, cond phi.NodeSet, condState int) float64 {
	p := m.CondProbOn(node, cond, condState)
	if nodeState == 1 {
		return p
	}
	return 1 - p
}

// MarginalConditional returns the joint conditional distribution over
// the target subset's next states given the conditioning subset fixed at
// condState. Nodes outside both subsets are marginalized uniformly;
// background nodes stay frozen. Target nodes are conditionally
// independent given a full current state, so the joint is the product of
// the per-node marginals.
func (m *Model) MarginalConditional(target, cond phi.NodeSet, condState int) phi.Repertoire {
	if target.IsEmpty() {
		return phi.ScalarRepertoire()
	}
	probs := make([]float64, target.Len())
	for k, j := range target {
		probs[k] = m.CondProbOn(j, cond, condState)
	}
	out := phi.NewRepertoire(target)
	for idx := range out.Data {
		p := 1.0
		for k := range target {
			if phi.BitAt(idx, k) == 1 {
				p *= probs[k]
			} else {
				p *= 1 - probs[k]
			}
		}
		out.Data[idx] = p
	}
	return out
}
