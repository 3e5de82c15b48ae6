// Package repertoire computes cause and effect repertoires: probability
// distributions over a purview's joint states conditioned on a
// mechanism's current state.
package repertoire

import (
	"gophi/domain/phi"
	"gophi/internal/tpm"
)

// Engine computes repertoires for one subsystem view. It is a pure
// function of (subsystem, direction, mechanism, purview) and safe for
// concurrent use.
type Engine struct {
	sub   *phi.Subsystem
	model *tpm.Model
}

// NewEngine builds the per-node transition model for the subsystem view
func NewEngine(sub *phi.Subsystem) *Engine {
	return &Engine{sub: sub, model: tpm.Build(sub)}
}

// Subsystem returns the view this engine computes over
func (e *Engine) Subsystem() *phi.Subsystem { return e.sub }

// Model exposes the underlying transition model
func (e *Engine) Model() *tpm.Model { return e.model }

// Repertoire dispatches on direction
func (e *Engine) Repertoire(dir phi.Direction, mechanism, purview phi.NodeSet) phi.Repertoire {
	if dir == phi.Cause {
		return e.CauseRepertoire(mechanism, purview)
	}
	return e.EffectRepertoire(mechanism, purview)
}

// CauseRepertoire returns the distribution over the purview's states at
// t-1 consistent with the mechanism's current state. Mechanism inputs
// outside the purview carry the uniform maximum-entropy prior. An empty
// mechanism constrains nothing: the repertoire is uniform.
func (e *Engine) CauseRepertoire(mechanism, purview phi.NodeSet) phi.Repertoire {
	if purview.IsEmpty() {
		return phi.ScalarRepertoire()
	}
	if mechanism.IsEmpty() {
		return phi.UniformRepertoire(purview)
	}
	state := e.sub.State()
	out := phi.NewRepertoire(purview)
	for idx := range out.Data {
		lik := 1.0
		for _, m := range mechanism {
			lik *= e.model.StateLikelihood(m, state[m], purview, idx)
			if lik == 0 {
				break
			}
		}
		out.Data[idx] = lik
	}
	// Bayes with a uniform prior over purview states: normalizing the
	// joint likelihood is all that is left. A zero sum means the
	// mechanism state is impossible given this purview; the zero
	// repertoire is passed through for the distance layer to score.
	return out.Normalize()
}

// EffectRepertoire returns the distribution over the purview's states at
// t+1 given the mechanism's current state. Purview-node inputs outside
// the mechanism are marginalized uniformly. An empty mechanism yields
// the fully unconstrained repertoire.
func (e *Engine) EffectRepertoire(mechanism, purview phi.NodeSet) phi.Repertoire {
	if purview.IsEmpty() {
		return phi.ScalarRepertoire()
	}
	condState := phi.StateIndex(mechanism, e.sub.State())
	return e.model.MarginalConditional(purview, mechanism, condState)
}

// Unconstrained returns the repertoire with an empty mechanism: the
// uniform prior on the cause side, the fully marginalized transition
// distribution on the effect side. This is the null-concept repertoire.
func (e *Engine) Unconstrained(dir phi.Direction, purview phi.NodeSet) phi.Repertoire {
	return e.Repertoire(dir, phi.NodeSet{}, purview)
}

// PartitionedRepertoire composes the repertoire under a partition: the
// product of each part's repertoire, computed independently. Parts with
// an empty purview contribute nothing; their mechanism constraint is
// what the partition destroys.
func (e *Engine) PartitionedRepertoire(dir phi.Direction, partition phi.Partition) phi.Repertoire {
	out := phi.ScalarRepertoire()
	for _, part := range partition.Parts {
		out = out.Product(e.Repertoire(dir, part.Mechanism, part.Purview))
	}
	return out
}
