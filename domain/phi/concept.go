package phi

import (
	"time"

	"gophi/domain/core"
)

// Mice is a maximally irreducible cause or effect: the purview that
// maximizes a mechanism's integrated information in one direction,
// together with the repertoires and minimum-information partition that
// witness it.
type Mice struct {
	Direction   Direction
	Mechanism   NodeSet
	Purview     NodeSet
	Phi         float64
	Repertoire  Repertoire
	Partitioned Repertoire
	Partition   Partition
}

// Concept is a mechanism together with its maximally irreducible cause
// and effect. Its phi is the minimum of the two directional phi values:
// a concept is only as irreducible as its weaker direction.
type Concept struct {
	Mechanism NodeSet
	Phi       float64
	Cause     *Mice
	Effect    *Mice
}

// Irreducible reports whether the concept carries nonzero phi
func (c Concept) Irreducible(tol float64) bool {
	return c.Phi > tol
}

// CauseEffectStructure is the set of all irreducible concepts of a
// subsystem at a fixed state, in canonical mechanism order.
type CauseEffectStructure struct {
	Subsystem core.SubsystemHash
	Concepts  []Concept
}

// Len returns the number of concepts
func (ces *CauseEffectStructure) Len() int {
	if ces == nil {
		return 0
	}
	return len(ces.Concepts)
}

// SumPhi returns the total small phi across all concepts
func (ces *CauseEffectStructure) SumPhi() float64 {
	if ces == nil {
		return 0
	}
	sum := 0.0
	for _, c := range ces.Concepts {
		sum += c.Phi
	}
	return sum
}

// Find returns the concept with the given mechanism, or nil
func (ces *CauseEffectStructure) Find(mechanism NodeSet) *Concept {
	if ces == nil {
		return nil
	}
	for i := range ces.Concepts {
		if ces.Concepts[i].Mechanism.Equal(mechanism) {
			return &ces.Concepts[i]
		}
	}
	return nil
}

// Phis returns the small-phi values in concept order
func (ces *CauseEffectStructure) Phis() []float64 {
	out := make([]float64, ces.Len())
	if ces != nil {
		for i, c := range ces.Concepts {
			out[i] = c.Phi
		}
	}
	return out
}

// BigPhiResult is the outcome of a system-level irreducibility analysis:
// the minimum-information partition value for the whole subsystem, the
// winning cut, and the cause-effect structures on either side of it.
type BigPhiResult struct {
	ID                   core.ResultID
	Phi                  float64
	Cut                  Cut
	Structure            *CauseEffectStructure
	PartitionedStructure *CauseEffectStructure
	Nodes                NodeSet
	State                State
	Subsystem            core.SubsystemHash
	Elapsed              time.Duration
}

// Irreducible reports whether the system carries nonzero big phi
func (r *BigPhiResult) Irreducible(tol float64) bool {
	return r != nil && r.Phi > tol
}
