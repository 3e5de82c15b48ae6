package phi

import (
	"math"
)

// Repertoire is a probability distribution over the joint states of a
// purview. Data is indexed little-endian over the sorted purview nodes.
// A repertoire with an empty purview is the scalar distribution [1].
//
// Invariant: entries are non-negative and sum to 1 within floating-point
// tolerance, except for the all-zero repertoire produced when a
// mechanism state has zero likelihood.
type Repertoire struct {
	Purview NodeSet
	Data    []float64
}

// NewRepertoire allocates a zero repertoire over the purview
func NewRepertoire(purview NodeSet) Repertoire {
	return Repertoire{
		Purview: purview.Clone(),
		Data:    make([]float64, StateCount(purview.Len())),
	}
}

// ScalarRepertoire is the empty-purview unit distribution
func ScalarRepertoire() Repertoire {
	return Repertoire{Purview: NodeSet{}, Data: []float64{1}}
}

// UniformRepertoire is the maximum-entropy distribution over the purview
func UniformRepertoire(purview NodeSet) Repertoire {
	r := NewRepertoire(purview)
	p := 1.0 / float64(len(r.Data))
	for i := range r.Data {
		r.Data[i] = p
	}
	return r
}

// Clone returns an independent copy
func (r Repertoire) Clone() Repertoire {
	out := Repertoire{Purview: r.Purview.Clone(), Data: make([]float64, len(r.Data))}
	copy(out.Data, r.Data)
	return out
}

// Sum returns the total mass
func (r Repertoire) Sum() float64 {
	s := 0.0
	for _, v := range r.Data {
		s += v
	}
	return s
}

// IsZero reports whether the repertoire carries no mass
func (r Repertoire) IsZero(tol float64) bool {
	return r.Sum() <= tol
}

// Normalize returns a normalized copy. The zero repertoire is returned
// unchanged; there is no state to renormalize onto.
func (r Repertoire) Normalize() Repertoire {
	sum := r.Sum()
	out := r.Clone()
	if sum == 0 {
		return out
	}
	for i := range out.Data {
		out.Data[i] /= sum
	}
	return out
}

// Product combines two repertoires over disjoint purviews into the joint
// product distribution over the union.
func (r Repertoire) Product(o Repertoire) Repertoire {
	if r.Purview.IsEmpty() {
		return o.Clone().scale(r.Data[0])
	}
	if o.Purview.IsEmpty() {
		return r.Clone().scale(o.Data[0])
	}
	union := r.Purview.Union(o.Purview)
	out := NewRepertoire(union)
	for idx := range out.Data {
		ia := SubIndex(idx, union, r.Purview)
		ib := SubIndex(idx, union, o.Purview)
		out.Data[idx] = r.Data[ia] * o.Data[ib]
	}
	return out
}

func (r Repertoire) scale(f float64) Repertoire {
	for i := range r.Data {
		r.Data[i] *= f
	}
	return r
}

// ExpandOver lifts the repertoire onto a superset purview, filling the
// added dimensions with the maximum-entropy (uniform) distribution.
func (r Repertoire) ExpandOver(super NodeSet) Repertoire {
	if r.Purview.Equal(super) {
		return r.Clone()
	}
	extra := super.Len() - r.Purview.Len()
	fill := 1.0 / float64(StateCount(extra))
	out := NewRepertoire(super)
	for idx := range out.Data {
		sub := SubIndex(idx, super, r.Purview)
		out.Data[idx] = r.Data[sub] * fill
	}
	return out
}

// Marginalize sums the repertoire down onto a subset of its purview
func (r Repertoire) Marginalize(onto NodeSet) Repertoire {
	out := NewRepertoire(onto)
	for idx, v := range r.Data {
		out.Data[SubIndex(idx, r.Purview, onto)] += v
	}
	return out
}

// MarginalOn returns P(node = 1) under the repertoire
func (r Repertoire) MarginalOn(node int) float64 {
	k := r.Purview.IndexOf(node)
	p := 0.0
	for idx, v := range r.Data {
		if BitAt(idx, k) == 1 {
			p += v
		}
	}
	return p
}

// AlmostEqual compares two repertoires over the same purview entrywise
func (r Repertoire) AlmostEqual(o Repertoire, tol float64) bool {
	if !r.Purview.Equal(o.Purview) || len(r.Data) != len(o.Data) {
		return false
	}
	for i := range r.Data {
		if math.Abs(r.Data[i]-o.Data[i]) > tol {
			return false
		}
	}
	return true
}

// IsValidDistribution checks non-negativity and unit mass within tolerance
func (r Repertoire) IsValidDistribution(tol float64) bool {
	for _, v := range r.Data {
		if v < -tol {
			return false
		}
	}
	return math.Abs(r.Sum()-1) <= tol
}
