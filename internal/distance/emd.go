package distance

import (
	"fmt"
	"math"
	"math/bits"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"gophi/domain/core"
	"gophi/domain/phi"
)

// exactEMDMaxBits bounds the purview size the exact solver accepts. The
// transportation LP has 4^bits flow variables; beyond this the tableau
// no longer fits in memory and the approximate measure must be selected
// explicitly instead.
const exactEMDMaxBits = 7

// hamming returns the ground cost between two joint states
func hamming(i, j int) float64 {
	return float64(bits.OnesCount(uint(i ^ j)))
}

type exactEMD struct {
	tolerance float64
}

func (e *exactEMD) Name() string { return "EMD" }

// Distance solves the transportation problem between the two repertoires
// with Hamming ground cost, as a linear program in standard form.
func (e *exactEMD) Distance(a, b phi.Repertoire) (float64, error) {
	if err := checkAligned(a, b); err != nil {
		return 0, err
	}
	if a.AlmostEqual(b, 0) {
		return 0, nil
	}
	nbits := a.Purview.Len()
	if nbits > exactEMDMaxBits {
		return 0, fmt.Errorf("%w: purview of %d nodes exceeds exact EMD solver limit of %d",
			core.ErrNumericalInstability, nbits, exactEMDMaxBits)
	}
	p, q, special := normalizePair(a, b, e.tolerance, nbits)
	if special >= 0 {
		return special, nil
	}
	return Transport(p, q, hamming)
}

// Transport solves the balanced transportation problem: the minimum
// total cost of moving the supply masses onto the demand masses, with
// cost(i, j) the price per unit from supply i to demand j. Both sides
// must carry equal total mass. This is the general earth-mover distance
// used both at the repertoire level (Hamming ground cost) and at the
// structure level (repertoire-EMD ground cost).
func Transport(supply, demand []float64, cost func(i, j int) float64) (float64, error) {
	n, m := len(supply), len(demand)
	if n == 0 || m == 0 {
		return 0, nil
	}
	// Variables x_ij: mass moved from supply i to demand j.
	// Constraints: row sums equal supply, column sums equal demand. The
	// final column constraint is implied by the others and dropped to
	// keep the system full rank.
	nvars := n * m
	nrows := n + m - 1
	c := make([]float64, nvars)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			c[i*m+j] = cost(i, j)
		}
	}
	A := mat.NewDense(nrows, nvars, nil)
	rhs := make([]float64, nrows)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			A.Set(i, i*m+j, 1)
		}
		rhs[i] = supply[i]
	}
	for j := 0; j < m-1; j++ {
		for i := 0; i < n; i++ {
			A.Set(n+j, i*m+j, 1)
		}
		rhs[n+j] = demand[j]
	}

	opt, _, err := lp.Simplex(c, A, rhs, 1e-10, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: transportation simplex: %v", core.ErrNumericalInstability, err)
	}
	if opt < 0 {
		if opt < -1e-9 {
			return 0, fmt.Errorf("%w: negative transport cost %g", core.ErrNumericalInstability, opt)
		}
		opt = 0
	}
	return opt, nil
}

// approxEMD moves mass along one bit at a time: the distance is the sum
// over purview nodes of the absolute difference between the two
// repertoires' marginal ON-probabilities.
//
// Error bound: the result never exceeds the true EMD and is exact
// whenever both repertoires are product distributions over their
// purview nodes (which holds for every effect repertoire and for cause
// repertoires of single-node mechanisms). In general the
// underestimation is at most (|purview|-1) times the total variation
// distance between the inputs.
type approxEMD struct {
	tolerance float64
}

func (e *approxEMD) Name() string { return "EMD_APPROX" }

func (e *approxEMD) Distance(a, b phi.Repertoire) (float64, error) {
	if err := checkAligned(a, b); err != nil {
		return 0, err
	}
	if a.AlmostEqual(b, 0) {
		return 0, nil
	}
	nbits := a.Purview.Len()
	p, q, special := normalizePair(a, b, e.tolerance, nbits)
	if special >= 0 {
		return special, nil
	}
	total := 0.0
	for k := 0; k < nbits; k++ {
		pa, pb := 0.0, 0.0
		for idx := range p {
			if phi.BitAt(idx, k) == 1 {
				pa += p[idx]
				pb += q[idx]
			}
		}
		total += math.Abs(pa - pb)
	}
	return total, nil
}

// normalizePair scales both repertoires to unit mass. The zero
// repertoire marks an impossible mechanism state; its distance to any
// proper distribution is the diameter of the state space (every unit of
// mass must cross every bit), and to another zero repertoire, 0. A
// non-negative second return short-circuits the caller.
func normalizePair(a, b phi.Repertoire, tol float64, nbits int) (p, q []float64, special float64) {
	sa, sb := a.Sum(), b.Sum()
	zeroA, zeroB := sa <= tol, sb <= tol
	switch {
	case zeroA && zeroB:
		return nil, nil, 0
	case zeroA || zeroB:
		return nil, nil, float64(nbits)
	}
	p = make([]float64, len(a.Data))
	q = make([]float64, len(b.Data))
	for i := range a.Data {
		p[i] = a.Data[i] / sa
		q[i] = b.Data[i] / sb
	}
	return p, q, -1
}
