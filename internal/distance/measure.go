// Package distance scores the divergence between an unpartitioned and a
// partitioned repertoire over the same purview. The measures form a
// closed set selected by configuration; there is no open plugin
// dispatch.
package distance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"gophi/domain/phi"
)

// Kind selects one of the fixed divergence measures
type Kind int

const (
	// EMD is the earth-mover distance over the purview's joint state
	// space with Hamming ground cost, solved exactly as a linear
	// program. The theory's reference measure.
	EMD Kind = iota
	// EMDApprox is the bitwise-marginal approximation of EMD. Exact on
	// product distributions; see emd.go for the error bound.
	EMDApprox
	// KLD is the Kullback-Leibler divergence in bits, with epsilon
	// smoothing of the partitioned side to keep it finite.
	KLD
	// L1 is the sum of absolute differences.
	L1
)

// String returns the measure name
func (k Kind) String() string {
	switch k {
	case EMD:
		return "EMD"
	case EMDApprox:
		return "EMD_APPROX"
	case KLD:
		return "KLD"
	case L1:
		return "L1"
	}
	return "UNKNOWN"
}

// Measure computes a scalar divergence between two repertoires over the
// same purview. Implementations must return exactly 0 for identical
// inputs and never a negative value.
type Measure interface {
	Name() string
	Distance(a, b phi.Repertoire) (float64, error)
}

// ForKind acts as the factory over the closed measure set
func ForKind(kind Kind, tolerance float64) (Measure, error) {
	switch kind {
	case EMD:
		return &exactEMD{tolerance: tolerance}, nil
	case EMDApprox:
		return &approxEMD{tolerance: tolerance}, nil
	case KLD:
		return &kld{tolerance: tolerance}, nil
	case L1:
		return &l1{}, nil
	default:
		return nil, fmt.Errorf("unknown distance measure %d", kind)
	}
}

type l1 struct{}

func (l *l1) Name() string { return "L1" }

func (l *l1) Distance(a, b phi.Repertoire) (float64, error) {
	if err := checkAligned(a, b); err != nil {
		return 0, err
	}
	return floats.Distance(a.Data, b.Data, 1), nil
}

type kld struct {
	tolerance float64
}

func (k *kld) Name() string { return "KLD" }

// Distance returns D_KL(a || b) in bits. The partitioned side is
// smoothed by a vanishing epsilon so states that the partition assigns
// zero probability do not blow up to infinity.
func (k *kld) Distance(a, b phi.Repertoire) (float64, error) {
	if err := checkAligned(a, b); err != nil {
		return 0, err
	}
	if a.AlmostEqual(b, 0) {
		return 0, nil
	}
	const eps = 1e-12
	smoothed := make([]float64, len(b.Data))
	total := b.Sum() + eps*float64(len(b.Data))
	for i, v := range b.Data {
		smoothed[i] = (v + eps) / total
	}
	d := stat.KullbackLeibler(a.Data, smoothed) / math.Ln2
	if math.IsNaN(d) || d < 0 {
		return 0, nil
	}
	return d, nil
}

func checkAligned(a, b phi.Repertoire) error {
	if !a.Purview.Equal(b.Purview) || len(a.Data) != len(b.Data) {
		return fmt.Errorf("repertoires are over different purviews: %s vs %s", a.Purview, b.Purview)
	}
	return nil
}
