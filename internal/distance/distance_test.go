package distance

import (
	"errors"
	"math"
	"testing"

	"gophi/domain/core"
	"gophi/domain/phi"
)

func rep(purview phi.NodeSet, data ...float64) phi.Repertoire {
	return phi.Repertoire{Purview: purview, Data: data}
}

func mustMeasure(t *testing.T, kind Kind) Measure {
	t.Helper()
	m, err := ForKind(kind, 1e-10)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestAllMeasuresZeroOnIdenticalInputs(t *testing.T) {
	a := rep(phi.NewNodeSet(0, 1), 0.1, 0.2, 0.3, 0.4)
	for _, kind := range []Kind{EMD, EMDApprox, KLD, L1} {
		m := mustMeasure(t, kind)
		d, err := m.Distance(a, a.Clone())
		if err != nil {
			t.Errorf("%s: %v", m.Name(), err)
			continue
		}
		if d != 0 {
			t.Errorf("%s distance of identical inputs = %g", m.Name(), d)
		}
	}
}

func TestMeasuresRejectMisalignedPurviews(t *testing.T) {
	a := rep(phi.NewNodeSet(0), 0.5, 0.5)
	b := rep(phi.NewNodeSet(1), 0.5, 0.5)
	for _, kind := range []Kind{EMD, EMDApprox, KLD, L1} {
		if _, err := mustMeasure(t, kind).Distance(a, b); err == nil {
			t.Errorf("%s accepted misaligned purviews", kind)
		}
	}
}

func TestExactEMDBetweenDeltas(t *testing.T) {
	m := mustMeasure(t, EMD)
	purview := phi.NewNodeSet(0, 1)
	// Delta at state 0 vs delta at state 3: both bits flip.
	d, err := m.Distance(rep(purview, 1, 0, 0, 0), rep(purview, 0, 0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(d-2) > 1e-9 {
		t.Fatalf("EMD(delta0, delta3) = %g, want 2", d)
	}
}

func TestExactEMDDeltaVersusUniform(t *testing.T) {
	m := mustMeasure(t, EMD)
	purview := phi.NewNodeSet(1)
	d, err := m.Distance(rep(purview, 0, 1), rep(purview, 0.5, 0.5))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(d-0.5) > 1e-9 {
		t.Fatalf("EMD(delta, uniform) = %g, want 0.5", d)
	}
}

func TestApproxMatchesExactOnProductDistributions(t *testing.T) {
	exact := mustMeasure(t, EMD)
	approx := mustMeasure(t, EMDApprox)

	// Product distributions: p = Bern(0.9) x Bern(0.2), q = Bern(0.4) x Bern(0.7).
	p := rep(phi.NewNodeSet(0), 0.1, 0.9).Product(rep(phi.NewNodeSet(1), 0.8, 0.2))
	q := rep(phi.NewNodeSet(0), 0.6, 0.4).Product(rep(phi.NewNodeSet(1), 0.3, 0.7))

	de, err := exact.Distance(p, q)
	if err != nil {
		t.Fatal(err)
	}
	da, err := approx.Distance(p, q)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(de-da) > 1e-9 {
		t.Fatalf("exact %g vs approx %g on product distributions", de, da)
	}
	if math.Abs(da-1.0) > 1e-9 {
		t.Fatalf("expected marginal mass |0.9-0.4|+|0.2-0.7| = 1.0, got %g", da)
	}
}

func TestApproxNeverExceedsExact(t *testing.T) {
	exact := mustMeasure(t, EMD)
	approx := mustMeasure(t, EMDApprox)
	purview := phi.NewNodeSet(0, 1)
	cases := [][2]phi.Repertoire{
		{rep(purview, 0.5, 0, 0, 0.5), rep(purview, 0, 0.5, 0.5, 0)},
		{rep(purview, 0.7, 0.1, 0.1, 0.1), rep(purview, 0.25, 0.25, 0.25, 0.25)},
	}
	for _, c := range cases {
		de, err := exact.Distance(c[0], c[1])
		if err != nil {
			t.Fatal(err)
		}
		da, err := approx.Distance(c[0], c[1])
		if err != nil {
			t.Fatal(err)
		}
		if da > de+1e-9 {
			t.Errorf("approx %g exceeds exact %g", da, de)
		}
	}
}

func TestZeroRepertoireDistanceIsDiameter(t *testing.T) {
	purview := phi.NewNodeSet(0, 1, 2)
	zero := rep(purview, 0, 0, 0, 0, 0, 0, 0, 0)
	uniform := phi.UniformRepertoire(purview)
	for _, kind := range []Kind{EMD, EMDApprox} {
		d, err := mustMeasure(t, kind).Distance(zero, uniform)
		if err != nil {
			t.Fatal(err)
		}
		if d != 3 {
			t.Errorf("%s(zero, uniform) = %g, want diameter 3", kind, d)
		}
	}
	d, err := mustMeasure(t, EMD).Distance(zero, zero.Clone())
	if err != nil {
		t.Fatal(err)
	}
	if d != 0 {
		t.Errorf("distance between zero repertoires = %g", d)
	}
}

func TestExactEMDRefusesOversizedPurviews(t *testing.T) {
	nodes := make([]int, exactEMDMaxBits+1)
	for i := range nodes {
		nodes[i] = i
	}
	purview := phi.NewNodeSet(nodes...)
	a := phi.UniformRepertoire(purview)
	b := phi.NewRepertoire(purview)
	b.Data[0] = 1
	if _, err := mustMeasure(t, EMD).Distance(a, b); !errors.Is(err, core.ErrNumericalInstability) {
		t.Fatalf("expected solver limit error, got %v", err)
	}
}

func TestKLDIsZeroForIdenticalAndPositiveOtherwise(t *testing.T) {
	m := mustMeasure(t, KLD)
	purview := phi.NewNodeSet(0)
	d, err := m.Distance(rep(purview, 0.9, 0.1), rep(purview, 0.5, 0.5))
	if err != nil {
		t.Fatal(err)
	}
	if d <= 0 {
		t.Fatalf("KLD of distinct distributions = %g", d)
	}
}

func TestL1Distance(t *testing.T) {
	m := mustMeasure(t, L1)
	purview := phi.NewNodeSet(0)
	d, err := m.Distance(rep(purview, 1, 0), rep(purview, 0.5, 0.5))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(d-1) > 1e-12 {
		t.Fatalf("L1 = %g, want 1", d)
	}
}

func TestTransportBalancedProblem(t *testing.T) {
	// Two suppliers, two consumers, obvious assignment.
	cost := [][]float64{
		{0, 1},
		{1, 0},
	}
	d, err := Transport([]float64{0.5, 0.5}, []float64{0.5, 0.5}, func(i, j int) float64 { return cost[i][j] })
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(d) > 1e-9 {
		t.Fatalf("matched transport cost = %g, want 0", d)
	}

	d, err = Transport([]float64{1, 0}, []float64{0, 1}, func(i, j int) float64 { return cost[i][j] })
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(d-1) > 1e-9 {
		t.Fatalf("crossed transport cost = %g, want 1", d)
	}
}
