package gophi_test

import (
	"context"
	"math"
	"testing"

	"gophi"
	"gophi/domain/phi"
	"gophi/internal/config"
	"gophi/internal/testkit"
)

func newRunner(t *testing.T) *gophi.Runner {
	t.Helper()
	cfg := &config.Config{
		Compute: config.ComputeConfig{
			Measure:   "EMD",
			Scheme:    "BI",
			Tolerance: 1e-10,
			Workers:   2,
			PruneCuts: true,
		},
		Cache: config.CacheConfig{Backend: "memory"},
	}
	runner, err := gophi.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { runner.Close() })
	return runner
}

func TestComputeBigPhiOnCopyLoop(t *testing.T) {
	runner := newRunner(t)
	network := testkit.CopyLoop()

	result, err := runner.ComputeBigPhi(context.Background(), network, network.Nodes(), phi.State{1, 1})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(result.Phi-1.0) > 1e-9 {
		t.Fatalf("big phi = %g, want 1.0", result.Phi)
	}
	if result.Structure.Len() != 2 {
		t.Fatalf("structure has %d concepts", result.Structure.Len())
	}
}

func TestComputeConcept(t *testing.T) {
	runner := newRunner(t)
	network := testkit.CopyLoop()

	c, err := runner.ComputeConcept(context.Background(), network, network.Nodes(), phi.State{1, 1}, phi.NewNodeSet(0))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(c.Phi-0.5) > 1e-9 {
		t.Fatalf("concept phi = %g, want 0.5", c.Phi)
	}
	if !c.Cause.Purview.Equal(phi.NodeSet{1}) || !c.Effect.Purview.Equal(phi.NodeSet{1}) {
		t.Fatalf("purviews: cause %s, effect %s", c.Cause.Purview, c.Effect.Purview)
	}
}

func TestComputeCauseEffectStructure(t *testing.T) {
	runner := newRunner(t)
	network := testkit.OrAndXor()

	ces, err := runner.ComputeCauseEffectStructure(context.Background(), network, network.Nodes(), phi.State{1, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if ces.Len() == 0 {
		t.Fatal("expected a non-empty structure")
	}
	for _, c := range ces.Concepts {
		if c.Phi <= 0 {
			t.Errorf("kept concept %s with phi %g", c.Mechanism, c.Phi)
		}
	}
}

func TestMajorComplexPicksTheLoop(t *testing.T) {
	runner := newRunner(t)
	network := testkit.CopyLoop()

	best, err := runner.MajorComplex(context.Background(), network, phi.State{1, 1})
	if err != nil {
		t.Fatal(err)
	}
	// Single nodes are trivially reducible; only the full loop
	// integrates.
	if !best.Nodes.Equal(phi.NodeSet{0, 1}) {
		t.Fatalf("major complex nodes: %s", best.Nodes)
	}
	if math.Abs(best.Phi-1.0) > 1e-9 {
		t.Fatalf("major complex phi = %g", best.Phi)
	}
}

func TestRunnerRejectsBadConfig(t *testing.T) {
	_, err := gophi.New(&config.Config{
		Compute: config.ComputeConfig{Measure: "COSINE", Scheme: "BI"},
		Cache:   config.CacheConfig{Backend: "memory"},
	})
	if err == nil {
		t.Fatal("unknown measure accepted")
	}
}
