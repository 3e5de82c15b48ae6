package concept_test

import (
	"context"
	"math"
	"testing"

	"gophi/domain/core"
	"gophi/domain/phi"
	"gophi/internal/concept"
	"gophi/internal/testkit"
)

func TestPotentialPurviewsArePrunedByConnectivity(t *testing.T) {
	kit := testkit.NewKit()
	builder := kit.Builder(testkit.Subsystem(testkit.CopyLoop(), 1, 1))

	// Node 0's only input is node 1, and its only output is node 1.
	cause := builder.PotentialPurviews(phi.Cause, phi.NewNodeSet(0))
	if len(cause) != 1 || !cause[0].Equal(phi.NodeSet{1}) {
		t.Fatalf("cause purviews of {0}: %v", cause)
	}
	effect := builder.PotentialPurviews(phi.Effect, phi.NewNodeSet(0))
	if len(effect) != 1 || !effect[0].Equal(phi.NodeSet{1}) {
		t.Fatalf("effect purviews of {0}: %v", effect)
	}
}

func TestPotentialPurviewsAreCanonicallyOrdered(t *testing.T) {
	kit := testkit.NewKit()
	builder := kit.Builder(testkit.Subsystem(testkit.OrAndXor(), 1, 0, 0))
	purviews := builder.PotentialPurviews(phi.Cause, phi.NewNodeSet(0, 1, 2))
	for i := 1; i < len(purviews); i++ {
		if purviews[i-1].Compare(purviews[i]) >= 0 {
			t.Fatalf("purviews out of order: %s >= %s", purviews[i-1], purviews[i])
		}
	}
}

func TestFindMiceForCopyNode(t *testing.T) {
	kit := testkit.NewKit()
	builder := kit.Builder(testkit.Subsystem(testkit.CopyLoop(), 1, 1))

	mice, err := builder.FindMice(context.Background(), phi.Effect, phi.NewNodeSet(0))
	if err != nil {
		t.Fatal(err)
	}
	if !mice.Purview.Equal(phi.NodeSet{1}) {
		t.Errorf("winning purview: %s", mice.Purview)
	}
	if math.Abs(mice.Phi-0.5) > 1e-9 {
		t.Errorf("effect phi = %g, want 0.5", mice.Phi)
	}
}

func TestConceptPhiIsMinimumOfDirections(t *testing.T) {
	kit := testkit.NewKit()
	builder := kit.Builder(testkit.Subsystem(testkit.OrAndXor(), 1, 0, 0))

	for _, mechanism := range concept.Mechanisms(phi.NewNodeSet(0, 1, 2)) {
		c, err := builder.BuildConcept(context.Background(), mechanism)
		if err != nil {
			t.Fatal(err)
		}
		want := math.Min(c.Cause.Phi, c.Effect.Phi)
		if math.Abs(c.Phi-want) > 1e-12 {
			t.Errorf("%s: concept phi %g != min(%g, %g)", mechanism, c.Phi, c.Cause.Phi, c.Effect.Phi)
		}
		if c.Phi < 0 {
			t.Errorf("%s: negative phi %g", mechanism, c.Phi)
		}
	}
}

func TestBuildStructureForCopyLoop(t *testing.T) {
	kit := testkit.NewKit()
	builder := kit.Builder(testkit.Subsystem(testkit.CopyLoop(), 1, 1))

	ces, err := builder.BuildStructure(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ces.Len() != 2 {
		t.Fatalf("expected 2 concepts, got %d", ces.Len())
	}
	// Canonical mechanism order: {0} then {1}; the joint mechanism is
	// reducible and filtered out.
	if !ces.Concepts[0].Mechanism.Equal(phi.NodeSet{0}) || !ces.Concepts[1].Mechanism.Equal(phi.NodeSet{1}) {
		t.Fatalf("mechanisms: %s, %s", ces.Concepts[0].Mechanism, ces.Concepts[1].Mechanism)
	}
	if math.Abs(ces.SumPhi()-1.0) > 1e-9 {
		t.Fatalf("sum phi = %g, want 1.0", ces.SumPhi())
	}
	if ces.Find(phi.NewNodeSet(0, 1)) != nil {
		t.Fatal("reducible joint mechanism kept in structure")
	}
}

func TestBuildStructureOfNoisySystemIsEmpty(t *testing.T) {
	kit := testkit.NewKit()
	builder := kit.Builder(testkit.Subsystem(testkit.Unconstrained(), 0, 1))
	ces, err := builder.BuildStructure(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ces.Len() != 0 {
		t.Fatalf("noisy system produced %d concepts", ces.Len())
	}
}

func TestBuildStructureClassifiesCancellation(t *testing.T) {
	kit := testkit.NewKit()
	builder := kit.Builder(testkit.Subsystem(testkit.CopyLoop(), 1, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := builder.BuildStructure(ctx); !core.IsTimeoutError(err) {
		t.Fatalf("expected a timeout classification, got %v", err)
	}
	if _, err := builder.BuildConcept(ctx, phi.NewNodeSet(0)); !core.IsTimeoutError(err) {
		t.Fatalf("expected a timeout classification, got %v", err)
	}
}

func TestMechanismsEnumeration(t *testing.T) {
	mechanisms := concept.Mechanisms(phi.NewNodeSet(0, 1, 2))
	if len(mechanisms) != 7 {
		t.Fatalf("expected 7 mechanisms, got %d", len(mechanisms))
	}
	if !mechanisms[0].Equal(phi.NodeSet{0}) || !mechanisms[6].Equal(phi.NodeSet{0, 1, 2}) {
		t.Fatalf("canonical order broken: first %s, last %s", mechanisms[0], mechanisms[6])
	}
}
