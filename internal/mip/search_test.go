package mip_test

import (
	"context"
	"math"
	"testing"

	"gophi/domain/core"
	"gophi/domain/phi"
	"gophi/internal/testkit"
)

func TestFindMIPSingleNodeMechanism(t *testing.T) {
	kit := testkit.NewKit()
	searcher := kit.Searcher(testkit.Subsystem(testkit.CopyLoop(), 1, 1))

	res, err := searcher.FindMIP(context.Background(), phi.Effect, phi.NewNodeSet(0), phi.NewNodeSet(1))
	if err != nil {
		t.Fatal(err)
	}
	// The only partition severs the mechanism from its purview, turning
	// a deterministic copy into noise: EMD(delta, uniform) = 0.5.
	if math.Abs(res.Phi-0.5) > 1e-9 {
		t.Fatalf("phi = %g, want 0.5", res.Phi)
	}
	if !res.Partitioned.AlmostEqual(phi.UniformRepertoire(phi.NewNodeSet(1)), 1e-9) {
		t.Fatalf("partitioned repertoire = %v", res.Partitioned.Data)
	}
}

func TestFindMIPDetectsReducibleMechanism(t *testing.T) {
	kit := testkit.NewKit()
	searcher := kit.Searcher(testkit.Subsystem(testkit.CopyLoop(), 1, 1))

	// The joint mechanism factorizes exactly as {0}->{1} x {1}->{0}.
	res, err := searcher.FindMIP(context.Background(), phi.Effect, phi.NewNodeSet(0, 1), phi.NewNodeSet(0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if res.Phi != 0 {
		t.Fatalf("phi = %g, want 0", res.Phi)
	}
}

func TestFindMIPWithNoCandidatesIsZero(t *testing.T) {
	kit := testkit.NewKit()
	searcher := kit.Searcher(testkit.Subsystem(testkit.CopyLoop(), 1, 1))

	res, err := searcher.FindMIP(context.Background(), phi.Cause, phi.NodeSet{}, phi.NewNodeSet(0))
	if err != nil {
		t.Fatal(err)
	}
	if res.Phi != 0 {
		t.Fatalf("empty mechanism phi = %g, want 0", res.Phi)
	}
}

func TestFindPhiAgreesWithFindMIP(t *testing.T) {
	kit := testkit.NewKit()
	searcher := kit.Searcher(testkit.Subsystem(testkit.OrAndXor(), 1, 0, 0))

	for _, dir := range phi.Directions() {
		mechanism := phi.NewNodeSet(0, 1)
		purview := phi.NewNodeSet(1, 2)
		v, err := searcher.FindPhi(context.Background(), dir, mechanism, purview)
		if err != nil {
			t.Fatal(err)
		}
		res, err := searcher.FindMIP(context.Background(), dir, mechanism, purview)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(v-res.Phi) > 1e-12 {
			t.Errorf("%s: FindPhi %g != FindMIP %g", dir, v, res.Phi)
		}
		if v < 0 {
			t.Errorf("%s: negative phi %g", dir, v)
		}
	}
}

func TestFindMIPHonorsCancellation(t *testing.T) {
	kit := testkit.NewKit()
	searcher := kit.Searcher(testkit.Subsystem(testkit.CopyLoop(), 1, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := searcher.FindMIP(ctx, phi.Effect, phi.NewNodeSet(0), phi.NewNodeSet(1))
	if !core.IsTimeoutError(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestFindMIPIsDeterministicAcrossRuns(t *testing.T) {
	mechanism := phi.NewNodeSet(0, 2)
	purview := phi.NewNodeSet(0, 1, 2)
	first, err := testkit.NewKit().
		Searcher(testkit.Subsystem(testkit.OrAndXor(), 1, 0, 0)).
		FindMIP(context.Background(), phi.Cause, mechanism, purview)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		again, err := testkit.NewKit().
			Searcher(testkit.Subsystem(testkit.OrAndXor(), 1, 0, 0)).
			FindMIP(context.Background(), phi.Cause, mechanism, purview)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(first.Phi-again.Phi) > 1e-12 || first.Partition.Compare(again.Partition) != 0 {
			t.Fatalf("run %d diverged: phi %g/%g partition %s/%s",
				i, first.Phi, again.Phi, first.Partition, again.Partition)
		}
	}
}
