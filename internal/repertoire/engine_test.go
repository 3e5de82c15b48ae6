package repertoire_test

import (
	"testing"

	"gophi/domain/phi"
	"gophi/internal/repertoire"
	"gophi/internal/testkit"
)

func TestCauseRepertoireIsDeltaForDeterministicCopy(t *testing.T) {
	sub := testkit.Subsystem(testkit.CopyLoop(), 1, 1)
	engine := repertoire.NewEngine(sub)

	// Node 0 is ON and copies node 1: node 1 must have been ON.
	rep := engine.CauseRepertoire(phi.NewNodeSet(0), phi.NewNodeSet(1))
	want := phi.Repertoire{Purview: phi.NewNodeSet(1), Data: []float64{0, 1}}
	if !rep.AlmostEqual(want, 1e-12) {
		t.Fatalf("cause repertoire = %v", rep.Data)
	}
}

func TestCauseRepertoireWithEmptyMechanismIsUniform(t *testing.T) {
	sub := testkit.Subsystem(testkit.CopyLoop(), 1, 1)
	engine := repertoire.NewEngine(sub)
	rep := engine.CauseRepertoire(phi.NodeSet{}, phi.NewNodeSet(0, 1))
	if !rep.AlmostEqual(phi.UniformRepertoire(phi.NewNodeSet(0, 1)), 1e-12) {
		t.Fatalf("unconstrained cause repertoire = %v", rep.Data)
	}
}

func TestEffectRepertoireIsDeltaForDeterministicCopy(t *testing.T) {
	sub := testkit.Subsystem(testkit.CopyLoop(), 1, 1)
	engine := repertoire.NewEngine(sub)

	// Node 0 is ON now, so node 1 is ON next.
	rep := engine.EffectRepertoire(phi.NewNodeSet(0), phi.NewNodeSet(1))
	want := phi.Repertoire{Purview: phi.NewNodeSet(1), Data: []float64{0, 1}}
	if !rep.AlmostEqual(want, 1e-12) {
		t.Fatalf("effect repertoire = %v", rep.Data)
	}
}

func TestNoisyNetworkYieldsUniformRepertoires(t *testing.T) {
	sub := testkit.Subsystem(testkit.Unconstrained(), 0, 1)
	engine := repertoire.NewEngine(sub)
	for _, dir := range phi.Directions() {
		rep := engine.Repertoire(dir, phi.NewNodeSet(0), phi.NewNodeSet(0, 1))
		if !rep.AlmostEqual(phi.UniformRepertoire(phi.NewNodeSet(0, 1)), 1e-12) {
			t.Errorf("%s repertoire of noisy network = %v", dir, rep.Data)
		}
	}
}

func TestEmptyPurviewYieldsScalar(t *testing.T) {
	sub := testkit.Subsystem(testkit.CopyLoop(), 1, 1)
	engine := repertoire.NewEngine(sub)
	for _, dir := range phi.Directions() {
		rep := engine.Repertoire(dir, phi.NewNodeSet(0), phi.NodeSet{})
		if !rep.Purview.IsEmpty() || len(rep.Data) != 1 || rep.Data[0] != 1 {
			t.Errorf("%s repertoire over empty purview = %+v", dir, rep)
		}
	}
}

func TestPartitionedRepertoireIsProductOfParts(t *testing.T) {
	sub := testkit.Subsystem(testkit.CopyLoop(), 1, 1)
	engine := repertoire.NewEngine(sub)

	p := phi.NewPartition(
		phi.Part{Mechanism: phi.NewNodeSet(0), Purview: phi.NewNodeSet(1)},
		phi.Part{Mechanism: phi.NewNodeSet(1), Purview: phi.NewNodeSet(0)},
	)
	parted := engine.PartitionedRepertoire(phi.Effect, p)
	manual := engine.EffectRepertoire(phi.NewNodeSet(0), phi.NewNodeSet(1)).
		Product(engine.EffectRepertoire(phi.NewNodeSet(1), phi.NewNodeSet(0)))
	if !parted.AlmostEqual(manual, 1e-12) {
		t.Fatalf("partitioned = %v, product = %v", parted.Data, manual.Data)
	}
	// For the copy loop this partition severs nothing: it equals the
	// unpartitioned joint repertoire.
	joint := engine.EffectRepertoire(phi.NewNodeSet(0, 1), phi.NewNodeSet(0, 1))
	if !parted.AlmostEqual(joint, 1e-12) {
		t.Fatalf("partitioned = %v, joint = %v", parted.Data, joint.Data)
	}
}

func TestCauseRepertoiresSumToOneAcrossMechanismStates(t *testing.T) {
	sub := testkit.Subsystem(testkit.OrAndXor(), 1, 0, 0)
	engine := repertoire.NewEngine(sub)
	rep := engine.CauseRepertoire(phi.NewNodeSet(0, 1), phi.NewNodeSet(1, 2))
	if !rep.IsValidDistribution(1e-9) && !rep.IsZero(1e-9) {
		t.Fatalf("cause repertoire is neither a distribution nor zero: %v", rep.Data)
	}
}
