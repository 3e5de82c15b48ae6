package bigphi_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gophi/domain/core"
	"gophi/domain/phi"
	"gophi/internal/bigphi"
	"gophi/internal/distance"
	"gophi/internal/mip"
	"gophi/internal/parallel"
	"gophi/internal/testkit"
)

func options(t *testing.T, approximate bool) bigphi.Options {
	t.Helper()
	measure, err := distance.ForKind(distance.EMD, 1e-10)
	require.NoError(t, err)
	return bigphi.Options{
		Measure:     measure,
		Scheme:      mip.Bipartitions,
		Tolerance:   1e-10,
		Approximate: approximate,
		PruneCuts:   true,
	}
}

func TestCopyLoopBigPhi(t *testing.T) {
	sub := testkit.Subsystem(testkit.CopyLoop(), 1, 1)
	calc := bigphi.New(sub, testkit.NewKit().Cache, parallel.Serial{}, options(t, false))

	result, err := calc.Run(context.Background())
	require.NoError(t, err)

	// Either cut destroys both concepts; the whole structure's mass
	// (0.5 + 0.5) travels to the null concept at ground distance 1.
	assert.InDelta(t, 1.0, result.Phi, 1e-9)
	assert.Equal(t, 2, result.Structure.Len())
	assert.Equal(t, 0, result.PartitionedStructure.Len())
	assert.True(t, result.Irreducible(1e-10))
	assert.Equal(t, bigphi.PhaseDone, calc.Phase())
	assert.Equal(t, 1, result.Cut.SmallerSideSize())
}

func TestCopyLoopBigPhiApproximate(t *testing.T) {
	sub := testkit.Subsystem(testkit.CopyLoop(), 1, 1)
	calc := bigphi.New(sub, testkit.NewKit().Cache, parallel.Serial{}, options(t, true))

	result, err := calc.Run(context.Background())
	require.NoError(t, err)
	// Every concept vanishes under the cut, so the small-phi difference
	// equals the exact transport here.
	assert.InDelta(t, 1.0, result.Phi, 1e-9)
}

func TestNonInteractingSystemIsReducible(t *testing.T) {
	sub := testkit.Subsystem(testkit.SelfLoops(), 1, 1)
	calc := bigphi.New(sub, testkit.NewKit().Cache, parallel.Serial{}, options(t, false))

	result, err := calc.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.Phi)
	assert.False(t, result.Irreducible(1e-10))
	// Self-loop concepts exist, but with no interaction between nodes
	// the system is reducible without evaluating a single cut.
	assert.Equal(t, 2, result.Structure.Len())
	assert.True(t, result.Cut.IsComplete())
}

func TestNoisySystemHasNoStructure(t *testing.T) {
	sub := testkit.Subsystem(testkit.Unconstrained(), 0, 1)
	calc := bigphi.New(sub, testkit.NewKit().Cache, parallel.Serial{}, options(t, false))

	result, err := calc.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.Phi)
	assert.Equal(t, 0, result.Structure.Len())
	assert.True(t, result.Cut.IsComplete())
}

func TestRunWithParallelExecutorMatchesSerial(t *testing.T) {
	serial, err := bigphi.New(
		testkit.Subsystem(testkit.CopyLoop(), 1, 1),
		testkit.NewKit().Cache, parallel.Serial{}, options(t, false),
	).Run(context.Background())
	require.NoError(t, err)

	pooled, err := bigphi.New(
		testkit.Subsystem(testkit.CopyLoop(), 1, 1),
		testkit.NewKit().Cache, parallel.NewPool(4), options(t, false),
	).Run(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, serial.Phi, pooled.Phi, 1e-12)
	assert.Equal(t, 0, serial.Cut.Compare(pooled.Cut))
	assert.Equal(t, serial.Structure.Len(), pooled.Structure.Len())
}

func TestRunHonorsCancellation(t *testing.T) {
	sub := testkit.Subsystem(testkit.CopyLoop(), 1, 1)
	calc := bigphi.New(sub, testkit.NewKit().Cache, parallel.Serial{}, options(t, false))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := calc.Run(ctx)
	require.Error(t, err)
	assert.True(t, core.IsTimeoutError(err), "got %v", err)
}

func TestResultCarriesIdentityAndTiming(t *testing.T) {
	sub := testkit.Subsystem(testkit.CopyLoop(), 1, 1)
	calc := bigphi.New(sub, testkit.NewKit().Cache, parallel.Serial{}, options(t, false))

	result, err := calc.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, core.ID(result.ID).IsEmpty())
	assert.Equal(t, sub.Hash(), result.Subsystem)
	assert.Equal(t, phi.NewNodeSet(0, 1), result.Nodes)
	assert.NotZero(t, result.Elapsed)
}
