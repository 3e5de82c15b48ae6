// Package testkit provides fixture networks and pre-wired engines for
// tests. The fixtures are small deterministic systems whose phi values
// can be derived by hand.
package testkit

import (
	"fmt"

	"gophi/adapters/cache/memory"
	"gophi/domain/phi"
	"gophi/internal/bigphi"
	"gophi/internal/concept"
	"gophi/internal/distance"
	"gophi/internal/mip"
	"gophi/internal/parallel"
	"gophi/internal/repertoire"
	"gophi/ports"
)

// Kit bundles the collaborators a test needs: an in-memory cache, a
// serial executor and the exact distance measure.
type Kit struct {
	Cache     ports.PhiCache
	Executor  ports.TaskExecutor
	Measure   distance.Measure
	Scheme    mip.Scheme
	Tolerance float64
}

// NewKit creates a kit with deterministic defaults
func NewKit() *Kit {
	measure, err := distance.ForKind(distance.EMD, 1e-10)
	if err != nil {
		panic(fmt.Sprintf("testkit: %v", err))
	}
	return &Kit{
		Cache:     memory.New(),
		Executor:  parallel.Serial{},
		Measure:   measure,
		Scheme:    mip.Bipartitions,
		Tolerance: 1e-10,
	}
}

// Searcher wires a MIP searcher over the subsystem
func (k *Kit) Searcher(sub *phi.Subsystem) *mip.Searcher {
	return mip.NewSearcher(repertoire.NewEngine(sub), k.Measure, k.Cache, k.Scheme, k.Tolerance)
}

// Builder wires a concept builder over the subsystem
func (k *Kit) Builder(sub *phi.Subsystem) *concept.Builder {
	return concept.NewBuilder(k.Searcher(sub), k.Executor, k.Tolerance)
}

// Calculator wires a system-level calculator over the subsystem
func (k *Kit) Calculator(sub *phi.Subsystem) *bigphi.Calculator {
	return bigphi.New(sub, k.Cache, k.Executor, bigphi.Options{
		Measure:   k.Measure,
		Scheme:    k.Scheme,
		Tolerance: k.Tolerance,
		PruneCuts: true,
	})
}

// CopyLoop is a two-node loop where each node copies the other's
// previous state: node 0 takes node 1's value, node 1 takes node 0's.
// In state (1,1) each single node is an irreducible concept with phi
// 0.5 and the system's big phi is 1.
func CopyLoop() *phi.Network {
	tpm := make([][]float64, 4)
	for row := 0; row < 4; row++ {
		a := row & 1
		b := (row >> 1) & 1
		tpm[row] = []float64{float64(b), float64(a)}
	}
	cm := [][]int{
		{0, 1},
		{1, 0},
	}
	return mustNetwork(tpm, cm)
}

// SelfLoops is a two-node system with no interaction: each node copies
// itself. Every mechanism is reducible; big phi is 0.
func SelfLoops() *phi.Network {
	tpm := make([][]float64, 4)
	for row := 0; row < 4; row++ {
		tpm[row] = []float64{float64(row & 1), float64((row >> 1) & 1)}
	}
	cm := [][]int{
		{1, 0},
		{0, 1},
	}
	return mustNetwork(tpm, cm)
}

// Unconstrained is a two-node system whose next state is a coin flip
// regardless of the current state. All repertoires are uniform and all
// phi values are 0.
func Unconstrained() *phi.Network {
	tpm := make([][]float64, 4)
	for row := 0; row < 4; row++ {
		tpm[row] = []float64{0.5, 0.5}
	}
	return mustNetwork(tpm, nil)
}

// OrAndXor is the classic three-node example: node 0 is the OR of the
// other two, node 1 the AND, node 2 the XOR.
func OrAndXor() *phi.Network {
	tpm := make([][]float64, 8)
	for row := 0; row < 8; row++ {
		a := row & 1
		b := (row >> 1) & 1
		c := (row >> 2) & 1
		or := 0
		if b == 1 || c == 1 {
			or = 1
		}
		and := 0
		if a == 1 && c == 1 {
			and = 1
		}
		xor := (a + b) % 2
		tpm[row] = []float64{float64(or), float64(and), float64(xor)}
	}
	cm := [][]int{
		{0, 1, 1},
		{1, 0, 1},
		{1, 1, 0},
	}
	return mustNetwork(tpm, cm)
}

// Subsystem builds the full-network subsystem at the given state,
// panicking on fixture mistakes.
func Subsystem(network *phi.Network, state ...int) *phi.Subsystem {
	sub, err := phi.NewSubsystem(network, network.Nodes(), phi.State(state))
	if err != nil {
		panic(fmt.Sprintf("testkit: %v", err))
	}
	return sub
}

func mustNetwork(tpm [][]float64, cm [][]int) *phi.Network {
	network, err := phi.NewNetwork(tpm, cm)
	if err != nil {
		panic(fmt.Sprintf("testkit: %v", err))
	}
	return network
}
