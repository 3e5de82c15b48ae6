// Command phi runs a system-level integrated information analysis over
// a network description read from a JSON file and prints the result.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"gophi"
	"gophi/domain/core"
	"gophi/domain/phi"
	"gophi/internal/report"
)

// networkSpec is the on-disk input format. The TPM is in state-by-node
// form by default: row r holds each node's ON probability at t+1 given
// current joint state r, with node 0 the least significant bit of r.
type networkSpec struct {
	TPM    [][]float64 `json:"tpm"`
	CM     [][]int     `json:"cm,omitempty"`
	State  []int       `json:"state"`
	Nodes  []int       `json:"nodes,omitempty"`
	Format string      `json:"format,omitempty"`
}

func main() {
	input := flag.String("input", "", "path to the network JSON file")
	complexSearch := flag.Bool("complex", false, "search all subsystems for the major complex")
	asJSON := flag.Bool("json", false, "print the full result as JSON")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(*input, *complexSearch, *asJSON); err != nil {
		log.Fatalf("[phi] %v", err)
	}
}

func run(path string, complexSearch, asJSON bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var spec networkSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var network *phi.Network
	if spec.Format == "state-by-state" {
		network, err = phi.NewNetworkFromStateByState(spec.TPM, spec.CM)
	} else {
		network, err = phi.NewNetwork(spec.TPM, spec.CM)
	}
	if err != nil {
		return err
	}
	nodes := phi.NewNodeSet(spec.Nodes...)
	if nodes.IsEmpty() {
		nodes = network.Nodes()
	}

	runner, err := gophi.NewDefault()
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx := context.Background()
	var result *phi.BigPhiResult
	if complexSearch {
		result, err = runner.MajorComplex(ctx, network, phi.State(spec.State))
	} else {
		result, err = runner.ComputeBigPhi(ctx, network, nodes, phi.State(spec.State))
	}
	if core.IsNumericalError(err) {
		return fmt.Errorf("%w (set PHI_MEASURE=EMD_APPROX for purviews beyond the exact solver's range)", err)
	}
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	fmt.Printf("nodes=%s state=%v\n", result.Nodes, result.State)
	fmt.Println(report.SummarizeResult(result))
	return nil
}
