// Package report derives summary statistics from finished analyses, for
// logs and for comparing structures across states without dumping full
// repertoires.
package report

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"gophi/domain/phi"
)

// StructureSummary condenses a cause-effect structure to its phi
// distribution.
type StructureSummary struct {
	Concepts  int
	SumPhi    float64
	MeanPhi   float64
	MedianPhi float64
	StdDevPhi float64
	MaxPhi    float64
	// LargestMechanism is the size of the biggest irreducible mechanism
	LargestMechanism int
}

// Summarize computes the phi distribution of a structure. An empty
// structure yields the zero summary.
func Summarize(ces *phi.CauseEffectStructure) StructureSummary {
	s := StructureSummary{Concepts: ces.Len()}
	if ces.Len() == 0 {
		return s
	}
	phis := ces.Phis()
	s.SumPhi, _ = stats.Sum(phis)
	s.MeanPhi, _ = stats.Mean(phis)
	s.MedianPhi, _ = stats.Median(phis)
	s.StdDevPhi, _ = stats.StandardDeviation(phis)
	s.MaxPhi, _ = stats.Max(phis)
	for _, c := range ces.Concepts {
		if c.Mechanism.Len() > s.LargestMechanism {
			s.LargestMechanism = c.Mechanism.Len()
		}
	}
	return s
}

// String renders the summary on one line
func (s StructureSummary) String() string {
	return fmt.Sprintf("concepts=%d sum=%.6f mean=%.6f median=%.6f stddev=%.6f max=%.6f largest=%d",
		s.Concepts, s.SumPhi, s.MeanPhi, s.MedianPhi, s.StdDevPhi, s.MaxPhi, s.LargestMechanism)
}

// ResultSummary pairs the system-level value with its structure summary
type ResultSummary struct {
	Phi       float64
	Cut       string
	Structure StructureSummary
}

// SummarizeResult condenses one analysis result
func SummarizeResult(r *phi.BigPhiResult) ResultSummary {
	return ResultSummary{
		Phi:       r.Phi,
		Cut:       r.Cut.String(),
		Structure: Summarize(r.Structure),
	}
}

// String renders the summary on one line
func (s ResultSummary) String() string {
	return fmt.Sprintf("big_phi=%.6f cut=%q %s", s.Phi, s.Cut, s.Structure)
}
