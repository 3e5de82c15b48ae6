package bigphi

import (
	"math"

	"gophi/domain/phi"
	"gophi/internal/distance"
	"gophi/internal/repertoire"
)

// structureDistance scores how far the cut structure has moved from the
// intact one.
//
// The exact form is the extended earth-mover distance over concepts:
// each concept is a pile of small-phi mass sitting at its expanded
// cause and effect repertoires, a null concept on each side absorbs the
// mass difference, and the ground cost between two concepts is the sum
// of the repertoire distances on the cause and effect sides. The
// approximate form skips the transportation solve and sums the
// small-phi change per mechanism, which bounds the exact value from
// below.
func (c *Calculator) structureDistance(full, cut *phi.CauseEffectStructure, intact, cutEngine *repertoire.Engine) (float64, error) {
	if full.Len() == 0 && cut.Len() == 0 {
		return 0, nil
	}
	if c.opts.Approximate {
		return smallPhiDifference(full, cut), nil
	}
	return c.conceptTransport(full, cut, intact, cutEngine)
}

// smallPhiDifference sums |phi change| per mechanism across the two
// structures. Mechanisms present on only one side contribute their full
// phi.
func smallPhiDifference(full, cut *phi.CauseEffectStructure) float64 {
	total := 0.0
	for _, fc := range full.Concepts {
		other := cut.Find(fc.Mechanism)
		if other == nil {
			total += fc.Phi
			continue
		}
		total += math.Abs(fc.Phi - other.Phi)
	}
	for _, cc := range cut.Concepts {
		if full.Find(cc.Mechanism) == nil {
			total += cc.Phi
		}
	}
	return total
}

// conceptPoint is one concept lifted into the comparison space: its
// cause and effect repertoires expanded over the whole subsystem.
type conceptPoint struct {
	cause  phi.Repertoire
	effect phi.Repertoire
	mass   float64
}

func (c *Calculator) conceptTransport(full, cut *phi.CauseEffectStructure, intact, cutEngine *repertoire.Engine) (float64, error) {
	nodes := c.sub.Nodes()
	fullPts := liftConcepts(full, intact, nodes)
	cutPts := liftConcepts(cut, cutEngine, nodes)

	sumFull, sumCut := full.SumPhi(), cut.SumPhi()
	if sumFull+sumCut <= c.opts.Tolerance {
		return 0, nil
	}

	// The null concept is the intact system's fully unconstrained point;
	// it anchors the mass that has no counterpart on the other side.
	null := conceptPoint{
		cause:  intact.Unconstrained(phi.Cause, nodes),
		effect: intact.Unconstrained(phi.Effect, nodes),
	}
	supply := append(masses(fullPts), sumCut)
	demand := append(masses(cutPts), sumFull)

	n1, n2 := len(fullPts), len(cutPts)
	cost := make([][]float64, n1+1)
	for i := range cost {
		cost[i] = make([]float64, n2+1)
		src := null
		if i < n1 {
			src = fullPts[i]
		}
		for j := range cost[i] {
			dst := null
			if j < n2 {
				dst = cutPts[j]
			}
			if i == n1 && j == n2 {
				continue
			}
			d, err := c.pointDistance(src, dst)
			if err != nil {
				return 0, err
			}
			cost[i][j] = d
		}
	}
	return distance.Transport(supply, demand, func(i, j int) float64 { return cost[i][j] })
}

// pointDistance is the ground cost between two lifted concepts
func (c *Calculator) pointDistance(a, b conceptPoint) (float64, error) {
	dc, err := c.opts.Measure.Distance(a.cause, b.cause)
	if err != nil {
		return 0, err
	}
	de, err := c.opts.Measure.Distance(a.effect, b.effect)
	if err != nil {
		return 0, err
	}
	return dc + de, nil
}

// liftConcepts expands each concept's repertoires over the full node
// set. Missing purview nodes are filled with the concept's own
// subsystem's unconstrained repertoire, so the expansion adds no
// information the concept does not carry.
func liftConcepts(ces *phi.CauseEffectStructure, engine *repertoire.Engine, nodes phi.NodeSet) []conceptPoint {
	pts := make([]conceptPoint, ces.Len())
	for i, con := range ces.Concepts {
		pts[i] = conceptPoint{
			cause:  expand(con.Cause.Repertoire, phi.Cause, engine, nodes),
			effect: expand(con.Effect.Repertoire, phi.Effect, engine, nodes),
			mass:   con.Phi,
		}
	}
	return pts
}

func expand(rep phi.Repertoire, dir phi.Direction, engine *repertoire.Engine, nodes phi.NodeSet) phi.Repertoire {
	missing := nodes.Minus(rep.Purview)
	if missing.IsEmpty() {
		return rep
	}
	return rep.Product(engine.Unconstrained(dir, missing))
}

func masses(pts []conceptPoint) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.mass
	}
	return out
}
