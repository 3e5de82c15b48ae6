// Package bigphi runs the system-level irreducibility analysis: compute
// the intact cause-effect structure, recompute it under every
// unidirectional system cut, and report the cut that changes it least.
package bigphi

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"gophi/domain/core"
	"gophi/domain/phi"
	"gophi/internal/concept"
	"gophi/internal/distance"
	"gophi/internal/mip"
	"gophi/internal/parallel"
	"gophi/internal/partition"
	"gophi/internal/repertoire"
	"gophi/ports"
)

// Phase tracks where a running analysis is. Observable from other
// goroutines while Run is in flight.
type Phase int32

const (
	PhaseInitialized Phase = iota
	PhaseEnumeratingCuts
	PhaseEvaluating
	PhaseReducing
	PhaseDone
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseInitialized:
		return "INITIALIZED"
	case PhaseEnumeratingCuts:
		return "ENUMERATING_CUTS"
	case PhaseEvaluating:
		return "EVALUATING"
	case PhaseReducing:
		return "REDUCING"
	case PhaseDone:
		return "DONE"
	}
	return "UNKNOWN"
}

// Options configure one analysis
type Options struct {
	Measure distance.Measure
	Scheme  mip.Scheme
	// Tolerance is the numerical floor below which phi counts as zero
	Tolerance float64
	// Approximate replaces the exact structure distance with the sum of
	// small-phi differences, which never needs a transportation solve
	Approximate bool
	// PruneCuts drops system cuts that sever no causal edge. The
	// degenerate-cut check runs first either way, so pruning never hides
	// a zero-phi winner.
	PruneCuts bool
}

// Calculator computes big phi for one subsystem
type Calculator struct {
	sub      *phi.Subsystem
	cache    ports.PhiCache
	executor ports.TaskExecutor
	opts     Options
	phase    atomic.Int32
}

// New creates a calculator in the Initialized phase
func New(sub *phi.Subsystem, cache ports.PhiCache, executor ports.TaskExecutor, opts Options) *Calculator {
	return &Calculator{sub: sub, cache: cache, executor: executor, opts: opts}
}

// Phase returns the current phase
func (c *Calculator) Phase() Phase { return Phase(c.phase.Load()) }

func (c *Calculator) setPhase(p Phase) { c.phase.Store(int32(p)) }

type cutEval struct {
	cut       phi.Cut
	structure *phi.CauseEffectStructure
	distance  float64
}

// Run executes the analysis to completion. The context bounds the whole
// search; cancellation surfaces as a timeout error.
func (c *Calculator) Run(ctx context.Context) (*phi.BigPhiResult, error) {
	start := time.Now()
	nodes := c.sub.Nodes()
	c.setPhase(PhaseEnumeratingCuts)

	intact := repertoire.NewEngine(c.sub)
	builder := c.builderFor(intact, c.executor)
	full, err := builder.BuildStructure(ctx)
	if err != nil {
		return nil, c.wrapCtx(err)
	}
	log.Printf("[BigPhi] subsystem %s: %d concepts, sum phi %.6f",
		c.sub.Hash().Short(), full.Len(), full.SumPhi())

	// A system with no surviving internal edge, or no concepts at all,
	// is reducible without evaluating a single cut.
	if !c.sub.HasAnyEdge() || full.Len() == 0 {
		return c.finish(start, 0, phi.CompleteCut(nodes), full,
			&phi.CauseEffectStructure{Subsystem: c.sub.Hash()}), nil
	}

	allCuts := partition.SystemCuts(nodes, false, nil)
	// A cut that severs no edge leaves the structure untouched: big phi
	// is zero and the first such cut, in canonical order, wins.
	for _, cut := range allCuts {
		if !partition.CutCrossesEdge(cut, c.sub.HasEdge) {
			return c.finish(start, 0, cut, full, full), nil
		}
	}
	cuts := allCuts
	if c.opts.PruneCuts {
		cuts = partition.SystemCuts(nodes, true, c.sub.HasEdge)
	}
	if len(cuts) == 0 {
		return c.finish(start, 0, phi.CompleteCut(nodes), full,
			&phi.CauseEffectStructure{Subsystem: c.sub.Hash()}), nil
	}

	c.setPhase(PhaseEvaluating)
	evals := make([]cutEval, len(cuts))
	err = c.executor.Map(ctx, len(cuts), func(ctx context.Context, i int) error {
		ev, err := c.evaluateCut(ctx, cuts[i], full, intact)
		if err != nil {
			return err
		}
		evals[i] = ev
		return nil
	})
	if err != nil {
		return nil, c.wrapCtx(err)
	}

	c.setPhase(PhaseReducing)
	best := evals[0]
	for _, ev := range evals[1:] {
		if ev.distance < best.distance {
			best = ev
		}
	}
	value := best.distance
	if value <= c.opts.Tolerance {
		value = 0
	}
	return c.finish(start, value, best.cut, full, best.structure), nil
}

// evaluateCut recomputes the cause-effect structure under one cut and
// scores its divergence from the intact structure. The inner mechanism
// sweep runs serially; the cut fan-out already owns the workers.
func (c *Calculator) evaluateCut(ctx context.Context, cut phi.Cut, full *phi.CauseEffectStructure, intact *repertoire.Engine) (cutEval, error) {
	cutEngine := repertoire.NewEngine(c.sub.WithCut(cut))
	builder := c.builderFor(cutEngine, parallel.Serial{})
	cutStructure, err := builder.BuildStructure(ctx)
	if err != nil {
		return cutEval{}, err
	}
	d, err := c.structureDistance(full, cutStructure, intact, cutEngine)
	if err != nil {
		return cutEval{}, err
	}
	log.Printf("[BigPhi] cut %s: %d concepts, distance %.6f", cut, cutStructure.Len(), d)
	return cutEval{cut: cut, structure: cutStructure, distance: d}, nil
}

func (c *Calculator) builderFor(engine *repertoire.Engine, exec ports.TaskExecutor) *concept.Builder {
	searcher := mip.NewSearcher(engine, c.opts.Measure, c.cache, c.opts.Scheme, c.opts.Tolerance)
	return concept.NewBuilder(searcher, exec, c.opts.Tolerance)
}

func (c *Calculator) finish(start time.Time, value float64, cut phi.Cut, full, parted *phi.CauseEffectStructure) *phi.BigPhiResult {
	c.setPhase(PhaseDone)
	res := &phi.BigPhiResult{
		ID:                   core.NewResultID(),
		Phi:                  value,
		Cut:                  cut,
		Structure:            full,
		PartitionedStructure: parted,
		Nodes:                c.sub.Nodes(),
		State:                c.sub.State(),
		Subsystem:            c.sub.Hash(),
		Elapsed:              time.Since(start),
	}
	log.Printf("[BigPhi] subsystem %s: big phi %.6f via cut %s in %s",
		c.sub.Hash().Short(), res.Phi, res.Cut, res.Elapsed)
	return res
}

func (c *Calculator) wrapCtx(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return core.NewTimeoutError("system cut evaluation", err)
	}
	return err
}
