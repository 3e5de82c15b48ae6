// Package gophi computes integrated information over discrete dynamical
// systems: concepts, cause-effect structures and the system-level big
// phi of a network of binary nodes with a known transition probability
// model.
//
// The Runner is the entry point. It owns the cache, the worker pool and
// optional result persistence; the per-call types underneath it are
// wired from configuration once and reused across computations.
package gophi

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gophi/adapters/cache/badgerstore"
	"gophi/adapters/cache/memory"
	"gophi/adapters/postgres"
	"gophi/domain/core"
	"gophi/domain/phi"
	"gophi/internal"
	"gophi/internal/bigphi"
	"gophi/internal/concept"
	"gophi/internal/config"
	"gophi/internal/distance"
	"gophi/internal/errors"
	"gophi/internal/mip"
	"gophi/internal/parallel"
	"gophi/internal/repertoire"
	"gophi/internal/report"
	"gophi/ports"
)

// Runner executes phi computations with shared infrastructure
type Runner struct {
	cfg      *config.Config
	measure  distance.Measure
	scheme   mip.Scheme
	cache    ports.PhiCache
	executor ports.TaskExecutor
	repo     ports.ResultRepository
	db       *sqlx.DB
	logger   *internal.Logger
}

// New wires a runner from the given configuration
func New(cfg *config.Config) (*Runner, error) {
	kind, err := measureKind(cfg.Compute.Measure)
	if err != nil {
		return nil, err
	}
	measure, err := distance.ForKind(kind, cfg.Compute.Tolerance)
	if err != nil {
		return nil, err
	}
	scheme := mip.Bipartitions
	if cfg.Compute.Scheme == "TRI" {
		scheme = mip.Tripartitions
	}
	cache, err := openCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:      cfg,
		measure:  measure,
		scheme:   scheme,
		cache:    cache,
		executor: parallel.NewPool(cfg.Compute.Workers),
		logger:   internal.NewDefaultLogger(),
	}
	if cfg.Database.Enabled {
		db, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			cache.Close()
			return nil, err
		}
		repo, err := postgres.NewResultRepository(db)
		if err != nil {
			db.Close()
			cache.Close()
			return nil, err
		}
		r.db = db
		r.repo = repo
	}
	return r, nil
}

// NewDefault wires a runner from the environment
func NewDefault() (*Runner, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// Close releases the cache and any database connection
func (r *Runner) Close() error {
	err := r.cache.Close()
	if r.db != nil {
		if dbErr := r.db.Close(); err == nil {
			err = dbErr
		}
	}
	return err
}

func measureKind(name string) (distance.Kind, error) {
	switch name {
	case "EMD":
		return distance.EMD, nil
	case "EMD_APPROX":
		return distance.EMDApprox, nil
	case "KLD":
		return distance.KLD, nil
	case "L1":
		return distance.L1, nil
	}
	return 0, errors.ConfigInvalid(fmt.Sprintf("unknown distance measure %q", name))
}

func openCache(cfg config.CacheConfig) (ports.PhiCache, error) {
	switch cfg.Backend {
	case "memory":
		return memory.New(), nil
	case "badger":
		return badgerstore.Open(cfg.Dir)
	case "none":
		return memory.Passthrough{}, nil
	}
	return nil, errors.ConfigInvalid(fmt.Sprintf("unknown cache backend %q", cfg.Backend))
}

func (r *Runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.Compute.Timeout > 0 {
		return context.WithTimeout(ctx, r.cfg.Compute.Timeout)
	}
	return context.WithCancel(ctx)
}

func (r *Runner) builder(sub *phi.Subsystem) *concept.Builder {
	searcher := mip.NewSearcher(repertoire.NewEngine(sub), r.measure, r.cache, r.scheme, r.cfg.Compute.Tolerance)
	return concept.NewBuilder(searcher, r.executor, r.cfg.Compute.Tolerance)
}

// ComputeConcept computes the concept of one mechanism within the
// subsystem spanned by nodes at the given network state.
func (r *Runner) ComputeConcept(ctx context.Context, network *phi.Network, nodes phi.NodeSet, state phi.State, mechanism phi.NodeSet) (*phi.Concept, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	sub, err := phi.NewSubsystem(network, nodes, state)
	if err != nil {
		return nil, err
	}
	return r.builder(sub).BuildConcept(ctx, mechanism)
}

// ComputeCauseEffectStructure computes all irreducible concepts of the
// subsystem spanned by nodes at the given network state.
func (r *Runner) ComputeCauseEffectStructure(ctx context.Context, network *phi.Network, nodes phi.NodeSet, state phi.State) (*phi.CauseEffectStructure, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	sub, err := phi.NewSubsystem(network, nodes, state)
	if err != nil {
		return nil, err
	}
	ces, err := r.builder(sub).BuildStructure(ctx)
	if err != nil {
		return nil, err
	}
	r.logger.Info("structure for %s: %s", sub.Hash().Short(), report.Summarize(ces))
	return ces, nil
}

// ComputeBigPhi runs the full system-level analysis of the subsystem
// spanned by nodes at the given network state. When persistence is
// configured the result is saved before returning.
func (r *Runner) ComputeBigPhi(ctx context.Context, network *phi.Network, nodes phi.NodeSet, state phi.State) (*phi.BigPhiResult, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	sub, err := phi.NewSubsystem(network, nodes, state)
	if err != nil {
		return nil, err
	}
	result, err := r.compute(ctx, sub)
	if err != nil {
		return nil, err
	}
	if r.repo != nil {
		if err := r.repo.SaveResult(ctx, result); err != nil {
			return nil, errors.Wrap(err, "failed to persist result")
		}
	}
	return result, nil
}

func (r *Runner) compute(ctx context.Context, sub *phi.Subsystem) (*phi.BigPhiResult, error) {
	calc := bigphi.New(sub, r.cache, r.executor, bigphi.Options{
		Measure:     r.measure,
		Scheme:      r.scheme,
		Tolerance:   r.cfg.Compute.Tolerance,
		Approximate: r.cfg.Compute.Approximate,
		PruneCuts:   r.cfg.Compute.PruneCuts,
	})
	result, err := calc.Run(ctx)
	if err != nil {
		return nil, err
	}
	r.logger.Info("%s", report.SummarizeResult(result))
	return result, nil
}

// MajorComplex finds the subsystem with the highest big phi at the
// given network state. Candidates are evaluated in canonical order;
// phi ties within tolerance prefer the larger subsystem, then the
// earlier candidate, so the result is deterministic.
func (r *Runner) MajorComplex(ctx context.Context, network *phi.Network, state phi.State) (*phi.BigPhiResult, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	id := core.NewComputationID()
	candidates := concept.Mechanisms(network.Nodes())
	r.logger.Info("computation %s: sweeping %d candidate subsystems", id, len(candidates))
	var best *phi.BigPhiResult
	for _, nodes := range candidates {
		sub, err := phi.NewSubsystem(network, nodes, state)
		if err != nil {
			return nil, err
		}
		result, err := r.compute(ctx, sub)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("computation %s: candidate %s big phi %.6f", id, nodes, result.Phi)
		if best == nil || betterComplex(result, best, r.cfg.Compute.Tolerance) {
			best = result
		}
	}
	if best != nil {
		r.logger.Info("computation %s: major complex %s with big phi %.6f", id, best.Nodes, best.Phi)
	}
	if best != nil && r.repo != nil {
		if err := r.repo.SaveResult(ctx, best); err != nil {
			return nil, errors.Wrap(err, "failed to persist result")
		}
	}
	return best, nil
}

func betterComplex(a, b *phi.BigPhiResult, tolerance float64) bool {
	if a.Phi > b.Phi+tolerance {
		return true
	}
	if b.Phi > a.Phi+tolerance {
		return false
	}
	return len(a.Nodes) > len(b.Nodes)
}

// Results returns the configured result repository, or nil when
// persistence is disabled.
func (r *Runner) Results() ports.ResultRepository { return r.repo }
