// Package bench runs the approximation algorithms on instances and
// collects report records, optionally against the exact optimum.
package bench

import (
	"context"
	"math/rand"
	"time"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"robust_selection/src/config"
	"robust_selection/src/report"
	"robust_selection/src/rsp"
)

// Solvers groups the oracles a run needs. Exact may be nil.
type Solvers struct {
	Relaxation rsp.RelaxationOracle
	Exact      rsp.ExactOracle
}

// RunInstance runs every algorithm on inst with cardinality p. seed drives
// the random fill of the MaxMin rounding.
func RunInstance(ctx context.Context, inst *rsp.Instance, p int, algorithms []string, solvers Solvers, opts rsp.PrimalDualOptions, seed int64) ([]report.Record, error) {
	logger := logr.FromContextOrDiscard(ctx)
	exact := make(map[rsp.Criterion]*rsp.ExactSolution)

	records := make([]report.Record, 0, len(algorithms))
	for _, name := range algorithms {
		start := time.Now()
		var rec report.Record
		switch name {
		case config.AlgMinMaxRounding:
			res, err := inst.PrimalRoundingMinMax(ctx, solvers.Relaxation, p)
			if err != nil {
				return nil, errors.Wrapf(err, "%s", name)
			}
			rec = report.FromMinMaxRounding(inst, p, name, res, time.Since(start))
		case config.AlgMaxMinRounding:
			res, err := inst.PrimalRoundingMaxMin(ctx, solvers.Relaxation, p, rand.New(rand.NewSource(seed)))
			if err != nil {
				return nil, errors.Wrapf(err, "%s", name)
			}
			rec = report.FromMaxMinRounding(inst, p, name, res, time.Since(start))
		case config.AlgPrimalDual:
			res, err := inst.PrimalDualMinMax(ctx, p, opts)
			if err != nil {
				return nil, errors.Wrapf(err, "%s", name)
			}
			elapsed := time.Since(start)
			var relax *rsp.Relaxation
			if solvers.Relaxation != nil {
				if relax, err = solvers.Relaxation.SolveRelaxation(ctx, inst, p, rsp.MinMax); err != nil {
					return nil, errors.Wrapf(err, "%s lp value", name)
				}
			}
			rec = report.FromPrimalDual(inst, p, name, res, relax, elapsed)
		default:
			return nil, errors.Errorf("unknown algorithm %q", name)
		}

		if solvers.Exact != nil {
			criterion, err := config.AlgorithmCriterion(name)
			if err != nil {
				return nil, err
			}
			opt, ok := exact[criterion]
			if !ok {
				if opt, err = solvers.Exact.SolveExact(ctx, inst, p, criterion); err != nil {
					return nil, errors.Wrapf(err, "exact %v", criterion)
				}
				exact[criterion] = opt
			}
			rec.WithExact(opt)
		}
		logger.V(1).Info("Algorithm finished", "algorithm", name, "objective", rec.Objective, "ratio", rec.Ratio)
		records = append(records, rec)
	}
	return records, nil
}

// Run solves cfg.Bench.Runs random instances with up to cfg.Bench.Workers
// running at once. Instances and fill seeds are drawn up front from
// cfg.Seed, so the records do not depend on scheduling.
func Run(ctx context.Context, cfg *config.Config, solvers Solvers) (*report.Report, error) {
	logger := logr.FromContextOrDiscard(ctx).WithName("bench")
	b := cfg.Bench
	if err := b.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	instances := make([]*rsp.Instance, b.Runs)
	seeds := make([]int64, b.Runs)
	for i := range b.Runs {
		inst, err := rsp.RandomInstance(rng, b.Items, b.Scenarios, b.CostRange)
		if err != nil {
			return nil, err
		}
		instances[i] = inst
		seeds[i] = rng.Int63()
	}

	results := make([][]report.Record, b.Runs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.Workers)
	for i := range b.Runs {
		g.Go(func() error {
			runCtx := logr.NewContext(gctx, logger.WithValues("run", i))
			records, err := RunInstance(runCtx, instances[i], b.Select, cfg.Algorithms, solvers, cfg.PrimalDualOptions(), seeds[i])
			if err != nil {
				return errors.Wrapf(err, "run %d", i)
			}
			for j := range records {
				records[j].Run = i
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var records []report.Record
	for _, r := range results {
		records = append(records, r...)
	}
	summaries := report.Summarize(records)
	logger.Info("Benchmark finished", "runs", b.Runs, "records", len(records))
	return &report.Report{Records: records, Summaries: summaries}, nil
}
