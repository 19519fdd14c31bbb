package main

import (
	"github.com/pkg/errors"

	"robust_selection/src/bench"
	"robust_selection/src/config"
	"robust_selection/src/oracle/highsmip"
	"robust_selection/src/oracle/lpsolve"
	"robust_selection/src/oracle/simplex"
)

func newSolvers(cfg *config.Config) (bench.Solvers, error) {
	var solvers bench.Solvers
	switch cfg.Oracle {
	case config.OracleSimplex:
		solvers.Relaxation = &simplex.Oracle{}
		if cfg.Exact {
			solvers.Exact = &simplex.Enumerator{Limit: cfg.ExactLimit}
		}
	case config.OracleHighs:
		o := &highsmip.Oracle{}
		solvers.Relaxation = o
		if cfg.Exact {
			solvers.Exact = o
		}
	case config.OracleLPSolve:
		o := &lpsolve.Oracle{}
		solvers.Relaxation = o
		if cfg.Exact {
			solvers.Exact = o
		}
	default:
		return solvers, errors.Errorf("unknown oracle %q", cfg.Oracle)
	}
	return solvers, nil
}
