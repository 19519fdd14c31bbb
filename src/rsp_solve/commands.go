package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"robust_selection/src/bench"
	"robust_selection/src/config"
	"robust_selection/src/report"
	"robust_selection/src/rsp"
)

type app struct {
	configFile string
	cfg        *config.Config
	solvers    bench.Solvers
	ctx        context.Context
	sync       func() error
}

func newLogger(verbose bool) (logr.Logger, func() error, error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		// zapr maps V(1) to zap level -1.
		zc.Level = zap.NewAtomicLevelAt(zapcore.Level(-1))
	}
	zl, err := zc.Build()
	if err != nil {
		return logr.Discard(), nil, err
	}
	return zapr.NewLogger(zl), zl.Sync, nil
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.New(), a.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	solvers, err := newSolvers(cfg)
	if err != nil {
		return err
	}
	logger, sync, err := newLogger(cfg.Verbose)
	if err != nil {
		return errors.Wrap(err, "error building logger")
	}
	a.cfg, a.solvers, a.sync = cfg, solvers, sync
	a.ctx = logr.NewContext(cmd.Context(), logger)
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) {
	if a.sync != nil {
		_ = a.sync()
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:               "rsp_solve",
		Short:             "Approximate the robust selection problem with discrete scenarios",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "YAML configuration file")
	pf.String("oracle", config.OracleSimplex, "Relaxation and exact solver: simplex, highs or lpsolve")
	pf.StringSlice("algorithms", nil, "Algorithms to run: rounding-minmax, rounding-maxmin, primal-dual")
	pf.Float64("feas-tol", rsp.DefaultFeasTol, "Slack below -feas-tol aborts the primal-dual algorithm")
	pf.Float64("select-tol", rsp.DefaultSelectTol, "Slacks within select-tol of the minimum are tight")
	pf.Int64("seed", 1, "Seed of the random block fill and of the benchmark instances")
	pf.BoolP("verbose", "v", false, "Log per-iteration diagnostics")
	pf.Bool("exact", false, "Also solve to optimality and report ratios")
	pf.Int("exact-limit", 5_000_000, "Largest number of selections the simplex backend enumerates")

	rootCmd.AddCommand(newSolveCmd(a), newBenchCmd(a))
	return rootCmd
}

type instanceResult struct {
	Instance string          `yaml:"instance"`
	Records  []report.Record `yaml:"records"`
}

func newSolveCmd(a *app) *cobra.Command {
	var paths []string
	var p int
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Run the algorithms on instance files",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths = append(paths, args...)
			if len(paths) == 0 {
				return errors.New("must specify at least a path")
			}
			return a.solve(cmd.OutOrStdout(), cmd.ErrOrStderr(), paths, p)
		},
	}
	cmd.Flags().Func("inst", "a list of instance file paths, separated by a whitespace", func(s string) error {
		paths = append(paths, strings.Fields(s)...)
		return nil
	})
	cmd.Flags().IntVarP(&p, "cardinality", "p", 1, "Number of items to select")
	return cmd
}

func (a *app) solve(out, errOut io.Writer, paths []string, p int) error {
	var results []instanceResult
	for _, path := range paths {
		inst, err := rsp.LoadInstance(path)
		if err != nil {
			fmt.Fprintf(errOut, "Error for instance \"%v\": %v. Skipping...\n", path, err)
			continue
		}
		records, err := bench.RunInstance(a.ctx, inst, p, a.cfg.Algorithms, a.solvers, a.cfg.PrimalDualOptions(), a.cfg.Seed)
		if err != nil {
			fmt.Fprintf(errOut, "An error occured while solving instance \"%v\": %v\n", path, err)
			continue
		}
		results = append(results, instanceResult{Instance: path, Records: records})
	}
	if len(results) > 0 {
		if err := report.Write(out, results); err != nil {
			return err
		}
	}
	if failed := len(paths) - len(results); failed > 0 {
		return errors.Errorf("%d of %d instances failed", failed, len(paths))
	}
	return nil
}

func newBenchCmd(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the algorithms on random instances and summarize the ratios",
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := bench.Run(a.ctx, a.cfg, a.solvers)
			if err != nil {
				return err
			}
			if outPath == "" {
				return report.Write(cmd.OutOrStdout(), rep)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return errors.WithStack(err)
			}
			if err := report.Write(f, rep); err != nil {
				f.Close()
				return err
			}
			return errors.WithStack(f.Close())
		},
	}
	f := cmd.Flags()
	f.StringVar(&outPath, "out", "", "Write the report to this file instead of stdout")
	f.Int("items", 20, "Number of items n")
	f.Int("select", 10, "Number of items to select p")
	f.Int("scenarios", 3, "Number of scenarios k")
	f.Int("runs", 50, "Number of random instances")
	f.Int("cost-range", 100, "Costs are drawn uniformly from 1..cost-range")
	f.Int("workers", 4, "Instances solved concurrently")
	return cmd
}
