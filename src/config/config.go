// Package config loads run settings from defaults, an optional YAML file,
// RSP_ environment variables and command line flags, in increasing order
// of precedence.
package config

import (
	"math"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"robust_selection/src/rsp"
)

const EnvPrefix = "RSP"

// Oracle backends.
const (
	OracleSimplex = "simplex"
	OracleHighs   = "highs"
	OracleLPSolve = "lpsolve"
)

// Algorithm names.
const (
	AlgMinMaxRounding = "rounding-minmax"
	AlgMaxMinRounding = "rounding-maxmin"
	AlgPrimalDual     = "primal-dual"
)

var (
	oracles    = []string{OracleSimplex, OracleHighs, OracleLPSolve}
	algorithms = []string{AlgMinMaxRounding, AlgMaxMinRounding, AlgPrimalDual}
)

// AlgorithmCriterion returns the criterion an algorithm optimizes.
func AlgorithmCriterion(name string) (rsp.Criterion, error) {
	switch name {
	case AlgMinMaxRounding, AlgPrimalDual:
		return rsp.MinMax, nil
	case AlgMaxMinRounding:
		return rsp.MaxMin, nil
	}
	return 0, errors.Errorf("unknown algorithm %q", name)
}

type Bench struct {
	Items     int `mapstructure:"items" yaml:"items"`
	Select    int `mapstructure:"select" yaml:"select"`
	Scenarios int `mapstructure:"scenarios" yaml:"scenarios"`
	Runs      int `mapstructure:"runs" yaml:"runs"`
	CostRange int `mapstructure:"costRange" yaml:"costRange"`
	Workers   int `mapstructure:"workers" yaml:"workers"`
}

type Config struct {
	Oracle     string   `mapstructure:"oracle" yaml:"oracle"`
	Algorithms []string `mapstructure:"algorithms" yaml:"algorithms"`

	// FeasTol and SelectTol tune the primal-dual algorithm, zero keeps the
	// algorithm's default.
	FeasTol   float64 `mapstructure:"feasTol" yaml:"feasTol"`
	SelectTol float64 `mapstructure:"selectTol" yaml:"selectTol"`

	Seed    int64 `mapstructure:"seed" yaml:"seed"`
	Verbose bool  `mapstructure:"verbose" yaml:"verbose"`

	// Exact also solves every instance to optimality for the ratios.
	Exact      bool `mapstructure:"exact" yaml:"exact"`
	ExactLimit int  `mapstructure:"exactLimit" yaml:"exactLimit"`

	Bench Bench `mapstructure:"bench" yaml:"bench"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("oracle", OracleSimplex)
	v.SetDefault("algorithms", slices.Clone(algorithms))
	v.SetDefault("feasTol", rsp.DefaultFeasTol)
	v.SetDefault("selectTol", rsp.DefaultSelectTol)
	v.SetDefault("seed", 1)
	v.SetDefault("verbose", false)
	v.SetDefault("exact", false)
	v.SetDefault("exactLimit", 5_000_000)
	v.SetDefault("bench.items", 20)
	v.SetDefault("bench.select", 10)
	v.SetDefault("bench.scenarios", 3)
	v.SetDefault("bench.runs", 50)
	v.SetDefault("bench.costRange", 100)
	v.SetDefault("bench.workers", 4)
}

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"oracle":      "oracle",
	"algorithms":  "algorithms",
	"feas-tol":    "feasTol",
	"select-tol":  "selectTol",
	"seed":        "seed",
	"verbose":     "verbose",
	"exact":       "exact",
	"exact-limit": "exactLimit",
	"items":       "bench.items",
	"select":      "bench.select",
	"scenarios":   "bench.scenarios",
	"runs":        "bench.runs",
	"cost-range":  "bench.costRange",
	"workers":     "bench.workers",
}

// Load reads the configuration. file may be empty. Flags in fs listed in
// flagKeys override every other source when set.
func Load(v *viper.Viper, file string, fs *pflag.FlagSet) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "error reading config file %s", file)
		}
	}
	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
				bindErr = v.BindPFlag(key, f)
			}
		})
		if bindErr != nil {
			return nil, errors.Wrap(bindErr, "error binding flags")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "error unmarshalling config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks for invalid configuration values.
func (c *Config) Validate() error {
	if !slices.Contains(oracles, c.Oracle) {
		return errors.Errorf("oracle must be one of %v, got %q", oracles, c.Oracle)
	}
	if len(c.Algorithms) == 0 {
		return errors.New("at least one algorithm is required")
	}
	for _, name := range c.Algorithms {
		if !slices.Contains(algorithms, name) {
			return errors.Errorf("algorithm must be one of %v, got %q", algorithms, name)
		}
	}
	for name, tol := range map[string]float64{"feasTol": c.FeasTol, "selectTol": c.SelectTol} {
		if math.IsNaN(tol) || math.IsInf(tol, 0) || tol < 0 {
			return errors.Errorf("%s must be a finite value >= 0, got %g", name, tol)
		}
	}
	if c.ExactLimit < 0 {
		return errors.Errorf("exactLimit must be >= 0, got %d", c.ExactLimit)
	}
	return nil
}

// Validate checks the bench section. Only the benchmark reads it, so
// Config.Validate leaves it out.
func (b *Bench) Validate() error {
	if b.Items < 1 {
		return errors.Errorf("bench.items must be >= 1, got %d", b.Items)
	}
	if b.Select < 1 || b.Select > b.Items {
		return errors.Errorf("bench.select must be between 1 and %d, got %d", b.Items, b.Select)
	}
	if b.Scenarios < 1 {
		return errors.Errorf("bench.scenarios must be >= 1, got %d", b.Scenarios)
	}
	if b.Runs < 1 {
		return errors.Errorf("bench.runs must be >= 1, got %d", b.Runs)
	}
	if b.CostRange < 1 {
		return errors.Errorf("bench.costRange must be >= 1, got %d", b.CostRange)
	}
	if b.Workers < 1 {
		return errors.Errorf("bench.workers must be >= 1, got %d", b.Workers)
	}
	return nil
}

func (c *Config) PrimalDualOptions() rsp.PrimalDualOptions {
	return rsp.PrimalDualOptions{FeasTol: c.FeasTol, SelectTol: c.SelectTol}
}
