// Package report turns algorithm results into flat records with the
// benchmark metrics and renders them as YAML.
package report

import (
	"io"
	"math"
	"slices"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"robust_selection/src/rsp"
)

// Values strictly between these bounds count as fractional.
const (
	fractionalLow  = 0.0001
	fractionalHigh = 0.9999
)

// Record holds one algorithm run on one instance. Metrics that cannot be
// computed are NaN.
type Record struct {
	Run       int    `yaml:"run"`
	Algorithm string `yaml:"algorithm"`
	Criterion string `yaml:"criterion"`
	Items     int    `yaml:"items"`
	Select    int    `yaml:"select"`
	Scenarios int    `yaml:"scenarios"`

	Selection []int   `yaml:"selection,flow"`
	Objective float64 `yaml:"objective"`
	LP        float64 `yaml:"lp"`
	Exact     float64 `yaml:"exact"`
	Dual      float64 `yaml:"dual"`

	Ratio           float64 `yaml:"ratio"`
	IntegralityGap  float64 `yaml:"integralityGap"`
	ObjectiveOverLP float64 `yaml:"objectiveOverLP"`
	APosteriori     float64 `yaml:"aPosteriori"`
	Guarantee       float64 `yaml:"guarantee"`
	Fractional      int     `yaml:"fractional"`
	FractionalShare float64 `yaml:"fractionalShare"`

	Seconds float64 `yaml:"seconds"`
}

// Ratio returns num/den, or NaN when den is zero.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// IntegralityGap is OPT/LP for MinMax and LP/OPT for MaxMin, so that it is
// never below one.
func IntegralityGap(criterion rsp.Criterion, lp, opt float64) float64 {
	if criterion == rsp.MaxMin {
		return Ratio(lp, opt)
	}
	return Ratio(opt, lp)
}

// CountFractional returns the number and share of strictly fractional
// values in x.
func CountFractional(x *mat.VecDense) (int, float64) {
	if x == nil || x.Len() == 0 {
		return 0, math.NaN()
	}
	count := 0
	for i := range x.Len() {
		if v := x.AtVec(i); v > fractionalLow && v < fractionalHigh {
			count++
		}
	}
	return count, float64(count) / float64(x.Len())
}

func newRecord(inst *rsp.Instance, p int, algorithm string, criterion rsp.Criterion, sol rsp.Solution, elapsed time.Duration) Record {
	return Record{
		Algorithm:       algorithm,
		Criterion:       criterion.String(),
		Items:           inst.NumItems,
		Select:          p,
		Scenarios:       inst.NumScenarios,
		Selection:       rsp.Selected(sol.Selection),
		Objective:       sol.Objective,
		LP:              math.NaN(),
		Exact:           math.NaN(),
		Dual:            math.NaN(),
		Ratio:           math.NaN(),
		IntegralityGap:  math.NaN(),
		ObjectiveOverLP: math.NaN(),
		APosteriori:     math.NaN(),
		Guarantee:       math.NaN(),
		FractionalShare: math.NaN(),
		Seconds:         elapsed.Seconds(),
	}
}

func (r *Record) setRelaxation(relax *rsp.Relaxation) {
	if relax == nil {
		return
	}
	r.LP = relax.Objective
	r.ObjectiveOverLP = Ratio(r.Objective, r.LP)
	r.Fractional, r.FractionalShare = CountFractional(relax.Fractional)
}

func FromMinMaxRounding(inst *rsp.Instance, p int, algorithm string, res *rsp.MinMaxRounding, elapsed time.Duration) Record {
	r := newRecord(inst, p, algorithm, rsp.MinMax, res.Solution, elapsed)
	r.setRelaxation(res.Relaxation)
	r.APosteriori = res.APosterioriBound()
	r.Guarantee = res.Guarantee
	return r
}

func FromMaxMinRounding(inst *rsp.Instance, p int, algorithm string, res *rsp.MaxMinRounding, elapsed time.Duration) Record {
	r := newRecord(inst, p, algorithm, rsp.MaxMin, res.Solution, elapsed)
	r.setRelaxation(res.Relaxation)
	r.Guarantee = res.Guarantee
	return r
}

// FromPrimalDual builds the record of a primal-dual run. relax may be nil;
// when given, the objective is also compared with the LP value.
func FromPrimalDual(inst *rsp.Instance, p int, algorithm string, res *rsp.PrimalDual, relax *rsp.Relaxation, elapsed time.Duration) Record {
	r := newRecord(inst, p, algorithm, rsp.MinMax, res.Solution, elapsed)
	r.setRelaxation(relax)
	r.Dual = res.DualObjective
	r.APosteriori = res.APosterioriBound()
	r.Guarantee = res.Guarantee
	return r
}

// WithExact fills the metrics that need the optimum.
func (r *Record) WithExact(exact *rsp.ExactSolution) {
	if exact == nil {
		return
	}
	r.Exact = exact.Objective
	r.Ratio = Ratio(r.Objective, r.Exact)
	criterion, err := rsp.ParseCriterion(r.Criterion)
	if err != nil {
		return
	}
	r.IntegralityGap = IntegralityGap(criterion, r.LP, r.Exact)
}

// Summary aggregates the records of one algorithm. NaN values are left
// out of every mean.
type Summary struct {
	Algorithm           string  `yaml:"algorithm"`
	Runs                int     `yaml:"runs"`
	MeanRatio           float64 `yaml:"meanRatio"`
	StdDevRatio         float64 `yaml:"stdDevRatio"`
	WorstRatio          float64 `yaml:"worstRatio"`
	MeanIntegralityGap  float64 `yaml:"meanIntegralityGap"`
	MeanObjectiveOverLP float64 `yaml:"meanObjectiveOverLP"`
	MeanAPosteriori     float64 `yaml:"meanAPosteriori"`
	MeanFractionalShare float64 `yaml:"meanFractionalShare"`
	MeanSeconds         float64 `yaml:"meanSeconds"`
}

func finite(values []float64) []float64 {
	return slices.DeleteFunc(values, func(v float64) bool {
		return math.IsNaN(v) || math.IsInf(v, 0)
	})
}

func mean(values []float64) float64 {
	values = finite(values)
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

func column(records []Record, get func(Record) float64) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = get(r)
	}
	return out
}

// Summarize groups records by algorithm, in order of first appearance.
func Summarize(records []Record) []Summary {
	var order []string
	groups := make(map[string][]Record)
	for _, r := range records {
		if _, ok := groups[r.Algorithm]; !ok {
			order = append(order, r.Algorithm)
		}
		groups[r.Algorithm] = append(groups[r.Algorithm], r)
	}

	summaries := make([]Summary, 0, len(order))
	for _, name := range order {
		group := groups[name]
		ratios := finite(column(group, func(r Record) float64 { return r.Ratio }))

		s := Summary{
			Algorithm:           name,
			Runs:                len(group),
			MeanRatio:           math.NaN(),
			StdDevRatio:         math.NaN(),
			WorstRatio:          math.NaN(),
			MeanIntegralityGap:  mean(column(group, func(r Record) float64 { return r.IntegralityGap })),
			MeanObjectiveOverLP: mean(column(group, func(r Record) float64 { return r.ObjectiveOverLP })),
			MeanAPosteriori:     mean(column(group, func(r Record) float64 { return r.APosteriori })),
			MeanFractionalShare: mean(column(group, func(r Record) float64 { return r.FractionalShare })),
			MeanSeconds:         mean(column(group, func(r Record) float64 { return r.Seconds })),
		}
		if len(ratios) > 0 {
			s.MeanRatio, s.StdDevRatio = stat.MeanStdDev(ratios, nil)
			if len(ratios) == 1 {
				s.StdDevRatio = 0
			}
			// MinMax ratios are >= 1 and MaxMin ratios <= 1, the worst is
			// the one farthest from 1.
			if group[0].Criterion == rsp.MaxMin.String() {
				s.WorstRatio = floats.Min(ratios)
			} else {
				s.WorstRatio = floats.Max(ratios)
			}
		}
		summaries = append(summaries, s)
	}
	return summaries
}

type Report struct {
	Records   []Record  `yaml:"records"`
	Summaries []Summary `yaml:"summaries,omitempty"`
}

func Write(w io.Writer, doc any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "error encoding report")
	}
	return errors.WithStack(enc.Close())
}
