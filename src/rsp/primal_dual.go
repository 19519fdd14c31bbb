package rsp

import (
	"context"
	"math"
	"slices"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultFeasTol   = 1e-12
	DefaultSelectTol = 1e-9
)

type PrimalDualOptions struct {
	// FeasTol absorbs negative slacks caused by rounding. Anything below
	// -FeasTol aborts the run.
	FeasTol float64
	// SelectTol decides which slacks count as tight at the new level.
	SelectTol float64
}

func (o PrimalDualOptions) withDefaults() PrimalDualOptions {
	if o.FeasTol == 0 {
		o.FeasTol = DefaultFeasTol
	}
	if o.SelectTol == 0 {
		o.SelectTol = DefaultSelectTol
	}
	return o
}

func (o PrimalDualOptions) validate() error {
	for _, tol := range []float64{o.FeasTol, o.SelectTol} {
		if math.IsNaN(tol) || math.IsInf(tol, 0) || tol < 0 {
			return invariantf("tolerances must be finite and non-negative, got feas %g, select %g", o.FeasTol, o.SelectTol)
		}
	}
	return nil
}

type dualState struct {
	weights  []float64
	gamma    []float64
	level    float64
	selected []bool
}

func newDualState(weights []float64) *dualState {
	return &dualState{
		weights:  weights,
		gamma:    make([]float64, len(weights)),
		selected: make([]bool, len(weights)),
	}
}

// step raises the dual level until a constraint of an unselected item
// becomes tight and moves that item into the selection.
func (st *dualState) step(logger logr.Logger, iteration int, opts PrimalDualOptions) (DualStep, error) {
	slack := make([]float64, len(st.weights))
	delta := math.Inf(1)
	argmin := -1
	for i, w := range st.weights {
		if st.selected[i] {
			continue
		}
		sigma := st.gamma[i] - (st.level - w)
		if math.IsNaN(sigma) || sigma < -opts.FeasTol {
			return DualStep{}, &NumericalError{Iteration: iteration, Item: i, Slack: sigma, Tolerance: opts.FeasTol}
		}
		if sigma < 0 {
			sigma = 0
		}
		slack[i] = sigma
		if sigma < delta {
			delta = sigma
			argmin = i
		}
	}
	if argmin < 0 {
		return DualStep{}, invariantf("no unselected item left at iteration %d", iteration)
	}

	st.level += delta
	for i, w := range st.weights {
		if st.selected[i] {
			st.gamma[i] = math.Max(st.gamma[i], st.level-w)
		}
	}

	tight := make([]int, 0)
	for i := range st.weights {
		if !st.selected[i] && math.Abs(slack[i]-delta) <= opts.SelectTol {
			tight = append(tight, i)
		}
	}
	fallback := len(tight) == 0
	if fallback {
		tight = append(tight, argmin)
	}

	// Indices are ascending, so a strict comparison keeps the smallest index
	// among equal weights.
	chosen := tight[0]
	for _, i := range tight[1:] {
		if st.weights[i] < st.weights[chosen] {
			chosen = i
		}
	}
	st.selected[chosen] = true

	if v := logger.V(1); v.Enabled() {
		st.logTight(v, iteration, tight)
	}

	return DualStep{
		Item:     chosen,
		Delta:    delta,
		Level:    st.level,
		Tight:    len(tight),
		Fallback: fallback,
		Gamma:    slices.Clone(st.gamma),
	}, nil
}

// logTight reports how far the newly tight constraints are from the level.
// For items outside the selection gamma is zero, so w should match a.
func (st *dualState) logTight(logger logr.Logger, iteration int, tight []int) {
	vals := make([]float64, len(tight))
	devSlack := 0.0
	for j, i := range tight {
		vals[j] = st.weights[i]
		devSlack = math.Max(devSlack, math.Abs(st.gamma[i]-(st.level-st.weights[i])))
	}
	spread := floats.Max(vals) - floats.Min(vals)
	devLevel := math.Max(math.Abs(floats.Max(vals)-st.level), math.Abs(floats.Min(vals)-st.level))
	logger.Info("dual step",
		"iteration", iteration,
		"tight", len(tight),
		"level", st.level,
		"weights", vals,
		"spread", spread,
		"maxDeviationFromLevel", devLevel,
		"maxSlack", devSlack,
	)
}

// PrimalDualMinMax builds a selection of p items together with a dual
// certificate by monotone dual ascent under uniform scenario weights. The
// dual objective p*a - sum(gamma) is a lower bound on the optimal worst-case
// cost. It does not call any oracle.
func (inst *Instance) PrimalDualMinMax(ctx context.Context, p int, opts PrimalDualOptions) (*PrimalDual, error) {
	logger := logr.FromContextOrDiscard(ctx).WithName("primal-dual-minmax")
	if err := inst.CheckInput(p, MinMax); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	weights := inst.Weights()
	st := newDualState(slices.Clone(weights.RawVector().Data))

	steps := make([]DualStep, 0, p)
	fallbacks := 0
	items := make([]int, 0, p)
	for iteration := range p {
		step, err := st.step(logger, iteration, opts)
		if err != nil {
			return nil, err
		}
		if step.Fallback {
			fallbacks++
			logger.Info("no tight constraint within tolerance, using the minimum slack",
				"iteration", iteration, "item", step.Item+1)
		}
		steps = append(steps, step)
		items = append(items, step.Item)
	}

	selection := inst.selectionVector(items)
	objective := inst.WorstCase(selection, MinMax)
	dual := float64(p)*st.level - floats.Sum(st.gamma)

	logger.Info("dual ascent finished",
		"objective", objective,
		"dualObjective", dual,
		"level", st.level,
		"fallbacks", fallbacks,
	)

	return &PrimalDual{
		Solution: Solution{
			Selection: selection,
			Objective: objective,
		},
		Certificate: &DualCertificate{
			Level:   st.level,
			Gamma:   mat.NewVecDense(inst.NumItems, st.gamma),
			Weights: weights,
		},
		DualObjective: dual,
		Steps:         steps,
		Fallbacks:     fallbacks,
		Guarantee:     float64(inst.NumScenarios),
	}, nil
}
