package rsp

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

type Criterion int

const (
	// MinMax minimizes the maximum scenario cost.
	MinMax Criterion = iota
	// MaxMin maximizes the minimum scenario profit.
	MaxMin
)

func (c Criterion) String() string {
	switch c {
	case MinMax:
		return "minmax"
	case MaxMin:
		return "maxmin"
	}
	return "unknown"
}

func ParseCriterion(name string) (Criterion, error) {
	switch name {
	case "minmax":
		return MinMax, nil
	case "maxmin":
		return MaxMin, nil
	}
	return 0, invariantf("unrecognized criterion %q", name)
}

func (c Criterion) valid() bool {
	return c == MinMax || c == MaxMin
}

// RelaxationOracle solves the continuous relaxation of the epigraph
// formulation: optimize z subject to sum x = p, 0 <= x <= 1 and one
// scenario constraint per scenario.
type RelaxationOracle interface {
	SolveRelaxation(ctx context.Context, inst *Instance, p int, criterion Criterion) (*Relaxation, error)
}

// ExactOracle solves the integer problem to optimality.
type ExactOracle interface {
	SolveExact(ctx context.Context, inst *Instance, p int, criterion Criterion) (*ExactSolution, error)
}

// CheckInput validates everything an algorithm needs before it starts.
func (inst *Instance) CheckInput(p int, criterion Criterion) error {
	if inst == nil || inst.Costs == nil {
		return invariantf("instance is nil")
	}
	if r, c := inst.Costs.Dims(); r != inst.NumScenarios || c != inst.NumItems {
		return invariantf("cost matrix is %dx%d, want %dx%d", r, c, inst.NumScenarios, inst.NumItems)
	}
	if !criterion.valid() {
		return invariantf("unrecognized criterion %d", int(criterion))
	}
	return inst.ValidateCardinality(p)
}

// relax queries the oracle and checks the returned fractional solution.
func (inst *Instance) relax(ctx context.Context, oracle RelaxationOracle, p int, criterion Criterion) (*Relaxation, error) {
	if oracle == nil {
		return nil, invariantf("relaxation oracle is nil")
	}
	relaxation, err := oracle.SolveRelaxation(ctx, inst, p, criterion)
	if err != nil {
		if errors.Is(err, ErrOracleFailure) {
			return nil, err
		}
		return nil, NewOracleError("relaxation", err)
	}
	if err := inst.checkFractional(relaxation, p); err != nil {
		return nil, NewOracleError("relaxation", err)
	}
	return relaxation, nil
}

func (inst *Instance) checkFractional(relaxation *Relaxation, p int) error {
	if relaxation == nil || relaxation.Fractional == nil {
		return errors.New("empty relaxation")
	}
	x := relaxation.Fractional
	if x.Len() != inst.NumItems {
		return errors.Errorf("fractional solution has %d entries, want %d", x.Len(), inst.NumItems)
	}
	for i := range x.Len() {
		v := x.AtVec(i)
		if math.IsNaN(v) || v < -eps || v > 1+eps {
			return errors.Errorf("fractional value of item %d is %g", i+1, v)
		}
	}
	// Each entry may carry the solver tolerance.
	if sum := mat.Sum(x); math.Abs(sum-float64(p)) > eps*float64(inst.NumItems)+1e-6 {
		return errors.Errorf("fractional values sum to %g, want %d", sum, p)
	}
	return nil
}
