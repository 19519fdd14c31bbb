// Package highsmip solves the relaxation and the integer problem with the
// HiGHS solver.
package highsmip

import (
	"context"
	"fmt"
	"math"

	"github.com/lanl/highs"
	"gonum.org/v1/gonum/mat"

	"robust_selection/src/rsp"
)

const backend = "highs"

type Oracle struct{}

// defEpigraph builds the epigraph model with columns x (n) followed by z.
func defEpigraph(inst *rsp.Instance, p int, criterion rsp.Criterion) *highs.Model {
	n := inst.NumItems
	numCols := n + 1

	lp := new(highs.Model)
	lp.Maximize = criterion == rsp.MaxMin
	lp.ColCosts = make([]float64, numCols)
	lp.ColCosts[n] = 1
	lp.ColLower = make([]float64, numCols)
	lp.ColUpper = make([]float64, numCols)
	for j := range n {
		lp.ColUpper[j] = 1
	}
	lp.ColUpper[n] = math.Inf(1)

	ones := make([]float64, numCols)
	for j := range n {
		ones[j] = 1
	}
	lp.AddDenseRow(float64(p), ones, float64(p))

	row := make([]float64, numCols)
	for s := range inst.NumScenarios {
		copy(row, inst.Costs.RawRowView(s))
		row[n] = -1
		if criterion == rsp.MaxMin {
			lp.AddDenseRow(0, row, math.Inf(1))
		} else {
			lp.AddDenseRow(math.Inf(-1), row, 0)
		}
	}
	return lp
}

func (o *Oracle) run(ctx context.Context, lp *highs.Model, n int) (*mat.VecDense, float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, rsp.NewOracleError(backend, err)
	}
	solution, err := lp.Solve()
	if err != nil {
		return nil, 0, rsp.NewOracleError(backend, err)
	}
	if solution.Status != highs.Optimal {
		return nil, 0, rsp.NewOracleError(backend, fmt.Errorf("status: %v", solution.Status.String()))
	}
	return mat.NewVecDense(n, solution.ColumnPrimal[:n]), solution.Objective, nil
}

func (o *Oracle) SolveRelaxation(ctx context.Context, inst *rsp.Instance, p int, criterion rsp.Criterion) (*rsp.Relaxation, error) {
	if err := inst.CheckInput(p, criterion); err != nil {
		return nil, err
	}
	x, objective, err := o.run(ctx, defEpigraph(inst, p, criterion), inst.NumItems)
	if err != nil {
		return nil, err
	}
	return &rsp.Relaxation{Objective: objective, Fractional: x}, nil
}

func (o *Oracle) SolveExact(ctx context.Context, inst *rsp.Instance, p int, criterion rsp.Criterion) (*rsp.ExactSolution, error) {
	if err := inst.CheckInput(p, criterion); err != nil {
		return nil, err
	}
	lp := defEpigraph(inst, p, criterion)
	// z keeps the zero value, a continuous column.
	lp.VarTypes = make([]highs.VariableType, inst.NumItems+1)
	for j := range inst.NumItems {
		lp.VarTypes[j] = highs.IntegerType
	}

	x, _, err := o.run(ctx, lp, inst.NumItems)
	if err != nil {
		return nil, err
	}
	for i := range x.Len() {
		x.SetVec(i, math.Round(x.AtVec(i)))
	}
	// The worst case is recomputed from the rounded selection so that the
	// objective carries no solver tolerance.
	return &rsp.ExactSolution{
		Solution: rsp.Solution{
			Selection: x,
			Objective: inst.WorstCase(x, criterion),
		},
	}, nil
}
