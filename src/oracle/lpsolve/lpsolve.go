// Package lpsolve solves the relaxation and the integer problem with
// lp_solve.
package lpsolve

import (
	"context"
	"fmt"
	"math"

	"github.com/draffensperger/golp"
	"gonum.org/v1/gonum/mat"

	"robust_selection/src/rsp"
)

const backend = "lp_solve"

type Oracle struct{}

// defEpigraph builds the model with columns x (n) followed by z. lp_solve
// columns default to [0, +inf), so the upper bound on x is a row.
func defEpigraph(inst *rsp.Instance, p int, criterion rsp.Criterion, binary bool) (*golp.LP, error) {
	n := inst.NumItems
	lp := golp.NewLP(0, n+1)
	lp.SetVerboseLevel(golp.NEUTRAL)

	obj := make([]float64, n+1)
	obj[n] = 1
	lp.SetObjFn(obj)
	if criterion == rsp.MaxMin {
		lp.SetMaximize()
	}

	card := make([]golp.Entry, n)
	for j := range n {
		card[j] = golp.Entry{Col: j, Val: 1}
	}
	if err := lp.AddConstraintSparse(card, golp.EQ, float64(p)); err != nil {
		return nil, err
	}

	ct := golp.LE
	if criterion == rsp.MaxMin {
		ct = golp.GE
	}
	row := make([]float64, n+1)
	for s := range inst.NumScenarios {
		copy(row, inst.Costs.RawRowView(s))
		row[n] = -1
		if err := lp.AddConstraint(row, ct, 0); err != nil {
			return nil, err
		}
	}

	for j := range n {
		if binary {
			lp.SetBinary(j, true)
			continue
		}
		if err := lp.AddConstraintSparse([]golp.Entry{{Col: j, Val: 1}}, golp.LE, 1); err != nil {
			return nil, err
		}
	}
	return lp, nil
}

func solve(ctx context.Context, inst *rsp.Instance, p int, criterion rsp.Criterion, binary bool) (*mat.VecDense, float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, rsp.NewOracleError(backend, err)
	}
	lp, err := defEpigraph(inst, p, criterion, binary)
	if err != nil {
		return nil, 0, rsp.NewOracleError(backend, err)
	}
	if status := lp.Solve(); status != golp.OPTIMAL {
		return nil, 0, rsp.NewOracleError(backend, fmt.Errorf("status: %v", status))
	}
	vars := lp.Variables()
	return mat.NewVecDense(inst.NumItems, vars[:inst.NumItems]), lp.Objective(), nil
}

func (o *Oracle) SolveRelaxation(ctx context.Context, inst *rsp.Instance, p int, criterion rsp.Criterion) (*rsp.Relaxation, error) {
	if err := inst.CheckInput(p, criterion); err != nil {
		return nil, err
	}
	x, objective, err := solve(ctx, inst, p, criterion, false)
	if err != nil {
		return nil, err
	}
	return &rsp.Relaxation{Objective: objective, Fractional: x}, nil
}

func (o *Oracle) SolveExact(ctx context.Context, inst *rsp.Instance, p int, criterion rsp.Criterion) (*rsp.ExactSolution, error) {
	if err := inst.CheckInput(p, criterion); err != nil {
		return nil, err
	}
	x, _, err := solve(ctx, inst, p, criterion, true)
	if err != nil {
		return nil, err
	}
	for i := range x.Len() {
		x.SetVec(i, math.Round(x.AtVec(i)))
	}
	return &rsp.ExactSolution{
		Solution: rsp.Solution{
			Selection: x,
			Objective: inst.WorstCase(x, criterion),
		},
	}, nil
}
