// Package simplex solves the robust selection relaxation with gonum's
// simplex method and the integer problem by enumerating all selections.
// Both run in-process without cgo.
package simplex

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"robust_selection/src/rsp"
)

const (
	backend        = "gonum-simplex"
	convergenceTol = 1e-10
	cleanTol       = 1e-9
)

type Oracle struct {
	// Tol is passed to lp.Simplex. Zero means convergenceTol.
	Tol float64
}

// standardForm builds
//
//	minimize   ±z
//	s.t.       sum x = p
//	           c_s x - z + s_s = 0   (MinMax)  or  c_s x - z - s_s = 0   (MaxMin)
//	           x_i + u_i = 1
//	           x, z, s, u >= 0
//
// with columns ordered x (n), z, s (k), u (n).
func standardForm(inst *rsp.Instance, p int, criterion rsp.Criterion) (c []float64, a *mat.Dense, b []float64) {
	n, k := inst.NumItems, inst.NumScenarios
	zCol := n
	numCols := 2*n + k + 1
	numRows := 1 + k + n

	c = make([]float64, numCols)
	if criterion == rsp.MaxMin {
		c[zCol] = -1
	} else {
		c[zCol] = 1
	}

	a = mat.NewDense(numRows, numCols, nil)
	b = make([]float64, numRows)

	for i := range n {
		a.Set(0, i, 1)
	}
	b[0] = float64(p)

	slackSign := 1.0
	if criterion == rsp.MaxMin {
		slackSign = -1
	}
	for s := range k {
		row := 1 + s
		for i, v := range inst.Costs.RawRowView(s) {
			a.Set(row, i, v)
		}
		a.Set(row, zCol, -1)
		a.Set(row, zCol+1+s, slackSign)
	}

	for i := range n {
		row := 1 + k + i
		a.Set(row, i, 1)
		a.Set(row, zCol+1+k+i, 1)
		b[row] = 1
	}
	return c, a, b
}

func clean(v float64) float64 {
	switch {
	case math.Abs(v) < cleanTol:
		return 0
	case math.Abs(v-1) < cleanTol:
		return 1
	}
	return v
}

func (o *Oracle) SolveRelaxation(ctx context.Context, inst *rsp.Instance, p int, criterion rsp.Criterion) (*rsp.Relaxation, error) {
	if err := inst.CheckInput(p, criterion); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, rsp.NewOracleError(backend, err)
	}
	tol := o.Tol
	if tol == 0 {
		tol = convergenceTol
	}

	c, a, b := standardForm(inst, p, criterion)
	optF, optX, err := lp.Simplex(c, a, b, tol, nil)
	if err != nil {
		return nil, rsp.NewOracleError(backend, err)
	}

	x := mat.NewVecDense(inst.NumItems, nil)
	for i := range inst.NumItems {
		x.SetVec(i, clean(optX[i]))
	}
	objective := optF
	if criterion == rsp.MaxMin {
		objective = -optF
	}
	return &rsp.Relaxation{
		Objective:  objective,
		Fractional: x,
	}, nil
}
