package simplex

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/combin"

	"robust_selection/src/rsp"
)

const (
	enumerationBackend = "enumeration"
	// DefaultLimit caps the number of selections Enumerator visits.
	DefaultLimit  = 5_000_000
	ctxCheckEvery = 4096
)

// Enumerator solves the integer problem by visiting every subset of p items.
// Ties keep the lexicographically first subset.
type Enumerator struct {
	Limit int
}

func (e *Enumerator) SolveExact(ctx context.Context, inst *rsp.Instance, p int, criterion rsp.Criterion) (*rsp.ExactSolution, error) {
	if err := inst.CheckInput(p, criterion); err != nil {
		return nil, err
	}
	limit := e.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	count := combin.GeneralizedBinomial(float64(inst.NumItems), float64(p))
	if count > float64(limit) {
		return nil, rsp.NewOracleError(enumerationBackend,
			fmt.Errorf("%.0f selections exceed the limit of %d", count, limit))
	}

	best := math.Inf(1)
	if criterion == rsp.MaxMin {
		best = math.Inf(-1)
	}
	var bestComb []int

	totals := mat.NewVecDense(inst.NumScenarios, nil)
	comb := make([]int, p)
	gen := combin.NewCombinationGenerator(inst.NumItems, p)
	for visited := 0; gen.Next(); visited++ {
		if visited%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, rsp.NewOracleError(enumerationBackend, err)
			}
		}
		gen.Combination(comb)
		totals.Zero()
		for _, i := range comb {
			totals.AddVec(totals, inst.Costs.ColView(i))
		}

		var value float64
		if criterion == rsp.MaxMin {
			value = mat.Min(totals)
			if value <= best {
				continue
			}
		} else {
			value = mat.Max(totals)
			if value >= best {
				continue
			}
		}
		best = value
		bestComb = append(bestComb[:0], comb...)
	}

	selection := mat.NewVecDense(inst.NumItems, nil)
	for _, i := range bestComb {
		selection.SetVec(i, 1)
	}
	return &rsp.ExactSolution{
		Solution: rsp.Solution{
			Selection: selection,
			Objective: best,
		},
	}, nil
}
