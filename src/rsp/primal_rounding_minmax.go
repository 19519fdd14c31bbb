package rsp

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/mat"
)

// tieBucket snaps v to a multiple of eps. Values in the same bucket are
// ties.
func tieBucket(v float64) float64 {
	return math.Round(v / eps)
}

// rankByFraction sorts items by fractional value, largest first. Ties keep
// ascending index order. skipZero leaves out items whose value is 0.
func rankByFraction(x *mat.VecDense, skipZero bool) []RankedItem {
	ranked := make([]RankedItem, 0, x.Len())
	buckets := make(map[int]float64, x.Len())
	for i := range x.Len() {
		v := x.AtVec(i)
		if skipZero && v <= 0 {
			continue
		}
		ranked = append(ranked, RankedItem{Item: i, Value: v})
		buckets[i] = tieBucket(v)
	}
	slices.SortFunc(ranked, func(a, b RankedItem) int {
		if c := cmp.Compare(buckets[b.Item], buckets[a.Item]); c != 0 {
			return c
		}
		return cmp.Compare(a.Item, b.Item)
	})
	return ranked
}

// PrimalRoundingMinMax keeps the p items with the largest fractional value in
// the optimal relaxation. The smallest kept value tau bounds the
// approximation ratio of this instance by 1/tau.
func (inst *Instance) PrimalRoundingMinMax(ctx context.Context, oracle RelaxationOracle, p int) (*MinMaxRounding, error) {
	logger := logr.FromContextOrDiscard(ctx).WithName("primal-rounding-minmax")
	if err := inst.CheckInput(p, MinMax); err != nil {
		return nil, err
	}

	relaxation, err := inst.relax(ctx, oracle, p, MinMax)
	if err != nil {
		return nil, err
	}

	top := rankByFraction(relaxation.Fractional, false)[:p]
	items := make([]int, p)
	tau := 1.0
	for j, r := range top {
		items[j] = r.Item
		tau = math.Min(tau, r.Value)
	}
	selection := inst.selectionVector(items)
	objective := inst.WorstCase(selection, MinMax)

	if v := logger.V(1); v.Enabled() {
		v.Info("relaxed values", "fractional", relaxation.Fractional.RawVector().Data)
		v.Info("scenario totals of rounded solution", "totals", inst.ScenarioTotals(selection).RawVector().Data)
	}
	logger.Info("rounded relaxation",
		"lpObjective", relaxation.Objective,
		"objective", objective,
		"tau", tau,
	)

	return &MinMaxRounding{
		Solution: Solution{
			Selection: selection,
			Objective: objective,
		},
		Relaxation: relaxation,
		Tau:        tau,
		Guarantee:  float64(min(inst.NumScenarios, inst.NumItems-p+1)),
	}, nil
}
