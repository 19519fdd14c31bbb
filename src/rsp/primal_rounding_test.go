package rsp

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// fixedOracle returns a precomputed relaxation.
type fixedOracle struct {
	objective  float64
	fractional []float64
	err        error
	calls      int
}

func (o *fixedOracle) SolveRelaxation(_ context.Context, inst *Instance, _ int, _ Criterion) (*Relaxation, error) {
	o.calls++
	if o.err != nil {
		return nil, o.err
	}
	return &Relaxation{
		Objective:  o.objective,
		Fractional: mat.NewVecDense(len(o.fractional), append([]float64(nil), o.fractional...)),
	}, nil
}

func TestPrimalRoundingMinMaxWorkedExample(t *testing.T) {
	inst := workedExample(t)
	// Optimal relaxation of the worked example: items 1 and 2 share one unit
	// at weights (3/4, 1/4), item 3 is fully selected.
	oracle := &fixedOracle{objective: 7.5, fractional: []float64{0.5, 0.5, 1, 0}}

	res, err := inst.PrimalRoundingMinMax(context.Background(), oracle, 2)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2}, Selected(res.Selection))
	assert.Equal(t, []int{1, 0, 1, 0}, BinaryVector(res.Selection))
	assert.Equal(t, 8.0, res.Objective)
	assert.Equal(t, 0.5, res.Tau)
	assert.Equal(t, 2.0, res.APosterioriBound())
	assert.Equal(t, 2.0, res.Guarantee)
	assert.Equal(t, 7.5, res.Relaxation.Objective)
}

func TestPrimalRoundingMinMaxNoisyTie(t *testing.T) {
	inst := workedExample(t)
	oracle := &fixedOracle{objective: 7.5, fractional: []float64{0.5 - 1e-12, 0.5 + 1e-12, 1, 0}}

	res, err := inst.PrimalRoundingMinMax(context.Background(), oracle, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, Selected(res.Selection))
}

func TestPrimalRoundingMinMaxFullSelection(t *testing.T) {
	inst := workedExample(t)
	oracle := &fixedOracle{objective: 18, fractional: []float64{1, 1, 1, 1}}

	res, err := inst.PrimalRoundingMinMax(context.Background(), oracle, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1, 1}, BinaryVector(res.Selection))
	assert.Equal(t, 18.0, res.Objective)
	assert.Equal(t, 1.0, res.Tau)
}

func TestPrimalRoundingOracleErrors(t *testing.T) {
	inst := workedExample(t)
	tests := []struct {
		name   string
		oracle *fixedOracle
	}{
		{name: "solver error", oracle: &fixedOracle{err: fmt.Errorf("status: Infeasible")}},
		{name: "wrong length", oracle: &fixedOracle{fractional: []float64{1, 1}}},
		{name: "out of range", oracle: &fixedOracle{fractional: []float64{1.5, 0.5, 0, 0}}},
		{name: "wrong sum", oracle: &fixedOracle{fractional: []float64{1, 1, 1, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inst.PrimalRoundingMinMax(context.Background(), tt.oracle, 2)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrOracleFailure))
			var oe *OracleError
			assert.True(t, errors.As(err, &oe))

			_, err = inst.PrimalRoundingMaxMin(context.Background(), tt.oracle, 2, rand.New(rand.NewSource(1)))
			assert.True(t, errors.Is(err, ErrOracleFailure))
		})
	}
}

func TestPrimalRoundingRejectsInputBeforeOracle(t *testing.T) {
	inst := workedExample(t)
	oracle := &fixedOracle{fractional: []float64{1, 1, 0, 0}}

	_, err := inst.PrimalRoundingMinMax(context.Background(), oracle, 0)
	assert.True(t, errors.Is(err, ErrInputInvariant))
	_, err = inst.PrimalRoundingMaxMin(context.Background(), oracle, 5, rand.New(rand.NewSource(1)))
	assert.True(t, errors.Is(err, ErrInputInvariant))
	_, err = inst.PrimalRoundingMaxMin(context.Background(), oracle, 2, nil)
	assert.True(t, errors.Is(err, ErrInputInvariant))
	_, err = inst.PrimalRoundingMinMax(context.Background(), nil, 2)
	assert.True(t, errors.Is(err, ErrInputInvariant))
	assert.Equal(t, 0, oracle.calls)
}

func TestPrimalRoundingMaxMinBlocks(t *testing.T) {
	inst, err := NewInstance([][]float64{
		{9, 1, 8, 2, 3},
		{1, 9, 7, 3, 2},
	})
	require.NoError(t, err)
	oracle := &fixedOracle{objective: 10, fractional: []float64{0.5, 0, 1, 0.25, 0.25}}

	res, err := inst.PrimalRoundingMaxMin(context.Background(), oracle, 2, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Equal(t, []RankedItem{{2, 1}, {0, 0.5}, {3, 0.25}, {4, 0.25}}, res.Support)
	assert.Equal(t, [][]int{{2, 0}, {3, 4}}, res.Blocks)
	assert.Empty(t, res.Fill)
	// Block {3,1}: min(17, 8) = 8. Block {4,5}: min(5, 5) = 5.
	assert.Equal(t, []int{0, 2}, Selected(res.Selection))
	assert.Equal(t, 8.0, res.Objective)
	assert.Equal(t, 0.5, res.Guarantee)
}

func TestPrimalRoundingMaxMinFill(t *testing.T) {
	inst, err := NewInstance([][]float64{
		{4, 1, 5, 6, 2},
		{3, 2, 5, 6, 1},
	})
	require.NoError(t, err)
	oracle := &fixedOracle{objective: 11, fractional: []float64{0.5, 0, 1, 0.5, 0}}

	run := func(seed int64) *MaxMinRounding {
		res, err := inst.PrimalRoundingMaxMin(context.Background(), oracle, 2, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		return res
	}

	res := run(42)
	require.Len(t, res.Blocks, 2)
	require.Len(t, res.Fill, 1)
	assert.Contains(t, []int{2, 0}, res.Fill[0])
	assert.Equal(t, []int{3, res.Fill[0]}, res.Blocks[1])
	assert.Len(t, Selected(res.Selection), 2)

	again := run(42)
	assert.Equal(t, res.Blocks, again.Blocks)
	assert.Equal(t, res.Objective, again.Objective)
	assert.Equal(t, BinaryVector(res.Selection), BinaryVector(again.Selection))
}

func TestBuildBlocksPoolExhausted(t *testing.T) {
	support := []RankedItem{{0, 1}}
	_, _, err := buildBlocks(support, 2, rand.New(rand.NewSource(1)))
	assert.True(t, errors.Is(err, ErrPoolExhausted))

	_, _, err = buildBlocks(nil, 2, rand.New(rand.NewSource(1)))
	assert.True(t, errors.Is(err, ErrPoolExhausted))

	support = []RankedItem{{0, 1}, {1, 0.9}, {2, 0.8}, {3, 0.1}}
	blocks, fill, err := buildBlocks(support, 3, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Len(t, fill, 2)
	assert.Len(t, blocks[1], 3)
	assert.NotEqual(t, fill[0], fill[1])
}

func rankedItems(ranked []RankedItem) []int {
	items := make([]int, len(ranked))
	for j, r := range ranked {
		items[j] = r.Item
	}
	return items
}

func TestRankByFractionChainedCloseValues(t *testing.T) {
	// Consecutive values are closer than eps, the first and last are not.
	values := []float64{0.5, 0.5 + 0.9e-8, 0.5 + 1.8e-8}
	assert.Equal(t, []int{2, 1, 0}, rankedItems(rankByFraction(mat.NewVecDense(3, values), false)))

	perms := [][]int{{0, 1, 2}, {2, 0, 1}, {1, 2, 0}, {2, 1, 0}}
	for _, perm := range perms {
		x := mat.NewVecDense(3, nil)
		for i, src := range perm {
			x.SetVec(i, values[src])
		}
		ranked := rankByFraction(x, false)
		for j := 1; j < len(ranked); j++ {
			assert.GreaterOrEqual(t, ranked[j-1].Value, ranked[j].Value, "perm %v", perm)
		}
	}
}

func TestRankByFractionSupport(t *testing.T) {
	x := mat.NewVecDense(5, []float64{0, 1e-10, 0.5, 0, 0.5 + 1e-12})
	ranked := rankByFraction(x, true)
	assert.Equal(t, []int{2, 4, 1}, rankedItems(ranked))
	assert.Len(t, rankByFraction(x, false), 5)
}
