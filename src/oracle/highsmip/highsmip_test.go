package highsmip_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robust_selection/src/oracle/highsmip"
	"robust_selection/src/oracle/simplex"
	"robust_selection/src/rsp"
)

func TestWorkedExample(t *testing.T) {
	inst, err := rsp.NewInstance([][]float64{
		{5, 4, 3, 6},
		{3, 6, 3, 2},
	})
	require.NoError(t, err)
	oracle := &highsmip.Oracle{}

	relax, err := oracle.SolveRelaxation(context.Background(), inst, 2, rsp.MinMax)
	require.NoError(t, err)
	assert.InDelta(t, 7.5, relax.Objective, 1e-6)
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 1, 0}, relax.Fractional.RawVector().Data, 1e-6)

	exact, err := oracle.SolveExact(context.Background(), inst, 2, rsp.MinMax)
	require.NoError(t, err)
	assert.Equal(t, 8.0, exact.Objective)

	exact, err = oracle.SolveExact(context.Background(), inst, 2, rsp.MaxMin)
	require.NoError(t, err)
	assert.Equal(t, 9.0, exact.Objective)
	assert.Equal(t, []int{0, 1}, rsp.Selected(exact.Selection))
}

func TestAgreesWithEnumeration(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	ctx := context.Background()
	for range 30 {
		n := 2 + rng.Intn(8)
		p := 1 + rng.Intn(n)
		inst, err := rsp.RandomInstance(rng, n, 1+rng.Intn(4), 100)
		require.NoError(t, err)

		for _, criterion := range []rsp.Criterion{rsp.MinMax, rsp.MaxMin} {
			want, err := (&simplex.Enumerator{}).SolveExact(ctx, inst, p, criterion)
			require.NoError(t, err)
			got, err := (&highsmip.Oracle{}).SolveExact(ctx, inst, p, criterion)
			require.NoError(t, err)
			assert.Equal(t, want.Objective, got.Objective, "%v", criterion)
			assert.Len(t, rsp.Selected(got.Selection), p)

			relax, err := (&highsmip.Oracle{}).SolveRelaxation(ctx, inst, p, criterion)
			require.NoError(t, err)
			ref, err := (&simplex.Oracle{}).SolveRelaxation(ctx, inst, p, criterion)
			require.NoError(t, err)
			assert.InDelta(t, ref.Objective, relax.Objective, 1e-6)
		}
	}
}
