package rsp

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func workedExample(t *testing.T) *Instance {
	t.Helper()
	inst, err := NewInstance([][]float64{
		{5, 4, 3, 6},
		{3, 6, 3, 2},
	})
	require.NoError(t, err)
	return inst
}

func TestNewInstance(t *testing.T) {
	tests := []struct {
		name    string
		costs   [][]float64
		wantErr bool
	}{
		{name: "dense", costs: [][]float64{{1, 2}, {3, 4}}},
		{name: "empty", costs: nil, wantErr: true},
		{name: "ragged", costs: [][]float64{{1, 2}, {3}}, wantErr: true},
		{name: "negative", costs: [][]float64{{1, -2}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := NewInstance(tt.costs)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInputInvariant))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.costs), inst.NumScenarios)
			assert.Equal(t, len(tt.costs[0]), inst.NumItems)
		})
	}
}

func TestNewInstanceFromMap(t *testing.T) {
	costs := map[[2]int]float64{
		{1, 1}: 5, {1, 2}: 4, {1, 3}: 3, {1, 4}: 6,
		{2, 1}: 3, {2, 2}: 6, {2, 3}: 3, {2, 4}: 2,
	}
	inst, err := NewInstanceFromMap(costs, 4, 2)
	require.NoError(t, err)
	assert.True(t, mat.Equal(workedExample(t).Costs, inst.Costs))

	delete(costs, [2]int{2, 3})
	costs[[2]int{3, 1}] = 1
	_, err = NewInstanceFromMap(costs, 4, 2)
	assert.True(t, errors.Is(err, ErrInputInvariant))

	_, err = NewInstanceFromMap(map[[2]int]float64{{1, 1}: 1}, 2, 1)
	assert.True(t, errors.Is(err, ErrInputInvariant))
}

func TestReadInstance(t *testing.T) {
	inst, err := ReadInstance(strings.NewReader("4 2\n5 4 3 6\n3 6 3 2\n"))
	require.NoError(t, err)
	assert.True(t, mat.Equal(workedExample(t).Costs, inst.Costs))

	for _, bad := range []string{
		"",
		"4\n",
		"4 2\n5 4 3 6\n",
		"4 2\n5 4 3\n3 6 3 2\n",
		"2 1\n1 x\n",
		"2 1\n1 -1\n",
	} {
		_, err := ReadInstance(strings.NewReader(bad))
		assert.Error(t, err, "input %q", bad)
	}
}

func TestWriteToRoundTrip(t *testing.T) {
	inst, err := RandomInstance(rand.New(rand.NewSource(3)), 7, 3, 100)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "inst.txt")
	buf := new(bytes.Buffer)
	_, err = inst.WriteTo(buf)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	loaded, err := LoadInstance(path)
	require.NoError(t, err)
	assert.True(t, mat.Equal(inst.Costs, loaded.Costs))
}

func TestRandomInstanceRange(t *testing.T) {
	inst, err := RandomInstance(rand.New(rand.NewSource(1)), 20, 5, 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, mat.Min(inst.Costs), 1.0)
	assert.LessOrEqual(t, mat.Max(inst.Costs), 10.0)

	_, err = RandomInstance(nil, 2, 2, 10)
	assert.True(t, errors.Is(err, ErrInputInvariant))
}

func TestWorstCaseAndWeights(t *testing.T) {
	inst := workedExample(t)
	sel := inst.selectionVector([]int{0, 2})

	assert.Equal(t, []float64{8, 6}, inst.ScenarioTotals(sel).RawVector().Data)
	assert.Equal(t, 8.0, inst.WorstCase(sel, MinMax))
	assert.Equal(t, 6.0, inst.WorstCase(sel, MaxMin))
	assert.Equal(t, []float64{4, 5, 3, 4}, inst.Weights().RawVector().Data)
}

func TestCheckInput(t *testing.T) {
	inst := workedExample(t)
	assert.NoError(t, inst.CheckInput(4, MinMax))
	for _, p := range []int{0, 5, -1} {
		assert.True(t, errors.Is(inst.CheckInput(p, MinMax), ErrInputInvariant), "p = %d", p)
	}
	assert.True(t, errors.Is(inst.CheckInput(1, Criterion(7)), ErrInputInvariant))

	_, err := ParseCriterion("minimax")
	assert.True(t, errors.Is(err, ErrInputInvariant))
	c, err := ParseCriterion("maxmin")
	require.NoError(t, err)
	assert.Equal(t, MaxMin, c)
}
