package rsp

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const eps = 1e-8

func checkCost(s, i int, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invariantf("cost of item %d in scenario %d is not finite", i+1, s+1)
	}
	if v < 0 {
		return invariantf("cost of item %d in scenario %d is negative: %g", i+1, s+1, v)
	}
	return nil
}

// NewInstance builds an instance from one cost row per scenario.
func NewInstance(costs [][]float64) (*Instance, error) {
	if len(costs) == 0 || len(costs[0]) == 0 {
		return nil, invariantf("cost matrix is empty")
	}
	inst := &Instance{
		NumScenarios: len(costs),
		NumItems:     len(costs[0]),
	}
	inst.Costs = mat.NewDense(inst.NumScenarios, inst.NumItems, nil)
	for s, row := range costs {
		if len(row) != inst.NumItems {
			return nil, invariantf("scenario %d has %d items, want %d", s+1, len(row), inst.NumItems)
		}
		for i, v := range row {
			if err := checkCost(s, i, v); err != nil {
				return nil, err
			}
			inst.Costs.Set(s, i, v)
		}
	}
	return inst, nil
}

// NewInstanceFromMap builds an instance from a total mapping keyed by
// 1-indexed (scenario, item) pairs.
func NewInstanceFromMap(costs map[[2]int]float64, n, k int) (*Instance, error) {
	if n < 1 || k < 1 {
		return nil, invariantf("instance needs at least one item and one scenario, got n = %d, k = %d", n, k)
	}
	if len(costs) != n*k {
		return nil, invariantf("cost mapping has %d entries, want %d", len(costs), n*k)
	}
	inst := &Instance{
		NumItems:     n,
		NumScenarios: k,
		Costs:        mat.NewDense(k, n, nil),
	}
	for s := 1; s <= k; s++ {
		for i := 1; i <= n; i++ {
			v, ok := costs[[2]int{s, i}]
			if !ok {
				return nil, invariantf("cost of item %d in scenario %d is missing", i, s)
			}
			if err := checkCost(s-1, i-1, v); err != nil {
				return nil, err
			}
			inst.Costs.Set(s-1, i-1, v)
		}
	}
	return inst, nil
}

// RandomInstance draws integer costs uniformly from [1, costRange].
func RandomInstance(rng *rand.Rand, n, k, costRange int) (*Instance, error) {
	if rng == nil {
		return nil, invariantf("random source is nil")
	}
	if n < 1 || k < 1 || costRange < 1 {
		return nil, invariantf("invalid random instance shape n = %d, k = %d, range = %d", n, k, costRange)
	}
	inst := &Instance{
		NumItems:     n,
		NumScenarios: k,
		Costs:        mat.NewDense(k, n, nil),
	}
	for s := range k {
		for i := range n {
			inst.Costs.Set(s, i, float64(1+rng.Intn(costRange)))
		}
	}
	return inst, nil
}

// ValidateCardinality checks 1 <= p <= n.
func (inst *Instance) ValidateCardinality(p int) error {
	if p < 1 || p > inst.NumItems {
		return invariantf("p = %d outside [1, %d]", p, inst.NumItems)
	}
	return nil
}

// ScenarioTotals returns the value of the selection in every scenario.
func (inst *Instance) ScenarioTotals(selected *mat.VecDense) *mat.VecDense {
	totals := mat.NewVecDense(inst.NumScenarios, nil)
	totals.MulVec(inst.Costs, selected)
	return totals
}

// WorstCase is the maximum scenario total under MinMax and the minimum under
// MaxMin.
func (inst *Instance) WorstCase(selected *mat.VecDense, criterion Criterion) float64 {
	totals := inst.ScenarioTotals(selected)
	if criterion == MaxMin {
		return mat.Min(totals)
	}
	return mat.Max(totals)
}

// Weights returns the average value of every item under the uniform
// scenario distribution.
func (inst *Instance) Weights() *mat.VecDense {
	b := mat.NewVecDense(inst.NumScenarios, nil)
	for s := range inst.NumScenarios {
		b.SetVec(s, 1/float64(inst.NumScenarios))
	}
	w := mat.NewVecDense(inst.NumItems, nil)
	w.MulVec(inst.Costs.T(), b)
	return w
}

func (inst *Instance) selectionVector(items []int) *mat.VecDense {
	v := mat.NewVecDense(inst.NumItems, nil)
	for _, i := range items {
		v.SetVec(i, 1)
	}
	return v
}

func (inst *Instance) parseFirstLine(scanner *bufio.Scanner) error {
	if !scanner.Scan() {
		return fmt.Errorf("error while parsing first line: missing header")
	}
	line := strings.Fields(scanner.Text())
	if len(line) != 2 {
		return fmt.Errorf("error while parsing first line: want \"n k\", got %q", scanner.Text())
	}
	numItems, err := strconv.Atoi(line[0])
	if err != nil {
		return fmt.Errorf("error while parsing first line: %v", err)
	}
	numScenarios, err := strconv.Atoi(line[1])
	if err != nil {
		return fmt.Errorf("error while parsing first line: %v", err)
	}
	if numItems < 1 || numScenarios < 1 {
		return invariantf("instance needs at least one item and one scenario, got n = %d, k = %d", numItems, numScenarios)
	}
	inst.NumItems = numItems
	inst.NumScenarios = numScenarios
	inst.Costs = mat.NewDense(numScenarios, numItems, nil)
	return nil
}

func (inst *Instance) parseScenarios(scanner *bufio.Scanner) error {
	for s := range inst.NumScenarios {
		if !scanner.Scan() {
			return invariantf("scenario %d is missing", s+1)
		}
		line := strings.Fields(scanner.Text())
		if len(line) != inst.NumItems {
			return invariantf("scenario %d has %d items, want %d", s+1, len(line), inst.NumItems)
		}
		for i, field := range line {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return fmt.Errorf("error while parsing scenario %d: %v", s+1, err)
			}
			if err := checkCost(s, i, v); err != nil {
				return err
			}
			inst.Costs.Set(s, i, v)
		}
	}
	return nil
}

// ReadInstance parses the text format: a first line "n k" followed by k
// lines of n values.
func ReadInstance(r io.Reader) (*Instance, error) {
	inst := new(Instance)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if err := inst.parseFirstLine(scanner); err != nil {
		return nil, err
	}
	if err := inst.parseScenarios(scanner); err != nil {
		return nil, err
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading instance")
	}
	return inst, nil
}

func LoadInstance(filename string) (*Instance, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadInstance(f)
}

// WriteTo writes the instance in the format read by ReadInstance.
func (inst *Instance) WriteTo(w io.Writer) (int64, error) {
	s := new(strings.Builder)
	fmt.Fprintf(s, "%d %d\n", inst.NumItems, inst.NumScenarios)
	for sc := range inst.NumScenarios {
		for i, c := range inst.Costs.RawRowView(sc) {
			if i > 0 {
				s.WriteRune(' ')
			}
			s.WriteString(strconv.FormatFloat(c, 'g', -1, 64))
		}
		s.WriteRune('\n')
	}
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}
