package rsp

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

type Instance struct {
	NumItems     int
	NumScenarios int
	// Costs holds one row per scenario and one column per item.
	Costs *mat.Dense
}

type Solution struct {
	Selection *mat.VecDense
	Objective float64
}

// Relaxation is the optimal solution of the continuous relaxation of the
// epigraph formulation.
type Relaxation struct {
	Objective  float64
	Fractional *mat.VecDense
}

// ExactSolution is only used to benchmark the approximation algorithms.
type ExactSolution struct {
	Solution
}

type MinMaxRounding struct {
	Solution
	Relaxation *Relaxation
	// Tau is the smallest fractional value among the selected items.
	Tau float64
	// Guarantee is min(k, n-p+1).
	Guarantee float64
}

type RankedItem struct {
	Item  int
	Value float64
}

type MaxMinRounding struct {
	Solution
	Relaxation *Relaxation
	// Support lists the items with non-zero fractional value, in the order
	// used to build the blocks.
	Support []RankedItem
	Blocks  [][]int
	// Fill holds the items drawn at random to complete the last block.
	Fill []int
	// Guarantee is 1/r for r blocks.
	Guarantee float64
}

type DualCertificate struct {
	Level   float64
	Gamma   *mat.VecDense
	Weights *mat.VecDense
}

// DualStep records one iteration of the dual ascent.
type DualStep struct {
	Item     int
	Delta    float64
	Level    float64
	Tight    int
	Fallback bool
	Gamma    []float64
}

type PrimalDual struct {
	Solution
	Certificate   *DualCertificate
	DualObjective float64
	Steps         []DualStep
	Fallbacks     int
	// Guarantee is k under uniform scenario weights.
	Guarantee float64
}

// APosterioriBound is 1/tau.
func (r *MinMaxRounding) APosterioriBound() float64 {
	if r.Tau <= 0 {
		return math.NaN()
	}
	return 1 / r.Tau
}

// APosterioriBound is ALG over the dual objective.
func (r *PrimalDual) APosterioriBound() float64 {
	if r.DualObjective == 0 {
		return math.NaN()
	}
	return r.Objective / r.DualObjective
}

func selectedString(s *strings.Builder, v *mat.VecDense) {
	s.WriteString("Selected items: [ ")
	for i := 0; i < v.Len(); i++ {
		if v.AtVec(i) > 0.5 {
			fmt.Fprint(s, i+1)
			s.WriteString(" ")
		}
	}
	s.WriteString("]")
}

// Selected returns the 0-based indices of the items set in a binary
// selection vector.
func Selected(v *mat.VecDense) []int {
	items := make([]int, 0)
	for i := 0; i < v.Len(); i++ {
		if v.AtVec(i) > 0.5 {
			items = append(items, i)
		}
	}
	return items
}

// BinaryVector renders a selection as an ordered sequence of 0/1 values.
func BinaryVector(v *mat.VecDense) []int {
	bits := make([]int, v.Len())
	for i := range bits {
		if v.AtVec(i) > 0.5 {
			bits[i] = 1
		}
	}
	return bits
}

func (sol *Solution) String() string {
	s := new(strings.Builder)
	s.WriteString(fmt.Sprintf("Objective: %f\n", sol.Objective))
	selectedString(s, sol.Selection)
	return s.String()
}

func (r *MinMaxRounding) String() string {
	s := new(strings.Builder)
	fmt.Fprintln(s, r.Solution.String())
	fmt.Fprintf(s, "LP objective: %f\n", r.Relaxation.Objective)
	fmt.Fprintf(s, "Tau: %f (a-posteriori bound %f)", r.Tau, r.APosterioriBound())
	return s.String()
}

func (r *MaxMinRounding) String() string {
	s := new(strings.Builder)
	fmt.Fprintln(s, r.Solution.String())
	fmt.Fprintf(s, "LP objective: %f\n", r.Relaxation.Objective)
	fmt.Fprintf(s, "Blocks: %d\n", len(r.Blocks))
	for i, block := range r.Blocks {
		fmt.Fprintf(s, "  block %d: %v\n", i, oneBased(block))
	}
	fmt.Fprintf(s, "Random fill: %v", oneBased(r.Fill))
	return s.String()
}

func (r *PrimalDual) String() string {
	s := new(strings.Builder)
	fmt.Fprintln(s, r.Solution.String())
	fmt.Fprintf(s, "Dual level: %f\n", r.Certificate.Level)
	fmt.Fprintf(s, "Dual objective: %f\n", r.DualObjective)
	fmt.Fprint(s, "Numerical fallbacks: ", r.Fallbacks)
	return s.String()
}

func (inst *Instance) String() string {
	s := new(strings.Builder)
	s.WriteString(fmt.Sprintf("N. items: %d\n", inst.NumItems))
	s.WriteString(fmt.Sprintf("N. scenarios: %d\n", inst.NumScenarios))

	for sc := range inst.NumScenarios {
		s.WriteString(fmt.Sprintf("Scenario %d: ", sc+1))
		for _, c := range inst.Costs.RawRowView(sc) {
			s.WriteString(fmt.Sprintf("%g ", c))
		}
		s.WriteRune('\n')
	}
	return s.String()
}

func oneBased(items []int) []int {
	out := make([]int, len(items))
	for i, v := range items {
		out[i] = v + 1
	}
	return out
}
