package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"robust_selection/src/rsp"
)

func writeInstance(path string, inst *rsp.Instance) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := inst.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func main() {
	var outPath string
	var numItems, numScenarios, costRange int
	var seed int64

	flag.StringVarP(&outPath, "out", "o", "out.txt", "The output file")
	flag.IntVarP(&numItems, "items", "n", 0, "The number of items")
	flag.IntVarP(&numScenarios, "scenarios", "k", 0, "The number of scenarios")
	flag.IntVar(&costRange, "range", 100, "Costs are drawn uniformly from 1..range")
	flag.Int64Var(&seed, "seed", 0, "The random seed, the current time if zero")

	flag.Parse()

	failed := false
	if numItems <= 0 {
		fmt.Fprintln(os.Stderr, "Must specify the number of items")
		failed = true
	}
	if numScenarios <= 0 {
		fmt.Fprintln(os.Stderr, "Must specify the number of scenarios")
		failed = true
	}
	if failed {
		os.Exit(1)
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	inst, err := rsp.RandomInstance(rand.New(rand.NewSource(seed)), numItems, numScenarios, costRange)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := writeInstance(outPath, inst); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing \"%v\": %v\n", outPath, err)
		os.Exit(1)
	}
}
