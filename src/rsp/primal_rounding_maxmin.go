package rsp

import (
	"context"
	"math"
	"math/rand"
	"slices"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"gopkg.in/dnaeon/go-priorityqueue.v1"
)

// buildBlocks cuts the ranked support into consecutive blocks of size p. A
// short last block is completed with items drawn at random from the earlier
// blocks.
func buildBlocks(support []RankedItem, p int, rng *rand.Rand) (blocks [][]int, fill []int, err error) {
	for start := 0; start < len(support); start += p {
		chunk := support[start:min(start+p, len(support))]
		block := make([]int, len(chunk))
		for j, r := range chunk {
			block[j] = r.Item
		}
		blocks = append(blocks, block)
	}
	if len(blocks) == 0 {
		return nil, nil, errors.Wrap(ErrPoolExhausted, "relaxation has an empty support")
	}

	last := blocks[len(blocks)-1]
	deficit := p - len(last)
	if deficit == 0 {
		return blocks, nil, nil
	}

	// Priorities come from rng so the draw is reproducible for a fixed seed.
	pool := priorityqueue.New[int, float64](priorityqueue.MinHeap)
	for _, block := range blocks[:len(blocks)-1] {
		for _, item := range block {
			if !slices.Contains(last, item) {
				pool.Put(item, rng.Float64())
			}
		}
	}
	if pool.Len() < deficit {
		return nil, nil, errors.Wrapf(ErrPoolExhausted, "last block needs %d items, pool has %d", deficit, pool.Len())
	}
	for range deficit {
		fill = append(fill, pool.Get().Value)
	}
	blocks[len(blocks)-1] = append(last, fill...)
	return blocks, fill, nil
}

// PrimalRoundingMaxMin partitions the support of the optimal relaxation into
// blocks of p items, ranked by fractional value, and keeps the block with
// the largest worst-case profit. With r blocks the ratio is at least 1/r.
func (inst *Instance) PrimalRoundingMaxMin(ctx context.Context, oracle RelaxationOracle, p int, rng *rand.Rand) (*MaxMinRounding, error) {
	logger := logr.FromContextOrDiscard(ctx).WithName("primal-rounding-maxmin")
	if err := inst.CheckInput(p, MaxMin); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, invariantf("random source for the block fill is nil")
	}

	relaxation, err := inst.relax(ctx, oracle, p, MaxMin)
	if err != nil {
		return nil, err
	}

	support := rankByFraction(relaxation.Fractional, true)
	blocks, fill, err := buildBlocks(support, p, rng)
	if err != nil {
		return nil, err
	}

	best := -1
	objective := math.Inf(-1)
	for j, block := range blocks {
		profit := inst.WorstCase(inst.selectionVector(block), MaxMin)
		logger.V(1).Info("block", "index", j, "items", oneBased(block), "worstCaseProfit", profit)
		if profit > objective {
			best = j
			objective = profit
		}
	}

	logger.Info("rounded relaxation",
		"lpObjective", relaxation.Objective,
		"objective", objective,
		"blocks", len(blocks),
		"filled", len(fill),
	)

	return &MaxMinRounding{
		Solution: Solution{
			Selection: inst.selectionVector(blocks[best]),
			Objective: objective,
		},
		Relaxation: relaxation,
		Support:    support,
		Blocks:     blocks,
		Fill:       fill,
		Guarantee:  1 / float64(len(blocks)),
	}, nil
}
