// Package rsp approximates the robust selection problem with discrete
// scenarios: choose exactly p of n items so that the worst case over k
// scenarios is optimized, minimized for costs (MinMax) or maximized for
// profits (MaxMin).
//
// Three algorithms are provided:
//
//   - PrimalRoundingMinMax keeps the p largest values of the optimal
//     relaxation and reports tau, the smallest kept value, as an
//     a-posteriori bound 1/tau.
//   - PrimalRoundingMaxMin splits the support of the relaxation into blocks
//     of p items and keeps the block with the best worst-case profit.
//   - PrimalDualMinMax runs a dual ascent that needs no oracle and returns a
//     dual certificate whose objective lower-bounds the optimum.
//
// Relaxations and exact solutions come from a RelaxationOracle or an
// ExactOracle; implementations live under src/oracle. Diagnostics are
// written to the logr.Logger stored in the context, if any.
package rsp
