// Package optimizer selects burn groups: for each category it picks the subset of
// candidate items whose combined size is the largest value that still fits on a
// single write medium.
//
// Sizes are quantized to integer units before solving (floor(size * scale)). Two
// sizes that only differ below the resolution of the scale are indistinguishable
// to the solver, and the feasibility guarantee holds at that resolution. The scale
// is fixed per Solver; the default of 10 gives one-decimal (deci-GB) precision.
package optimizer
