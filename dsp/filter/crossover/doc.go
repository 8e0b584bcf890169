// Package crossover splits audio signals into frequency bands.
//
// [Splitter] works on whole signals and produces a low band below a split
// frequency and a high band above it, optionally reshaping the sub-bass
// part of the low band. By default the filters run forward and backward so
// both bands stay time-aligned with the input.
//
// [Splitter.RemoveLow] runs only the high-pass branch, for callers that
// want the input with its low band cut.
//
// Example:
//
//	sp, _ := crossover.NewSplitter(44100, crossover.WithMidRange(120))
//	bands := sp.Split(samples)
package crossover
