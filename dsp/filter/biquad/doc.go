// Package biquad provides biquad (second-order IIR) filter runtime primitives.
//
// A [Section] implements Direct Form II Transposed processing for a single
// second-order section defined by [Coefficients]. Multiple sections can be
// cascaded via [Chain] for higher-order filters.
//
// [ZeroPhase] runs a cascade forward and backward over a whole signal, which
// is how offline band splitting avoids phase distortion.
//
// This package provides the processing runtime only. Coefficient design
// lives in dsp/filter/design/pass.
package biquad
