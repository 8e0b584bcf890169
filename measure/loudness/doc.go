// Package loudness measures a short-term loudness proxy for band signals.
//
// A signal is tiled into fixed-length ticks and each tick is reduced to its
// RMS amplitude. [Combine] weights a low-band profile against a high-band
// profile so bass energy counts more than treble energy of the same
// amplitude.
package loudness
