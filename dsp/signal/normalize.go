// Package signal holds whole-signal amplitude operations.
package signal

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-serene/dsp/core"
)

var (
	ErrInvalidPeak = errors.New("signal: target peak must be finite and >= 0")
	ErrEmptyInput  = errors.New("signal: input must not be empty")
)

// Normalize scales data to target peak amplitude and returns a new slice.
// Silent data stays silent.
func Normalize(data []float64, targetPeak float64) ([]float64, error) {
	if !(targetPeak >= 0) || math.IsInf(targetPeak, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPeak, targetPeak)
	}
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	out := make([]float64, len(data))
	scale := peakScale(peak(data), targetPeak)
	for i, v := range data {
		out[i] = v * scale
	}
	return out, nil
}

// NormalizePeak returns a copy of w scaled so that its loudest sample, over
// all channels, has magnitude targetPeak. All channels share one factor, so
// the balance between them is kept. It also returns the applied factor.
func NormalizePeak(w *core.Waveform, targetPeak float64) (*core.Waveform, float64, error) {
	if !(targetPeak >= 0) || math.IsInf(targetPeak, 0) {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidPeak, targetPeak)
	}
	if w == nil || w.Channels() == 0 {
		return nil, 0, ErrEmptyInput
	}

	p := 0.0
	for _, samples := range w.Data {
		p = math.Max(p, peak(samples))
	}

	scale := peakScale(p, targetPeak)
	out := w.Clone()
	for _, samples := range out.Data {
		for i := range samples {
			samples[i] *= scale
		}
	}

	return out, scale, nil
}

func peak(data []float64) float64 {
	maxAbs := 0.0
	for _, v := range data {
		if av := math.Abs(v); av > maxAbs {
			maxAbs = av
		}
	}
	return maxAbs
}

func peakScale(peak, target float64) float64 {
	if peak == 0 {
		return 1
	}
	return target / peak
}
