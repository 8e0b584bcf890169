// Package time summarises signal levels in the time domain.
package time

import (
	"math"

	"github.com/cwbudde/algo-serene/dsp/core"
)

// Summary holds the level statistics of one channel.
type Summary struct {
	Frames        int
	DC            float64 // mean
	RMS           float64
	RMSdB         float64
	Peak          float64 // max |x|
	PeakPos       int
	PeakdB        float64
	CrestFactor   float64 // peak / RMS
	CrestFactordB float64
}

// Summarize computes the level statistics of signal in one pass. dB fields
// of a silent or empty signal are -Inf.
func Summarize(signal []float64) Summary {
	s := Summary{
		Frames:        len(signal),
		RMSdB:         math.Inf(-1),
		PeakdB:        math.Inf(-1),
		CrestFactordB: math.Inf(-1),
	}
	if len(signal) == 0 {
		return s
	}

	var sumSq float64
	for i, x := range signal {
		sumSq += x * x
		if a := math.Abs(x); a > s.Peak {
			s.Peak = a
			s.PeakPos = i
		}
	}

	s.DC = DC(signal)
	s.RMS = math.Sqrt(sumSq / float64(len(signal)))
	s.RMSdB = core.LinearToDB(s.RMS)
	s.PeakdB = core.LinearToDB(s.Peak)
	if s.RMS > 0 {
		s.CrestFactor = s.Peak / s.RMS
		s.CrestFactordB = core.LinearToDB(s.CrestFactor)
	}

	return s
}

// SummarizeWaveform returns one Summary per channel of w.
func SummarizeWaveform(w *core.Waveform) []Summary {
	out := make([]Summary, w.Channels())
	for ch, samples := range w.Data {
		out[ch] = Summarize(samples)
	}
	return out
}

// RMS returns the root-mean-square of the signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	var sumSq float64
	for _, x := range signal {
		sumSq += x * x
	}

	return math.Sqrt(sumSq / float64(len(signal)))
}

// DC returns the mean (DC offset) of the signal.
func DC(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	// Kahan summation.
	var sum, c float64
	for _, x := range signal {
		y := x - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}

	return sum / float64(len(signal))
}

// Peak returns the peak absolute amplitude of the signal.
func Peak(signal []float64) float64 {
	peak := 0.0
	for _, x := range signal {
		if a := math.Abs(x); a > peak {
			peak = a
		}
	}
	return peak
}

// GainChangedB returns the RMS level change from before to after in dB.
// Two silent signals give 0; a single silent side gives an infinite change.
func GainChangedB(before, after []float64) float64 {
	rb, ra := RMS(before), RMS(after)
	switch {
	case rb == 0 && ra == 0:
		return 0
	case rb == 0:
		return math.Inf(1)
	}
	return core.LinearToDB(ra / rb)
}
