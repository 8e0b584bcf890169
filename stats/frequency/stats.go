// Package frequency measures how signal energy is spread over frequency.
package frequency

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-serene/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

var (
	ErrEmptyInput        = errors.New("frequency: empty signal")
	ErrInvalidSampleRate = errors.New("frequency: sample rate must be positive")
	ErrInvalidFrequency  = errors.New("frequency: split frequency must be in (0, nyquist)")
	ErrInvalidWindow     = errors.New("frequency: unknown window")
)

// DefaultFrameSize is the largest analysis frame used by PowerSpectrum.
const DefaultFrameSize = 4096

const minFrameSize = 16

// Option configures spectrum analysis.
type Option func(*options)

type options struct {
	window window.Type
}

// WithWindow selects the analysis window. The default is Hann.
func WithWindow(t window.Type) Option {
	return func(o *options) { o.window = t }
}

// Spectrum is a one-sided averaged power spectrum. Power[i] belongs to
// frequency i*SampleRate/FrameSize.
type Spectrum struct {
	SampleRate float64
	FrameSize  int
	Frames     int
	Power      []float64
}

// BinFreq returns the frequency in Hz of bin i.
func (s Spectrum) BinFreq(i int) float64 {
	return float64(i) * s.SampleRate / float64(s.FrameSize)
}

// PowerSpectrum averages windowed power spectra over half-overlapping
// frames of signal. Frames hold DefaultFrameSize samples; a shorter signal
// is zero-padded to the next power of two and analysed as one frame.
// Summing Power over both spectrum halves would give the mean square of the
// signal.
func PowerSpectrum(signal []float64, sampleRate float64, opts ...Option) (Spectrum, error) {
	o := options{window: window.TypeHann}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if len(signal) == 0 {
		return Spectrum{}, ErrEmptyInput
	}
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return Spectrum{}, fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}

	size := frameSize(len(signal))

	win := window.Generate(o.window, size, window.WithPeriodic())
	if win == nil {
		return Spectrum{}, fmt.Errorf("%w: %v", ErrInvalidWindow, o.window)
	}
	winPower, err := window.PowerGain(win)
	if err != nil {
		return Spectrum{}, err
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return Spectrum{}, fmt.Errorf("frequency: fft plan: %w", err)
	}

	bins := size/2 + 1
	spec := Spectrum{SampleRate: sampleRate, FrameSize: size, Power: make([]float64, bins)}

	frame := make([]float64, size)
	in := make([]complex128, size)
	out := make([]complex128, size)
	re := make([]float64, bins)
	im := make([]float64, bins)
	pow := make([]float64, bins)

	hop := size / 2
	for start := 0; start == 0 || start+size <= len(signal); start += hop {
		clear(frame)
		copy(frame, signal[start:])
		if err := window.ApplyCoefficientsInPlace(frame, win); err != nil {
			return Spectrum{}, err
		}

		for i, v := range frame {
			in[i] = complex(v, 0)
		}
		if err := plan.Forward(out, in); err != nil {
			return Spectrum{}, fmt.Errorf("frequency: fft: %w", err)
		}

		for i := range bins {
			re[i], im[i] = real(out[i]), imag(out[i])
		}
		vecmath.Power(pow, re, im)

		for i, p := range pow {
			spec.Power[i] += p
		}
		spec.Frames++
	}

	norm := 1 / (float64(spec.Frames) * float64(size) * float64(size) * winPower)
	for i := range spec.Power {
		spec.Power[i] *= norm
	}

	return spec, nil
}

// Balance is the split of spectral energy at one frequency.
type Balance struct {
	SplitHz  float64
	Low      float64 // energy below SplitHz
	High     float64 // energy at or above SplitHz
	Centroid float64 // power-weighted mean frequency in Hz
}

// LowFraction returns the share of energy below the split, or 0 for a
// silent signal.
func (b Balance) LowFraction() float64 {
	total := b.Low + b.High
	if total == 0 {
		return 0
	}
	return b.Low / total
}

// LowToHighdB returns the low to high energy ratio in dB.
func (b Balance) LowToHighdB() float64 {
	switch {
	case b.Low == 0 && b.High == 0:
		return 0
	case b.High == 0:
		return math.Inf(1)
	case b.Low == 0:
		return math.Inf(-1)
	}
	return 10 * math.Log10(b.Low/b.High)
}

// BandBalance measures the energy of signal below and above splitHz.
func BandBalance(signal []float64, sampleRate, splitHz float64, opts ...Option) (Balance, error) {
	if sampleRate > 0 && !(splitHz > 0 && splitHz < sampleRate/2) {
		return Balance{}, fmt.Errorf("%w: %v Hz at %v Hz", ErrInvalidFrequency, splitHz, sampleRate)
	}

	spec, err := PowerSpectrum(signal, sampleRate, opts...)
	if err != nil {
		return Balance{}, err
	}

	return spec.Balance(splitHz), nil
}

// Balance splits the spectrum energy at splitHz.
func (s Spectrum) Balance(splitHz float64) Balance {
	b := Balance{SplitHz: splitHz}

	weighted := 0.0
	for i, p := range s.Power {
		f := s.BinFreq(i)
		if f < splitHz {
			b.Low += p
		} else {
			b.High += p
		}
		weighted += f * p
	}

	if total := b.Low + b.High; total > 0 {
		b.Centroid = weighted / total
	}

	return b
}

func frameSize(n int) int {
	if n >= DefaultFrameSize {
		return DefaultFrameSize
	}
	if n <= minFrameSize {
		return minFrameSize
	}
	// Next power of two, so short signals are padded rather than cut.
	return 1 << bits.Len(uint(n-1))
}
