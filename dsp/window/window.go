// Package window generates spectral analysis windows.
package window

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
)

func (t Type) String() string {
	switch t {
	case TypeRectangular:
		return "rectangular"
	case TypeHann:
		return "hann"
	case TypeHamming:
		return "hamming"
	case TypeBlackman:
		return "blackman"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if _, ok := cosineTerms[t]; !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownType, t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	for typ := range cosineTerms {
		if typ.String() == string(text) {
			*t = typ
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownType, text)
}

// Cosine-sum coefficients a0, a1, a2 of w(x) = a0 - a1 cos(2πx) + a2 cos(4πx).
var cosineTerms = map[Type][3]float64{
	TypeRectangular: {1, 0, 0},
	TypeHann:        {0.5, 0.5, 0},
	TypeHamming:     {0.54, 0.46, 0},
	TypeBlackman:    {0.42, 0.5, 0.08},
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic generates the periodic (DFT-even) form, which is what
// overlapping spectral frames want.
func WithPeriodic() Option {
	return func(c *config) { c.periodic = true }
}

// Generate returns length coefficients of window t. It returns nil for a
// non-positive length or an unknown type.
func Generate(t Type, length int, opts ...Option) []float64 {
	terms, ok := cosineTerms[t]
	if !ok || length <= 0 {
		return nil
	}

	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		phase := 2 * math.Pi * samplePosition(i, length, cfg.periodic)
		out[i] = terms[0] - terms[1]*math.Cos(phase) + terms[2]*math.Cos(2*phase)
	}

	return out
}

// ApplyCoefficientsInPlace multiplies samples with coefficients in place.
func ApplyCoefficientsInPlace(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return errMismatchedLength
	}

	vecmath.MulBlockInPlace(samples, coeffs)

	return nil
}

// PowerGain returns the mean of the squared coefficients, the factor by
// which windowing scales the power of white noise.
func PowerGain(coeffs []float64) (float64, error) {
	if len(coeffs) == 0 {
		return 0, errEmptyCoeffs
	}

	sum := 0.0
	for _, c := range coeffs {
		sum += c * c
	}

	return sum / float64(len(coeffs)), nil
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}
