package dynamics

import (
	"errors"
	"fmt"
	"math"
)

const (
	defaultTapValue   = 32.0
	defaultLevelScale = 20.0
)

var (
	ErrInvalidTap   = errors.New("dynamics: tap value must be positive and finite")
	ErrInvalidScale = errors.New("dynamics: level scale must be positive and finite")
	ErrNonFinite    = errors.New("dynamics: non-finite value")
	ErrInvalidLevel = errors.New("dynamics: loudness level must be non-negative")
)

// GainCurve maps loudness levels to target gains.
//
// A level L is first scaled to x = L*levelScale and compressed to
// c = tap*tanh(x/tap). The gain is c/x, so gain*x never exceeds tap and
// quiet levels get a gain close to 1. Gains lie in (0, 1] and fall
// monotonically as the level rises.
//
// A GainCurve is immutable after construction apart from its setters and
// is safe for concurrent reads.
type GainCurve struct {
	tap        float64
	levelScale float64
}

// NewGainCurve creates a curve with the given tap value and level scale.
func NewGainCurve(tap, levelScale float64) (*GainCurve, error) {
	c := &GainCurve{tap: defaultTapValue, levelScale: defaultLevelScale}

	if err := c.SetTap(tap); err != nil {
		return nil, err
	}
	if err := c.SetLevelScale(levelScale); err != nil {
		return nil, err
	}

	return c, nil
}

// SetTap sets the asymptote of the compressed level.
func (c *GainCurve) SetTap(tap float64) error {
	if !(tap > 0) || math.IsInf(tap, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTap, tap)
	}
	c.tap = tap
	return nil
}

// SetLevelScale sets the factor between a loudness level and the scaled
// level fed to the curve.
func (c *GainCurve) SetLevelScale(scale float64) error {
	if !(scale > 0) || math.IsInf(scale, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidScale, scale)
	}
	c.levelScale = scale
	return nil
}

// Tap returns the tap value.
func (c *GainCurve) Tap() float64 { return c.tap }

// LevelScale returns the level scale.
func (c *GainCurve) LevelScale() float64 { return c.levelScale }

// Scaled returns level*LevelScale.
func (c *GainCurve) Scaled(level float64) float64 { return level * c.levelScale }

// Compressed returns tap*tanh(level*levelScale/tap). It approaches the tap
// value as the level grows.
func (c *GainCurve) Compressed(level float64) float64 {
	return c.tap * math.Tanh(c.Scaled(level)/c.tap)
}

// Gain returns the target gain for one level. Levels at or below zero give
// unity gain.
func (c *GainCurve) Gain(level float64) float64 {
	x := c.Scaled(level)
	if !(x > 0) {
		return 1
	}

	g := c.tap * math.Tanh(x/c.tap) / x
	switch {
	case g > 1:
		return 1
	case g <= 0:
		return math.SmallestNonzeroFloat64
	}

	return g
}

// Gains maps a whole loudness profile to gains. Levels must be finite and
// non-negative.
func (c *GainCurve) Gains(levels []float64) ([]float64, error) {
	out := make([]float64, len(levels))

	for i, l := range levels {
		if math.IsNaN(l) || math.IsInf(l, 0) {
			return nil, fmt.Errorf("%w: level %v at tick %d", ErrNonFinite, l, i)
		}
		if l < 0 {
			return nil, fmt.Errorf("%w: %v at tick %d", ErrInvalidLevel, l, i)
		}
		out[i] = c.Gain(l)
	}

	return out, nil
}
