package dynamics

import (
	"errors"
	"math"
	"testing"
)

func TestNewGainCurve(t *testing.T) {
	tests := []struct {
		name  string
		tap   float64
		scale float64
		want  error
	}{
		{"defaults", 32, 20, nil},
		{"small tap", 0.5, 1, nil},
		{"zero tap", 0, 20, ErrInvalidTap},
		{"negative tap", -1, 20, ErrInvalidTap},
		{"nan tap", math.NaN(), 20, ErrInvalidTap},
		{"inf tap", math.Inf(1), 20, ErrInvalidTap},
		{"zero scale", 32, 0, ErrInvalidScale},
		{"nan scale", 32, math.NaN(), ErrInvalidScale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewGainCurve(tt.tap, tt.scale)
			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Fatalf("NewGainCurve() error = %v, want %v", err, tt.want)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewGainCurve() error = %v", err)
			}
			if c.Tap() != tt.tap || c.LevelScale() != tt.scale {
				t.Fatalf("accessors = (%v, %v), want (%v, %v)", c.Tap(), c.LevelScale(), tt.tap, tt.scale)
			}
		})
	}
}

func TestGainCurve_KnownValues(t *testing.T) {
	c, _ := NewGainCurve(32, 20)

	tests := []struct {
		level float64
		gain  float64
	}{
		{0, 1},
		{0.1, 0.9986999479602002},
		{1, 0.8873595557590116},
		{2.7, 0.5533795811689433},
		{10, 0.15999880747542908},
	}
	for _, tt := range tests {
		if got := c.Gain(tt.level); math.Abs(got-tt.gain) > 1e-12 {
			t.Errorf("Gain(%v) = %.16f, want %.16f", tt.level, got, tt.gain)
		}
	}
}

func TestGainCurve_RangeAndMonotonicity(t *testing.T) {
	for _, tap := range []float64{0.5, 4, 32, 200} {
		c, _ := NewGainCurve(tap, 20)

		prev := 1.0
		for i := range 2000 {
			l := float64(i) * 0.01
			g := c.Gain(l)
			if !(g > 0 && g <= 1) {
				t.Fatalf("tap=%v: Gain(%v) = %v outside (0, 1]", tap, l, g)
			}
			if g > prev {
				t.Fatalf("tap=%v: Gain(%v) = %v rose above %v", tap, l, g, prev)
			}
			prev = g
		}
	}
}

func TestGainCurve_CompressedLevelBoundedByTap(t *testing.T) {
	c, _ := NewGainCurve(32, 20)

	for _, l := range []float64{0.01, 0.5, 2, 10, 100, 1e6} {
		x := c.Scaled(l)
		if out := c.Gain(l) * x; out > c.Tap()*(1+1e-12) {
			t.Fatalf("level %v: gain*x = %v exceeds tap", l, out)
		}
	}

	if got := c.Compressed(1e6); math.Abs(got-32) > 1e-9 {
		t.Fatalf("Compressed(1e6) = %v, want ~32", got)
	}
	if got := c.Compressed(0); got != 0 {
		t.Fatalf("Compressed(0) = %v, want 0", got)
	}
}

func TestGainCurve_Gains(t *testing.T) {
	c, _ := NewGainCurve(32, 20)

	gains, err := c.Gains([]float64{0, 1, 2.7})
	if err != nil {
		t.Fatalf("Gains() error = %v", err)
	}
	if len(gains) != 3 || gains[0] != 1 || gains[2] >= gains[1] {
		t.Fatalf("unexpected gains %v", gains)
	}

	if _, err := c.Gains([]float64{0, math.NaN()}); !errors.Is(err, ErrNonFinite) {
		t.Fatalf("expected ErrNonFinite, got %v", err)
	}
	if _, err := c.Gains([]float64{math.Inf(1)}); !errors.Is(err, ErrNonFinite) {
		t.Fatalf("expected ErrNonFinite, got %v", err)
	}
	if _, err := c.Gains([]float64{-0.1}); !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("expected ErrInvalidLevel, got %v", err)
	}

	empty, err := c.Gains(nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("Gains(nil) = %v, %v", empty, err)
	}
}

func TestGainCurve_Setters(t *testing.T) {
	c, _ := NewGainCurve(32, 20)
	if err := c.SetTap(-3); !errors.Is(err, ErrInvalidTap) {
		t.Fatalf("SetTap(-3) error = %v", err)
	}
	if c.Tap() != 32 {
		t.Fatalf("failed SetTap changed tap to %v", c.Tap())
	}
	if err := c.SetLevelScale(10); err != nil || c.LevelScale() != 10 {
		t.Fatalf("SetLevelScale(10) = %v, scale %v", err, c.LevelScale())
	}
}
