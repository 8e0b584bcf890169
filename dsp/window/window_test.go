package window

import (
	"errors"
	"math"
	"testing"
)

func TestGenerate(t *testing.T) {
	for _, typ := range []Type{TypeRectangular, TypeHann, TypeHamming, TypeBlackman} {
		t.Run(typ.String(), func(t *testing.T) {
			w := Generate(typ, 65)
			if len(w) != 65 {
				t.Fatalf("len=%d, want 65", len(w))
			}

			for i, v := range w {
				if math.IsNaN(v) || v < -1e-15 || v > 1+1e-15 {
					t.Fatalf("coefficient[%d] = %v, want in [0, 1]", i, v)
				}
				if d := math.Abs(v - w[len(w)-1-i]); d > 1e-12 {
					t.Fatalf("not symmetric at %d: %v vs %v", i, v, w[len(w)-1-i])
				}
			}
			if math.Abs(w[32]-1) > 1e-12 {
				t.Fatalf("center = %v, want 1", w[32])
			}
		})
	}
}

func TestGenerateInvalid(t *testing.T) {
	if w := Generate(TypeHann, 0); w != nil {
		t.Fatalf("Generate(0) = %v, want nil", w)
	}
	if w := Generate(Type(99), 8); w != nil {
		t.Fatalf("Generate(unknown) = %v, want nil", w)
	}
	if w := Generate(TypeHann, 1); len(w) != 1 || w[0] != 0 {
		t.Fatalf("Generate(1) = %v, want [0]", w)
	}
}

func TestPeriodicHannSumsToConstant(t *testing.T) {
	// Periodic Hann at 50% overlap adds up to exactly 1.
	const n = 16
	w := Generate(TypeHann, n, WithPeriodic())
	for i := range n / 2 {
		if s := w[i] + w[i+n/2]; math.Abs(s-1) > 1e-12 {
			t.Fatalf("w[%d]+w[%d] = %v, want 1", i, i+n/2, s)
		}
	}
}

func TestPowerGain(t *testing.T) {
	w := Generate(TypeHann, 4096, WithPeriodic())
	g, err := PowerGain(w)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(g-0.375) > 1e-12 {
		t.Fatalf("PowerGain(hann) = %v, want 0.375", g)
	}

	if _, err := PowerGain(nil); err == nil {
		t.Fatal("PowerGain(nil): expected error")
	}
}

func TestApplyCoefficientsInPlace(t *testing.T) {
	buf := []float64{2, 2, 2}
	if err := ApplyCoefficientsInPlace(buf, []float64{0.5, 1, 0}); err != nil {
		t.Fatal(err)
	}
	if buf[0] != 1 || buf[1] != 2 || buf[2] != 0 {
		t.Fatalf("got %v, want [1 2 0]", buf)
	}
	if err := ApplyCoefficientsInPlace(buf, []float64{1}); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestTypeText(t *testing.T) {
	for _, typ := range []Type{TypeRectangular, TypeHann, TypeHamming, TypeBlackman} {
		text, err := typ.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", typ, err)
		}
		var got Type
		if err := got.UnmarshalText(text); err != nil || got != typ {
			t.Fatalf("UnmarshalText(%q) = %v, %v", text, got, err)
		}
	}

	var typ Type
	if err := typ.UnmarshalText([]byte("kaiser")); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("UnmarshalText(kaiser) = %v, want ErrUnknownType", err)
	}
	if _, err := Type(42).MarshalText(); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("MarshalText(42) = %v, want ErrUnknownType", err)
	}
}
