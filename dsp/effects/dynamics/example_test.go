package dynamics_test

import (
	"fmt"

	"github.com/cwbudde/algo-serene/dsp/effects/dynamics"
)

func ExampleGainCurve() {
	c, _ := dynamics.NewGainCurve(32, 20)

	for _, l := range []float64{0, 1, 2.7, 10} {
		fmt.Printf("L=%-4v gain=%.4f compressed=%.2f\n", l, c.Gain(l), c.Compressed(l))
	}
	// Output:
	// L=0    gain=1.0000 compressed=0.00
	// L=1    gain=0.8874 compressed=17.75
	// L=2.7  gain=0.5534 compressed=29.88
	// L=10   gain=0.1600 compressed=32.00
}

func ExampleNewEnvelope() {
	segs, _ := dynamics.Segments([]float64{1, 1, 0.5, 0.6}, 2)
	env, _ := dynamics.NewEnvelope(segs, 2, 8, dynamics.Linear)

	fmt.Println(segs)
	fmt.Println(env.Render())
	// Output:
	// [{0 2 1} {2 4 0.5}]
	// [1 0.875 0.75 0.625 0.5 0.5 0.5 0.5]
}
