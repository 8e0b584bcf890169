package crossover

import "github.com/cwbudde/algo-serene/dsp/filter/biquad"

// twoWay is a causal lowpass and highpass pair fed from the same input.
type twoWay struct {
	lp *biquad.Chain
	hp *biquad.Chain
}

func newTwoWay(lp, hp []biquad.Coefficients) *twoWay {
	return &twoWay{lp: biquad.NewChain(lp), hp: biquad.NewChain(hp)}
}

// processBlock writes the lowpass output of input to lo and the highpass
// output to hi. All three slices must have the same length.
func (c *twoWay) processBlock(input, lo, hi []float64) {
	n := len(input)
	if n == 0 {
		return
	}

	_ = lo[n-1]
	_ = hi[n-1]

	copy(lo, input)
	copy(hi, input)
	c.lp.ProcessBlock(lo)
	c.hp.ProcessBlock(hi)
}
