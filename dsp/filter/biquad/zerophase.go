package biquad

// Filter runs src through a fresh cascade built from coeffs and returns the
// result in a new slice. The cascade starts from zero state.
func Filter(coeffs []Coefficients, src []float64) []float64 {
	out := make([]float64, len(src))
	copy(out, src)
	NewChain(coeffs).ProcessBlock(out)

	return out
}

// ZeroPhase applies the cascade forward and then backward over src, so the
// result has zero phase shift and the squared magnitude response of the
// cascade.
//
// Both ends are extended by an odd reflection of the signal about its end
// samples, and each pass starts in the steady state for its first input
// sample. This keeps start-up transients out of the returned range.
// An all-zero input gives an all-zero output.
func ZeroPhase(coeffs []Coefficients, src []float64) []float64 {
	n := len(src)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if len(coeffs) == 0 {
		copy(out, src)
		return out
	}

	pad := min(PadLength(len(coeffs)), n-1)

	ext := make([]float64, n+2*pad)
	first, last := src[0], src[n-1]
	for k := range pad {
		ext[pad-1-k] = 2*first - src[k+1]
		ext[pad+n+k] = 2*last - src[n-2-k]
	}
	copy(ext[pad:], src)

	chain := NewChain(coeffs)

	chain.PrimeDC(ext[0])
	chain.ProcessBlock(ext)

	reverse(ext)
	chain.PrimeDC(ext[0])
	chain.ProcessBlock(ext)
	reverse(ext)

	copy(out, ext[pad:pad+n])

	return out
}

// PadLength returns the number of reflected samples ZeroPhase adds to each
// end for a cascade of the given number of sections, before limiting it to
// the signal length.
func PadLength(sections int) int {
	return 3 * (2*sections + 1)
}

func reverse(buf []float64) {
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
}
