package loudness

import (
	"fmt"
	"math"
)

// Combine merges band profiles into one loudness profile:
//
//	L[i] = bassWeight*low[i] + high[i]
//
// A bass weight of 0 ignores the low band entirely.
func Combine(low, high Profile, bassWeight float64) (Profile, error) {
	if !(bassWeight >= 0) || math.IsInf(bassWeight, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWeight, bassWeight)
	}
	if len(low) != len(high) {
		return nil, fmt.Errorf("%w: low %d, high %d", ErrLengthMismatch, len(low), len(high))
	}

	out := make(Profile, len(low))
	for i := range low {
		out[i] = bassWeight*low[i] + high[i]
	}

	return out, nil
}
