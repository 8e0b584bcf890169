package dynamics

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"
)

// ApplyGain writes src[i]*env[i] to dst. All slices must have the same
// length; dst may alias src.
func ApplyGain(dst, src, env []float64) error {
	if len(dst) != len(src) || len(env) != len(src) {
		return fmt.Errorf("dynamics: apply gain: length mismatch dst=%d src=%d env=%d", len(dst), len(src), len(env))
	}
	if len(src) == 0 {
		return nil
	}

	vecmath.MulBlock(dst, src, env)

	return nil
}
