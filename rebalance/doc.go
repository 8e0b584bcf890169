// Package rebalance flattens the loudness of a recording over time, with
// extra weight on bass content.
//
// A run splits the signal into a low and a high band, measures per-tick RMS
// of both, combines them with the bass weight, maps the result through a
// tanh gain curve, takes the quietest gain of every fade segment and
// applies a piecewise interpolated envelope to the original samples:
//
//	e, err := rebalance.New(rebalance.WithBassWeight(4))
//	if err != nil {
//		return err
//	}
//	out, err := e.Process(w)
//
// Errors match one of ErrInvalidParameter, ErrEmptyInput or ErrNumericFault.
package rebalance
