package dynamics

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidFade     = errors.New("dynamics: fade must span at least one tick")
	ErrInvalidSegments = errors.New("dynamics: segments do not tile the tick range")
	ErrInvalidGain     = errors.New("dynamics: gain must be in (0, 1]")
)

// Segment is a run of ticks [StartTick, EndTick) sharing one gain.
type Segment struct {
	StartTick int
	EndTick   int
	Gain      float64
}

// Ticks returns the number of ticks in the segment.
func (s Segment) Ticks() int { return s.EndTick - s.StartTick }

// TicksPerFade converts a fade duration into a whole number of ticks, at
// least one.
func TicksPerFade(timeFade, timeTick float64) (int, error) {
	if !(timeFade > 0) || math.IsInf(timeFade, 0) || !(timeTick > 0) || math.IsInf(timeTick, 0) {
		return 0, fmt.Errorf("%w: fade %v s, tick %v s", ErrInvalidFade, timeFade, timeTick)
	}

	n := math.Round(timeFade / timeTick)
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: fade %v s is too long for tick %v s", ErrInvalidFade, timeFade, timeTick)
	}

	return max(1, int(n)), nil
}

// Segments groups per-tick gains into consecutive segments of ticksPerFade
// ticks. The last segment may be shorter. Each segment takes the smallest
// gain of its ticks, so the loudest tick decides. An empty gain slice gives
// no segments.
func Segments(gains []float64, ticksPerFade int) ([]Segment, error) {
	if ticksPerFade < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFade, ticksPerFade)
	}

	segs := make([]Segment, 0, (len(gains)+ticksPerFade-1)/ticksPerFade)
	for start := 0; start < len(gains); start += ticksPerFade {
		end := min(start+ticksPerFade, len(gains))

		g := math.Inf(1)
		for i, v := range gains[start:end] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: gain %v at tick %d", ErrNonFinite, v, start+i)
			}
			if v < g {
				g = v
			}
		}

		segs = append(segs, Segment{StartTick: start, EndTick: end, Gain: g})
	}

	return segs, nil
}
