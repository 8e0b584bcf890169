package dynamics

import (
	"fmt"
	"math"
)

// Interpolation selects how the envelope moves between two knots.
type Interpolation int

const (
	// Linear moves the gain in equal steps.
	Linear Interpolation = iota
	// Geometric moves the gain in equal ratios, which is linear in dB.
	Geometric
)

func (m Interpolation) String() string {
	switch m {
	case Linear:
		return "linear"
	case Geometric:
		return "geometric"
	default:
		return fmt.Sprintf("Interpolation(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Interpolation) MarshalText() ([]byte, error) {
	if m != Linear && m != Geometric {
		return nil, fmt.Errorf("dynamics: unknown interpolation %v", m)
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Interpolation) UnmarshalText(text []byte) error {
	switch string(text) {
	case "linear":
		*m = Linear
	case "geometric":
		*m = Geometric
	default:
		return fmt.Errorf("dynamics: unknown interpolation %q", text)
	}
	return nil
}

// Envelope is a per-sample gain curve built from fade segments.
//
// Knots sit on segment boundaries. The first knot carries the first
// segment's gain, the last knot the last segment's gain, and every inner
// knot the smaller gain of the two segments it separates. Inside a segment
// the gain moves from its left knot to its right knot, so a segment is
// never louder than its own gain and fades into a louder passage happen
// inside the quieter neighbour.
type Envelope struct {
	frames int
	interp Interpolation

	// bounds[j] is the first sample of segment j; bounds[len(segs)] == frames.
	bounds []int
	knots  []float64
}

// NewEnvelope builds the envelope for frames samples from segments
// produced over ticks of tickSize samples. Segments must start at tick 0,
// be contiguous and carry gains in (0, 1]. No segments give unity gain
// everywhere.
func NewEnvelope(segs []Segment, tickSize, frames int, interp Interpolation) (*Envelope, error) {
	if interp != Linear && interp != Geometric {
		return nil, fmt.Errorf("dynamics: unknown interpolation %v", interp)
	}
	if tickSize < 1 {
		return nil, fmt.Errorf("%w: tick size %d", ErrInvalidSegments, tickSize)
	}

	e := &Envelope{frames: max(frames, 0), interp: interp}
	if len(segs) == 0 || e.frames == 0 {
		return e, nil
	}

	next := 0
	for j, s := range segs {
		if s.StartTick != next || s.EndTick <= s.StartTick {
			return nil, fmt.Errorf("%w: segment %d spans [%d, %d), want start %d", ErrInvalidSegments, j, s.StartTick, s.EndTick, next)
		}
		if !(s.Gain > 0 && s.Gain <= 1) {
			return nil, fmt.Errorf("%w: segment %d gain %v", ErrInvalidGain, j, s.Gain)
		}
		next = s.EndTick
	}
	if last := segs[len(segs)-1].EndTick; last*tickSize < e.frames || (last-1)*tickSize >= e.frames {
		return nil, fmt.Errorf("%w: %d ticks of %d samples for %d frames", ErrInvalidSegments, last, tickSize, e.frames)
	}

	e.bounds = make([]int, len(segs)+1)
	e.knots = make([]float64, len(segs)+1)

	for j, s := range segs {
		e.bounds[j] = s.StartTick * tickSize
		if j == 0 {
			e.knots[j] = s.Gain
		} else {
			e.knots[j] = math.Min(segs[j-1].Gain, s.Gain)
		}
	}
	e.bounds[len(segs)] = e.frames
	e.knots[len(segs)] = segs[len(segs)-1].Gain

	return e, nil
}

// Len returns the number of samples the envelope covers.
func (e *Envelope) Len() int { return e.frames }

// Knots returns a copy of the boundary gains.
func (e *Envelope) Knots() []float64 {
	return append([]float64(nil), e.knots...)
}

// At returns the gain at sample i. Indices outside [0, Len) are clamped.
func (e *Envelope) At(i int) float64 {
	if len(e.knots) == 0 {
		return 1
	}
	if i < 0 {
		return e.knots[0]
	}
	if i >= e.frames {
		return e.knots[len(e.knots)-1]
	}

	// Segment j with bounds[j] <= i < bounds[j+1].
	lo, hi := 0, len(e.bounds)-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if e.bounds[mid] <= i {
			lo = mid
		} else {
			hi = mid
		}
	}

	return e.interpolate(lo, i)
}

// Render returns the gain for every sample in a new slice.
func (e *Envelope) Render() []float64 {
	out := make([]float64, e.frames)
	if len(e.knots) == 0 {
		for i := range out {
			out[i] = 1
		}
		return out
	}

	for j := range len(e.knots) - 1 {
		for i := e.bounds[j]; i < e.bounds[j+1]; i++ {
			out[i] = e.interpolate(j, i)
		}
	}

	return out
}

func (e *Envelope) interpolate(j, i int) float64 {
	left, right := e.knots[j], e.knots[j+1]
	if left == right {
		return left
	}

	t := float64(i-e.bounds[j]) / float64(e.bounds[j+1]-e.bounds[j])
	if e.interp == Geometric {
		return left * math.Pow(right/left, t)
	}

	return left + (right-left)*t
}
