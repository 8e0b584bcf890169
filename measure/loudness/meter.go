package loudness

import "math"

// Tick is one analysis window: Len samples starting at Start.
type Tick struct {
	Start int
	Len   int
}

// End returns the index one past the last sample of the tick.
func (t Tick) End() int { return t.Start + t.Len }

// Profile is one non-negative loudness value per tick.
type Profile []float64

// Max returns the largest value, or 0 for an empty profile.
func (p Profile) Max() float64 {
	m := 0.0
	for _, v := range p {
		if v > m {
			m = v
		}
	}
	return m
}

// Ticks tiles n samples with ticks of the given size. The last tick is
// shorter when size does not divide n. A non-positive size yields no
// ticks.
func Ticks(n, size int) []Tick {
	if n <= 0 || size <= 0 {
		return nil
	}

	ticks := make([]Tick, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		ticks = append(ticks, Tick{Start: start, Len: min(size, n-start)})
	}

	return ticks
}

// TickRMS returns the RMS amplitude of every tick of signal. Each tick is
// measured over its actual length, so a short final tick is not depressed
// by padding.
func TickRMS(signal []float64, size int) Profile {
	ticks := Ticks(len(signal), size)
	out := make(Profile, len(ticks))

	for i, t := range ticks {
		sum := 0.0
		for _, s := range signal[t.Start:t.End()] {
			sum += s * s
		}
		out[i] = math.Sqrt(sum / float64(t.Len))
	}

	return out
}

// Meter measures per-tick RMS at a fixed sample rate.
type Meter struct {
	timeTick   float64
	sampleRate float64
	tickSize   int
}

// NewMeter creates a tick meter for the given sample rate.
func NewMeter(sampleRate float64, opts ...MeterOption) (*Meter, error) {
	cfg := ApplyMeterOptions(opts...)

	size, err := TickSize(cfg.TimeTick, sampleRate)
	if err != nil {
		return nil, err
	}

	return &Meter{
		timeTick:   cfg.TimeTick,
		sampleRate: sampleRate,
		tickSize:   size,
	}, nil
}

// TickSize returns the tick length in samples.
func (m *Meter) TickSize() int { return m.tickSize }

// SampleRate returns the sample rate in Hz.
func (m *Meter) SampleRate() float64 { return m.sampleRate }

// TimeTick returns the nominal tick duration in seconds.
func (m *Meter) TimeTick() float64 { return m.timeTick }

// Ticks returns the tiling of an n-sample signal.
func (m *Meter) Ticks(n int) []Tick { return Ticks(n, m.tickSize) }

// Measure returns the per-tick RMS profile of signal.
func (m *Meter) Measure(signal []float64) Profile { return TickRMS(signal, m.tickSize) }
