package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSampleRate = errors.New("core: sample rate must be positive and finite")
	ErrNoChannels        = errors.New("core: waveform has no channels")
	ErrChannelLength     = errors.New("core: channels differ in length")
	ErrNonFinite         = errors.New("core: non-finite sample")
)

// Waveform is a decoded, fully materialised multi-channel signal.
//
// Samples are stored planar: Data[ch][frame]. Values are normalized floats,
// nominally in [-1, 1]. Processing stages treat a Waveform as read-only and
// return new values.
type Waveform struct {
	SampleRate float64
	Data       [][]float64
}

// NewWaveform returns a zero-filled waveform with the given shape.
func NewWaveform(sampleRate float64, channels, frames int) *Waveform {
	channels = max(channels, 0)
	frames = max(frames, 0)

	data := make([][]float64, channels)
	for i := range data {
		data[i] = make([]float64, frames)
	}

	return &Waveform{SampleRate: sampleRate, Data: data}
}

// FromInterleaved splits interleaved frames into a planar Waveform.
// A trailing partial frame is an error.
func FromInterleaved(samples []float64, channels int, sampleRate float64) (*Waveform, error) {
	if channels <= 0 {
		return nil, ErrNoChannels
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples is not a multiple of %d channels", ErrChannelLength, len(samples), channels)
	}

	w := NewWaveform(sampleRate, channels, len(samples)/channels)
	for i, s := range samples {
		w.Data[i%channels][i/channels] = s
	}

	return w, nil
}

// Channels returns the channel count.
func (w *Waveform) Channels() int { return len(w.Data) }

// Frames returns the number of samples per channel.
func (w *Waveform) Frames() int {
	if len(w.Data) == 0 {
		return 0
	}
	return len(w.Data[0])
}

// Duration returns the length in seconds.
func (w *Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(w.Frames()) / w.SampleRate
}

// Validate checks the structural invariants: positive sample rate, at least
// one channel, equal channel lengths and finite samples.
func (w *Waveform) Validate() error {
	if w.SampleRate <= 0 || !IsFinite(w.SampleRate) {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, w.SampleRate)
	}
	if len(w.Data) == 0 {
		return ErrNoChannels
	}

	frames := len(w.Data[0])
	for ch, samples := range w.Data {
		if len(samples) != frames {
			return fmt.Errorf("%w: channel %d has %d frames, want %d", ErrChannelLength, ch, len(samples), frames)
		}
		if idx := FirstNonFinite(samples); idx >= 0 {
			return fmt.Errorf("%w: channel %d frame %d", ErrNonFinite, ch, idx)
		}
	}

	return nil
}

// SameShape reports whether o has the same sample rate, channel count and
// frame count as w.
func (w *Waveform) SameShape(o *Waveform) bool {
	return o != nil && w.SampleRate == o.SampleRate &&
		w.Channels() == o.Channels() && w.Frames() == o.Frames()
}

// Clone returns a deep copy.
func (w *Waveform) Clone() *Waveform {
	out := &Waveform{SampleRate: w.SampleRate, Data: make([][]float64, len(w.Data))}
	for i, samples := range w.Data {
		out.Data[i] = append([]float64(nil), samples...)
	}
	return out
}

// Interleaved returns the samples frame by frame.
func (w *Waveform) Interleaved() []float64 {
	channels := w.Channels()
	out := make([]float64, channels*w.Frames())
	for ch, samples := range w.Data {
		for i, s := range samples {
			out[i*channels+ch] = s
		}
	}
	return out
}

// Downmix averages all channels into a new mono signal. A mono waveform is
// copied.
func (w *Waveform) Downmix() []float64 {
	frames := w.Frames()
	out := make([]float64, frames)
	if len(w.Data) == 0 {
		return out
	}
	if len(w.Data) == 1 {
		copy(out, w.Data[0])
		return out
	}

	for _, samples := range w.Data {
		for i, s := range samples {
			out[i] += s
		}
	}

	inv := 1 / float64(len(w.Data))
	for i := range out {
		out[i] *= inv
	}

	return out
}
