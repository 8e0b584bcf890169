package audiofile

import (
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-serene/dsp/core"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DefaultBitDepth is the PCM depth EncodeWAV uses for a zero depth.
const DefaultBitDepth = 16

const wavFormatPCM = 1

// EncodeWAV writes w to path as integer PCM WAV. Samples outside [-1, 1]
// are clipped. bitDepth is 16 or 24; 0 means DefaultBitDepth.
func EncodeWAV(path string, w *core.Waveform, bitDepth int) (err error) {
	if bitDepth == 0 {
		bitDepth = DefaultBitDepth
	}
	if bitDepth != 16 && bitDepth != 24 {
		return fmt.Errorf("%w: %d", ErrBitDepth, bitDepth)
	}
	if format, ferr := FormatFromPath(path); ferr != nil || format != WAV {
		return fmt.Errorf("%w: can only write wav, got %q", ErrUnsupportedFormat, path)
	}
	if err := w.Validate(); err != nil {
		return fmt.Errorf("audiofile: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audiofile: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("audiofile: %w", cerr)
		}
	}()

	sampleRate := int(math.Round(w.SampleRate))
	enc := wav.NewEncoder(f, sampleRate, bitDepth, w.Channels(), wavFormatPCM)

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: w.Channels(),
			SampleRate:  sampleRate,
		},
		Data:           Quantize(w.Interleaved(), bitDepth),
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("audiofile: write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audiofile: finish %s: %w", path, err)
	}

	return nil
}

// Quantize converts float samples to signed PCM integers of the given
// depth, rounding to nearest and clipping to [-1, 1].
func Quantize(samples []float64, bitDepth int) []int {
	full := float64(int64(1)<<(bitDepth-1)) - 1
	out := make([]int, len(samples))
	for i, s := range samples {
		out[i] = int(math.Round(core.Clamp(s, -1, 1) * full))
	}
	return out
}
