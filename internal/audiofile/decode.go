package audiofile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-serene/dsp/core"
	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

type decodeFunc func(r io.ReadSeeker) (*core.Waveform, int, error)

var decoders = map[Format]decodeFunc{
	WAV:  decodeWAV,
	AIFF: decodeAIFF,
	MP3:  decodeMP3,
	OGG:  decodeOGG,
}

// Decode reads the whole file at path.
func Decode(path string) (*core.Waveform, Info, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, Info{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("audiofile: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, Info{}, fmt.Errorf("audiofile: %w", err)
	}

	w, depth, err := decoders[format](f)
	if err != nil {
		return nil, Info{}, fmt.Errorf("audiofile: decode %s: %w", path, err)
	}

	return w, Info{
		Path:       path,
		Format:     format,
		SampleRate: int(w.SampleRate),
		Channels:   w.Channels(),
		Frames:     w.Frames(),
		BitDepth:   depth,
		Size:       st.Size(),
	}, nil
}

func decodeWAV(r io.ReadSeeker) (*core.Waveform, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: not a PCM wav file", ErrInvalidFile)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}

	depth := int(dec.BitDepth)
	w, err := fromInts(buf.Data, buf.Format, depth, true)
	return w, depth, err
}

func decodeAIFF(r io.ReadSeeker) (*core.Waveform, int, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: not an aiff file", ErrInvalidFile)
	}
	dec.ReadInfo()

	format := dec.Format()
	if format == nil {
		return nil, 0, fmt.Errorf("%w: missing format chunk", ErrInvalidFile)
	}

	var data []int
	chunk := &goaudio.IntBuffer{Format: format, Data: make([]int, 4096*format.NumChannels)}
	for {
		n, err := dec.PCMBuffer(chunk)
		data = append(data, chunk.Data[:n]...)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, 0, err
		}
		if n == 0 {
			break
		}
	}

	depth := int(dec.BitDepth)
	w, err := fromInts(data, format, depth, false)
	return w, depth, err
}

// go-mp3 always produces 16-bit little-endian stereo.
func decodeMP3(r io.ReadSeeker) (*core.Waveform, int, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, err
	}

	// Whole stereo frames only.
	samples := make([]float64, len(raw)/4*2)
	for i := range samples {
		samples[i] = float64(int16(binary.LittleEndian.Uint16(raw[2*i:]))) / 32768
	}

	w, err := core.FromInterleaved(samples, 2, float64(dec.SampleRate()))
	return w, 0, err
}

func decodeOGG(r io.ReadSeeker) (*core.Waveform, int, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	samples := make([]float64, len(data))
	for i, v := range data {
		samples[i] = float64(v)
	}

	w, err := core.FromInterleaved(samples, format.Channels, float64(format.SampleRate))
	return w, 0, err
}

func fromInts(data []int, format *goaudio.Format, depth int, unsigned8 bool) (*core.Waveform, error) {
	if format == nil || format.NumChannels <= 0 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidFile)
	}

	scale, offset, err := intScale(depth, unsigned8)
	if err != nil {
		return nil, err
	}

	samples := make([]float64, len(data)-len(data)%format.NumChannels)
	for i := range samples {
		samples[i] = (float64(data[i]) - offset) / scale
	}

	return core.FromInterleaved(samples, format.NumChannels, float64(format.SampleRate))
}

// intScale returns the full-scale value and the zero offset of PCM
// integers of the given depth. 8-bit WAV is unsigned, 8-bit AIFF signed.
func intScale(depth int, unsigned8 bool) (scale, offset float64, err error) {
	switch depth {
	case 8:
		if unsigned8 {
			return 128, 128, nil
		}
		return 128, 0, nil
	case 16, 24, 32:
		return float64(int64(1) << (depth - 1)), 0, nil
	default:
		return 0, 0, fmt.Errorf("%w: %d", ErrBitDepth, depth)
	}
}
