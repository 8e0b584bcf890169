package audiofile

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-serene/dsp/core"
	"github.com/cwbudde/algo-serene/internal/testutil"
	goaudio "github.com/go-audio/audio"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"song.wav", WAV, true},
		{"SONG.WAV", WAV, true},
		{"dir.v2/take.aiff", AIFF, true},
		{"take.aif", AIFF, true},
		{"track.mp3", MP3, true},
		{"track.ogg", OGG, true},
		{"track.flac", "", false},
		{"noext", "", false},
	}

	for _, tc := range tests {
		got, err := FormatFromPath(tc.path)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("FormatFromPath(%q) = %q, %v, want %q", tc.path, got, err, tc.want)
			}
			continue
		}
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("FormatFromPath(%q) err = %v, want ErrUnsupportedFormat", tc.path, err)
		}
		if IsAudioPath(tc.path) {
			t.Fatalf("IsAudioPath(%q) = true", tc.path)
		}
	}
}

func TestWAVRoundTrip(t *testing.T) {
	for _, depth := range []int{16, 24} {
		w := &core.Waveform{SampleRate: 22050, Data: [][]float64{
			testutil.DeterministicSine(440, 22050, 0.7, 1000),
			testutil.DeterministicNoise(5, 0.5, 1000),
		}}
		path := filepath.Join(t.TempDir(), "out.wav")

		if err := EncodeWAV(path, w, depth); err != nil {
			t.Fatalf("EncodeWAV(%d): %v", depth, err)
		}

		got, info, err := Decode(path)
		if err != nil {
			t.Fatalf("Decode(%d): %v", depth, err)
		}
		if !got.SameShape(w) {
			t.Fatalf("depth %d: decoded %v Hz %d ch %d frames", depth, got.SampleRate, got.Channels(), got.Frames())
		}
		if info.Format != WAV || info.BitDepth != depth || info.Frames != 1000 || info.Size <= 0 {
			t.Fatalf("depth %d: info = %+v", depth, info)
		}

		tol := 2.0 / float64(int64(1)<<(depth-1))
		for ch := range w.Data {
			testutil.RequireSliceNearlyEqual(t, got.Data[ch], w.Data[ch], tol)
		}
	}
}

func TestEncodeWAVClips(t *testing.T) {
	w := testutil.Mono(8000, []float64{2, -3, 0.5})
	path := filepath.Join(t.TempDir(), "clip.wav")

	if err := EncodeWAV(path, w, 0); err != nil {
		t.Fatal(err)
	}
	got, _, err := Decode(path)
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{32767.0 / 32768, -32767.0 / 32768, 16384.0 / 32768}
	testutil.RequireSliceNearlyEqual(t, got.Data[0], want, 1e-12)
}

func TestEncodeWAVErrors(t *testing.T) {
	dir := t.TempDir()
	w := testutil.Mono(8000, []float64{0})

	if err := EncodeWAV(filepath.Join(dir, "x.mp3"), w, 16); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("mp3 target: err = %v", err)
	}
	if err := EncodeWAV(filepath.Join(dir, "x.wav"), w, 12); !errors.Is(err, ErrBitDepth) {
		t.Fatalf("12 bit: err = %v", err)
	}
	if err := EncodeWAV(filepath.Join(dir, "x.wav"), &core.Waveform{SampleRate: 8000}, 16); !errors.Is(err, core.ErrNoChannels) {
		t.Fatalf("no channels: err = %v", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.wav")
	if err := os.WriteFile(garbage, []byte("definitely not RIFF data"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Decode(garbage); !errors.Is(err, ErrInvalidFile) {
		t.Fatalf("garbage: err = %v, want ErrInvalidFile", err)
	}

	if _, _, err := Decode(filepath.Join(dir, "missing.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing: err = %v, want os.ErrNotExist", err)
	}
	if _, _, err := Decode(filepath.Join(dir, "x.flac")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("flac: err = %v", err)
	}
}

func TestQuantize(t *testing.T) {
	got := Quantize([]float64{0, 1, -1, 0.5, math.Inf(1)}, 16)
	want := []int{0, 32767, -32767, 16384, 32767}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Quantize = %v, want %v", got, want)
		}
	}
}

func TestFromIntsEightBit(t *testing.T) {
	format := &goaudio.Format{NumChannels: 1, SampleRate: 8000}

	tests := []struct {
		name      string
		data      []int
		unsigned8 bool
	}{
		{"wav unsigned", []int{128, 192, 64, 0}, true},
		{"aiff signed", []int{0, 64, -64, -128}, false},
	}

	want := []float64{0, 0.5, -0.5, -1}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, err := fromInts(tc.data, format, 8, tc.unsigned8)
			if err != nil {
				t.Fatalf("fromInts: %v", err)
			}
			testutil.RequireSliceNearlyEqual(t, w.Data[0], want, 0)
		})
	}

	if _, err := fromInts([]int{0}, format, 12, false); !errors.Is(err, ErrBitDepth) {
		t.Fatalf("fromInts(12 bit) err = %v, want ErrBitDepth", err)
	}
}
