package rebalance

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-serene/dsp/core"
	"github.com/cwbudde/algo-serene/dsp/effects/dynamics"
	"github.com/cwbudde/algo-serene/dsp/filter/crossover"
	"github.com/cwbudde/algo-serene/internal/testutil"
)

const testRate = 1000.0

// lowBurst is one silent second followed by one second of a 20 Hz sine.
func lowBurst() *core.Waveform {
	return testutil.Mono(testRate, testutil.Concat(
		testutil.Silence(1000),
		testutil.DeterministicSine(20, testRate, 1, 1000),
	))
}

func mustEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestProcessErrorKinds(t *testing.T) {
	nan := testutil.Silence(100)
	nan[42] = math.NaN()

	tests := []struct {
		name string
		w    *core.Waveform
		opts []Option
		want error
	}{
		{"nil waveform", nil, nil, ErrEmptyInput},
		{"no channels", &core.Waveform{SampleRate: testRate}, nil, ErrEmptyInput},
		{"nan sample", testutil.Mono(testRate, nan), nil, ErrNumericFault},
		{"zero sample rate", testutil.Mono(0, testutil.Silence(10)), nil, ErrInvalidParameter},
		{"ragged channels", &core.Waveform{SampleRate: testRate, Data: [][]float64{make([]float64, 3), make([]float64, 4)}}, nil, ErrInvalidParameter},
		{"mid range above nyquist", testutil.Mono(150, testutil.Silence(300)), nil, ErrInvalidParameter},
		{"zero tap", testutil.Mono(testRate, testutil.Silence(10)), []Option{WithTapValue(0)}, ErrInvalidParameter},
		{"zero tick", testutil.Mono(testRate, testutil.Silence(10)), []Option{WithTimeTick(0)}, ErrInvalidParameter},
	}

	kinds := []error{ErrInvalidParameter, ErrEmptyInput, ErrNumericFault}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Process(tc.w, tc.opts...)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			for _, k := range kinds {
				if k != tc.want && errors.Is(err, k) {
					t.Fatalf("err %v also matches %v", err, k)
				}
			}
		})
	}
}

func TestProcessKeepsComponentSentinel(t *testing.T) {
	_, err := Process(testutil.Mono(150, testutil.Silence(300)))
	if !errors.Is(err, crossover.ErrInvalidFrequency) {
		t.Fatalf("err = %v, want wrapped crossover.ErrInvalidFrequency", err)
	}
}

func TestProcessSilence(t *testing.T) {
	w := &core.Waveform{SampleRate: 44100, Data: [][]float64{make([]float64, 4410), make([]float64, 4410)}}

	out, err := Process(w)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	for ch, samples := range out.Data {
		for i, v := range samples {
			if v != 0 {
				t.Fatalf("out[%d][%d] = %v, want 0", ch, i, v)
			}
		}
	}
}

func TestProcessZeroFrames(t *testing.T) {
	w := testutil.Mono(testRate, []float64{})

	out, err := Process(w)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !out.SameShape(w) {
		t.Fatalf("shape changed: %d channels %d frames", out.Channels(), out.Frames())
	}
}

func TestProcessShapePreserved(t *testing.T) {
	tests := []struct {
		name     string
		rate     float64
		channels int
		frames   int
		opts     []Option
	}{
		{"mono", 8000, 1, 8000, nil},
		{"stereo partial tick", 8000, 2, 8123, nil},
		{"short", 8000, 2, 5, nil},
		{"single frame", 8000, 1, 1, nil},
		{"six channels independent", 16000, 6, 4000, []Option{WithChannelMode(Independent)}},
		{"causal highpass", 8000, 2, 3000, []Option{WithPhase(crossover.Causal), WithHighBand(crossover.Highpass)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := core.NewWaveform(tc.rate, tc.channels, tc.frames)
			for ch := range w.Data {
				copy(w.Data[ch], testutil.DeterministicNoise(int64(ch+1), 0.8, tc.frames))
			}

			out, err := Process(w, tc.opts...)
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if !out.SameShape(w) {
				t.Fatalf("got %v Hz %d ch %d frames, want %v Hz %d ch %d frames",
					out.SampleRate, out.Channels(), out.Frames(), w.SampleRate, w.Channels(), w.Frames())
			}
			for ch := range out.Data {
				testutil.RequireFinite(t, out.Data[ch])
				for i := range out.Data[ch] {
					if math.Abs(out.Data[ch][i]) > math.Abs(w.Data[ch][i])+1e-15 {
						t.Fatalf("|out[%d][%d]| = %v exceeds |in| = %v", ch, i, out.Data[ch][i], w.Data[ch][i])
					}
				}
			}
		})
	}
}

func TestProcessDoesNotModifyInput(t *testing.T) {
	w := lowBurst()
	orig := w.Clone()

	if _, err := Process(w); err != nil {
		t.Fatalf("Process: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, w.Data[0], orig.Data[0], 0)
}

func TestLowBurstScenario(t *testing.T) {
	for _, phase := range []crossover.Phase{crossover.ZeroPhase, crossover.Causal} {
		t.Run(phase.String(), func(t *testing.T) {
			e := mustEngine(t, WithPhase(phase))

			_, a, err := e.ProcessWithAnalysis(lowBurst())
			if err != nil {
				t.Fatalf("ProcessWithAnalysis: %v", err)
			}
			if a.TickSize != 10 || a.TicksPerFade != 100 {
				t.Fatalf("tick size %d, ticks per fade %d, want 10 and 100", a.TickSize, a.TicksPerFade)
			}

			g := a.Groups[0]
			if len(g.Segments) != 2 {
				t.Fatalf("got %d segments, want 2", len(g.Segments))
			}

			quiet, loud := g.Segments[0].Gain, g.Segments[1].Gain
			if phase == crossover.Causal && quiet != 1 {
				t.Fatalf("silent segment gain = %v, want 1", quiet)
			}
			// The backward pass of the zero-phase filters rings slightly
			// into the silence before the burst.
			if quiet < 1-1e-3 {
				t.Fatalf("silent segment gain = %v, want about 1", quiet)
			}
			if loud >= 0.7 || loud <= 0 {
				t.Fatalf("loud segment gain = %v, want in (0, 0.7)", loud)
			}

			cfg := e.Config()
			peak := g.Loudness[100:].Max() * cfg.LevelScale
			if loud*peak > cfg.TapValue*(1+1e-12) {
				t.Fatalf("gain*level = %v exceeds tap %v", loud*peak, cfg.TapValue)
			}
		})
	}
}

func TestHighBandGetsMoreGain(t *testing.T) {
	lowSig := testutil.DeterministicSine(20, testRate, 1, 2000)
	highSig := testutil.DeterministicSine(300, testRate, 1, 2000)

	e := mustEngine(t)

	low, err := e.Analyze(testutil.Mono(testRate, lowSig))
	if err != nil {
		t.Fatalf("Analyze low: %v", err)
	}
	high, err := e.Analyze(testutil.Mono(testRate, highSig))
	if err != nil {
		t.Fatalf("Analyze high: %v", err)
	}

	if high.Groups[0].MinGain() <= low.Groups[0].MinGain() {
		t.Fatalf("high band gain %v, low band gain %v, want high > low",
			high.Groups[0].MinGain(), low.Groups[0].MinGain())
	}
}

func TestZeroBassWeightUsesHighBandOnly(t *testing.T) {
	sig := testutil.Concat(
		testutil.DeterministicSine(20, testRate, 0.9, 1000),
		testutil.DeterministicNoise(3, 0.2, 1000),
	)

	a, err := mustEngine(t, WithBassWeight(0)).Analyze(testutil.Mono(testRate, sig))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	g := a.Groups[0]
	testutil.RequireSliceNearlyEqual(t, g.Loudness, g.High, 0)
}

func TestSecondPassAttenuatesLess(t *testing.T) {
	e := mustEngine(t)
	w := testutil.Mono(testRate, testutil.DeterministicSine(20, testRate, 1, 2000))

	once, first, err := e.ProcessWithAnalysis(w)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	_, second, err := e.ProcessWithAnalysis(once)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	a1 := first.Groups[0].MeanAttenuationDB()
	a2 := second.Groups[0].MeanAttenuationDB()
	if a1 <= 0 {
		t.Fatalf("first pass attenuation = %v dB, want > 0", a1)
	}
	if a2 >= a1/2 {
		t.Fatalf("second pass attenuation %v dB, first %v dB, want well below", a2, a1)
	}
	if second.Groups[0].MinGain() < first.Groups[0].MinGain() {
		t.Fatalf("second pass min gain %v below first %v", second.Groups[0].MinGain(), first.Groups[0].MinGain())
	}

	s1, s2 := first.Groups[0].Segments, second.Groups[0].Segments
	if len(s1) != len(s2) {
		t.Fatalf("segment count %d vs %d", len(s2), len(s1))
	}
	for i := range s1 {
		if s2[i].Gain < s1[i].Gain-1e-9 {
			t.Fatalf("segment %d: second pass gain %v below first %v", i, s2[i].Gain, s1[i].Gain)
		}
	}
}

func TestHighpassOutputBand(t *testing.T) {
	const margin = 100

	interior := func(x []float64) []float64 { return x[margin : len(x)-margin] }

	t.Run("sub-bass removed", func(t *testing.T) {
		w := testutil.Mono(testRate, testutil.DeterministicSine(20, testRate, 0.5, 2000))

		out, err := mustEngine(t, WithOutputBand(HighpassBand)).Process(w)
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
		if r := testutil.RMS(interior(out.Data[0])); r > 0.01 {
			t.Fatalf("20 Hz output RMS = %v, want below 0.01", r)
		}
	})

	t.Run("mid range keeps envelope gain", func(t *testing.T) {
		w := testutil.Mono(testRate, testutil.Concat(
			testutil.DeterministicSine(300, testRate, 0.1, 1000),
			testutil.DeterministicSine(300, testRate, 0.9, 1000),
		))

		full, a, err := mustEngine(t).ProcessWithAnalysis(w)
		if err != nil {
			t.Fatalf("full band: %v", err)
		}
		cut, b, err := mustEngine(t, WithOutputBand(HighpassBand)).ProcessWithAnalysis(w)
		if err != nil {
			t.Fatalf("highpass band: %v", err)
		}

		testutil.RequireSliceNearlyEqual(t, b.Groups[0].Envelope.Render(), a.Groups[0].Envelope.Render(), 0)
		if a.Groups[0].MinGain() >= 1 {
			t.Fatalf("min gain = %v, want attenuation", a.Groups[0].MinGain())
		}

		ratio := testutil.RMS(interior(cut.Data[0])) / testutil.RMS(interior(full.Data[0]))
		if ratio < 0.95 || ratio > 1+1e-9 {
			t.Fatalf("highpass/full RMS ratio = %v, want in [0.95, 1]", ratio)
		}
	})
}

func TestOutputBandText(t *testing.T) {
	for _, b := range []OutputBand{FullBand, HighpassBand} {
		text, err := b.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", b, err)
		}
		var got OutputBand
		if err := got.UnmarshalText(text); err != nil || got != b {
			t.Fatalf("UnmarshalText(%q) = %v, %v", text, got, err)
		}
	}

	var b OutputBand
	if err := b.UnmarshalText([]byte("bass")); err == nil {
		t.Fatal("expected error for unknown output band")
	}
	if err := ApplyOptions(WithOutputBand(OutputBand(7))).Validate(); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("Validate = %v, want ErrInvalidParameter", err)
	}
}

func TestSegmentsTileTicks(t *testing.T) {
	tests := []struct {
		frames int
		fade   float64
	}{
		{1000, 1},
		{1234, 0.25},
		{7, 1},
		{999, 0.01},
		{2500, 0.3},
	}

	for _, tc := range tests {
		a, err := mustEngine(t, WithTimeFade(tc.fade)).Analyze(
			testutil.Mono(testRate, testutil.DeterministicNoise(9, 0.5, tc.frames)))
		if err != nil {
			t.Fatalf("Analyze(%d, %v): %v", tc.frames, tc.fade, err)
		}

		g := a.Groups[0]
		next := 0
		for i, s := range g.Segments {
			if s.StartTick != next || s.EndTick <= s.StartTick {
				t.Fatalf("frames %d: segment %d = [%d, %d), want start %d", tc.frames, i, s.StartTick, s.EndTick, next)
			}
			if s.Ticks() > a.TicksPerFade {
				t.Fatalf("frames %d: segment %d spans %d ticks, more than %d", tc.frames, i, s.Ticks(), a.TicksPerFade)
			}
			next = s.EndTick
		}
		if next != len(g.Loudness) {
			t.Fatalf("frames %d: segments cover %d ticks, want %d", tc.frames, next, len(g.Loudness))
		}
	}
}

func TestChannelModes(t *testing.T) {
	left := testutil.DeterministicSine(20, testRate, 1, 2000)
	right := testutil.Silence(2000)
	w := &core.Waveform{SampleRate: testRate, Data: [][]float64{left, right}}

	down, err := mustEngine(t).Analyze(w)
	if err != nil {
		t.Fatalf("Analyze downmix: %v", err)
	}
	if len(down.Groups) != 1 || len(down.Groups[0].Channels) != 2 {
		t.Fatalf("downmix groups = %+v, want one group of two channels", down.Groups)
	}

	indep, err := mustEngine(t, WithChannelMode(Independent), WithParallelism(2)).Analyze(w)
	if err != nil {
		t.Fatalf("Analyze independent: %v", err)
	}
	if len(indep.Groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(indep.Groups))
	}
	if indep.Groups[1].MinGain() != 1 {
		t.Fatalf("silent channel min gain = %v, want 1", indep.Groups[1].MinGain())
	}
	if indep.Groups[0].MinGain() >= down.Groups[0].MinGain() {
		t.Fatalf("loud channel alone gain %v, downmix gain %v, want alone lower",
			indep.Groups[0].MinGain(), down.Groups[0].MinGain())
	}
}

func TestGeometricInterpolation(t *testing.T) {
	out, err := Process(lowBurst(), WithInterpolation(dynamics.Geometric))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	testutil.RequireFinite(t, out.Data[0])
}

func TestGroupAnalysisStats(t *testing.T) {
	g := GroupAnalysis{Segments: []dynamics.Segment{
		{StartTick: 0, EndTick: 3, Gain: 1},
		{StartTick: 3, EndTick: 4, Gain: 0.2},
	}}

	if got := g.MeanGain(); math.Abs(got-0.8) > 1e-12 {
		t.Fatalf("MeanGain = %v, want 0.8", got)
	}
	if got := g.MinGain(); got != 0.2 {
		t.Fatalf("MinGain = %v, want 0.2", got)
	}
	if got := (GroupAnalysis{}).MeanGain(); got != 1 {
		t.Fatalf("empty MeanGain = %v, want 1", got)
	}
	if got := (GroupAnalysis{}).MeanAttenuationDB(); got != 0 {
		t.Fatalf("empty MeanAttenuationDB = %v, want 0", got)
	}
}
