package rebalance

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/cwbudde/algo-serene/dsp/core"
	"github.com/cwbudde/algo-serene/dsp/effects/dynamics"
	"github.com/cwbudde/algo-serene/dsp/filter/crossover"
	"github.com/cwbudde/algo-serene/measure/loudness"
	"github.com/sirupsen/logrus"
)

// Engine rebalances waveforms with one fixed configuration. It holds no
// per-run state and may be used from several goroutines.
type Engine struct {
	cfg   Config
	curve *dynamics.GainCurve
	log   logrus.FieldLogger
}

// New validates the options and returns an engine.
func New(opts ...Option) (*Engine, error) {
	return NewWithConfig(ApplyOptions(opts...))
}

// NewWithConfig validates cfg and returns an engine.
func NewWithConfig(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	curve, err := dynamics.NewGainCurve(cfg.TapValue, cfg.LevelScale)
	if err != nil {
		return nil, invalid(err)
	}

	log := cfg.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	return &Engine{cfg: cfg, curve: curve, log: log}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Process rebalances w with the given options. It is shorthand for New
// followed by Engine.Process.
func Process(w *core.Waveform, opts ...Option) (*core.Waveform, error) {
	e, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return e.Process(w)
}

// Process returns a new waveform of the same shape as w with the gain
// envelope applied. w is not modified.
func (e *Engine) Process(w *core.Waveform) (*core.Waveform, error) {
	out, _, err := e.ProcessWithAnalysis(w)
	return out, err
}

// ProcessWithAnalysis is Process that also returns the analysis the
// envelope came from.
func (e *Engine) ProcessWithAnalysis(w *core.Waveform) (*core.Waveform, *Analysis, error) {
	a, err := e.Analyze(w)
	if err != nil {
		return nil, nil, err
	}

	out, err := e.apply(w, a)
	if err != nil {
		return nil, nil, err
	}

	return out, a, nil
}

// Analyze runs every stage up to the envelope without touching the
// samples.
func (e *Engine) Analyze(w *core.Waveform) (*Analysis, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: nil waveform", ErrEmptyInput)
	}
	if err := w.Validate(); err != nil {
		return nil, classifyInput(err)
	}

	start := time.Now()

	splitter, err := crossover.NewSplitterWithConfig(w.SampleRate, e.cfg.splitterConfig())
	if err != nil {
		return nil, invalid(err)
	}

	meter, err := loudness.NewMeter(w.SampleRate, loudness.WithTimeTick(e.cfg.TimeTick))
	if err != nil {
		return nil, invalid(err)
	}

	ticksPerFade, err := dynamics.TicksPerFade(e.cfg.TimeFade, e.cfg.TimeTick)
	if err != nil {
		return nil, invalid(err)
	}

	groups := e.groups(w)
	a := &Analysis{
		SampleRate:   w.SampleRate,
		Frames:       w.Frames(),
		TickSize:     meter.TickSize(),
		TicksPerFade: ticksPerFade,
		Groups:       make([]GroupAnalysis, len(groups)),
	}

	e.log.WithFields(logrus.Fields{
		"stage":          "setup",
		"sample_rate":    w.SampleRate,
		"channels":       w.Channels(),
		"frames":         w.Frames(),
		"tick_size":      a.TickSize,
		"ticks_per_fade": ticksPerFade,
		"groups":         len(groups),
	}).Debug("analysis configured")

	errs := make([]error, len(groups))
	sem := make(chan struct{}, e.cfg.workers(len(groups)))

	var wg sync.WaitGroup
	for i, g := range groups {
		wg.Add(1)
		sem <- struct{}{}

		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			a.Groups[i], errs[i] = e.analyzeGroup(g, splitter, meter, ticksPerFade, w.Frames())
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"stage":    "analyze",
		"duration": time.Since(start),
	}).Debug("analysis done")

	return a, nil
}

type group struct {
	index    int
	channels []int
	signal   []float64
}

func (e *Engine) groups(w *core.Waveform) []group {
	if e.cfg.ChannelMode == Independent || w.Channels() == 1 {
		out := make([]group, w.Channels())
		for ch := range out {
			out[ch] = group{index: ch, channels: []int{ch}, signal: w.Data[ch]}
		}
		return out
	}

	channels := make([]int, w.Channels())
	for i := range channels {
		channels[i] = i
	}

	return []group{{channels: channels, signal: w.Downmix()}}
}

func (e *Engine) analyzeGroup(g group, splitter *crossover.Splitter, meter *loudness.Meter, ticksPerFade, frames int) (GroupAnalysis, error) {
	log := e.log.WithField("group", g.index)
	step := time.Now()

	stage := func(name string, fields logrus.Fields) {
		entry := log.WithField("stage", name).WithField("duration", time.Since(step))
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		entry.Debug("stage done")
		step = time.Now()
	}

	bands := splitter.Split(g.signal)
	stage("filters", nil)

	low := meter.Measure(bands.Low)
	high := meter.Measure(bands.High)
	if err := checkFinite("low band loudness", low); err != nil {
		return GroupAnalysis{}, err
	}
	if err := checkFinite("high band loudness", high); err != nil {
		return GroupAnalysis{}, err
	}

	level, err := loudness.Combine(low, high, e.cfg.BassWeight)
	if err != nil {
		return GroupAnalysis{}, invalid(err)
	}
	stage("loudness", logrus.Fields{"ticks": len(level), "peak_level": level.Max()})

	gains, err := e.curve.Gains(level)
	if err != nil {
		return GroupAnalysis{}, numeric("gain curve", err)
	}
	stage("gains", nil)

	segs, err := dynamics.Segments(gains, ticksPerFade)
	if err != nil {
		return GroupAnalysis{}, numeric("segments", err)
	}

	env, err := dynamics.NewEnvelope(segs, meter.TickSize(), frames, e.cfg.Interpolation)
	if err != nil {
		return GroupAnalysis{}, numeric("envelope", err)
	}
	stage("envelope", logrus.Fields{"segments": len(segs)})

	return GroupAnalysis{
		Channels: g.channels,
		Low:      low,
		High:     high,
		Loudness: level,
		Gains:    gains,
		Segments: segs,
		Envelope: env,
	}, nil
}

func (e *Engine) apply(w *core.Waveform, a *Analysis) (*core.Waveform, error) {
	start := time.Now()
	out := core.NewWaveform(w.SampleRate, w.Channels(), w.Frames())

	var splitter *crossover.Splitter
	if e.cfg.OutputBand == HighpassBand {
		var err error
		if splitter, err = crossover.NewSplitterWithConfig(w.SampleRate, e.cfg.splitterConfig()); err != nil {
			return nil, invalid(err)
		}
	}

	for _, g := range a.Groups {
		env := g.Envelope.Render()
		if err := checkFinite("envelope", env); err != nil {
			return nil, err
		}

		for _, ch := range g.Channels {
			src := w.Data[ch]
			if splitter != nil {
				src = splitter.RemoveLow(src)
			}
			if err := dynamics.ApplyGain(out.Data[ch], src, env); err != nil {
				return nil, invalid(err)
			}
			if err := checkFinite("output", out.Data[ch]); err != nil {
				return nil, err
			}
		}
	}

	e.log.WithFields(logrus.Fields{
		"stage":       "adjust",
		"output_band": e.cfg.OutputBand,
		"duration":    time.Since(start),
	}).Debug("gain applied")

	return out, nil
}

func checkFinite(stage string, data []float64) error {
	if idx := core.FirstNonFinite(data); idx >= 0 {
		return numeric(stage, fmt.Errorf("%w: value %v at index %d", core.ErrNonFinite, data[idx], idx))
	}
	return nil
}

// Analysis is the intermediate data of one engine run.
type Analysis struct {
	SampleRate   float64
	Frames       int
	TickSize     int
	TicksPerFade int
	Groups       []GroupAnalysis
}

// GroupAnalysis holds the profiles of one channel group. Channels lists
// the source channels the envelope applies to.
type GroupAnalysis struct {
	Channels []int
	Low      loudness.Profile
	High     loudness.Profile
	Loudness loudness.Profile
	Gains    []float64
	Segments []dynamics.Segment
	Envelope *dynamics.Envelope
}

// MeanGain returns the tick-weighted mean segment gain, or 1 without
// segments.
func (g GroupAnalysis) MeanGain() float64 {
	ticks, sum := 0, 0.0
	for _, s := range g.Segments {
		ticks += s.Ticks()
		sum += s.Gain * float64(s.Ticks())
	}
	if ticks == 0 {
		return 1
	}
	return sum / float64(ticks)
}

// MinGain returns the smallest segment gain, or 1 without segments.
func (g GroupAnalysis) MinGain() float64 {
	m := 1.0
	for _, s := range g.Segments {
		m = math.Min(m, s.Gain)
	}
	return m
}

// MeanAttenuationDB returns the mean segment attenuation in dB as a
// positive number.
func (g GroupAnalysis) MeanAttenuationDB() float64 {
	return -core.LinearToDB(g.MeanGain())
}
