package rebalance

import (
	"errors"
	"fmt"
	"io"
	"math"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cwbudde/algo-serene/dsp/effects/dynamics"
	"github.com/cwbudde/algo-serene/dsp/filter/crossover"
	"github.com/cwbudde/algo-serene/measure/loudness"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTimeTick      = 0.01
	DefaultTimeFade      = 1.0
	DefaultBassWeight    = 4.0
	DefaultLowCutoffFreq = 70.0
	DefaultMidRangeFreq  = 100.0
	DefaultTapValue      = 32.0
	DefaultLevelScale    = 20.0
	DefaultFilterOrder   = 2
	DefaultSubBassGain   = 1.0
)

// ChannelMode selects how channels are grouped for analysis.
type ChannelMode int

const (
	// Downmix analyses the average of all channels and applies one
	// envelope to every channel.
	Downmix ChannelMode = iota
	// Independent analyses and rebalances each channel on its own.
	Independent
)

func (m ChannelMode) String() string {
	switch m {
	case Downmix:
		return "downmix"
	case Independent:
		return "independent"
	default:
		return fmt.Sprintf("ChannelMode(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m ChannelMode) MarshalText() ([]byte, error) {
	if m != Downmix && m != Independent {
		return nil, fmt.Errorf("rebalance: unknown channel mode %v", m)
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ChannelMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "downmix":
		*m = Downmix
	case "independent":
		*m = Independent
	default:
		return fmt.Errorf("rebalance: unknown channel mode %q", text)
	}
	return nil
}

// OutputBand selects the signal the gain envelope is applied to.
type OutputBand int

const (
	// FullBand applies the envelope to the input unchanged.
	FullBand OutputBand = iota
	// HighpassBand removes content below the mid range frequency before
	// applying the envelope.
	HighpassBand
)

func (b OutputBand) String() string {
	switch b {
	case FullBand:
		return "full"
	case HighpassBand:
		return "highpass"
	default:
		return fmt.Sprintf("OutputBand(%d)", int(b))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (b OutputBand) MarshalText() ([]byte, error) {
	if b != FullBand && b != HighpassBand {
		return nil, fmt.Errorf("rebalance: unknown output band %v", b)
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *OutputBand) UnmarshalText(text []byte) error {
	switch string(text) {
	case "full":
		*b = FullBand
	case "highpass":
		*b = HighpassBand
	default:
		return fmt.Errorf("rebalance: unknown output band %q", text)
	}
	return nil
}

// Config holds every engine parameter. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	// TimeTick is the analysis tick length in seconds.
	TimeTick float64 `toml:"time_tick"`
	// TimeFade is the fade segment length in seconds.
	TimeFade float64 `toml:"time_fade"`
	// BassWeight multiplies the low band RMS before it is added to the
	// high band RMS.
	BassWeight float64 `toml:"bass_weight"`
	// LowCutoffFreq is the sub-bass boundary inside the low band in Hz.
	LowCutoffFreq float64 `toml:"low_cutoff_freq"`
	// MidRangeFreq is the low/high band split in Hz.
	MidRangeFreq float64 `toml:"mid_range_freq"`
	// TapValue is the ceiling of the compressed level.
	TapValue float64 `toml:"tap_value"`
	// LevelScale converts combined RMS into the level fed to the gain
	// curve.
	LevelScale  float64 `toml:"level_scale"`
	FilterOrder int     `toml:"filter_order"`
	// SubBassGain scales low-band content below LowCutoffFreq before it is
	// measured.
	SubBassGain   float64                `toml:"sub_bass_gain"`
	Phase         crossover.Phase        `toml:"phase"`
	HighBand      crossover.HighBand     `toml:"high_band"`
	Interpolation dynamics.Interpolation `toml:"interpolation"`
	ChannelMode   ChannelMode            `toml:"channel_mode"`
	// OutputBand selects whether bass below MidRangeFreq is cut from the
	// output.
	OutputBand OutputBand `toml:"output_band"`
	// Parallelism bounds the number of channel groups analysed at once.
	// 0 uses GOMAXPROCS.
	Parallelism int `toml:"parallelism"`

	// Logger receives per-stage debug entries. Nil discards them.
	Logger logrus.FieldLogger `toml:"-"`
}

// DefaultConfig returns the default parameters.
func DefaultConfig() Config {
	return Config{
		TimeTick:      DefaultTimeTick,
		TimeFade:      DefaultTimeFade,
		BassWeight:    DefaultBassWeight,
		LowCutoffFreq: DefaultLowCutoffFreq,
		MidRangeFreq:  DefaultMidRangeFreq,
		TapValue:      DefaultTapValue,
		LevelScale:    DefaultLevelScale,
		FilterOrder:   DefaultFilterOrder,
		SubBassGain:   DefaultSubBassGain,
		Phase:         crossover.ZeroPhase,
		HighBand:      crossover.Subtract,
		Interpolation: dynamics.Linear,
		ChannelMode:   Downmix,
		OutputBand:    FullBand,
	}
}

// Option mutates a Config. Options never reject values; Validate does.
type Option func(*Config)

// ApplyOptions applies options on top of DefaultConfig.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithConfig replaces the whole configuration.
func WithConfig(c Config) Option {
	return func(cfg *Config) { *cfg = c }
}

// WithTimeTick sets the tick length in seconds.
func WithTimeTick(seconds float64) Option {
	return func(cfg *Config) { cfg.TimeTick = seconds }
}

// WithTimeFade sets the fade segment length in seconds.
func WithTimeFade(seconds float64) Option {
	return func(cfg *Config) { cfg.TimeFade = seconds }
}

// WithBassWeight sets the low band weight.
func WithBassWeight(w float64) Option {
	return func(cfg *Config) { cfg.BassWeight = w }
}

// WithLowCutoffFreq sets the sub-bass boundary in Hz.
func WithLowCutoffFreq(hz float64) Option {
	return func(cfg *Config) { cfg.LowCutoffFreq = hz }
}

// WithMidRangeFreq sets the band split in Hz.
func WithMidRangeFreq(hz float64) Option {
	return func(cfg *Config) { cfg.MidRangeFreq = hz }
}

// WithTapValue sets the compressed level ceiling.
func WithTapValue(t float64) Option {
	return func(cfg *Config) { cfg.TapValue = t }
}

// WithLevelScale sets the level scale.
func WithLevelScale(s float64) Option {
	return func(cfg *Config) { cfg.LevelScale = s }
}

// WithFilterOrder sets the Butterworth order of the band filters.
func WithFilterOrder(order int) Option {
	return func(cfg *Config) { cfg.FilterOrder = order }
}

// WithSubBassGain sets the gain applied below the sub-bass boundary.
func WithSubBassGain(g float64) Option {
	return func(cfg *Config) { cfg.SubBassGain = g }
}

// WithPhase selects zero-phase or causal band filtering.
func WithPhase(p crossover.Phase) Option {
	return func(cfg *Config) { cfg.Phase = p }
}

// WithHighBand selects how the high band is derived.
func WithHighBand(h crossover.HighBand) Option {
	return func(cfg *Config) { cfg.HighBand = h }
}

// WithInterpolation selects the envelope interpolation.
func WithInterpolation(m dynamics.Interpolation) Option {
	return func(cfg *Config) { cfg.Interpolation = m }
}

// WithChannelMode selects downmixed or per-channel analysis.
func WithChannelMode(m ChannelMode) Option {
	return func(cfg *Config) { cfg.ChannelMode = m }
}

// WithOutputBand selects the signal the envelope is applied to.
func WithOutputBand(b OutputBand) Option {
	return func(cfg *Config) { cfg.OutputBand = b }
}

// WithParallelism bounds concurrent group analysis. 0 uses GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(cfg *Config) { cfg.Parallelism = n }
}

// WithLogger sets the logger for per-stage debug entries.
func WithLogger(l logrus.FieldLogger) Option {
	return func(cfg *Config) { cfg.Logger = l }
}

// Validate checks every parameter that does not depend on the sample rate.
// Errors match ErrInvalidParameter.
func (cfg Config) Validate() error {
	var errs []error

	positive := func(name string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%s must be positive and finite, got %v", name, v))
		}
	}

	positive("time_tick", cfg.TimeTick)
	positive("time_fade", cfg.TimeFade)
	positive("mid_range_freq", cfg.MidRangeFreq)
	positive("low_cutoff_freq", cfg.LowCutoffFreq)

	if _, err := dynamics.NewGainCurve(cfg.TapValue, cfg.LevelScale); err != nil {
		errs = append(errs, err)
	}
	if !(cfg.BassWeight >= 0) || math.IsInf(cfg.BassWeight, 0) {
		errs = append(errs, fmt.Errorf("%w: %v", loudness.ErrInvalidWeight, cfg.BassWeight))
	}
	if cfg.LowCutoffFreq >= cfg.MidRangeFreq {
		errs = append(errs, fmt.Errorf("%w: low_cutoff_freq %v must be below mid_range_freq %v",
			crossover.ErrInvalidFrequency, cfg.LowCutoffFreq, cfg.MidRangeFreq))
	}
	if cfg.FilterOrder < 1 {
		errs = append(errs, fmt.Errorf("%w: got %d", crossover.ErrInvalidOrder, cfg.FilterOrder))
	}
	if !(cfg.SubBassGain >= 0) || math.IsInf(cfg.SubBassGain, 0) {
		errs = append(errs, fmt.Errorf("%w: got %v", crossover.ErrInvalidGain, cfg.SubBassGain))
	}
	if _, err := cfg.Phase.MarshalText(); err != nil {
		errs = append(errs, err)
	}
	if _, err := cfg.HighBand.MarshalText(); err != nil {
		errs = append(errs, err)
	}
	if _, err := cfg.Interpolation.MarshalText(); err != nil {
		errs = append(errs, err)
	}
	if _, err := cfg.ChannelMode.MarshalText(); err != nil {
		errs = append(errs, err)
	}
	if _, err := cfg.OutputBand.MarshalText(); err != nil {
		errs = append(errs, err)
	}
	if cfg.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("parallelism must not be negative, got %d", cfg.Parallelism))
	}

	if len(errs) > 0 {
		return invalid(errors.Join(errs...))
	}
	return nil
}

func (cfg Config) splitterConfig() crossover.SplitterConfig {
	return crossover.SplitterConfig{
		LowCutoff:   cfg.LowCutoffFreq,
		MidRange:    cfg.MidRangeFreq,
		Order:       cfg.FilterOrder,
		SubBassGain: cfg.SubBassGain,
		Phase:       cfg.Phase,
		HighBand:    cfg.HighBand,
	}
}

func (cfg Config) workers(groups int) int {
	n := cfg.Parallelism
	if n == 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return max(1, min(n, groups))
}

// LoadConfig reads a TOML preset on top of DefaultConfig. Unknown keys and
// invalid values are rejected with ErrInvalidParameter.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, invalid(fmt.Errorf("decode config: %w", err))
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, invalid(fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", ")))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// WriteConfig writes cfg as TOML.
func WriteConfig(w io.Writer, cfg Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("rebalance: encode config: %w", err)
	}
	return nil
}
