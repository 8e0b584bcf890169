package crossover

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidFrequency  = errors.New("crossover: invalid frequency")
	ErrInvalidOrder      = errors.New("crossover: filter order must be at least 1")
	ErrInvalidSampleRate = errors.New("crossover: sample rate must be positive and finite")
	ErrInvalidGain       = errors.New("crossover: sub-bass gain must be finite and non-negative")
	ErrInvalidMode       = errors.New("crossover: unknown mode")
)

const (
	defaultLowCutoff   = 70.0
	defaultMidRange    = 100.0
	defaultOrder       = 2
	defaultSubBassGain = 1.0
)

// Phase selects how the band filters are run over a signal.
type Phase int

const (
	// ZeroPhase runs each filter forward and backward, so the bands are
	// time-aligned with the input.
	ZeroPhase Phase = iota
	// Causal runs each filter forward only. Combined with Subtract, the
	// phase shift of the low band leaves some bass in the high band.
	Causal
)

func (p Phase) String() string {
	switch p {
	case ZeroPhase:
		return "zero"
	case Causal:
		return "causal"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	if p != ZeroPhase && p != Causal {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMode, p)
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "zero":
		*p = ZeroPhase
	case "causal":
		*p = Causal
	default:
		return fmt.Errorf("%w: phase %q", ErrInvalidMode, text)
	}
	return nil
}

// HighBand selects how the high band is derived.
type HighBand int

const (
	// Subtract takes the input minus the low band, an exact complement.
	Subtract HighBand = iota
	// Highpass runs an independent Butterworth highpass at the split
	// frequency.
	Highpass
)

func (h HighBand) String() string {
	switch h {
	case Subtract:
		return "subtract"
	case Highpass:
		return "highpass"
	default:
		return fmt.Sprintf("HighBand(%d)", int(h))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (h HighBand) MarshalText() ([]byte, error) {
	if h != Subtract && h != Highpass {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMode, h)
	}
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *HighBand) UnmarshalText(text []byte) error {
	switch string(text) {
	case "subtract":
		*h = Subtract
	case "highpass":
		*h = Highpass
	default:
		return fmt.Errorf("%w: high band %q", ErrInvalidMode, text)
	}
	return nil
}

// SplitterConfig holds the parameters of a Splitter.
type SplitterConfig struct {
	// LowCutoff is the sub-bass boundary inside the low band in Hz.
	LowCutoff float64
	// MidRange is the low/high split frequency in Hz.
	MidRange float64
	// Order is the Butterworth order of every band filter.
	Order int
	// SubBassGain scales low-band content below LowCutoff. 1 keeps it,
	// 0 removes it.
	SubBassGain float64
	Phase       Phase
	HighBand    HighBand
}

// SplitterOption mutates a splitter configuration.
type SplitterOption func(*SplitterConfig)

// DefaultSplitterConfig returns the default splitter configuration.
func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{
		LowCutoff:   defaultLowCutoff,
		MidRange:    defaultMidRange,
		Order:       defaultOrder,
		SubBassGain: defaultSubBassGain,
		Phase:       ZeroPhase,
		HighBand:    Subtract,
	}
}

// ApplySplitterOptions applies options on top of defaults.
func ApplySplitterOptions(opts ...SplitterOption) SplitterConfig {
	cfg := DefaultSplitterConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithLowCutoff sets the sub-bass boundary in Hz.
func WithLowCutoff(hz float64) SplitterOption {
	return func(cfg *SplitterConfig) { cfg.LowCutoff = hz }
}

// WithMidRange sets the low/high split frequency in Hz.
func WithMidRange(hz float64) SplitterOption {
	return func(cfg *SplitterConfig) { cfg.MidRange = hz }
}

// WithOrder sets the Butterworth order of the band filters.
func WithOrder(order int) SplitterOption {
	return func(cfg *SplitterConfig) { cfg.Order = order }
}

// WithSubBassGain sets the gain applied to low-band content below the
// sub-bass boundary.
func WithSubBassGain(g float64) SplitterOption {
	return func(cfg *SplitterConfig) { cfg.SubBassGain = g }
}

// WithPhase selects zero-phase or causal filtering.
func WithPhase(p Phase) SplitterOption {
	return func(cfg *SplitterConfig) { cfg.Phase = p }
}

// WithHighBand selects how the high band is derived.
func WithHighBand(h HighBand) SplitterOption {
	return func(cfg *SplitterConfig) { cfg.HighBand = h }
}

// Validate checks the configuration against a sample rate.
func (cfg SplitterConfig) Validate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}
	if cfg.Order < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidOrder, cfg.Order)
	}
	if err := checkFreq("mid range frequency", cfg.MidRange, sampleRate); err != nil {
		return err
	}
	if !(cfg.LowCutoff > 0) || math.IsInf(cfg.LowCutoff, 0) {
		return fmt.Errorf("%w: low cutoff %v must be positive", ErrInvalidFrequency, cfg.LowCutoff)
	}
	if cfg.LowCutoff >= cfg.MidRange {
		return fmt.Errorf("%w: low cutoff %v must be below mid range %v", ErrInvalidFrequency, cfg.LowCutoff, cfg.MidRange)
	}
	if !(cfg.SubBassGain >= 0) || math.IsInf(cfg.SubBassGain, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidGain, cfg.SubBassGain)
	}
	if cfg.Phase != ZeroPhase && cfg.Phase != Causal {
		return fmt.Errorf("%w: %v", ErrInvalidMode, cfg.Phase)
	}
	if cfg.HighBand != Subtract && cfg.HighBand != Highpass {
		return fmt.Errorf("%w: %v", ErrInvalidMode, cfg.HighBand)
	}
	return nil
}

func checkFreq(name string, freq, sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}
	if !(freq > 0) || freq >= sampleRate/2 {
		return fmt.Errorf("%w: %s %v not in (0, %v)", ErrInvalidFrequency, name, freq, sampleRate/2)
	}
	return nil
}
