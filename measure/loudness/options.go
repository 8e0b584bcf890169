package loudness

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidTick       = errors.New("loudness: tick duration must be positive and finite")
	ErrInvalidSampleRate = errors.New("loudness: sample rate must be positive and finite")
	ErrLengthMismatch    = errors.New("loudness: profile lengths differ")
	ErrInvalidWeight     = errors.New("loudness: bass weight must be finite and non-negative")
)

const defaultTimeTick = 0.01

// MeterConfig defines configuration for the tick meter.
type MeterConfig struct {
	// TimeTick is the nominal tick duration in seconds.
	TimeTick float64
}

// MeterOption mutates a MeterConfig.
type MeterOption func(*MeterConfig)

// DefaultMeterConfig returns a 10 ms tick.
func DefaultMeterConfig() MeterConfig {
	return MeterConfig{TimeTick: defaultTimeTick}
}

// WithTimeTick sets the tick duration in seconds.
func WithTimeTick(seconds float64) MeterOption {
	return func(cfg *MeterConfig) { cfg.TimeTick = seconds }
}

// ApplyMeterOptions applies zero or more options to the default config.
func ApplyMeterOptions(opts ...MeterOption) MeterConfig {
	cfg := DefaultMeterConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// TickSize converts a tick duration into a whole number of samples, at
// least one.
func TickSize(timeTick, sampleRate float64) (int, error) {
	if !(timeTick > 0) || math.IsInf(timeTick, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTick, timeTick)
	}
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}

	size := math.Round(timeTick * sampleRate)
	if size > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %v s at %v Hz is too long", ErrInvalidTick, timeTick, sampleRate)
	}

	return max(1, int(size)), nil
}
