package rebalance

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-serene/dsp/core"
)

// Error kinds. Every error returned by this package matches exactly one of
// them under errors.Is, and usually also the sentinel of the component that
// failed.
var (
	ErrInvalidParameter = errors.New("rebalance: invalid parameter")
	ErrEmptyInput       = errors.New("rebalance: empty input")
	ErrNumericFault     = errors.New("rebalance: numeric fault")
)

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidParameter, err)
}

func numeric(stage string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrNumericFault, stage, err)
}

// classifyInput maps waveform validation errors to error kinds.
func classifyInput(err error) error {
	switch {
	case errors.Is(err, core.ErrNoChannels):
		return fmt.Errorf("%w: %w", ErrEmptyInput, err)
	case errors.Is(err, core.ErrNonFinite):
		return numeric("input", err)
	default:
		return invalid(err)
	}
}
