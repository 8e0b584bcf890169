package crossover

import (
	"github.com/cwbudde/algo-serene/dsp/filter/biquad"
	"github.com/cwbudde/algo-serene/dsp/filter/design/pass"
)

// Bands holds the two outputs of a Splitter. Both slices have the length of
// the input.
type Bands struct {
	Low  []float64
	High []float64
}

// Splitter decomposes whole signals into a low band below the mid range
// frequency and a high band above it.
//
// A Splitter only holds coefficients. Split allocates its own filter state,
// so one Splitter may be shared between goroutines.
type Splitter struct {
	cfg        SplitterConfig
	sampleRate float64

	lp  []biquad.Coefficients
	hp  []biquad.Coefficients
	sub []biquad.Coefficients
}

// NewSplitter validates the configuration and designs the band filters.
func NewSplitter(sampleRate float64, opts ...SplitterOption) (*Splitter, error) {
	return NewSplitterWithConfig(sampleRate, ApplySplitterOptions(opts...))
}

// NewSplitterWithConfig is NewSplitter for an explicit configuration.
func NewSplitterWithConfig(sampleRate float64, cfg SplitterConfig) (*Splitter, error) {
	if err := cfg.Validate(sampleRate); err != nil {
		return nil, err
	}

	s := &Splitter{
		cfg:        cfg,
		sampleRate: sampleRate,
		lp:         pass.ButterworthLP(cfg.MidRange, cfg.Order, sampleRate),
		hp:         pass.ButterworthHP(cfg.MidRange, cfg.Order, sampleRate),
	}
	if cfg.SubBassGain != 1 {
		s.sub = pass.ButterworthLP(cfg.LowCutoff, cfg.Order, sampleRate)
	}

	return s, nil
}

// Config returns the splitter configuration.
func (s *Splitter) Config() SplitterConfig { return s.cfg }

// SampleRate returns the sample rate the filters were designed for.
func (s *Splitter) SampleRate() float64 { return s.sampleRate }

// Split returns the low and high bands of x. x is not modified.
//
// The high band is derived from the unscaled low band, so with the default
// subtract topology Low+High equals x whenever the sub-bass gain is 1.
func (s *Splitter) Split(x []float64) Bands {
	var low, high []float64

	if s.cfg.Phase == Causal && s.cfg.HighBand == Highpass {
		low = make([]float64, len(x))
		high = make([]float64, len(x))
		newTwoWay(s.lp, s.hp).processBlock(x, low, high)
	} else {
		low = s.filter(s.lp, x)
		if s.cfg.HighBand == Highpass {
			high = s.filter(s.hp, x)
		} else {
			high = make([]float64, len(x))
			for i, v := range x {
				high[i] = v - low[i]
			}
		}
	}

	if s.sub != nil {
		sub := s.filter(s.sub, low)
		g := s.cfg.SubBassGain - 1
		for i := range low {
			low[i] += g * sub[i]
		}
	}

	return Bands{Low: low, High: high}
}

// RemoveLow returns x run through the high-pass filter at the mid range
// frequency, with the splitter's phase mode. x is not modified.
func (s *Splitter) RemoveLow(x []float64) []float64 {
	return s.filter(s.hp, x)
}

func (s *Splitter) filter(coeffs []biquad.Coefficients, x []float64) []float64 {
	if s.cfg.Phase == Causal {
		return biquad.Filter(coeffs, x)
	}
	return biquad.ZeroPhase(coeffs, x)
}
