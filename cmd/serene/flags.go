package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-serene/rebalance"
	"github.com/sirupsen/logrus"
)

// engineFlags binds every rebalance parameter to a flag set. Values set on
// the command line override a -config preset, which overrides defaults.
type engineFlags struct {
	fs      *flag.FlagSet
	cfg     rebalance.Config
	preset  string
	cutBass bool
	verbose bool
	quiet   bool
}

func newEngineFlags(fs *flag.FlagSet) *engineFlags {
	ef := &engineFlags{fs: fs, cfg: rebalance.DefaultConfig()}
	c := &ef.cfg

	float := func(p *float64, usage string, names ...string) {
		for _, n := range names {
			fs.Float64Var(p, n, *p, usage)
		}
	}

	float(&c.TimeTick, "duration of a loudness tick in seconds", "tt", "time-tick")
	float(&c.TimeFade, "duration of a constant-gain segment in seconds", "tf", "time-fade")
	float(&c.BassWeight, "weight of the low band against the high band", "bw", "bass-weight")
	float(&c.LowCutoffFreq, "sub-bass boundary inside the low band in Hz", "lc", "low-cutoff")
	float(&c.MidRangeFreq, "low/high band split in Hz", "mr", "mid-range")
	float(&c.TapValue, "ceiling of the compressed level: tap*tanh(level/tap)", "tv", "tap-value")
	float(&c.LevelScale, "factor from combined RMS to gain curve level", "level-scale")
	float(&c.SubBassGain, "gain on content below the sub-bass boundary before measuring", "sub-bass-gain")
	fs.IntVar(&c.FilterOrder, "order", c.FilterOrder, "Butterworth order of the band filters")
	fs.IntVar(&c.Parallelism, "parallelism", c.Parallelism, "channel groups analysed at once (0 = GOMAXPROCS)")
	fs.TextVar(&c.Phase, "phase", c.Phase, "band filtering: zero or causal")
	fs.TextVar(&c.HighBand, "high-band", c.HighBand, "high band derivation: subtract or highpass")
	fs.TextVar(&c.Interpolation, "interp", c.Interpolation, "envelope interpolation: linear or geometric")
	fs.TextVar(&c.ChannelMode, "channels", c.ChannelMode, "channel analysis: downmix or independent")

	fs.BoolVar(&ef.cutBass, "cut-bass", false, "remove sounds below the mid range frequency from the output")

	fs.StringVar(&ef.preset, "config", "", "TOML preset applied before flags")
	fs.BoolVar(&ef.verbose, "v", false, "log every processing stage")
	fs.BoolVar(&ef.quiet, "q", false, "log warnings and errors only")

	return ef
}

// config merges defaults, the preset and explicitly set flags.
func (ef *engineFlags) config() (rebalance.Config, error) {
	cfg := rebalance.DefaultConfig()

	if ef.preset != "" {
		f, err := os.Open(ef.preset)
		if err != nil {
			return rebalance.Config{}, fmt.Errorf("open preset: %w", err)
		}
		defer f.Close()

		if cfg, err = rebalance.LoadConfig(f); err != nil {
			return rebalance.Config{}, fmt.Errorf("preset %s: %w", ef.preset, err)
		}
	}

	src := ef.cfg
	ef.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tt", "time-tick":
			cfg.TimeTick = src.TimeTick
		case "tf", "time-fade":
			cfg.TimeFade = src.TimeFade
		case "bw", "bass-weight":
			cfg.BassWeight = src.BassWeight
		case "lc", "low-cutoff":
			cfg.LowCutoffFreq = src.LowCutoffFreq
		case "mr", "mid-range":
			cfg.MidRangeFreq = src.MidRangeFreq
		case "tv", "tap-value":
			cfg.TapValue = src.TapValue
		case "level-scale":
			cfg.LevelScale = src.LevelScale
		case "sub-bass-gain":
			cfg.SubBassGain = src.SubBassGain
		case "order":
			cfg.FilterOrder = src.FilterOrder
		case "parallelism":
			cfg.Parallelism = src.Parallelism
		case "phase":
			cfg.Phase = src.Phase
		case "high-band":
			cfg.HighBand = src.HighBand
		case "interp":
			cfg.Interpolation = src.Interpolation
		case "channels":
			cfg.ChannelMode = src.ChannelMode
		case "cut-bass":
			cfg.OutputBand = rebalance.FullBand
			if ef.cutBass {
				cfg.OutputBand = rebalance.HighpassBand
			}
		}
	})

	if err := cfg.Validate(); err != nil {
		return rebalance.Config{}, err
	}

	return cfg, nil
}

func (ef *engineFlags) logger(out io.Writer) *logrus.Logger {
	return newLogger(out, ef.verbose, ef.quiet)
}

func newLogger(out io.Writer, verbose, quiet bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	switch {
	case quiet:
		log.SetLevel(logrus.WarnLevel)
	case verbose:
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}
