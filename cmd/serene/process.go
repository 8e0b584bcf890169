package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cwbudde/algo-serene/dsp/core"
	"github.com/cwbudde/algo-serene/dsp/signal"
	"github.com/cwbudde/algo-serene/internal/audiofile"
	"github.com/cwbudde/algo-serene/internal/ffmpeg"
	"github.com/cwbudde/algo-serene/rebalance"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// outputFlags controls how results are written.
type outputFlags struct {
	bitDepth  int
	normalize float64
	ffmpeg    string
}

func bindOutputFlags(ef *engineFlags) *outputFlags {
	of := &outputFlags{}
	ef.fs.IntVar(&of.bitDepth, "bits", audiofile.DefaultBitDepth, "output WAV bit depth: 16 or 24")
	ef.fs.Float64Var(&of.normalize, "normalize", 0, "scale the output to this peak (0 keeps levels)")
	ef.fs.StringVar(&of.ffmpeg, "ffmpeg", "", "ffmpeg binary for video and non-WAV output (default: ffmpeg from PATH)")
	return of
}

func runProcess(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("process", "input output", stderr)
	ef := newEngineFlags(fs)
	of := bindOutputFlags(ef)

	paths, err := parseArgs(fs, args, 2)
	if err != nil {
		return err
	}

	cfg, err := ef.config()
	if err != nil {
		return err
	}

	log := ef.logger(stderr)
	return processFile(ctx, log, cfg, of, paths[0], paths[1])
}

func processFile(ctx context.Context, log *logrus.Logger, cfg rebalance.Config, of *outputFlags, in, out string) error {
	w, err := loadAudio(log, in)
	if err != nil {
		return err
	}

	logParameters(log, cfg)

	result, err := rebalanceWaveform(log, cfg, w)
	if err != nil {
		return err
	}

	if of.normalize > 0 {
		var scale float64
		if result, scale, err = signal.NormalizePeak(result, of.normalize); err != nil {
			return err
		}
		log.WithField("gain_db", fmt.Sprintf("%.2f", core.LinearToDB(scale))).Info("normalized peak")
	}

	return saveAudio(ctx, log, of, out, result)
}

func loadAudio(log logrus.FieldLogger, path string) (*core.Waveform, error) {
	start := time.Now()

	w, info, err := audiofile.Decode(path)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"path":        path,
		"format":      info.Format,
		"sample_rate": info.SampleRate,
		"channels":    info.Channels,
		"frames":      humanize.Comma(int64(info.Frames)),
		"duration":    fmt.Sprintf("%.3fs", w.Duration()),
		"size":        humanize.Bytes(uint64(info.Size)),
		"elapsed":     time.Since(start).Round(time.Millisecond),
	}).Info("loaded audio")

	return w, nil
}

func logParameters(log logrus.FieldLogger, cfg rebalance.Config) {
	log.WithFields(logrus.Fields{
		"time_tick":       cfg.TimeTick,
		"time_fade":       cfg.TimeFade,
		"bass_weight":     cfg.BassWeight,
		"low_cutoff_freq": cfg.LowCutoffFreq,
		"mid_range_freq":  cfg.MidRangeFreq,
		"tap_value":       cfg.TapValue,
		"phase":           cfg.Phase,
		"channel_mode":    cfg.ChannelMode,
		"output_band":     cfg.OutputBand,
	}).Info("parameters")
}

func rebalanceWaveform(log *logrus.Logger, cfg rebalance.Config, w *core.Waveform) (*core.Waveform, error) {
	start := time.Now()

	cfg.Logger = log
	e, err := rebalance.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}

	out, a, err := e.ProcessWithAnalysis(w)
	if err != nil {
		return nil, err
	}

	for i, g := range a.Groups {
		log.WithFields(logrus.Fields{
			"group":         i,
			"channels":      g.Channels,
			"segments":      len(g.Segments),
			"mean_atten_db": fmt.Sprintf("%.2f", g.MeanAttenuationDB()),
			"max_atten_db":  fmt.Sprintf("%.2f", -core.LinearToDB(g.MinGain())),
			"peak_loudness": fmt.Sprintf("%.4f", g.Loudness.Max()),
		}).Info("rebalanced")
	}
	log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("processing done")

	return out, nil
}

// saveAudio writes WAV directly and hands every other output format to
// ffmpeg through a temporary WAV file.
func saveAudio(ctx context.Context, log logrus.FieldLogger, of *outputFlags, path string, w *core.Waveform) error {
	start := time.Now()

	if format, err := audiofile.FormatFromPath(path); err == nil && format == audiofile.WAV {
		if err := audiofile.EncodeWAV(path, w, of.bitDepth); err != nil {
			return err
		}
	} else {
		runner, err := ffmpeg.Find(of.ffmpeg)
		if err != nil {
			return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
		}

		tmp, err := os.MkdirTemp("", "serene-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmp)

		wavPath := filepath.Join(tmp, "serene.wav")
		if err := audiofile.EncodeWAV(wavPath, w, of.bitDepth); err != nil {
			return err
		}
		log.WithField("output", path).Debug("transcoding with ffmpeg")
		if err := runner.Transcode(ctx, wavPath, path); err != nil {
			return err
		}
	}

	fields := logrus.Fields{
		"path":    path,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}
	if st, err := os.Stat(path); err == nil {
		fields["size"] = humanize.Bytes(uint64(st.Size()))
	}
	log.WithFields(fields).Info("saved output")

	return nil
}
