package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cwbudde/algo-serene/dsp/window"
	"github.com/cwbudde/algo-serene/internal/audiofile"
	"github.com/cwbudde/algo-serene/internal/ffmpeg"
	"github.com/cwbudde/algo-serene/rebalance"
	"github.com/cwbudde/algo-serene/stats/frequency"
	timestats "github.com/cwbudde/algo-serene/stats/time"
	"github.com/dustin/go-humanize"
)

func runInspect(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("inspect", "input", stderr)
	ef := newEngineFlags(fs)

	var (
		bin string
		win = window.TypeHann
	)
	fs.StringVar(&bin, "ffmpeg", "", "ffmpeg binary used to find ffprobe for containers (default: from PATH)")
	fs.TextVar(&win, "window", win, "spectrum window: rectangular, hann, hamming or blackman")

	paths, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}

	if !audiofile.IsAudioPath(paths[0]) {
		return inspectStreams(ctx, stdout, bin, paths[0])
	}

	cfg, err := ef.config()
	if err != nil {
		return err
	}

	w, info, err := audiofile.Decode(paths[0])
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "file\t%s\n", info.Path)
	fmt.Fprintf(tw, "format\t%s\n", info.Format)
	if info.BitDepth > 0 {
		fmt.Fprintf(tw, "bit depth\t%d\n", info.BitDepth)
	}
	fmt.Fprintf(tw, "sample rate\t%d Hz\n", info.SampleRate)
	fmt.Fprintf(tw, "channels\t%d\n", info.Channels)
	fmt.Fprintf(tw, "frames\t%s\n", humanize.Comma(int64(info.Frames)))
	fmt.Fprintf(tw, "duration\t%.3f s\n", w.Duration())
	fmt.Fprintf(tw, "size\t%s\n", humanize.Bytes(uint64(info.Size)))
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "channel\tRMS dBFS\tpeak dBFS\tcrest dB\tDC\n")
	for ch, s := range timestats.SummarizeWaveform(w) {
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\t%.5f\n", ch, s.RMSdB, s.PeakdB, s.CrestFactordB, s.DC)
	}
	fmt.Fprintln(tw)

	if info.Frames > 0 {
		b, err := frequency.BandBalance(w.Downmix(), w.SampleRate, cfg.MidRangeFreq, frequency.WithWindow(win))
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "split\t%.0f Hz\n", b.SplitHz)
		fmt.Fprintf(tw, "low band energy\t%.1f %%\n", 100*b.LowFraction())
		fmt.Fprintf(tw, "low/high\t%.2f dB\n", b.LowToHighdB())
		fmt.Fprintf(tw, "centroid\t%.0f Hz\n", b.Centroid)
	}

	e, err := rebalance.NewWithConfig(cfg)
	if err != nil {
		return err
	}
	a, err := e.Analyze(w)
	if err != nil {
		return err
	}
	for i, g := range a.Groups {
		fmt.Fprintf(tw, "group %d mean attenuation\t%.2f dB\n", i, g.MeanAttenuationDB())
	}

	return tw.Flush()
}

// inspectStreams lists the audio streams of a container, numbered the way
// serene video -track expects.
func inspectStreams(ctx context.Context, stdout io.Writer, bin, path string) error {
	runner, err := ffmpeg.Find(bin)
	if err != nil {
		return err
	}

	streams, err := runner.Probe(ctx, path)
	if err != nil {
		return err
	}

	return writeStreams(stdout, path, streams)
}

func writeStreams(stdout io.Writer, path string, streams []ffmpeg.Stream) error {
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "file\t%s\n", path)
	fmt.Fprintf(tw, "audio streams\t%d\n", len(streams))
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "track\tindex\tcodec\tsample rate\tbit rate\tchannels\tlayout\tduration\tlanguage\ttitle\n")
	for _, s := range streams {
		bitRate := "-"
		if b := s.BitRateValue(); b > 0 {
			bitRate = humanize.SI(float64(b), "bit/s")
		}
		duration := "-"
		if d := s.DurationSeconds(); d > 0 {
			duration = fmt.Sprintf("%.3f s", d)
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s Hz\t%s\t%d\t%s\t%s\t%s\t%s\n",
			s.Track, s.Index, s.CodecName, s.SampleRate, bitRate, s.Channels,
			orDash(s.ChannelLayout), duration, orDash(s.Tags.Language), orDash(s.Tags.Title))
	}

	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
