package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-serene/internal/ffmpeg"
)

func runVideo(ctx context.Context, args []string, _, stderr io.Writer) error {
	fs := newFlagSet("video", "input output", stderr)
	ef := newEngineFlags(fs)
	of := bindOutputFlags(ef)

	var (
		track    int
		keepTemp bool
	)
	fs.IntVar(&track, "track", 0, "index of the audio stream to rebalance (see serene inspect)")
	fs.BoolVar(&keepTemp, "keep-temp", false, "keep the extracted and rebalanced WAV files")

	paths, err := parseArgs(fs, args, 2)
	if err != nil {
		return err
	}
	if track < 0 {
		return usageError("track must not be negative")
	}

	cfg, err := ef.config()
	if err != nil {
		return err
	}

	log := ef.logger(stderr)

	runner, err := ffmpeg.Find(of.ffmpeg)
	if err != nil {
		return err
	}

	streams, err := runner.Probe(ctx, paths[0])
	if err != nil {
		return err
	}
	if track >= len(streams) {
		return fmt.Errorf("%s has %d audio streams, no track %d", paths[0], len(streams), track)
	}

	tmp, err := os.MkdirTemp("", "serene-*")
	if err != nil {
		return err
	}
	if keepTemp {
		log.WithField("dir", tmp).Info("keeping temporary files")
	} else {
		defer os.RemoveAll(tmp)
	}

	extracted := filepath.Join(tmp, "extracted.wav")
	rebalanced := filepath.Join(tmp, "serene.wav")

	log.WithField("track", track).Info("extracting audio")
	if err := runner.ExtractAudio(ctx, paths[0], track, extracted); err != nil {
		return err
	}

	if err := processFile(ctx, log, cfg, of, extracted, rebalanced); err != nil {
		return err
	}

	log.WithField("output", paths[1]).Info("remuxing")
	return runner.Remux(ctx, paths[0], rebalanced, track, len(streams), paths[1])
}
