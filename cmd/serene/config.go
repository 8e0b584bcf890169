package main

import (
	"context"
	"io"

	"github.com/cwbudde/algo-serene/rebalance"
)

func runConfig(_ context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("config", "", stderr)
	ef := newEngineFlags(fs)

	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}

	cfg, err := ef.config()
	if err != nil {
		return err
	}

	return rebalance.WriteConfig(stdout, cfg)
}
