// Command serene evens out the loudness of audio tracks, pulling down loud
// bass-heavy passages such as explosions or heavy beats while leaving
// dialogue alone.
//
// Usage:
//
//	serene process [flags] input output
//	serene inspect [flags] input
//	serene video [flags] input output
//	serene config [flags]
//
// Examples:
//
//	serene process -bw 6 -tf 0.5 movie.mp3 movie_serene.wav
//	serene inspect -mr 120 song.ogg
//	serene inspect film.mkv
//	serene process -cut-bass podcast.wav podcast_serene.mp3
//	serene video -track 1 film.mkv film_serene.mkv
//	serene config -bw 5 > quiet.toml
//	serene process -config quiet.toml in.wav out.wav
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	ossignal "os/signal"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, args []string, stdout, stderr io.Writer) error
}

var commands = []command{
	{"process", "rebalance an audio file and write WAV, or another format through ffmpeg", runProcess},
	{"inspect", "print levels and band balance of an audio file, or the audio streams of a video", runInspect},
	{"video", "rebalance an audio track of a video through ffmpeg", runVideo},
	{"config", "print the resolved parameters as TOML", runConfig},
}

func main() {
	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	name, rest := args[0], args[1:]
	if name == "help" || name == "-h" || name == "-help" || name == "--help" {
		usage(stdout)
		return 0
	}

	for _, c := range commands {
		if c.name != name {
			continue
		}

		err := c.run(ctx, rest, stdout, stderr)
		var ue usageError
		switch {
		case err == nil:
			return 0
		case errors.Is(err, flag.ErrHelp):
			return 0
		case errors.As(err, &ue):
			fmt.Fprintf(stderr, "serene %s: %v\n", name, err)
			return 2
		default:
			fmt.Fprintf(stderr, "serene %s: %v\n", name, err)
			return 1
		}
	}

	fmt.Fprintf(stderr, "serene: unknown command %q\n\n", name)
	usage(stderr)
	return 2
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: serene <command> [flags] [args]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.usage)
	}
	fmt.Fprintf(w, "\nRun 'serene <command> -h' for the flags of a command.\n")
}

// usageError reports bad positional arguments.
type usageError string

func (e usageError) Error() string { return string(e) }

// newFlagSet returns a flag set that reports errors instead of exiting.
func newFlagSet(name, args string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: serene %s [flags] %s\n\nFlags:\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

// parseArgs parses flags and checks the number of positional arguments.
func parseArgs(fs *flag.FlagSet, args []string, want int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, usageError(err.Error())
	}
	if fs.NArg() != want {
		fs.Usage()
		return nil, usageError(fmt.Sprintf("want %d arguments, got %d", want, fs.NArg()))
	}
	return fs.Args(), nil
}
