// Package ffmpeg drives external ffmpeg and ffprobe binaries to move audio
// in and out of video containers and other formats.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var ErrNotFound = errors.New("ffmpeg: binary not found")

// Runner executes ffmpeg commands.
type Runner struct {
	// Path is the ffmpeg binary.
	Path string
	// ProbePath is the ffprobe binary, empty if none was found.
	ProbePath string
}

// Find locates ffmpeg. A non-empty path is used as given; otherwise the
// binary is looked up in PATH. ffprobe is taken from the same directory or
// from PATH.
func Find(path string) (*Runner, error) {
	if path == "" {
		path = "ffmpeg"
	}

	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return &Runner{Path: resolved, ProbePath: findProbe(resolved)}, nil
}

// Run executes ffmpeg with args. On failure the error carries the tail of
// the combined output.
func (r *Runner) Run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, r.Path, args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg %s: %w: %s", strings.Join(args, " "), err, tail(out.String(), 5))
	}
	return nil
}

// ExtractAudio writes audio stream track of input to a PCM WAV file.
func (r *Runner) ExtractAudio(ctx context.Context, input string, track int, wavPath string) error {
	return r.Run(ctx, ExtractArgs(input, track, wavPath)...)
}

// Remux replaces audio stream track of video with the audio in wavPath and
// writes output. Video and other streams are copied.
func (r *Runner) Remux(ctx context.Context, video, wavPath string, track, audioTracks int, output string) error {
	return r.Run(ctx, RemuxArgs(video, wavPath, track, audioTracks, output)...)
}

// Transcode converts wavPath to output, with the codec ffmpeg picks for the
// output extension.
func (r *Runner) Transcode(ctx context.Context, wavPath, output string) error {
	return r.Run(ctx, TranscodeArgs(wavPath, output)...)
}

// ExtractArgs returns the arguments that decode one audio stream to 16-bit
// PCM WAV at its native rate and channel count.
func ExtractArgs(input string, track int, wavPath string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin", "-y",
		"-i", input,
		"-map", "0:a:" + strconv.Itoa(track),
		"-vn", "-acodec", "pcm_s16le",
		wavPath,
	}
}

// RemuxArgs returns the arguments that copy every stream of video and
// swap audio stream track for the first stream of wavPath, encoded as AAC.
// audioTracks is the number of audio streams in video; the other audio
// streams are copied untouched and keep their order.
func RemuxArgs(video, wavPath string, track, audioTracks int, output string) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin", "-y",
		"-i", video,
		"-i", wavPath,
		"-map", "0:v?",
	}
	for i := range max(audioTracks, track+1) {
		if i == track {
			args = append(args, "-map", "1:a:0")
		} else {
			args = append(args, "-map", "0:a:"+strconv.Itoa(i))
		}
	}

	t := strconv.Itoa(track)
	return append(args,
		"-map", "0:s?",
		"-map", "0:d?",
		"-map", "0:t?",
		"-c", "copy",
		"-c:a:"+t, "aac", "-b:a:"+t, "192k",
		output,
	)
}

// TranscodeArgs returns the arguments that convert wavPath to output.
func TranscodeArgs(wavPath, output string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin", "-y",
		"-i", wavPath,
		"-vn",
		output,
	}
}

func tail(s string, lines int) string {
	parts := strings.Split(strings.TrimSpace(s), "\n")
	if len(parts) > lines {
		parts = parts[len(parts)-lines:]
	}
	return strings.Join(parts, " | ")
}
