package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Stream describes one audio stream of a container as ffprobe reports it.
type Stream struct {
	// Track is the position among the audio streams, as used by -map 0:a:N.
	Track         int    `json:"-"`
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	SampleRate    string `json:"sample_rate"`
	Channels      int    `json:"channels"`
	ChannelLayout string `json:"channel_layout"`
	BitRate       string `json:"bit_rate"`
	Duration      string `json:"duration"`
	Tags          struct {
		Language string `json:"language"`
		Title    string `json:"title"`
	} `json:"tags"`
}

// DurationSeconds parses Duration, returning 0 when ffprobe left it out.
func (s Stream) DurationSeconds() float64 {
	d, err := strconv.ParseFloat(s.Duration, 64)
	if err != nil {
		return 0
	}
	return d
}

// BitRateValue parses BitRate in bit/s, returning 0 when unknown.
func (s Stream) BitRateValue() uint64 {
	b, err := strconv.ParseUint(s.BitRate, 10, 64)
	if err != nil {
		return 0
	}
	return b
}

// Probe lists the audio streams of input.
func (r *Runner) Probe(ctx context.Context, input string) ([]Stream, error) {
	if r.ProbePath == "" {
		return nil, fmt.Errorf("%w: ffprobe", ErrNotFound)
	}

	args := ProbeArgs(input)
	cmd := exec.CommandContext(ctx, r.ProbePath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w: %s", strings.Join(args, " "), err, tail(stderr.String(), 5))
	}

	return ParseStreams(out)
}

// ProbeArgs returns the ffprobe arguments that print every audio stream of
// input as JSON.
func ProbeArgs(input string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "a",
		"-show_streams",
		"-of", "json",
		input,
	}
}

// ParseStreams decodes ffprobe JSON output and numbers the streams in
// order.
func ParseStreams(data []byte) ([]Stream, error) {
	var doc struct {
		Streams []Stream `json:"streams"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ffprobe: decode output: %w", err)
	}

	for i := range doc.Streams {
		doc.Streams[i].Track = i
	}
	return doc.Streams, nil
}

// findProbe returns the ffprobe next to ffmpeg, falling back to PATH. It
// returns "" when there is none.
func findProbe(ffmpegPath string) string {
	sibling := filepath.Join(filepath.Dir(ffmpegPath), "ffprobe"+filepath.Ext(ffmpegPath))
	if p, err := exec.LookPath(sibling); err == nil {
		return p
	}
	if p, err := exec.LookPath("ffprobe"); err == nil {
		return p
	}
	return ""
}
