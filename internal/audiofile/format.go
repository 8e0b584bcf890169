package audiofile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("audiofile: unsupported format")
	ErrInvalidFile       = errors.New("audiofile: invalid file")
	ErrBitDepth          = errors.New("audiofile: unsupported bit depth")
)

// Format identifies a container/codec pair.
type Format string

const (
	WAV  Format = "wav"
	AIFF Format = "aiff"
	MP3  Format = "mp3"
	OGG  Format = "ogg"
)

var extensions = map[string]Format{
	".wav":  WAV,
	".wave": WAV,
	".aif":  AIFF,
	".aiff": AIFF,
	".mp3":  MP3,
	".ogg":  OGG,
	".oga":  OGG,
}

// FormatFromPath returns the format implied by the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// IsAudioPath reports whether path has an extension Decode understands.
func IsAudioPath(path string) bool {
	_, err := FormatFromPath(path)
	return err == nil
}

// Info describes a decoded file.
type Info struct {
	Path       string
	Format     Format
	SampleRate int
	Channels   int
	Frames     int
	// BitDepth is the stored PCM depth, or 0 for compressed formats.
	BitDepth int
	Size     int64
}
