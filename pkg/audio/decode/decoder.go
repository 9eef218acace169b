// ABOUTME: Decoder interface definition and container sniffing
// ABOUTME: Picks a decoder for an uploaded file from its leading bytes
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Sonicmapper/sonicmapper-go/pkg/audio"
)

var (
	// ErrUnsupportedFormat is returned when no decoder recognises the data
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrTruncated is returned when packed PCM ends in a partial sample
	ErrTruncated = errors.New("truncated pcm stream")
)

// Decoder decodes audio into planar float samples
type Decoder interface {
	// Decode converts encoded audio data to a PCM buffer
	Decode(data []byte) (*audio.Buffer, error)
}

// Kind identifies a container format
type Kind string

const (
	KindMP3  Kind = "mp3"
	KindFLAC Kind = "flac"
	KindWAV  Kind = "wav"
)

// Detect identifies the container of an uploaded file. Leading bytes win;
// the file name extension is only consulted for headerless MP3 streams.
func Detect(data []byte, name string) (Kind, error) {
	switch {
	case bytes.HasPrefix(data, []byte("fLaC")):
		return KindFLAC, nil
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return KindWAV, nil
	case bytes.HasPrefix(data, []byte("ID3")):
		return KindMP3, nil
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return KindMP3, nil
	}

	if strings.EqualFold(filepath.Ext(name), ".mp3") && len(data) > 0 {
		return KindMP3, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, describe(name))
}

// ForFile returns the decoder for an uploaded file
func ForFile(data []byte, name string) (Decoder, error) {
	kind, err := Detect(data, name)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindMP3:
		return NewMP3(), nil
	case KindFLAC:
		return NewFLAC(), nil
	case KindWAV:
		return NewWAV(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind)
}

func describe(name string) string {
	if name == "" {
		return "(unnamed upload)"
	}
	return name
}
