// ABOUTME: PCM audio encoder
// ABOUTME: Quantizes float samples and packs them as 16-bit little-endian bytes
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/Sonicmapper/sonicmapper-go/pkg/audio"
)

// PCMEncoder encodes canonical PCM audio
type PCMEncoder struct {
	format audio.Format
}

// NewPCM creates a new PCM encoder
func NewPCM(format audio.Format) (*PCMEncoder, error) {
	if format.BitDepth != audio.CanonicalBitDepth {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}
	if format.Channels != audio.CanonicalChannels {
		return nil, fmt.Errorf("unsupported channel count: %d (supported: 1)", format.Channels)
	}

	return &PCMEncoder{
		format: format,
	}, nil
}

// Encode converts a mono buffer to packed PCM bytes
func (e *PCMEncoder) Encode(buf *audio.Buffer) ([]byte, error) {
	if buf.Frames() == 0 {
		return []byte{}, nil
	}
	if len(buf.Data) != e.format.Channels {
		return nil, fmt.Errorf("buffer has %d channels, encoder expects %d", len(buf.Data), e.format.Channels)
	}
	if buf.Format.SampleRate != e.format.SampleRate {
		return nil, fmt.Errorf("buffer sample rate %d does not match encoder rate %d", buf.Format.SampleRate, e.format.SampleRate)
	}

	samples := buf.Channel(0)
	output := make([]byte, len(samples)*audio.BytesPerSample)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(output[i*2:], uint16(audio.QuantizeInt16(sample)))
	}
	return output, nil
}
