// ABOUTME: PCM audio decoder
// ABOUTME: Decodes packed 16-bit little-endian mono PCM to float samples
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/Sonicmapper/sonicmapper-go/pkg/audio"
)

// PCMDecoder decodes headerless canonical PCM
type PCMDecoder struct {
	format audio.Format
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (*PCMDecoder, error) {
	if format.BitDepth != audio.CanonicalBitDepth {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}
	if format.Channels != audio.CanonicalChannels {
		return nil, fmt.Errorf("unsupported channel count: %d (supported: 1)", format.Channels)
	}

	return &PCMDecoder{
		format: format,
	}, nil
}

// Decode converts PCM bytes to float samples. An odd byte count is rejected
// rather than silently dropping the partial sample.
func (d *PCMDecoder) Decode(data []byte) (*audio.Buffer, error) {
	if len(data)%audio.BytesPerSample != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}

	numSamples := len(data) / audio.BytesPerSample
	buf := audio.NewBuffer(d.format, numSamples)
	samples := buf.Channel(0)
	for i := 0; i < numSamples; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = audio.SampleFromInt16(sample16)
	}
	return buf, nil
}
