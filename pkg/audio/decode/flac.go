// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes a complete FLAC upload frame by frame to float samples
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Sonicmapper/sonicmapper-go/pkg/audio"
	"github.com/mewkiz/flac"
)

// FLACDecoder decodes FLAC audio
type FLACDecoder struct{}

// NewFLAC creates a new FLAC decoder
func NewFLAC() *FLACDecoder {
	return &FLACDecoder{}
}

// Decode converts FLAC bytes to float samples at the stream's native rate
func (d *FLACDecoder) Decode(data []byte) (*audio.Buffer, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)
	if channels == 0 {
		return nil, fmt.Errorf("FLAC stream declares no channels")
	}

	format := audio.Format{
		SampleRate: int(info.SampleRate),
		Channels:   channels,
		BitDepth:   bitDepth,
	}

	// NSamples comes from the header alone; a channel cannot hold more
	// samples than the file has bytes
	data32 := make([][]float32, channels)
	if n := min(info.NSamples, uint64(len(data))); n > 0 {
		for ch := range data32 {
			data32[ch] = make([]float32, 0, n)
		}
	}

	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("FLAC frame decode failed: %w", err)
		}

		if len(frame.Subframes) < channels {
			return nil, fmt.Errorf("FLAC frame has %d subframes, want %d", len(frame.Subframes), channels)
		}

		for ch := 0; ch < channels; ch++ {
			samples := frame.Subframes[ch].Samples
			for i := 0; i < int(frame.BlockSize) && i < len(samples); i++ {
				data32[ch] = append(data32[ch], audio.SampleFromInt(samples[i], bitDepth))
			}
		}
	}

	return &audio.Buffer{Format: format, Data: data32}, nil
}
