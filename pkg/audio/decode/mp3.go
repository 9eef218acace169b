// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes a complete MP3 upload to stereo float samples
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Sonicmapper/sonicmapper-go/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// mp3 decoder always emits interleaved 16-bit stereo
const mp3Channels = 2

// MP3Decoder decodes MP3 audio
type MP3Decoder struct{}

// NewMP3 creates a new MP3 decoder
func NewMP3() *MP3Decoder {
	return &MP3Decoder{}
}

// Decode converts MP3 bytes to float samples at the file's native rate
func (d *MP3Decoder) Decode(data []byte) (*audio.Buffer, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	// Read decoded PCM data (int16 as bytes)
	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	frameBytes := mp3Channels * 2
	numFrames := len(pcm) / frameBytes
	buf := audio.NewBuffer(audio.Format{
		SampleRate: decoder.SampleRate(),
		Channels:   mp3Channels,
		BitDepth:   16,
	}, numFrames)

	for i := 0; i < numFrames; i++ {
		for ch := 0; ch < mp3Channels; ch++ {
			sample16 := int16(binary.LittleEndian.Uint16(pcm[i*frameBytes+ch*2:]))
			buf.Data[ch][i] = audio.SampleFromInt16(sample16)
		}
	}

	return buf, nil
}
