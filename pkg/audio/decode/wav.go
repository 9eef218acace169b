// ABOUTME: WAV audio decoder
// ABOUTME: Decodes RIFF/WAVE uploads through beep's wav streamer
package decode

import (
	"bytes"
	"fmt"

	"github.com/Sonicmapper/sonicmapper-go/pkg/audio"
	"github.com/gopxl/beep/v2/wav"
)

// frames pulled from the streamer per call
const wavChunkFrames = 4096

// WAVDecoder decodes WAV audio
type WAVDecoder struct{}

// NewWAV creates a new WAV decoder
func NewWAV() *WAVDecoder {
	return &WAVDecoder{}
}

// Decode converts WAV bytes to float samples at the file's native rate
func (d *WAVDecoder) Decode(data []byte) (*audio.Buffer, error) {
	streamer, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode WAV: %w", err)
	}
	defer streamer.Close()

	channels := format.NumChannels
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("unsupported WAV channel count: %d", channels)
	}

	buf := &audio.Buffer{
		Format: audio.Format{
			SampleRate: int(format.SampleRate),
			Channels:   channels,
			BitDepth:   format.Precision * 8,
		},
		Data: make([][]float32, channels),
	}
	// headers may overstate the data chunk; never reserve past the file
	if n := min(streamer.Len(), len(data)/format.Width()); n > 0 {
		for ch := range buf.Data {
			buf.Data[ch] = make([]float32, 0, n)
		}
	}

	// beep always streams stereo frames; mono files repeat the sample.
	// A data chunk shorter than its header claims keeps reporting ok with
	// no frames, so an empty read ends the stream and the frames already
	// read are kept.
	chunk := make([][2]float64, wavChunkFrames)
	for {
		n, ok := streamer.Stream(chunk)
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels; ch++ {
				buf.Data[ch] = append(buf.Data[ch], float32(chunk[i][ch]))
			}
		}
		if !ok || n == 0 {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("WAV stream error: %w", err)
	}

	return buf, nil
}
