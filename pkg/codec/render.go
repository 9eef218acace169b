// ABOUTME: Offline renderer to the canonical note format
// ABOUTME: Downmixes any channel layout to mono and resamples to 24000 Hz
package codec

import (
	"fmt"

	"github.com/Sonicmapper/sonicmapper-go/pkg/audio"
	"github.com/Sonicmapper/sonicmapper-go/pkg/audio/resample"
)

// Renderer renders source buffers into canonical mono at 24000 Hz
type Renderer struct {
	resampler resample.Resampler
}

// NewRenderer creates a renderer; nil selects linear interpolation
func NewRenderer(resampler resample.Resampler) *Renderer {
	if resampler == nil {
		resampler = resample.NewLinear()
	}
	return &Renderer{resampler: resampler}
}

// Render produces a canonical buffer of floor(frames*24000/rate) frames.
// Channels are averaged; a canonical source is returned unchanged.
func (r *Renderer) Render(src *audio.Buffer) (*audio.Buffer, error) {
	format := src.Format
	if format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", format.SampleRate)
	}
	if format.Channels <= 0 || len(src.Data) != format.Channels {
		return nil, fmt.Errorf("invalid channel layout: %d declared, %d present", format.Channels, len(src.Data))
	}

	if format.IsCanonical() {
		return &audio.Buffer{Format: audio.Canonical, Data: src.Data}, nil
	}

	mono := downmix(src.Data)
	rendered := r.resampler.Resample(mono, format.SampleRate, audio.CanonicalSampleRate)

	return &audio.Buffer{Format: audio.Canonical, Data: [][]float32{rendered}}, nil
}

// downmix averages all channels into one
func downmix(channels [][]float32) []float32 {
	if len(channels) == 1 {
		return channels[0]
	}

	frames := len(channels[0])
	for _, ch := range channels[1:] {
		if len(ch) < frames {
			frames = len(ch)
		}
	}

	scale := 1.0 / float64(len(channels))
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for _, ch := range channels {
			sum += float64(ch[i])
		}
		mono[i] = float32(sum * scale)
	}
	return mono
}
