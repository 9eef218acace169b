// ABOUTME: Band-limited resampler backed by beep
// ABOUTME: Streams a mono signal through beep.Resample at a chosen quality
package resample

import (
	"github.com/gopxl/beep/v2"
)

const (
	// MinQuality and MaxQuality bound beep's interpolation quality
	MinQuality = 1
	MaxQuality = 64

	beepChunkFrames = 512
)

// Beep resamples through beep's interpolating resampler
type Beep struct {
	quality int
}

// NewBeep creates a beep resampler; quality is clamped to [1, 64]
func NewBeep(quality int) *Beep {
	if quality < MinQuality {
		quality = MinQuality
	}
	if quality > MaxQuality {
		quality = MaxQuality
	}
	return &Beep{quality: quality}
}

// Quality returns the interpolation quality in use
func (r *Beep) Quality() int {
	return r.quality
}

// Resample converts input samples to output sample rate. The result is
// exactly OutputFrames long; a short stream tail is zero-filled.
func (r *Beep) Resample(input []float32, inputRate, outputRate int) []float32 {
	outputFrames := OutputFrames(len(input), inputRate, outputRate)
	output := make([]float32, outputFrames)
	if outputFrames == 0 {
		return output
	}

	if inputRate == outputRate {
		copy(output, input)
		return output
	}

	resampler := beep.Resample(r.quality, beep.SampleRate(inputRate), beep.SampleRate(outputRate), monoStreamer(input))

	chunk := make([][2]float64, beepChunkFrames)
	written := 0
	for written < outputFrames {
		want := outputFrames - written
		if want > len(chunk) {
			want = len(chunk)
		}
		n, ok := resampler.Stream(chunk[:want])
		for i := 0; i < n; i++ {
			output[written+i] = float32(chunk[i][0])
		}
		written += n
		if !ok {
			break
		}
	}

	return output
}

// monoStreamer exposes a mono slice as a beep stream with both sides equal
func monoStreamer(samples []float32) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(out [][2]float64) (int, bool) {
		if pos >= len(samples) {
			return 0, false
		}
		n := copy2(out, samples[pos:])
		pos += n
		return n, true
	})
}

func copy2(dst [][2]float64, src []float32) int {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		v := float64(src[i])
		dst[i][0] = v
		dst[i][1] = v
	}
	return n
}
