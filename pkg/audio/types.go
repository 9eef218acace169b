// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats, planar float buffers and 16-bit sample conversion
package audio

import "math"

const (
	// CanonicalSampleRate is the only rate a stored note is interpreted at
	CanonicalSampleRate = 24000
	// CanonicalChannels is the channel count of a stored note
	CanonicalChannels = 1
	// CanonicalBitDepth is the sample width of a stored note
	CanonicalBitDepth = 16
	// BytesPerSample is the packed size of one canonical sample
	BytesPerSample = CanonicalBitDepth / 8

	// 16-bit range constants
	MaxInt16 = 32767
	MinInt16 = -32768
)

// Canonical is the stored note format. Stored PCM carries no header, so
// every reader assumes this format.
var Canonical = Format{
	SampleRate: CanonicalSampleRate,
	Channels:   CanonicalChannels,
	BitDepth:   CanonicalBitDepth,
}

// Format describes a PCM buffer
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int // source bit depth, informational for decoded uploads
}

// IsCanonical reports whether the format needs no rendering before quantization
func (f Format) IsCanonical() bool {
	return f.SampleRate == CanonicalSampleRate && f.Channels == CanonicalChannels
}

// Buffer holds planar float32 PCM in the nominal range [-1, 1].
// Data has one slice per channel; all slices have the same length.
type Buffer struct {
	Format Format
	Data   [][]float32
}

// NewBuffer allocates a silent buffer of the given size
func NewBuffer(format Format, frames int) *Buffer {
	data := make([][]float32, format.Channels)
	for ch := range data {
		data[ch] = make([]float32, frames)
	}
	return &Buffer{Format: format, Data: data}
}

// Frames returns the number of sample frames in the buffer
func (b *Buffer) Frames() int {
	if b == nil || len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Channel returns the samples of one channel
func (b *Buffer) Channel(ch int) []float32 {
	return b.Data[ch]
}

// Duration returns the buffer length in seconds
func (b *Buffer) Duration() float64 {
	if b == nil || b.Format.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.Format.SampleRate)
}

// QuantizeInt16 converts a float sample to int16. The input is clamped to
// [-1, 1], negative values scale by 32768 and non-negative values by 32767,
// and the product is truncated toward zero. NaN maps to 0.
func QuantizeInt16(s float32) int16 {
	v := float64(s)
	if math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	if v < 0 {
		return int16(v * 32768)
	}
	return int16(v * 32767)
}

// SampleFromInt16 converts an int16 sample to float using a single divisor
// of 32768 regardless of sign. The result lies in [-1, 1).
func SampleFromInt16(sample int16) float32 {
	return float32(float64(sample) / 32768.0)
}

// SampleFromInt converts a signed integer sample of the given bit depth to float
func SampleFromInt(sample int32, bitDepth int) float32 {
	if bitDepth <= 0 || bitDepth > 32 {
		return 0
	}
	return float32(float64(sample) / float64(int64(1)<<(bitDepth-1)))
}
