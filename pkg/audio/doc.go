// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides the fundamental audio types shared by the codec,
// the decoders and the playback engine.
//
// This package defines:
//   - Format: sample rate and channel count of a buffer
//   - Buffer: planar float32 PCM, one slice per channel
//   - Canonical: the single stored note format (mono, 16-bit, 24000 Hz)
//
// It also provides the 16-bit sample conversions used on both sides of the
// stored representation. Quantization is deliberately asymmetric:
//
//	audio.QuantizeInt16(-1.0)  // -32768 (negative values scale by 32768)
//	audio.QuantizeInt16(1.0)   //  32767 (non-negative values scale by 32767)
//	audio.SampleFromInt16(32767) // 0.999969..., decode always divides by 32768
package audio
