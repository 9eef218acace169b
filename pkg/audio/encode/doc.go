// ABOUTME: Audio encoder package for packing float PCM
// ABOUTME: Provides the canonical 16-bit little-endian PCM encoder
// Package encode packs float samples into the canonical stored format.
//
// The encoder accepts a canonical (mono, 24000 Hz) buffer, quantizes each
// sample with audio.QuantizeInt16 and packs it little-endian, two bytes per
// sample, with no header.
//
// Example:
//
//	encoder, err := encode.NewPCM(audio.Canonical)
//	data, err := encoder.Encode(buf)
package encode
