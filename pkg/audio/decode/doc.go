// ABOUTME: Audio decoder package for canonical PCM and uploaded files
// ABOUTME: Provides Decoder interface and implementations for PCM, MP3, FLAC, WAV
// Package decode provides audio decoders producing planar float buffers.
//
// Supports: canonical 16-bit mono PCM (stored notes), MP3, FLAC, WAV.
//
// All decoders implement the Decoder interface. Uploaded files are decoded at
// their native rate and channel count; rendering to the canonical format is
// the codec's job.
//
// Example:
//
//	decoder, err := decode.ForFile(data, "harp.mp3")
//	buf, err := decoder.Decode(data)
package decode
