// ABOUTME: Note codec package converting audio to stored base64 PCM
// ABOUTME: Renders, quantizes, packs and text-encodes notes and reverses the process
// Package codec converts between audio buffers and the stored note format.
//
// A stored note is mono 16-bit little-endian PCM at 24000 Hz, with no
// header, encoded as standard padded base64. The stream does not describe
// itself; every reader assumes the canonical format.
//
// Encoding:
//
//	c := codec.New(nil) // linear renderer
//	encoded, err := c.EncodeFile(data, "harp.wav")
//
// Decoding:
//
//	buf, err := codec.Decode(encoded)
//
// Encode scales negative samples by 32768 and non-negative samples by 32767,
// while Decode always divides by 32768. The exported HTML player decodes the
// same way, so the asymmetry is part of the format.
package codec
