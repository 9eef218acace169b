// ABOUTME: Audio resampling package
// ABOUTME: Converts mono float audio between sample rates
// Package resample provides audio sample rate conversion for note rendering.
//
// Two implementations share the Resampler interface:
//   - Linear: linear interpolation, no state, exact output length
//   - Beep: band-limited interpolation through beep's resampler
//
// Both produce exactly OutputFrames(len(input), inputRate, outputRate) frames.
//
// Example:
//
//	r := resample.NewLinear()
//	out := r.Resample(samples, 44100, 24000)
package resample
