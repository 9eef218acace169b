// ABOUTME: Playback package for stored notes
// ABOUTME: Lazy output context, overlapping voices, suspend and resume
// Package playback turns stored notes into sound.
//
// An Engine owns at most one output context, opened on the first play at
// 24000 Hz mono and reused afterwards. Every play decodes its own buffer and
// starts its own voice, so rapid requests overlap instead of queueing:
//
//	engine, err := playback.New(playback.Config{
//		Backend: output.NewOto(0, logger),
//		Logger:  logger,
//	})
//	engine.Play(hotspot.AudioData)
//
// Suspend releases the device when the player loses focus; the next play
// resumes it before starting its voice.
package playback
