// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides Backend/Context/Voice interfaces and the oto implementation
// Package output provides audio playback interfaces.
//
// Currently supports oto for cross-platform audio output. oto allows one
// context per process, so a Backend is expected to be opened once and the
// resulting Context shared by every voice.
//
// Example:
//
//	ctx, err := output.NewOto(100 * time.Millisecond).Open(context.Background(), audio.Canonical)
//	voice, err := ctx.Start(bytes.NewReader(float32LE))
package output
