// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends, contexts and voices
package output

import (
	"context"
	"io"

	"github.com/Sonicmapper/sonicmapper-go/pkg/audio"
)

// Backend opens output contexts on an audio device
type Backend interface {
	// Open initializes a device context for the given format and blocks
	// until the device is ready or ctx is done
	Open(ctx context.Context, format audio.Format) (Context, error)
}

// Context is an open output device. Any number of voices may play on it at
// once; the device mixes them.
type Context interface {
	// Suspend moves the device into its low-power state
	Suspend() error

	// Resume wakes a suspended device
	Resume() error

	// Start begins playing float32 little-endian samples read from r
	Start(r io.Reader) (Voice, error)
}

// Voice is one playing source bound to a context
type Voice interface {
	// IsPlaying reports whether the voice still has audio queued
	IsPlaying() bool

	// Close releases voice resources
	Close() error
}
