// ABOUTME: Oto-based audio output implementation
// ABOUTME: Opens the process-wide oto context and plays float32 voices on it
package output

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/Sonicmapper/sonicmapper-go/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

// Oto backend using the oto library
type Oto struct {
	bufferSize time.Duration
	logger     *slog.Logger

	mu     sync.Mutex
	otoCtx *otoContext
}

// NewOto creates a new Oto backend. bufferSize of zero lets oto choose.
func NewOto(bufferSize time.Duration, logger *slog.Logger) *Oto {
	if logger == nil {
		logger = slog.Default()
	}
	return &Oto{
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Open initializes the output device
func (o *Oto) Open(ctx context.Context, format audio.Format) (Context, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// If already initialized with same format, reuse the existing context
	if o.otoCtx != nil {
		if o.otoCtx.format.SampleRate != format.SampleRate || o.otoCtx.format.Channels != format.Channels {
			// oto only allows one context per process
			return nil, fmt.Errorf("oto context already open at %dHz %dch, cannot reopen at %dHz %dch",
				o.otoCtx.format.SampleRate, o.otoCtx.format.Channels, format.SampleRate, format.Channels)
		}
		o.logger.Debug("audio output already initialized with same format, reusing context")
		if err := o.otoCtx.wait(ctx); err != nil {
			return nil, err
		}
		return o.otoCtx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   o.bufferSize,
	}

	otoCtx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}

	// Kept even if the wait below is abandoned; oto cannot create a second one
	o.otoCtx = &otoContext{ctx: otoCtx, ready: readyChan, format: format}
	if err := o.otoCtx.wait(ctx); err != nil {
		return nil, err
	}

	o.logger.Info("audio output initialized", "sample_rate", format.SampleRate, "channels", format.Channels)

	return o.otoCtx, nil
}

// otoContext wraps the shared oto context
type otoContext struct {
	ctx    *oto.Context
	ready  chan struct{}
	format audio.Format
}

// wait blocks until the device has finished initializing
func (c *otoContext) wait(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for audio device: %w", ctx.Err())
	}
}

func (c *otoContext) Suspend() error {
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("suspend audio context: %w", err)
	}
	return nil
}

func (c *otoContext) Resume() error {
	if err := c.ctx.Resume(); err != nil {
		return fmt.Errorf("resume audio context: %w", err)
	}
	return nil
}

func (c *otoContext) Start(r io.Reader) (Voice, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, fmt.Errorf("audio context failed: %w", err)
	}

	player := c.ctx.NewPlayer(r)
	player.Play()
	if err := player.Err(); err != nil {
		_ = player.Close()
		return nil, fmt.Errorf("player failed to start: %w", err)
	}

	return player, nil
}

// Float32LE converts float samples to the little-endian byte layout oto reads
func Float32LE(samples []float32) []byte {
	output := make([]byte, len(samples)*4)
	for i, sample := range samples {
		binary.LittleEndian.PutUint32(output[i*4:], math.Float32bits(sample))
	}
	return output
}
