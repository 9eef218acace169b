// ABOUTME: Playback engine for stored notes
// ABOUTME: Decodes notes and starts one voice per request on a lazily opened output
package playback

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Sonicmapper/sonicmapper-go/pkg/audio"
	"github.com/Sonicmapper/sonicmapper-go/pkg/audio/output"
	"github.com/Sonicmapper/sonicmapper-go/pkg/codec"
)

// ErrPlaybackDevice means the output device could not be opened, resumed or started
var ErrPlaybackDevice = errors.New("playback device failure")

const reapInterval = 20 * time.Millisecond

// Config holds engine configuration
type Config struct {
	Backend output.Backend
	Logger  *slog.Logger
	Metrics *Metrics

	// OnError receives every failed play, including fire-and-forget ones
	OnError func(error)
}

// Engine plays stored notes. Requests may overlap; each gets its own voice.
type Engine struct {
	backend output.Backend
	logger  *slog.Logger
	metrics *Metrics
	onError func(error)

	mu        sync.Mutex
	out       output.Context
	suspended bool
	volume    int
	muted     bool

	inflight sync.WaitGroup
}

// New creates an engine. No device is touched until the first play.
func New(cfg Config) (*Engine, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("playback engine requires an output backend")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &Engine{
		backend: cfg.Backend,
		logger:  logger,
		metrics: metrics,
		onError: cfg.OnError,
		volume:  100,
	}, nil
}

// Play starts playing encoded without waiting. Failures are reported through
// the logger, metrics and OnError.
func (e *Engine) Play(encoded string) {
	if encoded == "" {
		return
	}

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		_ = e.play(context.Background(), encoded)
	}()
}

// PlayContext decodes encoded, makes the output ready and starts a voice.
// It returns once the voice has started, not when it finishes.
func (e *Engine) PlayContext(ctx context.Context, encoded string) error {
	if encoded == "" {
		return nil
	}

	e.inflight.Add(1)
	defer e.inflight.Done()
	return e.play(ctx, encoded)
}

func (e *Engine) play(ctx context.Context, encoded string) error {
	e.metrics.RecordPlayRequest()

	buf, err := codec.Decode(encoded)
	if err != nil {
		return e.fail("decode", fmt.Errorf("decode note: %w", err))
	}
	if buf.Frames() == 0 {
		return nil
	}

	if err := e.start(ctx, buf); err != nil {
		return e.fail("device", fmt.Errorf("%w: %w", ErrPlaybackDevice, err))
	}
	return nil
}

// start readies the output and starts a voice for buf in one critical
// section, so a Suspend cannot land between the resume and the start
func (e *Engine) start(ctx context.Context, buf *audio.Buffer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	out, err := e.ensureReadyLocked(ctx)
	if err != nil {
		return err
	}

	samples := applyVolume(buf.Channel(0), e.volume, e.muted)

	voice, err := out.Start(bytes.NewReader(output.Float32LE(samples)))
	if err != nil {
		return fmt.Errorf("start voice: %w", err)
	}

	e.metrics.RecordVoiceStarted(buf.Duration())
	e.logger.Debug("voice started", "frames", buf.Frames(), "duration", buf.Duration())

	e.inflight.Add(1)
	go e.reap(voice)
	return nil
}

// ensureReadyLocked opens the output context on first use and resumes it if
// suspended. e.mu must be held.
func (e *Engine) ensureReadyLocked(ctx context.Context) (output.Context, error) {
	if e.out == nil {
		out, err := e.backend.Open(ctx, audio.Canonical)
		if err != nil {
			// not cached; the next play tries again
			return nil, fmt.Errorf("open output: %w", err)
		}
		e.out = out
		e.suspended = false
		e.metrics.RecordContextOpen()
		e.logger.Debug("output context opened", "sample_rate", audio.CanonicalSampleRate)
	}

	if e.suspended {
		if err := e.out.Resume(); err != nil {
			return nil, err
		}
		e.suspended = false
		e.metrics.RecordContextResume()
		e.logger.Debug("output context resumed")
	}

	return e.out, nil
}

// reap closes a voice once it has drained
func (e *Engine) reap(voice output.Voice) {
	defer e.inflight.Done()

	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for voice.IsPlaying() {
		<-ticker.C
	}

	if err := voice.Close(); err != nil {
		e.logger.Warn("failed to close voice", "error", err)
	}
	e.metrics.RecordVoiceFinished()
}

func (e *Engine) fail(kind string, err error) error {
	e.metrics.RecordFailure(kind)
	e.logger.Error("playback failed", "kind", kind, "error", err)
	if e.onError != nil {
		e.onError(err)
	}
	return err
}

// Suspend puts the output context into its low-power state. The next play
// resumes it. Suspending before the first play is a no-op.
func (e *Engine) Suspend() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.out == nil || e.suspended {
		return nil
	}

	if err := e.out.Suspend(); err != nil {
		return fmt.Errorf("%w: %w", ErrPlaybackDevice, err)
	}
	e.suspended = true
	e.logger.Debug("output context suspended")
	return nil
}

// Suspended reports whether the output context is suspended
func (e *Engine) Suspended() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.suspended
}

// Wait blocks until every pending play has finished sounding or ctx is done
func (e *Engine) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetVolume sets the volume (0-100) applied to voices started afterwards
func (e *Engine) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}

	e.mu.Lock()
	e.volume = volume
	e.mu.Unlock()

	e.logger.Info("volume set", "volume", volume)
}

// SetMuted sets mute state for voices started afterwards
func (e *Engine) SetMuted(muted bool) {
	e.mu.Lock()
	e.muted = muted
	e.mu.Unlock()

	e.logger.Info("mute changed", "muted", muted)
}

// Volume returns the current volume
func (e *Engine) Volume() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// Muted returns mute state
func (e *Engine) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

// applyVolume scales samples by the volume multiplier. Full volume returns
// the input untouched.
func applyVolume(samples []float32, volume int, muted bool) []float32 {
	multiplier := volumeMultiplier(volume, muted)
	if multiplier == 1.0 {
		return samples
	}
	if multiplier == 0.0 {
		return make([]float32, len(samples))
	}

	result := make([]float32, len(samples))
	for i, sample := range samples {
		result[i] = float32(float64(sample) * multiplier)
	}
	return result
}

func volumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
