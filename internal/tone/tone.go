// ABOUTME: Sine tone generator for offline note creation
// ABOUTME: Produces short enveloped tones at the canonical rate
package tone

import (
	"fmt"
	"math"
	"time"

	"github.com/Sonicmapper/sonicmapper-go/pkg/audio"
)

const (
	// DefaultAmplitude keeps generated tones at half scale
	DefaultAmplitude = 0.5
	// DefaultDuration is the length of a generated note
	DefaultDuration = time.Second
	// MaxDuration bounds a generated note
	MaxDuration = time.Minute

	// fade applied at both ends to avoid clicks
	fadeDuration = 10 * time.Millisecond
)

// Config describes a tone
type Config struct {
	Frequency float64
	Duration  time.Duration
	Amplitude float64
}

// Generate renders a mono sine tone at the canonical sample rate
func Generate(cfg Config) (*audio.Buffer, error) {
	if cfg.Duration == 0 {
		cfg.Duration = DefaultDuration
	}
	if cfg.Amplitude == 0 {
		cfg.Amplitude = DefaultAmplitude
	}

	nyquist := float64(audio.CanonicalSampleRate) / 2
	if math.IsNaN(cfg.Frequency) || cfg.Frequency <= 0 || cfg.Frequency >= nyquist {
		return nil, fmt.Errorf("frequency must be between 0 and %.0f Hz, got %g", nyquist, cfg.Frequency)
	}
	if cfg.Duration < 0 || cfg.Duration > MaxDuration {
		return nil, fmt.Errorf("duration must be between 0 and %s, got %s", MaxDuration, cfg.Duration)
	}
	if math.IsNaN(cfg.Amplitude) || cfg.Amplitude < 0 || cfg.Amplitude > 1 {
		return nil, fmt.Errorf("amplitude must be between 0 and 1, got %g", cfg.Amplitude)
	}

	frames := int(cfg.Duration.Seconds() * audio.CanonicalSampleRate)
	buf := audio.NewBuffer(audio.Canonical, frames)
	samples := buf.Channel(0)

	fadeFrames := int(fadeDuration.Seconds() * audio.CanonicalSampleRate)
	if fadeFrames > frames/2 {
		fadeFrames = frames / 2
	}

	for i := range samples {
		t := float64(i) / audio.CanonicalSampleRate
		sample := math.Sin(2*math.Pi*cfg.Frequency*t) * cfg.Amplitude
		samples[i] = float32(sample * envelope(i, frames, fadeFrames))
	}

	return buf, nil
}

// envelope is a linear fade in and out over fadeFrames
func envelope(i, frames, fadeFrames int) float64 {
	if fadeFrames == 0 {
		return 1
	}
	switch {
	case i < fadeFrames:
		return float64(i) / float64(fadeFrames)
	case i >= frames-fadeFrames:
		return float64(frames-1-i) / float64(fadeFrames)
	}
	return 1
}

// NoteFrequency returns the equal-tempered frequency of a note name such as
// "A4", "C#3" or "Bb2"
func NoteFrequency(name string) (float64, error) {
	if len(name) < 2 {
		return 0, fmt.Errorf("invalid note %q", name)
	}

	semitones := map[byte]int{'C': -9, 'D': -7, 'E': -5, 'F': -4, 'G': -2, 'A': 0, 'B': 2}
	offset, ok := semitones[name[0]&^0x20]
	if !ok {
		return 0, fmt.Errorf("invalid note %q", name)
	}

	rest := name[1:]
	switch rest[0] {
	case '#':
		offset++
		rest = rest[1:]
	case 'b':
		offset--
		rest = rest[1:]
	}

	var octave int
	if _, err := fmt.Sscanf(rest, "%d", &octave); err != nil || len(rest) != 1 {
		return 0, fmt.Errorf("invalid note %q", name)
	}

	n := offset + (octave-4)*12
	return 440 * math.Pow(2, float64(n)/12), nil
}
