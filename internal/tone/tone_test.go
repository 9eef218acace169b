// ABOUTME: Tests for the sine tone generator
// ABOUTME: Checks lengths, envelope edges, amplitude bounds and note names
package tone

import (
	"math"
	"testing"
	"time"

	"github.com/Sonicmapper/sonicmapper-go/pkg/audio"
)

func TestGenerate(t *testing.T) {
	buf, err := Generate(Config{Frequency: 440, Duration: 500 * time.Millisecond})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if buf.Format != audio.Canonical {
		t.Errorf("expected canonical format, got %+v", buf.Format)
	}
	if buf.Frames() != 12000 {
		t.Errorf("expected 12000 frames, got %d", buf.Frames())
	}

	samples := buf.Channel(0)
	if samples[0] != 0 || samples[len(samples)-1] != 0 {
		t.Errorf("expected silent edges, got %f and %f", samples[0], samples[len(samples)-1])
	}

	var peak float64
	for _, s := range samples {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	if peak > DefaultAmplitude+1e-6 || peak < DefaultAmplitude*0.99 {
		t.Errorf("expected peak near %f, got %f", DefaultAmplitude, peak)
	}
}

func TestGenerateDefaults(t *testing.T) {
	buf, err := Generate(Config{Frequency: 220})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if buf.Frames() != audio.CanonicalSampleRate {
		t.Errorf("expected one second of audio, got %d frames", buf.Frames())
	}
}

func TestGenerateInvalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero frequency", Config{}},
		{"above nyquist", Config{Frequency: 12000}},
		{"negative duration", Config{Frequency: 440, Duration: -time.Second}},
		{"amplitude too high", Config{Frequency: 440, Amplitude: 1.5}},
		{"nan frequency", Config{Frequency: math.NaN()}},
		{"nan amplitude", Config{Frequency: 440, Amplitude: math.NaN()}},
		{"thousand hours", Config{Frequency: 440, Duration: 1000 * time.Hour}},
		{"just over the limit", Config{Frequency: 440, Duration: MaxDuration + time.Millisecond}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Generate(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNoteFrequency(t *testing.T) {
	tests := []struct {
		note string
		want float64
	}{
		{"A4", 440},
		{"a4", 440},
		{"A5", 880},
		{"C4", 261.6256},
		{"C#4", 277.1826},
		{"Bb3", 233.0819},
	}
	for _, tt := range tests {
		got, err := NoteFrequency(tt.note)
		if err != nil {
			t.Errorf("%s: %v", tt.note, err)
			continue
		}
		if math.Abs(got-tt.want) > 0.001 {
			t.Errorf("%s: expected %f, got %f", tt.note, tt.want, got)
		}
	}

	for _, bad := range []string{"", "H4", "A", "C#", "A44"} {
		if _, err := NoteFrequency(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
