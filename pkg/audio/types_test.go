// ABOUTME: Tests for audio types
// ABOUTME: Tests quantization, sample conversion and buffer helpers
package audio

import (
	"math"
	"testing"
)

func TestQuantizeInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    float32
		expected int16
	}{
		{"zero", 0, 0},
		{"max", 1, 32767},
		{"min", -1, -32768},
		{"half positive", 0.5, 16383},
		{"half negative", -0.5, -16384},
		{"clamp high", 1.7, 32767},
		{"clamp low", -3, -32768},
		{"truncates toward zero", 0.00004, 1},
		{"negative truncates toward zero", -0.00004, -1},
		{"nan", float32(math.NaN()), 0},
		{"positive infinity", float32(math.Inf(1)), 32767},
		{"negative infinity", float32(math.Inf(-1)), -32768},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := QuantizeInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleFromInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int16
		expected float32
	}{
		{"zero", 0, 0},
		{"min", -32768, -1},
		{"max", 32767, 32767.0 / 32768.0},
		{"half", 16384, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestSampleFromInt(t *testing.T) {
	tests := []struct {
		name     string
		sample   int32
		bitDepth int
		expected float32
	}{
		{"16-bit min", -32768, 16, -1},
		{"24-bit min", -8388608, 24, -1},
		{"24-bit half", 4194304, 24, 0.5},
		{"8-bit", 64, 8, 0.5},
		{"invalid depth", 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromInt(tt.sample, tt.bitDepth)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestQuantizeAsymmetry(t *testing.T) {
	// Decode divides by 32768 for both signs, so +1.0 does not survive exactly
	positive := SampleFromInt16(QuantizeInt16(1))
	if positive == 1 {
		t.Error("expected positive full scale to come back below 1.0")
	}
	if diff := 1 - positive; diff > 1.0/32768.0 {
		t.Errorf("positive full scale off by more than one step: %v", diff)
	}

	negative := SampleFromInt16(QuantizeInt16(-1))
	if negative != -1 {
		t.Errorf("expected negative full scale to survive exactly, got %v", negative)
	}
}

func TestBuffer(t *testing.T) {
	buf := NewBuffer(Format{SampleRate: 48000, Channels: 2}, 4800)

	if buf.Frames() != 4800 {
		t.Errorf("expected 4800 frames, got %d", buf.Frames())
	}
	if len(buf.Data) != 2 {
		t.Errorf("expected 2 channels, got %d", len(buf.Data))
	}
	if buf.Duration() != 0.1 {
		t.Errorf("expected duration 0.1s, got %v", buf.Duration())
	}

	var nilBuf *Buffer
	if nilBuf.Frames() != 0 {
		t.Error("expected nil buffer to have zero frames")
	}
}

func TestCanonicalFormat(t *testing.T) {
	if !Canonical.IsCanonical() {
		t.Error("canonical format should report canonical")
	}
	if (Format{SampleRate: 44100, Channels: 1}).IsCanonical() {
		t.Error("44.1kHz should not be canonical")
	}
	if (Format{SampleRate: 24000, Channels: 2}).IsCanonical() {
		t.Error("stereo should not be canonical")
	}
}
