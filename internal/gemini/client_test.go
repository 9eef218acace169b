// ABOUTME: Tests for the Gemini client
// ABOUTME: Uses httptest servers to check requests, retries and audio normalization
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sonicmapper/sonicmapper-go/internal/generate"
	"github.com/Sonicmapper/sonicmapper-go/pkg/codec"
)

func testClient(url string) *Client {
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: url,
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: time.Millisecond,
			MaxDelay:     5 * time.Millisecond,
			Multiplier:   2,
		},
	})
}

func audioResponse(mimeType, data string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]any{{
					"inlineData": map[string]string{"mimeType": mimeType, "data": data},
				}},
			},
		}},
	}
}

func TestGenerateNote(t *testing.T) {
	note := codec.EncodeText([]byte{0x01, 0x00, 0xFF, 0x7F})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/"+DefaultTTSModel+":generateContent" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.GenerationConfig == nil || req.GenerationConfig.ResponseModalities[0] != "AUDIO" {
			http.Error(w, "expected audio modality", http.StatusBadRequest)
			return
		}
		if req.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName != "Kore" {
			http.Error(w, "expected Kore voice", http.StatusBadRequest)
			return
		}
		prompt := req.Contents[0].Parts[0].Text
		if !strings.Contains(prompt, "Celtic Harp") || !strings.Contains(prompt, "C4") {
			http.Error(w, "prompt missing instrument or note", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(audioResponse("audio/L16;codec=pcm;rate=24000", note))
	}))
	defer server.Close()

	got, err := testClient(server.URL).GenerateNote(context.Background(), "Celtic Harp", "C4")
	if err != nil {
		t.Fatalf("GenerateNote error: %v", err)
	}
	if got != note {
		t.Errorf("expected canonical note passed through, got %q", got)
	}
}

func TestGenerateNoteResamples(t *testing.T) {
	// 8 samples at 48kHz become 4 at 24kHz
	raw := make([]byte, 16)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(audioResponse("audio/L16;codec=pcm;rate=48000", codec.EncodeText(raw)))
	}))
	defer server.Close()

	got, err := testClient(server.URL).GenerateNote(context.Background(), "Harp", "C4")
	if err != nil {
		t.Fatalf("GenerateNote error: %v", err)
	}

	buf, err := codec.Decode(got)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if buf.Frames() != 4 {
		t.Errorf("expected 4 frames, got %d", buf.Frames())
	}
}

func TestGenerateNoteRejectsBadAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(audioResponse("audio/L16;rate=24000", "AAAA"))
	}))
	defer server.Close()

	_, err := testClient(server.URL).GenerateNote(context.Background(), "Harp", "C4")
	if !errors.Is(err, codec.ErrSourceDecode) {
		t.Errorf("expected ErrSourceDecode, got %v", err)
	}
}

func TestGenerateNoteNoAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"sorry"}]}}]}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).GenerateNote(context.Background(), "Harp", "C4")
	if !errors.Is(err, generate.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestNoAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:0"})

	if _, err := client.GenerateNote(context.Background(), "Harp", "C4"); !errors.Is(err, generate.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if _, err := client.AnalyzeImage(context.Background(), []byte{1}, "image/png"); !errors.Is(err, generate.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestAnalyzeImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/"+DefaultVisionModel+":generateContent" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		parts := req.Contents[0].Parts
		if len(parts) != 2 || parts[0].InlineData == nil || parts[0].InlineData.MimeType != "image/png" {
			http.Error(w, "expected inline image first", http.StatusBadRequest)
			return
		}
		if parts[0].InlineData.Data != "AQID" {
			http.Error(w, "unexpected image payload", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Strings, "},{"text":"soundboard\n"}]}}]}`))
	}))
	defer server.Close()

	text, err := testClient(server.URL).AnalyzeImage(context.Background(), []byte{1, 2, 3}, "image/png")
	if err != nil {
		t.Fatalf("AnalyzeImage error: %v", err)
	}
	if text != "Strings, soundboard" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"keys"}]}}]}`))
	}))
	defer server.Close()

	text, err := testClient(server.URL).AnalyzeImage(context.Background(), []byte{1}, "image/png")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if text != "keys" || calls.Load() != 3 {
		t.Errorf("expected 3 calls and text keys, got %d calls and %q", calls.Load(), text)
	}
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusForbidden)
	}))
	defer server.Close()

	_, err := testClient(server.URL).AnalyzeImage(context.Background(), []byte{1}, "image/png")
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single attempt, got %d", calls.Load())
	}
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := withRetry(ctx, RetryConfig{MaxAttempts: 5, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}, func() error {
		attempts++
		cancel()
		return errors.New("transient")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestPCMRate(t *testing.T) {
	tests := []struct {
		mime     string
		expected int
	}{
		{"audio/L16;codec=pcm;rate=24000", 24000},
		{"audio/L16; rate=16000", 16000},
		{"audio/L16", 0},
		{"audio/L16;rate=fast", 0},
	}

	for _, tt := range tests {
		if got := pcmRate(tt.mime); got != tt.expected {
			t.Errorf("pcmRate(%q): expected %d, got %d", tt.mime, tt.expected, got)
		}
	}
}
