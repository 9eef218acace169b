// ABOUTME: Tests for configuration loading
// ABOUTME: Covers defaults, env expansion, validation and logger setup
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Store.Namespace != "sonic_mapper_projects" {
		t.Errorf("expected default namespace, got %q", cfg.Store.Namespace)
	}
	if cfg.Audio.ResampleQuality != 0 {
		t.Errorf("expected linear resampling by default, got %d", cfg.Audio.ResampleQuality)
	}
	if cfg.Gemini.APIKey != "from-env" {
		t.Errorf("expected api key from env, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Voice != "Kore" {
		t.Errorf("expected default voice Kore, got %q", cfg.Gemini.Voice)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("unexpected log defaults: %+v", cfg.Log)
	}
	if cfg.Store.Dir == "" {
		t.Error("expected a default store dir")
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SONIC_STORE", "/tmp/sonic-store")
	t.Setenv("GEMINI_API_KEY", "ignored")

	path := writeConfig(t, `
audio:
  resample_quality: 6
  buffer_ms: 40
store:
  dir: ${SONIC_STORE}
gemini:
  api_key: explicit
  timeout: 5s
log:
  level: debug
  format: json
metrics:
  addr: ":9102"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Store.Dir != "/tmp/sonic-store" {
		t.Errorf("expected expanded store dir, got %q", cfg.Store.Dir)
	}
	if cfg.Audio.ResampleQuality != 6 {
		t.Errorf("expected quality 6, got %d", cfg.Audio.ResampleQuality)
	}
	if cfg.Audio.BufferSize() != 40*time.Millisecond {
		t.Errorf("expected 40ms buffer, got %v", cfg.Audio.BufferSize())
	}
	if cfg.Gemini.APIKey != "explicit" {
		t.Errorf("expected explicit api key to win, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.RequestTimeout() != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.Gemini.RequestTimeout())
	}
	if cfg.Metrics.Addr != ":9102" {
		t.Errorf("expected metrics addr, got %q", cfg.Metrics.Addr)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"bad yaml", "audio: [unterminated", "parsing config"},
		{"quality too high", "audio:\n  resample_quality: 65\n", "resample_quality"},
		{"negative buffer", "audio:\n  buffer_ms: -1\n", "buffer_ms"},
		{"bad timeout", "gemini:\n  timeout: soon\n", "gemini.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       LogConfig
		logDebug  bool
		wantJSON  bool
		wantEmpty bool
	}{
		{"text info drops debug", LogConfig{Level: "info", Format: "text"}, true, false, true},
		{"json debug", LogConfig{Level: "debug", Format: "json"}, true, true, false},
		{"text warn", LogConfig{Level: "warn"}, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := tt.cfg.NewLogger(&buf)

			if tt.logDebug {
				logger.Debug("note played", "hotspot", "h1")
			} else {
				logger.Warn("note played", "hotspot", "h1")
			}

			out := buf.String()
			if tt.wantEmpty {
				if out != "" {
					t.Errorf("expected no output, got %q", out)
				}
				return
			}
			if tt.wantJSON && !strings.HasPrefix(out, "{") {
				t.Errorf("expected JSON output, got %q", out)
			}
			if !strings.Contains(out, "note played") {
				t.Errorf("expected message in output, got %q", out)
			}
		})
	}
}
