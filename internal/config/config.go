// ABOUTME: Configuration loading for the SonicMapper player and editor
// ABOUTME: Reads YAML with env expansion, .env files and applies defaults
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Audio   AudioConfig   `yaml:"audio"`
	Store   StoreConfig   `yaml:"store"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type AudioConfig struct {
	// ResampleQuality 0 selects linear interpolation, 1-64 beep's resampler
	ResampleQuality int `yaml:"resample_quality"`
	BufferMs        int `yaml:"buffer_ms"`
}

type StoreConfig struct {
	Dir       string `yaml:"dir"`
	Namespace string `yaml:"namespace"`
}

type GeminiConfig struct {
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	TTSModel    string `yaml:"tts_model"`
	VisionModel string `yaml:"vision_model"`
	Voice       string `yaml:"voice"`
	Timeout     string `yaml:"timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads the config file at path. A missing file yields the defaults;
// a .env file in the working directory is loaded first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Audio.BufferMs == 0 {
		c.Audio.BufferMs = 100
	}
	if c.Store.Dir == "" {
		c.Store.Dir = defaultStoreDir()
	}
	if c.Store.Namespace == "" {
		c.Store.Namespace = "sonic_mapper_projects"
	}
	if c.Gemini.APIKey == "" {
		c.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.Gemini.TTSModel == "" {
		c.Gemini.TTSModel = "gemini-2.5-flash-preview-tts"
	}
	if c.Gemini.VisionModel == "" {
		c.Gemini.VisionModel = "gemini-2.5-flash"
	}
	if c.Gemini.Voice == "" {
		c.Gemini.Voice = "Kore"
	}
	if c.Gemini.Timeout == "" {
		c.Gemini.Timeout = "60s"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.File == "" {
		c.Log.File = "sonicmapper.log"
	}
}

func (c *Config) validate() error {
	if c.Audio.ResampleQuality < 0 || c.Audio.ResampleQuality > 64 {
		return fmt.Errorf("audio.resample_quality must be between 0 and 64, got %d", c.Audio.ResampleQuality)
	}
	if c.Audio.BufferMs < 0 {
		return fmt.Errorf("audio.buffer_ms must not be negative, got %d", c.Audio.BufferMs)
	}
	if _, err := time.ParseDuration(c.Gemini.Timeout); err != nil {
		return fmt.Errorf("gemini.timeout: %w", err)
	}
	return nil
}

// BufferSize returns the output buffer size as a duration
func (c AudioConfig) BufferSize() time.Duration {
	return time.Duration(c.BufferMs) * time.Millisecond
}

// RequestTimeout returns the parsed Gemini request timeout
func (c GeminiConfig) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// NewLogger builds a slog logger writing to w with the configured level and format
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch c.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if c.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

func defaultStoreDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".sonicmapper"
	}
	return filepath.Join(dir, "sonicmapper")
}
