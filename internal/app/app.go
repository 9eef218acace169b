// ABOUTME: Application wiring shared by the player and editor binaries
// ABOUTME: Builds codec, project store, playback engine and AI clients from config
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Sonicmapper/sonicmapper-go/internal/config"
	"github.com/Sonicmapper/sonicmapper-go/internal/fetch"
	"github.com/Sonicmapper/sonicmapper-go/internal/gemini"
	"github.com/Sonicmapper/sonicmapper-go/internal/project"
	"github.com/Sonicmapper/sonicmapper-go/pkg/audio/output"
	"github.com/Sonicmapper/sonicmapper-go/pkg/audio/resample"
	"github.com/Sonicmapper/sonicmapper-go/pkg/codec"
	"github.com/Sonicmapper/sonicmapper-go/pkg/playback"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options holds the runtime collaborators that do not come from config
type Options struct {
	Logger *slog.Logger

	// Backend defaults to the oto audio device
	Backend output.Backend

	// KV defaults to a file store under the configured store dir
	KV project.KV

	// OnError receives playback failures
	OnError func(error)
}

// App holds the wired components
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry

	Codec    *codec.Codec
	Projects *project.Repository
	Engine   *playback.Engine
	Gemini   *gemini.Client
	Fetcher  *fetch.Fetcher
}

// New wires an application from cfg
func New(cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	kv := opts.KV
	if kv == nil {
		fileKV, err := project.NewFileKV(cfg.Store.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open project store: %w", err)
		}
		kv = fileKV
	}

	backend := opts.Backend
	if backend == nil {
		backend = output.NewOto(cfg.Audio.BufferSize(), logger)
	}

	registry := prometheus.NewRegistry()
	c := codec.New(Resampler(cfg.Audio.ResampleQuality))

	engine, err := playback.New(playback.Config{
		Backend: backend,
		Logger:  logger,
		Metrics: playback.NewMetrics(registry),
		OnError: opts.OnError,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create playback engine: %w", err)
	}

	fetcher, err := fetch.NewFetcher(filepath.Join(cfg.Store.Dir, "cache"), logger)
	if err != nil {
		return nil, err
	}

	client := gemini.NewClient(gemini.Config{
		APIKey:      cfg.Gemini.APIKey,
		BaseURL:     cfg.Gemini.BaseURL,
		TTSModel:    cfg.Gemini.TTSModel,
		VisionModel: cfg.Gemini.VisionModel,
		Voice:       cfg.Gemini.Voice,
		Timeout:     cfg.Gemini.RequestTimeout(),
		Codec:       c,
		Logger:      logger,
	})

	return &App{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		Codec:    c,
		Projects: project.NewRepository(kv, cfg.Store.Namespace),
		Engine:   engine,
		Gemini:   client,
		Fetcher:  fetcher,
	}, nil
}

// Resampler picks the renderer's resampler: 0 is linear, 1-64 beep quality
func Resampler(quality int) resample.Resampler {
	if quality <= 0 {
		return resample.NewLinear()
	}
	return resample.NewBeep(quality)
}

// Editor opens an editor on p wired to the app's codec, AI client and engine
func (a *App) Editor(p project.Project) *project.Editor {
	return project.NewEditor(p, project.EditorConfig{
		Codec:  a.Codec,
		Notes:  a.Gemini,
		Vision: a.Gemini,
		Player: a.Engine,
		Logger: a.Logger,
	})
}

// MetricsHandler serves the app's registry at /metrics
func (a *App) MetricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))
	return mux
}

// ServeMetrics exposes the app's registry on addr until ctx is done.
// An empty addr disables the endpoint.
func (a *App) ServeMetrics(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      a.MetricsHandler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.Logger.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// Close waits for in-flight notes to finish, up to ctx
func (a *App) Close(ctx context.Context) error {
	if err := a.Engine.Wait(ctx); err != nil {
		a.Logger.Warn("Notes still playing at shutdown", "error", err)
		return err
	}
	return nil
}
