// ABOUTME: Source fetcher for instrument photos and note uploads
// ABOUTME: Reads local files or downloads http(s) URLs into a hashed cache directory
package fetch

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DefaultMaxBytes caps a single fetched file
const DefaultMaxBytes = 64 << 20

var ErrTooLarge = errors.New("source exceeds size limit")

// Source is a fetched file
type Source struct {
	Data        []byte
	Name        string // base name, used for labels and format detection
	ContentType string // from the server, empty for local files
}

// Fetcher loads sources from disk or the network
type Fetcher struct {
	cacheDir string
	maxBytes int64
	client   *http.Client
	logger   *slog.Logger
}

// NewFetcher creates a fetcher caching downloads under cacheDir. An empty
// cacheDir uses a directory in the system temp dir.
func NewFetcher(cacheDir string, logger *slog.Logger) (*Fetcher, error) {
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "sonicmapper-fetch")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		cacheDir: cacheDir,
		maxBytes: DefaultMaxBytes,
		client:   &http.Client{},
		logger:   logger,
	}, nil
}

// Load reads a local path or downloads an http(s) URL
func (f *Fetcher) Load(ctx context.Context, source string) (*Source, error) {
	if source == "" {
		return nil, fmt.Errorf("empty source")
	}
	if isURL(source) {
		return f.download(ctx, source)
	}
	return f.readFile(source)
}

func (f *Fetcher) readFile(name string) (*Source, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer file.Close()

	data, err := f.readLimited(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return &Source{Data: data, Name: filepath.Base(name)}, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string) (*Source, error) {
	name := urlBaseName(rawURL)

	// Cache key from URL hash
	hash := sha256.Sum256([]byte(rawURL))
	cachePath := filepath.Join(f.cacheDir, fmt.Sprintf("%x%s", hash[:8], filepath.Ext(name)))

	if data, err := os.ReadFile(cachePath); err == nil {
		f.logger.Debug("fetch cache hit", "url", rawURL, "path", cachePath)
		return &Source{Data: data, Name: name}, nil
	}

	f.logger.Info("downloading source", "url", rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := f.readLimited(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rawURL, err)
	}

	if err := os.WriteFile(cachePath, data, 0o644); err != nil {
		f.logger.Warn("failed to cache download", "path", cachePath, "error", err)
	}

	return &Source{Data: data, Name: name, ContentType: resp.Header.Get("Content-Type")}, nil
}

func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBytes)
	}
	return data, nil
}

// Cleanup removes cached downloads
func (f *Fetcher) Cleanup() error {
	return os.RemoveAll(f.cacheDir)
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// urlBaseName returns the last path element of a URL, ignoring the query
func urlBaseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "download"
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." || base == "" {
		return "download"
	}
	return base
}
