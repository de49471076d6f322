package textures

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	// Decoders registered with image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const userAgent = "goshaderwipe (+https://github.com/richinsley/goshaderwipe)"

// Global client with a custom User-Agent header.
var httpClient = &http.Client{
	Transport: &headerTransport{Transport: http.DefaultTransport},
}

type headerTransport struct {
	Transport http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	return t.Transport.RoundTrip(req)
}

// Source fetches images from http(s) URLs, file:// URLs or local paths and
// decodes them. Remote images are optionally kept in an on-disk cache.
type Source struct {
	client       *http.Client
	cacheDir     string
	defaultCache bool
	logger       *zap.Logger
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithHTTPClient replaces the shared client.
func WithHTTPClient(c *http.Client) SourceOption {
	return func(s *Source) { s.client = c }
}

// WithCacheDir enables the download cache in dir.
func WithCacheDir(dir string) SourceOption {
	return func(s *Source) { s.cacheDir = dir }
}

// WithDefaultCache enables the download cache under the user cache
// directory, in goshaderwipe/media. If that directory cannot be created the
// source logs a warning and downloads without caching.
func WithDefaultCache() SourceOption {
	return func(s *Source) { s.defaultCache = true }
}

// WithLogger sets the logger used for cache warnings.
func WithLogger(l *zap.Logger) SourceOption {
	return func(s *Source) { s.logger = l }
}

func NewSource(opts ...SourceOption) *Source {
	s := &Source{
		client: httpClient,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultCache && s.cacheDir == "" {
		dir, err := defaultCacheDir()
		if err != nil {
			s.logger.Warn("image cache disabled", zap.Error(err))
		} else {
			s.cacheDir = dir
		}
	}
	return s
}

// Fetch loads and decodes the image named by ref. A failed fetch is not
// retried.
func (s *Source) Fetch(ctx context.Context, ref string) (image.Image, error) {
	if ref == "" {
		return nil, fmt.Errorf("empty image reference")
	}
	u, err := url.Parse(ref)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return s.fetchRemote(ctx, ref)
		case "file":
			return decodeFile(u.Path)
		}
	}
	return decodeFile(ref)
}

func (s *Source) fetchRemote(ctx context.Context, mediaURL string) (image.Image, error) {
	var cachePath string
	if s.cacheDir != "" {
		cachePath = filepath.Join(s.cacheDir, cacheKey(mediaURL))
		if f, err := os.Open(cachePath); err == nil {
			img, _, err := image.Decode(f)
			f.Close()
			if err == nil {
				s.logger.Debug("image served from cache", zap.String("url", mediaURL), zap.String("path", cachePath))
				return img, nil
			}
			s.logger.Warn("could not decode cached image, redownloading", zap.String("path", cachePath), zap.Error(err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", mediaURL, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download media %s: %w", mediaURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to load media %s, status code: %d", mediaURL, resp.StatusCode)
	}

	// Read into a buffer to allow both decoding and saving
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read media data from %s: %w", mediaURL, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode downloaded image from %s: %w", mediaURL, err)
	}

	if cachePath != "" {
		if err := os.WriteFile(cachePath, data, 0644); err != nil {
			s.logger.Warn("failed to save media to cache", zap.String("path", cachePath), zap.Error(err))
		}
	}
	return img, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// cacheKey keeps the URL extension so cached files stay recognizable.
func cacheKey(mediaURL string) string {
	sum := sha1.Sum([]byte(mediaURL))
	ext := ""
	if u, err := url.Parse(mediaURL); err == nil {
		ext = strings.ToLower(filepath.Ext(u.Path))
	}
	return hex.EncodeToString(sum[:]) + ext
}

// CacheDir is the download cache directory, or "" when caching is off.
func (s *Source) CacheDir() string {
	return s.cacheDir
}

func defaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "goshaderwipe", "media")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory at %s: %w", dir, err)
	}
	return dir, nil
}
