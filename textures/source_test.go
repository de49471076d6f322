package textures

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFetchLocalPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, 6, 3), 0644))

	s := NewSource()
	for _, ref := range []string{path, "file://" + path} {
		img, err := s.Fetch(context.Background(), ref)
		require.NoError(t, err, ref)
		assert.Equal(t, 6, img.Bounds().Dx())
		assert.Equal(t, 3, img.Bounds().Dy())
	}
}

func TestFetchMissingFile(t *testing.T) {
	_, err := NewSource().Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFetchEmptyRef(t *testing.T) {
	_, err := NewSource().Fetch(context.Background(), "")
	assert.Error(t, err)
}

func TestFetchRemoteSetsUserAgent(t *testing.T) {
	data := encodePNG(t, 4, 2)
	var gotAgent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent.Store(r.Header.Get("User-Agent"))
		w.Write(data)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &headerTransport{Transport: http.DefaultTransport}}
	img, err := NewSource(WithHTTPClient(client)).Fetch(context.Background(), srv.URL+"/img.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())
	assert.Equal(t, userAgent, gotAgent.Load())
}

func TestFetchRemoteStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewSource().Fetch(context.Background(), srv.URL+"/missing.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code: 404")
}

func TestFetchRemoteDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not an image"))
	}))
	defer srv.Close()

	_, err := NewSource().Fetch(context.Background(), srv.URL+"/bad.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}

func TestFetchRemoteUsesCache(t *testing.T) {
	data := encodePNG(t, 5, 5)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(data)
	}))
	defer srv.Close()

	cache := t.TempDir()
	s := NewSource(WithCacheDir(cache))
	ref := srv.URL + "/photo.png"

	for i := 0; i < 3; i++ {
		img, err := s.Fetch(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, 5, img.Bounds().Dx())
	}
	assert.Equal(t, int32(1), hits.Load())

	entries, err := os.ReadDir(cache)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".png", filepath.Ext(entries[0].Name()))
}

func TestFetchRemoteRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSource().Fetch(ctx, srv.URL+"/slow.png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultCache(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)
	t.Setenv("HOME", base)
	t.Setenv("LOCALAPPDATA", base)

	s := NewSource(WithDefaultCache())
	dir := s.CacheDir()
	require.NotEmpty(t, dir)
	assert.DirExists(t, dir)
	assert.Equal(t, "media", filepath.Base(dir))
	assert.Equal(t, "goshaderwipe", filepath.Base(filepath.Dir(dir)))

	explicit := t.TempDir()
	assert.Equal(t, explicit, NewSource(WithCacheDir(explicit), WithDefaultCache()).CacheDir())
	assert.Empty(t, NewSource().CacheDir())
}

func TestVFlipAndToRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(2, 3, 3, 5))
	src.Set(2, 3, color.NRGBA{R: 255, A: 255})
	src.Set(2, 4, color.NRGBA{B: 255, A: 255})

	rgba := ToRGBA(src)
	require.Equal(t, image.Rect(0, 0, 1, 2), rgba.Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, rgba.RGBAAt(0, 0))

	flipped := VFlip(rgba)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, flipped.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, flipped.RGBAAt(0, 1))
}
