package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{Width: 4, Height: 2, FPS: 10, OutputFile: "out.mp4"}
}

type patternSource struct {
	size int
	fail int64
}

func (p *patternSource) RenderFrame(pts int64) ([]byte, error) {
	if p.fail > 0 && pts == p.fail {
		return nil, fmt.Errorf("gpu lost")
	}
	return bytes.Repeat([]byte{byte(pts)}, p.size), nil
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"hevc", func(c *Config) { c.Codec = "hevc" }, true},
		{"zero width", func(c *Config) { c.Width = 0 }, false},
		{"zero fps", func(c *Config) { c.FPS = 0 }, false},
		{"no output", func(c *Config) { c.OutputFile = "" }, false},
		{"unknown codec", func(c *Config) { c.Codec = "vp9" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestArgs(t *testing.T) {
	cfg := testConfig()
	in := InputArgs(cfg)
	assert.Equal(t, "rawvideo", in["format"])
	assert.Equal(t, "rgba", in["pix_fmt"])
	assert.Equal(t, "4x2", in["s"])
	assert.Equal(t, 10, in["framerate"])

	out := OutputArgs(cfg)
	assert.Equal(t, "libx264", out["c:v"])
	assert.Equal(t, "yuv420p", out["pix_fmt"])
	assert.NotContains(t, out, "tag:v")

	cfg.Codec = "hevc"
	out = OutputArgs(cfg)
	assert.Equal(t, "libx265", out["c:v"])
	assert.Equal(t, "hvc1", out["tag:v"])

	cfg.OutputFile = "out.mkv"
	assert.NotContains(t, OutputArgs(cfg), "tag:v")
}

func TestRecordWritesEveryFrame(t *testing.T) {
	enc, err := New(testConfig())
	require.NoError(t, err)

	var got bytes.Buffer
	enc.run = func(r io.Reader) error {
		_, err := io.Copy(&got, r)
		return err
	}

	src := &patternSource{size: 4 * 2 * 4}
	require.NoError(t, enc.Record(context.Background(), src, 25))

	require.Equal(t, 25*32, got.Len())
	data := got.Bytes()
	for i := 0; i < 25; i++ {
		assert.Equal(t, byte(i), data[i*32], "frame %d in order", i)
	}
}

func TestRecordReportsFFmpegFailure(t *testing.T) {
	enc, err := New(testConfig())
	require.NoError(t, err)

	boom := errors.New("ffmpeg exited with status 1")
	enc.run = func(io.Reader) error { return boom }

	err = enc.Record(context.Background(), &patternSource{size: 32}, 1000)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestRecordReportsRenderFailure(t *testing.T) {
	enc, err := New(testConfig())
	require.NoError(t, err)
	enc.run = func(r io.Reader) error {
		_, err := io.Copy(io.Discard, r)
		return err
	}

	err = enc.Record(context.Background(), &patternSource{size: 32, fail: 3}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to render frame 3")
}

func TestRecordStopsOnCancel(t *testing.T) {
	enc, err := New(testConfig())
	require.NoError(t, err)
	enc.run = func(r io.Reader) error {
		_, err := io.Copy(io.Discard, r)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = enc.Record(ctx, &patternSource{size: 32}, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSendVideoChecksSize(t *testing.T) {
	enc, err := New(testConfig())
	require.NoError(t, err)
	enc.run = func(r io.Reader) error {
		_, err := io.Copy(io.Discard, r)
		return err
	}

	assert.ErrorIs(t, enc.SendVideo(&Frame{Pixels: make([]byte, 32)}), ErrClosed, "not started")

	enc.Start(context.Background())
	assert.Error(t, enc.SendVideo(&Frame{Pixels: make([]byte, 31)}))
	assert.NoError(t, enc.SendVideo(&Frame{Pixels: make([]byte, 32)}))
	require.NoError(t, enc.Close())
	assert.ErrorIs(t, enc.SendVideo(&Frame{Pixels: make([]byte, 32)}), ErrClosed)
}
