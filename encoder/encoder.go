package encoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrClosed is returned by SendVideo after Close.
var ErrClosed = errors.New("encoder is closed")

// Frame represents a single rendered video frame's data, ready for encoding.
// Pixels are RGBA rows, top row first.
type Frame struct {
	Pixels []byte
	PTS    int64
}

// Config describes the output video.
type Config struct {
	Width      int
	Height     int
	FPS        int
	OutputFile string
	// FFMPEGPath overrides the ffmpeg binary found on PATH.
	FFMPEGPath string
	// Codec is "h264" (default) or "hevc".
	Codec string
	// Verbose forwards ffmpeg's stderr to stdout.
	Verbose bool
	Logger  *zap.Logger
}

func (c Config) validate() error {
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf("invalid video size %dx%d", c.Width, c.Height)
	}
	if c.FPS < 1 {
		return fmt.Errorf("invalid frame rate %d", c.FPS)
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file is required")
	}
	switch c.Codec {
	case "", "h264", "hevc":
	default:
		return fmt.Errorf("unsupported codec %q", c.Codec)
	}
	return nil
}

func (c Config) frameSize() int {
	return c.Width * c.Height * 4
}

// InputArgs describes the raw frames written to ffmpeg's stdin.
func InputArgs(c Config) ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"format":    "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", c.Width, c.Height),
		"framerate": c.FPS,
	}
}

// OutputArgs selects a software encoder for the configured codec.
func OutputArgs(c Config) ffmpeg.KwArgs {
	out := ffmpeg.KwArgs{
		"pix_fmt": "yuv420p",
		"r":       c.FPS,
	}
	if c.Codec == "hevc" {
		out["c:v"] = "libx265"
		if strings.EqualFold(filepath.Ext(c.OutputFile), ".mp4") {
			out["tag:v"] = "hvc1"
		}
	} else {
		out["c:v"] = "libx264"
	}
	return out
}

// Encoder pipes raw frames into an ffmpeg process. SendVideo is the producer
// side; a background goroutine feeds ffmpeg's stdin.
type Encoder struct {
	cfg    Config
	logger *zap.Logger

	frames chan *Frame
	group  *errgroup.Group
	ctx    context.Context

	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool

	// run consumes the raw stream. It is replaced in tests.
	run func(r io.Reader) error
}

func New(cfg Config) (*Encoder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	e := &Encoder{
		cfg:    cfg,
		logger: cfg.Logger,
		frames: make(chan *Frame, 3),
	}
	e.run = e.runFFmpeg
	return e, nil
}

func (e *Encoder) runFFmpeg(r io.Reader) error {
	cmd := ffmpeg.Input("pipe:", InputArgs(e.cfg)).
		Output(e.cfg.OutputFile, OutputArgs(e.cfg)).
		OverWriteOutput().WithInput(r)
	if e.cfg.Verbose {
		cmd = cmd.ErrorToStdOut()
	}
	if e.cfg.FFMPEGPath != "" {
		cmd = cmd.SetFfmpegPath(e.cfg.FFMPEGPath)
	}
	return cmd.Run()
}

// Start launches ffmpeg and the frame writer.
func (e *Encoder) Start(ctx context.Context) {
	e.group, e.ctx = errgroup.WithContext(ctx)
	pr, pw := io.Pipe()

	e.logger.Info("starting encoder",
		zap.String("output", e.cfg.OutputFile),
		zap.Int("width", e.cfg.Width),
		zap.Int("height", e.cfg.Height),
		zap.Int("fps", e.cfg.FPS))

	e.group.Go(func() error {
		err := e.run(pr)
		if err != nil {
			err = fmt.Errorf("ffmpeg failed: %w", err)
		}
		// Unblock the writer if ffmpeg stopped reading early. A nil error
		// surfaces as io.ErrClosedPipe.
		pr.CloseWithError(err)
		return err
	})

	e.group.Go(func() error {
		defer pw.Close()
		for frame := range e.frames {
			if _, err := pw.Write(frame.Pixels); err != nil {
				return fmt.Errorf("failed to write frame %d to ffmpeg: %w", frame.PTS, err)
			}
		}
		return nil
	})
}

// SendVideo queues a frame. It blocks while the queue is full and fails once
// the encoder has stopped. It must not race with Close.
func (e *Encoder) SendVideo(frame *Frame) error {
	if len(frame.Pixels) != e.cfg.frameSize() {
		return fmt.Errorf("frame %d has %d bytes, want %d", frame.PTS, len(frame.Pixels), e.cfg.frameSize())
	}
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed || e.group == nil {
		return ErrClosed
	}

	select {
	case e.frames <- frame:
		return nil
	case <-e.ctx.Done():
		return fmt.Errorf("encoder stopped: %w", context.Cause(e.ctx))
	}
}

// Close flushes queued frames and waits for ffmpeg to exit.
func (e *Encoder) Close() error {
	if e.group == nil {
		return nil
	}
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()
		close(e.frames)
	})
	return e.group.Wait()
}

// FrameSource renders and reads back one frame per call.
type FrameSource interface {
	RenderFrame(pts int64) ([]byte, error)
}

// Record renders total frames from src and encodes them. The encoder is
// closed before Record returns.
func (e *Encoder) Record(ctx context.Context, src FrameSource, total int) (err error) {
	e.Start(ctx)
	defer func() {
		if closeErr := e.Close(); err == nil {
			err = closeErr
		}
	}()

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		pixels, err := src.RenderFrame(int64(i))
		if err != nil {
			return fmt.Errorf("failed to render frame %d: %w", i, err)
		}
		if err := e.SendVideo(&Frame{Pixels: pixels, PTS: int64(i)}); err != nil {
			return err
		}
		if (i+1)%e.cfg.FPS == 0 {
			e.logger.Debug("recording progress", zap.Int("frame", i+1), zap.Int("total", total))
		}
	}
	e.logger.Info("recording finished", zap.Int("frames", total))
	return nil
}
