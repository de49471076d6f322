package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"github.com/richinsley/goshaderwipe/encoder"
	"github.com/richinsley/goshaderwipe/glfwcontext"
	"github.com/richinsley/goshaderwipe/graphics"
	"github.com/richinsley/goshaderwipe/headless"
	"github.com/richinsley/goshaderwipe/logger"
	"github.com/richinsley/goshaderwipe/options"
	"github.com/richinsley/goshaderwipe/renderer"
	"github.com/richinsley/goshaderwipe/textures"
	"github.com/richinsley/goshaderwipe/transition"
)

func init() {
	// GLFW and GL calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup happens before exit.
func run() int {
	opts, err := options.Parse(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	log, err := logger.New(logger.Config{Level: *opts.LogLevel, Format: *opts.LogFormat})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := newSource(opts, log)

	switch *opts.Mode {
	case options.ModeSnapshot:
		if *opts.GPU {
			err = runGPUSnapshot(ctx, opts, source, log)
		} else {
			err = runSnapshot(ctx, opts, source, log)
		}
	case options.ModeRecord:
		err = runRecord(ctx, opts, source, log)
	default:
		err = runInteractive(ctx, opts, source, log)
	}
	code := exitCode(err)
	switch {
	case err == nil:
	case code == 0:
		log.Info("interrupted", zap.String("mode", *opts.Mode))
	default:
		log.Error("goshaderwipe failed", zap.String("mode", *opts.Mode), zap.Error(err))
	}
	return code
}

// exitCode maps a mode's result to a process exit code. An interrupt is a
// normal way to stop and exits cleanly.
func exitCode(err error) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return 0
	}
	return 1
}

func newSource(opts *options.WipeOptions, log *zap.Logger) *textures.Source {
	sourceOpts := []textures.SourceOption{textures.WithLogger(log)}
	if *opts.Cache {
		sourceOpts = append(sourceOpts, textures.WithDefaultCache())
	}
	source := textures.NewSource(sourceOpts...)
	if dir := source.CacheDir(); dir != "" {
		log.Debug("using image cache", zap.String("dir", dir))
	}
	return source
}

func sampler(opts *options.WipeOptions) textures.Sampler {
	return textures.Sampler{Filter: *opts.Filter, Wrap: *opts.Wrap, VFlip: true}
}

// runInteractive shows the transition in a resizable window that follows
// the mouse.
func runInteractive(ctx context.Context, opts *options.WipeOptions, source *textures.Source, log *zap.Logger) error {
	if err := glfwcontext.InitGraphics(log); err != nil {
		return fmt.Errorf("failed to initialize graphics: %w", err)
	}
	defer glfwcontext.TerminateGraphics(log)

	win, err := glfwcontext.New(glfwcontext.Options{
		Width:   *opts.Width,
		Height:  *opts.Height,
		Title:   "goshaderwipe",
		Visible: true,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer win.Shutdown()

	r, err := renderer.NewRenderer(win, renderer.Options{
		Offscreen: true,
		Present:   true,
		Sampler:   sampler(opts),
		Logger:    log,
	})
	if err != nil {
		return err
	}
	defer r.Shutdown()

	pointer := transition.NewPointerState()
	effect, err := transition.New(transition.Config{
		Images:   *opts.Images,
		Source:   source,
		Backend:  r,
		Viewport: win,
		Pointer:  pointer,
		Clock:    win,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	win.OnPointer(pointer.Set)
	win.OnResize(effect.Resize)
	win.OnKey(glfw.KeyR, func() {
		w, h := win.GetFramebufferSize()
		pointer.Set(float64(w)/2, float64(h)/2)
	})

	effect.Load(ctx)
	log.Info("starting interactive render loop")
	if err := effect.Run(ctx, win); err != nil {
		return err
	}
	log.Info("render loop finished", zap.Int64("frames", effect.FrameCount()))
	return nil
}

// runRecord renders a fixed-length video with the pointer sweeping up and
// down, at a steady frame rate regardless of render speed.
func runRecord(ctx context.Context, opts *options.WipeOptions, source *textures.Source, log *zap.Logger) error {
	enc, err := encoder.New(encoder.Config{
		Width:      *opts.Width,
		Height:     *opts.Height,
		FPS:        *opts.FPS,
		OutputFile: *opts.OutputFile,
		FFMPEGPath: *opts.FFMPEGPath,
		Codec:      *opts.Codec,
		Verbose:    *opts.Verbose,
		Logger:     log,
	})
	if err != nil {
		return err
	}

	gctx, release, err := newOffscreenContext(opts, log)
	if err != nil {
		return err
	}
	defer release()

	r, err := newOffscreenRenderer(gctx, opts, log)
	if err != nil {
		return err
	}
	defer r.Shutdown()

	clock := transition.NewStepClock(*opts.FPS)
	effect, err := transition.New(transition.Config{
		Images:   *opts.Images,
		Source:   source,
		Backend:  r,
		Viewport: transition.FixedViewport{Width: *opts.Width, Height: *opts.Height},
		Pointer:  transition.NewSweepPointer(clock, *opts.SweepPeriod, *opts.Width, *opts.Height),
		Clock:    clock,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	effect.Load(ctx)
	if err := effect.WaitReady(ctx); err != nil {
		return err
	}
	effect.Start()
	defer effect.Stop()

	frames := transition.NewStepFrames(effect, r.Offscreen(), clock)
	if err := enc.Record(ctx, frames, opts.TotalFrames()); err != nil {
		return err
	}
	log.Info("recording written", zap.String("output", *opts.OutputFile))
	return nil
}

func newOffscreenRenderer(gctx graphics.Context, opts *options.WipeOptions, log *zap.Logger) (*renderer.Renderer, error) {
	return renderer.NewRenderer(gctx, renderer.Options{
		Offscreen: true,
		Width:     *opts.Width,
		Height:    *opts.Height,
		Sampler:   sampler(opts),
		Logger:    log,
	})
}

// newOffscreenContext returns a GL context for rendering without a visible
// window: an EGL pbuffer when headless, otherwise a hidden GLFW window.
func newOffscreenContext(opts *options.WipeOptions, log *zap.Logger) (graphics.Context, func(), error) {
	if *opts.Headless {
		h, err := headless.New(*opts.Width, *opts.Height, log)
		if err != nil {
			return nil, nil, err
		}
		return h, h.Shutdown, nil
	}

	if err := glfwcontext.InitGraphics(log); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize graphics: %w", err)
	}
	win, err := glfwcontext.New(glfwcontext.Options{Width: *opts.Width, Height: *opts.Height}, log)
	if err != nil {
		glfwcontext.TerminateGraphics(log)
		return nil, nil, fmt.Errorf("failed to create window: %w", err)
	}
	return win, func() {
		win.Shutdown()
		glfwcontext.TerminateGraphics(log)
	}, nil
}

// snapshotPointer places the pointer at the horizontal center and at the
// requested height, 0 being the bottom edge.
func snapshotPointer(opts *options.WipeOptions) *transition.PointerState {
	pointer := transition.NewPointerState()
	pointer.Set(float64(*opts.Width)/2, (1-*opts.PointerY)*float64(*opts.Height))
	return pointer
}

// renderOnce loads the images and draws a single frame.
func renderOnce(ctx context.Context, effect *transition.Effect) error {
	effect.Load(ctx)
	if err := effect.WaitReady(ctx); err != nil {
		return err
	}
	effect.Start()
	defer effect.Stop()
	return effect.Frame()
}

// runSnapshot renders one frame on the CPU and writes it as PNG.
func runSnapshot(ctx context.Context, opts *options.WipeOptions, source *textures.Source, log *zap.Logger) error {
	backend := transition.NewCPUBackend()
	effect, err := transition.New(transition.Config{
		Images:   *opts.Images,
		Source:   source,
		Backend:  backend,
		Viewport: transition.FixedViewport{Width: *opts.Width, Height: *opts.Height},
		Pointer:  snapshotPointer(opts),
		Clock:    transition.NewStepClock(1),
		Logger:   log,
	})
	if err != nil {
		return err
	}
	if err := renderOnce(ctx, effect); err != nil {
		return err
	}
	return writePNG(*opts.OutputFile, backend.Frame(), opts, log)
}

// runGPUSnapshot renders one frame with OpenGL into an offscreen target and
// writes it as PNG.
func runGPUSnapshot(ctx context.Context, opts *options.WipeOptions, source *textures.Source, log *zap.Logger) error {
	gctx, release, err := newOffscreenContext(opts, log)
	if err != nil {
		return err
	}
	defer release()

	r, err := newOffscreenRenderer(gctx, opts, log)
	if err != nil {
		return err
	}
	defer r.Shutdown()

	effect, err := transition.New(transition.Config{
		Images:   *opts.Images,
		Source:   source,
		Backend:  r,
		Viewport: transition.FixedViewport{Width: *opts.Width, Height: *opts.Height},
		Pointer:  snapshotPointer(opts),
		Clock:    transition.NewStepClock(1),
		Logger:   log,
	})
	if err != nil {
		return err
	}
	if err := renderOnce(ctx, effect); err != nil {
		return err
	}
	return writePNG(*opts.OutputFile, r.Offscreen().Image(), opts, log)
}

func writePNG(path string, img image.Image, opts *options.WipeOptions, log *zap.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Info("snapshot written", zap.String("output", path), zap.Float64("pointer_y", *opts.PointerY))
	return nil
}
