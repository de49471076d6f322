package transition

import (
	"context"
	"fmt"
	"image"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Texture is a loaded image resource with its natural size in pixels.
type Texture interface {
	Width() int
	Height() int
}

// Source fetches and decodes an image reference (URL or path).
type Source interface {
	Fetch(ctx context.Context, ref string) (image.Image, error)
}

// Backend is the GPU side of the effect. All methods are called from the
// goroutine that drives Pump and Frame.
type Backend interface {
	// UploadTexture turns a decoded image into a sampleable texture.
	UploadTexture(index int, img image.Image) (Texture, error)
	// Init builds the shader program once every texture is available.
	Init(textures []Texture) error
	// Resize sets the output surface size in pixels.
	Resize(width, height int)
	// Draw renders one frame with the given uniforms.
	Draw(u *Uniforms) error
}

// Viewport reports the current output size in pixels.
type Viewport interface {
	GetFramebufferSize() (int, int)
}

// Frames is the frame scheduler the render loop yields to between frames.
type Frames interface {
	ShouldClose() bool
	EndFrame()
}

// Config wires an Effect to its collaborators.
type Config struct {
	Images   []string
	Source   Source
	Backend  Backend
	Viewport Viewport
	Pointer  PointerProvider
	Clock    Clock
	Logger   *zap.Logger
}

type loadResult struct {
	index int
	img   image.Image
	err   error
}

// Effect renders a full-viewport blend of two images whose boundary follows
// the pointer. It moves from loading to ready once both images are uploaded;
// rendering only happens between Start and Stop.
type Effect struct {
	images   []string
	source   Source
	backend  Backend
	viewport Viewport
	pointer  PointerProvider
	clock    Clock
	logger   *zap.Logger

	readiness   *Readiness
	completions chan loadResult
	loadOnce    sync.Once

	mu        sync.Mutex
	uniforms  Uniforms
	setupDone bool
	startTime float64

	running atomic.Bool
	frames  atomic.Int64
}

// New validates the configuration. Nothing is fetched until Load is called.
func New(cfg Config) (*Effect, error) {
	if len(cfg.Images) != 2 {
		return nil, fmt.Errorf("%w: got %d", ErrImageCount, len(cfg.Images))
	}
	if cfg.Source == nil || cfg.Backend == nil || cfg.Viewport == nil {
		return nil, fmt.Errorf("transition config requires a source, a backend and a viewport")
	}
	if cfg.Pointer == nil {
		cfg.Pointer = NewPointerState()
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Effect{
		images:      append([]string(nil), cfg.Images...),
		source:      cfg.Source,
		backend:     cfg.Backend,
		viewport:    cfg.Viewport,
		pointer:     cfg.Pointer,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
		readiness:   NewReadiness(len(cfg.Images)),
		completions: make(chan loadResult, len(cfg.Images)),
	}, nil
}

// Load starts fetching every image in the background. Completions are
// applied by Pump on the render goroutine. Only the first call has an effect.
func (e *Effect) Load(ctx context.Context) {
	e.loadOnce.Do(func() {
		g, gctx := errgroup.WithContext(ctx)
		for i, ref := range e.images {
			g.Go(func() error {
				img, err := e.source.Fetch(gctx, ref)
				e.completions <- loadResult{index: i, img: img, err: err}
				return err
			})
		}
		go func() {
			if err := g.Wait(); err != nil {
				e.logger.Debug("image loading stopped", zap.Error(err))
			}
		}()
	})
}

// Pump applies every pending image completion without blocking. It returns
// the load or setup error once the effect has failed.
func (e *Effect) Pump() error {
	for {
		select {
		case res := <-e.completions:
			e.handle(res)
		default:
			return e.Err()
		}
	}
}

// WaitReady blocks, applying completions as they arrive, until the effect is
// ready, has failed, or ctx is done. It must run on the render goroutine.
func (e *Effect) WaitReady(ctx context.Context) error {
	for {
		if err := e.Pump(); err != nil {
			return err
		}
		if e.isSetup() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-e.completions:
			e.handle(res)
		}
	}
}

func (e *Effect) handle(res loadResult) {
	if e.readiness.State() != StateLoading {
		return
	}
	ref := e.images[res.index]
	if res.err != nil {
		e.fail(res.index, ref, res.err)
		return
	}

	tex, err := e.backend.UploadTexture(res.index, res.img)
	if err != nil {
		e.fail(res.index, ref, fmt.Errorf("texture upload failed: %w", err))
		return
	}
	e.logger.Debug("image loaded",
		zap.Int("index", res.index),
		zap.String("url", ref),
		zap.Int("width", tex.Width()),
		zap.Int("height", tex.Height()),
		zap.Int("remaining", e.readiness.Remaining()-1))

	if e.readiness.Complete(res.index, tex) {
		if err := e.setup(); err != nil {
			e.readiness.Abort(err)
			e.logger.Error("transition setup failed", zap.Error(err))
		}
	}
}

func (e *Effect) fail(index int, ref string, err error) {
	loadErr := &LoadError{Index: index, URL: ref, Err: err}
	if e.readiness.Fail(loadErr) {
		e.logger.Error("image load failed", zap.Int("index", index), zap.String("url", ref), zap.Error(err))
	}
}

func (e *Effect) setup() error {
	textures := e.readiness.Textures()
	if err := e.backend.Init(textures); err != nil {
		return fmt.Errorf("failed to initialize backend: %w", err)
	}

	e.mu.Lock()
	e.uniforms = Uniforms{
		Textures: textures,
		Ratios:   make([]AspectRatio, len(textures)),
	}
	e.startTime = e.clock.Now()
	e.setupDone = true
	e.mu.Unlock()

	width, height := e.viewport.GetFramebufferSize()
	e.applySize(width, height)
	e.logger.Info("transition ready", zap.Int("width", width), zap.Int("height", height))
	return nil
}

// Resize recomputes the aspect ratios and resolution for a new viewport.
// Resizes that happen before the effect is ready are dropped.
func (e *Effect) Resize(width, height int) {
	if !e.isSetup() {
		e.logger.Debug("resize ignored before ready", zap.Int("width", width), zap.Int("height", height))
		return
	}
	e.applySize(width, height)
}

func (e *Effect) applySize(width, height int) {
	width, height = atLeastOne(width), atLeastOne(height)

	e.mu.Lock()
	for i, tex := range e.uniforms.Textures {
		e.uniforms.Ratios[i] = ComputeRatio(tex.Width(), tex.Height(), width, height)
	}
	e.uniforms.Resolution = [2]float32{float32(width), float32(height)}
	e.mu.Unlock()

	e.backend.Resize(width, height)
}

// Frame renders a single frame. It does nothing before the effect is ready
// or while it is stopped.
func (e *Effect) Frame() error {
	if !e.running.Load() || !e.isSetup() {
		return nil
	}

	px, py := e.pointer.Pointer()

	e.mu.Lock()
	res := e.uniforms.Resolution
	nx, ny := NormalizePointer(px, py, int(res[0]), int(res[1]))
	e.uniforms.Time = float32(e.clock.Now() - e.startTime)
	e.uniforms.Mouse = [2]float32{float32(nx), float32(ny)}
	u := e.uniforms.Clone()
	e.mu.Unlock()

	if err := e.backend.Draw(&u); err != nil {
		return fmt.Errorf("failed to draw frame: %w", err)
	}
	e.frames.Inc()
	return nil
}

// Start enables rendering.
func (e *Effect) Start() {
	e.running.Store(true)
}

// Stop disables rendering and makes Run return after the current frame.
func (e *Effect) Stop() {
	e.running.Store(false)
}

// Running reports whether the effect is between Start and Stop.
func (e *Effect) Running() bool {
	return e.running.Load()
}

// Run starts the effect and drives it until Stop is called, ctx is done, the
// scheduler asks to close, or loading fails.
func (e *Effect) Run(ctx context.Context, frames Frames) error {
	e.Start()
	defer e.Stop()

	for e.running.Load() {
		if ctx.Err() != nil || frames.ShouldClose() {
			return nil
		}
		if err := e.Pump(); err != nil {
			return err
		}
		if err := e.Frame(); err != nil {
			return err
		}
		frames.EndFrame()
	}
	return nil
}

// State reports the load state.
func (e *Effect) State() State {
	return e.readiness.State()
}

// Err returns the error that stopped the effect from becoming usable.
func (e *Effect) Err() error {
	return e.readiness.Err()
}

// Uniforms returns a snapshot of the current uniform values.
func (e *Effect) Uniforms() (Uniforms, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.setupDone {
		return Uniforms{}, ErrNotReady
	}
	return e.uniforms.Clone(), nil
}

// FrameCount is the number of frames drawn so far.
func (e *Effect) FrameCount() int64 {
	return e.frames.Load()
}

func (e *Effect) isSetup() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setupDone
}
