package glfwcontext

import (
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"
)

// Options describes the window to create.
type Options struct {
	Width   int
	Height  int
	Title   string
	Visible bool
}

// Context wraps a GLFW window and forwards its pointer and resize events to
// registered handlers. Handlers run on the main thread inside EndFrame.
type Context struct {
	window *glfw.Window
	logger *zap.Logger

	onPointer func(x, y float64)
	onResize  func(width, height int)
	onKey     map[glfw.Key]func()
}

// New creates a GLFW window with a 4.1 core context. InitGraphics must have
// been called first.
func New(opts Options, logger *zap.Logger) (*Context, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	if opts.Visible {
		glfw.WindowHint(glfw.Resizable, glfw.True)
		glfw.WindowHint(glfw.Visible, glfw.True)
	} else {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	title := opts.Title
	if title == "" {
		title = "goshaderwipe"
	}

	win, err := glfw.CreateWindow(opts.Width, opts.Height, title, nil, nil)
	if err != nil {
		return nil, err
	}

	c := &Context{
		window: win,
		logger: logger,
		onKey:  make(map[glfw.Key]func()),
	}

	win.SetKeyCallback(c.glfwKeyCallback)
	win.SetCursorPosCallback(c.glfwCursorPosCallback)
	// Framebuffer size is in pixels, which differs from the window size on
	// high-DPI displays.
	win.SetFramebufferSizeCallback(c.glfwFramebufferSizeCallback)

	return c, nil
}

// OnPointer registers the handler for pointer moves, in framebuffer pixels
// with the origin at the top-left corner.
func (c *Context) OnPointer(f func(x, y float64)) {
	c.onPointer = f
}

// OnResize registers the handler for framebuffer size changes.
func (c *Context) OnResize(f func(width, height int)) {
	c.onResize = f
}

// OnKey registers a handler for presses of key. Escape always closes the
// window and cannot be rebound.
func (c *Context) OnKey(key glfw.Key, f func()) {
	c.onKey[key] = f
}

func (c *Context) glfwKeyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if c.handleKey(key, action) {
		w.SetShouldClose(true)
	}
}

// handleKey runs the handler bound to a pressed key and reports whether the
// window should close.
func (c *Context) handleKey(key glfw.Key, action glfw.Action) bool {
	if action != glfw.Press {
		return false
	}
	if key == glfw.KeyEscape {
		return true
	}
	if f, ok := c.onKey[key]; ok {
		c.logger.Debug("key pressed", zap.Int("key", int(key)))
		f()
	}
	return false
}

func (c *Context) glfwCursorPosCallback(w *glfw.Window, xpos, ypos float64) {
	if c.onPointer == nil {
		return
	}
	winWidth, winHeight := w.GetSize()
	fbWidth, fbHeight := w.GetFramebufferSize()
	c.onPointer(toFramebuffer(xpos, ypos, winWidth, winHeight, fbWidth, fbHeight))
}

func (c *Context) glfwFramebufferSizeCallback(_ *glfw.Window, width, height int) {
	c.logger.Debug("framebuffer resized", zap.Int("width", width), zap.Int("height", height))
	if c.onResize != nil {
		c.onResize(width, height)
	}
}

// toFramebuffer scales a cursor position from screen coordinates to
// framebuffer pixels.
func toFramebuffer(x, y float64, winWidth, winHeight, fbWidth, fbHeight int) (float64, float64) {
	scaleX, scaleY := 1.0, 1.0
	if winWidth > 0 && winHeight > 0 {
		scaleX = float64(fbWidth) / float64(winWidth)
		scaleY = float64(fbHeight) / float64(winHeight)
	}
	return x * scaleX, y * scaleY
}

// IsGLES reports whether the context is OpenGL ES. GLFW windows created
// here are always desktop core profile.
func (c *Context) IsGLES() bool {
	return false
}

// MakeCurrent makes the context current for the calling goroutine.
func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
}

func (c *Context) Shutdown() {
	c.window.Destroy()
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

func (c *Context) EndFrame() {
	c.window.SwapBuffers()
	glfw.PollEvents()
}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

func (c *Context) Time() float64 {
	return glfw.GetTime()
}

// Now implements transition.Clock on top of the GLFW timer.
func (c *Context) Now() float64 {
	return glfw.GetTime()
}

// InitGraphics initializes GLFW. Must be called from the main thread.
func InitGraphics(logger *zap.Logger) error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return err
	}
	logger.Debug("GLFW initialized")
	return nil
}

// TerminateGraphics shuts down GLFW. Must be called from the main thread.
func TerminateGraphics(logger *zap.Logger) {
	glfw.Terminate()
	logger.Debug("GLFW terminated")
}
