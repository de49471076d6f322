package graphics

// Context defines the interface for an OpenGL context and the surface it
// draws to.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	EndFrame()
	GetFramebufferSize() (int, int)
	Time() float64
	IsGLES() bool
}
