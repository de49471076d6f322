package renderer

import (
	"fmt"
	"image"
	"sync"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	gst "github.com/richinsley/goshadertranslator"
	"go.uber.org/zap"

	"github.com/richinsley/goshaderwipe/graphics"
	"github.com/richinsley/goshaderwipe/shader"
	"github.com/richinsley/goshaderwipe/textures"
	"github.com/richinsley/goshaderwipe/transition"
	xlate "github.com/richinsley/goshaderwipe/translator"
)

var glInitOnce sync.Once

// Options selects where frames go.
type Options struct {
	// Offscreen renders into an FBO. Frames can then be read back with
	// Offscreen().ReadPixels.
	Offscreen bool
	// Present blits the offscreen target to the window after each draw.
	Present bool
	Width   int
	Height  int
	Sampler textures.Sampler
	Logger  *zap.Logger
}

type uniformLocations struct {
	resolution int32
	time       int32
	mouse      int32
	textures   []int32
	ratios     []int32
}

// Renderer draws the transition with OpenGL. All methods must be called on
// the goroutine that owns the context.
type Renderer struct {
	context graphics.Context
	opts    Options
	logger  *zap.Logger

	quadVAO     uint32
	quadVBO     uint32
	program     uint32
	blitProgram uint32
	blitTexLoc  int32
	locs        uniformLocations

	textures  []*textures.Texture
	offscreen *Offscreen
	width     int
	height    int
}

var _ transition.Backend = (*Renderer)(nil)

func NewRenderer(ctx graphics.Context, opts Options) (*Renderer, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Sampler == (textures.Sampler{}) {
		opts.Sampler = textures.DefaultSampler
	}
	r := &Renderer{
		context: ctx,
		opts:    opts,
		logger:  opts.Logger,
		width:   opts.Width,
		height:  opts.Height,
	}

	// Make the context current BEFORE initializing OpenGL.
	r.context.MakeCurrent()

	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}
	r.logger.Info("OpenGL initialized", zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))))

	if r.width < 1 || r.height < 1 {
		r.width, r.height = ctx.GetFramebufferSize()
	}

	r.quadVAO, r.quadVBO = newQuad()

	if opts.Offscreen {
		var err error
		r.offscreen, err = NewOffscreen(r.width, r.height)
		if err != nil {
			r.Shutdown()
			return nil, fmt.Errorf("failed to create offscreen target: %w", err)
		}
	}
	if opts.Offscreen && opts.Present {
		if err := r.initBlit(); err != nil {
			r.Shutdown()
			return nil, err
		}
	}
	return r, nil
}

func (r *Renderer) initBlit() error {
	isGLES := r.context.IsGLES()
	program, err := newProgram(shader.GenerateVertexShader(isGLES), shader.GetBlitFragmentShader(isGLES))
	if err != nil {
		return fmt.Errorf("failed to create blit program: %w", err)
	}
	r.blitProgram = program
	r.blitTexLoc = gl.GetUniformLocation(program, gl.Str("u_texture\x00"))
	return nil
}

// UploadTexture creates the GL texture for image index.
func (r *Renderer) UploadTexture(index int, img image.Image) (transition.Texture, error) {
	tex, err := textures.NewTexture(index, img, r.opts.Sampler)
	if err != nil {
		return nil, err
	}
	for len(r.textures) <= index {
		r.textures = append(r.textures, nil)
	}
	if old := r.textures[index]; old != nil {
		old.Destroy()
	}
	r.textures[index] = tex
	return tex, nil
}

// Init translates and links the transition program. Every texture in texs
// must have come from UploadTexture.
func (r *Renderer) Init(texs []transition.Texture) error {
	for i, t := range texs {
		if _, ok := t.(*textures.Texture); !ok {
			return fmt.Errorf("texture %d was not uploaded by this renderer", i)
		}
	}

	translator, err := xlate.GetTranslator()
	if err != nil {
		return err
	}

	outputFormat := gst.OutputFormatGLSL410
	if r.context.IsGLES() {
		outputFormat = gst.OutputFormatESSL
	}
	fsShader, err := translator.TranslateShader(shader.GetTransitionFragmentShader(), "fragment", gst.ShaderSpecWebGL2, outputFormat)
	if err != nil {
		return fmt.Errorf("fragment shader translation failed: %w", err)
	}

	program, err := newProgram(shader.GenerateVertexShader(r.context.IsGLES()), fsShader.Code)
	if err != nil {
		return fmt.Errorf("failed to create shader program: %w", err)
	}
	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
	r.program = program

	uniformMap := fsShader.Variables
	location := func(name string) int32 {
		if v, ok := uniformMap[name]; ok {
			return gl.GetUniformLocation(program, gl.Str(v.MappedName+"\x00"))
		}
		return -1
	}

	gl.UseProgram(program)
	r.locs = uniformLocations{
		resolution: location(shader.UniformResolution),
		time:       location(shader.UniformTime),
		mouse:      location(shader.UniformMouse),
		textures:   make([]int32, len(texs)),
		ratios:     make([]int32, len(texs)),
	}
	for i := range texs {
		r.locs.textures[i] = location(shader.TextureUniform(i))
		r.locs.ratios[i] = location(shader.RatioUniform(i))
		if r.locs.textures[i] < 0 {
			r.logger.Warn("sampler uniform not found", zap.String("name", shader.TextureUniform(i)))
		}
	}
	gl.UseProgram(0)

	r.logger.Debug("transition program linked", zap.Uint32("program", program))
	return nil
}

// Resize changes the output size. The offscreen target follows it.
func (r *Renderer) Resize(width, height int) {
	if width < 1 || height < 1 {
		return
	}
	r.width, r.height = width, height
	if r.offscreen != nil {
		if err := r.offscreen.Resize(width, height); err != nil {
			r.logger.Error("failed to resize offscreen target", zap.Error(err))
		}
	}
}

// Draw renders one frame with u.
func (r *Renderer) Draw(u *transition.Uniforms) error {
	if r.program == 0 {
		return fmt.Errorf("renderer is not initialized")
	}
	if len(u.Textures) > len(r.locs.textures) {
		return fmt.Errorf("got %d textures, program has %d samplers", len(u.Textures), len(r.locs.textures))
	}

	if r.offscreen != nil {
		r.offscreen.Bind()
	}

	gl.Viewport(0, 0, int32(r.width), int32(r.height))
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.UseProgram(r.program)

	if r.locs.resolution != -1 {
		gl.Uniform2f(r.locs.resolution, u.Resolution[0], u.Resolution[1])
	}
	if r.locs.time != -1 {
		gl.Uniform1f(r.locs.time, u.Time)
	}
	if r.locs.mouse != -1 {
		gl.Uniform2f(r.locs.mouse, u.Mouse[0], u.Mouse[1])
	}

	for i, t := range u.Textures {
		tex, ok := t.(*textures.Texture)
		if !ok {
			continue
		}
		if r.locs.textures[i] != -1 {
			gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
			gl.BindTexture(gl.TEXTURE_2D, tex.GetTextureID())
			gl.Uniform1i(r.locs.textures[i], int32(i))
		}
		if i < len(u.Ratios) && r.locs.ratios[i] != -1 {
			ratio := u.Ratios[i].Vec2()
			gl.Uniform2fv(r.locs.ratios[i], 1, &ratio[0])
		}
	}

	gl.BindVertexArray(r.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)

	for i := range u.Textures {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
		gl.BindTexture(gl.TEXTURE_2D, 0)
	}

	if r.offscreen != nil {
		r.offscreen.Unbind()
		if r.blitProgram != 0 {
			r.present()
		}
	}
	return nil
}

// present copies the offscreen target to the window framebuffer.
func (r *Renderer) present() {
	fbWidth, fbHeight := r.context.GetFramebufferSize()
	gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.UseProgram(r.blitProgram)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.offscreen.textureID)
	if r.blitTexLoc != -1 {
		gl.Uniform1i(r.blitTexLoc, 0)
	}
	gl.BindVertexArray(r.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// Offscreen returns the render target, or nil when drawing to the window.
func (r *Renderer) Offscreen() *Offscreen {
	return r.offscreen
}

// Shutdown releases every GL object. The context itself is owned by the caller.
func (r *Renderer) Shutdown() {
	for _, tex := range r.textures {
		if tex != nil {
			tex.Destroy()
		}
	}
	r.textures = nil
	if r.program != 0 {
		gl.DeleteProgram(r.program)
		r.program = 0
	}
	if r.blitProgram != 0 {
		gl.DeleteProgram(r.blitProgram)
		r.blitProgram = 0
	}
	if r.offscreen != nil {
		r.offscreen.Destroy()
		r.offscreen = nil
	}
	gl.DeleteBuffers(1, &r.quadVBO)
	gl.DeleteVertexArrays(1, &r.quadVAO)
}
