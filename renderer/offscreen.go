package renderer

import (
	"fmt"
	"image"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// Offscreen is an RGBA8 framebuffer the transition renders into when there
// is no visible window, or before presenting to one.
type Offscreen struct {
	fbo       uint32
	textureID uint32
	width     int
	height    int
}

func NewOffscreen(width, height int) (*Offscreen, error) {
	o := &Offscreen{}

	gl.GenFramebuffers(1, &o.fbo)
	gl.GenTextures(1, &o.textureID)
	if err := o.Resize(width, height); err != nil {
		o.Destroy()
		return nil, err
	}
	return o, nil
}

// Resize reallocates the color attachment. The contents are undefined
// until the next draw.
func (o *Offscreen) Resize(width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("invalid offscreen size %dx%d", width, height)
	}
	if width == o.width && height == o.height {
		return nil
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, o.fbo)
	gl.BindTexture(gl.TEXTURE_2D, o.textureID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, o.textureID, 0)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("offscreen fbo is not complete (status 0x%x)", status)
	}
	o.width, o.height = width, height
	return nil
}

func (o *Offscreen) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, o.fbo)
}

func (o *Offscreen) Unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// ReadPixels returns the framebuffer contents as RGBA rows, top row first.
func (o *Offscreen) ReadPixels() []byte {
	pixels := make([]byte, o.width*o.height*4)

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, o.fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(o.width), int32(o.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

	flipRows(pixels, o.width*4, o.height)
	return pixels
}

// Image wraps ReadPixels in an *image.RGBA.
func (o *Offscreen) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    o.ReadPixels(),
		Stride: o.width * 4,
		Rect:   image.Rect(0, 0, o.width, o.height),
	}
}

func (o *Offscreen) Destroy() {
	gl.DeleteFramebuffers(1, &o.fbo)
	gl.DeleteTextures(1, &o.textureID)
}

// flipRows reverses the row order of pix in place. GL reads bottom-up.
func flipRows(pix []byte, stride, rows int) {
	tmp := make([]byte, stride)
	for top, bottom := 0, rows-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
