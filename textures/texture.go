package textures

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	xdraw "golang.org/x/image/draw"
)

// Sampler selects how a texture is filtered and wrapped.
type Sampler struct {
	Filter string // "nearest", "linear" or "mipmap"
	Wrap   string // "clamp", "repeat" or "mirror"
	VFlip  bool
}

// DefaultSampler matches the transition: nearest magnification, clamped
// edges, rows flipped so v=0 is the bottom of the image.
var DefaultSampler = Sampler{Filter: "nearest", Wrap: "clamp", VFlip: true}

// Texture is a GL 2D texture together with the natural size of its image.
type Texture struct {
	textureID uint32
	width     int
	height    int
}

// ToRGBA converts any image to a tightly packed RGBA image anchored at the
// origin. Row 0 is the top of the image.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	return rgba
}

// VFlip returns a vertically flipped copy of src. GL expects the first row
// of texel data to be the bottom of the image.
func VFlip(src *image.RGBA) *image.RGBA {
	bounds := src.Bounds()
	flipped := image.NewRGBA(bounds)
	height := bounds.Dy()

	rowSize := bounds.Dx() * 4
	for y := 0; y < height; y++ {
		srcRow := src.Pix[((height-1)-y)*src.Stride:]
		dstRow := flipped.Pix[y*flipped.Stride:]
		copy(dstRow, srcRow[:rowSize])
	}
	return flipped
}

// NewTexture uploads img to a new GL texture. It must be called on the
// goroutine that owns the GL context.
func NewTexture(index int, img image.Image, sampler Sampler) (*Texture, error) {
	if img == nil {
		return nil, fmt.Errorf("input image for texture %d is nil", index)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("input image for texture %d is empty", index)
	}

	rgba := ToRGBA(img)
	if sampler.VFlip {
		rgba = VFlip(rgba)
	}

	width := int32(rgba.Rect.Size().X)
	height := int32(rgba.Rect.Size().Y)

	var textureID uint32
	gl.GenTextures(1, &textureID)
	gl.BindTexture(gl.TEXTURE_2D, textureID)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, getWrapMode(sampler.Wrap))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, getWrapMode(sampler.Wrap))

	minFilter, magFilter := getFilterMode(sampler.Filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, magFilter)

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		gl.RGBA8,
		width,
		height,
		0,
		gl.RGBA,
		gl.UNSIGNED_BYTE,
		gl.Ptr(rgba.Pix),
	)

	if sampler.Filter == "mipmap" {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}

	gl.BindTexture(gl.TEXTURE_2D, 0)

	return &Texture{
		textureID: textureID,
		width:     int(width),
		height:    int(height),
	}, nil
}

func (t *Texture) Width() int           { return t.width }
func (t *Texture) Height() int          { return t.height }
func (t *Texture) GetTextureID() uint32 { return t.textureID }

// Destroy releases the GL texture.
func (t *Texture) Destroy() {
	gl.DeleteTextures(1, &t.textureID)
}

func getWrapMode(wrap string) int32 {
	switch wrap {
	case "repeat":
		return gl.REPEAT
	case "mirror":
		return gl.MIRRORED_REPEAT
	default:
		return gl.CLAMP_TO_EDGE
	}
}

func getFilterMode(filter string) (minFilter, magFilter int32) {
	switch filter {
	case "mipmap":
		return gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR
	case "linear":
		return gl.LINEAR, gl.LINEAR
	default:
		return gl.LINEAR, gl.NEAREST
	}
}
