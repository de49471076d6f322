package transition

import (
	"image"
	"image/color"
	"math"
)

// Sampler returns the color of a texture at a UV coordinate with v=0 at the
// bottom edge, matching GL texture space.
type Sampler interface {
	Sample(u, v float64) color.RGBA
}

// ImageSampler samples an image with nearest filtering and clamped edges.
type ImageSampler struct {
	img image.Image
}

// NewImageSampler wraps img. It also satisfies Texture so the CPU path can
// share uniforms with the GPU path.
func NewImageSampler(img image.Image) *ImageSampler {
	return &ImageSampler{img: img}
}

func (s *ImageSampler) Width() int  { return s.img.Bounds().Dx() }
func (s *ImageSampler) Height() int { return s.img.Bounds().Dy() }

func (s *ImageSampler) Sample(u, v float64) color.RGBA {
	b := s.img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return color.RGBA{}
	}
	x := clampInt(int(math.Floor(clamp01(u)*float64(w))), 0, w-1)
	// flip: image rows run top-down, texture v runs bottom-up
	y := clampInt(int(math.Floor((1-clamp01(v))*float64(h))), 0, h-1)
	return color.RGBAModel.Convert(s.img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
}

// Shade evaluates the transition for the fragment centered at pixel
// (fragX, fragY), y up, using the first two samplers.
func Shade(u *Uniforms, samplers []Sampler, fragX, fragY float64) color.RGBA {
	w := math.Max(float64(u.Resolution[0]), 1)
	h := math.Max(float64(u.Resolution[1]), 1)
	uvx, uvy := fragX/w, fragY/h

	s0u, s0v := u.Ratios[0].Remap(uvx, uvy)
	s1u, s1v := u.Ratios[1].Remap(uvx, uvy)
	c0 := samplers[0].Sample(s0u, s0v)
	c1 := samplers[1].Sample(s1u, s1v)

	t := Blend(float64(u.Mouse[0]), float64(u.Mouse[1]), uvx, uvy)
	return mixRGBA(c0, c1, t)
}

// RenderReference shades a whole frame on the CPU. Row 0 of the result is the
// top of the viewport.
func RenderReference(u *Uniforms, samplers []Sampler) *image.RGBA {
	width := atLeastOne(int(u.Resolution[0]))
	height := atLeastOne(int(u.Resolution[1]))
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	for row := 0; row < height; row++ {
		fragY := float64(height-1-row) + 0.5
		for col := 0; col < width; col++ {
			out.SetRGBA(col, row, Shade(u, samplers, float64(col)+0.5, fragY))
		}
	}
	return out
}

func mixRGBA(a, b color.RGBA, t float64) color.RGBA {
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x)*(1-t) + float64(y)*t))
	}
	return color.RGBA{
		R: lerp(a.R, b.R),
		G: lerp(a.G, b.G),
		B: lerp(a.B, b.B),
		A: lerp(a.A, b.A),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
