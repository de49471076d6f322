package transition

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func referenceUniforms(w, h int, mouseY float32, samplers ...*ImageSampler) *Uniforms {
	u := &Uniforms{
		Resolution: [2]float32{float32(w), float32(h)},
		Mouse:      [2]float32{0.5, mouseY},
	}
	for _, s := range samplers {
		u.Textures = append(u.Textures, s)
		u.Ratios = append(u.Ratios, ComputeRatio(s.Width(), s.Height(), w, h))
	}
	return u
}

func TestRenderReferenceExtremes(t *testing.T) {
	s0 := NewImageSampler(solid(12, 8, red))
	s1 := NewImageSampler(solid(8, 12, blue))
	samplers := []Sampler{s0, s1}

	top := RenderReference(referenceUniforms(32, 18, 1, s0, s1), samplers)
	bottom := RenderReference(referenceUniforms(32, 18, 0, s0, s1), samplers)

	require.Equal(t, image.Rect(0, 0, 32, 18), top.Bounds())
	for y := 0; y < 18; y++ {
		for x := 0; x < 32; x++ {
			assert.Equal(t, blue, top.RGBAAt(x, y), "pointer at top shows image 1")
			assert.Equal(t, red, bottom.RGBAAt(x, y), "pointer at bottom shows image 0")
		}
	}
}

func TestRenderReferenceBandMovesWithPointer(t *testing.T) {
	s0 := NewImageSampler(solid(4, 4, red))
	s1 := NewImageSampler(solid(4, 4, blue))
	samplers := []Sampler{s0, s1}

	count := func(img *image.RGBA) int {
		n := 0
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if img.RGBAAt(x, y).B > 127 {
					n++
				}
			}
		}
		return n
	}

	prev := -1
	for _, my := range []float32{0.2, 0.4, 0.6, 0.8} {
		img := RenderReference(referenceUniforms(40, 40, my, s0, s1), samplers)
		n := count(img)
		assert.GreaterOrEqual(t, n, prev)
		prev = n
	}
}

func TestImageSamplerFlipsRows(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 2))
	img.SetRGBA(0, 0, red)  // top row
	img.SetRGBA(0, 1, blue) // bottom row
	s := NewImageSampler(img)

	assert.Equal(t, blue, s.Sample(0.5, 0.25))
	assert.Equal(t, red, s.Sample(0.5, 0.75))
	assert.Equal(t, red, s.Sample(2, 2), "clamped")
	assert.Equal(t, blue, s.Sample(-1, -1), "clamped")
}

func TestShadeUsesLetterbox(t *testing.T) {
	// Left half green, right half red. A square viewport crops the 2:1 image
	// to its center, so the left edge samples the green half at u=0.25.
	green := color.RGBA{G: 255, A: 255}
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		img.SetRGBA(0, y, green)
		img.SetRGBA(1, y, green)
		img.SetRGBA(2, y, red)
		img.SetRGBA(3, y, red)
	}
	s := NewImageSampler(img)
	u := referenceUniforms(10, 10, 0, s, s)
	assert.Equal(t, AspectRatio{X: 0.5, Y: 1}, u.Ratios[0])

	assert.Equal(t, green, Shade(u, []Sampler{s, s}, 0.5, 5))
	assert.Equal(t, red, Shade(u, []Sampler{s, s}, 9.5, 5))
}
