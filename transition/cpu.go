package transition

import (
	"fmt"
	"image"
	"sync"
)

// FixedViewport reports a constant output size, for offscreen rendering.
type FixedViewport struct {
	Width  int
	Height int
}

func (v FixedViewport) GetFramebufferSize() (int, int) {
	return v.Width, v.Height
}

// CPUBackend renders frames with RenderReference. It needs no GPU and is
// used for snapshots.
type CPUBackend struct {
	mu       sync.Mutex
	samplers []Sampler
	width    int
	height   int
	frame    *image.RGBA
}

var _ Backend = (*CPUBackend)(nil)

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{}
}

func (b *CPUBackend) UploadTexture(index int, img image.Image) (Texture, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("image %d is empty", index)
	}
	return NewImageSampler(img), nil
}

func (b *CPUBackend) Init(textures []Texture) error {
	samplers := make([]Sampler, len(textures))
	for i, t := range textures {
		s, ok := t.(Sampler)
		if !ok {
			return fmt.Errorf("texture %d cannot be sampled on the CPU", i)
		}
		samplers[i] = s
	}
	if len(samplers) < 2 {
		return fmt.Errorf("%w: got %d", ErrImageCount, len(samplers))
	}
	b.mu.Lock()
	b.samplers = samplers
	b.mu.Unlock()
	return nil
}

func (b *CPUBackend) Resize(width, height int) {
	b.mu.Lock()
	b.width, b.height = width, height
	b.mu.Unlock()
}

func (b *CPUBackend) Draw(u *Uniforms) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.samplers == nil {
		return ErrNotReady
	}
	b.frame = RenderReference(u, b.samplers)
	return nil
}

// Frame returns the last drawn frame, or nil before the first Draw.
func (b *CPUBackend) Frame() *image.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame
}

// ReadPixels returns a copy of the last drawn frame's RGBA rows, or nil
// before the first Draw.
func (b *CPUBackend) ReadPixels() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frame == nil {
		return nil
	}
	return append([]byte(nil), b.frame.Pix...)
}
