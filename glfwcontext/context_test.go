package glfwcontext

import (
	"testing"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestToFramebuffer(t *testing.T) {
	tests := []struct {
		name         string
		x, y         float64
		winW, winH   int
		fbW, fbH     int
		wantX, wantY float64
	}{
		{"same size", 10, 20, 800, 600, 800, 600, 10, 20},
		{"retina", 10, 20, 800, 600, 1600, 1200, 20, 40},
		{"minimized", 10, 20, 0, 0, 0, 0, 10, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := toFramebuffer(tt.x, tt.y, tt.winW, tt.winH, tt.fbW, tt.fbH)
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
		})
	}
}

func TestHandleKey(t *testing.T) {
	c := &Context{logger: zap.NewNop(), onKey: map[glfw.Key]func(){}}
	resets := 0
	c.OnKey(glfw.KeyR, func() { resets++ })
	c.OnKey(glfw.KeyEscape, func() { t.Fatal("escape must not be rebound") })

	assert.False(t, c.handleKey(glfw.KeyR, glfw.Press))
	assert.False(t, c.handleKey(glfw.KeyR, glfw.Release))
	assert.False(t, c.handleKey(glfw.KeyR, glfw.Repeat))
	assert.Equal(t, 1, resets)

	assert.False(t, c.handleKey(glfw.KeySpace, glfw.Press), "unbound key")
	assert.True(t, c.handleKey(glfw.KeyEscape, glfw.Press))
	assert.False(t, c.handleKey(glfw.KeyEscape, glfw.Release))
}
