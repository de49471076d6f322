package transition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeRatioScenario(t *testing.T) {
	// 1600x900 viewport (1.778) is wider than a 1200x800 image (1.5).
	r := ComputeRatio(1200, 800, 1600, 900)
	assert.Equal(t, 1.0, r.X)
	assert.InDelta(t, 0.84375, r.Y, 1e-9)
}

func TestComputeRatioInvariants(t *testing.T) {
	sizes := [][2]int{
		{1, 1}, {1920, 1080}, {1080, 1920}, {800, 600}, {600, 800},
		{1200, 800}, {4000, 100}, {100, 4000}, {333, 777},
	}
	for _, tex := range sizes {
		for _, view := range sizes {
			r := ComputeRatio(tex[0], tex[1], view[0], view[1])
			tr := float64(tex[0]) / float64(tex[1])
			vr := float64(view[0]) / float64(view[1])

			assert.True(t, r.X == 1.0 || r.Y == 1.0, "tex %v view %v: %+v", tex, view, r)
			assert.Greater(t, r.X, 0.0)
			assert.LessOrEqual(t, r.X, 1.0)
			assert.Greater(t, r.Y, 0.0)
			assert.LessOrEqual(t, r.Y, 1.0)

			switch {
			case vr > tr:
				assert.Equal(t, 1.0, r.X)
				assert.Less(t, r.Y, 1.0)
			case vr < tr:
				assert.Equal(t, 1.0, r.Y)
				assert.Less(t, r.X, 1.0)
			}
		}
	}
}

func TestComputeRatioSwapClampsOtherAxis(t *testing.T) {
	wide := ComputeRatio(800, 800, 1600, 800)
	tall := ComputeRatio(1600, 800, 800, 800)
	assert.Equal(t, AspectRatio{X: 1, Y: 0.5}, wide)
	assert.Equal(t, AspectRatio{X: 0.5, Y: 1}, tall)
}

func TestComputeRatioDegenerateViewport(t *testing.T) {
	tests := []struct {
		name         string
		viewW, viewH int
	}{
		{"zero height", 800, 0},
		{"zero width", 0, 600},
		{"both zero", 0, 0},
		{"negative", -10, -10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ComputeRatio(1200, 800, tt.viewW, tt.viewH)
			assert.False(t, r.X != r.X || r.Y != r.Y, "NaN ratio")
			assert.Greater(t, r.X, 0.0)
			assert.Greater(t, r.Y, 0.0)
			assert.LessOrEqual(t, r.X, 1.0)
			assert.LessOrEqual(t, r.Y, 1.0)
		})
	}
}

func TestAspectRatioRemapCentersCrop(t *testing.T) {
	r := AspectRatio{X: 1, Y: 0.5}

	u, v := r.Remap(0, 0)
	assert.Equal(t, 0.0, u)
	assert.Equal(t, 0.25, v)

	u, v = r.Remap(1, 1)
	assert.Equal(t, 1.0, u)
	assert.Equal(t, 0.75, v)

	u, v = r.Remap(0.5, 0.5)
	assert.Equal(t, 0.5, u)
	assert.Equal(t, 0.5, v)
}

func TestAspectRatioRemapIdentity(t *testing.T) {
	r := AspectRatio{X: 1, Y: 1}
	u, v := r.Remap(0.3, 0.7)
	assert.Equal(t, 0.3, u)
	assert.Equal(t, 0.7, v)
}
