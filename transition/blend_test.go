package transition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlendPointerAtTop(t *testing.T) {
	// 1.0*4.8 - 0.5*3.0 + 0.5*0.8 - 0.8 = 3.2, clamped to 1
	assert.Equal(t, 1.0, Blend(0.5, 1.0, 0.5, 0.5))
}

func TestBlendInsideBand(t *testing.T) {
	// 0.5*4.8 - 0.5*3.0 + 0.5*0.8 - 0.8 = 0.5
	assert.InDelta(t, 0.5, Blend(0.5, 0.5, 0.5, 0.5), 1e-9)
}

func TestBlendClamped(t *testing.T) {
	steps := []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1}
	for _, px := range steps {
		for _, py := range steps {
			for _, ux := range steps {
				for _, uy := range steps {
					b := Blend(px, py, ux, uy)
					assert.GreaterOrEqual(t, b, 0.0)
					assert.LessOrEqual(t, b, 1.0)
				}
			}
		}
	}
	assert.Equal(t, 0.0, Blend(0, 0, 0, 0))
	assert.Equal(t, 1.0, Blend(1, 1, 1, 1))
}

func TestBlendMonotonicInPointerY(t *testing.T) {
	uvs := [][2]float64{{0, 0}, {0.5, 0.5}, {1, 1}, {0.2, 0.9}, {0.9, 0.1}}
	for _, uv := range uvs {
		prev := -1.0
		for i := 0; i <= 100; i++ {
			py := float64(i) / 100
			b := Blend(0.5, py, uv[0], uv[1])
			assert.GreaterOrEqual(t, b, prev, "uv %v py %v", uv, py)
			prev = b
		}
	}
}

func TestBlendIgnoresPointerX(t *testing.T) {
	assert.Equal(t, Blend(0, 0.4, 0.3, 0.2), Blend(1, 0.4, 0.3, 0.2))
}
