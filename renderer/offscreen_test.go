package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlipRows(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		rows int
		want []byte
	}{
		{"even", []byte{1, 1, 2, 2, 3, 3, 4, 4}, 4, []byte{4, 4, 3, 3, 2, 2, 1, 1}},
		{"odd", []byte{1, 1, 2, 2, 3, 3}, 3, []byte{3, 3, 2, 2, 1, 1}},
		{"single", []byte{7, 8}, 1, []byte{7, 8}},
		{"empty", []byte{}, 0, []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pix := append([]byte(nil), tt.in...)
			flipRows(pix, 2, tt.rows)
			assert.Equal(t, tt.want, pix)
		})
	}
}

func TestQuadCoversClipSpace(t *testing.T) {
	assert.Len(t, quadVertices, 12)
	for _, v := range quadVertices {
		assert.True(t, v == -1 || v == 1)
	}
}
