package transition

// Wipe geometry. These values fix the slope and travel of the diagonal band
// and must stay in sync with the fragment shader.
const (
	blendPointerGain = 4.8
	blendVSlope      = 3.0
	blendUSlope      = 0.8
	blendOffset      = 0.8
)

// Blend returns the mix factor between image 0 and image 1 for a fragment at
// (ux, uy) with the normalized pointer at (px, py). Only the vertical pointer
// position moves the band; px is accepted for symmetry with the shader's
// u_mouse uniform.
func Blend(_, py, ux, uy float64) float64 {
	return clamp01(py*blendPointerGain - uy*blendVSlope + ux*blendUSlope - blendOffset)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
