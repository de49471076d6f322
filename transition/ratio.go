package transition

// AspectRatio is the fraction of a texture's UV space that is sampled so the
// image covers the viewport without being stretched. One component is always
// 1.0, the other is in (0, 1].
type AspectRatio struct {
	X float64
	Y float64
}

// ComputeRatio compares the natural texture ratio with the viewport ratio.
// A viewport relatively wider than the image crops vertically, otherwise the
// image is cropped horizontally. Dimensions below 1 are treated as 1.
func ComputeRatio(texWidth, texHeight, viewWidth, viewHeight int) AspectRatio {
	tr := float64(atLeastOne(texWidth)) / float64(atLeastOne(texHeight))
	vr := float64(atLeastOne(viewWidth)) / float64(atLeastOne(viewHeight))
	if vr > tr {
		return AspectRatio{X: 1.0, Y: tr / vr}
	}
	return AspectRatio{X: vr / tr, Y: 1.0}
}

// Remap converts a viewport UV into the texture UV to sample, centering the
// visible crop inside the full texture.
func (r AspectRatio) Remap(u, v float64) (float64, float64) {
	su := u * r.X
	sv := v * r.Y
	if r.X < 1.0 {
		su += (1.0 - r.X) / 2.0
	}
	if r.Y < 1.0 {
		sv += (1.0 - r.Y) / 2.0
	}
	return su, sv
}

// Vec2 returns the ratio as the float32 pair uploaded to the shader.
func (r AspectRatio) Vec2() [2]float32 {
	return [2]float32{float32(r.X), float32(r.Y)}
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
