package transition

// Uniforms is the per-frame input of the transition shader.
type Uniforms struct {
	// Time is the number of seconds since the effect became ready.
	Time float32
	// Resolution is the viewport size in pixels.
	Resolution [2]float32
	// Mouse is the normalized pointer position, y up.
	Mouse [2]float32
	// Textures and Ratios are indexed by image order.
	Textures []Texture
	Ratios   []AspectRatio
}

// Clone returns a copy that does not share slices with u.
func (u *Uniforms) Clone() Uniforms {
	out := *u
	out.Textures = append([]Texture(nil), u.Textures...)
	out.Ratios = append([]AspectRatio(nil), u.Ratios...)
	return out
}
