package render

// Material describes how a mesh is shaded by the rasterizer.
type Material struct {
	Color       Color
	Texture     *Texture // optional; tinted by Color when Color.A is non-zero
	DoubleSided bool     // disables back-face culling
	Unlit       bool     // skip the directional light term
}

// SolidMaterial returns a lit, single-sided material of the given color.
func SolidMaterial(c Color) Material {
	return Material{Color: c}
}
